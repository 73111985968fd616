package circuit

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

var ClosedError = errors.New("Circuit:ClosedError")

// A controller coordinates the shutdown of a set of cooperating
// routines.  Each routine holds a control socket and selects on its
// Closed/Failed channels; the owner calls Close (graceful) or Fail
// (with cause).  Close and Fail block until every socket has called
// Done, so by the time either returns no routine is still running.
type Controller interface {
	Close() error
	Fail(error)
	Failure() error
	NewControlSocket() (ControlSocket, error)
}

type ControlSocket interface {
	Closed() <-chan struct{}
	Failed() <-chan struct{}
	Failure() error
	Done()
}

type controller struct {
	closed  chan struct{}
	failed  chan struct{}
	gate    chan struct{}
	dead    int32
	failure atomic.Value
	wait    sync.WaitGroup
}

func NewController() Controller {
	return &controller{
		closed: make(chan struct{}),
		failed: make(chan struct{}),
		gate:   make(chan struct{}, 1),
	}
}

func (c *controller) Close() error {
	select {
	case <-c.closed:
		return ClosedError
	case <-c.failed:
		return ClosedError
	case c.gate <- struct{}{}:
	}

	atomic.StoreInt32(&c.dead, 1)
	close(c.closed)
	c.wait.Wait()
	return nil
}

func (c *controller) Fail(e error) {
	select {
	case <-c.closed:
		return
	case <-c.failed:
		return
	case c.gate <- struct{}{}:
	}

	if e != nil {
		c.failure.Store(e)
	}

	atomic.StoreInt32(&c.dead, 1)
	close(c.failed)
	c.wait.Wait()
}

func (c *controller) Failure() error {
	err, _ := c.failure.Load().(error)
	return err
}

func (c *controller) NewControlSocket() (ControlSocket, error) {
	if atomic.LoadInt32(&c.dead) == 1 {
		return nil, ClosedError
	}

	c.wait.Add(1)
	return &controlSocket{c}, nil
}

type controlSocket struct {
	parent *controller
}

func (c *controlSocket) Closed() <-chan struct{} {
	return c.parent.closed
}

func (c *controlSocket) Failed() <-chan struct{} {
	return c.parent.failed
}

func (c *controlSocket) Failure() error {
	return c.parent.Failure()
}

func (c *controlSocket) Done() {
	c.parent.wait.Done()
}
