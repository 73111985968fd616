package mux

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/pkopriv2/sluice/common"
	"github.com/pkopriv2/sluice/wire"
)

// NewMemPair returns the two halves of an in-memory transport.  This is
// mostly intended for testing and wiring up channels within a single
// process.  The two halves share a lifecycle: closing either side
// releases both.
func NewMemPair(ctx common.Context) (Transport, Transport) {
	capacity := ctx.Config().OptionalInt(confMemCapacity, defaultMemCapacity)
	timeout := ctx.Config().OptionalDuration(confMemTimeout, defaultMemTimeout)

	ltr := make(chan wire.Message, capacity)
	rtl := make(chan wire.Message, capacity)

	closer := &sync.Once{}
	closed := make(chan struct{})

	l := &memTransport{ltr, rtl, timeout, closed, closer}
	r := &memTransport{rtl, ltr, timeout, closed, closer}
	return l, r
}

type memTransport struct {
	tx      chan<- wire.Message
	rx      <-chan wire.Message
	timeout time.Duration
	closed  chan struct{}
	closer  *sync.Once
}

func (m *memTransport) Close() error {
	m.closer.Do(func() {
		close(m.closed)
	})
	return nil
}

func (m *memTransport) Send(msg wire.Message) error {
	timer := time.After(m.timeout)

	select {
	case <-m.closed:
		return ClosedError
	case <-timer:
		return errors.Wrapf(TimeoutError, "Timeout [%v] sending message [%v]", m.timeout, msg)
	case m.tx <- msg:
		return nil
	}
}

func (m *memTransport) Recv() (wire.Message, error) {
	select {
	case <-m.closed:
		return wire.Message{}, ClosedError
	case msg := <-m.rx:
		return msg, nil
	}
}
