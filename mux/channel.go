package mux

import (
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/pkg/errors"
	"github.com/pkopriv2/sluice/circuit"
	"github.com/pkopriv2/sluice/common"
	"github.com/pkopriv2/sluice/pipe"
	"github.com/pkopriv2/sluice/wire"
	uuid "github.com/satori/go.uuid"
)

// A Channel multiplexes many endpoints over a single transport.  Each
// endpoint is registered under a local id; incoming messages are routed
// to the endpoint registered under their destination id, while outgoing
// messages are pushed straight onto the transport.
//
// Two channels are expected to sit at either end of a transport.  The
// pair boots by attaching their respective bootstrap endpoints (see
// AttachBootstrap), giving the applications an initial pipe over which
// further routes can be advertised.  Local ids for those routes are
// allocated from the channel's id pool at attach time; how a side
// learns the id its peer allocated is the applications' business,
// typically a message over the bootstrap pipe.
//
// Closing the channel (or losing the transport) detaches every routed
// endpoint in ascending id order.  Each endpoint's client observes a
// single detach notification.
type Channel struct {
	ctx common.Context
	log common.Logger

	memberId  uuid.UUID
	transport Transport
	stats     *channelStats
	ids       *IdPool
	ctrl      circuit.Controller
	done      chan struct{}

	lock   sync.Mutex
	routes *treemap.Map
	stale  map[wire.Id]*pipe.Endpoint
	closed bool
}

// NewChannel starts a channel over the given transport and begins
// routing.  The member id names this side of the conversation in logs
// and stats; it plays no part in addressing.
func NewChannel(ctx common.Context, memberId uuid.UUID, transport Transport) (*Channel, error) {
	c := &Channel{
		ctx:       ctx,
		log:       ctx.Logger().Fmt("Channel(%v)", memberId),
		memberId:  memberId,
		transport: transport,
		stats:     newChannelStats(memberId),
		ids:       NewIdPool(),
		ctrl:      circuit.NewController(),
		done:      make(chan struct{}),
		routes:    treemap.NewWith(idComparator),
		stale:     make(map[wire.Id]*pipe.Endpoint),
	}

	sock, err := c.ctrl.NewControlSocket()
	if err != nil {
		return nil, err
	}

	go c.readLoop(sock)
	c.log.Info("Started")
	return c, nil
}

func (c *Channel) MemberId() uuid.UUID {
	return c.memberId
}

// AttachBootstrap attaches the client under the well known bootstrap
// route.  Both sides of a fresh transport are expected to do this
// before anything else; the resulting pipe is how the applications
// advertise any further routes.
func (c *Channel) AttachBootstrap(client pipe.Client, port wire.Id) (*pipe.Endpoint, error) {
	if client == nil {
		panic("mux: attaching a nil client")
	}

	ep := pipe.NewEndpoint(c.ctx, client, port, nil)
	if err := c.run(ep, wire.Bootstrap, wire.Bootstrap); err != nil {
		return nil, err
	}
	return ep, nil
}

// Attach creates an endpoint delivering to the given client and binds
// it under a freshly allocated local id, which is returned so the
// application can advertise it to the peer.  The remote id names the
// endpoint on the peer that traffic should be addressed to.  On error
// the client may still observe a single detach notification.
func (c *Channel) Attach(client pipe.Client, port wire.Id, remote wire.Id) (*pipe.Endpoint, wire.Id, error) {
	if client == nil {
		panic("mux: attaching a nil client")
	}

	ep := pipe.NewEndpoint(c.ctx, client, port, nil)
	local, err := c.attach(ep, remote)
	if err != nil {
		return nil, wire.Invalid, err
	}
	return ep, local, nil
}

// AttachEndpoint binds a caller built endpoint under a freshly
// allocated local id, flushing whatever backlog it has staged.  This is
// how a pipe that outlived its previous channel migrates onto a new
// one.
//
// An endpoint with no client left detaches itself the moment its
// backlog has been flushed.  The backlog still goes out, but no route
// is registered and the attach reports DetachedError.
func (c *Channel) AttachEndpoint(ep *pipe.Endpoint, remote wire.Id) (wire.Id, error) {
	return c.attach(ep, remote)
}

// WriteMessage implements pipe.Channel.  Endpoints invoke this with
// their own lock held, so it deliberately takes no channel locks; a
// write to a closed channel surfaces as a transport error.
func (c *Channel) WriteMessage(msg wire.Message) error {
	if !msg.Stamped() {
		panic("mux: writing an unstamped message")
	}

	if err := c.transport.Send(msg); err != nil {
		c.stats.msgsDropped.Inc(1)
		return errors.Wrapf(err, "Unable to send message [%v]", msg)
	}

	c.stats.msgsSent.Inc(1)
	return nil
}

// DetachEndpoint implements pipe.Channel.  Also invoked under the
// calling endpoint's lock; it must never call back into the endpoint.
// Only the first call for a given registration has any effect; the
// local id, unless it is the bootstrap id, goes back to the pool.
//
// A detach can overtake its own attach: the endpoint resets before run
// has published the route.  The detach is parked under the local id and
// settled by run instead of being dropped.
func (c *Channel) DetachEndpoint(ep *pipe.Endpoint, local wire.Id, remote wire.Id) {
	removed := false

	c.lock.Lock()
	if cur, ok := c.routes.Get(local); ok {
		if cur.(*pipe.Endpoint) == ep {
			c.routes.Remove(local)
			if local != wire.Bootstrap {
				c.ids.Return(local)
			}
			removed = true
		}
	} else if !c.closed {
		c.stale[local] = ep
	}
	c.lock.Unlock()

	if !removed {
		return
	}

	c.stats.endpointsDetached.Inc(1)
	c.log.Debug("Detached endpoint [%v->%v]", local, remote)
}

// Close tears the channel down: the transport is released, the routing
// loop drained, and every remaining endpoint detached in ascending id
// order.  Blocks until an in-flight delivery, if any, has completed.
func (c *Channel) Close() error {
	return c.shutdown(nil)
}

// Closed is signaled once teardown has fully completed, however it was
// initiated.
func (c *Channel) Closed() <-chan struct{} {
	return c.done
}

// Failure returns the error that tore the channel down, if teardown was
// spontaneous rather than requested.
func (c *Channel) Failure() error {
	return c.ctrl.Failure()
}

func (c *Channel) attach(ep *pipe.Endpoint, remote wire.Id) (wire.Id, error) {
	local, err := c.ids.Take()
	if err != nil {
		return wire.Invalid, err
	}

	if err := c.run(ep, local, remote); err != nil {
		c.ids.Return(local)
		return wire.Invalid, err
	}
	return local, nil
}

// run attaches the endpoint and publishes its route.  The publish is
// re-checked: a shutdown, a conflicting attach, or the endpoint's own
// detach that slipped in while it was attaching wins instead.
func (c *Channel) run(ep *pipe.Endpoint, local wire.Id, remote wire.Id) error {
	if err := c.check(local); err != nil {
		return err
	}

	ep.AttachAndRun(c, local, remote)

	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		ep.DetachFromChannel()
		return ClosedError
	}
	if cur, ok := c.stale[local]; ok && cur == ep {
		// the endpoint already detached and reset itself; publishing
		// now would register a route nothing can ever revive.
		delete(c.stale, local)
		c.lock.Unlock()
		return errors.Wrapf(DetachedError, "Local id [%v]", local)
	}
	if _, ok := c.routes.Get(local); ok {
		c.lock.Unlock()
		ep.DetachFromChannel()
		return errors.Wrapf(AddressInUseError, "Local id [%v]", local)
	}
	c.routes.Put(local, ep)
	c.lock.Unlock()

	c.stats.endpointsAttached.Inc(1)
	c.log.Debug("Attached endpoint [%v->%v]", local, remote)
	return nil
}

// check rejects attaches that are doomed before the endpoint has been
// touched at all.
func (c *Channel) check(local wire.Id) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return ClosedError
	}
	if _, ok := c.routes.Get(local); ok {
		return errors.Wrapf(AddressInUseError, "Local id [%v]", local)
	}
	return nil
}

func (c *Channel) lookup(id wire.Id) (*pipe.Endpoint, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	raw, ok := c.routes.Get(id)
	if !ok {
		return nil, false
	}
	return raw.(*pipe.Endpoint), true
}

// readLoop is the single routing goroutine.  Deliveries happen on this
// goroutine, so a client that stalls its OnReadMessage stalls the whole
// channel; clients are expected to hand work off quickly.
func (c *Channel) readLoop(sock circuit.ControlSocket) {
	defer sock.Done()

	for {
		msg, err := c.transport.Recv()
		if err != nil {
			// a recv error during our own shutdown is just the
			// transport being released; anything else is spontaneous.
			c.lock.Lock()
			closed := c.closed
			c.lock.Unlock()

			if !closed {
				c.log.Error("Transport down: %v", err)
				go c.shutdown(errors.Wrap(err, "Transport down"))
			}
			return
		}

		c.stats.msgsReceived.Inc(1)

		ep, ok := c.lookup(msg.Destination)
		if !ok {
			c.stats.msgsDropped.Inc(1)
			c.log.Debug("No route for message [%v]", msg)
			continue
		}

		ep.OnReadMessage(msg)
	}
}

// shutdown is the single teardown path.  The first caller wins;
// everyone else gets ClosedError.
func (c *Channel) shutdown(cause error) error {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return ClosedError
	}
	c.closed = true

	eps := make([]*pipe.Endpoint, 0, c.routes.Size())
	c.routes.Each(func(key interface{}, val interface{}) {
		eps = append(eps, val.(*pipe.Endpoint))
	})
	c.routes.Clear()
	c.lock.Unlock()

	if cause == nil {
		c.log.Info("Closing")
	} else {
		c.log.Error("Failing: %v", cause)
	}

	c.transport.Close()
	if cause == nil {
		c.ctrl.Close()
	} else {
		c.ctrl.Fail(cause)
	}

	for _, ep := range eps {
		ep.DetachFromChannel()
		c.stats.endpointsDetached.Inc(1)
	}

	close(c.done)
	return nil
}

func idComparator(a interface{}, b interface{}) int {
	l, r := a.(wire.Id), b.(wire.Id)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}
