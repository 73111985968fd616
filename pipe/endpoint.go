package pipe

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/pkopriv2/sluice/common"
	"github.com/pkopriv2/sluice/wire"
)

// The attachment state of an endpoint with respect to its channel.  An
// endpoint starts unattached, attaches at most once, and once detached
// stays detached.
type attachState int

const (
	unattached attachState = iota
	attached
	detached
)

func (s attachState) String() string {
	switch s {
	case unattached:
		return "unattached"
	case attached:
		return "attached"
	default:
		return "detached"
	}
}

// An Endpoint is one side's terminus of a logical message pipe.  The
// local consumer of the pipe (the Client) hangs off one side, while the
// transport carrying traffic to the far side (the Channel) attaches to
// the other.  The endpoint referees the two: it stages writes that
// happen before the transport exists, stamps and forwards them once it
// does, routes incoming messages up to the client, and resolves the
// teardown races between the two sides.
//
// Lifecycle: an endpoint is created with a client (and possibly a
// backlog of staged messages), is attached to a channel at most once,
// and is done once both sides have let go.  Attachment is one way.
// After the channel detaches the endpoint is permanently offline; the
// only legal operations left are client replacement, client detachment
// and Close.
//
// Threading: every operation may be invoked from any goroutine.  The
// endpoint never holds its lock while calling into the client, which is
// what makes replacing the client safe even while a delivery is in
// flight.  Channel methods, by contrast, ARE invoked under the lock;
// see the Channel interface for the reentrancy rules that follow.
type Endpoint struct {
	ctx common.Context
	log common.Logger

	lock     sync.Mutex
	client   Client
	port     wire.Id
	state    attachState
	channel  Channel
	localId  wire.Id
	remoteId wire.Id
	pending  *wire.Queue
}

// NewEndpoint creates an endpoint delivering to the given client, which
// will be addressed by the given port.  The queue, if non nil, seeds the
// endpoint's backlog with messages written before the endpoint existed,
// e.g. while the pipe was migrating between channels; ownership of its
// contents transfers to the endpoint.
//
// At least one of client and queued must be given.  A client-less
// endpoint exists only to carry its backlog onto a channel.
func NewEndpoint(ctx common.Context, client Client, port wire.Id, queued *wire.Queue) *Endpoint {
	if client == nil && queued == nil {
		panic("pipe: endpoint requires a client or a backlog")
	}

	e := &Endpoint{
		ctx:     ctx,
		log:     ctx.Logger().Fmt("Endpoint"),
		client:  client,
		port:    port,
		pending: wire.NewQueue(),
	}

	if queued != nil {
		e.pending.Swap(queued)
	}
	return e
}

// EnqueueMessage accepts a message for eventual transmission.  Before
// the endpoint has been attached the message is staged in arrival
// order and flushed by AttachAndRun.  Once attached, the message is
// stamped and written straight through to the channel.
//
// Messages accepted after the channel has detached are staged again and
// will never be delivered.  The loss is indistinguishable from the
// remote side having closed just after delivery, so no error is
// returned.
func (e *Endpoint) EnqueueMessage(msg wire.Message) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.state != attached {
		e.pending.Push(msg)
		return nil
	}

	return e.writeMessageLocked(msg)
}

// ReplaceClient atomically redirects delivery to a new client and port.
// Returns false if the channel has already detached, meaning the new
// client will never see a message or a detach notification.  Replacing
// a client with itself is a caller bug.
func (e *Endpoint) ReplaceClient(client Client, port wire.Id) bool {
	if client == nil {
		panic("pipe: replacing with a nil client")
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if e.client == nil {
		panic("pipe: client already detached")
	}
	if e.client == client && e.port == port {
		panic("pipe: replacing a client with itself")
	}

	e.client = client
	e.port = port
	return e.state != detached
}

// DetachFromClient severs the client side of the endpoint.  An attached
// channel is told to drop its route.  May be called at most once, and
// only while a client is installed.
func (e *Endpoint) DetachFromClient() {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.client == nil {
		panic("pipe: client already detached")
	}
	e.client = nil

	if e.state != attached {
		return
	}

	e.channel.DetachEndpoint(e, e.localId, e.remoteId)
	e.resetChannelLocked()
}

// AttachAndRun binds the endpoint to its channel under the given route
// and flushes the staged backlog in fifo order.  Entries that fail to
// write are logged and dropped; later entries are still attempted.  If
// the client detached before attachment, the endpoint immediately turns
// around and detaches from the channel as well, since nothing can ever
// read from it.
//
// An endpoint is attached at most once, ever.
func (e *Endpoint) AttachAndRun(channel Channel, localId wire.Id, remoteId wire.Id) {
	if channel == nil {
		panic("pipe: attaching a nil channel")
	}
	if !localId.Valid() || !remoteId.Valid() {
		panic(fmt.Sprintf("pipe: attaching invalid route [%v->%v]", localId, remoteId))
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if e.state != unattached {
		panic(fmt.Sprintf("pipe: endpoint already %v", e.state))
	}

	e.state = attached
	e.channel = channel
	e.localId = localId
	e.remoteId = remoteId
	e.log = e.ctx.Logger().Fmt("Endpoint(%v->%v)", localId, remoteId)

	for !e.pending.Empty() {
		msg, _ := e.pending.Pop()
		if err := e.writeMessageLocked(msg); err != nil {
			e.log.Error("Dropping staged message [%v]: %v", msg, err)
		}
	}

	if e.client == nil {
		e.channel.DetachEndpoint(e, e.localId, e.remoteId)
		e.resetChannelLocked()
	}
}

// OnReadMessage hands an incoming message to the current client.  The
// client is invoked outside the endpoint's lock, so a concurrent
// ReplaceClient may win the race; the outgoing client signals this by
// returning false, and delivery is retried against whatever client is
// installed by then.  A message arriving with no client or no channel
// is dropped without fuss: the other side of the pipe simply closed
// first.
func (e *Endpoint) OnReadMessage(msg wire.Message) {
	var client Client
	var port wire.Id

	for {
		e.lock.Lock()
		if e.state != attached || e.client == nil {
			e.lock.Unlock()
			return
		}

		// Reaching a second iteration means the last delivery was
		// refused, which is only legal after a completed replacement.
		if client != nil && client == e.client && port == e.port {
			e.lock.Unlock()
			panic("pipe: delivery refused without a client replacement")
		}

		client = e.client
		port = e.port
		e.lock.Unlock()

		if client.OnReadMessage(port, msg) {
			return
		}

		runtime.Gosched()
	}
}

// DetachFromChannel is the channel's notice that it will carry no more
// traffic for this endpoint, because the remote side closed or the
// channel itself is going away.  The client, if one is still installed,
// is notified outside the lock.  Racing detaches from the two sides are
// tolerated: whichever side resets the channel state first wins, and
// the client is notified at most once.
func (e *Endpoint) DetachFromChannel() {
	var client Client
	var port wire.Id

	e.lock.Lock()
	switch e.state {
	case unattached:
		e.lock.Unlock()
		panic("pipe: detaching a channel that was never attached")
	case detached:
		e.lock.Unlock()
		return
	}

	client = e.client
	port = e.port
	e.resetChannelLocked()
	e.lock.Unlock()

	if client != nil {
		client.OnDetachFromChannel(port)
	}
}

// Close verifies the endpoint is fully torn down and releases whatever
// it still holds.  Both sides must have detached beforehand; a live
// client or channel attachment here is a caller bug.  Messages still
// staged at this point are dropped.
func (e *Endpoint) Close() error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.client != nil {
		panic("pipe: closing an endpoint with a live client")
	}
	if e.state == attached {
		panic("pipe: closing an endpoint still attached to its channel")
	}

	if num := e.pending.Clear(); num > 0 {
		e.log.Info("Dropped [%v] undelivered messages", num)
	}
	return nil
}

func (e *Endpoint) writeMessageLocked(msg wire.Message) error {
	if e.state != attached {
		panic("pipe: writing without an attached channel")
	}
	return errors.Wrapf(
		e.channel.WriteMessage(msg.Stamp(e.localId, e.remoteId)),
		"Unable to write message [%v]", msg)
}

func (e *Endpoint) resetChannelLocked() {
	if e.state != attached {
		panic("pipe: resetting an unattached channel")
	}

	e.channel = nil
	e.localId = wire.Invalid
	e.remoteId = wire.Invalid
	e.state = detached
}
