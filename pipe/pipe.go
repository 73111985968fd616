package pipe

import (
	"github.com/pkopriv2/sluice/wire"
)

// A Client is the local consumer of an endpoint: whatever object is
// receiving messages on behalf of one side of a logical pipe.  Clients
// are swappable at runtime (see Endpoint.ReplaceClient), which is what
// allows a pipe to migrate between owners without stalling traffic.
type Client interface {

	// OnReadMessage delivers a single incoming message addressed to the
	// given client port.  A client returns false to refuse the delivery,
	// which should only happen when the client has already been swapped
	// out of its endpoint; the endpoint responds by retrying against
	// whatever client is installed by then.
	//
	// Never invoked with the endpoint's lock held.  Implementations are
	// free to call back into the endpoint.
	OnReadMessage(port wire.Id, msg wire.Message) bool

	// OnDetachFromChannel informs the client that the channel beneath
	// its endpoint is gone and no further messages will flow in either
	// direction.  A client that was concurrently replaced may still
	// observe one trailing notification meant for its predecessor and
	// must tolerate it.
	//
	// Never invoked with the endpoint's lock held.
	OnDetachFromChannel(port wire.Id)
}

// A Channel carries stamped messages to the far side of a pipe.  The
// endpoint invokes both methods while holding its own internal lock, so
// implementations must never call back into the endpoint synchronously;
// doing so deadlocks.
type Channel interface {

	// WriteMessage pushes a single stamped message onto the wire.
	WriteMessage(msg wire.Message) error

	// DetachEndpoint drops the channel's route to the given endpoint.
	// After this returns the channel may no longer deliver to it.
	DetachEndpoint(ep *Endpoint, local wire.Id, remote wire.Id)
}
