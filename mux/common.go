package mux

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/pkopriv2/sluice/wire"
)

// Errors
var (
	ClosedError       = errors.New("Mux:ClosedError")
	TimeoutError      = errors.New("Mux:TimeoutError")
	AddressInUseError = errors.New("Mux:AddressInUseError")
	CapacityError     = errors.New("Mux:CapacityError")
	DetachedError     = errors.New("Mux:DetachedError")
)

// Config
const (
	confMemCapacity = "sluice.mux.mem.capacity"
	confMemTimeout  = "sluice.mux.mem.timeout"
)

const (
	defaultMemCapacity = 1024
	defaultMemTimeout  = 5 * time.Second
)

// A Transport is an ordered, reliable carrier of messages between
// exactly two channels.  Implementations must be safe for concurrent
// use.  Closing either side tears the carrier down for both; blocked
// and subsequent calls on both sides return errors.
type Transport interface {
	io.Closer

	// Send pushes a message toward the peer, blocking while the carrier
	// is saturated.
	Send(msg wire.Message) error

	// Recv blocks for the next message from the peer.
	Recv() (wire.Message, error)
}
