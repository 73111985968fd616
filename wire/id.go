package wire

import "fmt"

// An Id addresses a single endpoint on one side of a channel.  Ids are
// local to their side: the two halves of a logical pipe will generally
// carry different ids, which is why messages are stamped with both a
// source and a destination at send time.
type Id uint32

// Id 0 is reserved as the zero/invalid value so that an unstamped
// message is distinguishable from one addressed to a real endpoint.
const (
	Invalid   Id = 0
	Bootstrap Id = 1
)

func (i Id) Valid() bool {
	return i != Invalid
}

func (i Id) String() string {
	return fmt.Sprintf("id:%08x", uint32(i))
}
