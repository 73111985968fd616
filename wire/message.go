package wire

import "fmt"

// A Message is a single unit of transfer between two endpoints.  Ownership
// moves with the message: once handed to an endpoint or a channel the
// producer must not retain or mutate it.
//
// Source and destination are stamped by the sending endpoint at the moment
// the message actually enters a channel.  Messages queued on an unattached
// endpoint remain unstamped until the endpoint is attached.
type Message struct {
	Source      Id
	Destination Id
	Payload     []byte
}

func NewMessage(payload []byte) Message {
	return Message{Payload: payload}
}

// Stamp addresses the message for the wire.  The local id becomes the
// source and the remote id the destination.
func (m Message) Stamp(local Id, remote Id) Message {
	m.Source = local
	m.Destination = remote
	return m
}

func (m Message) Stamped() bool {
	return m.Source.Valid() && m.Destination.Valid()
}

func (m Message) String() string {
	return fmt.Sprintf("msg(%v->%v, %v bytes)", m.Source, m.Destination, len(m.Payload))
}
