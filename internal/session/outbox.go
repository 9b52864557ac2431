package session

import (
	"fmt"
	"sync"
)

// Outbox routes serialized events to a Go channel, bridging the hub to
// the connection's transport writer.
type Outbox struct {
	id     string
	events chan []byte
	mu     sync.Mutex
	closed bool
}

// NewOutbox creates an Outbox for the given connection id.
//
// Precondition: id must be non-empty.
// Postcondition: Returns an Outbox with an open events channel.
func NewOutbox(id string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		id:     id,
		events: make(chan []byte, bufferSize),
	}
}

// ID returns the connection id the outbox belongs to.
func (o *Outbox) ID() string {
	return o.id
}

// Push enqueues data for delivery. Delivery is fire-and-forget: when the
// outbox is closed or its buffer is full, Push returns an error and the
// payload is dropped.
//
// Precondition: data must be a non-nil byte slice.
func (o *Outbox) Push(data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %s is closed", o.id)
	}
	select {
	case o.events <- data:
		return nil
	default:
		return fmt.Errorf("outbox %s event buffer full", o.id)
	}
}

// Events returns the read-only events channel. The transport's write
// goroutine reads from this channel to deliver payloads.
func (o *Outbox) Events() <-chan []byte {
	return o.events
}

// Close marks the outbox as closed and closes the events channel.
//
// Postcondition: The events channel is closed. Further Push calls return an error.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.events)
	}
	return nil
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
