package cml

import "github.com/cml-go/cml/internal/corechan"

// Channel is a synchronous rendezvous channel: a Give only completes
// once some Take on the same channel is ready to receive it, and vice
// versa. A Channel never buffers a value on its own.
type Channel[T any] struct {
	inner *corechan.Channel[T]
}

// NewChannel allocates an empty channel.
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{inner: corechan.New[T]()}
}

// QueueDepths reports how many givers and takers are currently parked
// on this channel, for monitoring.
func (c *Channel[T]) QueueDepths() (givers, takers int) {
	return c.inner.QueueDepths()
}

// Give returns the give(ch, v) alternative.
func (c *Channel[T]) Give(v T) Alt[struct{}] {
	return Give(c, v)
}

// Take returns the take(ch) alternative.
func (c *Channel[T]) Take() Alt[T] {
	return Take(c)
}
