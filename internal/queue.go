// Package internal holds small generic helpers shared by the drawer
// packages.
package internal

// Queue is an unbounded, ordered, single-producer/single-consumer FIFO
// bridging two channels. Sends to In() never block and are never dropped;
// Out() yields values in send order and is closed once In() is closed and
// drained.
type Queue[T any] struct {
	in  chan T
	out chan T
}

// NewQueue creates the queue and starts its pump.
func NewQueue[T any]() (q *Queue[T]) {
	q = &Queue[T]{
		in:  make(chan T),
		out: make(chan T),
	}
	go q.pump()

	return
}

// In is the producer side. Close it to end the stream.
func (q *Queue[T]) In() chan<- T {
	return q.in
}

// Out is the consumer side; closed after the producer closes In and the
// backlog drains.
func (q *Queue[T]) Out() <-chan T {
	return q.out
}

// pump shuttles values through an elastic buffer so the producer never
// blocks on a slow consumer.
func (q *Queue[T]) pump() {
	defer close(q.out)

	var backlog []T
	in := q.in

	for in != nil || len(backlog) > 0 {
		var out chan T
		var next T
		if len(backlog) > 0 {
			out = q.out
			next = backlog[0]
		}

		select {
		case value, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			backlog = append(backlog, value)
		case out <- next:
			backlog = backlog[1:]
		}
	}
}
