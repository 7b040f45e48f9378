package plug

// newUnboundedChan returns a (send, receive) channel pair backed by an
// internal growable slice and a forwarding goroutine, so that sending never
// blocks on the receiver keeping up — the channel-based equivalent of an
// unbounded mpsc queue. Closing the send side eventually closes the
// receive side, once any buffered values have been drained.
func newUnboundedChan[T any]() (chan<- T, <-chan T) {
	in := make(chan T)
	out := make(chan T)
	go forwardUnbounded(in, out)
	return in, out
}

func forwardUnbounded[T any](in <-chan T, out chan<- T) {
	defer close(out)
	var queue []T
	for {
		if len(queue) == 0 {
			v, ok := <-in
			if !ok {
				return
			}
			queue = append(queue, v)
			continue
		}

		select {
		case v, ok := <-in:
			if !ok {
				for _, q := range queue {
					out <- q
				}
				return
			}
			queue = append(queue, v)
		case out <- queue[0]:
			queue = queue[1:]
		}
	}
}
