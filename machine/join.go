package machine

import "context"

// Join bundles N SpawnCompletes of the same result type into one: Wait
// blocks until every child has completed (or ctx is done), returning their
// values in input order, or the first error encountered.
func Join[R any](ctx context.Context, children []*SpawnComplete[R]) *SpawnComplete[[]R] {
	complete := &SpawnComplete[[]R]{done: make(chan spawnResult[[]R], 1)}
	go func() {
		values := make([]R, len(children))
		for i, child := range children {
			if child == nil {
				continue
			}
			v, err := child.Wait(ctx)
			if err != nil {
				complete.done <- spawnResult[[]R]{err: toSpawnError(err)}
				return
			}
			values[i] = v
		}
		complete.done <- spawnResult[[]R]{value: values}
	}()
	return complete
}

// JoinPair bundles two differently-typed SpawnCompletes into one carrying
// a Pair-shaped result, mirroring Join for node.RouterTuple2.
func JoinPair[A, B any](ctx context.Context, first *SpawnComplete[A], second *SpawnComplete[B]) *SpawnComplete[Pair2[A, B]] {
	complete := &SpawnComplete[Pair2[A, B]]{done: make(chan spawnResult[Pair2[A, B]], 1)}
	go func() {
		a, err := waitOrZero(ctx, first)
		if err != nil {
			complete.done <- spawnResult[Pair2[A, B]]{err: toSpawnError(err)}
			return
		}
		b, err := waitOrZero(ctx, second)
		if err != nil {
			complete.done <- spawnResult[Pair2[A, B]]{err: toSpawnError(err)}
			return
		}
		complete.done <- spawnResult[Pair2[A, B]]{value: Pair2[A, B]{First: a, Second: b}}
	}()
	return complete
}

// JoinTriple is JoinPair's three-child form.
func JoinTriple[A, B, C any](ctx context.Context, first *SpawnComplete[A], second *SpawnComplete[B], third *SpawnComplete[C]) *SpawnComplete[Triple3[A, B, C]] {
	complete := &SpawnComplete[Triple3[A, B, C]]{done: make(chan spawnResult[Triple3[A, B, C]], 1)}
	go func() {
		a, err := waitOrZero(ctx, first)
		if err != nil {
			complete.done <- spawnResult[Triple3[A, B, C]]{err: toSpawnError(err)}
			return
		}
		b, err := waitOrZero(ctx, second)
		if err != nil {
			complete.done <- spawnResult[Triple3[A, B, C]]{err: toSpawnError(err)}
			return
		}
		c, err := waitOrZero(ctx, third)
		if err != nil {
			complete.done <- spawnResult[Triple3[A, B, C]]{err: toSpawnError(err)}
			return
		}
		complete.done <- spawnResult[Triple3[A, B, C]]{value: Triple3[A, B, C]{First: a, Second: b, Third: c}}
	}()
	return complete
}

// Pair2 bundles two join results; kept distinct from node.Pair so machine
// has no import dependency on node.
type Pair2[A, B any] struct {
	First  A
	Second B
}

// Triple3 is Pair2's three-value form.
type Triple3[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Map transforms a SpawnComplete's eventual value, letting a caller adapt
// Join/JoinPair/JoinTriple's bundled result types (Pair2, Triple3) into its
// own equivalent shape without reaching into SpawnComplete's internals.
func Map[A, B any](ctx context.Context, c *SpawnComplete[A], f func(A) B) *SpawnComplete[B] {
	out := &SpawnComplete[B]{done: make(chan spawnResult[B], 1)}
	go func() {
		v, err := c.Wait(ctx)
		if err != nil {
			out.done <- spawnResult[B]{err: toSpawnError(err)}
			return
		}
		out.done <- spawnResult[B]{value: f(v)}
	}()
	return out
}

func waitOrZero[R any](ctx context.Context, c *SpawnComplete[R]) (R, error) {
	if c == nil {
		var zero R
		return zero, nil
	}
	return c.Wait(ctx)
}

func toSpawnError(err error) *SpawnError {
	if se, ok := err.(*SpawnError); ok {
		return se
	}
	return &SpawnError{Msg: err.Error()}
}
