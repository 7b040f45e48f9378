//go:build linux

package machine

// Completed returns a *SpawnComplete already resolved with v, with no
// namespace or goroutine involved. Exported for packages (node, network)
// that need to build and exercise a recipe tree in tests without a real
// network namespace.
func Completed[R any](v R) *SpawnComplete[R] {
	c := &SpawnComplete[R]{done: make(chan spawnResult[R], 1)}
	c.done <- spawnResult[R]{value: v}
	return c
}

// Failed is Completed's error counterpart.
func Failed[R any](err *SpawnError) *SpawnComplete[R] {
	c := &SpawnComplete[R]{done: make(chan spawnResult[R], 1)}
	c.done <- spawnResult[R]{err: err}
	return c
}
