package resilience

import "sync"

// Flight collapses concurrent calls that share a key into one execution.
// Callers that arrive while the key is in flight block until the first
// caller's fn returns and receive its result. Nothing is retained once the
// waiters are released; a later call for the same key runs fn again.
type Flight[T any] struct {
	mu       sync.Mutex
	inflight map[string]*flightCall[T]
}

type flightCall[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func (f *Flight[T]) Do(key string, fn func() (T, error)) (T, error) {
	f.mu.Lock()
	if f.inflight == nil {
		f.inflight = make(map[string]*flightCall[T])
	}
	if c, ok := f.inflight[key]; ok {
		f.mu.Unlock()
		<-c.done
		return c.val, c.err
	}

	c := &flightCall[T]{done: make(chan struct{})}
	f.inflight[key] = c
	f.mu.Unlock()

	c.val, c.err = fn()

	f.mu.Lock()
	delete(f.inflight, key)
	f.mu.Unlock()
	close(c.done)

	return c.val, c.err
}
