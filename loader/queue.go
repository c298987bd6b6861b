package loader

import "sync"

// Queue hands results of background loads back to the main loop.
// Loader goroutines post callbacks; Dispatch runs them on the caller's goroutine.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	wg      sync.WaitGroup
}

func NewQueue() *Queue {
	return &Queue{}
}

// Go runs fn in a tracked goroutine.
func (q *Queue) Go(fn func()) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		fn()
	}()
}

func (q *Queue) post(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Dispatch runs every callback posted so far, in posting order, and returns how many ran.
func (q *Queue) Dispatch() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Pending reports how many callbacks await Dispatch.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Wait blocks until every goroutine started with Go has returned.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Close waits for in-flight loads and drops callbacks that were never dispatched.
func (q *Queue) Close() {
	q.wg.Wait()
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
}
