// Package schedule provides cancellable one-shot tasks on a single logical thread.
//
// Tasks only ever run on the goroutine that drives the scheduler (the Loop goroutine, or the
// caller of Manual.Advance). Code running on that goroutine can therefore cancel a task and be
// certain it will not fire afterwards.
package schedule

import (
	"container/heap"
	"sync"
	"time"
)

// Task is a scheduled callback.
type Task interface {
	// Cancel prevents the task from running. It reports false if the task already ran or was cancelled.
	Cancel() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Task
}

type task struct {
	at    time.Time
	seq   uint64
	fn    func()
	index int
	done  bool
	q     *queue
}

func (t *task) Cancel() bool {
	return t.q.cancel(t)
}

// queue is a deadline-ordered task heap; ties run in scheduling order.
type queue struct {
	mu    sync.Mutex
	items taskHeap
	seq   uint64
}

func (q *queue) push(at time.Time, fn func()) *task {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	t := &task{at: at, seq: q.seq, fn: fn, q: q}
	heap.Push(&q.items, t)
	return t
}

func (q *queue) cancel(t *task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	heap.Remove(&q.items, t.index)
	return true
}

// popDue removes and returns the earliest task due at or before now.
func (q *queue) popDue(now time.Time) *task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 || q.items[0].at.After(now) {
		return nil
	}
	t := heap.Pop(&q.items).(*task)
	t.done = true
	return t
}

func (q *queue) next() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].at, true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
