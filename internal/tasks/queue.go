package tasks

import (
	"fmt"
	"sync"

	"github.com/desertthunder/ytmd/internal/models"
)

// QueueStats is a point-in-time view of the queue counters.
type QueueStats struct {
	Put     int
	Taken   int
	Done    int
	Pending int
}

// TaskQueue is a FIFO of [models.WorkItem] shared by the workers of a pool.
//
// Every method is safe for concurrent use. Put is expected to happen before workers start,
// so an empty TryTake means there is no more work; the queue does not rely on that ordering.
type TaskQueue struct {
	mu       sync.Mutex
	drained  *sync.Cond
	items    []models.WorkItem
	inflight map[string]int // Taken but not done, per item ID
	put      int
	taken    int
	done     int
	closed   bool
}

// NewTaskQueue creates an empty queue.
func NewTaskQueue() *TaskQueue {
	q := &TaskQueue{inflight: make(map[string]int)}
	q.drained = sync.NewCond(&q.mu)
	return q
}

// Put appends item to the tail, assigning an ID when it has none. It reports false when the
// queue was already closed by [TaskQueue.Join].
func (q *TaskQueue) Put(item models.WorkItem) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if item.ID == "" {
		item.ID = fmt.Sprintf("item-%d", q.put+1)
	}
	q.items = append(q.items, item)
	q.put++
	return true
}

// TryTake removes and returns the head. ok is false when the queue is empty or closed.
func (q *TaskQueue) TryTake() (item models.WorkItem, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || len(q.items) == 0 {
		return models.WorkItem{}, false
	}

	item = q.items[0]
	q.items[0] = models.WorkItem{}
	q.items = q.items[1:]
	q.taken++
	q.inflight[item.ID]++
	return item, true
}

// MarkDone records that a taken item finished processing, whatever the outcome.
func (q *TaskQueue) MarkDone(item models.WorkItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.inflight[item.ID]
	if n == 0 {
		return fmt.Errorf("work item %q was not taken or is already done", item.ID)
	}
	if n == 1 {
		delete(q.inflight, item.ID)
	} else {
		q.inflight[item.ID] = n - 1
	}
	q.done++
	q.drained.Broadcast()
	return nil
}

// Drain removes every untaken item and returns them in queue order. It is used when a run is
// cancelled so that [TaskQueue.Join] does not wait for work nobody will take.
func (q *TaskQueue) Drain() []models.WorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	rest := q.items
	q.items = nil
	q.drained.Broadcast()
	return rest
}

// Join blocks until the queue is empty and every taken item has been marked done, then closes
// the queue. No TryTake succeeds after Join returns.
func (q *TaskQueue) Join() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) > 0 || q.done < q.taken {
		q.drained.Wait()
	}
	q.closed = true
}

// Len returns the number of untaken items.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Stats returns the queue counters.
func (q *TaskQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{Put: q.put, Taken: q.taken, Done: q.done, Pending: len(q.items)}
}
