package event

import (
	"container/list"
	"sync"
)

// Hooks observe events entering and leaving a Queue. They run with the queue
// lock held, so they must not call back into the queue.
type Hooks struct {
	// Enqueued runs for every event accepted by Push.
	Enqueued func(Event)
	// Dropped runs for an undelivered event superseded by coalescing.
	Dropped func(Event)
	// Delivered runs for every event returned by Pop.
	Delivered func(Event)
}

// QueueOptions configures a Queue.
type QueueOptions struct {
	// CoalesceGeometry collapses undelivered move and resize events for the
	// same window into the latest one.
	CoalesceGeometry bool
	Hooks            Hooks
}

// Stats counts queue traffic since creation.
type Stats struct {
	Enqueued  uint64
	Delivered uint64
	Coalesced uint64
}

type coalesceKey struct {
	window WindowID
	kind   WindowEventKind
}

// Queue is a FIFO of events that accepts pushes from any goroutine and is
// drained by a single consumer.
type Queue struct {
	coalesce bool
	hooks    Hooks

	mu      sync.Mutex
	items   *list.List
	pending map[coalesceKey]*list.Element
	stats   Stats
}

// NewQueue returns an empty queue.
func NewQueue(opts QueueOptions) *Queue {
	return &Queue{
		coalesce: opts.CoalesceGeometry,
		hooks:    opts.Hooks,
		items:    list.New(),
		pending:  make(map[coalesceKey]*list.Element),
	}
}

// SetHooks replaces the queue hooks.
func (q *Queue) SetHooks(h Hooks) {
	q.mu.Lock()
	q.hooks = h
	q.mu.Unlock()
}

// Push appends ev. A geometry event replaces any undelivered geometry event
// of the same kind for the same window; the replacement goes to the back so
// it keeps its own arrival position.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if key, ok := q.coalesceKey(ev); ok {
		if old, exists := q.pending[key]; exists {
			superseded := q.items.Remove(old).(Event)
			q.stats.Coalesced++
			if q.hooks.Dropped != nil {
				q.hooks.Dropped(superseded)
			}
		}
		q.pending[key] = q.push(ev)
		return
	}
	q.push(ev)
}

func (q *Queue) push(ev Event) *list.Element {
	q.stats.Enqueued++
	if q.hooks.Enqueued != nil {
		q.hooks.Enqueued(ev)
	}
	return q.items.PushBack(ev)
}

// Pop removes and returns the oldest event. It never blocks.
func (q *Queue) Pop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	front := q.items.Front()
	if front == nil {
		return nil, false
	}
	ev := q.items.Remove(front).(Event)
	if key, ok := q.coalesceKey(ev); ok && q.pending[key] == front {
		delete(q.pending, key)
	}
	q.stats.Delivered++
	if q.hooks.Delivered != nil {
		q.hooks.Delivered(ev)
	}
	return ev, true
}

// Len returns the number of undelivered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Stats returns a snapshot of the traffic counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

func (q *Queue) coalesceKey(ev Event) (coalesceKey, bool) {
	if !q.coalesce {
		return coalesceKey{}, false
	}
	we, ok := ev.(WindowEvent)
	if !ok || (we.Kind != WindowMoved && we.Kind != WindowResized) {
		return coalesceKey{}, false
	}
	return coalesceKey{window: we.Window, kind: we.Kind}, true
}
