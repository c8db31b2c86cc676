package sched

import "container/heap"

// TicksPerSecond is the resolution of the Clock (picoseconds).
const TicksPerSecond = 1_000_000_000_000

// Event is a callback scheduled on a Clock.
type Event struct {
	when int64
	seq  uint64
	fn   func()
	idx  int // index in the queue, -1 when not queued
	clk  *Clock
}

// When returns the time the event is due at.
func (e *Event) When() int64 { return e.when }

// Pending reports whether the event is still queued.
func (e *Event) Pending() bool { return e.idx >= 0 }

// Cancel removes the event from the queue. Canceling an event that already
// ran (or was already canceled) is a no-op.
func (e *Event) Cancel() {
	if e.idx >= 0 {
		heap.Remove(&e.clk.queue, e.idx)
	}
}

type eventQueue []*Event

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].when != q[j].when {
		return q[i].when < q[j].when
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].idx = i
	q[j].idx = j
}
func (q *eventQueue) Push(x any) {
	e := x.(*Event)
	e.idx = len(*q)
	*q = append(*q, e)
}
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.idx = -1
	*q = old[:n-1]
	return e
}

// Clock is the time base of a machine. Time only moves when the owner runs
// the clock; there is no relation with the wall clock. Events due at the
// same time run in the order they were scheduled.
type Clock struct {
	now   int64
	seq   uint64
	queue eventQueue
}

func NewClock() *Clock {
	return &Clock{}
}

func (c *Clock) Now() int64 { return c.now }

// Schedule runs fn after delay ticks.
func (c *Clock) Schedule(delay int64, fn func()) *Event {
	return c.ScheduleAt(c.now+max(delay, 0), fn)
}

// ScheduleAt runs fn at the given time, or as soon as possible if it is in
// the past.
func (c *Clock) ScheduleAt(when int64, fn func()) *Event {
	e := &Event{when: max(when, c.now), seq: c.seq, fn: fn, clk: c}
	c.seq++
	heap.Push(&c.queue, e)
	return e
}

// Len returns the number of queued events.
func (c *Clock) Len() int { return len(c.queue) }

// Next returns the time of the next event.
func (c *Clock) Next() (int64, bool) {
	if len(c.queue) == 0 {
		return 0, false
	}
	return c.queue[0].when, true
}

// Step runs the next event, moving the time to its due time.
func (c *Clock) Step() bool {
	if len(c.queue) == 0 {
		return false
	}
	e := heap.Pop(&c.queue).(*Event)
	c.now = e.when
	e.fn()
	return true
}

// RunUntil runs every event due strictly before t, including those
// scheduled by the events themselves, then sets the time to t. It returns
// the number of events run.
func (c *Clock) RunUntil(t int64) int {
	n := 0
	for len(c.queue) > 0 && c.queue[0].when < t {
		c.Step()
		n++
	}
	if t > c.now {
		c.now = t
	}
	return n
}

// Advance runs the clock for d ticks.
func (c *Clock) Advance(d int64) int {
	return c.RunUntil(c.now + d)
}

// Reset drops every event and sets the time to t.
func (c *Clock) Reset(t int64) {
	for _, e := range c.queue {
		e.idx = -1
	}
	c.queue = c.queue[:0]
	c.now = t
}
