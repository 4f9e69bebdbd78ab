package sim

import "container/heap"

// eventEntry wraps an Event with a sequence ID for deterministic FIFO
// tie-breaking when timestamps are equal.
type eventEntry struct {
	event Event
	seqID int64
}

// eventHeap is a min-heap ordered by (Timestamp, seqID).
// Implements heap.Interface.
type eventHeap []eventEntry

func (q eventHeap) Len() int { return len(q) }

func (q eventHeap) Less(i, j int) bool {
	ti, tj := q[i].event.Timestamp(), q[j].event.Timestamp()
	if !ti.Equal(tj) {
		return ti.Before(tj)
	}
	return q[i].seqID < q[j].seqID
}

func (q eventHeap) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventHeap) Push(x any) {
	*q = append(*q, x.(eventEntry))
}

func (q *eventHeap) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = eventEntry{}
	*q = old[:n-1]
	return item
}

// EventQueue schedules events in time order. Events sharing a timestamp pop
// in the order they were scheduled. There is no cancellation: stale events
// are filtered by their handlers.
type EventQueue struct {
	h       eventHeap
	nextSeq int64
}

// Schedule inserts ev. O(log n).
func (q *EventQueue) Schedule(ev Event) {
	heap.Push(&q.h, eventEntry{event: ev, seqID: q.nextSeq})
	q.nextSeq++
}

// PopEarliest removes and returns the earliest event, or nil when empty.
func (q *EventQueue) PopEarliest() Event {
	if len(q.h) == 0 {
		return nil
	}
	return heap.Pop(&q.h).(eventEntry).event
}

// Peek returns the earliest event without removing it, or nil when empty.
func (q *EventQueue) Peek() Event {
	if len(q.h) == 0 {
		return nil
	}
	return q.h[0].event
}

// Empty reports whether no events remain.
func (q *EventQueue) Empty() bool { return len(q.h) == 0 }

// Len returns the number of pending events.
func (q *EventQueue) Len() int { return len(q.h) }
