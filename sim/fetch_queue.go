// Implements the Fetching Queue (picks not yet assigned to anyone) and the
// Fetching Task Queue (picks on an employee's current trip).

package sim

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FetchEntry is one (order, location) pick waiting for an employee and tool.
type FetchEntry struct {
	ToolType       ToolType
	Location       int
	Aisle          int
	Attractiveness float64
	OrderID        int
	OrderArrival   time.Time
	Item           int
	Units          int
	Volume         float64
	FetchTime      float64 // shelf-removal seconds
}

func (e *FetchEntry) String() string {
	return fmt.Sprintf("{order %d item %d x%d @%d/%s}", e.OrderID, e.Item, e.Units, e.Location, e.ToolType)
}

// FetchQueue is kept sorted by descending cell attractiveness over all items.
// Equal attractiveness keeps insertion order.
type FetchQueue struct {
	queue []*FetchEntry
}

// Add appends entries and restores the attractiveness order.
func (fq *FetchQueue) Add(entries ...*FetchEntry) {
	fq.queue = append(fq.queue, entries...)
	sort.SliceStable(fq.queue, func(i, j int) bool {
		return fq.queue[i].Attractiveness > fq.queue[j].Attractiveness
	})
}

// Len returns the number of pending picks.
func (fq *FetchQueue) Len() int { return len(fq.queue) }

// HasType reports whether any pick is serviced by tool type t.
func (fq *FetchQueue) HasType(t ToolType) bool {
	for _, e := range fq.queue {
		if e.ToolType == t {
			return true
		}
	}
	return false
}

// OfType returns the picks serviced by t, in queue order. The slice is a
// snapshot; the entries are shared with the queue.
func (fq *FetchQueue) OfType(t ToolType) []*FetchEntry {
	var out []*FetchEntry
	for _, e := range fq.queue {
		if e.ToolType == t {
			out = append(out, e)
		}
	}
	return out
}

// Remove deletes e from the queue. Reports whether it was present.
func (fq *FetchQueue) Remove(e *FetchEntry) bool {
	for i, x := range fq.queue {
		if x == e {
			fq.queue = append(fq.queue[:i], fq.queue[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns the queue contents for iteration.
// Callers MUST NOT append to or reslice the returned slice.
func (fq *FetchQueue) Items() []*FetchEntry { return fq.queue }

func (fq *FetchQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, e := range fq.queue {
		sb.WriteString(e.String())
		if i < len(fq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// TaskEntry is one pick assigned to an employee's current trip.
type TaskEntry struct {
	EmployeeID int
	OrderID    int
	Location   int
	Aisle      int
	Item       int
	Units      int
	FetchTime  float64
}

// TaskQueue holds the picks of all trips in progress, in assignment order.
type TaskQueue struct {
	queue []TaskEntry
}

// Add appends a pick to a trip.
func (tq *TaskQueue) Add(t TaskEntry) { tq.queue = append(tq.queue, t) }

// Len returns the number of picks on trips.
func (tq *TaskQueue) Len() int { return len(tq.queue) }

// ForEmployee returns a copy of the employee's picks in assignment order.
func (tq *TaskQueue) ForEmployee(id int) []TaskEntry {
	var out []TaskEntry
	for _, t := range tq.queue {
		if t.EmployeeID == id {
			out = append(out, t)
		}
	}
	return out
}

// RemoveEmployee deletes and returns the employee's picks.
func (tq *TaskQueue) RemoveEmployee(id int) []TaskEntry {
	var removed []TaskEntry
	kept := tq.queue[:0]
	for _, t := range tq.queue {
		if t.EmployeeID == id {
			removed = append(removed, t)
			continue
		}
		kept = append(kept, t)
	}
	tq.queue = kept
	return removed
}

// Clear empties the queue and returns what it held.
func (tq *TaskQueue) Clear() []TaskEntry {
	out := tq.queue
	tq.queue = nil
	return out
}

// Items returns the picks for iteration.
func (tq *TaskQueue) Items() []TaskEntry { return tq.queue }
