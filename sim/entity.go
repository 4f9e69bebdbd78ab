// Defines the mutable run-time entities of the warehouse: employees, tools,
// customer orders and supplier shipments.

package sim

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// ToolType is the category of material-handling equipment assigned to a cell.
// Values match the integer codes used by the reference data.
type ToolType int

const (
	ReachFork   ToolType = 0
	PalletJack  ToolType = 1
	OrderPicker ToolType = 2
	CrossDock   ToolType = 3
)

var toolTypeNames = map[ToolType]string{
	ReachFork:   "reach_fork",
	PalletJack:  "pallet_jack",
	OrderPicker: "order_picker",
	CrossDock:   "cross_dock",
}

func (t ToolType) String() string {
	if name, ok := toolTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tool_type_%d", int(t))
}

// ParseToolType accepts the snake_case name ("pallet_jack"), the upper-case
// form ("PALLET_JACK") or a spaced form ("Pallet Jack").
func ParseToolType(s string) (ToolType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for t, name := range toolTypeNames {
		if name == norm {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tool type %q: %w", s, ErrInvalidArgument)
}

// Status is the availability of an employee or tool.
type Status int

const (
	Available Status = iota
	Busy
)

func (s Status) String() string {
	if s == Busy {
		return "busy"
	}
	return "available"
}

// CrossDockID is the id shared by the sort-area employee and the synthetic
// cross-dock tool. Both are exempt from busy/available bookkeeping.
const CrossDockID = 0

// Employee collects order items from the warehouse using the tools it is
// qualified for.
type Employee struct {
	ID     int
	Tools  []ToolType // capability set, ascending tool type
	Status Status
	Rested bool
	// WorkHours maps a weekday to the durations (in hours) of the fetch trips
	// performed on that weekday.
	WorkHours map[time.Weekday][]float64

	tool  *Tool  // tool held for the current trip or transfer
	epoch uint64 // bumped on every assignment; stale events carry an older value
}

// NewEmployee creates an employee with the given capability set. The set is
// de-duplicated and kept in ascending tool-type order, which is the order
// tool prioritization walks it in.
func NewEmployee(id int, tools []ToolType) (*Employee, error) {
	if id < 0 {
		return nil, fmt.Errorf("employee id %d: %w", id, ErrInvalidArgument)
	}
	if len(tools) == 0 {
		return nil, fmt.Errorf("employee %d has no tools: %w", id, ErrInvalidArgument)
	}
	seen := make(map[ToolType]bool, len(tools))
	set := make([]ToolType, 0, len(tools))
	for _, t := range tools {
		if _, ok := toolTypeNames[t]; !ok {
			return nil, fmt.Errorf("employee %d: tool type %d: %w", id, int(t), ErrInvalidArgument)
		}
		if !seen[t] {
			seen[t] = true
			set = append(set, t)
		}
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })

	wh := make(map[time.Weekday][]float64, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		wh[d] = nil
	}
	return &Employee{
		ID:        id,
		Tools:     set,
		Status:    Available,
		Rested:    id == CrossDockID,
		WorkHours: wh,
	}, nil
}

// IsCrossDock reports whether this is the sort-area employee.
func (e *Employee) IsCrossDock() bool { return e.ID == CrossDockID }

// AddWorkHours appends a trip duration to the weekday's log.
func (e *Employee) AddWorkHours(day time.Weekday, hours float64) {
	e.WorkHours[day] = append(e.WorkHours[day], hours)
}

// TotalWorkHours sums every logged trip.
func (e *Employee) TotalWorkHours() float64 {
	total := 0.0
	for d := time.Sunday; d <= time.Saturday; d++ {
		for _, h := range e.WorkHours[d] {
			total += h
		}
	}
	return total
}

// Tool returns the tool the employee currently holds, or nil.
func (e *Employee) Tool() *Tool { return e.tool }

func (e *Employee) String() string {
	return fmt.Sprintf("Employee{ID: %d, Status: %s, Rested: %t}", e.ID, e.Status, e.Rested)
}

// Tool is a mobility tool used to reach shelf locations.
type Tool struct {
	ID              int
	Type            ToolType
	HorizontalSpeed NormalDist
	VerticalSpeed   NormalDist
	RemoveFromShelf NormalDist
	Capacity        float64
	LeftCapacity    float64
	RequiresHeight  bool
	Status          Status

	holder *Employee
}

// NewTool creates a tool from its type statistics. The cross-dock tool gets
// zero speeds and infinite capacity regardless of stats.
func NewTool(id int, typ ToolType, stats ToolStats) (*Tool, error) {
	if id < 0 {
		return nil, fmt.Errorf("tool id %d: %w", id, ErrInvalidArgument)
	}
	if _, ok := toolTypeNames[typ]; !ok {
		return nil, fmt.Errorf("tool %d: type %d: %w", id, int(typ), ErrInvalidArgument)
	}
	t := &Tool{
		ID:              id,
		Type:            typ,
		HorizontalSpeed: stats.HorizontalSpeed,
		VerticalSpeed:   stats.VerticalSpeed,
		RemoveFromShelf: stats.RemoveFromShelf,
		Capacity:        stats.MaxVolume,
		RequiresHeight:  typ == ReachFork || typ == OrderPicker,
		Status:          Available,
	}
	if typ == CrossDock {
		t.HorizontalSpeed, t.VerticalSpeed, t.RemoveFromShelf = NormalDist{}, NormalDist{}, NormalDist{}
		t.Capacity = math.Inf(1)
	}
	if t.Capacity < 0 {
		return nil, fmt.Errorf("tool %d: negative capacity %v: %w", id, t.Capacity, ErrInvalidArgument)
	}
	t.LeftCapacity = t.Capacity
	return t, nil
}

// IsCrossDock reports whether this is the synthetic sort-area tool.
func (t *Tool) IsCrossDock() bool { return t.ID == CrossDockID }

// Holder returns the employee the tool is busy on behalf of, or nil. The
// shared cross-dock tool never has a holder.
func (t *Tool) Holder() *Employee { return t.holder }

func (t *Tool) String() string {
	return fmt.Sprintf("Tool{ID: %d, Type: %s, Capacity: %v, Status: %s}", t.ID, t.Type, t.Capacity, t.Status)
}

// Order is a customer order. The order feed carries one item per order,
// but the items map is kept general.
type Order struct {
	ID           int
	ArrivalTime  time.Time
	Items        map[int]int // item -> units still to fetch
	DeliveryTime *time.Time
	// WaitingDays is the number of business days between arrival and the
	// completion of the last fetch. Set once the order is fully fulfilled.
	WaitingDays int

	itemOrder []int
}

// NewOrder validates and creates an order.
func NewOrder(id int, arrival time.Time, items map[int]int) (*Order, error) {
	if id < 0 {
		return nil, fmt.Errorf("order id %d: %w", id, ErrInvalidArgument)
	}
	if arrival.IsZero() {
		return nil, fmt.Errorf("order %d: missing arrival time: %w", id, ErrInvalidArgument)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("order %d: no items: %w", id, ErrInvalidArgument)
	}
	o := &Order{ID: id, ArrivalTime: arrival, Items: make(map[int]int, len(items))}
	for item, qty := range items {
		if qty <= 0 {
			return nil, fmt.Errorf("order %d: item %d quantity %d: %w", id, item, qty, ErrInvalidArgument)
		}
		o.Items[item] = qty
		o.itemOrder = append(o.itemOrder, item)
	}
	sort.Ints(o.itemOrder)
	return o, nil
}

// Item returns the order's primary item and its remaining quantity.
func (o *Order) Item() (int, int) {
	item := o.itemOrder[0]
	return item, o.Items[item]
}

// Fulfilled reports whether nothing remains to fetch.
func (o *Order) Fulfilled() bool {
	for _, q := range o.Items {
		if q > 0 {
			return false
		}
	}
	return true
}

// Deduct removes fetched units from the order. Fetching more than the order
// still needs violates the order invariant.
func (o *Order) Deduct(item, units int) (int, error) {
	left, ok := o.Items[item]
	if !ok {
		return 0, fmt.Errorf("order %d has no item %d: %w", o.ID, item, ErrNotFound)
	}
	if units > left {
		return left, fmt.Errorf("order %d item %d: fetched %d units but only %d requested", o.ID, item, units, left)
	}
	o.Items[item] = left - units
	return o.Items[item], nil
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{ID: %d, Arrival: %s, Items: %v}", o.ID, o.ArrivalTime.Format(time.DateTime), o.Items)
}

// Shipment is a supplier delivery. Immutable once created.
type Shipment struct {
	ArrivalTime time.Time
	Items       map[int]int

	itemOrder []int
}

// NewShipment validates and creates a shipment.
func NewShipment(arrival time.Time, items map[int]int) (*Shipment, error) {
	if arrival.IsZero() {
		return nil, fmt.Errorf("shipment: missing arrival time: %w", ErrInvalidArgument)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("shipment at %s: no items: %w", arrival.Format(time.DateTime), ErrInvalidArgument)
	}
	s := &Shipment{ArrivalTime: arrival, Items: make(map[int]int, len(items))}
	for item, qty := range items {
		if qty < 0 {
			return nil, fmt.Errorf("shipment at %s: item %d quantity %d: %w",
				arrival.Format(time.DateTime), item, qty, ErrInvalidArgument)
		}
		s.Items[item] = qty
		s.itemOrder = append(s.itemOrder, item)
	}
	sort.Ints(s.itemOrder)
	return s, nil
}

// ItemIDs returns the shipped items in ascending id order.
func (s *Shipment) ItemIDs() []int { return s.itemOrder }
