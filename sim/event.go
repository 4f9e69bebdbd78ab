package sim

import "time"

// EventKind names an event type in logs and traces.
type EventKind string

const (
	KindDeliveryArrived       EventKind = "delivery_arrived"
	KindPlacingWindow         EventKind = "placing_window"
	KindOrderArrived          EventKind = "order_arrived"
	KindEmployeeRest          EventKind = "employee_rest"
	KindFetchCompleted        EventKind = "fetch_completed"
	KindToolTransferCompleted EventKind = "tool_transfer_completed"
	KindNoonRollover          EventKind = "noon_rollover"
)

// Event defines the interface for all simulation events.
// Each event must have a Timestamp and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Timestamp() time.Time
	Kind() EventKind
	Execute(*Simulator) error
}

// employeeEvent is implemented by events that continue an employee's
// assignment. Such an event is stale once the employee has been reassigned,
// or once a new day has reset the staff, and is then ignored.
type employeeEvent interface {
	Event
	stale() bool
}

// assignment identifies the employee assignment an event continues.
type assignment struct {
	epoch  uint64
	issued time.Time
}

func (a assignment) staleFor(e *Employee, at time.Time) bool {
	return a.epoch != e.epoch || !sameDate(a.issued, at)
}

// DeliveryArrivedEvent moves a supplier shipment into the sort area.
type DeliveryArrivedEvent struct {
	time     time.Time
	Shipment *Shipment
}

func (e *DeliveryArrivedEvent) Timestamp() time.Time { return e.time }
func (e *DeliveryArrivedEvent) Kind() EventKind      { return KindDeliveryArrived }

// Execute merges the shipment quantities into the sort-area positions.
func (e *DeliveryArrivedEvent) Execute(sim *Simulator) error {
	sim.deliverShipment(e.Shipment)
	return nil
}

// PlacingWindowEvent puts away everything waiting in the sort area.
type PlacingWindowEvent struct {
	time time.Time
}

func (e *PlacingWindowEvent) Timestamp() time.Time { return e.time }
func (e *PlacingWindowEvent) Kind() EventKind      { return KindPlacingWindow }

// Execute runs the put-away heuristic over the sort area.
func (e *PlacingWindowEvent) Execute(sim *Simulator) error {
	return sim.putAway()
}

// OrderArrivedEvent is a customer order arriving, or re-checking stock after
// it was deferred for restock.
type OrderArrivedEvent struct {
	time  time.Time
	Order *Order
}

func (e *OrderArrivedEvent) Timestamp() time.Time { return e.time }
func (e *OrderArrivedEvent) Kind() EventKind      { return KindOrderArrived }

// Execute either starts fetching the order, defers it or gives it up.
func (e *OrderArrivedEvent) Execute(sim *Simulator) error {
	return sim.handleOrder(e.Order, e.time)
}

// EmployeeRestEvent ends an employee's one-hour rest.
type EmployeeRestEvent struct {
	time     time.Time
	Employee *Employee
	assignment
}

func (e *EmployeeRestEvent) Timestamp() time.Time { return e.time }
func (e *EmployeeRestEvent) Kind() EventKind      { return KindEmployeeRest }
func (e *EmployeeRestEvent) stale() bool          { return e.staleFor(e.Employee, e.time) }

// Execute makes the employee available and tries to start a trip.
func (e *EmployeeRestEvent) Execute(sim *Simulator) error {
	return sim.endRest(e.Employee, e.time)
}

// FetchCompletedEvent ends an employee's fetch trip.
type FetchCompletedEvent struct {
	time     time.Time
	Employee *Employee
	Tool     *Tool
	assignment
}

func (e *FetchCompletedEvent) Timestamp() time.Time { return e.time }
func (e *FetchCompletedEvent) Kind() EventKind      { return KindFetchCompleted }
func (e *FetchCompletedEvent) stale() bool          { return e.staleFor(e.Employee, e.time) }

// Execute settles the trip's picks against their orders, then continues,
// rests or stops the employee.
func (e *FetchCompletedEvent) Execute(sim *Simulator) error {
	return sim.completeFetch(e.Employee, e.Tool, e.time)
}

// ToolTransferCompletedEvent ends an employee's walk to a different tool.
type ToolTransferCompletedEvent struct {
	time     time.Time
	Employee *Employee
	Tool     *Tool
	assignment
}

func (e *ToolTransferCompletedEvent) Timestamp() time.Time { return e.time }
func (e *ToolTransferCompletedEvent) Kind() EventKind      { return KindToolTransferCompleted }
func (e *ToolTransferCompletedEvent) stale() bool          { return e.staleFor(e.Employee, e.time) }

// Execute starts a trip with the newly claimed tool.
func (e *ToolTransferCompletedEvent) Execute(sim *Simulator) error {
	return sim.createFetch(e.Employee, e.Tool, e.time)
}

// NoonRolloverEvent sends idle staff to lunch and re-arms itself for the
// next calendar day.
type NoonRolloverEvent struct {
	time time.Time
}

func (e *NoonRolloverEvent) Timestamp() time.Time { return e.time }
func (e *NoonRolloverEvent) Kind() EventKind      { return KindNoonRollover }

// Execute rests idle employees and schedules the next rollover.
func (e *NoonRolloverEvent) Execute(sim *Simulator) error {
	sim.noonRollover(e.time)
	return nil
}
