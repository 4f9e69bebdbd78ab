// Package trace provides operational trace recording for warehouse simulation runs.
// This package has no dependencies on sim/: it stores pure data types.
package trace

import "time"

// NoID marks an identifier column that does not apply to a record.
const NoID = -1

// FetchTaskRecord captures one fetch trip at the moment it is planned.
type FetchTaskRecord struct {
	Time        time.Time
	EmployeeID  int
	ToolID      int
	ToolType    string
	TaskSeconds float64 // total trip duration, whole seconds
	ItemCount   int     // picks on the trip
	AisleCount  int     // distinct aisles visited
}

// EventRecord captures one processed event. Identifier fields that do not
// apply to the event kind hold NoID.
type EventRecord struct {
	Time         time.Time
	Kind         string
	EmployeeID   int
	ToolID       int
	ToolType     string
	ShipmentItem int
	OrderID      int
	OrderItem    int
	Stale        bool // the event no longer matched the employee's assignment and was ignored
}
