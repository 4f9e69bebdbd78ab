// Package sim provides the core discrete-event simulation engine for a
// warehouse fulfillment center.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - entity.go: Employees, tools, orders and shipments
//   - event.go: Event types that drive the simulation (OrderArrived, FetchCompleted, NoonRollover, etc.)
//   - simulator.go: The event loop, seeding and the day-boundary reset
//
// The decision logic lives in one file per heuristic:
//   - locations.go: which cells an order's units are taken from
//   - tools.go: which tool an employee claims next
//   - batching.go: which queued picks go on one trip
//   - travel.go: how long a trip takes
//   - placement.go: where delivered stock is put away
//
// handlers.go ties them together, one handler per event kind.
//
// # Architecture
//
// The sim package owns the engine; supporting code lives in sub-packages:
//   - sim/refdata/: CSV reference-data loading and natural-key interning
//   - sim/output/: result sinks (CSV files, SQLite, Prometheus textfile)
//   - sim/trace/: fetch-trip and event trace recording
//
// The engine is single-threaded. Randomness comes from a PartitionedRNG so
// that a seed fully determines a run.
package sim
