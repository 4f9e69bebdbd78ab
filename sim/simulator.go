// sim/simulator.go
package sim

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warehouse-sim/whsim/sim/trace"
)

// Simulator is the core object that holds simulation time, warehouse state,
// staff, orders and the event loop. Every handler mutates it in place; there
// is no other shared state.
type Simulator struct {
	Clock time.Time
	// horizon is the end of the last calendar date; later events never run
	horizon time.Time

	RunID     string
	cfg       Config
	Calendar  *Calendar
	Warehouse *Warehouse
	Employees []*Employee // roster order
	Tools     []*Tool     // fleet order
	// Orders holds every order ever seen, fulfilled or not
	Orders    map[int]*Order
	shipments []*Shipment // chronological
	toolStats map[ToolType]ToolStats

	// FetchQ holds picks waiting for an employee and tool
	FetchQ *FetchQueue
	// TaskQ holds picks on trips in progress
	TaskQ    *TaskQueue
	waitList []int
	waiting  map[int]bool

	events   EventQueue
	rng      *PartitionedRNG
	Metrics  *Metrics
	Trace    *trace.SimulationTrace
	lastDate time.Time
	started  bool

	initialUnits map[int]int // item -> units on hand at start
}

// NewSimulator validates the inputs, builds the run-time state and seeds
// the event queue. rd is not modified.
func NewSimulator(rd *ReferenceData, cfg Config) (*Simulator, error) {
	if err := rd.Validate(); err != nil {
		return nil, fmt.Errorf("reference data: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cal, err := NewCalendar(rd.Calendar)
	if err != nil {
		return nil, err
	}
	w, err := newWarehouse(rd)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		horizon:      cal.Last().AddDate(0, 0, 1),
		RunID:        uuid.NewString(),
		cfg:          cfg,
		Calendar:     cal,
		Warehouse:    w,
		Orders:       make(map[int]*Order, len(rd.Orders)),
		toolStats:    rd.ToolStats,
		FetchQ:       &FetchQueue{},
		TaskQ:        &TaskQueue{},
		waiting:      make(map[int]bool),
		rng:          NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		Metrics:      NewMetrics(),
		Trace:        trace.NewSimulationTrace(trace.TraceConfig{Level: cfg.TraceLevel}),
		initialUnits: make(map[int]int),
	}
	for _, p := range rd.Positions {
		s.initialUnits[p.Item] += p.Quantity
	}

	for _, spec := range cfg.Roster {
		e, err := NewEmployee(spec.ID, spec.Tools)
		if err != nil {
			return nil, err
		}
		s.Employees = append(s.Employees, e)
	}
	for _, spec := range cfg.Fleet {
		stats := ToolStats{}
		if spec.Type != CrossDock {
			st, ok := rd.ToolStats[spec.Type]
			if !ok {
				return nil, fmt.Errorf("tool %d: statistics for %s: %w", spec.ID, spec.Type, ErrNotFound)
			}
			stats = st
		}
		t, err := NewTool(spec.ID, spec.Type, stats)
		if err != nil {
			return nil, err
		}
		s.Tools = append(s.Tools, t)
	}

	if err := s.seed(rd); err != nil {
		return nil, err
	}
	return s, nil
}

// seed schedules the run's initial events: every order, every shipment,
// one put-away per shipment date and the first noon rollover, in that order.
func (sim *Simulator) seed(rd *ReferenceData) error {
	for _, row := range rd.Orders {
		if _, dup := sim.Orders[row.ID]; dup {
			return fmt.Errorf("order %d listed twice: %w", row.ID, ErrInvalidArgument)
		}
		o, err := NewOrder(row.ID, row.Timestamp, map[int]int{row.Item: row.Quantity})
		if err != nil {
			return err
		}
		sim.Orders[o.ID] = o
		sim.Schedule(&OrderArrivedEvent{time: o.ArrivalTime, Order: o})
	}

	var dates []time.Time
	seen := make(map[time.Time]bool)
	for _, row := range rd.Shipments {
		sh, err := NewShipment(sim.cfg.Schedule.Delivery.On(row.Date), map[int]int{row.Item: row.Quantity})
		if err != nil {
			return err
		}
		sim.shipments = append(sim.shipments, sh)
		sim.Schedule(&DeliveryArrivedEvent{time: sh.ArrivalTime, Shipment: sh})
		if d := dateOf(row.Date); !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	for _, d := range dates {
		at := sim.cfg.Schedule.Placing.On(d)
		if sim.Calendar.IsShortDay(d) {
			at = sim.cfg.Schedule.ShortDayPlacing.On(d)
		}
		sim.Schedule(&PlacingWindowEvent{time: at})
	}

	sim.Schedule(&NoonRolloverEvent{time: sim.cfg.Hours.Noon.On(sim.Calendar.First())})
	return nil
}

// Schedule pushes an event into the simulator's event queue.
func (sim *Simulator) Schedule(ev Event) {
	sim.events.Schedule(ev)
}

// PendingEvents returns the number of scheduled events not yet processed.
func (sim *Simulator) PendingEvents() int { return sim.events.Len() }

// Step processes the earliest pending event. It reports false when the
// queue is empty or the next event lies past the horizon.
func (sim *Simulator) Step() (bool, error) {
	next := sim.events.Peek()
	if next == nil || !next.Timestamp().Before(sim.horizon) {
		return false, nil
	}
	ev := sim.events.PopEarliest()
	// advance the clock
	sim.Clock = ev.Timestamp()
	if sim.started && !sameDate(sim.Clock, sim.lastDate) {
		sim.resetDay()
	}
	sim.started = true
	sim.lastDate = sim.Clock

	stale := false
	if ee, ok := ev.(employeeEvent); ok && ee.stale() {
		stale = true
	} else if err := ev.Execute(sim); err != nil {
		return false, fmt.Errorf("%s at %s: %w", ev.Kind(), sim.Clock.Format(time.DateTime), err)
	}
	sim.recordEvent(ev, stale)

	logrus.Debugf("[%s] %-24s on-time today %d | orders %d | service %.3f | fq %d | tq %d",
		sim.Clock.Format(time.DateTime), ev.Kind(), sim.Metrics.OnTimeToday, sim.Metrics.OrdersProcessed,
		sim.Metrics.ServiceRate(), sim.FetchQ.Len(), sim.TaskQ.Len())
	return true, nil
}

// Run processes events until the queue empties or the horizon is reached,
// and returns the run's result. A missing order, item or cell halts the run.
func (sim *Simulator) Run() (*Result, error) {
	logrus.Infof("Simulation %s started: %d events seeded, %s to %s", sim.RunID, sim.events.Len(),
		sim.Calendar.First().Format(time.DateOnly), sim.Calendar.Last().Format(time.DateOnly))
	for {
		ok, err := sim.Step()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}
	logrus.Infof("Simulation ended at %s: %d on time, %d late, %d impossible",
		sim.Clock.Format(time.DateTime), sim.Metrics.OnTime, sim.Metrics.Late, sim.Metrics.Impossible)
	return sim.Result(), nil
}

// resetDay starts a new working day: trips still in progress are abandoned,
// every employee and tool becomes available and nobody has rested yet.
// Calling it twice in a row is the same as calling it once.
func (sim *Simulator) resetDay() {
	for _, t := range sim.TaskQ.Clear() {
		sim.Metrics.AbandonedUnits[t.Item] += t.Units
	}
	for _, e := range sim.Employees {
		e.Status = Available
		e.Rested = e.IsCrossDock()
		e.tool = nil
	}
	for _, t := range sim.Tools {
		t.Status = Available
		t.holder = nil
		t.LeftCapacity = t.Capacity
	}
	sim.Metrics.OnTimeToday = 0
}

// WaitList returns the ids of orders deferred for restock, in deferral order.
func (sim *Simulator) WaitList() []int {
	out := make([]int, len(sim.waitList))
	copy(out, sim.waitList)
	return out
}

func (sim *Simulator) addToWaitList(id int) bool {
	if sim.waiting[id] {
		return false
	}
	sim.waiting[id] = true
	sim.waitList = append(sim.waitList, id)
	return true
}

func (sim *Simulator) removeFromWaitList(id int) {
	if !sim.waiting[id] {
		return
	}
	delete(sim.waiting, id)
	for i, x := range sim.waitList {
		if x == id {
			sim.waitList = append(sim.waitList[:i], sim.waitList[i+1:]...)
			return
		}
	}
}

func (sim *Simulator) recordEvent(ev Event, stale bool) {
	rec := trace.EventRecord{
		Time:         ev.Timestamp(),
		Kind:         string(ev.Kind()),
		EmployeeID:   trace.NoID,
		ToolID:       trace.NoID,
		ShipmentItem: trace.NoID,
		OrderID:      trace.NoID,
		OrderItem:    trace.NoID,
		Stale:        stale,
	}
	switch e := ev.(type) {
	case *DeliveryArrivedEvent:
		if ids := e.Shipment.ItemIDs(); len(ids) > 0 {
			rec.ShipmentItem = ids[0]
		}
	case *OrderArrivedEvent:
		rec.OrderID = e.Order.ID
		rec.OrderItem, _ = e.Order.Item()
	case *EmployeeRestEvent:
		rec.EmployeeID = e.Employee.ID
	case *FetchCompletedEvent:
		rec.EmployeeID = e.Employee.ID
		rec.ToolID, rec.ToolType = e.Tool.ID, e.Tool.Type.String()
	case *ToolTransferCompletedEvent:
		rec.EmployeeID = e.Employee.ID
		rec.ToolID, rec.ToolType = e.Tool.ID, e.Tool.Type.String()
	}
	sim.Trace.RecordEvent(rec)
}

// Result snapshots the run's outcome.
func (sim *Simulator) Result() *Result {
	r := &Result{
		RunID:              sim.RunID,
		Seed:               sim.cfg.Seed,
		FinalDate:          sim.Calendar.Last(),
		OnTime:             sim.Metrics.OnTime,
		Late:               sim.Metrics.Late,
		ReturnedForRestock: sim.Metrics.ReturnedForRestock,
		Impossible:         sim.Metrics.Impossible,
		ServiceRate:        sim.Metrics.ServiceRate(),
		WaitList:           sim.WaitList(),
		FetchQueueLen:      sim.FetchQ.Len(),
		TaskQueueLen:       sim.TaskQ.Len(),
		AbandonedUnits:     sumUnits(sim.Metrics.AbandonedUnits),
		UnplacedUnits:      sumUnits(sim.Metrics.UnplacedUnits),
		DailyService:       sim.Metrics.dailyService(sim.Calendar),
		Trace:              sim.Trace,
		Summary:            trace.Summarize(sim.Trace),
	}
	for _, e := range sim.Employees {
		trips := 0
		for _, hs := range e.WorkHours {
			trips += len(hs)
		}
		r.EmployeeHours = append(r.EmployeeHours, EmployeeHours{EmployeeID: e.ID, Trips: trips, Hours: e.TotalWorkHours()})
	}
	return r
}
