package sim

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stockedReference holds 10 units of item 0 (zone 1, unit volume 1) in cell 1.
func stockedReference() *ReferenceData {
	rd := testReference()
	addItem(rd, 0, 1, 1, 0.5)
	stock(rd, 1, 0, 10)
	return rd
}

func TestSimulator_OrderFulfilledFromStock(t *testing.T) {
	// GIVEN 10 units in the most attractive cell and an order for 5 at Mon 10:00
	rd := stockedReference()
	rd.Orders = []OrderRow{{ID: 0, Timestamp: on(0, 10, 0), Item: 0, Quantity: 5}}
	s := mustSimulator(t, rd, testConfig())
	e1, t1 := s.Employees[1], s.Tools[1]

	// WHEN the order arrives
	ok, err := s.Step()
	require.NoError(t, err)
	require.True(t, ok)

	// THEN the pallet-jack driver takes all 5 units on one trip
	assert.Zero(t, s.FetchQ.Len())
	tasks := s.TaskQ.ForEmployee(1)
	require.Len(t, tasks, 1)
	assert.Equal(t, 5, tasks[0].Units)
	assert.Equal(t, 1, tasks[0].Location)
	assert.Equal(t, Busy, e1.Status)
	assert.Same(t, t1, e1.Tool())
	assert.Equal(t, Busy, t1.Status)
	assert.Equal(t, Available, s.Employees[0].Status, "cross-dock has no sort-area work")

	completions := pendingOfKind(s, KindFetchCompleted)
	require.Len(t, completions, 1)
	assert.Equal(t, on(0, 10, 0).Add(34*time.Second), completions[0].Timestamp())
	require.Len(t, s.Trace.FetchTasks, 1)
	assert.Equal(t, 34.0, s.Trace.FetchTasks[0].TaskSeconds)

	// WHEN the trip completes
	ok, err = s.Step()
	require.NoError(t, err)
	require.True(t, ok)

	// THEN the order is on time and staff and tool are free again
	o := s.Orders[0]
	require.NotNil(t, o.DeliveryTime)
	assert.Equal(t, on(0, 10, 0).Add(34*time.Second), *o.DeliveryTime)
	assert.Zero(t, o.WaitingDays)
	assert.Equal(t, 1, s.Metrics.OnTime)
	assert.Equal(t, 1, s.Metrics.OnTimeToday)
	assert.Equal(t, 1, s.Metrics.DailyOnTime[on(0, 0, 0)])
	assert.Equal(t, 5, s.Metrics.DeliveredUnits[0])
	assert.Equal(t, Available, e1.Status)
	assert.Nil(t, e1.Tool())
	assert.Equal(t, Available, t1.Status)
	assert.Equal(t, 5, s.Warehouse.OnHand(0))
	assert.Equal(t, []float64{34.0 / 3600}, e1.WorkHours[time.Monday])
}

func TestSimulator_OrderWithoutCoveringShipment(t *testing.T) {
	tests := []struct {
		name      string
		onHand    int
		shipments []ShipmentRow
		deferred  bool
	}{
		{name: "no shipment at all"},
		{name: "shipment past the lookahead window", shipments: []ShipmentRow{{Date: on(7, 0, 0), Item: 0, Quantity: 20}}},
		{name: "shipment too small", shipments: []ShipmentRow{{Date: on(2, 0, 0), Item: 0, Quantity: 3}}},
		{name: "shipment of another item", shipments: []ShipmentRow{{Date: on(1, 0, 0), Item: 1, Quantity: 20}}},
		{name: "shipment covers the shortfall", onHand: 3, shipments: []ShipmentRow{{Date: on(2, 0, 0), Item: 0, Quantity: 2}}, deferred: true},
		{name: "two shipments together cover it", shipments: []ShipmentRow{
			{Date: on(3, 0, 0), Item: 0, Quantity: 3},
			{Date: on(1, 0, 0), Item: 0, Quantity: 2},
		}, deferred: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN an order for 5 units of an item short on stock
			rd := testReference()
			addItem(rd, 0, 1, 1, 0.5)
			addItem(rd, 1, 1, 1, 0.5)
			if tt.onHand > 0 {
				stock(rd, 1, 0, tt.onHand)
			}
			rd.Shipments = tt.shipments
			rd.Orders = []OrderRow{{ID: 0, Timestamp: on(0, 7, 30), Item: 0, Quantity: 5}}
			s := mustSimulator(t, rd, testConfig())

			// WHEN the order arrives
			_, err := s.Step()
			require.NoError(t, err)

			// THEN it is deferred to the earliest covering shipment or given up
			rechecks := pendingOfKind(s, KindOrderArrived)
			if !tt.deferred {
				assert.Equal(t, 1, s.Metrics.Impossible)
				assert.Zero(t, s.Metrics.ReturnedForRestock)
				assert.Empty(t, s.WaitList())
				assert.Empty(t, rechecks)
				return
			}
			assert.Zero(t, s.Metrics.Impossible)
			assert.Equal(t, 1, s.Metrics.ReturnedForRestock)
			assert.Equal(t, []int{0}, s.WaitList())
			require.Len(t, rechecks, 1)
			first := tt.shipments[0].Date
			for _, sh := range tt.shipments {
				if sh.Date.Before(first) {
					first = sh.Date
				}
			}
			assert.Equal(t, atClock(first, 9, 1), rechecks[0].Timestamp())
			assert.Zero(t, s.FetchQ.Len(), "nothing is reserved while waiting")
		})
	}
}

func TestSimulator_DeferredOrderServedAfterDelivery(t *testing.T) {
	tests := []struct {
		name       string
		onTimeDays int
		wantOnTime int
		wantLate   int
	}{
		{"within the on-time limit", 4, 1, 0},
		{"past the on-time limit", 1, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN no stock of item 0 and 8 units landing on Wednesday
			rd := testReference()
			addItem(rd, 0, 1, 1, 0.5)
			rd.Shipments = []ShipmentRow{{Date: on(2, 0, 0), Item: 0, Quantity: 8}}
			rd.Orders = []OrderRow{{ID: 0, Timestamp: on(0, 10, 0), Item: 0, Quantity: 5}}
			cfg := testConfig()
			cfg.Service.OnTimeDays = tt.onTimeDays
			s := mustSimulator(t, rd, cfg)

			// WHEN the run reaches Wednesday 09:01 and the re-check
			stepUntil(t, s, on(2, 9, 2))

			// THEN the cross-dock employee serves it straight from the sort area
			o := s.Orders[0]
			require.NotNil(t, o.DeliveryTime)
			assert.Equal(t, on(2, 9, 1), *o.DeliveryTime)
			assert.Equal(t, 2, o.WaitingDays)
			assert.Equal(t, tt.wantOnTime, s.Metrics.OnTime)
			assert.Equal(t, tt.wantLate, s.Metrics.Late)
			assert.Equal(t, 1, s.Metrics.ReturnedForRestock)
			assert.Empty(t, s.WaitList())
			assert.Equal(t, 3, s.Warehouse.OnHand(0))
			assert.Equal(t, 2, s.Metrics.OrdersProcessed)
			require.NotEmpty(t, s.Trace.FetchTasks)
			last := s.Trace.FetchTasks[len(s.Trace.FetchTasks)-1]
			assert.Equal(t, CrossDockID, last.EmployeeID)
			assert.Zero(t, last.TaskSeconds)
		})
	}
}

func TestSimulator_RedeferralCountsOnce(t *testing.T) {
	// GIVEN an order for 10 covered by 8 units on Wednesday and 2 on Thursday
	rd := testReference()
	addItem(rd, 0, 1, 1, 0.5)
	rd.Shipments = []ShipmentRow{
		{Date: on(2, 0, 0), Item: 0, Quantity: 8},
		{Date: on(3, 0, 0), Item: 0, Quantity: 2},
	}
	rd.Orders = []OrderRow{{ID: 0, Timestamp: on(0, 10, 0), Item: 0, Quantity: 10}}
	s := mustSimulator(t, rd, testConfig())

	// WHEN the Wednesday re-check still falls short
	stepUntil(t, s, on(2, 9, 2))

	// THEN the order waits again for Thursday without being counted twice
	assert.Equal(t, 1, s.Metrics.ReturnedForRestock)
	assert.Equal(t, []int{0}, s.WaitList())
	rechecks := pendingOfKind(s, KindOrderArrived)
	require.Len(t, rechecks, 1)
	assert.Equal(t, on(3, 9, 1), rechecks[0].Timestamp())

	// WHEN Thursday's delivery and re-check run, after Wednesday's put-away
	stepUntil(t, s, on(3, 10, 0))

	// THEN both pickers finish the order on time
	o := s.Orders[0]
	require.NotNil(t, o.DeliveryTime)
	assert.Equal(t, 3, o.WaitingDays)
	assert.Equal(t, 1, s.Metrics.OnTime)
	assert.Empty(t, s.WaitList())
	assert.Zero(t, s.Warehouse.OnHand(0))
}

func TestSimulator_PlacingWindowPutsAwayDelivery(t *testing.T) {
	// GIVEN 3 units of item 5 (volume 2) delivered on Wednesday, with cell 3
	// the only cell of its zone
	rd := testReference()
	addItem(rd, 5, 2, 2, 0.5)
	rd.Cells[3].AvailableVolume = 10
	rd.Shipments = []ShipmentRow{{Date: on(2, 0, 0), Item: 5, Quantity: 3}}
	s := mustSimulator(t, rd, testConfig())

	// WHEN the Wednesday placing window runs
	stepUntil(t, s, on(2, 17, 1))

	// THEN everything moved to cell 3 and the sort area is empty
	var atSort, atCell3 int
	for _, p := range s.Warehouse.Positions() {
		switch p.Location {
		case s.Warehouse.SortLocation():
			atSort += p.Quantity
		case 3:
			atCell3 += p.Quantity
		}
	}
	assert.Zero(t, atSort)
	assert.Equal(t, 3, atCell3)
	c, err := s.Warehouse.Cell(3)
	require.NoError(t, err)
	assert.Equal(t, 4.0, c.AvailableVolume)
	assert.Empty(t, s.Metrics.UnplacedUnits)
}

func TestSimulator_ShortDayPlacingTime(t *testing.T) {
	rd := testReference()
	addItem(rd, 0, 1, 1, 0.5)
	rd.Shipments = []ShipmentRow{
		{Date: on(2, 0, 0), Item: 0, Quantity: 1},
		{Date: on(4, 0, 0), Item: 0, Quantity: 1},
		{Date: on(2, 0, 0), Item: 0, Quantity: 2},
	}
	s := mustSimulator(t, rd, testConfig())

	// one delivery per row, one placing window per date, one noon rollover
	assert.Equal(t, 6, s.PendingEvents())
	assert.Len(t, pendingOfKind(s, KindDeliveryArrived), 3)
	var placing []time.Time
	for _, ev := range pendingOfKind(s, KindPlacingWindow) {
		placing = append(placing, ev.Timestamp())
	}
	assert.ElementsMatch(t, []time.Time{on(2, 17, 0), on(4, 12, 15)}, placing)
}

func TestSimulator_NoonRollover(t *testing.T) {
	// GIVEN an idle crew on Monday
	s := mustSimulator(t, stockedReference(), testConfig())
	e0, e1 := s.Employees[0], s.Employees[1]

	// WHEN noon passes
	stepUntil(t, s, on(0, 12, 1))

	// THEN the driver rests for an hour and the cross-dock employee is untouched
	assert.Equal(t, Busy, e1.Status)
	assert.True(t, e1.Rested)
	assert.Nil(t, e1.Tool())
	assert.Equal(t, Available, e0.Status)
	rests := pendingOfKind(s, KindEmployeeRest)
	require.Len(t, rests, 1)
	assert.Equal(t, on(0, 13, 0), rests[0].Timestamp())
	noons := pendingOfKind(s, KindNoonRollover)
	require.Len(t, noons, 1)
	assert.Equal(t, on(1, 12, 0), noons[0].Timestamp())

	// WHEN the rest ends
	stepUntil(t, s, on(0, 13, 1))

	// THEN the driver is available and stays rested for the day
	assert.Equal(t, Available, e1.Status)
	assert.True(t, e1.Rested)
}

func TestSimulator_NoNoonRestOnShortDays(t *testing.T) {
	s := mustSimulator(t, stockedReference(), testConfig())
	e1 := s.Employees[1]

	// WHEN Friday noon passes
	stepUntil(t, s, on(4, 12, 1))

	// THEN nobody rests and the rollover re-arms for Monday
	assert.Equal(t, Available, e1.Status)
	assert.False(t, e1.Rested)
	assert.Empty(t, pendingOfKind(s, KindEmployeeRest))
	noons := pendingOfKind(s, KindNoonRollover)
	require.Len(t, noons, 1)
	assert.Equal(t, on(7, 12, 0), noons[0].Timestamp())
}

func TestSimulator_NoonSkipsBusyEmployees(t *testing.T) {
	s := mustSimulator(t, stockedReference(), testConfig())
	e1, t1 := s.Employees[1], s.Tools[1]
	s.claimTool(e1, t1)

	stepUntil(t, s, on(0, 12, 1))

	assert.False(t, e1.Rested)
	assert.Same(t, t1, e1.Tool())
	assert.Empty(t, pendingOfKind(s, KindEmployeeRest))
}

func TestClaimTool_CrossDockToolIsShared(t *testing.T) {
	// GIVEN two cross-dock employees working off the one sort-area tool
	cfg := testConfig()
	cfg.Roster = append(cfg.Roster, EmployeeSpec{ID: 2, Tools: []ToolType{CrossDock}})
	s := mustSimulator(t, stockedReference(), cfg)
	cd, first, second := s.Tools[0], s.Employees[0], s.Employees[2]
	require.True(t, cd.IsCrossDock())
	s.claimTool(first, cd)
	s.claimTool(second, cd)

	// WHEN the first one lets go of it
	s.releaseTool(first, cd)

	// THEN the second still holds it and the tool stays free and unowned
	assert.Nil(t, first.Tool())
	assert.Same(t, cd, second.Tool())
	assert.Equal(t, Available, cd.Status)
	assert.Nil(t, cd.Holder())
}

// tripInProgress puts employee 1 on a trip with tool 1 carrying 2 units of
// order 7, as if it had been planned by createFetch.
func tripInProgress(t *testing.T, s *Simulator) (*Employee, *Tool) {
	t.Helper()
	o, err := NewOrder(7, on(0, 9, 0), map[int]int{0: 2})
	require.NoError(t, err)
	s.Orders[o.ID] = o
	e1, t1 := s.Employees[1], s.Tools[1]
	s.claimTool(e1, t1)
	s.TaskQ.Add(TaskEntry{EmployeeID: 1, OrderID: 7, Location: 1, Aisle: 1, Item: 0, Units: 2})
	return e1, t1
}

func TestCompleteFetch_WorkingHours(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		rested   bool
		wantBusy bool
		keepTool bool
		wantRest bool
	}{
		{name: "morning keeps working", now: on(0, 10, 0)},
		{name: "afternoon sends to rest", now: on(0, 13, 5), wantBusy: true, wantRest: true},
		{name: "rested afternoon keeps working", now: on(0, 17, 30), rested: true},
		{name: "after hours keeps the tool", now: on(0, 18, 30), wantBusy: true, keepTool: true},
		{name: "before hours keeps the tool", now: on(0, 7, 30), wantBusy: true, keepTool: true},
		{name: "short day until its last hour", now: on(4, 12, 30)},
		{name: "short day after hours", now: on(4, 13, 0), wantBusy: true, keepTool: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustSimulator(t, stockedReference(), testConfig())
			e1, t1 := tripInProgress(t, s)
			e1.Rested = tt.rested

			require.NoError(t, s.completeFetch(e1, t1, tt.now))

			// the order is settled whatever the hour
			assert.Equal(t, 2, s.Metrics.DeliveredUnits[0])
			assert.True(t, s.Orders[7].Fulfilled())
			assert.Zero(t, s.TaskQ.Len())

			if tt.wantBusy {
				assert.Equal(t, Busy, e1.Status)
			} else {
				assert.Equal(t, Available, e1.Status)
			}
			if tt.keepTool {
				assert.Same(t, t1, e1.Tool())
				assert.Equal(t, Busy, t1.Status)
			} else {
				assert.Nil(t, e1.Tool())
				assert.Equal(t, Available, t1.Status)
			}
			rests := pendingOfKind(s, KindEmployeeRest)
			if tt.wantRest {
				assert.True(t, e1.Rested)
				require.Len(t, rests, 1)
				assert.Equal(t, tt.now.Add(time.Hour), rests[0].Timestamp())
			} else {
				assert.Empty(t, rests)
			}
		})
	}
}

func TestCompleteFetch_NextTripWithSameTool(t *testing.T) {
	// GIVEN another pallet-jack pick waiting when the trip ends
	s := mustSimulator(t, stockedReference(), testConfig())
	e1, t1 := tripInProgress(t, s)
	s.FetchQ.Add(&FetchEntry{ToolType: PalletJack, Location: 2, Aisle: 1, OrderID: 8, Item: 0, Units: 1, Volume: 1, FetchTime: 10})

	require.NoError(t, s.completeFetch(e1, t1, on(0, 10, 0)))

	// THEN the same tool goes out again straight away
	assert.Equal(t, Busy, e1.Status)
	assert.Same(t, t1, e1.Tool())
	assert.Zero(t, s.FetchQ.Len())
	require.Len(t, s.TaskQ.ForEmployee(1), 1)
	assert.Equal(t, 8, s.TaskQ.ForEmployee(1)[0].OrderID)
	assert.Len(t, pendingOfKind(s, KindFetchCompleted), 1)
}

func TestCompleteFetch_TransfersToAnotherTool(t *testing.T) {
	// GIVEN a driver qualified on pallet jacks and reach forks, and only
	// reach-fork work waiting
	cfg := testConfig()
	cfg.Roster[1].Tools = []ToolType{PalletJack, ReachFork}
	cfg.Fleet = append(cfg.Fleet, ToolSpec{ID: 4, Type: ReachFork})
	s := mustSimulator(t, stockedReference(), cfg)
	e1, t1 := tripInProgress(t, s)
	rf := s.Tools[2]
	s.FetchQ.Add(&FetchEntry{ToolType: ReachFork, Location: 3, Aisle: 2, OrderID: 8, Item: 0, Units: 1, Volume: 1})

	// WHEN the pallet-jack trip ends
	require.NoError(t, s.completeFetch(e1, t1, on(0, 10, 0)))

	// THEN the driver walks over to the reach fork
	assert.Equal(t, Busy, e1.Status)
	assert.Same(t, rf, e1.Tool())
	assert.Equal(t, Busy, rf.Status)
	assert.Equal(t, Available, t1.Status)
	transfers := pendingOfKind(s, KindToolTransferCompleted)
	require.Len(t, transfers, 1)
	assert.False(t, transfers[0].Timestamp().Before(on(0, 10, 0)))

	// WHEN the transfer completes
	for s.events.Len() > 0 && pendingOfKind(s, KindToolTransferCompleted) != nil {
		_, err := s.Step()
		require.NoError(t, err)
	}

	// THEN the reach-fork trip is under way
	assert.Zero(t, s.FetchQ.Len())
	assert.Len(t, s.TaskQ.ForEmployee(1), 1)
	assert.Len(t, pendingOfKind(s, KindFetchCompleted), 1)
}

func TestCompleteFetch_UnknownOrder(t *testing.T) {
	s := mustSimulator(t, stockedReference(), testConfig())
	e1, t1 := s.Employees[1], s.Tools[1]
	s.claimTool(e1, t1)
	s.TaskQ.Add(TaskEntry{EmployeeID: 1, OrderID: 99, Item: 0, Units: 1})

	err := s.completeFetch(e1, t1, on(0, 10, 0))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSimulator_StaleEventsAreSkipped(t *testing.T) {
	tests := []struct {
		name   string
		epoch  func(e *Employee) uint64
		issued time.Time
	}{
		{"reassigned since", func(e *Employee) uint64 { return e.epoch + 1 }, on(0, 8, 0)},
		{"issued on an earlier day", func(e *Employee) uint64 { return e.epoch }, on(-3, 16, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a trip completion that no longer matches the employee
			s := mustSimulator(t, stockedReference(), testConfig())
			e1, t1 := tripInProgress(t, s)
			s.Schedule(&FetchCompletedEvent{
				time:       on(0, 9, 0),
				Employee:   e1,
				Tool:       t1,
				assignment: assignment{epoch: tt.epoch(e1), issued: tt.issued},
			})

			// WHEN it fires
			_, err := s.Step()
			require.NoError(t, err)

			// THEN nothing is settled, but the event is traced as stale
			assert.Equal(t, 1, s.TaskQ.Len())
			assert.Zero(t, s.Metrics.DeliveredUnits[0])
			require.NotEmpty(t, s.Trace.Events)
			last := s.Trace.Events[len(s.Trace.Events)-1]
			assert.True(t, last.Stale)
			assert.Equal(t, string(KindFetchCompleted), last.Kind)
		})
	}
}

func TestSimulator_DayResetAbandonsOvernightTrips(t *testing.T) {
	// GIVEN shelf removal slow enough for a 16:00 trip to end after midnight
	rd := stockedReference()
	slow := fixedSpeeds
	slow.RemoveFromShelf = NormalDist{Mean: 30000}
	rd.ToolStats[PalletJack] = slow
	rd.Orders = []OrderRow{{ID: 0, Timestamp: on(0, 16, 0), Item: 0, Quantity: 5}}
	s := mustSimulator(t, rd, testConfig())

	// WHEN the run crosses into Tuesday
	stepUntil(t, s, on(1, 1, 0))

	// THEN the trip is dropped, its units written off and the order left open
	assert.Equal(t, 5, s.Metrics.AbandonedUnits[0])
	assert.Zero(t, s.TaskQ.Len())
	assert.Zero(t, s.Metrics.OnTime)
	assert.Equal(t, 5, s.Orders[0].Items[0])
	assert.Equal(t, Available, s.Employees[1].Status)
	assert.Equal(t, Available, s.Tools[1].Status)
	last := s.Trace.Events[len(s.Trace.Events)-1]
	assert.Equal(t, string(KindFetchCompleted), last.Kind)
	assert.True(t, last.Stale)
	assert.Equal(t, on(1, 0, 20).Add(24*time.Second), last.Time)
}

type resetSnapshot struct {
	Status   []Status
	Rested   []bool
	Holding  []bool
	Tools    []Status
	Left     []float64
	Tasks    int
	Abandon  int
	OnToday  int
	FetchLen int
}

func snapshotReset(s *Simulator) resetSnapshot {
	var snap resetSnapshot
	for _, e := range s.Employees {
		snap.Status = append(snap.Status, e.Status)
		snap.Rested = append(snap.Rested, e.Rested)
		snap.Holding = append(snap.Holding, e.tool != nil)
	}
	for _, t := range s.Tools {
		snap.Tools = append(snap.Tools, t.Status)
		snap.Left = append(snap.Left, t.LeftCapacity)
	}
	snap.Tasks = s.TaskQ.Len()
	snap.Abandon = sumUnits(s.Metrics.AbandonedUnits)
	snap.OnToday = s.Metrics.OnTimeToday
	snap.FetchLen = s.FetchQ.Len()
	return snap
}

func TestSimulator_DayResetIsIdempotent(t *testing.T) {
	// GIVEN a busy Monday morning
	s := mustSimulator(t, richReference(), DefaultConfig())
	stepUntil(t, s, on(0, 10, 30))

	// WHEN the day is reset once, then again
	s.resetDay()
	once := snapshotReset(s)
	s.resetDay()
	twice := snapshotReset(s)

	// THEN the second reset changes nothing
	assert.Equal(t, once, twice)
	assert.Zero(t, once.Tasks)
	for i, e := range s.Employees {
		assert.Equal(t, Available, e.Status)
		assert.Equal(t, e.IsCrossDock(), once.Rested[i])
	}
}

// checkInvariants asserts the state properties that must hold between any
// two events.
func checkInvariants(t *testing.T, s *Simulator) {
	t.Helper()

	// every unit is somewhere: in a cell, queued, on a trip, delivered or written off
	units := make(map[int]int)
	for _, p := range s.Warehouse.Positions() {
		units[p.Item] += p.Quantity
	}
	for _, e := range s.FetchQ.Items() {
		units[e.Item] += e.Units
	}
	for _, e := range s.TaskQ.Items() {
		units[e.Item] += e.Units
	}
	for item, n := range s.Metrics.DeliveredUnits {
		units[item] += n
	}
	for item, n := range s.Metrics.AbandonedUnits {
		units[item] += n
	}
	for _, it := range s.Warehouse.items {
		want := s.initialUnits[it.ID] + s.Metrics.ShippedUnits[it.ID]
		if units[it.ID] != want {
			t.Fatalf("[%s] item %d: %d units accounted for, want %d", s.Clock, it.ID, units[it.ID], want)
		}
	}

	for _, c := range s.Warehouse.Cells() {
		if c.AvailableVolume < 0 || c.AvailableVolume > c.Capacity {
			t.Fatalf("[%s] cell %d: free volume %v outside [0, %v]", s.Clock, c.Location, c.AvailableVolume, c.Capacity)
		}
	}
	for _, tool := range s.Tools {
		if tool.LeftCapacity < -1e-9 || tool.LeftCapacity > tool.Capacity {
			t.Fatalf("[%s] tool %d: left capacity %v outside [0, %v]", s.Clock, tool.ID, tool.LeftCapacity, tool.Capacity)
		}
		if tool.IsCrossDock() {
			continue
		}
		if tool.Status == Busy && (tool.holder == nil || tool.holder.tool != tool) {
			t.Fatalf("[%s] tool %d is busy without a holder", s.Clock, tool.ID)
		}
		if tool.Status == Available && tool.holder != nil {
			t.Fatalf("[%s] tool %d is available but held by employee %d", s.Clock, tool.ID, tool.holder.ID)
		}
	}
	for _, e := range s.Employees {
		if e.IsCrossDock() {
			continue
		}
		switch {
		case e.Status == Available && e.tool != nil:
			t.Fatalf("[%s] employee %d is available while holding tool %d", s.Clock, e.ID, e.tool.ID)
		case e.tool != nil && e.tool.Status != Busy:
			t.Fatalf("[%s] employee %d holds available tool %d", s.Clock, e.ID, e.tool.ID)
		case e.Status == Busy && e.tool == nil && !e.Rested:
			t.Fatalf("[%s] employee %d is busy with no tool and not resting", s.Clock, e.ID)
		}
	}
}

func TestSimulator_InvariantsHoldThroughoutARun(t *testing.T) {
	// GIVEN a week of orders and deliveries on a mixed fleet
	s := mustSimulator(t, richReference(), DefaultConfig())
	checkInvariants(t, s)

	// WHEN every event is processed
	steps := 0
	for {
		ok, err := s.Step()
		require.NoError(t, err)
		if !ok {
			break
		}
		steps++
		// THEN stock, capacity and status invariants hold after each one
		checkInvariants(t, s)
	}

	assert.Greater(t, steps, 48)
	assert.NotEmpty(t, s.Trace.FetchTasks)
	assert.Positive(t, s.Metrics.OnTime+s.Metrics.Late)
	assert.LessOrEqual(t, s.Metrics.OnTime+s.Metrics.Late+s.Metrics.Impossible, 48)
}

func TestSimulator_SameSeedSameRun(t *testing.T) {
	// GIVEN two simulators built from the same data and seed
	a := mustSimulator(t, richReference(), DefaultConfig())
	b := mustSimulator(t, richReference(), DefaultConfig())

	// WHEN both run to the end
	ra, err := a.Run()
	require.NoError(t, err)
	rb, err := b.Run()
	require.NoError(t, err)

	// THEN outcomes and traces are identical apart from the run id
	assert.NotEqual(t, ra.RunID, rb.RunID)
	rb.RunID = ra.RunID
	assert.Equal(t, ra, rb)
}

func TestSimulator_SeedChangesTripDurations(t *testing.T) {
	cfg := DefaultConfig()
	a := mustSimulator(t, richReference(), cfg)
	cfg.Seed = 7
	b := mustSimulator(t, richReference(), cfg)

	ra, err := a.Run()
	require.NoError(t, err)
	rb, err := b.Run()
	require.NoError(t, err)

	durations := func(r *Result) []float64 {
		var out []float64
		for _, ft := range r.Trace.FetchTasks {
			out = append(out, ft.TaskSeconds)
		}
		return out
	}
	assert.NotEqual(t, durations(ra), durations(rb))
}

func TestSimulator_RunStopsAtTheHorizon(t *testing.T) {
	// GIVEN a calendar ending Tuesday 10 Jan and no orders
	s := mustSimulator(t, stockedReference(), testConfig())

	// WHEN the run completes
	r, err := s.Run()
	require.NoError(t, err)

	// THEN one noon rollover ran per calendar date and one rest per normal day
	assert.Equal(t, on(8, 0, 0), r.FinalDate)
	assert.Equal(t, 7, r.Summary.EventsByKind[string(KindNoonRollover)])
	assert.Equal(t, 6, r.Summary.EventsByKind[string(KindEmployeeRest)])
	assert.Len(t, r.DailyService, 7)
	assert.Equal(t, 1, s.PendingEvents(), "the rollover past the last date never runs")
	assert.Zero(t, r.ServiceRate)
	assert.Len(t, r.EmployeeHours, 2)
	assert.False(t, math.IsNaN(r.Summary.MeanTaskSeconds))

	ok, err := s.Step()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewSimulator_Rejects(t *testing.T) {
	t.Run("duplicate order id", func(t *testing.T) {
		rd := stockedReference()
		rd.Orders = []OrderRow{
			{ID: 3, Timestamp: on(0, 9, 0), Item: 0, Quantity: 1},
			{ID: 3, Timestamp: on(0, 10, 0), Item: 0, Quantity: 1},
		}
		_, err := NewSimulator(rd, testConfig())
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})
	t.Run("order for an unknown item", func(t *testing.T) {
		rd := stockedReference()
		rd.Orders = []OrderRow{{ID: 0, Timestamp: on(0, 9, 0), Item: 42, Quantity: 1}}
		_, err := NewSimulator(rd, testConfig())
		assert.True(t, errors.Is(err, ErrNotFound))
	})
	t.Run("negative shipment quantity", func(t *testing.T) {
		rd := stockedReference()
		rd.Shipments = []ShipmentRow{{Date: on(1, 0, 0), Item: 0, Quantity: -5}}
		_, err := NewSimulator(rd, testConfig())
		assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
	})
	t.Run("order for nothing", func(t *testing.T) {
		rd := stockedReference()
		rd.Orders = []OrderRow{{ID: 0, Timestamp: on(0, 9, 0), Item: 0, Quantity: 0}}
		_, err := NewSimulator(rd, testConfig())
		assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
	})
	t.Run("fleet type without statistics", func(t *testing.T) {
		rd := stockedReference()
		delete(rd.ToolStats, OrderPicker)
		_, err := NewSimulator(rd, DefaultConfig())
		assert.True(t, errors.Is(err, ErrNotFound))
	})
	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.Roster = nil
		_, err := NewSimulator(stockedReference(), cfg)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})
}
