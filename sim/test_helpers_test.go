package sim

import (
	"math"
	"testing"
	"time"

	"github.com/warehouse-sim/whsim/sim/trace"
)

// monday is the first calendar date of every fixture.
var monday = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

// on returns the fixture date offset by days at hh:mm.
func on(days, hh, mm int) time.Time {
	return time.Date(2023, 1, 2+days, hh, mm, 0, 0, time.UTC)
}

// fixedSpeeds are deterministic tool statistics: every draw returns the mean.
var fixedSpeeds = ToolStats{
	HorizontalSpeed: NormalDist{Mean: 1},
	VerticalSpeed:   NormalDist{Mean: 1},
	RemoveFromShelf: NormalDist{Mean: 10},
	MaxVolume:       50,
}

// testReference returns a small warehouse over Mon 2 .. Fri 6 Jan 2023 plus
// Mon 9 and Tue 10, with Friday short:
//
//	loc 0: sort area (aisle 0, cross-dock, no coordinates)
//	loc 1: aisle 1, x=2, attractiveness 1.0, zone 1
//	loc 2: aisle 1, x=4, attractiveness 0.8, zone 1
//	loc 3: aisle 2, x=3, attractiveness 0.5, zone 2
//
// Every storage cell is a pallet-jack cell with 100 units of free volume.
// Items and stock are added by the test.
func testReference() *ReferenceData {
	nan := math.NaN()
	var cal []CalendarDay
	for _, d := range []int{0, 1, 2, 3, 4, 7, 8} {
		cal = append(cal, CalendarDay{Date: on(d, 0, 0), ShortDay: d == 4})
	}
	return &ReferenceData{
		Calendar: cal,
		Cells: []Cell{
			{Location: 0, Aisle: 0, X: nan, Y: nan, Z: nan, ToolType: CrossDock, Capacity: 1000, AvailableVolume: 1000, PutawayZone: 9},
			{Location: 1, Aisle: 1, X: 2, Y: 2, Z: 0, Attractiveness: 1.0, ToolType: PalletJack, Capacity: 100, AvailableVolume: 100, PutawayZone: 1, DistanceFromEntry: 10},
			{Location: 2, Aisle: 1, X: 4, Y: 2, Z: 0, Attractiveness: 0.8, ToolType: PalletJack, Capacity: 100, AvailableVolume: 100, PutawayZone: 1, DistanceFromEntry: 10},
			{Location: 3, Aisle: 2, X: 3, Y: 6, Z: 0, Attractiveness: 0.5, ToolType: PalletJack, Capacity: 100, AvailableVolume: 100, PutawayZone: 2, DistanceFromEntry: 20},
		},
		ToolStats: map[ToolType]ToolStats{
			PalletJack:  fixedSpeeds,
			ReachFork:   fixedSpeeds,
			OrderPicker: fixedSpeeds,
		},
	}
}

// addItem registers an item of unit volume vol in zone.
func addItem(rd *ReferenceData, id, zone int, vol, attractiveness float64) {
	rd.Items = append(rd.Items, Item{ID: id, PutawayZone: zone, Volume: vol, Attractiveness: attractiveness})
}

// stock puts qty units of item at loc and consumes the matching cell volume.
func stock(rd *ReferenceData, loc, item, qty int) {
	rd.Positions = append(rd.Positions, Position{Location: loc, Item: item, Quantity: qty})
	vol := 1.0
	for _, it := range rd.Items {
		if it.ID == item {
			vol = it.Volume
		}
	}
	for i := range rd.Cells {
		if rd.Cells[i].Location == loc {
			rd.Cells[i].AvailableVolume -= float64(qty) * vol
		}
	}
}

// testConfig is a two-person crew: the cross-dock employee and one
// pallet-jack driver, with one tool each.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Roster = []EmployeeSpec{
		{ID: 0, Tools: []ToolType{CrossDock}},
		{ID: 1, Tools: []ToolType{PalletJack}},
	}
	cfg.Fleet = []ToolSpec{
		{ID: 0, Type: CrossDock},
		{ID: 1, Type: PalletJack},
	}
	cfg.TraceLevel = trace.TraceLevelEvents
	return cfg
}

func mustSimulator(t *testing.T, rd *ReferenceData, cfg Config) *Simulator {
	t.Helper()
	s, err := NewSimulator(rd, cfg)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s
}

// stepUntil processes events while their time is before limit.
func stepUntil(t *testing.T, s *Simulator, limit time.Time) {
	t.Helper()
	for {
		next := s.events.Peek()
		if next == nil || !next.Timestamp().Before(limit) {
			return
		}
		if _, err := s.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
}

// pendingOfKind returns the scheduled events of kind in heap storage order.
func pendingOfKind(s *Simulator, kind EventKind) []Event {
	var out []Event
	for _, e := range s.events.h {
		if e.event.Kind() == kind {
			out = append(out, e.event)
		}
	}
	return out
}

// richReference is a busier warehouse for whole-run properties: pallet-jack,
// reach-fork and order-picker aisles, five items, noisy tool statistics,
// a stream of orders over five days and several shipments.
func richReference() *ReferenceData {
	rd := testReference()
	noisy := func(maxVol float64) ToolStats {
		return ToolStats{
			HorizontalSpeed: NormalDist{Mean: 1.5, Std: 0.3},
			VerticalSpeed:   NormalDist{Mean: 0.5, Std: 0.1},
			RemoveFromShelf: NormalDist{Mean: 30, Std: 8},
			MaxVolume:       maxVol,
		}
	}
	rd.ToolStats = map[ToolType]ToolStats{
		PalletJack:  noisy(12),
		ReachFork:   noisy(8),
		OrderPicker: noisy(4),
	}
	rd.Cells = append(rd.Cells,
		Cell{Location: 4, Aisle: 3, X: 1, Y: 9, Z: 4, Attractiveness: 0.6, ToolType: ReachFork, Capacity: 60, AvailableVolume: 60, PutawayZone: 3, DistanceFromEntry: 25},
		Cell{Location: 5, Aisle: 3, X: 5, Y: 9, Z: 6, Attractiveness: 0.4, ToolType: ReachFork, Capacity: 60, AvailableVolume: 60, PutawayZone: 3, DistanceFromEntry: 25},
		Cell{Location: 6, Aisle: 4, X: 2, Y: 12, Z: 2, Attractiveness: 0.7, ToolType: OrderPicker, Capacity: 20, AvailableVolume: 20, PutawayZone: 4, DistanceFromEntry: 30},
	)
	addItem(rd, 0, 1, 1, 0.9)
	addItem(rd, 1, 1, 2, 0.5)
	addItem(rd, 2, 2, 1.5, 0.7)
	addItem(rd, 3, 3, 3, 0.3)
	addItem(rd, 4, 4, 0.5, 0.8)
	stock(rd, 1, 0, 20)
	stock(rd, 2, 1, 10)
	stock(rd, 3, 2, 12)
	stock(rd, 4, 3, 6)
	stock(rd, 6, 4, 10)
	stock(rd, 0, 0, 4)

	rd.Shipments = []ShipmentRow{
		{Date: on(1, 0, 0), Item: 1, Quantity: 15},
		{Date: on(1, 0, 0), Item: 3, Quantity: 9},
		{Date: on(2, 0, 0), Item: 4, Quantity: 12},
		{Date: on(4, 0, 0), Item: 2, Quantity: 10},
		{Date: on(7, 0, 0), Item: 0, Quantity: 30},
	}
	id := 0
	for _, d := range []int{0, 1, 2, 3, 4, 7} {
		for k, hh := range []int{8, 9, 10, 11, 13, 14, 15, 16} {
			rd.Orders = append(rd.Orders, OrderRow{
				ID:        id,
				Timestamp: on(d, hh, 7*k),
				Item:      (id*3 + d) % 5,
				Quantity:  1 + (id*7)%5,
			})
			id++
		}
	}
	return rd
}
