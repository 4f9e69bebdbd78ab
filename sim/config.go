package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/warehouse-sim/whsim/sim/trace"
)

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int `yaml:"hour"`
	Minute int `yaml:"minute"`
}

// On returns day's date at this time of day.
func (c ClockTime) On(day time.Time) time.Time { return atClock(day, c.Hour, c.Minute) }

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

func (c ClockTime) valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

// EmployeeSpec describes one member of the roster.
type EmployeeSpec struct {
	ID    int
	Tools []ToolType
}

// ToolSpec describes one tool of the fleet. Speeds and capacity come from
// the reference tool statistics of its type.
type ToolSpec struct {
	ID   int
	Type ToolType
}

// HoursConfig groups the working-hour rules applied when a trip ends.
type HoursConfig struct {
	Start        int           // first working hour
	End          int           // last working hour on normal days
	ShortDayEnd  int           // last working hour on short days
	RestAfter    int           // an unrested employee ending a trip after this hour goes to rest
	Noon         ClockTime     // daily rollover that rests idle staff
	RestDuration time.Duration // length of the daily rest
}

// ScheduleConfig groups the fixed times of day at which events are seeded.
type ScheduleConfig struct {
	Delivery        ClockTime // shipments land in the sort area
	RestockRecheck  ClockTime // deferred orders re-check stock on the shipment date
	Placing         ClockTime // put-away on normal days
	ShortDayPlacing ClockTime // put-away on short days
}

// ServiceConfig groups the business-day limits of order service.
type ServiceConfig struct {
	LookaheadDays int // shipments within this many business days may cover a shortfall
	OnTimeDays    int // orders completed within this many business days are on time
}

// Config holds everything a run needs besides the reference data.
type Config struct {
	Seed         int64
	Roster       []EmployeeSpec
	Fleet        []ToolSpec
	Hours        HoursConfig
	Schedule     ScheduleConfig
	Service      ServiceConfig
	ToolTransfer NormalDist // seconds
	TraceLevel   trace.TraceLevel
}

// DefaultConfig returns the reference configuration: one cross-dock
// employee, three pallet-jack drivers and two multi-skilled employees, with
// one cross-dock tool, three pallet jacks, two reach forks and two order
// pickers.
func DefaultConfig() Config {
	return Config{
		Seed: 42,
		Roster: []EmployeeSpec{
			{ID: 0, Tools: []ToolType{CrossDock}},
			{ID: 1, Tools: []ToolType{PalletJack}},
			{ID: 2, Tools: []ToolType{PalletJack}},
			{ID: 3, Tools: []ToolType{PalletJack}},
			{ID: 4, Tools: []ToolType{OrderPicker, ReachFork, PalletJack}},
			{ID: 5, Tools: []ToolType{OrderPicker, ReachFork, PalletJack}},
		},
		Fleet: []ToolSpec{
			{ID: 0, Type: CrossDock},
			{ID: 1, Type: PalletJack},
			{ID: 2, Type: PalletJack},
			{ID: 3, Type: PalletJack},
			{ID: 4, Type: ReachFork},
			{ID: 5, Type: ReachFork},
			{ID: 6, Type: OrderPicker},
			{ID: 7, Type: OrderPicker},
		},
		Hours: HoursConfig{
			Start:        8,
			End:          17,
			ShortDayEnd:  12,
			RestAfter:    12,
			Noon:         ClockTime{Hour: 12},
			RestDuration: time.Hour,
		},
		Schedule: ScheduleConfig{
			Delivery:        ClockTime{Hour: 9},
			RestockRecheck:  ClockTime{Hour: 9, Minute: 1},
			Placing:         ClockTime{Hour: 17},
			ShortDayPlacing: ClockTime{Hour: 12, Minute: 15},
		},
		Service: ServiceConfig{
			LookaheadDays: 4,
			OnTimeDays:    4,
		},
		ToolTransfer: NormalDist{Mean: 60, Std: 10},
		TraceLevel:   trace.TraceLevelEvents,
	}
}

// Validate checks the configuration. All problems are reported.
func (c Config) Validate() error {
	var errs []error
	if len(c.Roster) == 0 {
		errs = append(errs, fmt.Errorf("roster is empty: %w", ErrInvalidArgument))
	}
	seen := make(map[int]bool)
	for _, e := range c.Roster {
		if seen[e.ID] {
			errs = append(errs, fmt.Errorf("employee %d listed twice: %w", e.ID, ErrInvalidArgument))
		}
		seen[e.ID] = true
	}
	seen = make(map[int]bool)
	for _, t := range c.Fleet {
		if seen[t.ID] {
			errs = append(errs, fmt.Errorf("tool %d listed twice: %w", t.ID, ErrInvalidArgument))
		}
		seen[t.ID] = true
		if (t.ID == CrossDockID) != (t.Type == CrossDock) {
			errs = append(errs, fmt.Errorf("tool %d: the cross-dock tool must be the only tool with id %d: %w",
				t.ID, CrossDockID, ErrInvalidArgument))
		}
	}
	h := c.Hours
	if h.Start < 0 || h.End > 23 || h.Start > h.End || h.ShortDayEnd < h.Start || h.ShortDayEnd > 23 {
		errs = append(errs, fmt.Errorf("working hours %d-%d (short day to %d): %w", h.Start, h.End, h.ShortDayEnd, ErrInvalidArgument))
	}
	if h.RestDuration < 0 {
		errs = append(errs, fmt.Errorf("rest duration %s: %w", h.RestDuration, ErrInvalidArgument))
	}
	for _, ct := range []struct {
		name string
		at   ClockTime
	}{
		{"noon", h.Noon},
		{"delivery", c.Schedule.Delivery},
		{"restock re-check", c.Schedule.RestockRecheck},
		{"placing", c.Schedule.Placing},
		{"short-day placing", c.Schedule.ShortDayPlacing},
	} {
		if !ct.at.valid() {
			errs = append(errs, fmt.Errorf("%s time %s: %w", ct.name, ct.at, ErrInvalidArgument))
		}
	}
	if c.Service.LookaheadDays < 0 || c.Service.OnTimeDays < 0 {
		errs = append(errs, fmt.Errorf("service limits %+v: %w", c.Service, ErrInvalidArgument))
	}
	if !trace.IsValidTraceLevel(string(c.TraceLevel)) {
		errs = append(errs, fmt.Errorf("trace level %q: %w", c.TraceLevel, ErrInvalidArgument))
	}
	return errors.Join(errs...)
}
