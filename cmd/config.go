package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warehouse-sim/whsim/sim"
	"github.com/warehouse-sim/whsim/sim/trace"
)

// clockLayout is the "HH:MM" form of every time of day in a run config.
const clockLayout = "15:04"

// fileConfig is the YAML layout of a run configuration. Every field is
// pre-filled from sim.DefaultConfig, so a file only lists what it overrides.
// All sections must be listed to satisfy KnownFields(true) strict parsing.
type fileConfig struct {
	Seed         int64          `yaml:"seed"`
	Roster       []employeeYAML `yaml:"roster"`
	Fleet        []toolYAML     `yaml:"fleet"`
	Hours        hoursYAML      `yaml:"hours"`
	Schedule     scheduleYAML   `yaml:"schedule"`
	Service      serviceYAML    `yaml:"service"`
	ToolTransfer sim.NormalDist `yaml:"tool_transfer_seconds"`
	TraceLevel   string         `yaml:"trace_level"`
}

type employeeYAML struct {
	ID    int      `yaml:"id"`
	Tools []string `yaml:"tools"`
}

type toolYAML struct {
	ID   int    `yaml:"id"`
	Type string `yaml:"type"`
}

type hoursYAML struct {
	Start        int    `yaml:"start"`
	End          int    `yaml:"end"`
	ShortDayEnd  int    `yaml:"short_day_end"`
	RestAfter    int    `yaml:"rest_after"`
	Noon         string `yaml:"noon"`
	RestDuration string `yaml:"rest_duration"`
}

type scheduleYAML struct {
	Delivery        string `yaml:"delivery"`
	RestockRecheck  string `yaml:"restock_recheck"`
	Placing         string `yaml:"placing"`
	ShortDayPlacing string `yaml:"short_day_placing"`
}

type serviceYAML struct {
	LookaheadDays int `yaml:"lookahead_days"`
	OnTimeDays    int `yaml:"on_time_days"`
}

// toFileConfig renders cfg in its YAML layout.
func toFileConfig(cfg sim.Config) fileConfig {
	fc := fileConfig{
		Seed: cfg.Seed,
		Hours: hoursYAML{
			Start:        cfg.Hours.Start,
			End:          cfg.Hours.End,
			ShortDayEnd:  cfg.Hours.ShortDayEnd,
			RestAfter:    cfg.Hours.RestAfter,
			Noon:         cfg.Hours.Noon.String(),
			RestDuration: cfg.Hours.RestDuration.String(),
		},
		Schedule: scheduleYAML{
			Delivery:        cfg.Schedule.Delivery.String(),
			RestockRecheck:  cfg.Schedule.RestockRecheck.String(),
			Placing:         cfg.Schedule.Placing.String(),
			ShortDayPlacing: cfg.Schedule.ShortDayPlacing.String(),
		},
		Service: serviceYAML{
			LookaheadDays: cfg.Service.LookaheadDays,
			OnTimeDays:    cfg.Service.OnTimeDays,
		},
		ToolTransfer: cfg.ToolTransfer,
		TraceLevel:   string(cfg.TraceLevel),
	}
	for _, e := range cfg.Roster {
		entry := employeeYAML{ID: e.ID}
		for _, t := range e.Tools {
			entry.Tools = append(entry.Tools, t.String())
		}
		fc.Roster = append(fc.Roster, entry)
	}
	for _, t := range cfg.Fleet {
		fc.Fleet = append(fc.Fleet, toolYAML{ID: t.ID, Type: t.Type.String()})
	}
	return fc
}

// toSim converts the YAML layout into a sim.Config. All problems are reported.
func (fc fileConfig) toSim() (sim.Config, error) {
	var errs []error
	cfg := sim.Config{
		Seed: fc.Seed,
		Hours: sim.HoursConfig{
			Start:       fc.Hours.Start,
			End:         fc.Hours.End,
			ShortDayEnd: fc.Hours.ShortDayEnd,
			RestAfter:   fc.Hours.RestAfter,
		},
		Service: sim.ServiceConfig{
			LookaheadDays: fc.Service.LookaheadDays,
			OnTimeDays:    fc.Service.OnTimeDays,
		},
		ToolTransfer: fc.ToolTransfer,
		TraceLevel:   trace.TraceLevel(fc.TraceLevel),
	}

	clock := func(name, value string) sim.ClockTime {
		t, err := time.Parse(clockLayout, value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s time %q: want HH:MM: %w", name, value, sim.ErrInvalidArgument))
			return sim.ClockTime{}
		}
		return sim.ClockTime{Hour: t.Hour(), Minute: t.Minute()}
	}
	cfg.Hours.Noon = clock("noon", fc.Hours.Noon)
	cfg.Schedule = sim.ScheduleConfig{
		Delivery:        clock("delivery", fc.Schedule.Delivery),
		RestockRecheck:  clock("restock re-check", fc.Schedule.RestockRecheck),
		Placing:         clock("placing", fc.Schedule.Placing),
		ShortDayPlacing: clock("short-day placing", fc.Schedule.ShortDayPlacing),
	}
	rest, err := time.ParseDuration(fc.Hours.RestDuration)
	if err != nil {
		errs = append(errs, fmt.Errorf("rest duration %q: %w", fc.Hours.RestDuration, sim.ErrInvalidArgument))
	}
	cfg.Hours.RestDuration = rest

	for _, e := range fc.Roster {
		spec := sim.EmployeeSpec{ID: e.ID}
		for _, name := range e.Tools {
			tt, err := sim.ParseToolType(name)
			if err != nil {
				errs = append(errs, fmt.Errorf("employee %d: %w", e.ID, err))
				continue
			}
			spec.Tools = append(spec.Tools, tt)
		}
		cfg.Roster = append(cfg.Roster, spec)
	}
	for _, t := range fc.Fleet {
		tt, err := sim.ParseToolType(t.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("tool %d: %w", t.ID, err))
			continue
		}
		cfg.Fleet = append(cfg.Fleet, sim.ToolSpec{ID: t.ID, Type: tt})
	}

	if err := errors.Join(errs...); err != nil {
		return sim.Config{}, err
	}
	return cfg, cfg.Validate()
}

// loadRunConfig reads a run configuration file. Fields the file leaves out
// keep their default value; an empty path returns the defaults.
func loadRunConfig(path string) (sim.Config, error) {
	if path == "" {
		return sim.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return sim.Config{}, fmt.Errorf("reading run config: %w", err)
	}
	return parseRunConfig(data)
}

func parseRunConfig(data []byte) (sim.Config, error) {
	fc := toFileConfig(sim.DefaultConfig())
	// Strict field checking: a misspelled key must fail, not fall back to a default.
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return sim.Config{}, fmt.Errorf("parsing run config: %w", err)
	}
	cfg, err := fc.toSim()
	if err != nil {
		return sim.Config{}, fmt.Errorf("run config: %w", err)
	}
	return cfg, nil
}

// marshalRunConfig renders cfg as a run configuration file.
func marshalRunConfig(cfg sim.Config) ([]byte, error) {
	return yaml.Marshal(toFileConfig(cfg))
}
