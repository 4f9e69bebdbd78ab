package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warehouse-sim/whsim/sim"
)

// File names written by CSVSink.
const (
	RunHeaderFile     = "run.yaml"
	FetchTasksFile    = "fetch_tasks.csv"
	EventsFile        = "events_sim.csv"
	WaitingFile       = "waiting_for_supply.csv"
	DailyMeasuresFile = "daily_measures.csv"
	EmployeeHoursFile = "employee_hours.csv"
)

// outputVersion is bumped whenever a column or header field changes meaning.
const outputVersion = 1

// RunHeader captures the run-level outcome written to run.yaml.
type RunHeader struct {
	Version   int    `yaml:"output_version"`
	RunID     string `yaml:"run_id"`
	Seed      int64  `yaml:"seed"`
	FinalDate string `yaml:"final_date"`
	CreatedAt string `yaml:"created_at,omitempty"`

	OnTime             int     `yaml:"on_time"`
	Late               int     `yaml:"late"`
	ReturnedForRestock int     `yaml:"returned_for_restock"`
	Impossible         int     `yaml:"impossible"`
	ServiceRate        float64 `yaml:"service_rate"`

	WaitingForSupply int `yaml:"waiting_for_supply"`
	FetchQueueLen    int `yaml:"fetch_queue_len"`
	TaskQueueLen     int `yaml:"task_queue_len"`
	AbandonedUnits   int `yaml:"abandoned_units"`
	UnplacedUnits    int `yaml:"unplaced_units"`

	Trips *TripSummary `yaml:"trips,omitempty"`
}

// TripSummary is the fetch-trip part of the header.
type TripSummary struct {
	Count            int     `yaml:"count"`
	MeanSeconds      float64 `yaml:"mean_seconds"`
	StdSeconds       float64 `yaml:"std_seconds"`
	P50Seconds       float64 `yaml:"p50_seconds"`
	P95Seconds       float64 `yaml:"p95_seconds"`
	MaxSeconds       float64 `yaml:"max_seconds"`
	MeanItemsPerTrip float64 `yaml:"mean_items_per_trip"`
	StaleEvents      int     `yaml:"stale_events"`
}

var fetchTaskColumns = []string{
	"time", "employee_id", "tool_id", "tool_type", "task_seconds", "item_count", "aisle_count",
}

var eventColumns = []string{
	"time", "kind", "employee_id", "tool_id", "tool_type", "shipment_item", "order_id", "order_item", "stale",
}

// CSVSink writes a run into a directory: a YAML header plus one CSV table
// per record kind. Existing files are overwritten.
type CSVSink struct {
	Dir string
	// Now stamps the header; nil leaves created_at out.
	Now func() time.Time
}

// NewCSVSink returns a sink writing into dir, stamping headers with the wall clock.
func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{Dir: dir, Now: time.Now}
}

// WriteResult writes every file of the run. The context is checked between files.
func (s *CSVSink) WriteResult(ctx context.Context, r *sim.Result) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	steps := []struct {
		name  string
		write func(string, *sim.Result) error
	}{
		{RunHeaderFile, s.writeHeader},
		{FetchTasksFile, writeFetchTasks},
		{EventsFile, writeEvents},
		{WaitingFile, writeWaiting},
		{DailyMeasuresFile, writeDailyMeasures},
		{EmployeeHoursFile, writeEmployeeHours},
	}
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := st.write(filepath.Join(s.Dir, st.name), r); err != nil {
			return fmt.Errorf("%s: %w", st.name, err)
		}
	}
	return nil
}

func (s *CSVSink) writeHeader(path string, r *sim.Result) error {
	h := RunHeader{
		Version:            outputVersion,
		RunID:              r.RunID,
		Seed:               r.Seed,
		FinalDate:          r.FinalDate.Format(time.DateOnly),
		OnTime:             r.OnTime,
		Late:               r.Late,
		ReturnedForRestock: r.ReturnedForRestock,
		Impossible:         r.Impossible,
		ServiceRate:        r.ServiceRate,
		WaitingForSupply:   len(r.WaitList),
		FetchQueueLen:      r.FetchQueueLen,
		TaskQueueLen:       r.TaskQueueLen,
		AbandonedUnits:     r.AbandonedUnits,
		UnplacedUnits:      r.UnplacedUnits,
	}
	if s.Now != nil {
		h.CreatedAt = s.Now().UTC().Format(time.RFC3339)
	}
	if sum := r.Summary; sum != nil {
		h.Trips = &TripSummary{
			Count:            sum.TotalFetchTasks,
			MeanSeconds:      sum.MeanTaskSeconds,
			StdSeconds:       sum.StdTaskSeconds,
			P50Seconds:       sum.P50TaskSeconds,
			P95Seconds:       sum.P95TaskSeconds,
			MaxSeconds:       sum.MaxTaskSeconds,
			MeanItemsPerTrip: sum.MeanItemsPerTask,
			StaleEvents:      sum.StaleEvents,
		}
	}
	data, err := yaml.Marshal(&h)
	if err != nil {
		return fmt.Errorf("marshaling run header: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run header: %w", err)
	}
	return nil
}

// writeTable writes columns then rows to a new CSV file at path.
func writeTable(path string, columns []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatTime(t time.Time) string { return t.Format(time.DateTime) }

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func writeFetchTasks(path string, r *sim.Result) error {
	var rows [][]string
	if r.Trace != nil {
		rows = make([][]string, 0, len(r.Trace.FetchTasks))
		for _, ft := range r.Trace.FetchTasks {
			rows = append(rows, []string{
				formatTime(ft.Time),
				strconv.Itoa(ft.EmployeeID),
				strconv.Itoa(ft.ToolID),
				ft.ToolType,
				formatFloat(ft.TaskSeconds),
				strconv.Itoa(ft.ItemCount),
				strconv.Itoa(ft.AisleCount),
			})
		}
	}
	return writeTable(path, fetchTaskColumns, rows)
}

// optionalID leaves identifiers that do not apply to an event blank.
func optionalID(id int) string {
	if id < 0 {
		return ""
	}
	return strconv.Itoa(id)
}

func writeEvents(path string, r *sim.Result) error {
	var rows [][]string
	if r.Trace != nil {
		rows = make([][]string, 0, len(r.Trace.Events))
		for _, ev := range r.Trace.Events {
			rows = append(rows, []string{
				formatTime(ev.Time),
				ev.Kind,
				optionalID(ev.EmployeeID),
				optionalID(ev.ToolID),
				ev.ToolType,
				optionalID(ev.ShipmentItem),
				optionalID(ev.OrderID),
				optionalID(ev.OrderItem),
				strconv.FormatBool(ev.Stale),
			})
		}
	}
	return writeTable(path, eventColumns, rows)
}

func writeWaiting(path string, r *sim.Result) error {
	rows := make([][]string, 0, len(r.WaitList))
	for _, id := range r.WaitList {
		rows = append(rows, []string{strconv.Itoa(id)})
	}
	return writeTable(path, []string{"order_id"}, rows)
}

func writeDailyMeasures(path string, r *sim.Result) error {
	rows := make([][]string, 0, len(r.DailyService))
	for _, d := range r.DailyService {
		rows = append(rows, []string{d.Date.Format(time.DateOnly), strconv.Itoa(d.OnTime)})
	}
	return writeTable(path, []string{"date", "orders_on_time"}, rows)
}

func writeEmployeeHours(path string, r *sim.Result) error {
	rows := make([][]string, 0, len(r.EmployeeHours))
	for _, e := range r.EmployeeHours {
		rows = append(rows, []string{strconv.Itoa(e.EmployeeID), strconv.Itoa(e.Trips), formatFloat(e.Hours)})
	}
	return writeTable(path, []string{"employee_id", "trips", "hours"}, rows)
}
