package output

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/warehouse-sim/whsim/sim"
)

// RunRow is one simulation run in the runs table.
type RunRow struct {
	ID                 uint      `gorm:"primaryKey"`
	RunID              string    `gorm:"uniqueIndex;not null"`
	Seed               int64     `gorm:"not null"`
	FinalDate          time.Time `gorm:"not null"`
	OnTime             int
	Late               int
	ReturnedForRestock int
	Impossible         int
	ServiceRate        float64
	WaitingForSupply   int
	FetchQueueLen      int
	TaskQueueLen       int
	AbandonedUnits     int
	UnplacedUnits      int
	CreatedAt          time.Time
}

// TableName pins the table name.
func (RunRow) TableName() string { return "runs" }

// FetchTaskRow is one fetch trip of a run.
type FetchTaskRow struct {
	ID          uint   `gorm:"primaryKey"`
	RunID       string `gorm:"index;not null"`
	Time        time.Time
	EmployeeID  int
	ToolID      int
	ToolType    string
	TaskSeconds float64
	ItemCount   int
	AisleCount  int
}

// TableName pins the table name.
func (FetchTaskRow) TableName() string { return "fetch_tasks" }

// EventRow is one processed event of a run. Identifiers that do not apply
// to the event kind are NULL.
type EventRow struct {
	ID           uint   `gorm:"primaryKey"`
	RunID        string `gorm:"index;not null"`
	Time         time.Time
	Kind         string `gorm:"index"`
	EmployeeID   *int
	ToolID       *int
	ToolType     string
	ShipmentItem *int
	OrderID      *int
	OrderItem    *int
	Stale        bool
}

// TableName pins the table name.
func (EventRow) TableName() string { return "events" }

// DailyServiceRow is the on-time count of one date of a run.
type DailyServiceRow struct {
	ID     uint      `gorm:"primaryKey"`
	RunID  string    `gorm:"uniqueIndex:idx_run_date;not null"`
	Date   time.Time `gorm:"uniqueIndex:idx_run_date;not null"`
	OnTime int
}

// TableName pins the table name.
func (DailyServiceRow) TableName() string { return "daily_service" }

// EmployeeHoursRow is the work logged by one employee during a run.
type EmployeeHoursRow struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"uniqueIndex:idx_run_employee;not null"`
	EmployeeID int    `gorm:"uniqueIndex:idx_run_employee;not null"`
	Trips      int
	Hours      float64
}

// TableName pins the table name.
func (EmployeeHoursRow) TableName() string { return "employee_hours" }

// batchSize bounds the rows per INSERT for trace tables.
const batchSize = 500

// SQLiteSink appends runs to a SQLite database. Every row carries the run id
// so several runs can share one file.
type SQLiteSink struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates the schema.
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := db.AutoMigrate(&RunRow{}, &FetchTaskRow{}, &EventRow{}, &DailyServiceRow{}, &EmployeeHoursRow{}); err != nil {
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return &SQLiteSink{db: db}, nil
}

// WriteResult stores the run and its tables in one transaction.
func (s *SQLiteSink) WriteResult(ctx context.Context, r *sim.Result) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run := RunRow{
			RunID:              r.RunID,
			Seed:               r.Seed,
			FinalDate:          r.FinalDate,
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
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("inserting run %s: %w", r.RunID, err)
		}

		if r.Trace != nil {
			if tasks := fetchTaskRows(r); len(tasks) > 0 {
				if err := tx.CreateInBatches(tasks, batchSize).Error; err != nil {
					return fmt.Errorf("inserting fetch tasks: %w", err)
				}
			}
			if events := eventRows(r); len(events) > 0 {
				if err := tx.CreateInBatches(events, batchSize).Error; err != nil {
					return fmt.Errorf("inserting events: %w", err)
				}
			}
		}

		if len(r.DailyService) > 0 {
			days := make([]DailyServiceRow, 0, len(r.DailyService))
			for _, d := range r.DailyService {
				days = append(days, DailyServiceRow{RunID: r.RunID, Date: d.Date, OnTime: d.OnTime})
			}
			if err := tx.Create(&days).Error; err != nil {
				return fmt.Errorf("inserting daily service: %w", err)
			}
		}
		if len(r.EmployeeHours) > 0 {
			hours := make([]EmployeeHoursRow, 0, len(r.EmployeeHours))
			for _, e := range r.EmployeeHours {
				hours = append(hours, EmployeeHoursRow{RunID: r.RunID, EmployeeID: e.EmployeeID, Trips: e.Trips, Hours: e.Hours})
			}
			if err := tx.Create(&hours).Error; err != nil {
				return fmt.Errorf("inserting employee hours: %w", err)
			}
		}
		return nil
	})
}

// Runs lists the stored runs, oldest first.
func (s *SQLiteSink) Runs(ctx context.Context) ([]RunRow, error) {
	var runs []RunRow
	if err := s.db.WithContext(ctx).Order("id").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Close releases the database handle.
func (s *SQLiteSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func fetchTaskRows(r *sim.Result) []FetchTaskRow {
	rows := make([]FetchTaskRow, 0, len(r.Trace.FetchTasks))
	for _, ft := range r.Trace.FetchTasks {
		rows = append(rows, FetchTaskRow{
			RunID:       r.RunID,
			Time:        ft.Time,
			EmployeeID:  ft.EmployeeID,
			ToolID:      ft.ToolID,
			ToolType:    ft.ToolType,
			TaskSeconds: ft.TaskSeconds,
			ItemCount:   ft.ItemCount,
			AisleCount:  ft.AisleCount,
		})
	}
	return rows
}

// nullableID maps a missing identifier to NULL.
func nullableID(id int) *int {
	if id < 0 {
		return nil
	}
	return &id
}

func eventRows(r *sim.Result) []EventRow {
	rows := make([]EventRow, 0, len(r.Trace.Events))
	for _, ev := range r.Trace.Events {
		rows = append(rows, EventRow{
			RunID:        r.RunID,
			Time:         ev.Time,
			Kind:         ev.Kind,
			EmployeeID:   nullableID(ev.EmployeeID),
			ToolID:       nullableID(ev.ToolID),
			ToolType:     ev.ToolType,
			ShipmentItem: nullableID(ev.ShipmentItem),
			OrderID:      nullableID(ev.OrderID),
			OrderItem:    nullableID(ev.OrderItem),
			Stale:        ev.Stale,
		})
	}
	return rows
}
