// Tracks service-level counters and the bookkeeping needed to account for
// every unit of stock.

package sim

import (
	"sort"
	"time"

	"github.com/warehouse-sim/whsim/sim/trace"
)

// Metrics aggregates order outcomes and stock flows for final reporting.
type Metrics struct {
	OnTime             int // orders completed within the on-time business-day limit
	Late               int // orders completed after it
	ReturnedForRestock int // orders deferred until a covering shipment lands
	Impossible         int // orders no shipment in the lookahead window could cover
	OrdersProcessed    int // OrderArrived events handled, re-checks included

	OnTimeToday int
	DailyOnTime map[time.Time]int // date -> on-time completions

	DeliveredUnits map[int]int // item -> units handed to customers
	ShippedUnits   map[int]int // item -> units received so far
	AbandonedUnits map[int]int // item -> units dropped from trips by the day reset
	UnplacedUnits  map[int]int // item -> units left in the sort area by the last put-away
}

// NewMetrics returns zeroed metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		DailyOnTime:    make(map[time.Time]int),
		DeliveredUnits: make(map[int]int),
		ShippedUnits:   make(map[int]int),
		AbandonedUnits: make(map[int]int),
		UnplacedUnits:  make(map[int]int),
	}
}

func (m *Metrics) recordOnTime(day time.Time) {
	m.OnTime++
	m.OnTimeToday++
	m.DailyOnTime[dateOf(day)]++
}

// ServiceRate is the share of completed orders delivered on time.
func (m *Metrics) ServiceRate() float64 {
	done := m.OnTime + m.Late
	if done == 0 {
		return 0
	}
	return float64(m.OnTime) / float64(done)
}

func sumUnits(m map[int]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

// DailyService is the on-time count of one calendar date.
type DailyService struct {
	Date   time.Time
	OnTime int
}

// EmployeeHours is the work logged by one employee.
type EmployeeHours struct {
	EmployeeID int
	Trips      int
	Hours      float64
}

// Result is everything a run hands to its sinks.
type Result struct {
	RunID     string
	Seed      int64
	FinalDate time.Time

	OnTime             int
	Late               int
	ReturnedForRestock int
	Impossible         int
	ServiceRate        float64

	WaitList       []int // order ids still awaiting restock, in deferral order
	FetchQueueLen  int
	TaskQueueLen   int
	AbandonedUnits int
	UnplacedUnits  int

	EmployeeHours []EmployeeHours
	DailyService  []DailyService

	Trace   *trace.SimulationTrace
	Summary *trace.TraceSummary
}

// dailyService lists every calendar date, then any other date an order
// completed on, in date order.
func (m *Metrics) dailyService(cal *Calendar) []DailyService {
	seen := make(map[time.Time]bool)
	var out []DailyService
	for _, d := range cal.Days() {
		seen[d.Date] = true
		out = append(out, DailyService{Date: d.Date, OnTime: m.DailyOnTime[d.Date]})
	}
	for d, n := range m.DailyOnTime {
		if !seen[d] {
			out = append(out, DailyService{Date: d, OnTime: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
