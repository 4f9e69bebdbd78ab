package output

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/warehouse-sim/whsim/sim"
)

const namespace = "whsim"

// MetricsSink publishes a run's service-level measures on its own
// Prometheus registry and, when Path is set, writes them in the text
// exposition format for the node exporter's textfile collector.
type MetricsSink struct {
	Path string

	registry *prometheus.Registry

	runInfo        *prometheus.GaugeVec
	orders         *prometheus.CounterVec
	serviceRate    prometheus.Gauge
	waiting        prometheus.Gauge
	fetchQueue     prometheus.Gauge
	taskQueue      prometheus.Gauge
	abandonedUnits prometheus.Gauge
	unplacedUnits  prometheus.Gauge
	tripSeconds    prometheus.Histogram
	employeeHours  *prometheus.GaugeVec
	dailyOnTime    *prometheus.GaugeVec
}

// NewMetricsSink builds the registry and its collectors.
func NewMetricsSink(path string) *MetricsSink {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &MetricsSink{
		Path:     path,
		registry: reg,
		runInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_info",
			Help:      "Identity of the exported run; always 1",
		}, []string{"run_id", "seed", "final_date"}),
		orders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Orders by outcome: on_time, late, impossible or returned_for_restock",
		}, []string{"outcome"}),
		serviceRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_rate",
			Help:      "Share of completed orders delivered within the on-time limit",
		}),
		waiting: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orders_waiting_for_supply",
			Help:      "Orders still deferred for restock when the run ended",
		}),
		fetchQueue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fetch_queue_picks",
			Help:      "Picks never assigned to a trip",
		}),
		taskQueue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "task_queue_picks",
			Help:      "Picks on trips still in progress when the run ended",
		}),
		abandonedUnits: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "abandoned_units",
			Help:      "Units dropped from unfinished trips by the day reset",
		}),
		unplacedUnits: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unplaced_units",
			Help:      "Units the last put-away left in the sort area",
		}),
		tripSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_trip_seconds",
			Help:      "Planned duration of fetch trips",
			Buckets:   prometheus.ExponentialBuckets(15, 2, 10),
		}),
		employeeHours: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "employee_work_hours",
			Help:      "Hours of fetch trips logged per employee",
		}, []string{"employee"}),
		dailyOnTime: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_orders_on_time",
			Help:      "Orders completed on time per calendar date",
		}, []string{"date"}),
	}
}

// Registry exposes the sink's registry, e.g. for an HTTP handler.
func (m *MetricsSink) Registry() *prometheus.Registry { return m.registry }

// WriteResult records r and writes the textfile when Path is set. The
// collectors accumulate, so one sink should see one run.
func (m *MetricsSink) WriteResult(ctx context.Context, r *sim.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.runInfo.WithLabelValues(r.RunID, strconv.FormatInt(r.Seed, 10), r.FinalDate.Format(time.DateOnly)).Set(1)
	m.orders.WithLabelValues("on_time").Add(float64(r.OnTime))
	m.orders.WithLabelValues("late").Add(float64(r.Late))
	m.orders.WithLabelValues("impossible").Add(float64(r.Impossible))
	m.orders.WithLabelValues("returned_for_restock").Add(float64(r.ReturnedForRestock))
	m.serviceRate.Set(r.ServiceRate)
	m.waiting.Set(float64(len(r.WaitList)))
	m.fetchQueue.Set(float64(r.FetchQueueLen))
	m.taskQueue.Set(float64(r.TaskQueueLen))
	m.abandonedUnits.Set(float64(r.AbandonedUnits))
	m.unplacedUnits.Set(float64(r.UnplacedUnits))
	if r.Trace != nil {
		for _, ft := range r.Trace.FetchTasks {
			m.tripSeconds.Observe(ft.TaskSeconds)
		}
	}
	for _, e := range r.EmployeeHours {
		m.employeeHours.WithLabelValues(strconv.Itoa(e.EmployeeID)).Set(e.Hours)
	}
	for _, d := range r.DailyService {
		m.dailyOnTime.WithLabelValues(d.Date.Format(time.DateOnly)).Set(float64(d.OnTime))
	}

	if m.Path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.Path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
