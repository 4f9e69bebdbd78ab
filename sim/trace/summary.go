package trace

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalFetchTasks  int
	TotalEvents      int
	StaleEvents      int
	MeanTaskSeconds  float64
	StdTaskSeconds   float64 // sample standard deviation; 0 with fewer than two trips
	P50TaskSeconds   float64
	P95TaskSeconds   float64
	MaxTaskSeconds   float64
	MeanItemsPerTask float64
	TasksPerEmployee map[int]int    // employee ID → number of trips
	EventsByKind     map[string]int // event kind → count
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TasksPerEmployee: make(map[int]int),
		EventsByKind:     make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	for _, e := range st.Events {
		summary.EventsByKind[e.Kind]++
		if e.Stale {
			summary.StaleEvents++
		}
	}

	summary.TotalFetchTasks = len(st.FetchTasks)
	if len(st.FetchTasks) == 0 {
		return summary
	}
	durations := make([]float64, len(st.FetchTasks))
	items := make([]float64, len(st.FetchTasks))
	for i, ft := range st.FetchTasks {
		durations[i] = ft.TaskSeconds
		items[i] = float64(ft.ItemCount)
		summary.TasksPerEmployee[ft.EmployeeID]++
	}
	sort.Float64s(durations)

	summary.MeanTaskSeconds = stat.Mean(durations, nil)
	if len(durations) > 1 {
		summary.StdTaskSeconds = stat.StdDev(durations, nil)
	}
	summary.P50TaskSeconds = stat.Quantile(0.5, stat.Empirical, durations, nil)
	summary.P95TaskSeconds = stat.Quantile(0.95, stat.Empirical, durations, nil)
	summary.MaxTaskSeconds = durations[len(durations)-1]
	summary.MeanItemsPerTask = stat.Mean(items, nil)

	return summary
}
