package trace

// TraceLevel controls the verbosity of operational tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelFetches captures fetch trips only.
	TraceLevelFetches TraceLevel = "fetches"
	// TraceLevelEvents captures fetch trips and every processed event.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelFetches: true,
	TraceLevelEvents:  true,
	"":                true, // empty defaults to events
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects operational records during a simulation run.
type SimulationTrace struct {
	Config     TraceConfig
	FetchTasks []FetchTaskRecord
	Events     []EventRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	if config.Level == "" {
		config.Level = TraceLevelEvents
	}
	return &SimulationTrace{
		Config:     config,
		FetchTasks: make([]FetchTaskRecord, 0),
		Events:     make([]EventRecord, 0),
	}
}

// RecordFetchTask appends a fetch trip record.
func (st *SimulationTrace) RecordFetchTask(record FetchTaskRecord) {
	if st.Config.Level == TraceLevelNone {
		return
	}
	st.FetchTasks = append(st.FetchTasks, record)
}

// RecordEvent appends a processed-event record.
func (st *SimulationTrace) RecordEvent(record EventRecord) {
	if st.Config.Level != TraceLevelEvents {
		return
	}
	st.Events = append(st.Events, record)
}
