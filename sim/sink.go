package sim

import "context"

// Sink persists the result of a run. Implementations live in sim/output.
type Sink interface {
	WriteResult(ctx context.Context, r *Result) error
}
