// Package output persists simulation results: CSV tables with a YAML
// header, a SQLite database and a Prometheus textfile.
package output

import (
	"context"
	"errors"

	"github.com/warehouse-sim/whsim/sim"
)

// MultiSink fans a result out to several sinks. Every sink is tried; the
// errors are joined.
type MultiSink []sim.Sink

// WriteResult writes r to each sink in order.
func (ms MultiSink) WriteResult(ctx context.Context, r *sim.Result) error {
	var errs []error
	for _, s := range ms {
		if err := s.WriteResult(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
