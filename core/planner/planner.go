package planner

import (
	"fmt"

	"github.com/gridshift/hpwhctl/core/model"
)

// Planner computes a schedule for one set of parameters. Implementations are
// stateless across calls; a run owns its working arrays exclusively, so
// separate calls may proceed concurrently.
//
// An infeasible problem is not an error: the returned schedule is the
// max-input fallback with Converged=false. A non-nil error is reserved for
// rejected parameters and solver malfunction.
type Planner interface {
	Plan(p model.Parameters) (model.Schedule, error)
}

// SolverError reports an LP backend failure that is distinct from a proven
// infeasibility, e.g. numerical breakdown or an exhausted iteration limit
// without a definitive status.
type SolverError struct {
	Err error
}

func (e *SolverError) Error() string { return fmt.Sprintf("lp solver: %v", e.Err) }

func (e *SolverError) Unwrap() error { return e.Err }

// maxInputFallback builds the shared best-effort schedule used when no
// feasible schedule exists: every interval at MaxInput, clipped so the
// storage never overflows. The trace may still fall below MinStorage, which
// is exactly what signals infeasibility to the caller.
func maxInputFallback(p model.Parameters) model.Schedule {
	return model.NewSchedule(clipOverflow(p.MaxInput, p), p, false)
}
