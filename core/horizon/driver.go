// Package horizon implements the receding-horizon control loop: every step
// the scheduler runs over the current forecast window, only the first
// interval's decision is applied to the device, and the rest of the schedule
// is discarded before the next re-plan.
package horizon

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gridshift/hpwhctl/core/cta2045"
	"github.com/gridshift/hpwhctl/core/logger"
	"github.com/gridshift/hpwhctl/core/metrics"
	"github.com/gridshift/hpwhctl/core/model"
	"github.com/gridshift/hpwhctl/core/planner"
)

// Publisher applies the first interval's command to the physical device.
type Publisher interface {
	PublishCommand(ctx context.Context, planID string, step int, cmd cta2045.Command) error
}

// Driver re-plans on every forecast window and applies only control[0].
type Driver struct {
	Planner   planner.Planner
	Algorithm string
	Publisher Publisher
	Sink      metrics.Sink
	Log       logger.Logger
}

// Step plans one forecast window, publishes the first interval's CTA-2045
// command and records the run. The full schedule is returned for
// diagnostics; callers must not apply intervals beyond the first.
func (d *Driver) Step(ctx context.Context, p model.Parameters) (model.Schedule, error) {
	planID := uuid.NewString()
	start := time.Now()
	sched, err := d.Planner.Plan(p)
	if err != nil {
		return model.Schedule{}, fmt.Errorf("plan %s: %w", planID, err)
	}
	solveTime := time.Since(start)

	if !sched.Converged {
		d.Log.Warnf("plan %s did not converge: load exceeds capacity, applying best-effort schedule", planID)
	}

	cmds := cta2045.FromSchedule(sched, p)
	if err := d.Publisher.PublishCommand(ctx, planID, 0, cmds[0]); err != nil {
		return sched, fmt.Errorf("publish command: %w", err)
	}

	if d.Sink != nil {
		res := metrics.PlanResult{
			PlanID:    planID,
			Algorithm: d.Algorithm,
			Converged: sched.Converged,
			TotalCost: sched.TotalCost(),
			SolveTime: solveTime,
			Horizon:   p.N,
			PlannedAt: start.UTC(),
		}
		if err := d.Sink.RecordPlan(res); err != nil {
			d.Log.Errorf("record plan %s: %v", planID, err)
		}
	}

	d.Log.Debugw("plan applied", map[string]any{
		"plan_id":    planID,
		"algorithm":  d.Algorithm,
		"converged":  sched.Converged,
		"total_cost": sched.TotalCost(),
		"command":    cmds[0].String(),
	})
	return sched, nil
}

// Run consumes forecast windows until the channel closes or the context is
// cancelled. Planning errors are logged and the loop continues with the next
// window.
func (d *Driver) Run(ctx context.Context, windows <-chan model.Parameters) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case p, ok := <-windows:
			if !ok {
				return nil
			}
			if _, err := d.Step(ctx, p); err != nil {
				d.Log.Errorf("step: %v", err)
			}
		}
	}
}
