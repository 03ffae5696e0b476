package horizon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridshift/hpwhctl/core/cta2045"
	"github.com/gridshift/hpwhctl/core/metrics"
	"github.com/gridshift/hpwhctl/core/model"
	"github.com/gridshift/hpwhctl/core/planner"
	"github.com/gridshift/hpwhctl/infra/logger"
)

type stubPlanner struct {
	sched model.Schedule
	err   error
	calls int
}

func (s *stubPlanner) Plan(p model.Parameters) (model.Schedule, error) {
	s.calls++
	return s.sched, s.err
}

type capturePublisher struct {
	planIDs []string
	steps   []int
	cmds    []cta2045.Command
	err     error
}

func (c *capturePublisher) PublishCommand(_ context.Context, planID string, step int, cmd cta2045.Command) error {
	c.planIDs = append(c.planIDs, planID)
	c.steps = append(c.steps, step)
	c.cmds = append(c.cmds, cmd)
	return c.err
}

type captureSink struct {
	results []metrics.PlanResult
}

func (c *captureSink) RecordPlan(res metrics.PlanResult) error {
	c.results = append(c.results, res)
	return nil
}

func testWindow(t *testing.T) model.Parameters {
	t.Helper()
	p, err := model.NewParameters(
		[]float64{0.1, 0.2},
		[]float64{1, 1},
		[]float64{1, 1},
		0, 0, 4,
		model.ScalarBound(0), model.ScalarBound(2),
	)
	require.NoError(t, err)
	return p
}

func newDriver(pl planner.Planner, pub Publisher, sink metrics.Sink) *Driver {
	return &Driver{
		Planner:   pl,
		Algorithm: "heuristic",
		Publisher: pub,
		Sink:      sink,
		Log:       logger.NopLogger{},
	}
}

func TestDriverStep_PublishesFirstIntervalOnly(t *testing.T) {
	p := testWindow(t)
	pub := &capturePublisher{}
	sink := &captureSink{}
	sched := model.NewSchedule([]float64{2, 0}, p, true)
	d := newDriver(&stubPlanner{sched: sched}, pub, sink)

	got, err := d.Step(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, sched.Control, got.Control)

	// A single command, for step 0, derived from control[0]=max.
	require.Len(t, pub.cmds, 1)
	assert.Equal(t, 0, pub.steps[0])
	assert.Equal(t, cta2045.AdvancedLoadUp, pub.cmds[0])
	assert.NotEmpty(t, pub.planIDs[0])

	require.Len(t, sink.results, 1)
	res := sink.results[0]
	assert.Equal(t, pub.planIDs[0], res.PlanID)
	assert.Equal(t, "heuristic", res.Algorithm)
	assert.True(t, res.Converged)
	assert.Equal(t, 2, res.Horizon)
	assert.InDelta(t, sched.TotalCost(), res.TotalCost, 1e-12)
}

func TestDriverStep_PlannerErrorShortCircuits(t *testing.T) {
	p := testWindow(t)
	pub := &capturePublisher{}
	d := newDriver(&stubPlanner{err: errors.New("solver exploded")}, pub, nil)

	_, err := d.Step(context.Background(), p)
	require.Error(t, err)
	assert.Empty(t, pub.cmds)
}

func TestDriverStep_PublishErrorSurfaces(t *testing.T) {
	p := testWindow(t)
	pub := &capturePublisher{err: errors.New("broker gone")}
	sched := model.NewSchedule([]float64{0, 0}, p, false)
	d := newDriver(&stubPlanner{sched: sched}, pub, &captureSink{})

	_, err := d.Step(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish command")
}

func TestDriverStep_NilSink(t *testing.T) {
	p := testWindow(t)
	sched := model.NewSchedule([]float64{1, 1}, p, true)
	d := newDriver(&stubPlanner{sched: sched}, &capturePublisher{}, nil)

	_, err := d.Step(context.Background(), p)
	assert.NoError(t, err)
}

func TestDriverRun_ReplansPerWindow(t *testing.T) {
	p := testWindow(t)
	pl := &stubPlanner{sched: model.NewSchedule([]float64{1, 0}, p, true)}
	pub := &capturePublisher{}
	d := newDriver(pl, pub, nil)

	windows := make(chan model.Parameters, 3)
	windows <- p
	windows <- p
	windows <- p
	close(windows)

	require.NoError(t, d.Run(context.Background(), windows))
	assert.Equal(t, 3, pl.calls)
	assert.Len(t, pub.cmds, 3)
	// Every re-plan gets a fresh plan ID.
	assert.NotEqual(t, pub.planIDs[0], pub.planIDs[1])
}

func TestDriverRun_StopsOnCancel(t *testing.T) {
	d := newDriver(&stubPlanner{}, &capturePublisher{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	windows := make(chan model.Parameters)
	assert.NoError(t, d.Run(ctx, windows))
}

func TestDriverRun_KeepsGoingAfterStepError(t *testing.T) {
	p := testWindow(t)
	pl := &stubPlanner{err: errors.New("bad window")}
	d := newDriver(pl, &capturePublisher{}, nil)

	windows := make(chan model.Parameters, 2)
	windows <- p
	windows <- p
	close(windows)

	require.NoError(t, d.Run(context.Background(), windows))
	assert.Equal(t, 2, pl.calls)
}
