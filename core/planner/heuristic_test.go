package planner

import (
	"math"
	"reflect"
	"testing"
)

func TestHeuristicPlanner_OptimalScenario(t *testing.T) {
	p := testParams(t, []float64{0.10, 0.30, 0.05, 0.20}, []float64{1, 1, 1, 1}, 1, 0, 4, 0, 2)

	sched, err := NewHeuristicPlanner().Plan(p)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !sched.Converged {
		t.Fatalf("expected convergence")
	}
	want := []float64{1, 0, 2, 0}
	for h := range want {
		if math.Abs(sched.Control[h]-want[h]) > 1e-6 {
			t.Errorf("control[%d] = %v, want %v", h, sched.Control[h], want[h])
		}
	}
	if math.Abs(sched.TotalCost()-0.20) > 1e-6 {
		t.Errorf("total cost = %v, want 0.20", sched.TotalCost())
	}
	soc := SimulateSOC(sched.Control, p)
	wantSOC := []float64{1, 1, 0, 1, 0}
	for i := range wantSOC {
		if math.Abs(soc[i]-wantSOC[i]) > 1e-6 {
			t.Errorf("soc[%d] = %v, want %v", i, soc[i], wantSOC[i])
		}
	}
}

func TestHeuristicPlanner_Determinism(t *testing.T) {
	// Equal prices exercise the seeded tie-break.
	p := testParams(t, []float64{0.1, 0.1, 0.1, 0.1}, []float64{1, 1, 1, 1}, 0, 0, 4, 0, 2)

	pl := &HeuristicPlanner{Seed: 42}
	a, err := pl.Plan(p)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	b, err := pl.Plan(p)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same parameters and seed produced different schedules:\n%v\n%v", a, b)
	}
}

func TestHeuristicPlanner_Infeasible(t *testing.T) {
	// Total load 6 exceeds initial SOC 1 plus total max input 4.
	p := testParams(t, []float64{0.1, 0.1}, []float64{3, 3}, 1, 0, 4, 0, 2)

	sched, err := NewHeuristicPlanner().Plan(p)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if sched.Converged {
		t.Fatalf("expected no convergence")
	}
	// Fallback runs the device flat out, clipped against overflow.
	for h, c := range sched.Control {
		if math.Abs(c-p.MaxInput[h]) > 1e-6 {
			t.Errorf("fallback control[%d] = %v, want %v", h, c, p.MaxInput[h])
		}
	}
	for _, s := range SimulateSOC(sched.Control, p) {
		if s > p.MaxStorage+1e-9 {
			t.Errorf("fallback overflows storage: %v", s)
		}
	}
}

func TestHeuristicPlanner_BoundsWhenConverged(t *testing.T) {
	cases := []struct {
		name  string
		price []float64
		load  []float64
		soc0  float64
		minIn float64
		maxIn float64
	}{
		{"flat", []float64{0.2, 0.2, 0.2}, []float64{1, 1, 1}, 0, 0, 2},
		{"valley", []float64{0.3, 0.1, 0.3, 0.1}, []float64{1, 1, 1, 1}, 1, 0, 3},
		{"floor", []float64{0.2, 0.1, 0.3}, []float64{1, 1, 1}, 0, 0.5, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := testParams(t, tc.price, tc.load, tc.soc0, 0, 5, tc.minIn, tc.maxIn)
			sched, err := NewHeuristicPlanner().Plan(p)
			if err != nil {
				t.Fatalf("plan: %v", err)
			}
			if !sched.Converged {
				t.Fatalf("expected convergence")
			}
			for h := 0; h < p.N; h++ {
				if sched.Control[h] < p.MinInput[h]-1e-9 || sched.Control[h] > p.MaxInput[h]+1e-9 {
					t.Errorf("control[%d] = %v outside [%v, %v]", h, sched.Control[h], p.MinInput[h], p.MaxInput[h])
				}
				want := sched.Control[h] * p.Price[h] / p.COP[h]
				if sched.Cost[h] != want {
					t.Errorf("cost[%d] = %v, want %v", h, sched.Cost[h], want)
				}
			}
			for _, s := range SimulateSOC(sched.Control, p) {
				if s < p.MinStorage-1e-9 || s > p.MaxStorage+1e-9 {
					t.Errorf("soc %v outside [%v, %v]", s, p.MinStorage, p.MaxStorage)
				}
			}
		})
	}
}

func TestHeuristicPlanner_InitialSOCCoversLoad(t *testing.T) {
	p := testParams(t, []float64{0.5, 0.5}, []float64{1, 1}, 3, 0, 4, 0, 2)
	sched, err := NewHeuristicPlanner().Plan(p)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !sched.Converged {
		t.Fatalf("expected convergence")
	}
	if sched.TotalOutput() != 0 {
		t.Fatalf("no charging needed, got control %v", sched.Control)
	}
}

func TestHeuristicPlanner_RejectsInvalidParams(t *testing.T) {
	p := testParams(t, []float64{0.1, 0.2}, []float64{1, 1}, 0, 0, 4, 0, 2)
	p.Load = []float64{1} // length mismatch

	if _, err := NewHeuristicPlanner().Plan(p); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestRankByPrice(t *testing.T) {
	rank := rankByPrice([]float64{0.3, 0.1, 0.2}, DefaultSeed)
	want := []int{1, 2, 0}
	if !reflect.DeepEqual(rank, want) {
		t.Fatalf("rank = %v, want %v", rank, want)
	}
}

func TestRankByPrice_TiesAreStable(t *testing.T) {
	prices := []float64{0.1, 0.1, 0.1}
	a := rankByPrice(prices, 7)
	b := rankByPrice(prices, 7)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different orders: %v vs %v", a, b)
	}
	// Each index appears exactly once.
	seen := make(map[int]bool)
	for _, i := range a {
		seen[i] = true
	}
	if len(seen) != len(prices) {
		t.Fatalf("rank is not a permutation: %v", a)
	}
}
