package config

import (
	"fmt"

	"github.com/gridshift/hpwhctl/core/planner"
)

// PlannerConfig selects and tunes the scheduling engine.
type PlannerConfig struct {
	// Algorithm is "lp" or "heuristic".
	Algorithm string `json:"algorithm"`
	// Seed drives the heuristic's price tie-break perturbation.
	Seed int64 `json:"seed"`
	// MaxIterFactor bounds heuristic refinement rounds at factor*horizon.
	MaxIterFactor int `json:"max_iter_factor"`
}

// SetDefaults applies sane defaults.
func (c *PlannerConfig) SetDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = "lp"
	}
	if c.Seed == 0 {
		c.Seed = planner.DefaultSeed
	}
	if c.MaxIterFactor <= 0 {
		c.MaxIterFactor = 3
	}
}

// Validate checks the algorithm name.
func (c PlannerConfig) Validate() error {
	if c.Algorithm != "lp" && c.Algorithm != "heuristic" {
		return fmt.Errorf("unknown planner algorithm %q", c.Algorithm)
	}
	return nil
}

// Build constructs the configured planner.
func (c PlannerConfig) Build() planner.Planner {
	if c.Algorithm == "heuristic" {
		return &planner.HeuristicPlanner{Seed: c.Seed, MaxIterFactor: c.MaxIterFactor}
	}
	return planner.NewLPPlanner()
}
