package planner

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/gridshift/hpwhctl/core/model"
)

// Solver abstracts the LP backend: minimise c·x subject to G·x <= h over
// free variables. It returns the optimal solution, lp.ErrInfeasible when the
// feasible region is provably empty, or any other error on malfunction. Any
// conforming engine can replace the default simplex implementation.
type Solver interface {
	Solve(c []float64, g mat.Matrix, h []float64) ([]float64, error)
}

// solveTol is the default simplex tolerance and the bound-verification
// tolerance applied to claimed optima.
const solveTol = 1e-7

// SimplexSolver solves the program with gonum's simplex after converting it
// to standard form.
type SimplexSolver struct {
	// Tol is the simplex tolerance; zero selects solveTol.
	Tol float64
}

// Solve implements Solver.
func (s SimplexSolver) Solve(c []float64, g mat.Matrix, h []float64) ([]float64, error) {
	tol := s.Tol
	if tol == 0 {
		tol = solveTol
	}
	cStd, aStd, bStd := lp.Convert(c, g, h, nil, nil)
	_, sol, err := lp.Simplex(cStd, aStd, bStd, tol, nil)
	if err != nil {
		return nil, err
	}
	// Convert splits each free variable into positive and negative parts.
	n := len(c)
	x := make([]float64, n)
	for i := range x {
		x[i] = sol[i] - sol[n+i]
	}
	return x, nil
}

// LPPlanner computes the exact minimum-cost schedule by linear programming.
//
// Decision variables e[h] are the thermal output per interval. The objective
// minimises sum e[h]*price[h]/cop[h]. Storage bounds are encoded as prefix
// sums so the running SOC never needs to be a variable: for every prefix
// length k,
//
//	sum_{h<k} e[h] <= MaxStorage - InitialSOC + sum_{h<k} load[h]
//	sum_{h<k} e[h] >= MinStorage - InitialSOC + sum_{h<k} load[h]
//
// Device box bounds become two further inequality rows per interval.
type LPPlanner struct {
	// Solver is the LP backend; nil selects SimplexSolver.
	Solver Solver
}

// NewLPPlanner returns an LP planner backed by gonum's simplex.
func NewLPPlanner() *LPPlanner {
	return &LPPlanner{Solver: SimplexSolver{}}
}

// Plan implements Planner. Proven infeasibility yields the max-input
// fallback with Converged=false and a nil error; any other solver failure is
// returned as a *SolverError.
func (pl *LPPlanner) Plan(p model.Parameters) (model.Schedule, error) {
	if err := p.Validate(); err != nil {
		return model.Schedule{}, err
	}
	p = p.Clone()
	solver := pl.Solver
	if solver == nil {
		solver = SimplexSolver{}
	}

	c := make([]float64, p.N)
	for h := 0; h < p.N; h++ {
		c[h] = p.Price[h] / p.COP[h]
	}

	g, h := buildConstraints(p)
	sol, err := solver.Solve(c, g, h)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return maxInputFallback(p), nil
		}
		return model.Schedule{}, &SolverError{Err: err}
	}

	control := make([]float64, p.N)
	for i, e := range sol {
		// Snap simplex noise back onto the box bounds.
		e = math.Round(e*1e9) / 1e9
		if e < p.MinInput[i] {
			e = p.MinInput[i]
		}
		if e > p.MaxInput[i] {
			e = p.MaxInput[i]
		}
		control[i] = e
	}
	// The simplex works at solveTol, so the SOC trace of a claimed optimum
	// may drift by that order across the horizon. A violation beyond it means
	// the backend returned garbage under an optimal status.
	if !verify(control, p, solveTol) {
		return model.Schedule{}, &SolverError{Err: fmt.Errorf("solution violates storage or device bounds")}
	}
	return model.NewSchedule(control, p, true), nil
}

// buildConstraints assembles the 4N inequality rows: the two prefix-sum
// storage bounds followed by the device box bounds.
func buildConstraints(p model.Parameters) (*mat.Dense, []float64) {
	n := p.N
	g := mat.NewDense(4*n, n, nil)
	h := make([]float64, 4*n)

	cumLoad := 0.0
	for k := 0; k < n; k++ {
		cumLoad += p.Load[k]
		for j := 0; j <= k; j++ {
			g.Set(k, j, 1)    // upper storage bound on prefix k+1
			g.Set(n+k, j, -1) // lower storage bound on prefix k+1
		}
		h[k] = p.MaxStorage - p.InitialSOC + cumLoad
		h[n+k] = p.InitialSOC - p.MinStorage - cumLoad
	}
	for i := 0; i < n; i++ {
		g.Set(2*n+i, i, 1)
		h[2*n+i] = p.MaxInput[i]
		g.Set(3*n+i, i, -1)
		h[3*n+i] = -p.MinInput[i]
	}
	return g, h
}
