package planner

import "github.com/gridshift/hpwhctl/core/model"

// feasTol absorbs floating point noise in feasibility comparisons.
const feasTol = 1e-9

// SimulateSOC forward-integrates the lossless storage energy balance for a
// control sequence. The returned trace has length N+1 with
// soc[0] = InitialSOC and soc[h+1] = soc[h] + control[h] - load[h]. Bounds
// are not enforced; callers inspect the trace to detect violations.
func SimulateSOC(control []float64, p model.Parameters) []float64 {
	soc := make([]float64, p.N+1)
	soc[0] = p.InitialSOC
	for h := 0; h < p.N; h++ {
		soc[h+1] = soc[h] + control[h] - p.Load[h]
	}
	return soc
}

// clipOverflow reduces each interval's output to the largest value that keeps
// the storage at or below MaxStorage, sweeping forward so earlier clips feed
// into later headroom. Negative outputs are clamped to zero. The input slice
// is not modified.
func clipOverflow(control []float64, p model.Parameters) []float64 {
	clipped := append([]float64(nil), control...)
	soc := p.InitialSOC
	for h := 0; h < p.N; h++ {
		headroom := p.MaxStorage - soc + p.Load[h]
		if clipped[h] > headroom {
			clipped[h] = headroom
		}
		if clipped[h] < 0 {
			clipped[h] = 0
		}
		soc += clipped[h] - p.Load[h]
	}
	return clipped
}

// firstUnsatisfied returns the earliest interval whose load cannot be served
// while keeping the storage reserve, or -1 when every interval is satisfied.
// The scan is sequential: an interval's surplus only carries forward once the
// interval itself is satisfied.
func firstUnsatisfied(control []float64, p model.Parameters) int {
	soc := p.InitialSOC
	for h := 0; h < p.N; h++ {
		if soc+control[h]+feasTol < p.Load[h]+p.MinStorage {
			return h
		}
		soc += control[h] - p.Load[h]
	}
	return -1
}

// verify reports whether a control sequence respects the device box bounds
// and keeps the SOC trace inside the storage bounds at every boundary, up to
// the given tolerance.
func verify(control []float64, p model.Parameters, tol float64) bool {
	for h := 0; h < p.N; h++ {
		if control[h] < p.MinInput[h]-tol || control[h] > p.MaxInput[h]+tol {
			return false
		}
	}
	for _, s := range SimulateSOC(control, p) {
		if s < p.MinStorage-tol || s > p.MaxStorage+tol {
			return false
		}
	}
	return true
}
