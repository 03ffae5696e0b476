package planner

import (
	"math"
	"math/rand"
	"sort"

	"github.com/gridshift/hpwhctl/core/model"
)

// DefaultSeed is the tie-break seed used by NewHeuristicPlanner.
const DefaultSeed = 1

// HeuristicPlanner computes a near-optimal schedule by greedy rank-and-assign
// with look-ahead:
//
//  1. rank intervals cheapest first
//  2. find the earliest interval whose load is not yet satisfied
//  3. boost the cheapest eligible interval at or before it toward MaxInput
//  4. clip the boost so the storage never overflows
//  5. if the boost satisfies load past a strictly cheaper upcoming interval,
//     shrink it to the minimum that reaches that interval, preserving
//     headroom for the cheaper interval instead
//  6. repeat until every interval is satisfied or the iteration budget runs
//     out, then fall back to the clipped max-input schedule
//
// Worst case O(n^2): each of up to 3n refinement rounds rescans the ranking.
type HeuristicPlanner struct {
	// Seed drives the perturbation that breaks price ties in the ranking.
	// Two runs with identical parameters and seed produce identical output.
	Seed int64
	// MaxIterFactor bounds refinement rounds at MaxIterFactor*N.
	// Zero selects 3.
	MaxIterFactor int
}

// NewHeuristicPlanner returns a heuristic planner with the default seed and
// iteration budget.
func NewHeuristicPlanner() *HeuristicPlanner {
	return &HeuristicPlanner{Seed: DefaultSeed, MaxIterFactor: 3}
}

// Plan implements Planner. The returned error is non-nil only for rejected
// parameters; an unmeetable load yields the fallback schedule with
// Converged=false.
func (pl *HeuristicPlanner) Plan(p model.Parameters) (model.Schedule, error) {
	if err := p.Validate(); err != nil {
		return model.Schedule{}, err
	}
	p = p.Clone()

	factor := pl.MaxIterFactor
	if factor <= 0 {
		factor = 3
	}
	maxIters := factor * p.N

	// Baseline: floor every interval at MinInput, clipped against overflow.
	control := clipOverflow(p.MinInput, p)

	// Effective per-interval cap; shrinks when an overflow clip proves a
	// level unreachable, so later rounds do not re-inflate it.
	effMax := append([]float64(nil), p.MaxInput...)

	rank := rankByPrice(p.Price, pl.Seed)

	for iter := 0; iter < maxIters; iter++ {
		target := firstUnsatisfied(control, p)
		if target < 0 {
			if verify(control, p, feasTol) {
				return model.NewSchedule(control, p, true), nil
			}
			// Satisfied but outside bounds: MinInput itself overfills the
			// storage, so no feasible schedule exists.
			return maxInputFallback(p), nil
		}

		boosted := false
		for _, hour := range rank {
			// Pre-heating only: intervals after the unsatisfied one cannot
			// help it.
			if hour > target {
				continue
			}
			if control[hour] >= effMax[hour]-feasTol {
				continue
			}

			backup := control[hour]
			control[hour] = effMax[hour]

			if !applyStorageCap(control, effMax, backup, hour, p) {
				continue
			}

			newTarget := firstUnsatisfied(control, p)
			if newTarget != -1 && newTarget > target {
				applyCheaperHours(control, effMax, backup, hour, target, newTarget, p)
				newTarget = firstUnsatisfied(control, p)
			}

			boosted = true
			if newTarget == -1 || newTarget != target {
				break
			}
		}

		if !boosted {
			// No eligible interval can absorb more output: the load exceeds
			// what the device and storage bounds allow.
			return maxInputFallback(p), nil
		}
	}

	return maxInputFallback(p), nil
}

// rankByPrice returns interval indices ordered cheapest first. Equal prices
// are separated by a small seeded perturbation so the order is a strict,
// reproducible total order.
func rankByPrice(prices []float64, seed int64) []int {
	keys := append([]float64(nil), prices...)
	rng := rand.New(rand.NewSource(seed))
	seen := make(map[float64]bool, len(keys))
	for i, v := range keys {
		for seen[v] {
			v += (rng.Float64() - 0.5) * 1e-6
		}
		seen[v] = true
		keys[i] = v
	}
	idx := make([]int, len(prices))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		if keys[idx[a]] == keys[idx[b]] {
			return idx[a] < idx[b]
		}
		return keys[idx[a]] < keys[idx[b]]
	})
	return idx
}

// applyStorageCap reduces control[hour] by the worst storage excess the
// tentative boost would cause. When even the reduced level is no better than
// the pre-boost value the boost is reverted and false is returned. A clip
// also lowers effMax[hour] so later rounds do not re-inflate the interval.
func applyStorageCap(control, effMax []float64, backup float64, hour int, p model.Parameters) bool {
	var overflow float64
	for _, s := range SimulateSOC(control, p) {
		if excess := s - p.MaxStorage; excess > overflow {
			overflow = excess
		}
	}
	if overflow <= feasTol {
		return true
	}
	reduced := control[hour] - overflow
	if reduced > backup+feasTol && reduced >= p.MinInput[hour] {
		control[hour] = reduced
		effMax[hour] = reduced
		return true
	}
	control[hour] = backup
	return false
}

// applyCheaperHours shrinks control[hour] when the boost satisfied load past
// a strictly cheaper interval inside (target, newTarget]. The new level is
// the smallest one that keeps every interval before the cheaper one
// satisfied while the cheaper interval can still cover its own load at full
// output, leaving as much storage headroom as possible for it.
func applyCheaperHours(control, effMax []float64, backup float64, hour, target, newTarget int, p model.Parameters) {
	cheaper := -1
	for w := target; w <= newTarget && w < p.N; w++ {
		if p.Price[w] < p.Price[hour] {
			cheaper = w
			break
		}
	}
	if cheaper < 0 {
		return
	}

	viable := func(c float64) bool {
		prev := control[hour]
		control[hour] = c
		fu := firstUnsatisfied(control, p)
		soc := SimulateSOC(control, p)[cheaper]
		control[hour] = prev
		if fu != -1 && fu < cheaper {
			return false
		}
		return soc+p.MaxInput[cheaper]+feasTol >= p.Load[cheaper]+p.MinStorage
	}

	lo := math.Max(backup, p.MinInput[hour])
	hi := control[hour]
	if lo >= hi || !viable(hi) {
		return
	}
	if viable(lo) {
		control[hour] = lo
		return
	}
	for i := 0; i < 60; i++ {
		mid := (lo + hi) / 2
		if viable(mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	control[hour] = math.Ceil(hi*1e9) / 1e9
	if control[hour] > effMax[hour] {
		control[hour] = effMax[hour]
	}
}
