package model

// Schedule is the result of one scheduling run. Control holds the thermal
// output assigned to each interval, Cost the per-interval electrical cost
// control[h]*price[h]/cop[h]. Converged reports whether a feasible schedule
// satisfying the load and storage constraints was found; when false the
// schedule is the best-effort fallback and the load cannot be fully met
// within the device and storage bounds.
type Schedule struct {
	Control   []float64 `json:"control"`
	Cost      []float64 `json:"cost"`
	Converged bool      `json:"converged"`
}

// NewSchedule computes the cost vector for a control sequence.
func NewSchedule(control []float64, p Parameters, converged bool) Schedule {
	cost := make([]float64, p.N)
	for h := 0; h < p.N; h++ {
		cost[h] = control[h] * p.Price[h] / p.COP[h]
	}
	return Schedule{Control: control, Cost: cost, Converged: converged}
}

// TotalCost sums the per-interval electrical cost.
func (s Schedule) TotalCost() float64 {
	var total float64
	for _, c := range s.Cost {
		total += c
	}
	return total
}

// TotalOutput sums the thermal output over the horizon.
func (s Schedule) TotalOutput() float64 {
	var total float64
	for _, c := range s.Control {
		total += c
	}
	return total
}
