// Package planner converts an electricity price forecast and a thermal load
// forecast into an hour-by-hour control schedule for a heat pump backed by
// thermal storage. Two interchangeable engines solve the same constrained
// problem: LPPlanner formulates it as a linear program, HeuristicPlanner
// assigns output greedily to the cheapest feasible hours. Both honour the
// same fallback contract when no feasible schedule exists.
package planner
