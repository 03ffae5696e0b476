package model

import (
	"encoding/json"
	"fmt"
)

// Parameters describes one scheduling run over a fixed horizon. All slices
// have length N; per-interval device bounds may be supplied as scalars and
// broadcast with NewParameters. A Parameters value is never mutated by the
// planners.
type Parameters struct {
	N          int       `json:"n"`
	Price      []float64 `json:"price"`
	Load       []float64 `json:"load"`
	COP        []float64 `json:"cop"`
	InitialSOC float64   `json:"initial_soc"`
	MinStorage float64   `json:"min_storage_capacity"`
	MaxStorage float64   `json:"max_storage_capacity"`
	MinInput   []float64 `json:"min_input"`
	MaxInput   []float64 `json:"max_input"`
}

// Bound is a device bound that may be given either as a single scalar or as
// one value per interval. It is normalised to a full-length slice before any
// planner sees it.
type Bound struct {
	values []float64
	scalar float64
	isList bool
}

// ScalarBound returns a Bound holding a single broadcastable value.
func ScalarBound(v float64) Bound { return Bound{scalar: v} }

// ListBound returns a Bound holding one value per interval.
func ListBound(vs []float64) Bound { return Bound{values: vs, isList: true} }

// Slice expands the bound to a slice of length n.
func (b Bound) Slice(n int) []float64 {
	if b.isList {
		out := make([]float64, len(b.values))
		copy(out, b.values)
		return out
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = b.scalar
	}
	return out
}

// UnmarshalJSON accepts either a JSON number or a JSON array of numbers.
func (b *Bound) UnmarshalJSON(data []byte) error {
	var list []float64
	if err := json.Unmarshal(data, &list); err == nil {
		*b = ListBound(list)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("bound must be a number or an array of numbers: %w", err)
	}
	*b = ScalarBound(v)
	return nil
}

// MarshalJSON emits the scalar form when the bound was scalar.
func (b Bound) MarshalJSON() ([]byte, error) {
	if b.isList {
		return json.Marshal(b.values)
	}
	return json.Marshal(b.scalar)
}

// NewParameters assembles a Parameters value, broadcasting scalar device
// bounds over the horizon and validating the result.
func NewParameters(price, load, cop []float64, initialSOC, minStorage, maxStorage float64, minInput, maxInput Bound) (Parameters, error) {
	n := len(price)
	p := Parameters{
		N:          n,
		Price:      price,
		Load:       load,
		COP:        cop,
		InitialSOC: initialSOC,
		MinStorage: minStorage,
		MaxStorage: maxStorage,
		MinInput:   minInput.Slice(n),
		MaxInput:   maxInput.Slice(n),
	}
	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

// Validate rejects structurally invalid parameters before scheduling starts.
// Infeasible but well-formed parameters pass validation; the planners handle
// those via the fallback policy instead.
func (p Parameters) Validate() error {
	if p.N <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", p.N)
	}
	for name, s := range map[string][]float64{
		"price":     p.Price,
		"load":      p.Load,
		"cop":       p.COP,
		"min_input": p.MinInput,
		"max_input": p.MaxInput,
	} {
		if len(s) != p.N {
			return fmt.Errorf("%s length %d does not match horizon %d", name, len(s), p.N)
		}
	}
	for h := 0; h < p.N; h++ {
		if p.Price[h] < 0 {
			return fmt.Errorf("price[%d] must be non-negative, got %v", h, p.Price[h])
		}
		if p.Load[h] < 0 {
			return fmt.Errorf("load[%d] must be non-negative, got %v", h, p.Load[h])
		}
		if p.COP[h] <= 0 {
			return fmt.Errorf("cop[%d] must be positive, got %v", h, p.COP[h])
		}
		if p.MinInput[h] < 0 {
			return fmt.Errorf("min_input[%d] must be non-negative, got %v", h, p.MinInput[h])
		}
		if p.MinInput[h] > p.MaxInput[h] {
			return fmt.Errorf("min_input[%d]=%v exceeds max_input[%d]=%v", h, p.MinInput[h], h, p.MaxInput[h])
		}
	}
	if p.MinStorage > p.MaxStorage {
		return fmt.Errorf("min_storage_capacity %v exceeds max_storage_capacity %v", p.MinStorage, p.MaxStorage)
	}
	return nil
}

// Clone returns a deep copy so a planner can own its working arrays.
func (p Parameters) Clone() Parameters {
	cp := p
	cp.Price = append([]float64(nil), p.Price...)
	cp.Load = append([]float64(nil), p.Load...)
	cp.COP = append([]float64(nil), p.COP...)
	cp.MinInput = append([]float64(nil), p.MinInput...)
	cp.MaxInput = append([]float64(nil), p.MaxInput...)
	return cp
}
