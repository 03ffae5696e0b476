// Package cta2045 maps heat pump schedules and price forecasts onto the four
// CTA-2045-B Level 2 demand response commands for water heaters.
package cta2045

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/gridshift/hpwhctl/core/model"
)

// Command is a CTA-2045-B Level 2 water heater command code.
type Command int

const (
	// Shed lowers the setpoint and disables the heat pump, coasting on
	// stored energy.
	Shed Command = -1
	// Normal is default operation.
	Normal Command = 0
	// LoadUp raises the setpoint to prepare for a future shed.
	LoadUp Command = 1
	// AdvancedLoadUp heats the tank aggressively at the maximum setpoint.
	AdvancedLoadUp Command = 2
)

// String returns the human-readable command name.
func (c Command) String() string {
	switch c {
	case Shed:
		return "Shed"
	case Normal:
		return "Normal"
	case LoadUp:
		return "Load Up"
	case AdvancedLoadUp:
		return "Advanced Load Up"
	default:
		return "unknown"
	}
}

// FromSchedule converts a planner schedule into one command per interval
// based on the output fraction relative to the device maximum: zero output
// sheds, under 30% is normal, 30-80% loads up and 80% or more loads up
// aggressively. An interval with a zero device maximum stays normal.
func FromSchedule(s model.Schedule, p model.Parameters) []Command {
	cmds := make([]Command, p.N)
	for h := 0; h < p.N; h++ {
		max := p.MaxInput[h]
		out := s.Control[h]
		switch {
		case max == 0:
			cmds[h] = Normal
		case out == 0:
			cmds[h] = Shed
		case out/max < 0.3:
			cmds[h] = Normal
		case out/max < 0.8:
			cmds[h] = LoadUp
		default:
			cmds[h] = AdvancedLoadUp
		}
	}
	return cmds
}

// Thresholds holds the percentile cut points for the price-based mapping.
type Thresholds struct {
	ShedAbove   float64 `json:"shed_above"`
	NormalAbove float64 `json:"normal_above"`
	LoadUpAbove float64 `json:"load_up_above"`
}

// DefaultThresholds sheds above the 75th percentile, runs normally between
// the 50th and 75th, loads up between the 25th and 50th and loads up
// aggressively below the 25th.
func DefaultThresholds() Thresholds {
	return Thresholds{ShedAbove: 75, NormalAbove: 50, LoadUpAbove: 25}
}

// PriceCuts are the resolved price levels behind a percentile classification.
type PriceCuts struct {
	Shed   float64 `json:"shed_above"`
	Normal float64 `json:"normal_above"`
	LoadUp float64 `json:"load_up_above"`
}

// FromPrices classifies each interval directly from the raw price forecast,
// bypassing the scheduler entirely. It returns the commands together with
// the price levels the percentiles resolved to.
func FromPrices(prices []float64, th Thresholds) ([]Command, PriceCuts, error) {
	if len(prices) == 0 {
		return nil, PriceCuts{}, fmt.Errorf("prices must not be empty")
	}
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	cuts := PriceCuts{
		Shed:   stat.Quantile(th.ShedAbove/100, stat.LinInterp, sorted, nil),
		Normal: stat.Quantile(th.NormalAbove/100, stat.LinInterp, sorted, nil),
		LoadUp: stat.Quantile(th.LoadUpAbove/100, stat.LinInterp, sorted, nil),
	}
	cmds := make([]Command, len(prices))
	for i, price := range prices {
		switch {
		case price >= cuts.Shed:
			cmds[i] = Shed
		case price >= cuts.Normal:
			cmds[i] = Normal
		case price >= cuts.LoadUp:
			cmds[i] = LoadUp
		default:
			cmds[i] = AdvancedLoadUp
		}
	}
	return cmds, cuts, nil
}

// FormatTable renders an hour-by-hour command table. The output slice may be
// nil when the commands came from the price-only mapping.
func FormatTable(cmds []Command, prices, output []float64) string {
	var b strings.Builder
	if output != nil {
		fmt.Fprintf(&b, "%4s  %4s  %-18s  %10s  %10s\n", "Hour", "Code", "Command", "Price", "HP Output")
		b.WriteString(strings.Repeat("-", 60) + "\n")
	} else {
		fmt.Fprintf(&b, "%4s  %4s  %-18s  %10s\n", "Hour", "Code", "Command", "Price")
		b.WriteString(strings.Repeat("-", 45) + "\n")
	}
	for h, cmd := range cmds {
		if output != nil {
			fmt.Fprintf(&b, "%4d  %4d  %-18s  $%9.5f  %8.2f kWh\n", h, int(cmd), cmd, prices[h], output[h])
		} else {
			fmt.Fprintf(&b, "%4d  %4d  %-18s  $%9.5f\n", h, int(cmd), cmd, prices[h])
		}
	}
	return b.String()
}
