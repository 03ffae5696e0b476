// Package forecast feeds price and thermal-load forecasts from external
// sources into the scheduling driver.
package forecast

import (
	"fmt"
	"time"

	"github.com/gridshift/hpwhctl/core/model"
)

// Forecast is the payload produced by the forecasting layer: one price,
// load and optional COP value per interval over the planning horizon.
type Forecast struct {
	StartTime       time.Time `json:"start_time"`
	IntervalMinutes int       `json:"interval_minutes"`
	Prices          []float64 `json:"prices"`
	Loads           []float64 `json:"loads"`
	COPs            []float64 `json:"cops,omitempty"`
}

// Device describes the heat pump and tank the forecast is planned against.
type Device struct {
	InitialSOC float64
	MinStorage float64
	MaxStorage float64
	MinInput   model.Bound
	MaxInput   model.Bound
	// DefaultCOP is broadcast when the forecast carries no COP series.
	DefaultCOP float64
}

// Validate checks that the forecast payload is well formed.
func (f Forecast) Validate() error {
	if f.StartTime.IsZero() {
		return fmt.Errorf("start_time required")
	}
	if f.IntervalMinutes <= 0 {
		return fmt.Errorf("interval_minutes must be positive")
	}
	if len(f.Prices) == 0 {
		return fmt.Errorf("prices must not be empty")
	}
	if len(f.Loads) != len(f.Prices) {
		return fmt.Errorf("loads length %d does not match prices length %d", len(f.Loads), len(f.Prices))
	}
	if len(f.COPs) != 0 && len(f.COPs) != len(f.Prices) {
		return fmt.Errorf("cops length %d does not match prices length %d", len(f.COPs), len(f.Prices))
	}
	return nil
}

// Parameters converts the forecast into schedule parameters for the given
// device, broadcasting scalar bounds and the default COP over the horizon.
func (f Forecast) Parameters(dev Device) (model.Parameters, error) {
	if err := f.Validate(); err != nil {
		return model.Parameters{}, err
	}
	cops := f.COPs
	if len(cops) == 0 {
		cop := dev.DefaultCOP
		if cop == 0 {
			cop = 1
		}
		cops = make([]float64, len(f.Prices))
		for i := range cops {
			cops[i] = cop
		}
	}
	return model.NewParameters(
		append([]float64(nil), f.Prices...),
		append([]float64(nil), f.Loads...),
		append([]float64(nil), cops...),
		dev.InitialSOC, dev.MinStorage, dev.MaxStorage,
		dev.MinInput, dev.MaxInput,
	)
}
