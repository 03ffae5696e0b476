package config

import (
	"fmt"

	"github.com/gridshift/hpwhctl/core/model"
	"github.com/gridshift/hpwhctl/forecast"
)

// DeviceConfig describes the heat pump water heater under control.
type DeviceConfig struct {
	// InitialSOC is the stored thermal energy at the planning start [kWh].
	InitialSOC float64 `json:"initial_soc"`
	// MinStorage is the reserve the tank must keep at all times [kWh].
	MinStorage float64 `json:"min_storage_capacity"`
	// MaxStorage is the tank capacity [kWh].
	MaxStorage float64 `json:"max_storage_capacity"`
	// MinInput is the minimum thermal output per interval [kWh].
	MinInput float64 `json:"min_input"`
	// MaxInput is the maximum thermal output per interval [kWh].
	MaxInput float64 `json:"max_input"`
	// DefaultCOP is used when the forecast carries no COP series.
	DefaultCOP float64 `json:"default_cop"`
}

// Validate checks the device bounds.
func (c DeviceConfig) Validate() error {
	if c.MinStorage > c.MaxStorage {
		return fmt.Errorf("min_storage_capacity %v exceeds max_storage_capacity %v", c.MinStorage, c.MaxStorage)
	}
	if c.MinInput < 0 {
		return fmt.Errorf("min_input must be non-negative")
	}
	if c.MinInput > c.MaxInput {
		return fmt.Errorf("min_input %v exceeds max_input %v", c.MinInput, c.MaxInput)
	}
	if c.DefaultCOP < 0 {
		return fmt.Errorf("default_cop must be non-negative")
	}
	return nil
}

// Spec converts the configuration into the forecast package's device form.
func (c DeviceConfig) Spec() forecast.Device {
	return forecast.Device{
		InitialSOC: c.InitialSOC,
		MinStorage: c.MinStorage,
		MaxStorage: c.MaxStorage,
		MinInput:   model.ScalarBound(c.MinInput),
		MaxInput:   model.ScalarBound(c.MaxInput),
		DefaultCOP: c.DefaultCOP,
	}
}
