// Package actuator controls a voltage driven linear actuator.  Position
// commands are converted to supply voltages and readback comes from a
// potentiometer sampled by an ADC.
package actuator

import (
	"fmt"

	"github.com/yorkuphyslab/labbench/util"
)

// PSU is the programmable supply that drives the actuator
type PSU interface {
	// SetVoltage programs the voltage setpoint of a channel in volts
	SetVoltage(channel int, volts float64) error

	// EnableOutput switches the supply output on
	EnableOutput() error

	// DisableOutput switches the supply output off
	DisableOutput() error
}

// ADC samples the actuator's position feedback
type ADC interface {
	// ReadVoltage returns the voltage on a channel in volts
	ReadVoltage(channel int) (float64, error)
}

// Actuator is a linear actuator driven by a PSU channel with ADC readback
type Actuator struct {
	psu PSU
	adc ADC

	// PSUChannel is the supply channel wired to the actuator motor
	PSUChannel int

	// ADCChannel is the ADC channel wired to the feedback potentiometer
	ADCChannel int

	// VoltsPerMM converts between drive voltage and travel
	VoltsPerMM float64

	// MaxTravelMM is the mechanical limit of the actuator
	MaxTravelMM float64
}

// New creates a new Actuator with the suite's standard scaling, 0.24 V/mm
// over 50 mm of travel
func New(psu PSU, adc ADC, psuChannel, adcChannel int) *Actuator {
	return &Actuator{
		psu:         psu,
		adc:         adc,
		PSUChannel:  psuChannel,
		ADCChannel:  adcChannel,
		VoltsPerMM:  0.24,
		MaxTravelMM: 50}
}

// SwitchOn enables the supply output driving the actuator
func (a *Actuator) SwitchOn() error {
	return a.psu.EnableOutput()
}

// SwitchOff disables the supply output driving the actuator
func (a *Actuator) SwitchOff() error {
	return a.psu.DisableOutput()
}

// SetPosition commands the actuator to a position in millimeters.  Positions
// outside the actuator's travel are clamped to the nearest limit.
func (a *Actuator) SetPosition(mm float64) error {
	mm = util.Clamp(mm, 0, a.MaxTravelMM)
	return a.psu.SetVoltage(a.PSUChannel, mm*a.VoltsPerMM)
}

// GetPosition returns the actuator's position in millimeters from feedback
func (a *Actuator) GetPosition() (float64, error) {
	v, err := a.adc.ReadVoltage(a.ADCChannel)
	if err != nil {
		return 0, fmt.Errorf("actuator position readback: %w", err)
	}
	return v / a.VoltsPerMM, nil
}
