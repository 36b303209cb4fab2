// Package hvctl controls a high voltage module through its low voltage
// programming input on a bench supply.  The module output in kilovolts is
// proportional to the programming voltage.
package hvctl

import (
	"github.com/yorkuphyslab/labbench/util"
)

// PSU is the supply feeding the HV module's programming input
type PSU interface {
	SetVoltage(channel int, volts float64) error
	MeasureVoltage(channel int) (float64, error)
	EnableOutput() error
	DisableOutput() error
}

// HVControl drives a proportional high voltage module
type HVControl struct {
	psu PSU

	// PSUChannel is the supply channel wired to the programming input
	PSUChannel int

	// KVPerVolt is the module's transfer ratio
	KVPerVolt float64

	// MaxKV is the module's rated output
	MaxKV float64
}

// New creates an HVControl for a 25 kV module programmed at 2.5 kV/V
func New(psu PSU, channel int) *HVControl {
	return &HVControl{
		psu:        psu,
		PSUChannel: channel,
		KVPerVolt:  2.5,
		MaxKV:      25}
}

// SwitchOn enables the supply feeding the module
func (h *HVControl) SwitchOn() error {
	return h.psu.EnableOutput()
}

// SwitchOff disables the supply feeding the module
func (h *HVControl) SwitchOff() error {
	return h.psu.DisableOutput()
}

// SetKV programs the module output in kilovolts.  Requests beyond the rated
// output are clamped.
func (h *HVControl) SetKV(kv float64) error {
	kv = util.Clamp(kv, 0, h.MaxKV)
	return h.psu.SetVoltage(h.PSUChannel, kv/h.KVPerVolt)
}

// GetKV returns the module output in kilovolts inferred from the measured
// programming voltage
func (h *HVControl) GetKV() (float64, error) {
	v, err := h.psu.MeasureVoltage(h.PSUChannel)
	if err != nil {
		return 0, err
	}
	return v * h.KVPerVolt, nil
}
