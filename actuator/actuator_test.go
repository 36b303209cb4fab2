package actuator

import (
	"math"
	"testing"
)

type fakePSU struct {
	lastChannel int
	lastVolts   float64
	outputOn    bool
}

func (f *fakePSU) SetVoltage(channel int, volts float64) error {
	f.lastChannel = channel
	f.lastVolts = volts
	return nil
}

func (f *fakePSU) EnableOutput() error {
	f.outputOn = true
	return nil
}

func (f *fakePSU) DisableOutput() error {
	f.outputOn = false
	return nil
}

type fakeADC struct {
	volts float64
}

func (f *fakeADC) ReadVoltage(channel int) (float64, error) {
	return f.volts, nil
}

func TestSetPositionScalesToVolts(t *testing.T) {
	psu := &fakePSU{}
	act := New(psu, &fakeADC{}, 1, 0)
	err := act.SetPosition(25)
	if err != nil {
		t.Fatalf("set position errored: %v", err)
	}
	if psu.lastChannel != 1 {
		t.Errorf("expected drive on channel 1, got %d", psu.lastChannel)
	}
	if math.Abs(psu.lastVolts-6.0) > 1e-9 {
		t.Errorf("25 mm at 0.24 V/mm should be 6 V, got %f", psu.lastVolts)
	}
}

func TestSetPositionClampsToTravel(t *testing.T) {
	psu := &fakePSU{}
	act := New(psu, &fakeADC{}, 1, 0)
	act.SetPosition(100)
	if math.Abs(psu.lastVolts-12.0) > 1e-9 {
		t.Errorf("command beyond travel should clamp to 50 mm (12 V), got %f", psu.lastVolts)
	}
	act.SetPosition(-10)
	if psu.lastVolts != 0 {
		t.Errorf("negative command should clamp to 0 V, got %f", psu.lastVolts)
	}
}

func TestGetPositionInvertsScaling(t *testing.T) {
	act := New(&fakePSU{}, &fakeADC{volts: 6.0}, 1, 0)
	mm, err := act.GetPosition()
	if err != nil {
		t.Fatalf("readback errored: %v", err)
	}
	if math.Abs(mm-25) > 1e-9 {
		t.Errorf("6 V readback should be 25 mm, got %f", mm)
	}
}

func TestSwitchOnOff(t *testing.T) {
	psu := &fakePSU{}
	act := New(psu, &fakeADC{}, 1, 0)
	act.SwitchOn()
	if !psu.outputOn {
		t.Error("SwitchOn should enable the supply output")
	}
	act.SwitchOff()
	if psu.outputOn {
		t.Error("SwitchOff should disable the supply output")
	}
}
