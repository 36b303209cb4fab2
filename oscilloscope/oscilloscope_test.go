package oscilloscope_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/yorkuphyslab/labbench/oscilloscope"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestScaleConcreteScenario(t *testing.T) {
	raw := oscilloscope.RawCapture{
		Samples:            []int8{0, 10, 20, -10},
		RecordLength:       4,
		TimeIncrement:      1e-3,
		TimeZero:           0.0,
		VoltsPerLevel:      0.01,
		VoltZeroReference:  0.0,
		LevelZeroReference: 0.0,
	}
	wav := oscilloscope.Scale(raw)
	wantTime := []float64{0, 1, 2, 3}
	wantVolt := []float64{0.0, 0.1, 0.2, -0.1}
	if len(wav.TimeMS) != 4 || len(wav.Voltage) != 4 {
		t.Fatalf("expected 4 points, got %d/%d", len(wav.TimeMS), len(wav.Voltage))
	}
	for i := range wantTime {
		if !almostEqual(wav.TimeMS[i], wantTime[i]) {
			t.Errorf("time[%d]: expected %g, got %g", i, wantTime[i], wav.TimeMS[i])
		}
		if !almostEqual(wav.Voltage[i], wantVolt[i]) {
			t.Errorf("voltage[%d]: expected %g, got %g", i, wantVolt[i], wav.Voltage[i])
		}
	}
	if !almostEqual(wav.TotalTime, 0.004) {
		t.Errorf("expected total time 0.004, got %g", wav.TotalTime)
	}
}

func TestScaleTimeAxisProperties(t *testing.T) {
	raw := oscilloscope.RawCapture{
		Samples:            make([]int8, 2500),
		RecordLength:       2500,
		TimeIncrement:      2e-5,
		TimeZero:           -0.025,
		VoltsPerLevel:      0.002,
		VoltZeroReference:  0.1,
		LevelZeroReference: 1,
	}
	wav := oscilloscope.Scale(raw)
	if len(wav.TimeMS) != raw.RecordLength {
		t.Fatalf("expected %d time points, got %d", raw.RecordLength, len(wav.TimeMS))
	}
	if !almostEqual(wav.TimeMS[0], raw.TimeZero*1000) {
		t.Errorf("expected first time point %g, got %g", raw.TimeZero*1000, wav.TimeMS[0])
	}
	for i := 1; i < len(wav.TimeMS); i++ {
		if wav.TimeMS[i] <= wav.TimeMS[i-1] {
			t.Fatalf("time axis not strictly increasing at %d", i)
		}
	}
	// nominal end point is excluded
	end := (raw.TimeZero + wav.TotalTime) * 1000
	if wav.TimeMS[len(wav.TimeMS)-1] >= end {
		t.Errorf("last time point %g should be below %g", wav.TimeMS[len(wav.TimeMS)-1], end)
	}
}

func TestScaleIsDeterministic(t *testing.T) {
	raw := oscilloscope.RawCapture{
		Samples:            []int8{5, -5, 127, -128},
		RecordLength:       4,
		TimeIncrement:      1e-6,
		TimeZero:           1e-4,
		VoltsPerLevel:      0.05,
		VoltZeroReference:  -0.2,
		LevelZeroReference: 2.5,
	}
	a := oscilloscope.Scale(raw)
	b := oscilloscope.Scale(raw)
	for i := range a.Voltage {
		if a.Voltage[i] != b.Voltage[i] || a.TimeMS[i] != b.TimeMS[i] {
			t.Fatal("scaling is not bit-identical between runs")
		}
	}
}

func TestAlignZeroPhaseIsIdentity(t *testing.T) {
	time := []float64{0, 1, 2, 3, 4}
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{5, 4, 3, 2, 1}
	pair, err := oscilloscope.Align(time, a, b, 0.005, 0.0025, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pair.TimeMS) != 5 || len(pair.WaveA) != 5 || len(pair.WaveB) != 5 {
		t.Fatal("zero phase should not truncate")
	}
	for i := range b {
		if pair.WaveB[i] != b[i] {
			t.Fatal("zero phase should return waveB unmodified")
		}
	}
}

func TestAlignFullTurnMatchesZero(t *testing.T) {
	time := []float64{0, 1, 2, 3, 4}
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{5, 4, 3, 2, 1}
	pair, err := oscilloscope.Align(time, a, b, 0.005, 0.0025, 360)
	if err != nil {
		t.Fatal(err)
	}
	if len(pair.WaveB) != 5 {
		t.Error("360 degrees should reduce to zero shift")
	}
}

func TestAlignNegativePhaseWraps(t *testing.T) {
	if s := oscilloscope.ShiftSamples(-90, 1, 1, 360); s != 270 {
		t.Errorf("expected -90 to wrap to 270 samples here, got %d", s)
	}
}

func TestAlignConcreteScenario(t *testing.T) {
	time := []float64{0, 1, 2, 3, 4}
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{5, 4, 3, 2, 1}
	// one full period occupies half the record: 2 samples per period,
	// 180 degrees -> 1 sample of shift
	pair, err := oscilloscope.Align(time, a, b, 0.005, 0.0025, 180)
	if err != nil {
		t.Fatal(err)
	}
	wantTime := []float64{0, 1, 2, 3}
	wantA := []float64{1, 2, 3, 4}
	wantB := []float64{4, 3, 2, 1}
	if len(pair.TimeMS) != 4 {
		t.Fatalf("expected truncation to 4 samples, got %d", len(pair.TimeMS))
	}
	for i := range wantTime {
		if pair.TimeMS[i] != wantTime[i] || pair.WaveA[i] != wantA[i] || pair.WaveB[i] != wantB[i] {
			t.Fatalf("mismatch at %d: got %g/%g/%g", i, pair.TimeMS[i], pair.WaveA[i], pair.WaveB[i])
		}
	}
}

func TestAlignShiftBeyondRecordFails(t *testing.T) {
	time := []float64{0, 1, 2}
	a := []float64{1, 2, 3}
	b := []float64{3, 2, 1}
	// period == total time, so 359.9 degrees shifts nearly the whole record
	_, err := oscilloscope.Align(time, a, b, 0.003, 0.006, 180)
	var seer oscilloscope.ShiftExceedsRecordError
	if !errors.As(err, &seer) {
		t.Fatalf("expected ShiftExceedsRecordError, got %v", err)
	}
}

func TestMixConcreteScenario(t *testing.T) {
	out, err := oscilloscope.Mix([]float64{1, 2, 3}, []float64{4, 5, 6})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{4, 10, 18}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("mix[%d]: expected %g, got %g", i, want[i], out[i])
		}
	}
}

func TestMixTrivialLengths(t *testing.T) {
	out, err := oscilloscope.Mix([]float64{}, []float64{})
	if err != nil || len(out) != 0 {
		t.Errorf("empty mix should yield empty result, got %v/%v", out, err)
	}
	out, err = oscilloscope.Mix([]float64{3}, []float64{7})
	if err != nil || len(out) != 1 || out[0] != 21 {
		t.Errorf("single element mix wrong: %v/%v", out, err)
	}
}

func TestMixLengthMismatch(t *testing.T) {
	out, err := oscilloscope.Mix([]float64{1, 2}, []float64{1, 2, 3})
	if out != nil {
		t.Error("mismatched mix should not produce a result")
	}
	var lme oscilloscope.LengthMismatchError
	if !errors.As(err, &lme) {
		t.Fatalf("expected LengthMismatchError, got %v", err)
	}
	if lme.LenA != 2 || lme.LenB != 3 {
		t.Errorf("error should carry both lengths, got %d/%d", lme.LenA, lme.LenB)
	}
}

func TestEncodeCSV(t *testing.T) {
	wav := oscilloscope.ScaledWaveform{
		TimeMS:    []float64{0, 1},
		Voltage:   []float64{0.25, -0.5},
		TotalTime: 0.002,
	}
	var buf bytes.Buffer
	err := wav.EncodeCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "time_ms,volts" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[2] != "1,-0.5" {
		t.Errorf("unexpected row %q", lines[2])
	}
}
