// Package oscilloscope provides the waveform data model and the pure
// post-processing stages: raw-code scaling, phase alignment, and mixing.
package oscilloscope

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// RawCapture is one channel's worth of unscaled data from a scope, together
// with the five instrument-reported constants needed to scale it.
type RawCapture struct {
	// Samples are the raw signed codes from the digitizer, one byte each
	Samples []int8

	// RecordLength is the number of samples in the record, == len(Samples)
	RecordLength int

	// TimeIncrement is the sample spacing in seconds
	TimeIncrement float64

	// TimeZero is the time of the first sample in seconds
	TimeZero float64

	// VoltsPerLevel is the vertical scale, volts per digitizer level
	VoltsPerLevel float64

	// VoltZeroReference is the voltage corresponding to the reference level
	VoltZeroReference float64

	// LevelZeroReference is the digitizer level of the vertical reference
	LevelZeroReference float64
}

// ScaledWaveform is a capture converted to physical units.  TimeMS and
// Voltage have equal length; TimeMS is evenly spaced covering
// [TimeZero, TimeZero+TotalTime) in milliseconds.
type ScaledWaveform struct {
	TimeMS  []float64
	Voltage []float64

	// TotalTime is the full duration of the record in seconds
	TotalTime float64
}

// Scale converts a raw capture to physical units.  The voltage transform is
// (code - LevelZeroReference) * VoltsPerLevel + VoltZeroReference; the time
// axis starts at TimeZero and excludes the nominal end point.
func Scale(raw RawCapture) ScaledWaveform {
	n := raw.RecordLength
	timeMS := make([]float64, n)
	for i := 0; i < n; i++ {
		timeMS[i] = (raw.TimeZero + float64(i)*raw.TimeIncrement) * 1000
	}
	volts := make([]float64, n)
	for i := 0; i < n; i++ {
		volts[i] = float64(raw.Samples[i])
	}
	floats.AddConst(-raw.LevelZeroReference, volts)
	floats.Scale(raw.VoltsPerLevel, volts)
	floats.AddConst(raw.VoltZeroReference, volts)
	return ScaledWaveform{
		TimeMS:    timeMS,
		Voltage:   volts,
		TotalTime: raw.TimeIncrement * float64(n)}
}

// EncodeCSV writes the waveform to w as CSV in streaming fashion
func (wav ScaledWaveform) EncodeCSV(w io.Writer) error {
	return EncodeColumnsCSV(w, []string{"time_ms", "volts"}, wav.TimeMS, wav.Voltage)
}

// EncodeColumnsCSV writes equal-length float columns to w as CSV with the
// given header labels
func EncodeColumnsCSV(w io.Writer, labels []string, cols ...[]float64) error {
	w2 := bufio.NewWriter(w)
	w3 := csv.NewWriter(w2)
	err := w3.Write(labels)
	if err != nil {
		return err
	}
	row := make([]string, len(cols))
	if len(cols) == 0 {
		w3.Flush()
		return w2.Flush()
	}
	for i := 0; i < len(cols[0]); i++ {
		for j := 0; j < len(cols); j++ {
			row[j] = strconv.FormatFloat(cols[j][i], 'G', -1, 64)
		}
		err = w3.Write(row)
		if err != nil {
			return err
		}
	}
	w3.Flush()
	return w2.Flush()
}
