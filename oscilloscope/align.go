package oscilloscope

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// LengthMismatchError is generated when two waveforms that must be the same
// length are not
type LengthMismatchError struct {
	LenA, LenB int
}

func (e LengthMismatchError) Error() string {
	return fmt.Sprintf("waveforms must be the same length: %d != %d", e.LenA, e.LenB)
}

// ShiftExceedsRecordError is generated when a phase shift would slide a
// waveform past the end of its own record, leaving nothing to overlap
type ShiftExceedsRecordError struct {
	Shift, Record int
}

func (e ShiftExceedsRecordError) Error() string {
	return fmt.Sprintf("phase shift of %d samples exceeds the %d sample record", e.Shift, e.Record)
}

// PhaseAlignedPair is two waveforms on a shared time axis after sliding the
// second one earlier by a whole number of samples.  All three sequences have
// equal length, at most the original record length.
type PhaseAlignedPair struct {
	TimeMS       []float64
	WaveA, WaveB []float64
}

// ShiftSamples returns the whole-sample shift corresponding to phaseDeg
// degrees of a signal with the given period, within a record spanning
// totalTime seconds and recordLength samples.  phaseDeg is reduced modulo
// 360 first; negative phases wrap to their positive equivalent.
func ShiftSamples(phaseDeg, period, totalTime float64, recordLength int) int {
	phase := math.Mod(phaseDeg, 360)
	if phase < 0 {
		phase += 360
	}
	samplesInPeriod := int(period / totalTime * float64(recordLength))
	return int(phase / 360 * float64(samplesInPeriod))
}

// Align slides waveB earlier by the number of samples corresponding to
// phaseDeg degrees of the reference period, truncating timeMS and waveA from
// the tail and waveB from the head so all three keep equal length.  A zero
// shift returns the inputs unmodified.  The approximation assumes the signal
// is locally periodic; samples near the record edges are sacrificed.
func Align(timeMS, waveA, waveB []float64, totalTime, period, phaseDeg float64) (PhaseAlignedPair, error) {
	var pair PhaseAlignedPair
	if len(waveA) != len(waveB) {
		return pair, LengthMismatchError{LenA: len(waveA), LenB: len(waveB)}
	}
	shift := ShiftSamples(phaseDeg, period, totalTime, len(waveB))
	if shift == 0 {
		return PhaseAlignedPair{TimeMS: timeMS, WaveA: waveA, WaveB: waveB}, nil
	}
	if shift >= len(waveB) {
		return pair, ShiftExceedsRecordError{Shift: shift, Record: len(waveB)}
	}
	return PhaseAlignedPair{
		TimeMS: timeMS[:len(timeMS)-shift],
		WaveA:  waveA[:len(waveA)-shift],
		WaveB:  waveB[shift:]}, nil
}

// Mix computes the elementwise product of two equal-length waveforms, the
// multiplication half of a lock-in measurement
func Mix(waveA, waveB []float64) ([]float64, error) {
	if len(waveA) != len(waveB) {
		return nil, LengthMismatchError{LenA: len(waveA), LenB: len(waveB)}
	}
	out := make([]float64, len(waveA))
	floats.MulTo(out, waveA, waveB)
	return out, nil
}
