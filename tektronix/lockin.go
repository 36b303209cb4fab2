package tektronix

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/yorkuphyslab/labbench/oscilloscope"
)

// LockinResult is the product of a software lock-in measurement: the two
// phase-aligned captures, their product, and its mean
type LockinResult struct {
	// TimeMS is the shared time axis in milliseconds
	TimeMS []float64

	// Signal is the channel 1 capture, aligned
	Signal []float64

	// Reference is the channel 2 capture, shifted by the requested phase
	Reference []float64

	// Mixed is the elementwise product of Signal and Reference
	Mixed []float64

	// Mean is the average of Mixed in volts squared, the lock-in output
	Mean float64
}

// LockIn captures channel 1 and channel 2 back to back, shifts the
// reference by phaseDeg, and mixes the two.  settle is the wait between
// the captures, giving the scope time to re-arm.
func (t *TBS1000) LockIn(phaseDeg float64, settle time.Duration) (LockinResult, error) {
	var res LockinResult
	signal, err := t.AcquireWaveform(1)
	if err != nil {
		return res, err
	}
	time.Sleep(settle)
	reference, err := t.AcquireWaveform(2)
	if err != nil {
		return res, err
	}
	pair, err := t.PhaseShift(signal.TimeMS, signal.Voltage, reference.Voltage, signal.TotalTime, phaseDeg)
	if err != nil {
		return res, err
	}
	mixed, err := oscilloscope.Mix(pair.WaveA, pair.WaveB)
	if err != nil {
		return res, err
	}
	res.TimeMS = pair.TimeMS
	res.Signal = pair.WaveA
	res.Reference = pair.WaveB
	res.Mixed = mixed
	res.Mean = stat.Mean(mixed, nil)
	return res, nil
}
