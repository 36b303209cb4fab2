// Package tektronix provides an interface to Tektronix TBS1000 series
// oscilloscopes, including the waveform acquisition and phase-aligned
// mixing pipeline used for lock-in style measurements.
package tektronix

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tarm/serial"
	"go.uber.org/multierr"

	"github.com/yorkuphyslab/labbench/comm"
	"github.com/yorkuphyslab/labbench/oscilloscope"
	"github.com/yorkuphyslab/labbench/scpi"
	"github.com/yorkuphyslab/labbench/usbtmc"
)

// InvalidChannelError is generated when a channel outside {1, 2} is
// requested.  No instrument traffic occurs.
type InvalidChannelError int

func (e InvalidChannelError) Error() string {
	return fmt.Sprintf("channel must be 1 or 2, got %d", int(e))
}

// ReferenceChannel is the channel carrying the reference/trigger signal,
// whose period anchors phase-to-sample translation
const ReferenceChannel = 2

// makeSerConf makes a new serial.Config with correct parity, baud, etc, set.
func makeSerConf(addr string) *serial.Config {
	return &serial.Config{
		Name:        addr,
		Baud:        9600,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 10 * time.Second}
}

// Config holds the acquisition setup applied by Configure
type Config struct {
	// HorizontalScale is the timebase in seconds per division
	HorizontalScale float64 `yaml:"HorizontalScale"`

	// Ch1Scale and Ch2Scale are vertical scales in volts per division
	Ch1Scale float64 `yaml:"Ch1Scale"`
	Ch2Scale float64 `yaml:"Ch2Scale"`

	// TriggerSource is CH1 or CH2
	TriggerSource string `yaml:"TriggerSource"`
}

// DefaultConfig returns the setup used on the teaching benches; the scale
// channel 2 range suits the function generator sync output
func DefaultConfig() Config {
	return Config{
		HorizontalScale: 5e-3,
		Ch1Scale:        50e-3,
		Ch2Scale:        2,
		TriggerSource:   "CH2"}
}

// TBS1000 is an interface to a TBS1000 series oscilloscope
type TBS1000 struct {
	scpi.SCPI

	// Keyword is the substring expected in the *idn? response
	Keyword string

	// Log receives soft diagnostics (event status register contents, event
	// message queue).  Defaults to the stdlib global logger.
	Log *log.Logger

	connected bool
}

// NewTBS1000 creates a new TBS1000 instance over TCP or RS-232.
// Connect must be called before acquisition.
func NewTBS1000(addr string, connectSerial bool) *TBS1000 {
	var maker comm.CreationFunc
	if connectSerial {
		maker = comm.SerialConnMaker(makeSerConf(addr))
	} else {
		maker = comm.BackingOffTCPConnMaker(addr, 1*time.Second)
	}
	pool := comm.NewPool(1, time.Hour, maker)
	return &TBS1000{SCPI: scpi.SCPI{Pool: pool}, Keyword: "TBS", Log: log.Default()}
}

// NewTBS1000USB creates a new TBS1000 instance over the USB test and
// measurement class, the way the scopes are cabled on the benches
func NewTBS1000USB(vid, pid uint16) *TBS1000 {
	maker := usbtmc.ConnMaker(vid, pid)
	pool := comm.NewPool(1, time.Hour, maker)
	return &TBS1000{SCPI: scpi.SCPI{Pool: pool}, Keyword: "TBS", Log: log.Default()}
}

// Connect verifies the device identifies as a TBS scope and clears the
// event status register
func (t *TBS1000) Connect() error {
	idn, err := t.ReadString("*idn?")
	if err != nil {
		return err
	}
	if !strings.Contains(idn, t.Keyword) {
		return fmt.Errorf("device did not identify as a %s scope: %s", t.Keyword, idn)
	}
	err = t.Write("*cls")
	if err != nil {
		return err
	}
	t.connected = true
	t.Log.Printf("Tektronix TBS scope found: %s", idn)
	return nil
}

// Connected returns true if Connect succeeded and Close has not been called
func (t *TBS1000) Connected() bool {
	return t.connected
}

// Close releases the scope.  Pooled connections are freed on their own
// timeout; acquisition calls fail with comm.ErrNotConnected afterwards.
func (t *TBS1000) Close() error {
	t.connected = false
	return nil
}

// IDN returns the scope's identification string
func (t *TBS1000) IDN() (string, error) {
	if !t.connected {
		return "", comm.ErrNotConnected
	}
	return t.ReadString("*idn?")
}

// writeOpc sends a command and blocks on *opc? so the scope finishes the
// operation before the next one lands
func (t *TBS1000) writeOpc(cmd string) error {
	err := t.Write(cmd)
	if err != nil {
		return err
	}
	_, err = t.ReadString("*opc?")
	return err
}

// Configure resets the scope, autosets from the present input signal, then
// applies the horizontal and vertical scales and trigger source.  All steps
// are attempted; their errors are aggregated.
func (t *TBS1000) Configure(cfg Config) error {
	if !t.connected {
		return comm.ErrNotConnected
	}
	seq := []string{
		"*rst",
		"autoset EXECUTE",
		fmt.Sprintf("HORIZONTAL:MAIN:SCALE %E", cfg.HorizontalScale),
		"CH1:COUPLING AC",
		fmt.Sprintf("CH1:SCALE %E", cfg.Ch1Scale),
		fmt.Sprintf("CH2:SCALE %E", cfg.Ch2Scale),
		fmt.Sprintf("TRIGGER:MAIN:EDGE:SOURCE %s", cfg.TriggerSource),
	}
	var errs error
	for _, cmd := range seq {
		errs = multierr.Append(errs, t.writeOpc(cmd))
	}
	return errs
}

// Period measures the period of the waveform on the given channel in
// seconds, using the scope's immediate measurement subsystem.  This is a
// live measurement of the input signal, not a property of any previously
// captured record.
func (t *TBS1000) Period(channel int) (float64, error) {
	if channel != 1 && channel != 2 {
		return 0, InvalidChannelError(channel)
	}
	if !t.connected {
		return 0, comm.ErrNotConnected
	}
	err := t.Write("MEASUrement:IMMed:TYPE PERiod")
	if err != nil {
		return 0, err
	}
	err = t.Write(fmt.Sprintf("MEASUrement:IMMed:SOUrce CH%d", channel))
	if err != nil {
		return 0, err
	}
	return t.ReadFloat("MEASUrement:IMMed:VALue?")
}

// AcquireRaw performs a single-sequence capture on the given channel and
// returns the raw record with its scaling constants.  The record length is
// whatever the scope currently uses; the full record is transferred at one
// byte per sample.
func (t *TBS1000) AcquireRaw(channel int) (oscilloscope.RawCapture, error) {
	var raw oscilloscope.RawCapture
	if channel != 1 && channel != 2 {
		return raw, InvalidChannelError(channel)
	}
	if !t.connected {
		return raw, comm.ErrNotConnected
	}
	// transfer setup: signed binary, one byte per sample, full record
	setup := []string{
		"header 0",
		"data:encdg RIBINARY",
		fmt.Sprintf("data:source CH%d", channel),
		"data:start 1",
	}
	for _, cmd := range setup {
		if err := t.Write(cmd); err != nil {
			return raw, err
		}
	}
	record, err := t.ReadInt("wfmpre:nr_pt?")
	if err != nil {
		return raw, err
	}
	setup = []string{
		fmt.Sprintf("data:stop %d", record),
		"wfmpre:byt_nr 1",
		// stop, arm a single sequence, run; guarantees one complete
		// stable record instead of a partial streaming one
		"acquire:state 0",
		"acquire:stopafter SEQUENCE",
		"acquire:state 1",
	}
	for _, cmd := range setup {
		if err := t.Write(cmd); err != nil {
			return raw, err
		}
	}
	buf, err := t.ReadBinaryBlock("curve?")
	if err != nil {
		return raw, err
	}
	if len(buf) != record {
		return raw, fmt.Errorf("record length is %d but %d samples were transferred", record, len(buf))
	}
	raw.TimeIncrement, err = t.ReadFloat("wfmpre:xincr?")
	if err != nil {
		return raw, err
	}
	raw.TimeZero, err = t.ReadFloat("wfmpre:xzero?")
	if err != nil {
		return raw, err
	}
	raw.VoltsPerLevel, err = t.ReadFloat("wfmpre:ymult?")
	if err != nil {
		return raw, err
	}
	raw.VoltZeroReference, err = t.ReadFloat("wfmpre:yzero?")
	if err != nil {
		return raw, err
	}
	raw.LevelZeroReference, err = t.ReadFloat("wfmpre:yoff?")
	if err != nil {
		return raw, err
	}
	t.checkEvents()
	samples := make([]int8, len(buf))
	for i := range buf {
		samples[i] = int8(buf[i])
	}
	raw.Samples = samples
	raw.RecordLength = record
	return raw, nil
}

// checkEvents inspects the event status register and the accumulated event
// queue.  Status bits after a successful transfer are diagnostic, not
// capture-invalidating, so they are logged and never returned as errors.
func (t *TBS1000) checkEvents() {
	esr, err := t.ReadInt("*esr?")
	if err == nil && esr != 0 {
		t.Log.Printf("event status register: 0b%08b", esr)
	}
	allev, err := t.ReadString("allev?")
	if err == nil && !strings.Contains(allev, "No events") {
		t.Log.Printf("all event messages: %s", strings.TrimSpace(allev))
	}
}

// AcquireWaveform captures a single-sequence record on the given channel
// and returns it scaled to physical units
func (t *TBS1000) AcquireWaveform(channel int) (oscilloscope.ScaledWaveform, error) {
	raw, err := t.AcquireRaw(channel)
	if err != nil {
		return oscilloscope.ScaledWaveform{}, err
	}
	return oscilloscope.Scale(raw), nil
}

// PhaseShift slides waveB earlier by phaseDeg degrees of the reference
// channel's period, truncating all three sequences to their overlap.  The
// period is measured live on channel 2; if the source drifted since the
// capture the translation is approximate.
func (t *TBS1000) PhaseShift(timeMS, waveA, waveB []float64, totalTime, phaseDeg float64) (oscilloscope.PhaseAlignedPair, error) {
	period, err := t.Period(ReferenceChannel)
	if err != nil {
		return oscilloscope.PhaseAlignedPair{}, err
	}
	return oscilloscope.Align(timeMS, waveA, waveB, totalTime, period, phaseDeg)
}
