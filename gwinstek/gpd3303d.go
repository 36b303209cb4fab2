// Package gwinstek provides an interface to GW Instek GPD series DC power
// supplies, the bench source for the actuator and high voltage module
package gwinstek

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"

	"github.com/yorkuphyslab/labbench/comm"
)

// InvalidChannelError is generated when a channel outside the supply's two
// outputs is requested
type InvalidChannelError int

func (e InvalidChannelError) Error() string {
	return fmt.Sprintf("channel must be 1 or 2, got %d", int(e))
}

// makeSerConf makes a new serial.Config with correct parity, baud, etc, set.
func makeSerConf(addr string) *serial.Config {
	return &serial.Config{
		Name:        addr,
		Baud:        9600,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 3 * time.Second}
}

// GPD3303D is an interface to a GPD-3303D dual channel power supply
type GPD3303D struct {
	pool *comm.Pool
}

// NewGPD3303D creates a new GPD3303D instance
func NewGPD3303D(addr string) *GPD3303D {
	maker := comm.SerialConnMaker(makeSerConf(addr))
	pool := comm.NewPool(1, time.Hour, maker)
	return &GPD3303D{pool: pool}
}

func (p *GPD3303D) writeOnly(cmd string) error {
	conn, err := p.pool.Get()
	if err != nil {
		return err
	}
	defer func() { p.pool.ReturnWithError(conn, err) }()
	wrap := comm.NewTerminator(conn, '\n', '\n')
	_, err = io.WriteString(wrap, cmd)
	return err
}

func (p *GPD3303D) writeRead(cmd string) (string, error) {
	conn, err := p.pool.Get()
	if err != nil {
		return "", err
	}
	defer func() { p.pool.ReturnWithError(conn, err) }()
	wrap := comm.NewTerminator(conn, '\n', '\n')
	_, err = io.WriteString(wrap, cmd)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 64)
	n, err := wrap.Read(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// ParseReading extracts the numeric part of a supply response such as
// "12.500V" or "1.000 A"
func ParseReading(resp string) (float64, error) {
	s := strings.TrimSpace(resp)
	s = strings.TrimRight(s, "VA")
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func validChannel(channel int) error {
	if channel != 1 && channel != 2 {
		return InvalidChannelError(channel)
	}
	return nil
}

// IDN returns the supply's identification string
func (p *GPD3303D) IDN() (string, error) {
	return p.writeRead("*IDN?")
}

// SetVoltage programs the voltage setpoint of the given channel in volts
func (p *GPD3303D) SetVoltage(channel int, volts float64) error {
	if err := validChannel(channel); err != nil {
		return err
	}
	return p.writeOnly(fmt.Sprintf("VSET%d:%.3f", channel, volts))
}

// GetVoltageSetpoint returns the programmed voltage of the given channel
func (p *GPD3303D) GetVoltageSetpoint(channel int) (float64, error) {
	if err := validChannel(channel); err != nil {
		return 0, err
	}
	resp, err := p.writeRead(fmt.Sprintf("VSET%d?", channel))
	if err != nil {
		return 0, err
	}
	return ParseReading(resp)
}

// MeasureVoltage returns the actual output voltage of the given channel
func (p *GPD3303D) MeasureVoltage(channel int) (float64, error) {
	if err := validChannel(channel); err != nil {
		return 0, err
	}
	resp, err := p.writeRead(fmt.Sprintf("VOUT%d?", channel))
	if err != nil {
		return 0, err
	}
	return ParseReading(resp)
}

// SetCurrent programs the current limit of the given channel in amps
func (p *GPD3303D) SetCurrent(channel int, amps float64) error {
	if err := validChannel(channel); err != nil {
		return err
	}
	return p.writeOnly(fmt.Sprintf("ISET%d:%.3f", channel, amps))
}

// MeasureCurrent returns the actual output current of the given channel
func (p *GPD3303D) MeasureCurrent(channel int) (float64, error) {
	if err := validChannel(channel); err != nil {
		return 0, err
	}
	resp, err := p.writeRead(fmt.Sprintf("IOUT%d?", channel))
	if err != nil {
		return 0, err
	}
	return ParseReading(resp)
}

// EnableOutput switches both outputs on; the GPD-3303D has a single output
// switch covering its two channels
func (p *GPD3303D) EnableOutput() error {
	return p.writeOnly("OUT1")
}

// DisableOutput switches both outputs off
func (p *GPD3303D) DisableOutput() error {
	return p.writeOnly("OUT0")
}

// Beep turns the front panel beeper on or off
func (p *GPD3303D) Beep(on bool) error {
	if on {
		return p.writeOnly("BEEP1")
	}
	return p.writeOnly("BEEP0")
}
