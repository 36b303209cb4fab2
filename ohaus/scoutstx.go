// Package ohaus provides an interface to Ohaus Scout STX precision balances
package ohaus

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"
	"golang.org/x/time/rate"

	"github.com/yorkuphyslab/labbench/comm"
)

// ErrUnstableReading is generated when the balance reports a reading before
// the pan has settled
type ErrUnstableReading struct {
	Raw string
}

func (e ErrUnstableReading) Error() string {
	return fmt.Sprintf("balance reading is not stable: %q", e.Raw)
}

// Weighing is one reading from the balance
type Weighing struct {
	// Grams is the mass; the balance is always configured for grams
	Grams float64 `json:"grams"`

	// Time is when the reading was taken
	Time time.Time `json:"time"`
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

// ScoutSTX talks to a balance of the same model name.  The balance drops
// commands that arrive back to back, so queries are paced by an internal
// rate limiter.
type ScoutSTX struct {
	pool    *comm.Pool
	limiter *rate.Limiter
}

// NewScoutSTX creates a new ScoutSTX instance
func NewScoutSTX(addr string) *ScoutSTX {
	maker := comm.SerialConnMaker(makeSerConf(addr))
	pool := comm.NewPool(1, time.Hour, maker)
	return &ScoutSTX{
		pool:    pool,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1)}
}

func (s *ScoutSTX) writeRead(cmd string) (string, error) {
	err := s.limiter.Wait(context.Background())
	if err != nil {
		return "", err
	}
	conn, err := s.pool.Get()
	if err != nil {
		return "", err
	}
	defer func() { s.pool.ReturnWithError(conn, err) }()
	wrap := comm.NewTerminator(conn, '\n', '\r')
	_, err = wrap.Write([]byte(cmd))
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

func (s *ScoutSTX) write(cmd string) error {
	err := s.limiter.Wait(context.Background())
	if err != nil {
		return err
	}
	conn, err := s.pool.Get()
	if err != nil {
		return err
	}
	defer func() { s.pool.ReturnWithError(conn, err) }()
	wrap := comm.NewTerminator(conn, '\n', '\r')
	_, err = wrap.Write([]byte(cmd))
	return err
}

// ParseWeight extracts a mass in grams from a balance response such as
// "   12.34 g" or "  -0.02 g ?".  A trailing question mark means the
// reading had not settled and yields ErrUnstableReading.
func ParseWeight(resp string) (float64, error) {
	fields := strings.Fields(resp)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty response from balance")
	}
	if fields[len(fields)-1] == "?" {
		return 0, ErrUnstableReading{Raw: resp}
	}
	return strconv.ParseFloat(fields[0], 64)
}

// ReadWeight returns the current mass on the pan in grams
func (s *ScoutSTX) ReadWeight() (float64, error) {
	resp, err := s.writeRead("IP")
	if err != nil {
		return 0, err
	}
	return ParseWeight(resp)
}

// ReadWeightTime returns the current mass together with the moment it was
// read, for logged measurement series
func (s *ScoutSTX) ReadWeightTime() (Weighing, error) {
	w, err := s.ReadWeight()
	if err != nil {
		return Weighing{}, err
	}
	return Weighing{Grams: w, Time: time.Now()}, nil
}

// Zero re-zeros the balance
func (s *ScoutSTX) Zero() error {
	return s.write("Z")
}

// Tare stores the current load as the tare value
func (s *ScoutSTX) Tare() error {
	return s.write("T")
}
