/*Package comm provides connection plumbing for communication with lab hardware.

Devices in this module hold a Pool of connections rather than a bare conn.
The pool opens connections lazily, hands them out one at a time, and frees
them after a period of disuse.  A typical driver method looks like:

	conn, err := d.pool.Get()
	if err != nil {
		return err
	}
	defer func() { d.pool.ReturnWithError(conn, err) }()
	wrap, err := comm.NewTimeout(conn, 5*time.Second)
	if err != nil {
		return err
	}
	wrap = comm.NewTerminator(wrap, '\n', '\n')
	// ... io.WriteString / Read on wrap

Makers encapsulate how a connection is established (TCP with backoff,
serial port, USB) so the pool does not care about the transport.
*/
package comm

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"
)

// ErrNotConnected is generated when communication is attempted against a
// device whose link has not been established.
var ErrNotConnected = errors.New("not connected to remote device")

// CreationFunc is a function which returns a new "connection" to something.
// a closure should be used to encapsulate the variables and functions needed.
type CreationFunc func() (io.ReadWriteCloser, error)

// TCPSetup opens a new TCP connection and sets a timeout on connect, read, and write
func TCPSetup(addr string, timeout time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(timeout)
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)
	return conn, nil
}

// BackingOffTCPConnMaker returns a CreationFunc which dials addr with an
// exponential backoff.  Some devices do not tolerate connection thrashing
// and need the breathing room.
func BackingOffTCPConnMaker(addr string, timeout time.Duration) CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		var conn net.Conn
		wasTimeout := false
		op := func() error {
			var err error
			conn, err = TCPSetup(addr, timeout)
			if err != nil {
				errS := strings.ToLower(err.Error())
				if strings.Contains(errS, "refused") {
					return err
				}
				wasTimeout = true
				return nil
			}
			wasTimeout = false
			return nil
		}
		err := backoff.Retry(op, &backoff.ExponentialBackOff{
			InitialInterval:     25 * time.Millisecond,
			RandomizationFactor: 0.,
			Multiplier:          2.,
			MaxInterval:         1 * time.Second,
			MaxElapsedTime:      3 * time.Second,
			Clock:               backoff.SystemClock})
		if err != nil {
			return nil, err
		}
		if wasTimeout {
			return nil, fmt.Errorf("connection timeout to %s", addr)
		}
		return conn, nil
	}
}

// SerialConnMaker returns a CreationFunc which opens the serial port
// described by cfg.
func SerialConnMaker(cfg *serial.Config) CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		return serial.OpenPort(cfg)
	}
}

// Terminator wraps a ReadWriter, appending the Tx terminator on writes and
// stripping the Rx terminator from reads.
type Terminator struct {
	rw     io.ReadWriter
	rx, tx byte
}

// NewTerminator returns a Terminator wrapped around rw
func NewTerminator(rw io.ReadWriter, rx, tx byte) io.ReadWriter {
	return &Terminator{rw: rw, rx: rx, tx: tx}
}

func (t *Terminator) Write(b []byte) (int, error) {
	b2 := make([]byte, len(b)+1)
	copy(b2, b)
	b2[len(b)] = t.tx
	n, err := t.rw.Write(b2)
	if n > len(b) {
		n = len(b)
	}
	return n, err
}

func (t *Terminator) Read(b []byte) (int, error) {
	n, err := t.rw.Read(b)
	if err != nil {
		return n, err
	}
	if n > 0 && b[n-1] == t.rx {
		n--
	}
	return n, nil
}

type deadliner interface {
	SetDeadline(time.Time) error
}

type timeoutRW struct {
	rw      io.ReadWriter
	d       deadliner
	timeout time.Duration
}

// NewTimeout wraps rw such that each Read or Write carries a fresh deadline.
// Connections without deadline support (serial ports have their own read
// timeout in their config) pass through unchanged.
func NewTimeout(rw io.ReadWriter, timeout time.Duration) (io.ReadWriter, error) {
	if d, ok := rw.(deadliner); ok {
		return &timeoutRW{rw: rw, d: d, timeout: timeout}, nil
	}
	return rw, nil
}

func (t *timeoutRW) Write(b []byte) (int, error) {
	err := t.d.SetDeadline(time.Now().Add(t.timeout))
	if err != nil {
		return 0, err
	}
	return t.rw.Write(b)
}

func (t *timeoutRW) Read(b []byte) (int, error) {
	err := t.d.SetDeadline(time.Now().Add(t.timeout))
	if err != nil {
		return 0, err
	}
	return t.rw.Read(b)
}
