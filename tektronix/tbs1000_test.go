package tektronix_test

import (
	"bytes"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/yorkuphyslab/labbench/comm"
	"github.com/yorkuphyslab/labbench/scpi"
	"github.com/yorkuphyslab/labbench/tektronix"
)

// scriptedConn stands in for the scope: writes record the command, reads
// reply with the canned response for the last query seen.
type scriptedConn struct {
	replies map[string]string
	written []string
	pending string
}

func (c *scriptedConn) Write(b []byte) (int, error) {
	cmd := strings.TrimRight(string(b), "\n")
	c.written = append(c.written, cmd)
	if resp, ok := c.replies[cmd]; ok {
		c.pending = resp
	}
	return len(b), nil
}

func (c *scriptedConn) Read(b []byte) (int, error) {
	if c.pending == "" {
		return 0, io.EOF
	}
	n := copy(b, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *scriptedConn) Close() error { return nil }

func benchScopeReplies() map[string]string {
	return map[string]string{
		"*idn?":                    "TEKTRONIX,TBS1052B,C012345,CF:91.1CT FV:v4.04\n",
		"*opc?":                    "1\n",
		"wfmpre:nr_pt?":            "4\n",
		"curve?":                   "#14\x00\x0a\x14\xf6\n",
		"wfmpre:xincr?":            "1.0E-3\n",
		"wfmpre:xzero?":            "0.0E0\n",
		"wfmpre:ymult?":            "1.0E-2\n",
		"wfmpre:yzero?":            "0.0E0\n",
		"wfmpre:yoff?":             "0.0E0\n",
		"*esr?":                    "0\n",
		"allev?":                   "0,\"No events\"\n",
		"MEASUrement:IMMed:VALue?": "2.5E-3\n",
	}
}

func newBenchScope(replies map[string]string, logBuf *bytes.Buffer) (*tektronix.TBS1000, *scriptedConn) {
	conn := &scriptedConn{replies: replies}
	maker := func() (io.ReadWriteCloser, error) { return conn, nil }
	pool := comm.NewPool(1, time.Minute, maker)
	scope := &tektronix.TBS1000{
		SCPI:    scpi.SCPI{Pool: pool},
		Keyword: "TBS",
		Log:     log.New(logBuf, "", 0),
	}
	return scope, conn
}

func TestConnectChecksKeyword(t *testing.T) {
	scope, _ := newBenchScope(benchScopeReplies(), &bytes.Buffer{})
	if scope.Connected() {
		t.Fatal("scope should not report connected before Connect")
	}
	if err := scope.Connect(); err != nil {
		t.Fatal(err)
	}
	if !scope.Connected() {
		t.Error("scope should report connected after Connect")
	}
}

func TestConnectRejectsWrongInstrument(t *testing.T) {
	replies := benchScopeReplies()
	replies["*idn?"] = "GW INSTEK,GPD-3303D,ABC123,V2.00\n"
	scope, _ := newBenchScope(replies, &bytes.Buffer{})
	if err := scope.Connect(); err == nil {
		t.Fatal("expected Connect to reject a non-TBS identification")
	}
}

func TestInvalidChannelFailsFast(t *testing.T) {
	scope, conn := newBenchScope(benchScopeReplies(), &bytes.Buffer{})
	_, err := scope.Period(3)
	var ice tektronix.InvalidChannelError
	if !errors.As(err, &ice) {
		t.Fatalf("expected InvalidChannelError, got %v", err)
	}
	_, err = scope.AcquireRaw(0)
	if !errors.As(err, &ice) {
		t.Fatalf("expected InvalidChannelError, got %v", err)
	}
	if len(conn.written) != 0 {
		t.Errorf("invalid channel should generate no instrument traffic, saw %v", conn.written)
	}
}

func TestAcquireRequiresConnection(t *testing.T) {
	scope, _ := newBenchScope(benchScopeReplies(), &bytes.Buffer{})
	_, err := scope.AcquireRaw(1)
	if !errors.Is(err, comm.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	_, err = scope.Period(1)
	if !errors.Is(err, comm.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestAcquireWaveform(t *testing.T) {
	scope, conn := newBenchScope(benchScopeReplies(), &bytes.Buffer{})
	if err := scope.Connect(); err != nil {
		t.Fatal(err)
	}
	wav, err := scope.AcquireWaveform(1)
	if err != nil {
		t.Fatal(err)
	}
	wantTime := []float64{0, 1, 2, 3}
	wantVolt := []float64{0.0, 0.1, 0.2, -0.1}
	if len(wav.TimeMS) != 4 || len(wav.Voltage) != 4 {
		t.Fatalf("expected 4 points, got %d/%d", len(wav.TimeMS), len(wav.Voltage))
	}
	for i := range wantTime {
		if wav.TimeMS[i] != wantTime[i] {
			t.Errorf("time[%d]: expected %g, got %g", i, wantTime[i], wav.TimeMS[i])
		}
		if diff := wav.Voltage[i] - wantVolt[i]; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("voltage[%d]: expected %g, got %g", i, wantVolt[i], wav.Voltage[i])
		}
	}
	if wav.TotalTime != 4e-3 {
		t.Errorf("expected total time 0.004, got %g", wav.TotalTime)
	}
	joined := strings.Join(conn.written, ";")
	for _, cmd := range []string{"data:encdg RIBINARY", "acquire:stopafter SEQUENCE", "wfmpre:byt_nr 1", "data:stop 4"} {
		if !strings.Contains(joined, cmd) {
			t.Errorf("acquisition never sent %q", cmd)
		}
	}
}

func TestEventStatusIsLoggedNotFatal(t *testing.T) {
	replies := benchScopeReplies()
	replies["*esr?"] = "32\n"
	replies["allev?"] = "2229,\"Measurement error, No waveform to measure\"\n"
	logBuf := &bytes.Buffer{}
	scope, _ := newBenchScope(replies, logBuf)
	if err := scope.Connect(); err != nil {
		t.Fatal(err)
	}
	_, err := scope.AcquireRaw(2)
	if err != nil {
		t.Fatalf("status bits must not fail the capture: %v", err)
	}
	logged := logBuf.String()
	if !strings.Contains(logged, "event status register: 0b00100000") {
		t.Errorf("expected ESR bit pattern in log, got %q", logged)
	}
	if !strings.Contains(logged, "Measurement error") {
		t.Errorf("expected event queue content in log, got %q", logged)
	}
}

func TestPeriod(t *testing.T) {
	scope, conn := newBenchScope(benchScopeReplies(), &bytes.Buffer{})
	if err := scope.Connect(); err != nil {
		t.Fatal(err)
	}
	p, err := scope.Period(2)
	if err != nil {
		t.Fatal(err)
	}
	if p != 2.5e-3 {
		t.Errorf("expected period 2.5e-3, got %g", p)
	}
	joined := strings.Join(conn.written, ";")
	if !strings.Contains(joined, "MEASUrement:IMMed:TYPE PERiod") {
		t.Error("period measurement type never configured")
	}
	if !strings.Contains(joined, "MEASUrement:IMMed:SOUrce CH2") {
		t.Error("period measurement source never configured")
	}
}

func TestPhaseShiftUsesReferencePeriod(t *testing.T) {
	scope, _ := newBenchScope(benchScopeReplies(), &bytes.Buffer{})
	if err := scope.Connect(); err != nil {
		t.Fatal(err)
	}
	time := []float64{0, 1, 2, 3, 4}
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{5, 4, 3, 2, 1}
	// measured period 2.5 ms over a 5 ms record: 2 samples per period,
	// 180 degrees -> 1 sample
	pair, err := scope.PhaseShift(time, a, b, 0.005, 180)
	if err != nil {
		t.Fatal(err)
	}
	if len(pair.WaveB) != 4 || pair.WaveB[0] != 4 {
		t.Errorf("unexpected aligned pair %+v", pair)
	}
}

func TestConfigureWalksSetupSequence(t *testing.T) {
	scope, conn := newBenchScope(benchScopeReplies(), &bytes.Buffer{})
	if err := scope.Connect(); err != nil {
		t.Fatal(err)
	}
	if err := scope.Configure(tektronix.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(conn.written, ";")
	for _, cmd := range []string{"*rst", "autoset EXECUTE", "CH1:COUPLING AC", "TRIGGER:MAIN:EDGE:SOURCE CH2"} {
		if !strings.Contains(joined, cmd) {
			t.Errorf("configure never sent %q", cmd)
		}
	}
}
