package gwinstek

import (
	"errors"
	"testing"
)

func TestParseReading(t *testing.T) {
	cases := []struct {
		resp string
		want float64
	}{
		{"12.500V", 12.5},
		{"12.500V\r\n", 12.5},
		{"0.250A", 0.25},
		{"1.000 A", 1},
		{"5.000", 5},
	}
	for _, c := range cases {
		got, err := ParseReading(c.resp)
		if err != nil {
			t.Errorf("ParseReading(%q) errored: %v", c.resp, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseReading(%q) = %v, want %v", c.resp, got, c.want)
		}
	}
}

func TestParseReadingRejectsGarbage(t *testing.T) {
	_, err := ParseReading("no reading")
	if err == nil {
		t.Error("expected an error for non-numeric response")
	}
}

func TestInvalidChannelRejectedWithoutIO(t *testing.T) {
	// pool is nil; any attempt to talk to hardware would panic
	psu := &GPD3303D{}
	err := psu.SetVoltage(3, 1.0)
	var ice InvalidChannelError
	if !errors.As(err, &ice) {
		t.Fatalf("expected InvalidChannelError, got %v", err)
	}
	if int(ice) != 3 {
		t.Errorf("error should carry the offending channel, got %d", int(ice))
	}
}
