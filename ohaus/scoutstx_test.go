package ohaus_test

import (
	"errors"
	"testing"

	"github.com/yorkuphyslab/labbench/ohaus"
)

func TestParseWeight(t *testing.T) {
	cases := []struct {
		resp string
		want float64
	}{
		{"   12.34 g", 12.34},
		{"12.34 g", 12.34},
		{"  -0.02 g", -0.02},
		{"150.00 g\r", 150},
	}
	for _, tc := range cases {
		got, err := ohaus.ParseWeight(tc.resp)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.resp, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: expected %g, got %g", tc.resp, tc.want, got)
		}
	}
}

func TestParseWeightUnstable(t *testing.T) {
	_, err := ohaus.ParseWeight("  12.34 g ?")
	var unstable ohaus.ErrUnstableReading
	if !errors.As(err, &unstable) {
		t.Fatalf("expected ErrUnstableReading, got %v", err)
	}
}

func TestParseWeightEmpty(t *testing.T) {
	_, err := ohaus.ParseWeight("   ")
	if err == nil {
		t.Fatal("expected an error for a blank response")
	}
}
