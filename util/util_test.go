package util_test

import (
	"strings"
	"testing"

	"github.com/yorkuphyslab/labbench/util"
)

func TestClampHigh(t *testing.T) {
	var (
		low   = 0.
		high  = 10.
		input = 20.
	)
	clamped := util.Clamp(input, low, high)
	if clamped != high {
		t.Errorf("expected out of range value %f to be clipped to %f < x < %f, got %f", input, low, high, clamped)
	}
}

func TestClampLow(t *testing.T) {
	var (
		low   = 0.
		high  = 10.
		input = -5.
	)
	clamped := util.Clamp(input, low, high)
	if clamped != low {
		t.Errorf("expected out of range value %f to be clipped to %f < x < %f, got %f", input, low, high, clamped)
	}
}

func TestClampPassthrough(t *testing.T) {
	if out := util.Clamp(5, 0, 10); out != 5 {
		t.Errorf("in-range value should be unchanged, got %f", out)
	}
}

func TestWriteXYCSV(t *testing.T) {
	var sb strings.Builder
	rows := [][2]float64{{1, 2.5}, {2, 3.75}}
	err := util.WriteXYCSV(&sb, [2]string{"Position", "Weight"}, rows)
	if err != nil {
		t.Fatalf("write errored: %v", err)
	}
	expected := "Position,Weight\n1,2.5\n2,3.75\n"
	if sb.String() != expected {
		t.Errorf("expected %q got %q", expected, sb.String())
	}
}
