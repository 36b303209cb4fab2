// Package util contains misc internal utilities.
package util

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"
)

// Clamp limits x to the range low < x < high
func Clamp(x, low, high float64) float64 {
	if x < low {
		return low
	}
	if x > high {
		return high
	}
	return x
}

// WriteXYCSV writes paired measurements to w as CSV with a header row.
// Used for position/weight logs and similar two column datasets.
func WriteXYCSV(w io.Writer, header [2]string, rows [][2]float64) error {
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)
	err := cw.Write(header[:])
	if err != nil {
		return err
	}
	for _, row := range rows {
		rec := []string{
			strconv.FormatFloat(row[0], 'G', -1, 64),
			strconv.FormatFloat(row[1], 'G', -1, 64)}
		err = cw.Write(rec)
		if err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
