// Command lockin runs a software lock-in measurement on a TBS1000 series
// oscilloscope: capture both channels, shift the reference by a phase,
// mix, and report the mean of the product.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/theckman/yacspin"

	"github.com/yorkuphyslab/labbench/oscilloscope"
	"github.com/yorkuphyslab/labbench/tektronix"
	"github.com/yorkuphyslab/labbench/usbtmc"
)

func main() {
	var (
		addr     = flag.String("addr", "", "network or serial address of the scope")
		serial   = flag.Bool("serial", false, "addr is a serial port, not TCP")
		usb      = flag.Bool("usb", false, "connect over USBTMC instead of addr")
		pid      = flag.Int("pid", 0x03a6, "USB product ID, used with -usb")
		phase    = flag.Float64("phase", 0, "phase shift applied to the reference, degrees")
		settle   = flag.Duration("settle", 2*time.Second, "wait between the two captures")
		out      = flag.String("out", "lockin.csv", "output CSV path")
		hscale   = flag.Float64("hscale", 5e-3, "horizontal scale, seconds per division")
		ch1scale = flag.Float64("ch1scale", 50e-3, "channel 1 scale, volts per division")
		ch2scale = flag.Float64("ch2scale", 2, "channel 2 scale, volts per division")
	)
	flag.Parse()
	if *addr == "" && !*usb {
		log.Fatal("one of -addr or -usb is required")
	}

	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[59],
		Suffix:          " lock-in",
		SuffixAutoColon: true,
		StopCharacter:   "✓",
		StopColors:      []string{"fgGreen"},
	}
	spinner, err := yacspin.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	spinner.Start()
	defer spinner.Stop()

	var scope *tektronix.TBS1000
	if *usb {
		scope = tektronix.NewTBS1000USB(usbtmc.TektronixVID, uint16(*pid))
	} else {
		scope = tektronix.NewTBS1000(*addr, *serial)
	}

	spinner.Message("connecting")
	err = scope.Connect()
	if err != nil {
		spinner.StopFail()
		log.Fatal(err)
	}

	spinner.Message("configuring")
	scfg := tektronix.DefaultConfig()
	scfg.HorizontalScale = *hscale
	scfg.Ch1Scale = *ch1scale
	scfg.Ch2Scale = *ch2scale
	err = scope.Configure(scfg)
	if err != nil {
		spinner.StopFail()
		log.Fatal(err)
	}

	spinner.Message("acquiring both channels")
	res, err := scope.LockIn(*phase, *settle)
	if err != nil {
		spinner.StopFail()
		log.Fatal(err)
	}
	spinner.Stop()

	fmt.Printf("lock-in output at %g deg: %.3f mV^2\n", *phase, res.Mean*1000)

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	labels := []string{"time_ms", "signal_v", "reference_v", "mixed_v2"}
	err = oscilloscope.EncodeColumnsCSV(f, labels, res.TimeMS, res.Signal, res.Reference, res.Mixed)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("wrote", *out)
}
