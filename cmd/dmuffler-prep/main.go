// SPDX-License-Identifier: EPL-2.0

// Command dmuffler-prep converts a recording into a 16-bit WAV clip in the
// stream format, so the daemon's sound bank loads without resampling.
//
//	dmuffler-prep -rate 44100 -channels 2 -rms 0.2 idle.mp3 audio/800rpm.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ik5/dmuffler"
	"github.com/ik5/dmuffler/formats"
	"github.com/ik5/dmuffler/formats/wav"
	"github.com/ik5/dmuffler/internal/soundbank"
)

var errUsage = errors.New("usage: dmuffler-prep [flags] <input.{wav|mp3|ogg|aiff}> <output.wav>")

type options struct {
	rate     int
	channels int
	rms      float64
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "dmuffler-prep:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var opts options

	fs := flag.NewFlagSet("dmuffler-prep", flag.ContinueOnError)
	fs.IntVar(&opts.rate, "rate", 44100, "output sample rate")
	fs.IntVar(&opts.channels, "channels", 2, "output channel count")
	fs.Float64Var(&opts.rms, "rms", 0, "normalise to this RMS level (0 keeps the level)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errUsage
	}

	return prepare(fs.Arg(0), fs.Arg(1), opts, stdout)
}

func prepare(inPath, outPath string, opts options, stdout io.Writer) error {
	pcm, rate, channels, err := dmuffler.DecodeFile(formats.NewRegistry(), inPath, opts.rate, opts.channels)
	if err != nil {
		return err
	}

	profile := soundbank.Analyze(pcm, opts.channels, opts.rate)
	if opts.rms > 0 {
		profile = soundbank.Normalize(pcm, profile, opts.rms)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}

	err = wav.WriteFloat(out, opts.rate, opts.channels, pcm)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%s: %w", outPath, err)
	}

	fmt.Fprintf(stdout, "%s: %d Hz/%d ch -> %s: %d Hz/%d ch, %.2fs, peak %.3f, rms %.3f, dominant %.0f Hz\n",
		inPath, rate, channels, outPath, opts.rate, opts.channels,
		float64(len(pcm)/opts.channels)/float64(opts.rate),
		profile.Peak, profile.RMS, profile.DominantHz)

	return nil
}
