// Command sndconvert converts WAV and MP3 files into vintage sampler
// formats: Akai S3000/MPC3000 SND samples, SP-1200 sample files, and
// SP-1200 disk images.
//
// Single file:
//
//	sndconvert -in kick.wav -format snd -out kick.snd
//	sndconvert -in kick.wav -format sp12 -bank A -pad 1 -out kick.sp12
//
// Disk image from pad-addressed arguments:
//
//	sndconvert -disk disk.sp12 A1=kick.wav B3=snare.wav
//
// Push a directory of pad-addressed files to a running sndserver:
//
//	sndconvert -push http://localhost:8080 -dir ./samples
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/SPODhub/mpc3000-snd-player/internal/audio"
	"github.com/SPODhub/mpc3000-snd-player/internal/logging"
	"github.com/SPODhub/mpc3000-snd-player/internal/push"
	"github.com/SPODhub/mpc3000-snd-player/internal/snd"
	"github.com/SPODhub/mpc3000-snd-player/internal/sp12"
	"github.com/SPODhub/mpc3000-snd-player/internal/wav"
)

func main() {
	var (
		inPath   = flag.String("in", "", "input WAV or MP3 file")
		outPath  = flag.String("out", "", "output file (defaults next to input)")
		format   = flag.String("format", "sp12", "target format: sp12 or snd")
		bankFlag = flag.String("bank", "A", "SP-1200 bank (A-D)")
		padFlag  = flag.Int("pad", 1, "SP-1200 pad (1-8)")
		tuning   = flag.Int("tuning", 0, "tuning offset in semitones (-12..12)")
		name     = flag.String("name", "", "sample name (defaults to the input file name)")
		diskPath = flag.String("disk", "", "build a disk image from BANKPAD=file arguments")
		pushURL  = flag.String("push", "", "push files to a running server at this URL")
		pushDir  = flag.String("dir", "", "directory of pad-addressed files for -push")
		token    = flag.String("token", "", "bearer token for -push")
		sessionF = flag.String("session", "", "server session ID for -push")
		logLevel = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	logger := logging.New(*logLevel, "text")

	if *tuning < -12 || *tuning > 12 {
		fatal("tuning must be between -12 and 12")
	}

	switch {
	case *pushURL != "":
		if *pushDir == "" {
			fatal("-push requires -dir")
		}
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		client := push.NewClient(&push.Config{
			ServerURL:   *pushURL,
			BearerToken: *token,
			Tuning:      *tuning,
			Session:     *sessionF,
		}, logger)
		if err := client.PushDir(ctx, *pushDir); err != nil {
			fatal(err.Error())
		}

	case *diskPath != "":
		if flag.NArg() == 0 {
			fatal("-disk requires BANKPAD=file arguments, e.g. A1=kick.wav")
		}
		if err := buildDisk(*diskPath, flag.Args(), *tuning); err != nil {
			fatal(err.Error())
		}

	case *inPath != "":
		if err := convertOne(*inPath, *outPath, *format, *bankFlag, *padFlag, *tuning, *name); err != nil {
			fatal(err.Error())
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "sndconvert: "+msg)
	os.Exit(1)
}

// loadSource reads and decodes an input file into a mono PCM source.
func loadSource(path string) (audio.Source, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return audio.Source{}, nil, err
	}

	if len(data) >= 12 && string(data[0:4]) == "RIFF" {
		f, err := wav.Parse(data)
		if err != nil {
			return audio.Source{}, nil, err
		}
		if err := f.Validate(); err != nil {
			return audio.Source{}, nil, err
		}
		return audio.Extract(f), f.Warnings(), nil
	}

	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		src, err := audio.SourceFromMP3(data)
		return src, nil, err
	}

	return audio.Source{}, nil, fmt.Errorf("%s: unrecognized audio container", path)
}

// baseName strips directory and extension from a path.
func baseName(path string) string {
	b := filepath.Base(path)
	return strings.TrimSuffix(b, filepath.Ext(b))
}

// makeAssignment converts one source file into an SP-1200 pad assignment.
func makeAssignment(path string, bank sp12.Bank, pad, tuning int, name string) (sp12.PadAssignment, error) {
	src, warnings, err := loadSource(path)
	if err != nil {
		return sp12.PadAssignment{}, err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "sndconvert: warning: %s: %s\n", filepath.Base(path), w)
	}

	rate := audio.TunedRate(sp12.SampleRate, tuning)
	samples, truncated := audio.Resample(src, rate, sp12.MaxSampleWords)
	if truncated {
		fmt.Fprintf(os.Stderr, "sndconvert: warning: %s truncated to 2.5 seconds\n", filepath.Base(path))
	}

	if name == "" {
		name = baseName(path)
	}
	meta := sp12.DefaultMetadata()
	meta.Tuning = tuning

	return sp12.PadAssignment{
		Bank: bank,
		Pad:  pad,
		Name: name,
		Data: audio.PackSP12(samples),
		Meta: meta,
	}, nil
}

// convertOne converts a single input file to the chosen target format.
func convertOne(inPath, outPath, format, bankFlag string, pad, tuning int, name string) error {
	if name == "" {
		name = baseName(inPath)
	}

	var out []byte
	var ext string

	switch format {
	case "snd":
		src, warnings, err := loadSource(inPath)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "sndconvert: warning: %s\n", w)
		}
		samples, _ := audio.Resample(src, 44100, 0)
		out = snd.Encode(&snd.Sample{
			Name:       name,
			SampleRate: 44100,
			SemiTune:   int8(tuning),
			PCM:        audio.PCM16(samples),
		})
		ext = ".snd"

	case "sp12":
		bank, err := sp12.ParseBank(bankFlag)
		if err != nil {
			return err
		}
		a, err := makeAssignment(inPath, bank, pad, tuning, name)
		if err != nil {
			return err
		}
		out, err = sp12.EncodeSample(a)
		if err != nil {
			return err
		}
		ext = ".sp12"

	default:
		return fmt.Errorf("unknown format %q (want sp12 or snd)", format)
	}

	if outPath == "" {
		outPath = strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ext
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes)\n", outPath, len(out))
	return nil
}

// buildDisk assembles a disk image from BANKPAD=file arguments.
func buildDisk(diskPath string, args []string, tuning int) error {
	builder := sp12.NewBuilder()

	for _, arg := range args {
		addr, file, ok := strings.Cut(arg, "=")
		if !ok || len(addr) != 2 {
			return fmt.Errorf("bad argument %q (want e.g. A1=kick.wav)", arg)
		}
		bank, err := sp12.ParseBank(addr[:1])
		if err != nil {
			return err
		}
		pad := int(addr[1] - '0')

		a, err := makeAssignment(file, bank, pad, tuning, "")
		if err != nil {
			return err
		}
		if err := builder.AddSample(a); err != nil {
			return err
		}
	}

	img, err := builder.CreateDiskImage()
	if err != nil {
		return err
	}
	if err := os.WriteFile(diskPath, img, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d pads, %d bytes)\n", diskPath, builder.Len(), len(img))
	return nil
}
