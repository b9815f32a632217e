// Command test-audio is a manual test for the capture pipeline. It
// records for a few seconds from the configured (or default) device and
// writes the processed 16 kHz result to a WAV file for listening.
//
// Usage:
//
//	go run ./cmd/test-audio [--device pulse] [--seconds 3] [--out test.wav]
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/mvaldes-dev/transcriptor/internal/audio"
)

func main() {
	device := flag.String("device", "", "capture device name (empty = system default)")
	seconds := flag.Int("seconds", 3, "recording duration")
	out := flag.String("out", "test.wav", "output WAV path")
	list := flag.Bool("list", false, "list capture devices and exit")
	flag.Parse()

	engine, err := audio.NewEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "audio init: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	if *list {
		devices, err := engine.Devices()
		if err != nil {
			fmt.Fprintf(os.Stderr, "listing devices: %v\n", err)
			os.Exit(1)
		}
		for _, d := range devices {
			mark := " "
			if d.IsDefault {
				mark = "*"
			}
			fmt.Printf("%s %s (%dch, %dHz)\n", mark, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
		}
		return
	}

	engine.SetDevice(*device)

	fmt.Printf("Recording %ds...\n", *seconds)
	if err := engine.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		os.Exit(1)
	}
	if engine.FallbackUsed() {
		fmt.Println("Configured device unavailable, using fallback input.")
	}
	time.Sleep(time.Duration(*seconds) * time.Second)

	samples := engine.Stop()
	if len(samples) == 0 {
		fmt.Println("No audio captured.")
		os.Exit(1)
	}
	fmt.Printf("Captured %.1fs at %dHz\n", float64(len(samples))/float64(audio.TargetRate), audio.TargetRate)

	if err := writeWAV(*out, samples); err != nil {
		fmt.Fprintf(os.Stderr, "writing wav: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *out)
}

// writeWAV saves mono float32 samples as 16-bit PCM.
func writeWAV(path string, samples []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, int(audio.TargetRate), 16, 1, 1)

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: int(audio.TargetRate)},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf.Data[i] = int(s * 32767)
	}

	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
