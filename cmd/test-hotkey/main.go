// Command test-hotkey is a manual test for the global hotkey listener
// and its debouncer. Run it, press the key and watch the events.
// Press Ctrl+C to exit.
//
// Usage:
//
//	go run ./cmd/test-hotkey [--key f12] [--mode push_to_talk|toggle] [--debounce 75]
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mvaldes-dev/transcriptor/internal/hotkey"
)

func main() {
	key := flag.String("key", "f12", "hotkey to listen for")
	modeStr := flag.String("mode", "push_to_talk", "hotkey mode: push_to_talk or toggle")
	debounceMS := flag.Int("debounce", 75, "release debounce window in milliseconds")
	flag.Parse()

	mode, err := hotkey.ParseMode(*modeStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	deb := hotkey.NewDebouncer(mode, time.Duration(*debounceMS)*time.Millisecond)
	listener, err := hotkey.NewListener(*key, deb)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Listening for %q in %q mode (debounce %dms)...\n", *key, *modeStr, *debounceMS)
	fmt.Println("Press Ctrl+C to exit.")

	// Handle Ctrl+C
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		listener.Stop()
		// gohook's C cleanup is not reentrant from signal context.
		os.Exit(0)
	}()

	// Read events
	go func() {
		for ev := range deb.Events() {
			switch ev.Type {
			case hotkey.EventActivate:
				fmt.Println(">>> ACTIVATE (start recording)")
			case hotkey.EventDeactivate:
				fmt.Println("<<< DEACTIVATE (stop recording)")
			}
		}
		fmt.Println("Event channel closed.")
	}()

	// Blocks until stopped
	listener.Run()
	fmt.Println("Done.")
}
