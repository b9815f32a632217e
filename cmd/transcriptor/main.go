package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/mvaldes-dev/transcriptor/internal/app"
	"github.com/mvaldes-dev/transcriptor/internal/audio"
	"github.com/mvaldes-dev/transcriptor/internal/config"
	"github.com/mvaldes-dev/transcriptor/internal/hotkey"
	"github.com/mvaldes-dev/transcriptor/internal/inject"
	"github.com/mvaldes-dev/transcriptor/internal/models"
	"github.com/mvaldes-dev/transcriptor/internal/notify"
	"github.com/mvaldes-dev/transcriptor/internal/tray"
	"github.com/mvaldes-dev/transcriptor/internal/transcribe"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/transcriptor/config.yaml)")
	listDevices := flag.Bool("devices", false, "list capture devices and exit")
	downloadOnly := flag.Bool("download-model", false, "download the configured model and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      config.ParseLogLevel(cfg.LogLevel),
		TimeFormat: time.Kitchen,
	})))

	if *listDevices {
		printDevices()
		return
	}

	modelPath := cfg.ModelPath(cfg.ModelSize)
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := models.Download(cfg.ModelsDir, cfg.ModelSize); err != nil {
			slog.Error("model download failed", "size", cfg.ModelSize, "error", err)
			os.Exit(1)
		}
	}
	if *downloadOnly {
		return
	}

	printBanner(cfg, modelPath)

	engine, err := audio.NewEngine()
	if err != nil {
		slog.Error("audio init failed", "error", err)
		os.Exit(1)
	}
	engine.SetDevice(cfg.Audio.Device)

	transcriber := transcribe.NewWhisper(cfg.ModelsDir, cfg.ModelSize)
	injector := inject.NewInjector(cfg.InjectMethod, cfg.PasteShortcut)
	notifier := notify.NewNotifier(cfg.Notifications)

	window := time.Duration(cfg.Hotkey.DebounceMS) * time.Millisecond
	mode, err := hotkey.ParseMode(cfg.Hotkey.Mode)
	if err != nil {
		slog.Error("hotkey config invalid", "error", err)
		os.Exit(1)
	}
	deb := hotkey.NewDebouncer(mode, window)
	listener, err := hotkey.NewListener(cfg.Hotkey.Key, deb)
	if err != nil {
		slog.Error("hotkey config invalid", "error", err)
		os.Exit(1)
	}

	var a *app.App
	sink := tray.ForPlatform(func() { shutdown(a, engine, transcriber) })

	a = app.New(cfg, app.Deps{
		Engine:      engine,
		Transcriber: transcriber,
		Injector:    injector,
		Notifier:    notifier,
		Sink:        sink,
		Hotkey:      listener,
		SaveConfig: func(c *config.Config) error {
			return c.Save(savePath(*configPath))
		},
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig.String())
		shutdown(a, engine, transcriber)
	}()

	go listener.Run()

	slog.Info("ready", "hotkey", cfg.Hotkey.Key, "mode", cfg.Hotkey.Mode)
	a.Run(deb.Events())
}

// shutdown tears everything down and exits the process directly. gohook
// crashes in its C cleanup when the hook is torn down from a signal
// context; letting the OS reclaim it is safe.
func shutdown(a *app.App, engine *audio.Engine, transcriber transcribe.Transcriber) {
	if a != nil {
		a.Shutdown()
	}
	engine.Close()
	transcriber.Close()
	os.Exit(0)
}

// loadConfig loads the config from the given path, or writes and loads
// the default config file on first run.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	written, err := config.WriteDefault()
	if err != nil {
		return nil, err
	}
	if written != "" {
		fmt.Printf("Wrote default config to %s\n", written)
	}
	return config.Load(config.DefaultConfigPath())
}

// savePath is where runtime setting changes get persisted.
func savePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	return config.DefaultConfigPath()
}

func printDevices() {
	engine, err := audio.NewEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "audio init: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	devices, err := engine.Devices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "listing devices: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Capture devices:")
	for _, d := range devices {
		mark := " "
		if d.IsDefault {
			mark = "*"
		}
		fmt.Printf("  %s %s (%dch, %dHz)\n", mark, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
	}
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config, modelPath string) {
	fmt.Println("=== transcriptor ===")
	fmt.Printf("  Model:    %s\n", modelPath)
	fmt.Printf("  Language: %s\n", cfg.Language)
	fmt.Printf("  Hotkey:   %s (%s mode)\n", cfg.Hotkey.Key, cfg.Hotkey.Mode)
	if cfg.Audio.Device != "" {
		fmt.Printf("  Device:   %s\n", cfg.Audio.Device)
	} else {
		fmt.Printf("  Device:   system default\n")
	}
	fmt.Printf("  Log:      %s\n", cfg.LogLevel)
	fmt.Println("====================")
}
