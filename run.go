package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kapitanov/chip8/internal/audio"
	"github.com/kapitanov/chip8/internal/config"
	"github.com/kapitanov/chip8/internal/emulator"
	"github.com/kapitanov/chip8/internal/hal"
	"github.com/kapitanov/chip8/internal/hal/headless"
	"github.com/kapitanov/chip8/internal/hal/sdl"
	"github.com/kapitanov/chip8/internal/hal/terminal"
	"github.com/kapitanov/chip8/internal/rom"
	"github.com/kapitanov/chip8/internal/vm"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s PATH_TO_ROM_FILE", filepath.Base(os.Args[0])),
		Short:         "Run emulator",
		Long:          "Run a CHIP-8 program from a file, an http(s) URL or one of the known ROM names:\n  " + strings.Join(rom.Known, " "),
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable verbose logging")
	cmd.PersistentPreRun = func(*cobra.Command, []string) {
		setupLogger(cfg.Verbose)
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.Speed, "speed", cfg.Speed, "instructions executed per frame")
	flags.IntVar(&cfg.FPS, "fps", cfg.FPS, "frames per second")
	flags.Float64Var(&cfg.Frequency, "frequency", cfg.Frequency, "speaker tone frequency, Hz")
	flags.StringVar((*string)(&cfg.Backend), "backend", string(cfg.Backend), fmt.Sprintf("host backend, one of %v", config.Backends))
	flags.IntVar(&cfg.Frames, "frames", cfg.Frames, "number of frames to run with the headless backend")
	flags.IntVar(&cfg.Scale, "scale", cfg.Scale, "window pixel scale")
	flags.StringVar(&cfg.RomDir, "rom-dir", cfg.RomDir, "directory holding the known ROMs")
	flags.StringVar(&cfg.Snapshot, "snapshot", cfg.Snapshot, "write the last headless frame to this file")
	flags.StringVar(&cfg.Record, "record", cfg.Record, "record the speaker to this WAV file instead of playing it")
	flags.BoolVar(&cfg.Mute, "mute", cfg.Mute, "disable sound")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cfg, args[0])
	}

	cmd.AddCommand(newDisasmCommand())
	return cmd
}

func setupLogger(verbose bool) {
	loggerOpts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if verbose {
		loggerOpts.Level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, loggerOpts)))
}

func run(ctx context.Context, cfg config.Config, src string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	program, err := rom.Load(ctx, rom.Resolve(cfg.RomDir, src))
	if err != nil {
		return err
	}

	speaker, closeSpeaker := openSpeaker(cfg)
	defer closeSpeaker()

	h, err := openBackend(cfg, src)
	if err != nil {
		return fmt.Errorf("unable to initialize hal: %w", err)
	}
	defer h.Shutdown()

	emu := emulator.New(cfg, h, speaker)
	if err := emu.LoadROM(program); err != nil {
		return err
	}

	return emu.Run(ctx)
}

func openSpeaker(cfg config.Config) (vm.Speaker, func()) {
	switch {
	case cfg.Record != "":
		rec := audio.NewRecorder(cfg.Record, cfg.FPS)
		return rec, func() {
			if err := rec.Close(); err != nil {
				slog.Error("failed to save recording", "err", err)
			}
		}

	case cfg.Mute || cfg.Backend == config.BackendHeadless:
		return audio.Mute{}, func() {}
	}

	tone, err := audio.NewTone()
	if err != nil {
		slog.Warn("sound disabled", "err", err)
		return audio.Mute{}, func() {}
	}
	return tone, func() {
		if err := tone.Close(); err != nil {
			slog.Error("failed to close audio", "err", err)
		}
	}
}

func openBackend(cfg config.Config, src string) (hal.HAL, error) {
	switch cfg.Backend {
	case config.BackendTerminal:
		level := slog.LevelInfo
		if cfg.Verbose {
			level = slog.LevelDebug
		}
		return terminal.New(level)

	case config.BackendHeadless:
		return headless.New(cfg.Frames, cfg.Snapshot), nil

	default:
		return sdl.New(fmt.Sprintf("CHIP-8: %s", filepath.Base(src)), cfg.Scale)
	}
}
