package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/pinsim/pinsim/internal/config"
	"github.com/pinsim/pinsim/internal/game"
	"github.com/pinsim/pinsim/internal/input"
	"github.com/pinsim/pinsim/internal/terminal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path("config/pinsim.toml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Open the terminal
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()
	if cfg.Input.Mouse {
		screen.EnableMouse()
	}
	screen.EnableFocus()
	screen.HideCursor()

	// 4. Build the game
	raw := make(chan input.Raw, 256)
	g, err := game.New(cfg, game.Deps{Screen: screen, Raw: raw, Log: log})
	if err != nil {
		return fmt.Errorf("build game: %w", err)
	}
	defer g.Close()

	// 5. Run input and simulation until quit or a signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	source := terminal.NewSource(screen, cfg.Input.KeyRelease, log.Named("terminal"))
	eg.Go(func() error {
		return source.Run(ctx, raw)
	})
	eg.Go(func() error {
		defer cancel()
		return g.Run(ctx)
	})
	if err := eg.Wait(); err != nil {
		return err
	}
	log.Info("shutdown complete", zap.String("run", g.ID().String()), zap.Uint64("frames", g.Frames()))
	return nil
}

// newLogger builds the process logger. The terminal belongs to the game, so
// output goes to the configured file.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	}

	return zapCfg.Build()
}
