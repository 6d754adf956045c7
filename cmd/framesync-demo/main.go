package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	framesync "github.com/jonoton/go-framesync"
	"github.com/jonoton/go-framesync/internal/config"
	"github.com/jonoton/go-framesync/internal/control"
	"github.com/jonoton/go-framesync/internal/synthetic"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	if err := run(context.Background(), *configPath, *envFile); err != nil {
		slog.Error("framesync demo failed", "error", err)
		os.Exit(1)
	}
}

// run owns every resource of the demo, so its deferred cleanup always runs
// before main decides the exit code.
func run(ctx context.Context, configPath, envFile string) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, _ := cfg.Log.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Log.JSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("starting framesync demo",
		"config", configPath,
		"listen", cfg.Listen,
		"fps", cfg.FPS,
		"overlay", cfg.Overlay,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clips := make(map[string]synthetic.Clip, len(cfg.Clips))
	for name, c := range cfg.Clips {
		clips[name] = synthetic.Clip{
			Width:     c.Width,
			Height:    c.Height,
			FrameRate: c.FrameRate,
			Frames:    c.Frames,
			FailAt:    c.FailAt,
		}
	}

	bounds := image.Rect(cfg.Bounds.X, cfg.Bounds.Y, cfg.Bounds.X+cfg.Bounds.Width, cfg.Bounds.Y+cfg.Bounds.Height)
	events := make(chan framesync.Event, 64)
	ctrl := framesync.NewController(
		synthetic.NewOpener(clips),
		&logSurface{logger: logger},
		&logAudio{logger: logger},
		framesync.WithLogger(framesync.NewSlogLogger(logger)),
		framesync.WithEventChannel(events),
		framesync.WithOverlay(cfg.Overlay),
		framesync.WithBounds(framesync.BoundsFunc(func() image.Rectangle { return bounds })),
	)
	defer ctrl.Unload()

	finished := make(chan struct{})
	go watchEvents(ctx, events, finished)

	loop := framesync.NewLoop(ctx, ctrl, cfg.FPS, framesync.WithLoopLogger(framesync.NewSlogLogger(logger)))
	defer loop.Close()

	if cfg.Autoplay != "" {
		if err := ctrl.Load(cfg.Autoplay); err != nil {
			return fmt.Errorf("load autoplay source: %w", err)
		}
		ctrl.Play()
	}

	if cfg.Listen == "" {
		if cfg.Autoplay == "" {
			return errors.New("nothing to do: set listen or autoplay")
		}
		select {
		case <-finished:
		case <-ctx.Done():
		}
		m := loop.Metrics()
		slog.Info("playback finished",
			"metrics", ctrl.Metrics(),
			"ticks", m.Ticks,
			"mean_interval", m.MeanInterval,
			"jitter", m.Jitter,
			"stable", m.Stable,
		)
		return nil
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           control.NewRouter(ctrl, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("control server listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		slog.Error("control server failed", "error", serveErr)
	}
	slog.Info("shutting down gracefully", "timeout", shutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(serveErr, fmt.Errorf("shutdown: %w", err))
	}
	return serveErr
}

// watchEvents logs controller events and closes finished the first time a
// playback ends, whether by completion or by error.
func watchEvents(ctx context.Context, events <-chan framesync.Event, finished chan<- struct{}) {
	done := false
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			attrs := []any{"event", string(e.Type), "session", e.Session.String()}
			for k, v := range e.Metadata {
				attrs = append(attrs, k, v)
			}
			slog.Debug("playback event", attrs...)

			if !done && (e.Type == framesync.EventPlaybackCompleted || e.Type == framesync.EventDecodeFailed) {
				done = true
				close(finished)
			}
		}
	}
}
