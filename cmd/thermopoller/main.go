// cmd/thermopoller/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tamzrod/modbus-thermo/internal/api"
	"github.com/tamzrod/modbus-thermo/internal/config"
	"github.com/tamzrod/modbus-thermo/internal/indicator"
	"github.com/tamzrod/modbus-thermo/internal/metric"
	"github.com/tamzrod/modbus-thermo/internal/poller"
	pmodbus "github.com/tamzrod/modbus-thermo/internal/poller/modbus"
	"github.com/tamzrod/modbus-thermo/internal/store"
	"github.com/tamzrod/modbus-thermo/internal/writer"
)

func main() {
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "dotenv: %v\n", err)
		os.Exit(1)
	}

	cfgPath := configPath(os.Args, os.Getenv)
	if cfgPath == "" {
		fmt.Fprintln(os.Stderr, "usage: thermopoller <config.yaml> (or set THERMO_CONFIG)")
		os.Exit(2)
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config validation failed: %v\n", err)
		os.Exit(1)
	}
	config.Normalize(cfg)

	if v := os.Getenv("THERMO_HTTP_LISTEN"); v != "" {
		cfg.HTTP.Listen = v
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		// fail-stop: deferred closers in run already drove the indicator low
		logger.Error("thermopoller stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("thermopoller shut down")
}

// run builds every component and blocks until ctx is cancelled or a
// component fails. Any build error is an initialization failure.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	metrics := metric.New()

	// --------------------
	// Indicator (first, so every later failure leaves it low)
	// --------------------

	pin, err := openPin(cfg.Indicator)
	if err != nil {
		return err
	}
	ind, err := indicator.New(pin, logger.With("component", "indicator"), metrics)
	if err != nil {
		_ = pin.Close()
		return err
	}
	defer ind.Close()

	// --------------------
	// Bus + store + poller
	// --------------------

	bus, err := pmodbus.New(poller.BusConfig(cfg.Bus))
	if err != nil {
		return err
	}
	defer bus.Close()

	sensors := poller.Sensors(cfg)
	st, err := store.New(poller.Keys(sensors))
	if err != nil {
		return err
	}

	pollLog := logger.With("component", "poller")
	p, err := poller.Build(cfg, bus, st, ind, pollLog, metrics)
	if err != nil {
		return err
	}

	// --------------------
	// Cycle delivery targets
	// --------------------

	hub := api.NewHub(logger.With("component", "websocket"))
	targets := []writer.Target{hub}

	if cfg.Publish.NATS.URL != "" {
		nt, err := writer.NewNATSTarget(writer.NATSConfig{
			URL:     cfg.Publish.NATS.URL,
			Subject: cfg.Publish.NATS.Subject,
			Timeout: time.Duration(cfg.Bus.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return err
		}
		defer nt.Close()
		targets = append(targets, nt)
	}
	cycleWriter := writer.New(targets, metrics)

	// --------------------
	// Request service
	// --------------------

	srv, err := api.New(api.Options{
		Store:        st,
		Output:       ind,
		Sensors:      sensors,
		Metrics:      metrics,
		Hub:          hub,
		Logger:       logger.With("component", "http"),
		CommandRate:  rate.Limit(cfg.HTTP.CommandRate),
		CommandBurst: cfg.HTTP.CommandBurst,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.HTTP.Listen)
	if err != nil {
		return fmt.Errorf("http listen %s: %w", cfg.HTTP.Listen, err)
	}

	logger.Info("thermopoller started",
		"transport", cfg.Bus.Transport,
		"sensors", len(sensors),
		"interval_ms", cfg.Poll.IntervalMs,
		"listen", ln.Addr().String(),
	)

	// --------------------
	// Run until signal or failure
	// --------------------

	g, gctx := errgroup.WithContext(ctx)
	results := make(chan poller.CycleResult, 1)

	g.Go(func() error {
		defer close(results)
		p.Run(gctx, results)
		return nil
	})

	g.Go(func() error {
		for res := range results {
			if err := cycleWriter.Write(res); err != nil {
				logger.Warn("cycle delivery failed", "cycle", res.Cycle, "err", err)
			}
		}
		return nil
	})

	g.Go(func() error {
		if err := srv.Serve(gctx, ln); err != nil {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func openPin(c config.IndicatorConfig) (indicator.Pin, error) {
	switch c.Driver {
	case "gpio":
		return indicator.OpenGPIO(c.Pin, c.ActiveLow)
	case "none":
		return indicator.NewMemoryPin(), nil
	default:
		return nil, fmt.Errorf("indicator: unsupported driver %q", c.Driver)
	}
}

func configPath(args []string, getenv func(string) string) string {
	if len(args) >= 2 && args[1] != "" {
		return args[1]
	}
	return getenv("THERMO_CONFIG")
}

// loadDotEnv loads environment overrides from path; a missing file is fine.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
