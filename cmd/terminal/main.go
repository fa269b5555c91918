// derivterm is a real-time trading terminal core for crypto derivatives:
// it ingests market data from a single venue, maintains synchronized
// in-memory projections (candles, order book, tape, open interest),
// couples that state to a local order lifecycle, and exposes both through
// a read-only HTTP/WS surface for a renderer (out of scope here) to
// consume.
//
// Architecture:
//
//	main.go                    — entry point: load config, build the venue
//	                              adapter, start the coordinator, wait for
//	                              SIGINT/SIGTERM
//	internal/coordinator       — races market/user streams, open-interest
//	                              polling, and listen-key upkeep for one venue
//	internal/exchange/*        — REST/WS adapters per venue
//	internal/state             — candle ring, order book, order flow, open
//	                              interest (C3-C6)
//	internal/orders            — local order lifecycle (C9)
//	internal/trader            — order construction from sizing/side intent (C10)
//	internal/logs              — operator-visible status pipe (C11)
//	internal/scale             — price/size to pixel projection (C12)
//	internal/api                — read-only snapshot/WS HTTP surface
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nullpx/derivterm/internal/api"
	"github.com/nullpx/derivterm/internal/config"
	"github.com/nullpx/derivterm/internal/coordinator"
	"github.com/nullpx/derivterm/internal/exchange"
	"github.com/nullpx/derivterm/internal/exchange/binancespot"
	"github.com/nullpx/derivterm/internal/exchange/binanceusdtfutures"
	"github.com/nullpx/derivterm/internal/exchange/binanceusspot"
	"github.com/nullpx/derivterm/internal/exchange/gateiofutures"
	"github.com/nullpx/derivterm/internal/logs"
	"github.com/nullpx/derivterm/pkg/types"
)

func main() {
	venueFlag := flag.String("venue", "", "exchange venue tag (default: config/env, falling back to binance-usdt-futures)")
	configFlag := flag.String("config", "", "path to an optional YAML config file")
	intervalFlag := flag.String("interval", "1m", "candle aggregation interval")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [--venue=...] [--config=...] [--interval=...] <SYMBOL>\n", os.Args[0])
		os.Exit(2)
	}
	symbolArg := flag.Arg(0)

	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath = os.Getenv("TERMINAL_CONFIG")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}

	cfg.Symbol = symbolArg
	if *venueFlag != "" {
		cfg.Venue = *venueFlag
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	pipe := logs.NewPipe(256)
	manager := logs.NewManager(pipe)
	go consumeStatusLine(manager)

	adapter, err := buildAdapter(*cfg, pipe)
	if err != nil {
		logger.Error("unknown venue", "error", err, "venue", cfg.Venue)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	worker, err := coordinator.New(ctx, adapter, types.Interval(*intervalFlag), cfg.CandleCapacity, pipe)
	if err != nil {
		logger.Error("failed to resolve symbol", "error", err, "symbol", cfg.Symbol, "venue", cfg.Venue)
		cancel()
		os.Exit(1)
	}

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.NewServer(cfg.API, worker, manager, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("api server failed", "error", err)
			}
		}()
		logger.Info("api server started", "addr", fmt.Sprintf(":%d", cfg.API.Port))
	}

	workerErrCh := make(chan error, 1)
	go func() { workerErrCh <- worker.Run(ctx) }()

	logger.Info("terminal started",
		"symbol", cfg.Symbol,
		"venue", cfg.Venue,
		"authenticated", adapter.HasAuth(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-workerErrCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker exited", "error", err)
		}
	}

	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			logger.Error("failed to stop api server", "error", err)
		}
	}

	cancel()
	<-workerErrCh
}

func buildAdapter(cfg config.Config, pipe *logs.Pipe) (exchange.Adapter, error) {
	creds := cfg.CredentialsFor(cfg.Venue)
	switch cfg.Venue {
	case config.VenueBinanceUSDTFutures:
		return binanceusdtfutures.New(cfg.Symbol, creds.AccessKey, creds.SecretKey, pipe), nil
	case config.VenueBinanceSpot:
		return binancespot.New(cfg.Symbol, creds.AccessKey, creds.SecretKey, pipe), nil
	case config.VenueBinanceUSSpot:
		return binanceusspot.New(cfg.Symbol, creds.AccessKey, creds.SecretKey, pipe), nil
	case config.VenueGateIOUSDFutures:
		return gateiofutures.New(cfg.Symbol, creds.AccessKey, creds.SecretKey, cfg.DepthLimit, pipe), nil
	default:
		return nil, fmt.Errorf("venue %q is not a known adapter", cfg.Venue)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// consumeStatusLine drains the log/alert pipe on a tick, printing colored
// status lines to the terminal. A real renderer would call Manager.Consume
// from its own frame loop instead; this keeps the pipe non-blocking and
// Manager.Status() current for the API surface when no renderer is attached.
func consumeStatusLine(manager *logs.Manager) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		manager.Consume()
	}
}
