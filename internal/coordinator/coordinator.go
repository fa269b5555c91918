// Package coordinator runs the background tasks a single exchange adapter
// needs alive for the lifetime of the process: the market-data stream, the
// user-data stream, an open-interest poller, and the listen-key keepalive
// ticker. Ground truth: the original implementation's
// exchanges/binance_usdt_futures/exchange.rs, which races these same four
// tasks with tokio::select!. The teacher repository's engine.go informs the
// goroutine/WaitGroup/cancel lifecycle shape around it.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nullpx/derivterm/internal/alerts"
	"github.com/nullpx/derivterm/internal/exchange"
	"github.com/nullpx/derivterm/internal/logs"
	"github.com/nullpx/derivterm/internal/orders"
	"github.com/nullpx/derivterm/internal/state"
	"github.com/nullpx/derivterm/pkg/types"
)

const listenKeyRefreshPeriod = 30 * time.Minute

// Worker owns one venue's lifetime: market data, user data, open interest,
// and listen-key upkeep, feeding a shared state bundle and a local order
// book. Unlike the original's single tokio::select! race — which exits the
// whole worker the moment any one task returns — each task here loops
// forever retrying its own transport errors internally (see
// internal/exchange/binancecommon.Feed), so Worker only stops on context
// cancellation or a fatal Symbol/Validation error at startup.
type Worker struct {
	adapter  exchange.Adapter
	shared   *state.SharedState
	orders   *orders.Orders
	alerts   *alerts.Alerts
	logPipe  *logs.Pipe
	symbol   types.Symbol
	interval types.Interval
}

// New resolves the adapter's symbol and builds the shared state bundle the
// worker will populate. The returned Worker is ready for Run.
func New(ctx context.Context, adapter exchange.Adapter, interval types.Interval, candleCapacity int, logPipe *logs.Pipe) (*Worker, error) {
	symbol, err := adapter.Symbol(ctx)
	if err != nil {
		return nil, err // fatal: unknown symbol is not retryable
	}

	return &Worker{
		adapter:  adapter,
		shared:   state.NewSharedState(candleCapacity, interval, 500),
		orders:   orders.New(),
		alerts:   alerts.New(),
		logPipe:  logPipe,
		symbol:   symbol,
		interval: interval,
	}, nil
}

// Symbol returns the resolved tick/step/notional metadata for this worker's
// instrument.
func (w *Worker) Symbol() types.Symbol { return w.symbol }

// Shared returns the worker's market-state bundle, for the trader/renderer
// to read.
func (w *Worker) Shared() *state.SharedState { return w.shared }

// Orders returns the worker's local order lifecycle state.
func (w *Worker) Orders() *orders.Orders { return w.orders }

// Alerts returns the worker's armed price alerts.
func (w *Worker) Alerts() *alerts.Alerts { return w.alerts }

// Run starts every background task and blocks until ctx is cancelled or a
// task returns a non-context error. On unauthenticated adapters the
// user-data and listen-key tasks idle rather than erroring.
func (w *Worker) Run(ctx context.Context) error {
	// Seed open orders via REST before any stream starts, so genuinely-new
	// orders placed later always arrive is_update=false through the
	// placement path rather than being misread as a stream-echoed update.
	if w.adapter.HasAuth() {
		if err := w.seedOpenOrders(ctx); err != nil {
			w.logPipe.Warning("seed open orders: "+err.Error(), 10*time.Second)
		}
	}

	if err := w.seedOpenInterestHist(ctx); err != nil {
		var validationErr *exchange.ValidationError
		if !errors.As(err, &validationErr) {
			w.logPipe.Warning("seed open interest history: "+err.Error(), 10*time.Second)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.adapter.SubscribeMarket(ctx, w.shared)
	})

	g.Go(func() error {
		return w.adapter.SubscribeUser(ctx, exchange.UserStreamSink{Orders: w.userOrderCh(ctx)})
	})

	g.Go(func() error {
		return w.pollOpenInterest(ctx)
	})

	g.Go(func() error {
		return w.keepListenKeyAlive(ctx)
	})

	return g.Wait()
}

func (w *Worker) seedOpenOrders(ctx context.Context) error {
	open, err := w.adapter.OpenOrders(ctx)
	if err != nil {
		return err
	}
	for _, o := range open {
		w.orders.Consume(o)
	}
	return nil
}

// seedOpenInterestHist backfills the open-interest ring with historical
// samples at startup, per spec §4.7, so the series isn't left to fill in
// one slow poll at a time. A venue with no open-interest history (Binance
// Spot/US Spot) answers with an empty result, so nothing is seeded; the
// caller logs any error other than a ValidationError and carries on rather
// than failing start-up.
func (w *Worker) seedOpenInterestHist(ctx context.Context) error {
	hist, err := w.adapter.OpenInterestHist(ctx)
	if err != nil {
		return err
	}
	for _, point := range hist {
		w.shared.OpenInterest.Push(point)
	}
	return nil
}

// userOrderCh adapts the worker's Orders state machine to the channel shape
// exchange.UserStreamSink expects, consuming updates as they arrive.
func (w *Worker) userOrderCh(ctx context.Context) chan<- types.Order {
	ch := make(chan types.Order, 32)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case o := <-ch:
				w.orders.Consume(o)
			}
		}
	}()
	return ch
}

// pollOpenInterest samples open interest on a 5-20s jittered period, the
// spec's compromise between freshness and rate-limit budget for an endpoint
// that isn't pushed over any of the four venues' WS streams. A venue that
// doesn't expose open interest (Binance Spot/US Spot) answers with a
// ValidationError on the first attempt; the task then idles rather than
// retrying a call that can never succeed.
func (w *Worker) pollOpenInterest(ctx context.Context) error {
	for {
		wait := 5*time.Second + time.Duration(rand.Int63n(int64(15*time.Second)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		point, err := w.adapter.OpenInterest(ctx)
		if err != nil {
			var validationErr *exchange.ValidationError
			if errors.As(err, &validationErr) {
				<-ctx.Done()
				return ctx.Err()
			}
			slog.Warn("open interest poll failed", "error", err)
			continue
		}
		w.shared.OpenInterest.Push(point)
	}
}

// keepListenKeyAlive refreshes the venue's user-data stream token every 30
// minutes when authenticated. The original implementation's equivalent
// closure only calls refresh_listen_key when !client.has_auth() — the
// inverse of what its own comment and the surrounding design intend. That
// is treated as a bug in the source material and not reproduced: this
// refreshes only when HasAuth() is true.
func (w *Worker) keepListenKeyAlive(ctx context.Context) error {
	ticker := time.NewTicker(listenKeyRefreshPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !w.adapter.HasAuth() {
				continue
			}
			if err := w.adapter.RefreshListenKey(ctx); err != nil {
				w.logPipe.Warning("refresh listen key: "+err.Error(), 10*time.Second)
				continue
			}
			w.logPipe.Info("refreshed listen key")
		}
	}
}
