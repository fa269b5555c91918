package binancecommon

import (
	"context"
	"sync"

	"github.com/nullpx/derivterm/internal/exchange"
	"github.com/nullpx/derivterm/internal/logs"
	"github.com/nullpx/derivterm/internal/state"
	"github.com/nullpx/derivterm/pkg/types"
)

// Adapter wires a Config, REST Client, and WS Feed into exchange.Adapter.
// Every Binance-family venue package constructs one of these from its own
// Config and returns it unchanged — the three venues differ only in the
// Config they supply.
type Adapter struct {
	cfg    Config
	client *Client
	feed   *Feed

	mu        sync.Mutex
	listenKey string
}

// New returns an Adapter for the venue described by cfg. pipe receives
// operator-visible warnings from the underlying feed (may be nil).
func New(cfg Config, pipe *logs.Pipe) *Adapter {
	client := NewClient(cfg)
	return &Adapter{
		cfg:    cfg,
		client: client,
		feed:   NewFeed(client, cfg, pipe),
	}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) HasAuth() bool { return a.cfg.HasAuth() }

func (a *Adapter) Symbol(ctx context.Context) (types.Symbol, error) {
	return a.client.Symbol(ctx)
}

func (a *Adapter) Candles(ctx context.Context, interval types.Interval, limit int) ([]types.Candle, error) {
	return a.client.Candles(ctx, interval, limit)
}

func (a *Adapter) DepthSnapshot(ctx context.Context, limit int) (exchange.DepthSnapshot, error) {
	return a.client.DepthSnapshot(ctx, limit)
}

func (a *Adapter) OpenInterestHist(ctx context.Context) ([]types.OpenInterestPoint, error) {
	return a.client.OpenInterestHist(ctx)
}

func (a *Adapter) OpenOrders(ctx context.Context) ([]types.Order, error) {
	return a.client.OpenOrders(ctx)
}

func (a *Adapter) OpenInterest(ctx context.Context) (types.OpenInterestPoint, error) {
	return a.client.OpenInterest(ctx)
}

func (a *Adapter) SubscribeMarket(ctx context.Context, shared *state.SharedState) error {
	return a.feed.RunMarket(ctx, shared.Candles.Interval(), shared)
}

func (a *Adapter) SubscribeUser(ctx context.Context, sink exchange.UserStreamSink) error {
	return a.feed.RunUser(ctx, a.ensureListenKey, sink)
}

// ensureListenKey creates a listen key on first use; Binance returns the
// existing active key on repeat creation calls, so this also serves as the
// "get current key" path for reconnects.
func (a *Adapter) ensureListenKey(ctx context.Context) (string, error) {
	key, err := a.client.CreateListenKey(ctx)
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	a.listenKey = key
	a.mu.Unlock()
	return key, nil
}

func (a *Adapter) PlaceOrder(ctx context.Context, req types.NewOrder) (types.Order, error) {
	return a.client.PlaceOrder(ctx, req)
}

func (a *Adapter) CancelOrder(ctx context.Context, id string) error {
	return a.client.CancelOrder(ctx, id)
}

// RefreshListenKey is a no-op when unauthenticated, per spec §6's listen-key
// keepalive being gated on HasAuth rather than unconditional. It extends
// whichever key the active user stream is using, creating one first if the
// user stream hasn't connected yet.
func (a *Adapter) RefreshListenKey(ctx context.Context) error {
	if !a.cfg.HasAuth() {
		return nil
	}
	a.mu.Lock()
	key := a.listenKey
	a.mu.Unlock()
	if key == "" {
		_, err := a.ensureListenKey(ctx)
		return err
	}
	return a.client.RefreshListenKey(ctx, key)
}

var _ exchange.Adapter = (*Adapter)(nil)
