package gateiofutures

import (
	"context"

	"github.com/nullpx/derivterm/internal/exchange"
	"github.com/nullpx/derivterm/internal/logs"
	"github.com/nullpx/derivterm/internal/state"
	"github.com/nullpx/derivterm/pkg/types"
)

// Adapter wires Client and Feed into exchange.Adapter for Gate.io USDT
// futures.
type Adapter struct {
	client *Client
	feed   *Feed
}

// New returns an adapter for the given contract (e.g. "BTC_USDT").
// accessKey/secretKey may be empty for market-data-only use.
func New(contract, accessKey, secretKey string, domLimit int, pipe *logs.Pipe) exchange.Adapter {
	client := NewClient(contract, accessKey, secretKey)
	return &Adapter{client: client, feed: NewFeed(client, domLimit, pipe)}
}

func (a *Adapter) Name() string { return "gateio-usd-futures" }

func (a *Adapter) HasAuth() bool { return a.client.HasAuth() }

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
	return a.feed.RunMarket(ctx, shared)
}

func (a *Adapter) SubscribeUser(ctx context.Context, sink exchange.UserStreamSink) error {
	return a.feed.RunUser(ctx, sink)
}

func (a *Adapter) PlaceOrder(ctx context.Context, req types.NewOrder) (types.Order, error) {
	return a.client.PlaceOrder(ctx, req)
}

func (a *Adapter) CancelOrder(ctx context.Context, id string) error {
	return a.client.CancelOrder(ctx, id)
}

// RefreshListenKey is a no-op: Gate.io's futures WS authenticates per
// connection rather than via a renewable listen key.
func (a *Adapter) RefreshListenKey(ctx context.Context) error { return nil }

var _ exchange.Adapter = (*Adapter)(nil)
