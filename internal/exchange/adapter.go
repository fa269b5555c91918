// Package exchange defines the venue-agnostic adapter contract (spec C7):
// every concrete venue (Binance USD-M Futures, Binance Spot, Binance US
// Spot, Gate.io USD Futures) implements Adapter. Ground truth for the
// shape: the original implementation's Exchange trait, generalized from a
// single-venue Go REST/WS client into a closed set of variant
// implementations per spec.md §9's "Polymorphism across exchanges" note.
package exchange

import (
	"context"

	"github.com/nullpx/derivterm/internal/state"
	"github.com/nullpx/derivterm/pkg/types"
)

// DepthSnapshot is a REST order-book snapshot with the monotonic update id
// needed for snapshot-plus-delta reconciliation (spec §4.2).
type DepthSnapshot struct {
	LastUpdateID int64
	Bids         []state.Level
	Asks         []state.Level
}

// UserStreamSink is where a subscribed user-data stream delivers order
// updates for the local lifecycle machine to consume. Operator-visible log
// entries do not pass through it: each venue feed writes those to its own
// logs.Pipe, or to slog when it has none.
type UserStreamSink struct {
	Orders chan<- types.Order
}

// Adapter is the common capability set every venue must expose, per
// spec.md §4.6.
type Adapter interface {
	// Name identifies the venue, e.g. "binance-usdt-futures".
	Name() string

	// HasAuth reports whether credentials were supplied. When false,
	// SubscribeUser idles, RefreshListenKey does nothing, and the signed
	// calls (PlaceOrder, CancelOrder, OpenOrders) return an AuthError.
	HasAuth() bool

	// Symbol blocks until the venue's tick/step/notional metadata for this
	// adapter's configured symbol is resolved. Returns a ValidationError if
	// the symbol is unknown to the venue — this is fatal per spec §7.
	Symbol(ctx context.Context) (types.Symbol, error)

	// Candles returns historical klines oldest-to-newest.
	Candles(ctx context.Context, interval types.Interval, limit int) ([]types.Candle, error)

	// DepthSnapshot returns a REST order-book snapshot with its update id.
	DepthSnapshot(ctx context.Context, limit int) (DepthSnapshot, error)

	// OpenOrders lists currently resting orders for this adapter's symbol.
	// Used to seed the local order lifecycle at worker startup so a
	// genuinely-new order placed afterward is never mistaken for a
	// stream-echoed update (spec §9's insertion-policy ambiguity, resolved
	// in favor of REST-seeding). Returns an AuthError if unauthenticated.
	OpenOrders(ctx context.Context) ([]types.Order, error)

	// OpenInterestHist returns historical open-interest samples, oldest first.
	OpenInterestHist(ctx context.Context) ([]types.OpenInterestPoint, error)

	// OpenInterest returns the current open-interest sample.
	OpenInterest(ctx context.Context) (types.OpenInterestPoint, error)

	// SubscribeMarket runs the long-lived market data stream: it bootstraps
	// with REST snapshots (book, candles) and applies deltas to shared
	// until ctx is cancelled or an unrecoverable error occurs. Recoverable
	// transport/protocol errors are handled internally (log, mark offline,
	// reconnect) and never returned.
	SubscribeMarket(ctx context.Context, shared *state.SharedState) error

	// SubscribeUser runs the long-lived user-data stream, delivering order
	// updates to sink. If HasAuth() is false, it idles until ctx is
	// cancelled rather than erroring.
	SubscribeUser(ctx context.Context, sink UserStreamSink) error

	// PlaceOrder submits a signed order and returns its normalized local
	// representation.
	PlaceOrder(ctx context.Context, req types.NewOrder) (types.Order, error)

	// CancelOrder cancels a resting order by id.
	CancelOrder(ctx context.Context, id string) error

	// RefreshListenKey extends the venue's user-data stream token, for
	// venues that use one (no-op otherwise).
	RefreshListenKey(ctx context.Context) error
}
