// Package binancespot constructs the exchange.Adapter for Binance Spot.
package binancespot

import (
	"github.com/nullpx/derivterm/internal/exchange"
	"github.com/nullpx/derivterm/internal/exchange/binancecommon"
	"github.com/nullpx/derivterm/internal/logs"
)

// New returns an adapter for Binance Spot. accessKey/secretKey may be empty
// for unauthenticated (market-data-only) use. Spot has no open interest and
// no futures-style user stream ORDER_TRADE_UPDATE events — the shared feed
// code already treats both as optional.
func New(symbol, accessKey, secretKey string, pipe *logs.Pipe) exchange.Adapter {
	cfg := binancecommon.SpotDefaults()
	cfg.Symbol = symbol
	cfg.AccessKey = accessKey
	cfg.SecretKey = secretKey
	return binancecommon.New(cfg, pipe)
}
