// Package binanceusspot constructs the exchange.Adapter for Binance US Spot.
package binanceusspot

import (
	"github.com/nullpx/derivterm/internal/exchange"
	"github.com/nullpx/derivterm/internal/exchange/binancecommon"
	"github.com/nullpx/derivterm/internal/logs"
)

// New returns an adapter for Binance US Spot.
func New(symbol, accessKey, secretKey string, pipe *logs.Pipe) exchange.Adapter {
	cfg := binancecommon.USSpotDefaults()
	cfg.Symbol = symbol
	cfg.AccessKey = accessKey
	cfg.SecretKey = secretKey
	return binancecommon.New(cfg, pipe)
}
