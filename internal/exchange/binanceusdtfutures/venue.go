// Package binanceusdtfutures constructs the exchange.Adapter for Binance
// USD-M Futures: the common Binance REST/WS mechanics parameterized by this
// venue's endpoints and fee schedule.
package binanceusdtfutures

import (
	"github.com/nullpx/derivterm/internal/exchange"
	"github.com/nullpx/derivterm/internal/exchange/binancecommon"
	"github.com/nullpx/derivterm/internal/logs"
)

// New returns an adapter for Binance USD-M Futures. accessKey/secretKey may
// be empty for unauthenticated (market-data-only) use.
func New(symbol, accessKey, secretKey string, pipe *logs.Pipe) exchange.Adapter {
	cfg := binancecommon.USDTFuturesDefaults()
	cfg.Symbol = symbol
	cfg.AccessKey = accessKey
	cfg.SecretKey = secretKey
	return binancecommon.New(cfg, pipe)
}
