package binancecommon

import "github.com/shopspring/decimal"

// Config captures the handful of ways Binance USD-M Futures, Spot, and US
// Spot differ: base URLs, endpoint paths, whether open interest exists,
// and the venue's maker/taker commission rates (spec §4.6: "maker 0.02%,
// taker 0.05% on USD futures; 0.1% on spot").
type Config struct {
	Name       string
	RESTBaseURL string
	WSBaseURL   string // host for the combined-stream endpoint, e.g. "wss://fstream.binance.com"

	ExchangeInfoPath     string
	KlinesPath           string
	DepthPath            string
	OpenInterestPath     string // empty if the venue doesn't expose open interest
	OpenInterestHistPath string // empty if the venue doesn't expose open-interest history
	OrderPath            string
	ListenKeyPath        string

	Symbol    string
	AccessKey string
	SecretKey string

	MakerFeeRate decimal.Decimal
	TakerFeeRate decimal.Decimal
}

// HasAuth reports whether both credentials were supplied.
func (c Config) HasAuth() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// HasOpenInterest reports whether this venue exposes open interest at all.
func (c Config) HasOpenInterest() bool {
	return c.OpenInterestPath != ""
}

// USDTFuturesDefaults returns the endpoint layout for Binance USD-M Futures.
func USDTFuturesDefaults() Config {
	return Config{
		Name:                 "binance-usdt-futures",
		RESTBaseURL:          "https://fapi.binance.com",
		WSBaseURL:            "wss://fstream.binance.com",
		ExchangeInfoPath:     "/fapi/v1/exchangeInfo",
		KlinesPath:           "/fapi/v1/klines",
		DepthPath:            "/fapi/v1/depth",
		OpenInterestPath:     "/fapi/v1/openInterest",
		OpenInterestHistPath: "/futures/data/openInterestHist",
		OrderPath:            "/fapi/v1/order",
		ListenKeyPath:        "/fapi/v1/listenKey",
		MakerFeeRate:         decimal.NewFromFloat(0.0002),
		TakerFeeRate:         decimal.NewFromFloat(0.0005),
	}
}

// SpotDefaults returns the endpoint layout for Binance Spot.
func SpotDefaults() Config {
	return Config{
		Name:             "binance-spot",
		RESTBaseURL:      "https://api.binance.com",
		WSBaseURL:        "wss://stream.binance.com:9443",
		ExchangeInfoPath: "/api/v3/exchangeInfo",
		KlinesPath:       "/api/v3/klines",
		DepthPath:        "/api/v3/depth",
		OrderPath:        "/api/v3/order",
		ListenKeyPath:    "/api/v3/userDataStream",
		MakerFeeRate:     decimal.NewFromFloat(0.001),
		TakerFeeRate:     decimal.NewFromFloat(0.001),
	}
}

// USSpotDefaults returns the endpoint layout for Binance US Spot.
func USSpotDefaults() Config {
	cfg := SpotDefaults()
	cfg.Name = "binance-us-spot"
	cfg.RESTBaseURL = "https://api.binance.us"
	cfg.WSBaseURL = "wss://stream.binance.us:9443"
	return cfg
}
