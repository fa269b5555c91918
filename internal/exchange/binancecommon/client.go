package binancecommon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/nullpx/derivterm/internal/exchange"
	"github.com/nullpx/derivterm/internal/exchange/ratelimit"
	"github.com/nullpx/derivterm/internal/state"
	"github.com/nullpx/derivterm/pkg/types"
)

// Client is the shared Binance REST client: rate-limited, retried on 5xx,
// and HMAC-SHA256 signed for authenticated calls. Grounded on the teacher
// repository's resty-based exchange client.
type Client struct {
	http *resty.Client
	cfg  Config
	rl   *ratelimit.Bucket
}

// NewClient builds a REST client for the venue described by cfg.
func NewClient(cfg Config) *Client {
	http := resty.New().
		SetBaseURL(cfg.RESTBaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		})

	return &Client{
		http: http,
		cfg:  cfg,
		rl:   ratelimit.New(1200, 20), // Binance weight-based limits, approximated as a flat request budget
	}
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (c *Client) checkStatus(resp *resty.Response, op string) error {
	if resp.IsSuccess() {
		return nil
	}
	var ae apiError
	if err := json.Unmarshal(resp.Body(), &ae); err == nil && ae.Msg != "" {
		return &exchange.APIError{Code: strconv.Itoa(ae.Code), Message: ae.Msg}
	}
	return &exchange.ProtocolError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())}
}

type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol  string `json:"symbol"`
		Filters []struct {
			FilterType  string `json:"filterType"`
			TickSize    string `json:"tickSize"`
			StepSize    string `json:"stepSize"`
			MinNotional string `json:"minNotional"`
			Notional    string `json:"notional"`
		} `json:"filters"`
	} `json:"symbols"`
}

// Symbol resolves tick/step/min-notional from the venue's exchangeInfo
// endpoint. A ValidationError is returned if the configured symbol isn't
// present — this is fatal to the adapter's worker per spec §7.
func (c *Client) Symbol(ctx context.Context) (types.Symbol, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return types.Symbol{}, err
	}

	var result exchangeInfoResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", c.cfg.Symbol).
		SetResult(&result).
		Get(c.cfg.ExchangeInfoPath)
	if err != nil {
		return types.Symbol{}, &exchange.TransportError{Op: "exchangeInfo", Err: err}
	}
	if err := c.checkStatus(resp, "exchangeInfo"); err != nil {
		return types.Symbol{}, err
	}

	for _, s := range result.Symbols {
		if s.Symbol != c.cfg.Symbol {
			continue
		}
		sym := types.Symbol{Slug: s.Symbol}
		for _, f := range s.Filters {
			switch f.FilterType {
			case "PRICE_FILTER":
				sym.TickSize = parseDecimalOr(f.TickSize, decimal.NewFromFloat(0.01))
			case "LOT_SIZE", "MARKET_LOT_SIZE":
				sym.StepSize = parseDecimalOr(f.StepSize, decimal.NewFromFloat(0.001))
			case "MIN_NOTIONAL", "NOTIONAL":
				raw := f.MinNotional
				if raw == "" {
					raw = f.Notional
				}
				sym.MinNotional = parseDecimalOr(raw, decimal.NewFromInt(5))
			}
		}
		return sym, nil
	}
	return types.Symbol{}, &exchange.ValidationError{Msg: fmt.Sprintf("unknown symbol %q on %s", c.cfg.Symbol, c.cfg.Name)}
}

func parseDecimalOr(s string, fallback decimal.Decimal) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return fallback
	}
	return v
}

type klineRow [12]interface{}

// Candles fetches historical klines oldest-to-newest.
func (c *Client) Candles(ctx context.Context, interval types.Interval, limit int) ([]types.Candle, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var rows []klineRow
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":   c.cfg.Symbol,
			"interval": string(interval),
			"limit":    strconv.Itoa(limit),
		}).
		SetResult(&rows).
		Get(c.cfg.KlinesPath)
	if err != nil {
		return nil, &exchange.TransportError{Op: "klines", Err: err}
	}
	if err := c.checkStatus(resp, "klines"); err != nil {
		return nil, err
	}

	candles := make([]types.Candle, 0, len(rows))
	for _, r := range rows {
		c, ok := parseKlineRow(r)
		if !ok {
			continue // skip the single malformed row rather than zero-fill, per the parse-skip policy
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parseKlineRow(r klineRow) (types.Candle, bool) {
	openMs, ok := r[0].(float64)
	if !ok {
		return types.Candle{}, false
	}
	open, ok1 := r[1].(string)
	high, ok2 := r[2].(string)
	low, ok3 := r[3].(string)
	closeP, ok4 := r[4].(string)
	vol, ok5 := r[5].(string)
	if !(ok1 && ok2 && ok3 && ok4 && ok5) {
		return types.Candle{}, false
	}
	o, e1 := decimal.NewFromString(open)
	h, e2 := decimal.NewFromString(high)
	l, e3 := decimal.NewFromString(low)
	cl, e4 := decimal.NewFromString(closeP)
	v, e5 := decimal.NewFromString(vol)
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil || e5 != nil {
		return types.Candle{}, false
	}
	return types.Candle{
		OpenTime: types.FromMillis(int64(openMs)),
		Open:     o,
		High:     h,
		Low:      l,
		Close:    cl,
		Volume:   v,
	}, true
}

type depthResponse struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// DepthSnapshot fetches a REST order-book snapshot with its monotonic id.
func (c *Client) DepthSnapshot(ctx context.Context, limit int) (exchange.DepthSnapshot, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return exchange.DepthSnapshot{}, err
	}

	var result depthResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"symbol": c.cfg.Symbol, "limit": strconv.Itoa(limit)}).
		SetResult(&result).
		Get(c.cfg.DepthPath)
	if err != nil {
		return exchange.DepthSnapshot{}, &exchange.TransportError{Op: "depth", Err: err}
	}
	if err := c.checkStatus(resp, "depth"); err != nil {
		return exchange.DepthSnapshot{}, err
	}

	return exchange.DepthSnapshot{
		LastUpdateID: result.LastUpdateID,
		Bids:         parseLevels(result.Bids),
		Asks:         parseLevels(result.Asks),
	}, nil
}

func parseLevels(rows [][]string) []state.Level {
	out := make([]state.Level, 0, len(rows))
	for _, row := range rows {
		if len(row) != 2 {
			continue
		}
		p, e1 := decimal.NewFromString(row[0])
		q, e2 := decimal.NewFromString(row[1])
		if e1 != nil || e2 != nil {
			continue
		}
		out = append(out, state.Level{Price: p, Qty: q})
	}
	return out
}

type openInterestResponse struct {
	OpenInterest string `json:"openInterest"`
	Time         int64  `json:"time"`
}

// OpenInterest returns the current sample for venues that expose it.
func (c *Client) OpenInterest(ctx context.Context) (types.OpenInterestPoint, error) {
	if !c.cfg.HasOpenInterest() {
		return types.OpenInterestPoint{}, &exchange.ValidationError{Msg: c.cfg.Name + " does not expose open interest"}
	}
	if err := c.rl.Wait(ctx); err != nil {
		return types.OpenInterestPoint{}, err
	}

	var result openInterestResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", c.cfg.Symbol).
		SetResult(&result).
		Get(c.cfg.OpenInterestPath)
	if err != nil {
		return types.OpenInterestPoint{}, &exchange.TransportError{Op: "openInterest", Err: err}
	}
	if err := c.checkStatus(resp, "openInterest"); err != nil {
		return types.OpenInterestPoint{}, err
	}
	v, err := decimal.NewFromString(result.OpenInterest)
	if err != nil {
		return types.OpenInterestPoint{}, &exchange.ProtocolError{Op: "parse openInterest", Err: err} // caller logs it: no sample this poll
	}
	return types.OpenInterestPoint{Time: types.Now(), Value: v}, nil
}

type openInterestHistRow struct {
	SumOpenInterest string `json:"sumOpenInterest"`
	Timestamp       int64  `json:"timestamp"`
}

// OpenInterestHist returns the historical series for venues that expose it.
func (c *Client) OpenInterestHist(ctx context.Context) ([]types.OpenInterestPoint, error) {
	if c.cfg.OpenInterestHistPath == "" {
		return nil, nil
	}
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var rows []openInterestHistRow
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"symbol": c.cfg.Symbol, "period": "5m", "limit": "30"}).
		SetResult(&rows).
		Get(c.cfg.OpenInterestHistPath)
	if err != nil {
		return nil, &exchange.TransportError{Op: "openInterestHist", Err: err}
	}
	if err := c.checkStatus(resp, "openInterestHist"); err != nil {
		return nil, err
	}

	out := make([]types.OpenInterestPoint, 0, len(rows))
	for _, r := range rows {
		v, err := decimal.NewFromString(r.SumOpenInterest)
		if err != nil {
			continue
		}
		out = append(out, types.OpenInterestPoint{Time: types.FromMillis(r.Timestamp), Value: v})
	}
	return out, nil
}

// OpenOrders lists resting orders for the configured symbol, used to seed
// the local order lifecycle at worker startup.
func (c *Client) OpenOrders(ctx context.Context) ([]types.Order, error) {
	if !c.cfg.HasAuth() {
		return nil, &exchange.AuthError{Op: "openOrders"}
	}
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("symbol", c.cfg.Symbol)
	signedQuery := BuildSignedQuery(params, c.cfg.SecretKey)

	var rows []orderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-MBX-APIKEY", c.cfg.AccessKey).
		SetResult(&rows).
		Get(openOrdersPath(c.cfg) + "?" + signedQuery)
	if err != nil {
		return nil, &exchange.TransportError{Op: "openOrders", Err: err}
	}
	if err := c.checkStatus(resp, "openOrders"); err != nil {
		return nil, err
	}

	out := make([]types.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, normalizeOrder(r, c))
	}
	return out, nil
}

// openOrdersPath derives the open-orders endpoint from the configured
// order path: Binance always exposes it as a sibling "openOrders" resource
// under the same API version prefix as "order".
func openOrdersPath(cfg Config) string {
	idx := len(cfg.OrderPath)
	for idx > 0 && cfg.OrderPath[idx-1] != '/' {
		idx--
	}
	return cfg.OrderPath[:idx] + "openOrders"
}

// PlaceOrder submits a signed order and normalizes the response.
func (c *Client) PlaceOrder(ctx context.Context, req types.NewOrder) (types.Order, error) {
	if !c.cfg.HasAuth() {
		return types.Order{}, &exchange.AuthError{Op: "placeOrder"}
	}
	if err := c.rl.Wait(ctx); err != nil {
		return types.Order{}, err
	}

	params := url.Values{}
	params.Set("symbol", c.cfg.Symbol)
	params.Set("side", string(req.Side))
	params.Set("type", binanceOrderType(req.Kind))
	params.Set("quantity", req.Quantity.String())
	if req.Price != nil {
		params.Set("price", req.Price.String())
		params.Set("timeInForce", "GTC")
	}
	if req.Kind == types.OrderStop && req.Price != nil {
		params.Set("stopPrice", req.Price.String())
	}

	signedQuery := BuildSignedQuery(params, c.cfg.SecretKey)

	var result orderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-MBX-APIKEY", c.cfg.AccessKey).
		SetResult(&result).
		Post(c.cfg.OrderPath + "?" + signedQuery)
	if err != nil {
		return types.Order{}, &exchange.TransportError{Op: "placeOrder", Err: err}
	}
	if err := c.checkStatus(resp, "placeOrder"); err != nil {
		return types.Order{}, err
	}

	return normalizeOrder(result, c), nil
}

func binanceOrderType(k types.OrderKind) string {
	switch k {
	case types.OrderMarket:
		return "MARKET"
	case types.OrderLimit:
		return "LIMIT"
	case types.OrderStop:
		return "STOP"
	default:
		return "MARKET"
	}
}

type orderResponse struct {
	OrderID          int64  `json:"orderId"`
	Status           string `json:"status"`
	Side             string `json:"side"`
	Type             string `json:"type"`
	OrigQty          string `json:"origQty"`
	ExecutedQty      string `json:"executedQty"`
	Price            string `json:"price"`
	AvgPrice         string `json:"avgPrice"`
	CumQuote         string `json:"cumQuote"`
	TransactTime     int64  `json:"transactTime"`
	UpdateTime       int64  `json:"updateTime"`
}

func normalizeOrder(r orderResponse, c *Client) types.Order {
	status := types.StatusPending
	if r.Status == "FILLED" {
		status = types.StatusFilled
	}
	qty := parseDecimalOr(r.OrigQty, decimal.Zero)
	executed := parseDecimalOr(r.ExecutedQty, decimal.Zero)

	var avgPrice *decimal.Decimal
	if r.AvgPrice != "" {
		if v, err := decimal.NewFromString(r.AvgPrice); err == nil && !v.IsZero() {
			avgPrice = &v
		}
	}

	var price *decimal.Decimal
	if r.Price != "" {
		if v, err := decimal.NewFromString(r.Price); err == nil && !v.IsZero() {
			price = &v
		}
	}

	commission := decimal.Zero
	if avgPrice != nil {
		rate := c.cfg.TakerFeeRate
		if r.Type == "LIMIT" {
			rate = c.cfg.MakerFeeRate
		}
		commission = rate.Mul(executed).Mul(*avgPrice)
	}

	ts := r.UpdateTime
	if ts == 0 {
		ts = r.TransactTime
	}

	return types.Order{
		ID:               strconv.FormatInt(r.OrderID, 10),
		Kind:             types.OrderKind(r.Type),
		Side:             types.OrderSide(r.Side),
		Status:           status,
		Quantity:         qty,
		ExecutedQuantity: executed,
		Price:            price,
		AveragePrice:     avgPrice,
		Commission:       commission,
		Timestamp:        types.FromMillis(ts),
	}
}

// CancelOrder cancels a resting order by id.
func (c *Client) CancelOrder(ctx context.Context, id string) error {
	if !c.cfg.HasAuth() {
		return &exchange.AuthError{Op: "cancelOrder"}
	}
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("symbol", c.cfg.Symbol)
	params.Set("orderId", id)
	signedQuery := BuildSignedQuery(params, c.cfg.SecretKey)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-MBX-APIKEY", c.cfg.AccessKey).
		Delete(c.cfg.OrderPath + "?" + signedQuery)
	if err != nil {
		return &exchange.TransportError{Op: "cancelOrder", Err: err}
	}
	return c.checkStatus(resp, "cancelOrder")
}

type listenKeyResponse struct {
	ListenKey string `json:"listenKey"`
}

// CreateListenKey mints a user-data stream token.
func (c *Client) CreateListenKey(ctx context.Context) (string, error) {
	if !c.cfg.HasAuth() {
		return "", &exchange.AuthError{Op: "createListenKey"}
	}
	var result listenKeyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-MBX-APIKEY", c.cfg.AccessKey).
		SetResult(&result).
		Post(c.cfg.ListenKeyPath)
	if err != nil {
		return "", &exchange.TransportError{Op: "createListenKey", Err: err}
	}
	if err := c.checkStatus(resp, "createListenKey"); err != nil {
		return "", err
	}
	return result.ListenKey, nil
}

// RefreshListenKey extends the lifetime of an existing listen key.
func (c *Client) RefreshListenKey(ctx context.Context, key string) error {
	if !c.cfg.HasAuth() {
		return &exchange.AuthError{Op: "refreshListenKey"}
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-MBX-APIKEY", c.cfg.AccessKey).
		SetQueryParam("listenKey", key).
		Put(c.cfg.ListenKeyPath)
	if err != nil {
		return &exchange.TransportError{Op: "refreshListenKey", Err: err}
	}
	return c.checkStatus(resp, "refreshListenKey")
}

// WSMarketURL builds the combined-stream URL for klines/depth/trades.
func (c *Client) WSMarketURL(interval types.Interval) string {
	symbolLower := toLowerASCII(c.cfg.Symbol)
	return fmt.Sprintf("%s/stream?streams=%s@kline_%s/%s@depth@100ms/%s@aggTrade",
		c.cfg.WSBaseURL, symbolLower, string(interval), symbolLower, symbolLower)
}

// WSUserURL builds the user-data stream URL for a listen key.
func (c *Client) WSUserURL(listenKey string) string {
	return fmt.Sprintf("%s/ws/%s", c.cfg.WSBaseURL, listenKey)
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
