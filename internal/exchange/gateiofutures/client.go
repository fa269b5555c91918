// Package gateiofutures implements exchange.Adapter for Gate.io USDT-
// settled futures. Gate.io's REST signing (HMAC-SHA512 over a
// method/path/query/body-hash/timestamp payload) and WS subscribe-frame
// protocol differ enough from the Binance family that it is not built on
// binancecommon. Ground truth: the original implementation's
// gateio_usd_futures/client.rs and market_stream.rs.
package gateiofutures

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
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

const (
	restBaseURL = "https://api.gateio.ws/api/v4"
	wsURL       = "wss://fx-ws.gateio.ws/v4/ws/usdt"
	settle      = "usdt"
)

// Client is the signed/unsigned REST client for Gate.io USDT futures.
type Client struct {
	http      *resty.Client
	contract  string
	accessKey string
	secretKey string
	rl        *ratelimit.Bucket
}

// NewClient returns a client for the given contract (e.g. "BTC_USDT").
// accessKey/secretKey may be empty for market-data-only use.
func NewClient(contract, accessKey, secretKey string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(restBaseURL).
			SetTimeout(10 * time.Second).
			SetRetryCount(3).
			SetRetryWaitTime(500 * time.Millisecond).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= 500
			}).
			SetHeader("X-Gate-Size-Decimal", "1"),
		contract:  contract,
		accessKey: accessKey,
		secretKey: secretKey,
		rl:        ratelimit.New(200, 10),
	}
}

func (c *Client) HasAuth() bool { return c.accessKey != "" && c.secretKey != "" }

func signRequest(method, path, query, bodyHash string, timestamp int64, secret string) string {
	payload := fmt.Sprintf("%s\n%s\n%s\n%s\n%d", method, path, query, bodyHash, timestamp)
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func bodyHashOf(body string) string {
	sum := sha512.Sum512([]byte(body))
	return hex.EncodeToString(sum[:])
}

type apiError struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

func checkStatus(resp *resty.Response, op string) error {
	if resp.IsSuccess() {
		return nil
	}
	var ae apiError
	if err := json.Unmarshal(resp.Body(), &ae); err == nil && ae.Message != "" {
		return &exchange.APIError{Code: ae.Label, Message: ae.Message}
	}
	return &exchange.ProtocolError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())}
}

func (c *Client) getPublic(ctx context.Context, path string, params map[string]string, result interface{}) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.http.R().SetContext(ctx).SetQueryParams(params).SetResult(result).Get(path)
	if err != nil {
		return &exchange.TransportError{Op: path, Err: err}
	}
	return checkStatus(resp, path)
}

func (c *Client) getSigned(ctx context.Context, path string, params url.Values, result interface{}) error {
	if !c.HasAuth() {
		return &exchange.AuthError{Op: path}
	}
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	ts := time.Now().Unix()
	query := params.Encode()
	sig := signRequest("GET", path, query, bodyHashOf(""), ts, c.secretKey)

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetHeader("KEY", c.accessKey).
		SetHeader("Timestamp", strconv.FormatInt(ts, 10)).
		SetHeader("SIGN", sig).
		SetResult(result).
		Get(path)
	if err != nil {
		return &exchange.TransportError{Op: path, Err: err}
	}
	return checkStatus(resp, path)
}

func (c *Client) postSigned(ctx context.Context, path string, body []byte, result interface{}) error {
	if !c.HasAuth() {
		return &exchange.AuthError{Op: path}
	}
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	ts := time.Now().Unix()
	sig := signRequest("POST", path, "", bodyHashOf(string(body)), ts, c.secretKey)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("KEY", c.accessKey).
		SetHeader("Timestamp", strconv.FormatInt(ts, 10)).
		SetHeader("SIGN", sig).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(result).
		Post(path)
	if err != nil {
		return &exchange.TransportError{Op: path, Err: err}
	}
	return checkStatus(resp, path)
}

func (c *Client) deleteSigned(ctx context.Context, path string, params url.Values, result interface{}) error {
	if !c.HasAuth() {
		return &exchange.AuthError{Op: path}
	}
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	ts := time.Now().Unix()
	query := params.Encode()
	sig := signRequest("DELETE", path, query, bodyHashOf(""), ts, c.secretKey)

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetHeader("KEY", c.accessKey).
		SetHeader("Timestamp", strconv.FormatInt(ts, 10)).
		SetHeader("SIGN", sig).
		SetResult(result).
		Delete(path)
	if err != nil {
		return &exchange.TransportError{Op: path, Err: err}
	}
	return checkStatus(resp, path)
}

type contractInfo struct {
	OrderPriceRound  string `json:"order_price_round"`
	QuantoMultiplier string `json:"quanto_multiplier"`
	OrderSizeMin     int64  `json:"order_size_min"`
}

// Symbol resolves tick/step/min-notional from the contract spec.
func (c *Client) Symbol(ctx context.Context) (types.Symbol, error) {
	var info contractInfo
	path := fmt.Sprintf("/futures/%s/contracts/%s", settle, c.contract)
	if err := c.getPublic(ctx, path, nil, &info); err != nil {
		return types.Symbol{}, err
	}
	tick := parseDecimalOr(info.OrderPriceRound, decimal.NewFromFloat(0.1))
	step := parseDecimalOr(info.QuantoMultiplier, decimal.NewFromInt(1))
	return types.Symbol{
		Slug:        c.contract,
		TickSize:    tick,
		StepSize:    step,
		MinNotional: decimal.NewFromInt(info.OrderSizeMin),
	}, nil
}

func parseDecimalOr(s string, fallback decimal.Decimal) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return fallback
	}
	return v
}

type candleRow struct {
	T int64  `json:"t"`
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
	V int64  `json:"v"`
}

// Candles fetches historical candlesticks oldest-to-newest.
func (c *Client) Candles(ctx context.Context, interval types.Interval, limit int) ([]types.Candle, error) {
	var rows []candleRow
	path := fmt.Sprintf("/futures/%s/candlesticks", settle)
	params := map[string]string{
		"contract": c.contract,
		"interval": gateioInterval(interval),
		"limit":    strconv.Itoa(limit),
	}
	if err := c.getPublic(ctx, path, params, &rows); err != nil {
		return nil, err
	}

	candles := make([]types.Candle, 0, len(rows))
	for _, r := range rows {
		o, e1 := decimal.NewFromString(r.O)
		h, e2 := decimal.NewFromString(r.H)
		l, e3 := decimal.NewFromString(r.L)
		cl, e4 := decimal.NewFromString(r.C)
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
			continue
		}
		candles = append(candles, types.Candle{
			OpenTime: types.FromSeconds(r.T),
			Open:     o, High: h, Low: l, Close: cl,
			Volume: decimal.NewFromInt(r.V),
		})
	}
	return candles, nil
}

func gateioInterval(i types.Interval) string {
	switch i {
	case types.Interval1m:
		return "1m"
	case types.Interval5m:
		return "5m"
	case types.Interval15m:
		return "15m"
	case types.Interval1h:
		return "1h"
	default:
		return "1m"
	}
}

type depthLevel struct {
	P string `json:"p"`
	S int64  `json:"s"`
}

type depthSnapshotResponse struct {
	ID   int64        `json:"id"`
	Bids []depthLevel `json:"bids"`
	Asks []depthLevel `json:"asks"`
}

// DepthSnapshot fetches a REST order-book snapshot with its update id.
func (c *Client) DepthSnapshot(ctx context.Context, limit int) (exchange.DepthSnapshot, error) {
	var resp depthSnapshotResponse
	path := fmt.Sprintf("/futures/%s/order_book", settle)
	params := map[string]string{
		"contract": c.contract,
		"limit":    strconv.Itoa(limit),
		"interval": "0",
		"with_id":  "true",
	}
	if err := c.getPublic(ctx, path, params, &resp); err != nil {
		return exchange.DepthSnapshot{}, err
	}
	return exchange.DepthSnapshot{
		LastUpdateID: resp.ID,
		Bids:         convertLevels(resp.Bids),
		Asks:         convertLevels(resp.Asks),
	}, nil
}

func convertLevels(rows []depthLevel) []state.Level {
	out := make([]state.Level, 0, len(rows))
	for _, r := range rows {
		p, err := decimal.NewFromString(r.P)
		if err != nil {
			continue
		}
		out = append(out, state.Level{Price: p, Qty: decimal.NewFromInt(r.S)})
	}
	return out
}

type contractStatsRow struct {
	Time         int64 `json:"time"`
	OpenInterest int64 `json:"open_interest"`
}

// OpenInterestHist returns historical open-interest samples, oldest first.
func (c *Client) OpenInterestHist(ctx context.Context) ([]types.OpenInterestPoint, error) {
	var rows []contractStatsRow
	path := fmt.Sprintf("/futures/%s/contract_stats", settle)
	params := map[string]string{"contract": c.contract, "interval": "1m", "limit": "30"}
	if err := c.getPublic(ctx, path, params, &rows); err != nil {
		return nil, err
	}
	out := make([]types.OpenInterestPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.OpenInterestPoint{Time: types.FromSeconds(r.Time), Value: decimal.NewFromInt(r.OpenInterest)})
	}
	return out, nil
}

// OpenInterest returns the most recent contract-stats sample.
func (c *Client) OpenInterest(ctx context.Context) (types.OpenInterestPoint, error) {
	hist, err := c.OpenInterestHist(ctx)
	if err != nil {
		return types.OpenInterestPoint{}, err
	}
	if len(hist) == 0 {
		return types.OpenInterestPoint{}, &exchange.ProtocolError{Op: "openInterest", Err: fmt.Errorf("empty contract_stats response")}
	}
	return hist[len(hist)-1], nil
}

type orderRequest struct {
	Contract string `json:"contract"`
	Size     int64  `json:"size"`
	Price    string `json:"price,omitempty"`
	TIF      string `json:"tif,omitempty"`
}

type orderResponse struct {
	ID          int64  `json:"id"`
	Status      string `json:"status"`
	Size        int64  `json:"size"`
	Left        int64  `json:"left"`
	Price       string `json:"price"`
	FillPrice   string `json:"fill_price"`
	FinishTime  float64 `json:"finish_time"`
}

// PlaceOrder submits a signed futures order. Gate.io encodes direction in
// the sign of size rather than a side field.
func (c *Client) PlaceOrder(ctx context.Context, req types.NewOrder) (types.Order, error) {
	size := req.Quantity.IntPart()
	if req.Side == types.Sell {
		size = -size
	}
	body := orderRequest{Contract: c.contract, Size: size, TIF: "gtc"}
	if req.Kind == types.OrderMarket {
		body.Price = "0"
		body.TIF = "ioc"
	} else if req.Price != nil {
		body.Price = req.Price.String()
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return types.Order{}, err
	}

	var result orderResponse
	path := fmt.Sprintf("/futures/%s/orders", settle)
	if err := c.postSigned(ctx, path, raw, &result); err != nil {
		return types.Order{}, err
	}
	return normalizeOrder(result), nil
}

// CancelOrder cancels a resting order by id.
func (c *Client) CancelOrder(ctx context.Context, id string) error {
	path := fmt.Sprintf("/futures/%s/orders/%s", settle, id)
	var result orderResponse
	return c.deleteSigned(ctx, path, url.Values{}, &result)
}

// OpenOrders lists resting orders, used to seed the local lifecycle at
// worker startup and to poll for fills in the absence of a grounded user-data
// WS channel for this venue.
func (c *Client) OpenOrders(ctx context.Context) ([]types.Order, error) {
	params := url.Values{"contract": []string{c.contract}, "status": []string{"open"}}
	var rows []orderResponse
	path := fmt.Sprintf("/futures/%s/orders", settle)
	if err := c.getSigned(ctx, path, params, &rows); err != nil {
		return nil, err
	}
	out := make([]types.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, normalizeOrder(r))
	}
	return out, nil
}

func normalizeOrder(r orderResponse) types.Order {
	status := types.StatusPending
	if r.Status == "finished" && r.Left == 0 {
		status = types.StatusFilled
	}
	executed := decimal.NewFromInt(r.Size - r.Left).Abs()
	var avgPrice *decimal.Decimal
	if r.FillPrice != "" {
		if v, err := decimal.NewFromString(r.FillPrice); err == nil && !v.IsZero() {
			avgPrice = &v
		}
	}
	var price *decimal.Decimal
	if r.Price != "" {
		if v, err := decimal.NewFromString(r.Price); err == nil && !v.IsZero() {
			price = &v
		}
	}
	side := types.Buy
	if r.Size < 0 {
		side = types.Sell
	}
	return types.Order{
		ID:               strconv.FormatInt(r.ID, 10),
		Side:             side,
		Status:           status,
		Quantity:         decimal.NewFromInt(r.Size).Abs(),
		ExecutedQuantity: executed,
		Price:            price,
		AveragePrice:     avgPrice,
		Timestamp:        types.FromSeconds(int64(r.FinishTime)),
	}
}
