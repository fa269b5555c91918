package binancecommon

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/nullpx/derivterm/internal/exchange"
	"github.com/nullpx/derivterm/internal/logs"
	"github.com/nullpx/derivterm/internal/state"
	"github.com/nullpx/derivterm/pkg/types"
)

const (
	minBackoff  = time.Second
	maxBackoff  = 30 * time.Second
	pingPeriod  = 3 * time.Minute
	readTimeout = 10 * time.Minute
)

// Feed owns the long-lived market and user-data WebSocket connections for a
// single venue, reconnecting with exponential backoff on failure. Grounded
// on the teacher repository's WSFeed (dial, ping/pong keepalive, read
// deadlines, auto-reconnect) generalized to Binance's combined-stream
// envelope and the snapshot-plus-delta book reconciliation described in
// the original binance/market_stream.rs.
type Feed struct {
	client *Client
	cfg    Config
	pipe   *logs.Pipe

	// lastUpdateID is the book's reconciliation cursor: depth deltas with
	// u <= this value are stale relative to the last snapshot and dropped.
	lastUpdateID int64
}

// NewFeed returns a market/user-data feed for the venue described by cfg.
func NewFeed(client *Client, cfg Config, pipe *logs.Pipe) *Feed {
	return &Feed{client: client, cfg: cfg, pipe: pipe}
}

// RunMarket bootstraps candles and the order book over REST, then applies
// the combined kline/depth/aggTrade stream until ctx is cancelled. Transport
// and protocol errors are logged and retried with backoff; the method only
// returns when ctx is done.
func (f *Feed) RunMarket(ctx context.Context, interval types.Interval, shared *state.SharedState) error {
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := f.bootstrapMarket(ctx, interval, shared); err != nil {
			shared.OrderBook.SetOnline(false)
			shared.Candles.SetOnline(false)
			f.logWarn("market bootstrap: " + err.Error())
			if !sleepBackoff(ctx, &backoff) {
				return ctx.Err()
			}
			continue
		}

		err := f.runMarketStream(ctx, interval, shared)
		shared.OrderBook.SetOnline(false)
		shared.Candles.SetOnline(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logWarn("market stream disconnected: " + errString(err))
		if !sleepBackoff(ctx, &backoff) {
			return ctx.Err()
		}
		backoff = minBackoff // a connection that ran is treated as healthy, reset backoff
	}
}

func (f *Feed) bootstrapMarket(ctx context.Context, interval types.Interval, shared *state.SharedState) error {
	candles, err := f.client.Candles(ctx, interval, 500)
	if err != nil {
		return err
	}
	shared.Candles.Clear(len(candles)+1, interval)
	for _, c := range candles {
		shared.Candles.Push(c)
	}

	snap, err := f.client.DepthSnapshot(ctx, 1000)
	if err != nil {
		return err
	}
	shared.OrderBook.InitSnapshot(snap.Bids, snap.Asks)
	f.lastUpdateID = snap.LastUpdateID
	return nil
}

func (f *Feed) runMarketStream(ctx context.Context, interval types.Interval, shared *state.SharedState) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.client.WSMarketURL(interval), nil)
	if err != nil {
		return &exchange.TransportError{Op: "dial market ws", Err: err}
	}
	defer conn.Close()

	shared.OrderBook.SetOnline(true)
	shared.Candles.SetOnline(true)

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	done := make(chan struct{})
	go f.pingLoop(ctx, conn, done)
	defer close(done)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return &exchange.TransportError{Op: "read market ws", Err: err}
		}
		if err := f.handleMarketMessage(raw, shared); err != nil {
			f.logWarn("market message: " + err.Error())
		}
	}
}

func (f *Feed) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		}
	}
}

type combinedEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

func (f *Feed) handleMarketMessage(raw []byte, shared *state.SharedState) error {
	var env combinedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &exchange.ProtocolError{Op: "decode envelope", Err: err}
	}

	switch {
	case strings.Contains(env.Stream, "@kline_"):
		return f.handleKline(env.Data, shared)
	case strings.Contains(env.Stream, "@depth"):
		return f.handleDepth(env.Data, shared)
	case strings.Contains(env.Stream, "@aggTrade"):
		return f.handleAggTrade(env.Data, shared)
	default:
		return nil // unrecognized stream name, ignore rather than fail the connection
	}
}

type klineEvent struct {
	K struct {
		StartTime int64  `json:"t"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		Volume    string `json:"v"`
	} `json:"k"`
}

func (f *Feed) handleKline(data json.RawMessage, shared *state.SharedState) error {
	var ev klineEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return &exchange.ProtocolError{Op: "decode kline", Err: err}
	}
	o, e1 := decimal.NewFromString(ev.K.Open)
	h, e2 := decimal.NewFromString(ev.K.High)
	l, e3 := decimal.NewFromString(ev.K.Low)
	c, e4 := decimal.NewFromString(ev.K.Close)
	v, e5 := decimal.NewFromString(ev.K.Volume)
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil || e5 != nil {
		return nil // malformed row, skip rather than push a zero-value candle
	}
	shared.Candles.Push(types.Candle{
		OpenTime: types.FromMillis(ev.K.StartTime),
		Open:     o, High: h, Low: l, Close: c, Volume: v,
	})
	return nil
}

type depthEvent struct {
	FirstUpdateID int64      `json:"U"`
	FinalUpdateID int64      `json:"u"`
	Bids          [][]string `json:"b"`
	Asks          [][]string `json:"a"`
}

func (f *Feed) handleDepth(data json.RawMessage, shared *state.SharedState) error {
	var ev depthEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return &exchange.ProtocolError{Op: "decode depth", Err: err}
	}
	if ev.FinalUpdateID <= f.lastUpdateID {
		return nil // stale relative to our snapshot, drop per reconciliation rule
	}
	f.lastUpdateID = ev.FinalUpdateID

	for _, row := range ev.Bids {
		if p, q, ok := parsePriceQty(row); ok {
			shared.OrderBook.UpdateBid(p, q)
		}
	}
	for _, row := range ev.Asks {
		if p, q, ok := parsePriceQty(row); ok {
			shared.OrderBook.UpdateAsk(p, q)
		}
	}
	return nil
}

type aggTradeEvent struct {
	Price        string `json:"p"`
	Qty          string `json:"q"`
	IsBuyerMaker bool   `json:"m"`
}

// handleAggTrade partitions the trade into the order-flow aggressor sides:
// m=true means the buyer was the resting maker, so the aggressor sold.
func (f *Feed) handleAggTrade(data json.RawMessage, shared *state.SharedState) error {
	var ev aggTradeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return &exchange.ProtocolError{Op: "decode aggTrade", Err: err}
	}
	p, e1 := decimal.NewFromString(ev.Price)
	q, e2 := decimal.NewFromString(ev.Qty)
	if e1 != nil || e2 != nil {
		return nil
	}
	if ev.IsBuyerMaker {
		shared.OrderFlow.Sell(p, q)
	} else {
		shared.OrderFlow.Buy(p, q)
	}
	return nil
}

func parsePriceQty(row []string) (decimal.Decimal, decimal.Decimal, bool) {
	if len(row) != 2 {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	p, e1 := decimal.NewFromString(row[0])
	q, e2 := decimal.NewFromString(row[1])
	if e1 != nil || e2 != nil {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	return p, q, true
}

// RunUser streams order-update events for venues with a listen-key user
// stream. getListenKey is called once per (re)connect attempt so the caller
// can own the listen-key lifecycle (creation, periodic refresh) shared with
// the keepalive path. If the adapter has no credentials, RunUser idles
// until ctx is done rather than dialing, matching spec §6's "no-op when
// unauthenticated".
func (f *Feed) RunUser(ctx context.Context, getListenKey func(context.Context) (string, error), sink exchange.UserStreamSink) error {
	if !f.cfg.HasAuth() {
		<-ctx.Done()
		return ctx.Err()
	}

	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		listenKey, err := getListenKey(ctx)
		if err != nil {
			f.logWarn("create listen key: " + err.Error())
			if !sleepBackoff(ctx, &backoff) {
				return ctx.Err()
			}
			continue
		}

		err = f.runUserStream(ctx, listenKey, sink)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logWarn("user stream disconnected: " + errString(err))
		if !sleepBackoff(ctx, &backoff) {
			return ctx.Err()
		}
		backoff = minBackoff
	}
}

func (f *Feed) runUserStream(ctx context.Context, listenKey string, sink exchange.UserStreamSink) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.client.WSUserURL(listenKey), nil)
	if err != nil {
		return &exchange.TransportError{Op: "dial user ws", Err: err}
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return &exchange.TransportError{Op: "read user ws", Err: err}
		}
		order, ok, err := parseOrderUpdate(raw)
		if err != nil {
			f.logWarn("user message: " + err.Error())
			continue
		}
		if !ok {
			continue
		}
		select {
		case sink.Orders <- order:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type executionReportEvent struct {
	EventType        string `json:"e"`
	OrderID          int64  `json:"i"`
	Side             string `json:"S"`
	Type             string `json:"o"`
	OrderStatus      string `json:"X"`
	OrigQty          string `json:"q"`
	CumQty           string `json:"z"`
	AvgPrice         string `json:"ap"`
	LastPrice        string `json:"L"`
	Commission       string `json:"n"`
	TransactionTime  int64  `json:"T"`
}

func parseOrderUpdate(raw []byte) (types.Order, bool, error) {
	var head struct {
		EventType string          `json:"e"`
		Order     json.RawMessage `json:"o"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return types.Order{}, false, &exchange.ProtocolError{Op: "decode executionReport", Err: err}
	}
	if head.EventType != "executionReport" && head.EventType != "ORDER_TRADE_UPDATE" {
		return types.Order{}, false, nil
	}
	// Spot's executionReport carries the order fields at the top level;
	// futures' ORDER_TRADE_UPDATE nests the same fields under "o".
	body := raw
	if head.EventType == "ORDER_TRADE_UPDATE" {
		body = head.Order
	}
	var ev executionReportEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return types.Order{}, false, &exchange.ProtocolError{Op: "decode executionReport", Err: err}
	}

	status := types.StatusPending
	if ev.OrderStatus == "FILLED" {
		status = types.StatusFilled
	}
	qty := parseDecimalOr(ev.OrigQty, decimal.Zero)
	executed := parseDecimalOr(ev.CumQty, decimal.Zero)
	commission := parseDecimalOr(ev.Commission, decimal.Zero)

	var avgPrice *decimal.Decimal
	raw2 := ev.AvgPrice
	if raw2 == "" || raw2 == "0" {
		raw2 = ev.LastPrice
	}
	if v, err := decimal.NewFromString(raw2); err == nil && !v.IsZero() {
		avgPrice = &v
	}

	return types.Order{
		ID:               strconv.FormatInt(ev.OrderID, 10),
		Kind:             types.OrderKind(ev.Type),
		Side:             types.OrderSide(ev.Side),
		Status:           status,
		Quantity:         qty,
		ExecutedQuantity: executed,
		AveragePrice:     avgPrice,
		Commission:       commission,
		Timestamp:        types.FromMillis(ev.TransactionTime),
		IsUpdate:         true,
	}, true, nil
}

func (f *Feed) logWarn(msg string) {
	if f.pipe != nil {
		f.pipe.Warning(f.cfg.Name+": "+msg, 5*time.Second)
	} else {
		slog.Warn(msg, "venue", f.cfg.Name)
	}
}

func sleepBackoff(ctx context.Context, backoff *time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(*backoff):
	}
	*backoff *= 2
	if *backoff > maxBackoff {
		*backoff = maxBackoff
	}
	return true
}

func errString(err error) string {
	if err == nil {
		return "eof"
	}
	return err.Error()
}
