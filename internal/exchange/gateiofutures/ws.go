package gateiofutures

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
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
	readTimeout = 10 * time.Minute
)

// Feed owns the long-lived Gate.io futures market WebSocket, reconnecting
// with exponential backoff. Ground truth: the original implementation's
// gateio_usd_futures/market_stream.rs.
type Feed struct {
	client   *Client
	domLimit int
	pipe     *logs.Pipe

	lastUpdateID int64
}

// NewFeed returns a market feed over client for the given order-book depth.
func NewFeed(client *Client, domLimit int, pipe *logs.Pipe) *Feed {
	return &Feed{client: client, domLimit: domLimit, pipe: pipe}
}

// RunMarket bootstraps candles and the order book over REST, then applies
// the subscribed candlestick/order-book/trade channels until ctx ends.
func (f *Feed) RunMarket(ctx context.Context, shared *state.SharedState) error {
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := f.bootstrapMarket(ctx, shared); err != nil {
			shared.OrderBook.SetOnline(false)
			shared.Candles.SetOnline(false)
			f.logWarn("market bootstrap: " + err.Error())
			if !sleepBackoff(ctx, &backoff) {
				return ctx.Err()
			}
			continue
		}

		err := f.runMarketStream(ctx, shared)
		shared.OrderBook.SetOnline(false)
		shared.Candles.SetOnline(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logWarn("market stream disconnected: " + errString(err))
		if !sleepBackoff(ctx, &backoff) {
			return ctx.Err()
		}
		backoff = minBackoff
	}
}

func (f *Feed) bootstrapMarket(ctx context.Context, shared *state.SharedState) error {
	candles, err := f.client.Candles(ctx, shared.Candles.Interval(), shared.Candles.Capacity())
	if err != nil {
		return err
	}
	for _, c := range candles {
		shared.Candles.Push(c)
	}

	snap, err := f.client.DepthSnapshot(ctx, f.domLimit)
	if err != nil {
		return err
	}
	shared.OrderBook.InitSnapshot(snap.Bids, snap.Asks)
	f.lastUpdateID = snap.LastUpdateID
	return nil
}

type subscribeFrame struct {
	Time    int64    `json:"time"`
	Channel string   `json:"channel"`
	Event   string   `json:"event"`
	Payload []string `json:"payload"`
}

func (f *Feed) runMarketStream(ctx context.Context, shared *state.SharedState) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return &exchange.TransportError{Op: "dial market ws", Err: err}
	}
	defer conn.Close()

	now := time.Now().Unix()
	frames := []subscribeFrame{
		{Time: now, Channel: "futures.candlesticks", Event: "subscribe", Payload: []string{gateioInterval(shared.Candles.Interval()), f.client.contract}},
		{Time: now, Channel: "futures.order_book_update", Event: "subscribe", Payload: []string{f.client.contract, "100ms", strconv.Itoa(f.domLimit)}},
		{Time: now, Channel: "futures.trades", Event: "subscribe", Payload: []string{f.client.contract}},
	}
	for _, frame := range frames {
		if err := conn.WriteJSON(frame); err != nil {
			return &exchange.TransportError{Op: "subscribe", Err: err}
		}
	}

	shared.OrderBook.SetOnline(true)
	shared.Candles.SetOnline(true)

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
			return &exchange.TransportError{Op: "read market ws", Err: err}
		}
		if err := f.handleMessage(raw, shared); err != nil {
			f.logWarn("market message: " + err.Error())
		}
	}
}

type eventWrapper struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel"`
	Result  json.RawMessage `json:"result"`
}

func (f *Feed) handleMessage(raw []byte, shared *state.SharedState) error {
	var env eventWrapper
	if err := json.Unmarshal(raw, &env); err != nil {
		return &exchange.ProtocolError{Op: "decode wrapper", Err: err}
	}
	if env.Event != "update" {
		return nil
	}

	switch env.Channel {
	case "futures.order_book_update":
		return f.handleOrderBookUpdate(env.Result, shared)
	case "futures.trades":
		return f.handleTrades(env.Result, shared)
	case "futures.candlesticks":
		return f.handleCandlesticks(env.Result, shared)
	default:
		return nil
	}
}

type bookLevel struct {
	P string `json:"p"`
	S int64  `json:"s"`
}

type orderBookEvent struct {
	T             int64       `json:"t"`
	FirstUpdateID int64       `json:"U"`
	Bids          []bookLevel `json:"b"`
	Asks          []bookLevel `json:"a"`
}

func (f *Feed) handleOrderBookUpdate(raw json.RawMessage, shared *state.SharedState) error {
	var ev orderBookEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return &exchange.ProtocolError{Op: "decode order_book_update", Err: err}
	}
	if ev.FirstUpdateID < f.lastUpdateID {
		return nil // stale relative to our snapshot
	}
	for _, lvl := range ev.Bids {
		if p, err := decimal.NewFromString(lvl.P); err == nil {
			shared.OrderBook.UpdateBid(p, decimal.NewFromInt(lvl.S))
		}
	}
	for _, lvl := range ev.Asks {
		if p, err := decimal.NewFromString(lvl.P); err == nil {
			shared.OrderBook.UpdateAsk(p, decimal.NewFromInt(lvl.S))
		}
	}
	return nil
}

type tradeEvent struct {
	CreateTimeMs int64  `json:"create_time_ms"`
	Price        string `json:"price"`
	Size         int64  `json:"size"`
}

// handleTrades partitions trades by the sign of size: positive is a buy
// aggressor, negative a sell aggressor, per the venue's own convention.
func (f *Feed) handleTrades(raw json.RawMessage, shared *state.SharedState) error {
	var events []tradeEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return &exchange.ProtocolError{Op: "decode trades", Err: err}
	}
	for _, ev := range events {
		price, err := decimal.NewFromString(ev.Price)
		if err != nil {
			continue
		}
		qty := decimal.NewFromInt(ev.Size).Abs()
		if ev.Size > 0 {
			shared.OrderFlow.Buy(price, qty)
		} else {
			shared.OrderFlow.Sell(price, qty)
		}
	}
	return nil
}

type candleEvent struct {
	T int64  `json:"t"`
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
	V int64  `json:"v"`
}

func (f *Feed) handleCandlesticks(raw json.RawMessage, shared *state.SharedState) error {
	var events []candleEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return &exchange.ProtocolError{Op: "decode candlesticks", Err: err}
	}
	if len(events) == 0 {
		return nil
	}
	ev := events[0]
	o, e1 := decimal.NewFromString(ev.O)
	h, e2 := decimal.NewFromString(ev.H)
	l, e3 := decimal.NewFromString(ev.L)
	c, e4 := decimal.NewFromString(ev.C)
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
		return nil
	}
	shared.Candles.Push(types.Candle{
		OpenTime: types.FromSeconds(ev.T),
		Open:     o, High: h, Low: l, Close: c,
		Volume: decimal.NewFromInt(ev.V),
	})
	return nil
}

// RunUser polls resting orders, since Gate.io's signed user-data WS channel
// isn't reachable from this adapter's grounding source. An order is sent to
// sink when it is first seen and whenever its filled quantity changes
// between polls. An order that drops out of the open-orders set is
// forgotten with no final update sent, so a fill or cancel that completes
// it between two polls is not reported.
func (f *Feed) RunUser(ctx context.Context, sink exchange.UserStreamSink) error {
	if !f.client.HasAuth() {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	seen := map[string]types.Order{}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		open, err := f.client.OpenOrders(ctx)
		if err != nil {
			f.logWarn("poll open orders: " + err.Error())
			continue
		}

		stillOpen := map[string]bool{}
		for _, o := range open {
			stillOpen[o.ID] = true
			prev, existed := seen[o.ID]
			if !existed || !prev.ExecutedQuantity.Equal(o.ExecutedQuantity) {
				o.IsUpdate = existed
				seen[o.ID] = o
				select {
				case sink.Orders <- o:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		for id := range seen {
			if !stillOpen[id] {
				delete(seen, id)
			}
		}
	}
}

func (f *Feed) logWarn(msg string) {
	if f.pipe != nil {
		f.pipe.Warning("gateio-usd-futures: "+msg, 5*time.Second)
	} else {
		slog.Warn(msg, "venue", "gateio-usd-futures")
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
