package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nullpx/derivterm/internal/logs"
	"github.com/nullpx/derivterm/internal/orders"
	"github.com/nullpx/derivterm/internal/state"
	"github.com/nullpx/derivterm/pkg/types"
)

const (
	snapshotDepthLevels = 50
	snapshotFlowLevels  = 50
	snapshotCandles     = 200
	snapshotOIPoints    = 200
)

// SnapshotProvider is the read-only handle into one worker's state that the
// API surface renders. internal/coordinator.Worker satisfies this.
type SnapshotProvider interface {
	Symbol() types.Symbol
	Shared() *state.SharedState
	Orders() *orders.Orders
}

// BuildSnapshot reads every container in provider's shared state under its
// own lock and assembles one consistent-enough view for JSON transport.
// status comes from the logs.Manager the CLI layer drains in parallel.
func BuildSnapshot(provider SnapshotProvider, status logs.Status) Snapshot {
	symbol := provider.Symbol()
	shared := provider.Shared()
	ord := provider.Orders()

	bid, ask, haveBidAsk := shared.OrderBook.BestBidAsk()
	var bidPtr, askPtr *decimal.Decimal
	if haveBidAsk {
		bidPtr, askPtr = &bid, &ask
	}

	return Snapshot{
		Timestamp: time.Now(),
		Symbol: SymbolInfo{
			Slug:        symbol.Slug,
			TickSize:    symbol.TickSize.String(),
			StepSize:    symbol.StepSize.String(),
			MinNotional: symbol.MinNotional.String(),
		},
		Candles:      candleDTOs(shared.Candles.ToSlice()),
		Book:         bookDTO(shared, symbol.TickSize),
		Flow:         flowDTO(shared),
		OpenInterest: oiDTOs(shared.OpenInterest.ToSlice()),
		Orders:       orderDTOs(ord.Open()),
		PnL:          ord.PnL(bidPtr, askPtr).String(),
		Commission:   ord.Commission().String(),
		Status:       statusDTO(status),
	}
}

func candleDTOs(candles []types.Candle) []CandleDTO {
	if len(candles) > snapshotCandles {
		candles = candles[len(candles)-snapshotCandles:]
	}
	out := make([]CandleDTO, len(candles))
	for i, c := range candles {
		out[i] = CandleDTO{
			OpenTime: c.OpenTime.Millis(),
			Open:     c.Open.String(),
			High:     c.High.String(),
			Low:      c.Low.String(),
			Close:    c.Close.String(),
			Volume:   c.Volume.String(),
		}
	}
	return out
}

func bookDTO(shared *state.SharedState, tick decimal.Decimal) BookDTO {
	bids := shared.OrderBook.GetBids(snapshotDepthLevels, tick)
	asks := shared.OrderBook.GetAsks(snapshotDepthLevels, tick)
	return BookDTO{
		Bids:   levelDTOs(bids),
		Asks:   levelDTOs(asks),
		Online: shared.OrderBook.Online(),
	}
}

func levelDTOs(levels []state.Level) []LevelDTO {
	out := make([]LevelDTO, len(levels))
	for i, l := range levels {
		out[i] = LevelDTO{Price: l.Price.String(), Qty: l.Qty.String()}
	}
	return out
}

func flowDTO(shared *state.SharedState) FlowDTO {
	buys := shared.OrderFlow.Buys(snapshotFlowLevels)
	sells := shared.OrderFlow.Sells(snapshotFlowLevels)
	return FlowDTO{Buys: levelDTOs(buys), Sells: levelDTOs(sells)}
}

func oiDTOs(points []types.OpenInterestPoint) []OIPointDTO {
	if len(points) > snapshotOIPoints {
		points = points[len(points)-snapshotOIPoints:]
	}
	out := make([]OIPointDTO, len(points))
	for i, p := range points {
		out[i] = OIPointDTO{Time: p.Time.Millis(), Value: p.Value.String()}
	}
	return out
}

func orderDTOs(open []types.Order) []OrderDTO {
	out := make([]OrderDTO, len(open))
	for i, o := range open {
		out[i] = OrderDTO{
			ID:               o.ID,
			Kind:             string(o.Kind),
			Side:             string(o.Side),
			Status:           string(o.Status),
			Quantity:         o.Quantity.String(),
			ExecutedQuantity: o.ExecutedQuantity.String(),
			Commission:       o.Commission.String(),
			Timestamp:        o.Timestamp.Millis(),
		}
		if o.Price != nil {
			s := o.Price.String()
			out[i].Price = &s
		}
		if o.AveragePrice != nil {
			s := o.AveragePrice.String()
			out[i].AveragePrice = &s
		}
	}
	return out
}

func statusDTO(s logs.Status) StatusDTO {
	switch s.Kind {
	case logs.StatusCritical:
		return StatusDTO{Kind: "critical", Message: s.Message}
	case logs.StatusWarning:
		return StatusDTO{Kind: "warning", Message: s.Message}
	default:
		return StatusDTO{Kind: "ok"}
	}
}
