package types

import "github.com/shopspring/decimal"

// OrderSide is the direction of an order or fill.
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// OrderKind enumerates the supported order types.
type OrderKind string

const (
	OrderMarket OrderKind = "MARKET"
	OrderLimit  OrderKind = "LIMIT"
	OrderStop   OrderKind = "STOP"
)

// OrderStatus is the two-state lifecycle of a local order: Pending until it
// is fully executed, Filled (terminal) thereafter.
type OrderStatus string

const (
	StatusPending OrderStatus = "PENDING"
	StatusFilled  OrderStatus = "FILLED"
)

// NewOrder is a trade intent: the request a Trader hands to an exchange
// adapter. Price is nil for market orders.
type NewOrder struct {
	Kind     OrderKind
	Side     OrderSide
	Quantity decimal.Decimal
	Price    *decimal.Decimal
}

// Order is a local, normalized view of an order, whether still open on the
// venue or terminally filled.
type Order struct {
	ID                string
	Kind              OrderKind
	Side              OrderSide
	Status            OrderStatus
	Quantity          decimal.Decimal
	ExecutedQuantity  decimal.Decimal
	Price             *decimal.Decimal
	AveragePrice      *decimal.Decimal
	Commission        decimal.Decimal
	Timestamp         Timestamp
	IsUpdate          bool
}
