package ib

import (
	"math"

	"github.com/shopspring/decimal"
)

// Contract describes the instrument of a socket callback.
type Contract struct {
	ConID                        int64      `json:"conId,omitempty"`
	Symbol                       string     `json:"symbol"`
	SecType                      string     `json:"secType"`
	Exchange                     string     `json:"exchange,omitempty"`
	PrimaryExchange              string     `json:"primaryExchange,omitempty"`
	Currency                     string     `json:"currency,omitempty"`
	LastTradeDateOrContractMonth string     `json:"lastTradeDateOrContractMonth,omitempty"`
	Strike                       float64    `json:"strike,omitempty"`
	Right                        string     `json:"right,omitempty"`
	Multiplier                   string     `json:"multiplier,omitempty"`
	LocalSymbol                  string     `json:"localSymbol,omitempty"`
	ComboLegs                    []ComboLeg `json:"comboLegs,omitempty"`
}

// Name is the local symbol when present, otherwise the symbol.
func (c Contract) Name() string {
	if c.LocalSymbol != "" {
		return c.LocalSymbol
	}
	return c.Symbol
}

// ComboLeg is one leg of a BAG contract. Ratio is relative to the order's
// total quantity and Action is relative to the order's action.
type ComboLeg struct {
	ConID    int64  `json:"conId,omitempty"`
	Symbol   string `json:"symbol"`
	SecType  string `json:"secType,omitempty"`
	Ratio    int64  `json:"ratio"`
	Action   string `json:"action"`
	Exchange string `json:"exchange,omitempty"`
}

// TickMessage is one tickPrice or tickSize callback. Time is the receive
// time in epoch milliseconds.
type TickMessage struct {
	Type  int              `json:"tickType"`
	Price *float64         `json:"price,omitempty"`
	Size  *decimal.Decimal `json:"size,omitempty"`
	Time  int64            `json:"time,omitempty"`
}

func (t TickMessage) value() (float64, bool) {
	switch {
	case t.Price != nil && !unset(*t.Price):
		return *t.Price, true
	case t.Size != nil:
		return t.Size.InexactFloat64(), true
	}
	return 0, false
}

// SnapshotMessage collects the ticks of one market data request.
type SnapshotMessage struct {
	ReqID    int64         `json:"reqId"`
	Contract Contract      `json:"contract"`
	Ticks    []TickMessage `json:"ticks"`
}

// BarData is one historicalData callback bar. Date is "yyyyMMdd",
// "yyyyMMdd HH:mm:ss" with an optional zone, or epoch seconds.
type BarData struct {
	Date     string          `json:"date"`
	Open     float64         `json:"open"`
	High     float64         `json:"high"`
	Low      float64         `json:"low"`
	Close    float64         `json:"close"`
	Volume   decimal.Decimal `json:"volume"`
	WAP      decimal.Decimal `json:"wap"`
	BarCount int64           `json:"barCount,omitempty"`
}

// HistoricalDataMessage is a bar of a historical data request.
type HistoricalDataMessage struct {
	ReqID    int64    `json:"reqId"`
	Contract Contract `json:"contract"`
	Bar      BarData  `json:"bar"`
}

// Order is the order block of openOrder and placeOrder.
type Order struct {
	OrderID       int64           `json:"orderId,omitempty"`
	PermID        int64           `json:"permId,omitempty"`
	Account       string          `json:"account,omitempty"`
	Action        string          `json:"action"`
	TotalQuantity decimal.Decimal `json:"totalQuantity"`
	OrderType     string          `json:"orderType"`
	LmtPrice      *float64        `json:"lmtPrice,omitempty"`
	AuxPrice      *float64        `json:"auxPrice,omitempty"`
	Tif           string          `json:"tif,omitempty"`
	OutsideRth    bool            `json:"outsideRth,omitempty"`
	OrderRef      string          `json:"orderRef,omitempty"`
	Transmit      bool            `json:"transmit,omitempty"`
}

// OrderState is the state block of openOrder.
type OrderState struct {
	Status     string   `json:"status"`
	Commission *float64 `json:"commission,omitempty"`
}

// OpenOrderMessage is an openOrder callback.
type OpenOrderMessage struct {
	OrderID  int64      `json:"orderId"`
	Contract Contract   `json:"contract"`
	Order    Order      `json:"order"`
	State    OrderState `json:"orderState"`
}

// OrderStatusMessage is an orderStatus callback. It only updates fill
// progress of an order already reported by openOrder.
type OrderStatusMessage struct {
	OrderID       int64           `json:"orderId"`
	Status        string          `json:"status"`
	Filled        decimal.Decimal `json:"filled"`
	Remaining     decimal.Decimal `json:"remaining"`
	AvgFillPrice  float64         `json:"avgFillPrice"`
	PermID        int64           `json:"permId,omitempty"`
	LastFillPrice float64         `json:"lastFillPrice,omitempty"`
	Time          int64           `json:"time,omitempty"`
}

// PositionMessage is a position callback. Position is signed.
type PositionMessage struct {
	Account  string          `json:"account"`
	Contract Contract        `json:"contract"`
	Position decimal.Decimal `json:"position"`
	AvgCost  float64         `json:"avgCost"`
}

// OptionComputationMessage is a tickOptionComputation callback.
type OptionComputationMessage struct {
	ReqID      int64    `json:"reqId"`
	Contract   Contract `json:"contract"`
	TickType   int      `json:"tickType"`
	ImpliedVol *float64 `json:"impliedVol,omitempty"`
	Delta      *float64 `json:"delta,omitempty"`
	OptPrice   *float64 `json:"optPrice,omitempty"`
	PvDividend *float64 `json:"pvDividend,omitempty"`
	Gamma      *float64 `json:"gamma,omitempty"`
	Vega       *float64 `json:"vega,omitempty"`
	Theta      *float64 `json:"theta,omitempty"`
	UndPrice   *float64 `json:"undPrice,omitempty"`
	Time       int64    `json:"time,omitempty"`
}

// PlaceOrderRequest is the argument set of placeOrder.
type PlaceOrderRequest struct {
	OrderID  int64    `json:"orderId"`
	Contract Contract `json:"contract"`
	Order    Order    `json:"order"`
}

// unset reports the sentinel the socket API sends for missing doubles.
func unset(v float64) bool {
	return v == math.MaxFloat64 || math.IsNaN(v) || math.IsInf(v, 0)
}

func price(v *float64) float64 {
	if v == nil || unset(*v) {
		return 0
	}
	return *v
}
