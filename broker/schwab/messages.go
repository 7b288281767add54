package schwab

import (
	"strings"
	"time"
)

// QuoteMessage is the quote block of a REST quote response.
type QuoteMessage struct {
	AskPrice    *float64 `json:"askPrice,omitempty"`
	AskSize     *float64 `json:"askSize,omitempty"`
	BidPrice    *float64 `json:"bidPrice,omitempty"`
	BidSize     *float64 `json:"bidSize,omitempty"`
	LastPrice   *float64 `json:"lastPrice,omitempty"`
	LastSize    *float64 `json:"lastSize,omitempty"`
	OpenPrice   *float64 `json:"openPrice,omitempty"`
	HighPrice   *float64 `json:"highPrice,omitempty"`
	LowPrice    *float64 `json:"lowPrice,omitempty"`
	ClosePrice  *float64 `json:"closePrice,omitempty"`
	TotalVolume *float64 `json:"totalVolume,omitempty"`
	Mark        *float64 `json:"mark,omitempty"`
	NetChange   *float64 `json:"netChange,omitempty"`
	QuoteTime   *int64   `json:"quoteTime,omitempty"`
	TradeTime   *int64   `json:"tradeTime,omitempty"`
	AskTime     *int64   `json:"askTime,omitempty"`
	BidTime     *int64   `json:"bidTime,omitempty"`
}

// ReferenceMessage carries static instrument data.
type ReferenceMessage struct {
	Description  string `json:"description,omitempty"`
	Exchange     string `json:"exchange,omitempty"`
	ExchangeName string `json:"exchangeName,omitempty"`
}

// AssetMessage is one entry of a quotes response.
type AssetMessage struct {
	Symbol        string            `json:"symbol"`
	AssetMainType string            `json:"assetMainType,omitempty"`
	Quote         QuoteMessage      `json:"quote"`
	Reference     *ReferenceMessage `json:"reference,omitempty"`
}

// BarMessage is one candle of a price history response.
type BarMessage struct {
	Symbol   string  `json:"symbol,omitempty"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
	Datetime *int64  `json:"datetime,omitempty"`
}

// CandleListMessage is a price history response.
type CandleListMessage struct {
	Symbol  string       `json:"symbol"`
	Empty   bool         `json:"empty"`
	Candles []BarMessage `json:"candles"`
}

// UnderlyingMessage is the underlying quote embedded in an option chain.
type UnderlyingMessage struct {
	Symbol       string   `json:"symbol"`
	Description  string   `json:"description,omitempty"`
	ExchangeName string   `json:"exchangeName,omitempty"`
	Ask          *float64 `json:"ask,omitempty"`
	Bid          *float64 `json:"bid,omitempty"`
	Last         *float64 `json:"last,omitempty"`
	AskSize      *float64 `json:"askSize,omitempty"`
	BidSize      *float64 `json:"bidSize,omitempty"`
	OpenPrice    *float64 `json:"openPrice,omitempty"`
	HighPrice    *float64 `json:"highPrice,omitempty"`
	LowPrice     *float64 `json:"lowPrice,omitempty"`
	Close        *float64 `json:"close,omitempty"`
	TotalVolume  *float64 `json:"totalVolume,omitempty"`
	QuoteTime    *int64   `json:"quoteTime,omitempty"`
}

// OptionMessage is one contract of an option chain.
type OptionMessage struct {
	PutCall        string   `json:"putCall"`
	Symbol         string   `json:"symbol"`
	Description    string   `json:"description,omitempty"`
	ExchangeName   string   `json:"exchangeName,omitempty"`
	Bid            *float64 `json:"bid,omitempty"`
	Ask            *float64 `json:"ask,omitempty"`
	Last           *float64 `json:"last,omitempty"`
	BidSize        *float64 `json:"bidSize,omitempty"`
	AskSize        *float64 `json:"askSize,omitempty"`
	OpenPrice      *float64 `json:"openPrice,omitempty"`
	HighPrice      *float64 `json:"highPrice,omitempty"`
	LowPrice       *float64 `json:"lowPrice,omitempty"`
	ClosePrice     *float64 `json:"closePrice,omitempty"`
	TotalVolume    *float64 `json:"totalVolume,omitempty"`
	QuoteTime      *int64   `json:"quoteTimeInLong,omitempty"`
	Volatility     *float64 `json:"volatility,omitempty"`
	Delta          *float64 `json:"delta,omitempty"`
	Gamma          *float64 `json:"gamma,omitempty"`
	Theta          *float64 `json:"theta,omitempty"`
	Vega           *float64 `json:"vega,omitempty"`
	Rho            *float64 `json:"rho,omitempty"`
	OpenInterest   *float64 `json:"openInterest,omitempty"`
	IntrinsicValue *float64 `json:"intrinsicValue,omitempty"`
	StrikePrice    float64  `json:"strikePrice"`
	ExpirationDate string   `json:"expirationDate,omitempty"`
	Multiplier     *float64 `json:"multiplier,omitempty"`
}

// OptionChainMessage is an option chain response. The expiration maps are
// keyed by "date:days" and then by strike.
type OptionChainMessage struct {
	Symbol          string                                `json:"symbol"`
	Status          string                                `json:"status,omitempty"`
	Underlying      *UnderlyingMessage                    `json:"underlying,omitempty"`
	UnderlyingPrice *float64                              `json:"underlyingPrice,omitempty"`
	CallExpDateMap  map[string]map[string][]OptionMessage `json:"callExpDateMap,omitempty"`
	PutExpDateMap   map[string]map[string][]OptionMessage `json:"putExpDateMap,omitempty"`
}

// InstrumentMessage identifies the instrument of a leg or position.
type InstrumentMessage struct {
	Symbol           string `json:"symbol"`
	AssetType        string `json:"assetType,omitempty"`
	Cusip            string `json:"cusip,omitempty"`
	Description      string `json:"description,omitempty"`
	PutCall          string `json:"putCall,omitempty"`
	UnderlyingSymbol string `json:"underlyingSymbol,omitempty"`
}

// PositionMessage is one entry of an account's positions.
type PositionMessage struct {
	ShortQuantity       float64           `json:"shortQuantity"`
	LongQuantity        float64           `json:"longQuantity"`
	AveragePrice        float64           `json:"averagePrice"`
	LongOpenProfitLoss  *float64          `json:"longOpenProfitLoss,omitempty"`
	ShortOpenProfitLoss *float64          `json:"shortOpenProfitLoss,omitempty"`
	MarketValue         float64           `json:"marketValue,omitempty"`
	Instrument          InstrumentMessage `json:"instrument"`
}

// OrderLegMessage is one leg of an order. Outgoing requests use the same shape.
type OrderLegMessage struct {
	OrderLegType   string            `json:"orderLegType,omitempty"`
	LegID          int64             `json:"legId,omitempty"`
	Instruction    string            `json:"instruction"`
	PositionEffect string            `json:"positionEffect,omitempty"`
	Quantity       float64           `json:"quantity"`
	Instrument     InstrumentMessage `json:"instrument"`
}

// ExecutionLegMessage is one fill of an order leg.
type ExecutionLegMessage struct {
	LegID    int64   `json:"legId,omitempty"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Time     string  `json:"time,omitempty"`
}

// ActivityMessage groups the executions reported for an order.
type ActivityMessage struct {
	ActivityType  string                `json:"activityType,omitempty"`
	ExecutionType string                `json:"executionType,omitempty"`
	Quantity      float64               `json:"quantity,omitempty"`
	ExecutionLegs []ExecutionLegMessage `json:"executionLegs,omitempty"`
}

// OrderMessage is an order as reported by the orders endpoints.
type OrderMessage struct {
	OrderID                  int64             `json:"orderId,omitempty"`
	Session                  string            `json:"session,omitempty"`
	Duration                 string            `json:"duration,omitempty"`
	OrderType                string            `json:"orderType"`
	ComplexOrderStrategyType string            `json:"complexOrderStrategyType,omitempty"`
	OrderStrategyType        string            `json:"orderStrategyType,omitempty"`
	Quantity                 float64           `json:"quantity,omitempty"`
	FilledQuantity           float64           `json:"filledQuantity,omitempty"`
	RemainingQuantity        float64           `json:"remainingQuantity,omitempty"`
	Price                    *float64          `json:"price,omitempty"`
	StopPrice                *float64          `json:"stopPrice,omitempty"`
	Status                   string            `json:"status,omitempty"`
	AccountNumber            string            `json:"accountNumber,omitempty"`
	EnteredTime              string            `json:"enteredTime,omitempty"`
	CloseTime                string            `json:"closeTime,omitempty"`
	Tag                      string            `json:"tag,omitempty"`
	OrderLegCollection       []OrderLegMessage `json:"orderLegCollection"`
	OrderActivityCollection  []ActivityMessage `json:"orderActivityCollection,omitempty"`
}

// OrderRequest is the body of a place order call.
type OrderRequest struct {
	Session                  string            `json:"session"`
	Duration                 string            `json:"duration"`
	OrderType                string            `json:"orderType"`
	ComplexOrderStrategyType string            `json:"complexOrderStrategyType,omitempty"`
	OrderStrategyType        string            `json:"orderStrategyType"`
	Price                    *float64          `json:"price,omitempty"`
	StopPrice                *float64          `json:"stopPrice,omitempty"`
	OrderLegCollection       []OrderLegMessage `json:"orderLegCollection"`
}

// StreamMessage is one data frame of the streamer. Content records are keyed
// by numeric field codes that depend on the service.
type StreamMessage struct {
	Service   string           `json:"service"`
	Timestamp int64            `json:"timestamp"`
	Command   string           `json:"command,omitempty"`
	Content   []map[string]any `json:"content"`
}

var timeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02",
}

// parseTime reads the timestamp formats the API uses. Unparseable values
// yield the zero time.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func millis(ms *int64) time.Time {
	if ms == nil || *ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(*ms).UTC()
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
