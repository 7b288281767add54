package schwab

import (
	"github.com/rustyeddy/terminal/broker"
	"github.com/rustyeddy/terminal/market"
)

var assetTypes = broker.Codes(market.ClassNone, map[string]market.InstrumentClass{
	"ETF":                   market.ClassShares,
	"INDEX":                 market.ClassShares,
	"EQUITY":                market.ClassShares,
	"EXTENDED":              market.ClassShares,
	"INDICATOR":             market.ClassShares,
	"FUNDAMENTAL":           market.ClassShares,
	"MUTUAL_FUND":           market.ClassShares,
	"COLLECTIVE_INVESTMENT": market.ClassShares,
	"BOND":                  market.ClassBonds,
	"FIXED_INCOME":          market.ClassBonds,
	"FOREX":                 market.ClassCurrencies,
	"FUTURE":                market.ClassFutures,
	"FUTURE_OPTION":         market.ClassFuturesOptions,
	"OPTION":                market.ClassOptions,
})

// assetNames is the outgoing asset type per class.
var assetNames = map[market.InstrumentClass]string{
	market.ClassShares:         "EQUITY",
	market.ClassBonds:          "FIXED_INCOME",
	market.ClassCurrencies:     "FOREX",
	market.ClassFutures:        "FUTURE",
	market.ClassFuturesOptions: "FUTURE_OPTION",
	market.ClassOptions:        "OPTION",
}

var services = broker.Codes(market.ClassNone, map[string]market.InstrumentClass{
	"LEVELONE_EQUITIES":        market.ClassShares,
	"LEVELONE_FUTURES":         market.ClassFutures,
	"LEVELONE_FOREX":           market.ClassCurrencies,
	"LEVELONE_OPTIONS":         market.ClassOptions,
	"LEVELONE_FUTURES_OPTIONS": market.ClassFuturesOptions,
})

var statuses = broker.Codes(market.StatusNone, map[string]market.Status{
	"FILLED":                  market.StatusFilled,
	"REPLACED":                market.StatusFilled,
	"WORKING":                 market.StatusPartitioned,
	"REJECTED":                market.StatusCanceled,
	"CANCELED":                market.StatusCanceled,
	"EXPIRED":                 market.StatusCanceled,
	"NEW":                     market.StatusPending,
	"QUEUED":                  market.StatusPending,
	"ACCEPTED":                market.StatusPending,
	"PENDING_RECALL":          market.StatusPending,
	"PENDING_CANCEL":          market.StatusPending,
	"PENDING_REPLACE":         market.StatusPending,
	"PENDING_ACTIVATION":      market.StatusPending,
	"PENDING_ACKNOWLEDGEMENT": market.StatusPending,
	"AWAITING_CONDITION":      market.StatusPending,
	"AWAITING_PARENT_ORDER":   market.StatusPending,
	"AWAITING_RELEASE_TIME":   market.StatusPending,
	"AWAITING_MANUAL_REVIEW":  market.StatusPending,
	"AWAITING_STOP_CONDITION": market.StatusPending,
})

// instructions resolves leg instructions to sides.
var instructions = broker.Codes(market.SideNone, map[string]market.Side{
	"BUY":           market.SideBuy,
	"BUY_TO_OPEN":   market.SideBuy,
	"BUY_TO_CLOSE":  market.SideBuy,
	"BUY_TO_COVER":  market.SideBuy,
	"NET_DEBIT":     market.SideBuy,
	"SELL":          market.SideSell,
	"SELL_SHORT":    market.SideSell,
	"SELL_TO_OPEN":  market.SideSell,
	"SELL_TO_CLOSE": market.SideSell,
	"NET_CREDIT":    market.SideSell,
})

// netSides gives net priced order types precedence over leg instructions.
var netSides = broker.Codes(market.SideNone, map[string]market.Side{
	"NET_DEBIT":  market.SideBuy,
	"NET_CREDIT": market.SideSell,
})

var orderTypes = broker.Codes(market.TypeNone, map[string]market.OrderType{
	"MARKET":              market.TypeMarket,
	"MARKET_ON_CLOSE":     market.TypeMarket,
	"LIMIT":               market.TypeLimit,
	"LIMIT_ON_CLOSE":      market.TypeLimit,
	"NET_DEBIT":           market.TypeLimit,
	"NET_CREDIT":          market.TypeLimit,
	"NET_ZERO":            market.TypeLimit,
	"STOP":                market.TypeStop,
	"TRAILING_STOP":       market.TypeStop,
	"STOP_LIMIT":          market.TypeStopLimit,
	"TRAILING_STOP_LIMIT": market.TypeStopLimit,
})

var orderTypeNames = orderTypes.Reverse(map[market.OrderType]string{
	market.TypeMarket:    "MARKET",
	market.TypeLimit:     "LIMIT",
	market.TypeStop:      "STOP",
	market.TypeStopLimit: "STOP_LIMIT",
})

var durations = broker.Codes(market.SpanNone, map[string]market.TimeSpan{
	"DAY":                 market.SpanDay,
	"GOOD_TILL_CANCEL":    market.SpanGtc,
	"FILL_OR_KILL":        market.SpanFok,
	"IMMEDIATE_OR_CANCEL": market.SpanIoc,
})

var sessions = broker.Codes(market.SpanNone, map[string]market.TimeSpan{
	"AM": market.SpanAm,
	"PM": market.SpanPm,
})

var durationNames = durations.Reverse(nil)

var putCalls = broker.Codes(market.OptionNone, map[string]market.OptionSide{
	"PUT":  market.OptionPut,
	"CALL": market.OptionCall,
	"P":    market.OptionPut,
	"C":    market.OptionCall,
})

var equityFields = broker.FieldMap{
	"0":  broker.FieldSymbol,
	"1":  broker.FieldBidPrice,
	"2":  broker.FieldAskPrice,
	"3":  broker.FieldLastPrice,
	"4":  broker.FieldBidSize,
	"5":  broker.FieldAskSize,
	"8":  broker.FieldTotalVolume,
	"9":  broker.FieldLastSize,
	"10": broker.FieldHighPrice,
	"11": broker.FieldLowPrice,
	"12": broker.FieldClosePrice,
	"15": broker.FieldDescription,
	"17": broker.FieldOpenPrice,
	"18": broker.FieldNetChange,
	"25": broker.FieldExchange,
	"33": broker.FieldMark,
	"34": broker.FieldQuoteTime,
	"35": broker.FieldTradeTime,
	"37": broker.FieldBidTime,
	"38": broker.FieldAskTime,
}

var futuresFields = broker.FieldMap{
	"0":  broker.FieldSymbol,
	"1":  broker.FieldBidPrice,
	"2":  broker.FieldAskPrice,
	"3":  broker.FieldLastPrice,
	"4":  broker.FieldBidSize,
	"5":  broker.FieldAskSize,
	"8":  broker.FieldTotalVolume,
	"9":  broker.FieldLastSize,
	"10": broker.FieldQuoteTime,
	"11": broker.FieldTradeTime,
	"12": broker.FieldHighPrice,
	"13": broker.FieldLowPrice,
	"14": broker.FieldClosePrice,
	"16": broker.FieldDescription,
	"18": broker.FieldOpenPrice,
	"19": broker.FieldNetChange,
	"21": broker.FieldExchange,
	"23": broker.FieldOpenInterest,
	"24": broker.FieldMark,
	"31": broker.FieldMultiplier,
	"33": broker.FieldSettlement,
}

var forexFields = broker.FieldMap{
	"0":  broker.FieldSymbol,
	"1":  broker.FieldBidPrice,
	"2":  broker.FieldAskPrice,
	"3":  broker.FieldLastPrice,
	"4":  broker.FieldBidSize,
	"5":  broker.FieldAskSize,
	"6":  broker.FieldTotalVolume,
	"7":  broker.FieldLastSize,
	"8":  broker.FieldQuoteTime,
	"9":  broker.FieldTradeTime,
	"10": broker.FieldHighPrice,
	"11": broker.FieldLowPrice,
	"12": broker.FieldClosePrice,
	"14": broker.FieldDescription,
	"15": broker.FieldOpenPrice,
	"16": broker.FieldNetChange,
	"18": broker.FieldExchange,
	"29": broker.FieldMark,
}

var optionFields = broker.FieldMap{
	"0":  broker.FieldSymbol,
	"1":  broker.FieldDescription,
	"2":  broker.FieldBidPrice,
	"3":  broker.FieldAskPrice,
	"4":  broker.FieldLastPrice,
	"5":  broker.FieldHighPrice,
	"6":  broker.FieldLowPrice,
	"7":  broker.FieldClosePrice,
	"8":  broker.FieldTotalVolume,
	"9":  broker.FieldOpenInterest,
	"10": broker.FieldVolatility,
	"11": broker.FieldIntrinsicValue,
	"13": broker.FieldMultiplier,
	"15": broker.FieldOpenPrice,
	"16": broker.FieldBidSize,
	"17": broker.FieldAskSize,
	"18": broker.FieldLastSize,
	"19": broker.FieldNetChange,
	"20": broker.FieldStrikePrice,
	"21": broker.FieldContractType,
	"22": broker.FieldUnderlying,
	"28": broker.FieldDelta,
	"29": broker.FieldGamma,
	"30": broker.FieldTheta,
	"31": broker.FieldVega,
	"32": broker.FieldRho,
	"35": broker.FieldUnderlyingPx,
	"37": broker.FieldMark,
	"38": broker.FieldQuoteTime,
	"39": broker.FieldTradeTime,
}

var futuresOptionFields = broker.FieldMap{
	"0":  broker.FieldSymbol,
	"1":  broker.FieldBidPrice,
	"2":  broker.FieldAskPrice,
	"3":  broker.FieldLastPrice,
	"4":  broker.FieldBidSize,
	"5":  broker.FieldAskSize,
	"8":  broker.FieldTotalVolume,
	"9":  broker.FieldLastSize,
	"10": broker.FieldQuoteTime,
	"11": broker.FieldTradeTime,
	"12": broker.FieldHighPrice,
	"13": broker.FieldLowPrice,
	"14": broker.FieldClosePrice,
	"16": broker.FieldDescription,
	"17": broker.FieldOpenPrice,
	"18": broker.FieldOpenInterest,
	"19": broker.FieldMark,
	"22": broker.FieldMultiplier,
	"23": broker.FieldSettlement,
	"24": broker.FieldUnderlying,
	"25": broker.FieldStrikePrice,
	"28": broker.FieldContractType,
	"31": broker.FieldExchange,
}

var streamFields = map[market.InstrumentClass]broker.FieldMap{
	market.ClassShares:         equityFields,
	market.ClassFutures:        futuresFields,
	market.ClassCurrencies:     forexFields,
	market.ClassOptions:        optionFields,
	market.ClassFuturesOptions: futuresOptionFields,
}
