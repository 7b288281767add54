package ib

import (
	"github.com/rustyeddy/terminal/broker"
	"github.com/rustyeddy/terminal/market"
)

var secTypes = broker.Codes(market.ClassNone, map[string]market.InstrumentClass{
	"STK":     market.ClassShares,
	"IND":     market.ClassShares,
	"FUND":    market.ClassShares,
	"FUT":     market.ClassFutures,
	"CONTFUT": market.ClassFutures,
	"CASH":    market.ClassCurrencies,
	"OPT":     market.ClassOptions,
	"FOP":     market.ClassFuturesOptions,
	"BOND":    market.ClassBonds,
})

var secTypeNames = secTypes.Reverse(map[market.InstrumentClass]string{
	market.ClassShares:  "STK",
	market.ClassFutures: "FUT",
})

var actions = broker.Codes(market.SideNone, map[string]market.Side{
	"BUY":    market.SideBuy,
	"SELL":   market.SideSell,
	"SSHORT": market.SideSell,
	"SLONG":  market.SideSell,
})

var actionNames = actions.Reverse(map[market.Side]string{
	market.SideSell: "SELL",
})

var orderTypes = broker.Codes(market.TypeNone, map[string]market.OrderType{
	"MKT":         market.TypeMarket,
	"MOC":         market.TypeMarket,
	"MOO":         market.TypeMarket,
	"MTL":         market.TypeMarket,
	"LMT":         market.TypeLimit,
	"LOC":         market.TypeLimit,
	"LOO":         market.TypeLimit,
	"STP":         market.TypeStop,
	"MIT":         market.TypeStop,
	"TRAIL":       market.TypeStop,
	"STP LMT":     market.TypeStopLimit,
	"LIT":         market.TypeStopLimit,
	"TRAIL LIMIT": market.TypeStopLimit,
})

var orderTypeNames = orderTypes.Reverse(map[market.OrderType]string{
	market.TypeMarket:    "MKT",
	market.TypeLimit:     "LMT",
	market.TypeStop:      "STP",
	market.TypeStopLimit: "STP LMT",
})

var tifs = broker.Codes(market.SpanNone, map[string]market.TimeSpan{
	"DAY": market.SpanDay,
	"GTC": market.SpanGtc,
	"IOC": market.SpanIoc,
	"FOK": market.SpanFok,
	"OPG": market.SpanAm,
})

var tifNames = tifs.Reverse(nil)

var statuses = broker.Codes(market.StatusNone, map[string]market.Status{
	"APIPENDING":    market.StatusPending,
	"PENDINGSUBMIT": market.StatusPending,
	"PRESUBMITTED":  market.StatusPending,
	"SUBMITTED":     market.StatusPending,
	"PENDINGCANCEL": market.StatusPending,
	"FILLED":        market.StatusFilled,
	"CANCELLED":     market.StatusCanceled,
	"APICANCELLED":  market.StatusCanceled,
	"INACTIVE":      market.StatusCanceled,
})

var rights = broker.Codes(market.OptionNone, map[string]market.OptionSide{
	"P":    market.OptionPut,
	"PUT":  market.OptionPut,
	"C":    market.OptionCall,
	"CALL": market.OptionCall,
})

// Tick type codes of the socket API, live and delayed.
var baseTicks = broker.FieldMap{
	"0":  broker.FieldBidSize,
	"1":  broker.FieldBidPrice,
	"2":  broker.FieldAskPrice,
	"3":  broker.FieldAskSize,
	"4":  broker.FieldLastPrice,
	"5":  broker.FieldLastSize,
	"6":  broker.FieldHighPrice,
	"7":  broker.FieldLowPrice,
	"8":  broker.FieldTotalVolume,
	"9":  broker.FieldClosePrice,
	"14": broker.FieldOpenPrice,
	"37": broker.FieldMark,
	"66": broker.FieldBidPrice,
	"67": broker.FieldAskPrice,
	"68": broker.FieldLastPrice,
	"69": broker.FieldBidSize,
	"70": broker.FieldAskSize,
	"71": broker.FieldLastSize,
	"72": broker.FieldHighPrice,
	"73": broker.FieldLowPrice,
	"74": broker.FieldTotalVolume,
	"75": broker.FieldClosePrice,
	"76": broker.FieldOpenPrice,
}

func extend(base broker.FieldMap, extra broker.FieldMap) broker.FieldMap {
	out := make(broker.FieldMap, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

var tickFields = map[market.InstrumentClass]broker.FieldMap{
	market.ClassShares:     baseTicks,
	market.ClassBonds:      baseTicks,
	market.ClassCurrencies: baseTicks,
	market.ClassFutures: extend(baseTicks, broker.FieldMap{
		"86": broker.FieldOpenInterest,
	}),
	market.ClassOptions: extend(baseTicks, broker.FieldMap{
		"22": broker.FieldOpenInterest,
		"24": broker.FieldVolatility,
	}),
	market.ClassFuturesOptions: extend(baseTicks, broker.FieldMap{
		"22": broker.FieldOpenInterest,
		"24": broker.FieldVolatility,
	}),
}

// timeFields names the per-side time stamped by a price tick.
var timeFields = map[string]string{
	broker.FieldBidPrice:  broker.FieldBidTime,
	broker.FieldAskPrice:  broker.FieldAskTime,
	broker.FieldLastPrice: broker.FieldTradeTime,
}
