package brokerhub

import (
	"encoding/json"
	"fmt"
)

// Row is what the holdings and positions views need from a line.
type Row interface {
	Symbol() string
	ISIN() string
	Quantity() Quantity
	PnL() Money
	// Value is the market value of the line.
	Value() Money
}

// quote holds the fields shared by holdings and positions, as aggregated by
// the backend across every broker of an account.
type quote struct {
	exchange     string
	symbol       string
	isin         string
	quantity     Quantity
	avgPrice     Money
	lastPrice    Money
	unquoted     bool // no last price was reported
	pnl          Money
	dayChange    Money
	dayChangePct Percent
}

func (q quote) Exchange() string          { return q.exchange }
func (q quote) Symbol() string            { return q.symbol }
func (q quote) ISIN() string              { return q.isin }
func (q quote) Quantity() Quantity        { return q.quantity }
func (q quote) AveragePrice() Money       { return q.avgPrice }
func (q quote) LastPrice() Money          { return q.lastPrice }
func (q quote) PnL() Money                { return q.pnl }
func (q quote) DayChange() Money          { return q.dayChange }
func (q quote) DayChangePercent() Percent { return q.dayChangePct }

// Value returns last price × quantity. A zero last price values the line at
// zero.
func (q quote) Value() Money { return q.lastPrice.Mul(q.quantity) }

// jquote is the backend representation of an aggregated line.
type jquote struct {
	Exchange            string   `json:"exchange,omitempty"`
	TradingSymbol       string   `json:"tradingSymbol"`
	ISIN                string   `json:"isin,omitempty"`
	Quantity            float64  `json:"quantity"`
	AveragePrice        float64  `json:"averagePrice"`
	LastPrice           *float64 `json:"lastPrice"`
	PnL                 float64  `json:"pnl"`
	DayChange           float64  `json:"dayChange"`
	DayChangePercentage float64  `json:"dayChangePercentage"`
}

func (q *quote) UnmarshalJSON(data []byte) error {
	var j jquote
	if err := json.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("cannot decode line: %w", err)
	}
	*q = quote{
		exchange:     j.Exchange,
		symbol:       j.TradingSymbol,
		isin:         j.ISIN,
		quantity:     Q(j.Quantity),
		avgPrice:     INR(j.AveragePrice),
		lastPrice:    INR(0),
		unquoted:     j.LastPrice == nil,
		pnl:          INR(j.PnL),
		dayChange:    INR(j.DayChange),
		dayChangePct: Percent(j.DayChangePercentage),
	}
	if j.LastPrice != nil {
		q.lastPrice = INR(*j.LastPrice)
	}
	return nil
}

// MarshalJSON writes the line the way the backend does, plus its value.
func (q quote) MarshalJSON() ([]byte, error) { return q.marshal(q.Value()) }

func (q quote) marshal(value Money) ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("exchange", q.exchange)
	w.Append("tradingSymbol", q.symbol)
	w.Optional("isin", q.isin)
	w.Append("quantity", q.quantity)
	w.Append("averagePrice", q.avgPrice.Decimal())
	w.Append("lastPrice", q.lastPrice.Decimal())
	w.Append("pnl", q.pnl.Decimal())
	w.Append("value", value.Decimal())
	w.Optional("dayChange", q.dayChange.Decimal())
	w.Optional("dayChangePercentage", float64(q.dayChangePct))
	return w.MarshalJSON()
}

// Holding is a delivery holding, an end-of-day style snapshot of a security
// held across the account's brokers.
type Holding struct{ quote }

// NewHolding creates a holding.
func NewHolding(symbol, isin string, quantity Quantity, avgPrice, lastPrice, pnl Money) Holding {
	return Holding{quote{
		symbol:    symbol,
		isin:      isin,
		quantity:  quantity,
		avgPrice:  avgPrice,
		lastPrice: lastPrice,
		pnl:       pnl,
	}}
}

// Position is an intraday position. Quantity is negative for short positions.
type Position struct{ quote }

// Value returns last price × quantity. When the broker sent no last price at
// all, the position is valued at its average price.
func (p Position) Value() Money {
	if p.unquoted {
		return p.avgPrice.Mul(p.quantity)
	}
	return p.quote.Value()
}

// MarshalJSON writes the position the way the backend does, plus its value.
func (p Position) MarshalJSON() ([]byte, error) { return p.marshal(p.Value()) }

// NewPosition creates a position.
func NewPosition(symbol string, quantity Quantity, avgPrice, lastPrice, pnl Money) Position {
	return Position{quote{
		symbol:    symbol,
		quantity:  quantity,
		avgPrice:  avgPrice,
		lastPrice: lastPrice,
		pnl:       pnl,
	}}
}
