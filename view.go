package brokerhub

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Filter is a tag restricting which lines a view shows.
type Filter string

const (
	FilterAll    Filter = "ALL"
	FilterProfit Filter = "PROFIT"
	FilterLoss   Filter = "LOSS"
	FilterLong   Filter = "LONG"
	FilterShort  Filter = "SHORT"
)

// HoldingFilters are the filters offered on the holdings page.
var HoldingFilters = []Filter{FilterAll, FilterProfit, FilterLoss}

// PositionFilters are the filters offered on the positions page.
var PositionFilters = []Filter{FilterAll, FilterProfit, FilterLoss, FilterLong, FilterShort}

// ParseFilter parses a filter tag among the allowed ones. The empty string is ALL.
func ParseFilter(s string, allowed []Filter) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FilterAll, nil
	}
	f := Filter(strings.ToUpper(s))
	if !slices.Contains(allowed, f) {
		names := make([]string, len(allowed))
		for i, a := range allowed {
			names[i] = string(a)
		}
		return "", fmt.Errorf("invalid filter %q, want one of %s", s, strings.Join(names, ", "))
	}
	return f, nil
}

// Label is the human name of the filter, as shown on filter chips.
func (f Filter) Label() string {
	switch f {
	case FilterAll, "":
		return "All"
	case FilterProfit:
		return "Profit"
	case FilterLoss:
		return "Loss"
	case FilterLong:
		return "Long"
	case FilterShort:
		return "Short"
	}
	return string(f)
}

// Match reports whether the row passes the filter.
// A row with a zero P&L is neither in profit nor in loss.
func (f Filter) Match(r Row) bool {
	switch f {
	case FilterProfit:
		return r.PnL().IsPositive()
	case FilterLoss:
		return r.PnL().IsNegative()
	case FilterLong:
		return r.Quantity().IsPositive()
	case FilterShort:
		return r.Quantity().IsNegative()
	}
	return true
}

// Query is the user's current search and filter selection.
type Query struct {
	Search string
	Filter Filter
}

// Match reports whether the row is selected by the query.
//
// The search term matches the symbol or the ISIN as a case-insensitive
// substring. An empty search matches everything.
func (q Query) Match(r Row) bool {
	if !q.Filter.Match(r) {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(q.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Symbol()), term) ||
		strings.Contains(strings.ToLower(r.ISIN()), term)
}

// View is the result of applying a query to a set of lines.
// Totals are computed over the shown rows only.
type View[T Row] struct {
	Query      Query
	Rows       []T
	TotalValue Money
	TotalPnL   Money
}

// Apply selects the rows matching q, in their original order, and totals them.
// rows is left untouched.
func Apply[T Row](rows []T, q Query) View[T] {
	v := View[T]{Query: q, Rows: make([]T, 0, len(rows))}
	for _, r := range rows {
		if !q.Match(r) {
			continue
		}
		v.Rows = append(v.Rows, r)
		v.TotalValue = v.TotalValue.Add(r.Value())
		v.TotalPnL = v.TotalPnL.Add(r.PnL())
	}
	return v
}

// Empty reports whether no row is shown.
func (v View[T]) Empty() bool { return len(v.Rows) == 0 }

// Direction is a sort direction.
type Direction int

const (
	Descending Direction = iota
	Ascending
)

// SortKey extracts the number a line is sorted by.
type SortKey[T Row] func(T) decimal.Decimal

// ByValue sorts by market value.
func ByValue[T Row](r T) decimal.Decimal { return r.Value().Decimal() }

// ByPnL sorts by profit and loss.
func ByPnL[T Row](r T) decimal.Decimal { return r.PnL().Decimal() }

// ByQuantity sorts by quantity.
func ByQuantity[T Row](r T) decimal.Decimal { return r.Quantity().Decimal() }

// SortBy returns a sorted copy of rows. The sort is stable: lines with equal
// keys keep their relative order.
func SortBy[T Row](rows []T, key SortKey[T], dir Direction) []T {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b T) int {
		c := key(a).Cmp(key(b))
		if dir == Descending {
			return -c
		}
		return c
	})
	return sorted
}

// Sorted returns the view with its rows sorted, totals are unchanged.
func (v View[T]) Sorted(key SortKey[T], dir Direction) View[T] {
	v.Rows = SortBy(v.Rows, key, dir)
	return v
}
