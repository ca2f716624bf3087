package brokerhub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_Totals(t *testing.T) {
	rows := []Holding{
		holding("AAA", "", 10, 95, 100, 50),
		holding("BBB", "", 5, 52, 50, -10),
	}

	tests := []struct {
		filter    Filter
		want      []string
		wantValue Money
		wantPnL   Money
	}{
		{FilterAll, []string{"AAA", "BBB"}, INR(1250), INR(40)},
		{FilterProfit, []string{"AAA"}, INR(1000), INR(50)},
		{FilterLoss, []string{"BBB"}, INR(250), INR(-10)},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			v := Apply(rows, Query{Filter: tt.filter})
			assert.Equal(t, tt.want, symbols(v.Rows))
			assert.True(t, v.TotalValue.Equal(tt.wantValue), "TotalValue = %v, want %v", v.TotalValue, tt.wantValue)
			assert.True(t, v.TotalPnL.Equal(tt.wantPnL), "TotalPnL = %v, want %v", v.TotalPnL, tt.wantPnL)
		})
	}
}

func TestApply_ZeroLastPriceCountsAsZero(t *testing.T) {
	rows := []Holding{
		holding("LIVE", "", 10, 90, 100, 100),
		holding("HALTED", "", 5, 40, 0, -200),
	}
	v := Apply(rows, Query{Filter: FilterAll})
	assert.True(t, v.TotalValue.Equal(INR(1000)), "TotalValue = %v", v.TotalValue)
	assert.True(t, v.TotalPnL.Equal(INR(-100)), "TotalPnL = %v", v.TotalPnL)
}

func TestApply_ZeroPnLIsNeitherProfitNorLoss(t *testing.T) {
	rows := []Holding{holding("FLAT", "", 1, 10, 10, 0)}
	assert.Empty(t, Apply(rows, Query{Filter: FilterProfit}).Rows)
	assert.Empty(t, Apply(rows, Query{Filter: FilterLoss}).Rows)
	assert.Len(t, Apply(rows, Query{Filter: FilterAll}).Rows, 1)
}

func TestApply_Search(t *testing.T) {
	rows := []Holding{
		holding("INFY", "INE009A01021", 1, 1, 1, 1),
		holding("TCS", "INE467B01029", 1, 1, 1, -1),
		holding("HDFCBANK", "INE040A01034", 1, 1, 1, 1),
	}
	tests := []struct {
		search string
		want   []string
	}{
		{"", []string{"INFY", "TCS", "HDFCBANK"}},
		{"   ", []string{"INFY", "TCS", "HDFCBANK"}},
		{"infy", []string{"INFY"}},
		{" tc ", []string{"TCS"}},
		{"ine0", []string{"INFY", "HDFCBANK"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			v := Apply(rows, Query{Search: tt.search})
			assert.Equal(t, tt.want, symbols(v.Rows))
		})
	}

	// search and filter combine
	v := Apply(rows, Query{Search: "ine0", Filter: FilterLoss})
	assert.Empty(t, v.Rows)
	assert.True(t, v.TotalValue.IsZero())
}

func TestApply_PositionFilters(t *testing.T) {
	rows := []Position{
		position("LONGWIN", 10, 10, 12, 20),
		position("SHORTWIN", -10, 12, 10, 20),
		position("LONGLOSS", 5, 10, 8, -10),
	}
	assert.Equal(t, []string{"LONGWIN", "LONGLOSS"}, symbols(Apply(rows, Query{Filter: FilterLong}).Rows))
	assert.Equal(t, []string{"SHORTWIN"}, symbols(Apply(rows, Query{Filter: FilterShort}).Rows))
	assert.Equal(t, []string{"LONGWIN", "SHORTWIN"}, symbols(Apply(rows, Query{Filter: FilterProfit}).Rows))

	v := Apply(rows, Query{Filter: FilterProfit})
	assert.True(t, v.TotalValue.Equal(INR(20)), "TotalValue = %v", v.TotalValue) // 120 - 100
	assert.True(t, v.TotalPnL.Equal(INR(40)))
}

func TestApply_LeavesInputUntouched(t *testing.T) {
	rows := []Holding{holding("A", "", 1, 1, 1, -1), holding("B", "", 1, 1, 1, 1)}
	v := Apply(rows, Query{Filter: FilterProfit})
	v.Rows[0] = holding("X", "", 1, 1, 1, 1)
	assert.Equal(t, []string{"A", "B"}, symbols(rows))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("", HoldingFilters)
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	f, err = ParseFilter("profit", HoldingFilters)
	require.NoError(t, err)
	assert.Equal(t, FilterProfit, f)

	_, err = ParseFilter("short", HoldingFilters)
	assert.Error(t, err, "SHORT is not a holdings filter")

	f, err = ParseFilter("Short", PositionFilters)
	require.NoError(t, err)
	assert.Equal(t, FilterShort, f)
	assert.Equal(t, "Short", f.Label())
}

func TestSortBy(t *testing.T) {
	rows := []Position{
		position("A", 1, 1, 100, 5),
		position("B", 2, 1, 100, 5),
		position("C", 1, 1, 100, -5),
		position("D", 3, 1, 10, 0),
	}

	byValue := SortBy(rows, ByValue[Position], Descending)
	assert.Equal(t, []string{"B", "A", "C", "D"}, symbols(byValue), "stable on equal values")

	byPnL := SortBy(rows, ByPnL[Position], Ascending)
	assert.Equal(t, []string{"C", "D", "A", "B"}, symbols(byPnL))

	assert.Equal(t, []string{"A", "B", "C", "D"}, symbols(rows), "input is not sorted in place")
}
