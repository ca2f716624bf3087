package brokerhub

// holding is a helper for tests to create a rupee holding from consts.
func holding(symbol, isin string, qty, avg, last, pnl float64) Holding {
	return NewHolding(symbol, isin, Q(qty), INR(avg), INR(last), INR(pnl))
}

// position is a helper for tests to create a rupee position from consts.
func position(symbol string, qty, avg, last, pnl float64) Position {
	return NewPosition(symbol, Q(qty), INR(avg), INR(last), INR(pnl))
}

func symbols[T Row](rows []T) []string {
	s := make([]string, len(rows))
	for i, r := range rows {
		s[i] = r.Symbol()
	}
	return s
}
