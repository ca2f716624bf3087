package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/etnz/brokerhub"
	"github.com/etnz/brokerhub/renderer"
	"github.com/google/subcommands"
)

// pageFlags are the controls of the holdings and positions pages.
type pageFlags struct {
	search      string
	filter      string
	sort        string
	asc         bool
	interactive bool
	out         output
}

func (p *pageFlags) SetFlags(f *flag.FlagSet, filters []brokerhub.Filter) {
	names := make([]string, len(filters))
	for i, x := range filters {
		names[i] = string(x)
	}
	f.StringVar(&p.search, "q", "", "Search by trading symbol or ISIN")
	f.StringVar(&p.filter, "f", "ALL", "Filter: "+strings.Join(names, ", "))
	f.StringVar(&p.sort, "sort", "value", "Sort by value, pnl or qty")
	f.BoolVar(&p.asc, "asc", false, "sort in ascending order")
	f.BoolVar(&p.interactive, "i", false, "read search terms from stdin, one per line")
	p.out.SetFlags(f)
}

func (p *pageFlags) query(allowed []brokerhub.Filter) (brokerhub.Query, error) {
	filter, err := brokerhub.ParseFilter(p.filter, allowed)
	if err != nil {
		return brokerhub.Query{}, err
	}
	return brokerhub.Query{Search: p.search, Filter: filter}, nil
}

func (p *pageFlags) direction() brokerhub.Direction {
	if p.asc {
		return brokerhub.Ascending
	}
	return brokerhub.Descending
}

func sortKey[T brokerhub.Row](name string) (brokerhub.SortKey[T], error) {
	switch name {
	case "value", "":
		return brokerhub.ByValue[T], nil
	case "pnl":
		return brokerhub.ByPnL[T], nil
	case "qty", "quantity":
		return brokerhub.ByQuantity[T], nil
	}
	return nil, fmt.Errorf("invalid sort %q, want value, pnl or qty", name)
}

// viewJSON is the -format json rendition of a page.
type viewJSON[T brokerhub.Row] struct {
	Search     string           `json:"search,omitempty"`
	Filter     brokerhub.Filter `json:"filter"`
	Rows       []T              `json:"rows"`
	TotalValue brokerhub.Money  `json:"totalValue"`
	TotalPnL   brokerhub.Money  `json:"totalPnl"`
}

// showPage prints the page of rows for the flags. In interactive mode every
// line read from stdin replaces the search and the page is printed again
// once the input settles.
func showPage[T brokerhub.Row](a *app, p *pageFlags, allowed []brokerhub.Filter, rows []T, render func(brokerhub.View[T]) string) error {
	key, err := sortKey[T](p.sort)
	if err != nil {
		return err
	}
	q, err := p.query(allowed)
	if err != nil {
		return err
	}
	show := func(q brokerhub.Query) error {
		v := brokerhub.Apply(rows, q).Sorted(key, p.direction())
		return p.out.print(render(v), viewJSON[T]{
			Search:     strings.TrimSpace(q.Search),
			Filter:     q.Filter,
			Rows:       v.Rows,
			TotalValue: v.TotalValue,
			TotalPnL:   v.TotalPnL,
		})
	}
	if !p.interactive {
		return show(q)
	}

	var (
		mu      sync.Mutex
		showErr error
	)
	d := brokerhub.NewDebouncer(a.cfg.Display.GetSearchDebounce())
	defer d.Stop()
	if err := show(q); err != nil {
		return err
	}
	for {
		line, err := readLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		next := q
		next.Search = line
		d.Do(func() {
			mu.Lock()
			defer mu.Unlock()
			if err := show(next); err != nil && showErr == nil {
				showErr = err
			}
		})
	}
	d.Flush()
	mu.Lock()
	defer mu.Unlock()
	return showErr
}

type holdingsCmd struct {
	pageFlags
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display the aggregated holdings of the current account" }
func (*holdingsCmd) Usage() string {
	return `bh holdings [-q <search>] [-f ALL|PROFIT|LOSS] [-sort value|pnl|qty] [-asc] [-i] [-format md|html|json]

  Displays the holdings of every broker connected to the current account,
  with their total value and unrealised P&L. Totals only count the rows
  shown. See 'bh topic filters'.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) { c.pageFlags.SetFlags(f, brokerhub.HoldingFilters) }

func (c *holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.out.check(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	acc, err := a.current()
	if err != nil {
		return fail(err)
	}
	rows, err := a.api.AggregateHoldings(ctx, acc.AccountID)
	if err != nil {
		return fail(err)
	}
	err = showPage(a, &c.pageFlags, brokerhub.HoldingFilters, rows, func(v brokerhub.View[brokerhub.Holding]) string {
		return renderer.RenderHoldings(renderer.NewHoldingsPage(acc.Label(), v))
	})
	if err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type positionsCmd struct {
	pageFlags
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "display the aggregated positions of the current account" }
func (*positionsCmd) Usage() string {
	return `bh positions [-q <search>] [-f ALL|PROFIT|LOSS|LONG|SHORT] [-sort value|pnl|qty] [-asc] [-i] [-format md|html|json]

  Displays the open positions of every broker connected to the current
  account, with their total value and net P&L. See 'bh topic filters'.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) { c.pageFlags.SetFlags(f, brokerhub.PositionFilters) }

func (c *positionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.out.check(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	acc, err := a.current()
	if err != nil {
		return fail(err)
	}
	rows, err := a.api.AggregatePositions(ctx, acc.AccountID)
	if err != nil {
		return fail(err)
	}
	err = showPage(a, &c.pageFlags, brokerhub.PositionFilters, rows, func(v brokerhub.View[brokerhub.Position]) string {
		return renderer.RenderPositions(renderer.NewPositionsPage(acc.Label(), v))
	})
	if err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
