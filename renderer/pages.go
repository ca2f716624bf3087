package renderer

import (
	"time"

	"github.com/etnz/brokerhub"
)

// Chip is one filter option of a page. Active marks the selected one.
type Chip struct {
	Label  string
	Active bool
}

func chips(allowed []brokerhub.Filter, active brokerhub.Filter) []Chip {
	if active == "" {
		active = brokerhub.FilterAll
	}
	out := make([]Chip, len(allowed))
	for i, f := range allowed {
		out[i] = Chip{Label: f.Label(), Active: f == active}
	}
	return out
}

// Summary is the header shared by the holdings and positions pages: stat
// cards over the shown rows and the filter chips.
type Summary struct {
	Path       string
	Title      string
	Account    string
	Search     string
	Chips      []Chip
	Count      int
	ValueTitle string
	TotalValue brokerhub.Money
	PnLTitle   string
	TotalPnL   brokerhub.Money
}

type HoldingsPage struct {
	Summary
	Rows []brokerhub.Holding
}

// NewHoldingsPage builds the holdings page of a view.
func NewHoldingsPage(account string, v brokerhub.View[brokerhub.Holding]) *HoldingsPage {
	pnlTitle := "P&L (Unrealised gain)"
	if v.TotalPnL.IsNegative() {
		pnlTitle = "P&L (Unrealised loss)"
	}
	return &HoldingsPage{
		Summary: Summary{
			Path:       "/",
			Title:      "Holdings",
			Account:    account,
			Search:     v.Query.Search,
			Chips:      chips(brokerhub.HoldingFilters, v.Query.Filter),
			Count:      len(v.Rows),
			ValueTitle: "Total Value",
			TotalValue: v.TotalValue,
			PnLTitle:   pnlTitle,
			TotalPnL:   v.TotalPnL,
		},
		Rows: v.Rows,
	}
}

type PositionsPage struct {
	Summary
	Rows []brokerhub.Position
}

// NewPositionsPage builds the positions page of a view.
func NewPositionsPage(account string, v brokerhub.View[brokerhub.Position]) *PositionsPage {
	pnlTitle := "P&L (Net gain)"
	if v.TotalPnL.IsNegative() {
		pnlTitle = "P&L (Net loss)"
	}
	return &PositionsPage{
		Summary: Summary{
			Path:       "/positions",
			Title:      "Positions",
			Account:    account,
			Search:     v.Query.Search,
			Chips:      chips(brokerhub.PositionFilters, v.Query.Filter),
			Count:      len(v.Rows),
			ValueTitle: "Total Position Value",
			TotalValue: v.TotalValue,
			PnLTitle:   pnlTitle,
			TotalPnL:   v.TotalPnL,
		},
		Rows: v.Rows,
	}
}

// AccountsPage lists the accounts of the session. Current is the id of the
// selected account.
type AccountsPage struct {
	Path     string
	Accounts []brokerhub.Account
	Current  string
}

func NewAccountsPage(s brokerhub.Session) *AccountsPage {
	return &AccountsPage{Path: "/select-account", Accounts: s.Accounts, Current: s.CurrentID()}
}

type ProfilePage struct {
	Path      string
	User      brokerhub.User
	Account   *brokerhub.Account
	ExpiresAt time.Time
	Expired   bool
}

// NewProfilePage builds the profile page. expiresAt is the session token
// expiry, zero when unknown.
func NewProfilePage(s brokerhub.Session, user brokerhub.User, expiresAt time.Time, expired bool) *ProfilePage {
	return &ProfilePage{
		Path:      "/settings/profile",
		User:      user,
		Account:   s.Current,
		ExpiresAt: expiresAt,
		Expired:   expired,
	}
}

type MembersPage struct {
	Path    string
	Account string
	Members []brokerhub.Member
}

func NewMembersPage(account string, members []brokerhub.Member) *MembersPage {
	return &MembersPage{Path: "/settings/group", Account: account, Members: members}
}

type CredentialsPage struct {
	Path        string
	Account     string
	Credentials []brokerhub.BrokerCredential
}

func NewCredentialsPage(account string, creds []brokerhub.BrokerCredential) *CredentialsPage {
	return &CredentialsPage{Path: "/settings/broker", Account: account, Credentials: creds}
}
