package client

import (
	"context"
	"net/http"

	"github.com/etnz/brokerhub"
)

// CreateAccount creates a group account administered by the caller.
func (c *Client) CreateAccount(ctx context.Context, name, description string) (brokerhub.Account, error) {
	in := struct {
		AccountName string `json:"accountName"`
		AccountDesc string `json:"accountDesc,omitempty"`
	}{name, description}
	var out brokerhub.Account
	err := c.do(ctx, http.MethodPost, "/accounts", nil, in, &out)
	return out, err
}

// Accounts lists the accounts the caller belongs to.
func (c *Client) Accounts(ctx context.Context) ([]brokerhub.Account, error) {
	var out []brokerhub.Account
	err := c.do(ctx, http.MethodGet, "/accounts", nil, nil, &out)
	return out, err
}

// Membership returns the caller's membership within an account.
func (c *Client) Membership(ctx context.Context, accountID string) (brokerhub.Membership, error) {
	var out brokerhub.Membership
	err := c.do(ctx, http.MethodGet, p("accounts", accountID, "membership"), nil, nil, &out)
	return out, err
}

// Members lists the participants of an account.
func (c *Client) Members(ctx context.Context, accountID string) ([]brokerhub.Member, error) {
	var out []brokerhub.Member
	err := c.do(ctx, http.MethodGet, p("accounts", accountID, "members"), nil, nil, &out)
	return out, err
}

// AddMember adds an existing user to an account. Only admins may do so.
func (c *Client) AddMember(ctx context.Context, accountID, loginID, email string) (brokerhub.Member, error) {
	in := struct {
		LoginID string `json:"loginId"`
		Email   string `json:"email,omitempty"`
	}{loginID, email}
	var out brokerhub.Member
	err := c.do(ctx, http.MethodPost, p("accounts", accountID, "members"), nil, in, &out)
	return out, err
}

func (c *Client) UpdateMemberRole(ctx context.Context, accountID, memberID string, role brokerhub.Role) (brokerhub.Member, error) {
	in := struct {
		Role brokerhub.Role `json:"role"`
	}{role}
	var out brokerhub.Member
	err := c.do(ctx, http.MethodPatch, p("accounts", accountID, "members", memberID, "role"), nil, in, &out)
	return out, err
}

func (c *Client) RemoveMember(ctx context.Context, accountID, memberID string) error {
	return c.do(ctx, http.MethodDelete, p("accounts", accountID, "members", memberID), nil, nil, nil)
}

// AggregateHoldings returns the holdings of every broker of every member of
// the account, merged by instrument.
func (c *Client) AggregateHoldings(ctx context.Context, accountID string) ([]brokerhub.Holding, error) {
	var out []brokerhub.Holding
	err := c.do(ctx, http.MethodGet, p("accounts", accountID, "aggregate-holdings"), nil, nil, &out)
	return out, err
}

// AggregatePositions is the intraday counterpart of AggregateHoldings.
func (c *Client) AggregatePositions(ctx context.Context, accountID string) ([]brokerhub.Position, error) {
	var out []brokerhub.Position
	err := c.do(ctx, http.MethodGet, p("accounts", accountID, "aggregate-positions"), nil, nil, &out)
	return out, err
}
