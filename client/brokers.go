package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/etnz/brokerhub"
)

// Credentials lists the broker credentials stored for a membership.
func (c *Client) Credentials(ctx context.Context, accountMemberID string) ([]brokerhub.BrokerCredential, error) {
	var out []brokerhub.BrokerCredential
	q := url.Values{"accountMemberId": {accountMemberID}}
	err := c.do(ctx, http.MethodGet, "/brokers", q, nil, &out)
	return out, err
}

// StoreCredentialRequest carries a broker access token to store. The token is
// encrypted server side and never returned.
type StoreCredentialRequest struct {
	AccountMemberID string           `json:"accountMemberId"`
	Broker          brokerhub.Broker `json:"broker"`
	Nickname        string           `json:"nickname"`
	Token           string           `json:"token"`
}

func (c *Client) StoreCredential(ctx context.Context, r StoreCredentialRequest) (brokerhub.BrokerCredential, error) {
	var out brokerhub.BrokerCredential
	err := c.do(ctx, http.MethodPost, "/brokers", nil, r, &out)
	return out, err
}

func (c *Client) DeleteCredential(ctx context.Context, credentialID string) error {
	return c.do(ctx, http.MethodDelete, p("brokers", credentialID), nil, nil, nil)
}
