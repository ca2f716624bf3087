package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/etnz/brokerhub"
	"github.com/etnz/brokerhub/internal/fakeapi"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// creds is a fixed credentials source.
type creds struct{ token, account string }

func (c creds) Token() string     { return c.token }
func (c creds) AccountID() string { return c.account }

func TestErrorNormalization(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/error", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Login ID already taken","message":"ignored"}`))
	})
	r.Get("/api/message", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"Cannot demote yourself"}`))
	})
	r.Get("/api/empty", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.Get("/api/html", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(WithBaseURL(srv.URL + "/api"))
	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/error", 400, "Login ID already taken"},
		{"/message", 409, "Cannot demote yourself"},
		{"/empty", 500, "Request failed with status 500"},
		{"/html", 502, "Request failed with status 502"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := c.do(context.Background(), http.MethodGet, tt.path, nil, nil, nil)
			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.want, e.Error())
			assert.Equal(t, tt.status, e.StatusCode)
			assert.NotEmpty(t, e.RequestID)
			assert.True(t, IsStatus(err, tt.status))
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := New(WithBaseURL(addr + "/api"))
	_, err := c.Me(context.Background())
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Zero(t, e.StatusCode)
	assert.NotEmpty(t, e.Message)
	assert.NotNil(t, errors.Unwrap(err), "transport error is kept")
}

func TestHeaders(t *testing.T) {
	api := fakeapi.New()
	srv := api.Start()
	defer srv.Close()

	c := New(WithBaseURL(srv.URL + "/api"))
	_, _ = c.Login(context.Background(), "nobody", "x")
	h := api.LastHeader()
	assert.Empty(t, h.Get("Authorization"), "no credentials bound")
	assert.Empty(t, h.Get("X-Account-Id"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	first := h.Get("X-Request-Id")
	assert.NotEmpty(t, first)

	c.SetCredentials(creds{token: "tok", account: "acc-1"})
	_, _ = c.Accounts(context.Background())
	h = api.LastHeader()
	assert.Equal(t, "Bearer tok", h.Get("Authorization"))
	assert.Equal(t, "acc-1", h.Get("X-Account-Id"))
	assert.NotEqual(t, first, h.Get("X-Request-Id"))
}

func TestEndpoints(t *testing.T) {
	api := fakeapi.New()
	api.AddUser("asharma", "Anil", "anil@example.com", "s3cretpass")
	api.AddUser("ravi", "Ravi", "", "ravipass1")
	accountID, adminID := api.AddAccount("Family", "asharma")
	api.SetHoldings(accountID,
		fakeapi.Line{Symbol: "INFY", ISIN: "INE009A01021", Quantity: 10, AvgPrice: 1400, LastPrice: 1500, PnL: 1000},
	)
	api.SetPositions(accountID,
		fakeapi.Line{Symbol: "NIFTY", Quantity: -50, AvgPrice: 100, LastPrice: 90, PnL: 500},
	)
	srv := api.Start()
	defer srv.Close()
	ctx := context.Background()

	c := New(WithBaseURL(srv.URL + "/api"))
	res, err := c.Login(ctx, "asharma", "s3cretpass")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "asharma", res.User.LoginID)
	assert.Equal(t, []brokerhub.Account{{AccountID: accountID, Role: brokerhub.RoleAdmin}}, res.Accounts)

	_, err = c.Login(ctx, "asharma", "wrong")
	assert.EqualError(t, err, "Invalid credentials")

	c.SetCredentials(creds{token: res.Token, account: accountID})

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Anil", me.Name)

	accounts, err := c.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Family", accounts[0].Name)
	assert.Equal(t, adminID, accounts[0].AccountMemberID)

	ms, err := c.Membership(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, brokerhub.Membership{AccountMemberID: adminID, AccountID: accountID, Role: brokerhub.RoleAdmin}, ms)

	holdings, err := c.AggregateHoldings(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.True(t, holdings[0].Value().Equal(brokerhub.INR(15000)))

	positions, err := c.AggregatePositions(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].Quantity().IsNegative())

	m, err := c.AddMember(ctx, accountID, "ravi", "")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", m.MemberName)
	_, err = c.AddMember(ctx, accountID, "ravi", "")
	assert.True(t, IsStatus(err, http.StatusConflict))

	m, err = c.UpdateMemberRole(ctx, accountID, m.MemberID, brokerhub.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, brokerhub.RoleAdmin, m.Role)

	members, err := c.Members(ctx, accountID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
	require.NoError(t, c.RemoveMember(ctx, accountID, m.MemberID))
	assert.EqualError(t, c.RemoveMember(ctx, accountID, adminID), "Cannot remove yourself from the account")

	cred, err := c.StoreCredential(ctx, StoreCredentialRequest{AccountMemberID: adminID, Broker: brokerhub.BrokerDhan, Nickname: "main", Token: "dhan-token"})
	require.NoError(t, err)
	assert.Equal(t, "main", cred.Nickname)
	stored, _ := api.StoredToken(cred.CredentialID)
	assert.Equal(t, "dhan-token", stored)

	list, err := c.Credentials(ctx, adminID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, brokerhub.BrokerDhan, list[0].Broker)

	require.NoError(t, c.DeleteCredential(ctx, cred.CredentialID))
	assert.True(t, IsStatus(c.DeleteCredential(ctx, cred.CredentialID), http.StatusNotFound))

	acc, err := c.CreateAccount(ctx, "Trip", "")
	require.NoError(t, err)
	assert.Equal(t, "Trip", acc.Name)
	assert.Equal(t, brokerhub.RoleAdmin, acc.Role)

	msg, err := c.ChangePassword(ctx, "s3cretpass", "n3wpassword")
	require.NoError(t, err)
	assert.Equal(t, "Password updated successfully", msg)
	_, err = c.ChangePassword(ctx, "s3cretpass", "again1234")
	assert.EqualError(t, err, "Old password is incorrect")

	u, err := c.Register(ctx, RegisterRequest{LoginID: "meera", MemberName: "Meera", Password: "meerapass"})
	require.NoError(t, err)
	assert.Equal(t, "meera", u.LoginID)
	_, err = c.Register(ctx, RegisterRequest{LoginID: "meera", MemberName: "Meera", Password: "meerapass"})
	assert.EqualError(t, err, "Login ID already taken")
}

func TestSignup(t *testing.T) {
	api := fakeapi.New()
	srv := api.Start()
	defer srv.Close()
	ctx := context.Background()

	c := New(WithBaseURL(srv.URL + "/api"))
	res, err := c.Signup(ctx, SignupRequest{AccountName: "Family", LoginID: "kavya", MemberName: "Kavya", Password: "kavyapass"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccountID)
	assert.NotEmpty(t, res.MemberID)
	assert.Equal(t, brokerhub.RoleAdmin, res.Role)

	login, err := c.Login(ctx, "kavya", "kavyapass")
	require.NoError(t, err)
	require.Len(t, login.Accounts, 1)
	assert.Equal(t, res.AccountID, login.Accounts[0].AccountID)

	_, err = c.Signup(ctx, SignupRequest{AccountName: "Other", LoginID: "kavya", MemberName: "Kavya", Password: "kavyapass"})
	assert.EqualError(t, err, "Login ID already taken")
}
