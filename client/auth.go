package client

import (
	"context"
	"net/http"

	"github.com/etnz/brokerhub"
)

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token    string              `json:"token"`
	User     brokerhub.User      `json:"user"`
	Accounts []brokerhub.Account `json:"accounts"`
}

// Login authenticates with a login id (or email) and a password.
func (c *Client) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	in := struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}{identifier, password}
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out)
	return out, err
}

// ChangePassword changes the authenticated user's password and returns the
// server confirmation.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error) {
	in := struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}{oldPassword, newPassword}
	var out struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPut, "/auth/change-password", nil, in, &out)
	return out.Message, err
}

// RegisterRequest is a new user registration.
type RegisterRequest struct {
	LoginID    string `json:"loginId"`
	MemberName string `json:"memberName"`
	Email      string `json:"email,omitempty"`
	Password   string `json:"password"`
}

// Register creates a user. It does not log in.
func (c *Client) Register(ctx context.Context, r RegisterRequest) (brokerhub.User, error) {
	var out brokerhub.User
	err := c.do(ctx, http.MethodPost, "/user/register", nil, r, &out)
	return out, err
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (brokerhub.User, error) {
	var out brokerhub.User
	err := c.do(ctx, http.MethodGet, "/user/me", nil, nil, &out)
	return out, err
}

// SignupRequest creates a group account together with its first admin.
type SignupRequest struct {
	AccountName string `json:"accountName"`
	AccountDesc string `json:"accountDesc,omitempty"`
	LoginID     string `json:"loginId"`
	MemberName  string `json:"memberName"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password"`
}

// SignupResult identifies the account and the admin membership created by Signup.
type SignupResult struct {
	MemberID  string         `json:"memberId"`
	AccountID string         `json:"accountId"`
	Role      brokerhub.Role `json:"role"`
}

// Signup creates a user, a group account and makes the user its admin.
// It does not log in.
func (c *Client) Signup(ctx context.Context, r SignupRequest) (SignupResult, error) {
	var out SignupResult
	err := c.do(ctx, http.MethodPost, "/accounts/signup", nil, r, &out)
	return out, err
}
