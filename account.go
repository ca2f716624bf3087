package brokerhub

import (
	"fmt"
	"strings"
)

// Role is the role of a user within an account.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleMember}

// ParseRole parses a role, case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleAdmin, RoleMember:
		return r, nil
	}
	return "", fmt.Errorf("invalid role %q, want one of ADMIN, MEMBER", s)
}

// Account is a shared group a user belongs to, as listed at login.
//
// AccountMemberID identifies the user's membership in that account. The
// login payload does not carry it, it is resolved lazily after selection.
type Account struct {
	AccountID       string `json:"accountId"`
	Name            string `json:"name,omitempty"`
	Description     string `json:"description,omitempty"`
	Role            Role   `json:"role"`
	AccountMemberID string `json:"accountMemberId,omitempty"`
}

// Label is how an account is shown in lists.
func (a Account) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return "Account ID: " + a.AccountID
}

// IsAdmin reports whether the user administers the account.
func (a Account) IsAdmin() bool { return a.Role == RoleAdmin }

// User is the authenticated user's profile.
type User struct {
	ID      string `json:"id"`
	LoginID string `json:"loginId"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Membership is the caller's participation record within one account.
type Membership struct {
	AccountMemberID string `json:"accountMemberId"`
	AccountID       string `json:"accountId"`
	Role            Role   `json:"role"`
}

// Member is a participant of an account, as listed on the group page.
type Member struct {
	MemberID   string `json:"memberId"`
	AccountID  string `json:"accountId,omitempty"`
	LoginID    string `json:"loginId,omitempty"`
	MemberName string `json:"memberName,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       Role   `json:"role"`
}

// Broker identifies an external brokerage.
type Broker string

const (
	BrokerDhan    Broker = "DHAN"
	BrokerZerodha Broker = "ZERODHA"
)

// Brokers lists the brokerages credentials can be stored for.
var Brokers = []Broker{BrokerDhan, BrokerZerodha}

// BrokerCredential references an access token stored server side.
// The token itself never comes back from the backend.
type BrokerCredential struct {
	CredentialID    string `json:"credentialId"`
	AccountMemberID string `json:"accountMemberId,omitempty"`
	Nickname        string `json:"nickname"`
	Broker          Broker `json:"broker"`
	CreatedAt       string `json:"createdAt,omitempty"`
}
