package brokerhub

import "slices"

// SessionKey is the storage key of the persisted session record.
const SessionKey = "brokerhub_auth"

// Session is the authentication state of the dashboard.
//
// Token is empty when anonymous. Current, when set, always refers to an
// element of Accounts.
type Session struct {
	Token    string
	User     *User
	Accounts []Account
	Current  *Account
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool { return s.Token != "" }

// Account returns the account with the given id.
func (s Session) Account(id string) (Account, bool) {
	i := slices.IndexFunc(s.Accounts, func(a Account) bool { return a.AccountID == id })
	if i < 0 {
		return Account{}, false
	}
	return s.Accounts[i], true
}

// CurrentID returns the current account id or "".
func (s Session) CurrentID() string {
	if s.Current == nil {
		return ""
	}
	return s.Current.AccountID
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	c := Session{Token: s.Token, Accounts: slices.Clone(s.Accounts)}
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	if s.Current != nil {
		a := *s.Current
		c.Current = &a
	}
	return c
}

// Upsert replaces the account with the same id, or appends it. Current is
// refreshed when it is the same account.
func (s *Session) Upsert(a Account) {
	if i := slices.IndexFunc(s.Accounts, func(b Account) bool { return b.AccountID == a.AccountID }); i >= 0 {
		s.Accounts[i] = a
	} else {
		s.Accounts = append(s.Accounts, a)
	}
	if s.Current != nil && s.Current.AccountID == a.AccountID {
		cur := a
		s.Current = &cur
	}
}

// Select makes the account with the given id current.
// It returns false, leaving the session untouched, when the id is unknown.
func (s *Session) Select(id string) bool {
	a, ok := s.Account(id)
	if !ok {
		return false
	}
	s.Current = &a
	return true
}
