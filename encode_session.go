package brokerhub

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SessionVersion is the version of the persisted session schema.
//
// Version 1 records, written before accounts carried their membership id,
// are not read back: the user simply logs in again.
const SessionVersion = 2

// ErrUnsupportedVersion is returned when decoding a session record written
// with an unknown schema version.
var ErrUnsupportedVersion = errors.New("unsupported session version")

// EncodeSession serializes a session into its persisted record.
func EncodeSession(s Session) ([]byte, error) {
	var w jsonObjectWriter
	w.Append("version", SessionVersion)
	w.Append("token", s.Token)
	w.Optional("user", s.User)
	w.Optional("accounts", s.Accounts)
	if s.Current != nil {
		w.Append("currentAccountId", s.Current.AccountID)
	}
	return w.MarshalJSON()
}

// DecodeSession parses a persisted record.
//
// The current account is stored by id, it is restored from the account list.
// A record naming an account that is not listed is repaired by dropping the
// selection.
func DecodeSession(data []byte) (Session, error) {
	// jsession is the persisted record read using json parser.
	type jsession struct {
		Version          int       `json:"version"`
		Token            string    `json:"token"`
		User             *User     `json:"user"`
		Accounts         []Account `json:"accounts"`
		CurrentAccountID string    `json:"currentAccountId"`
	}
	var js jsession
	if err := json.Unmarshal(data, &js); err != nil {
		return Session{}, fmt.Errorf("cannot parse session record: %w", err)
	}
	if js.Version != SessionVersion {
		return Session{}, fmt.Errorf("%w %d", ErrUnsupportedVersion, js.Version)
	}
	if js.Token == "" {
		return Session{}, errors.New("session record has no token")
	}
	s := Session{Token: js.Token, User: js.User, Accounts: js.Accounts}
	if js.CurrentAccountID != "" {
		s.Select(js.CurrentAccountID)
	}
	return s, nil
}
