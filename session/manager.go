// Package session manages the authentication state of the dashboard: the
// logged in user, the accounts they belong to and the one they work in.
//
// The state lives in a Manager and is persisted as a single record in a
// Store after every mutation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/etnz/brokerhub"
	"github.com/etnz/brokerhub/client"
	"github.com/sirupsen/logrus"
)

var (
	ErrAnonymous = errors.New("not logged in, run 'bh login' first")
	ErrNoAccount = errors.New("no account selected, run 'bh select' first")
)

// API is the part of the backend the manager talks to.
type API interface {
	Login(ctx context.Context, identifier, password string) (client.LoginResult, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error)
	Membership(ctx context.Context, accountID string) (brokerhub.Membership, error)
}

// Manager owns the session state. It is safe for concurrent use.
//
// Every mutation that changes which accounts exist or which one is selected
// bumps an epoch. Background results carry the epoch they were issued in and
// are dropped when it moved on, so a slow lookup never overwrites a newer
// selection.
type Manager struct {
	store Store
	api   API
	log   logrus.FieldLogger

	mu    sync.Mutex
	s     brokerhub.Session
	epoch uint64

	wg sync.WaitGroup
}

// Open restores the session persisted in store. A missing, unreadable or
// outdated record yields an anonymous session.
func Open(store Store, api API, log logrus.FieldLogger) *Manager {
	m := &Manager{store: store, api: api, log: log}
	data, err := store.Get(brokerhub.SessionKey)
	switch {
	case errors.Is(err, ErrNotFound):
		return m
	case err != nil:
		log.WithError(err).Warn("cannot read stored session, starting anonymous")
		return m
	}
	s, err := brokerhub.DecodeSession(data)
	if err != nil {
		log.WithError(err).Debug("discarding stored session")
		if err := store.Delete(brokerhub.SessionKey); err != nil {
			log.WithError(err).Warn("cannot delete stored session")
		}
		return m
	}
	m.s = s
	return m
}

// Session returns a copy of the current state.
func (m *Manager) Session() brokerhub.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.Clone()
}

func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.Token
}

// AccountID returns the id of the current account, or "".
func (m *Manager) AccountID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.CurrentID()
}

func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.Authenticated()
}

// persist writes the state. Called with m.mu held.
func (m *Manager) persist() error {
	data, err := brokerhub.EncodeSession(m.s)
	if err != nil {
		return fmt.Errorf("cannot encode session: %w", err)
	}
	if err := m.store.Put(brokerhub.SessionKey, data); err != nil {
		return fmt.Errorf("cannot save session: %w", err)
	}
	return nil
}

// Login authenticates and replaces the whole session. The first account
// becomes current. On failure the previous session is left untouched.
func (m *Manager) Login(ctx context.Context, identifier, password string) error {
	res, err := m.api.Login(ctx, identifier, password)
	if err != nil {
		return err
	}
	if res.Token == "" {
		return errors.New("login response carries no token")
	}
	user := res.User
	s := brokerhub.Session{Token: res.Token, User: &user, Accounts: res.Accounts}
	if len(s.Accounts) > 0 {
		s.Select(s.Accounts[0].AccountID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	m.epoch++
	m.log.WithField("login_id", user.LoginID).Debug("logged in")
	return m.persist()
}

// Logout forgets the session, in memory and in the store. It can be called
// in any state.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = brokerhub.Session{}
	m.epoch++
	if err := m.store.Delete(brokerhub.SessionKey); err != nil {
		return fmt.Errorf("cannot delete stored session: %w", err)
	}
	return nil
}

// SelectAccount makes a known account current. It returns false and does
// nothing when the id is not among the session's accounts.
//
// When the membership id of the account is unknown, it is looked up in the
// background; the lookup is best effort and failures are only logged.
func (m *Manager) SelectAccount(ctx context.Context, accountID string) (bool, error) {
	m.mu.Lock()
	if !m.s.Select(accountID) {
		m.mu.Unlock()
		return false, nil
	}
	m.epoch++
	epoch := m.epoch
	lookup := m.s.Current.AccountMemberID == ""
	err := m.persist()
	m.mu.Unlock()

	if lookup {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.lookupMembership(context.WithoutCancel(ctx), accountID, epoch)
		}()
	}
	return true, err
}

func (m *Manager) lookupMembership(ctx context.Context, accountID string, epoch uint64) {
	log := m.log.WithField("account", accountID)
	ms, err := m.api.Membership(ctx, accountID)
	if err != nil {
		log.WithError(err).Warn("membership lookup failed")
		return
	}
	if err := m.merge(accountID, ms, epoch); err != nil {
		log.WithError(err).Warn("cannot save membership")
	}
}

// merge records a membership looked up during epoch. Stale results are dropped.
func (m *Manager) merge(accountID string, ms brokerhub.Membership, epoch uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		m.log.WithFields(logrus.Fields{"account": accountID, "epoch": epoch, "current_epoch": m.epoch}).
			Debug("dropping stale membership")
		return nil
	}
	a, ok := m.s.Account(accountID)
	if !ok {
		return nil
	}
	a.AccountMemberID = ms.AccountMemberID
	if ms.Role != "" {
		a.Role = ms.Role
	}
	m.s.Upsert(a)
	return m.persist()
}

// Wait blocks until background lookups are done.
func (m *Manager) Wait() { m.wg.Wait() }

// AddAccount adds (or replaces) an account and makes it current.
func (m *Manager) AddAccount(a brokerhub.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.s.Authenticated() {
		return ErrAnonymous
	}
	m.s.Upsert(a)
	m.s.Select(a.AccountID)
	m.epoch++
	return m.persist()
}

// SyncAccounts replaces the accounts with a fresh list from the backend.
// Known membership ids are kept. The current account stays selected when it
// is still listed.
func (m *Manager) SyncAccounts(accounts []brokerhub.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.s.Authenticated() {
		return ErrAnonymous
	}
	known := make(map[string]string, len(m.s.Accounts))
	for _, a := range m.s.Accounts {
		known[a.AccountID] = a.AccountMemberID
	}
	fresh := make([]brokerhub.Account, len(accounts))
	for i, a := range accounts {
		if a.AccountMemberID == "" {
			a.AccountMemberID = known[a.AccountID]
		}
		fresh[i] = a
	}
	current := m.s.CurrentID()
	m.s.Accounts = fresh
	m.s.Current = nil
	m.s.Select(current)
	m.epoch++
	return m.persist()
}

// EnsureMembership returns the membership id within the current account,
// looking it up now if it is still unknown.
func (m *Manager) EnsureMembership(ctx context.Context) (string, error) {
	m.mu.Lock()
	if !m.s.Authenticated() {
		m.mu.Unlock()
		return "", ErrAnonymous
	}
	if m.s.Current == nil {
		m.mu.Unlock()
		return "", ErrNoAccount
	}
	cur := *m.s.Current
	epoch := m.epoch
	m.mu.Unlock()

	if cur.AccountMemberID != "" {
		return cur.AccountMemberID, nil
	}
	ms, err := m.api.Membership(ctx, cur.AccountID)
	if err != nil {
		return "", err
	}
	if err := m.merge(cur.AccountID, ms, epoch); err != nil {
		m.log.WithError(err).Warn("cannot save membership")
	}
	return ms.AccountMemberID, nil
}

// ChangePassword changes the user's password. The session is not modified.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if !m.Authenticated() {
		return ErrAnonymous
	}
	_, err := m.api.ChangePassword(ctx, oldPassword, newPassword)
	return err
}
