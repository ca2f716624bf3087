// Package fakeapi is an in-memory implementation of the brokerhub backend
// REST API, used to test the client, the session manager and the commands
// end to end.
package fakeapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var secret = []byte("fakeapi-signing-key")

// TokenTTL is the lifetime of the tokens issued at login.
const TokenTTL = 24 * time.Hour

type user struct {
	ID, LoginID, Name, Email, Password string
}

type account struct {
	ID, Name, Description string
}

type member struct {
	ID, AccountID, UserID, Role string
}

type credential struct {
	ID, MemberID, Broker, Nickname, Token string
	CreatedAt                             time.Time
}

// Line is an aggregated holding or position served by the fake backend.
type Line struct {
	Exchange  string  `json:"exchange,omitempty"`
	Symbol    string  `json:"tradingSymbol"`
	ISIN      string  `json:"isin,omitempty"`
	Quantity  float64 `json:"quantity"`
	AvgPrice  float64 `json:"averagePrice"`
	LastPrice float64 `json:"lastPrice"`
	PnL       float64 `json:"pnl"`
}

// Server is the fake backend. Its zero value is not usable, see New.
type Server struct {
	mu          sync.Mutex
	users       []*user
	accounts    []*account
	members     []*member
	credentials []*credential
	holdings    map[string][]Line
	positions   map[string][]Line
	last        http.Header
	requests    int
}

func New() *Server {
	return &Server{
		holdings:  make(map[string][]Line),
		positions: make(map[string][]Line),
	}
}

// Start serves the fake backend on a local port. The returned server's URL
// plus "/api" is the client base URL.
func (s *Server) Start() *httptest.Server { return httptest.NewServer(s.Handler()) }

// Handler returns the router of the API, mounted under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Post("/user/register", s.register)
		r.Post("/accounts/signup", s.signup)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Put("/auth/change-password", s.changePassword)
			r.Get("/user/me", s.me)

			r.Get("/accounts", s.listAccounts)
			r.Post("/accounts", s.createAccount)
			r.Route("/accounts/{accountId}", func(r chi.Router) {
				r.Use(s.requireMember)
				r.Get("/membership", s.membership)
				r.Get("/members", s.listMembers)
				r.Post("/members", s.addMember)
				r.Patch("/members/{memberId}/role", s.updateRole)
				r.Delete("/members/{memberId}", s.removeMember)
				r.Get("/aggregate-holdings", s.aggregate(s.holdings))
				r.Get("/aggregate-positions", s.aggregate(s.positions))
			})

			r.Get("/brokers", s.listCredentials)
			r.Post("/brokers", s.storeCredential)
			r.Delete("/brokers/{credentialId}", s.deleteCredential)
		})
	})
	return r
}

// AddUser registers a user and returns its id.
func (s *Server) AddUser(loginID, name, email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user{ID: uuid.NewString(), LoginID: loginID, Name: name, Email: email, Password: password}
	s.users = append(s.users, u)
	return u.ID
}

// AddAccount creates an account administered by the given user and returns
// the account id and the admin membership id.
func (s *Server) AddAccount(name, adminLoginID string) (accountID, memberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userBy(adminLoginID)
	if u == nil {
		panic("fakeapi: unknown user " + adminLoginID)
	}
	return s.newAccount(name, "", u.ID)
}

// Join adds a user to an account as a plain member and returns the membership id.
func (s *Server) Join(accountID, loginID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userBy(loginID)
	if u == nil {
		panic("fakeapi: unknown user " + loginID)
	}
	m := &member{ID: uuid.NewString(), AccountID: accountID, UserID: u.ID, Role: "MEMBER"}
	s.members = append(s.members, m)
	return m.ID
}

// SetHoldings replaces the aggregated holdings of an account.
func (s *Server) SetHoldings(accountID string, lines ...Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings[accountID] = lines
}

// SetPositions replaces the aggregated positions of an account.
func (s *Server) SetPositions(accountID string, lines ...Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[accountID] = lines
}

// LastHeader returns the headers of the last request received.
func (s *Server) LastHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last.Clone()
}

// Requests returns the number of requests received.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// StoredToken returns the broker token stored under a credential id.
func (s *Server) StoredToken(credentialID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.credentials {
		if c.ID == credentialID {
			return c.Token, true
		}
	}
	return "", false
}

// Password returns the current password of a user.
func (s *Server) Password(loginID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.userBy(loginID); u != nil {
		return u.Password
	}
	return ""
}

// helpers, all called with s.mu held.

func (s *Server) userBy(identifier string) *user {
	for _, u := range s.users {
		if u.LoginID == identifier || (u.Email != "" && strings.EqualFold(u.Email, identifier)) {
			return u
		}
	}
	return nil
}

func (s *Server) userByID(id string) *user {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Server) accountByID(id string) *account {
	for _, a := range s.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (s *Server) memberOf(accountID, userID string) *member {
	for _, m := range s.members {
		if m.AccountID == accountID && m.UserID == userID {
			return m
		}
	}
	return nil
}

func (s *Server) memberByID(id string) *member {
	for _, m := range s.members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (s *Server) membershipsOf(userID string) []*member {
	var ms []*member
	for _, m := range s.members {
		if m.UserID == userID {
			ms = append(ms, m)
		}
	}
	return ms
}

func (s *Server) newAccount(name, desc, userID string) (string, string) {
	a := &account{ID: uuid.NewString(), Name: name, Description: desc}
	m := &member{ID: uuid.NewString(), AccountID: a.ID, UserID: userID, Role: "ADMIN"}
	s.accounts = append(s.accounts, a)
	s.members = append(s.members, m)
	return a.ID, m.ID
}

// Token issues a signed token for a user, the way the backend does at login.
func Token(userID, accountID, role string, ttl time.Duration) string {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       userID,
		"accountId": accountID,
		"role":      role,
		"iat":       time.Now().Unix(),
		"exp":       time.Now().Add(ttl).Unix(),
	})
	signed, err := t.SignedString(secret)
	if err != nil {
		panic(err)
	}
	return signed
}

func userIDFrom(token string) (string, error) {
	t, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	sub, err := t.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("no subject")
	}
	return sub, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
