package fakeapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ctxKey int

const (
	userKey ctxKey = iota
	memberKey
)

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.last = r.Header.Clone()
		s.requests++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}
		id, err := userIDFrom(strings.TrimSpace(h[7:]))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, id)))
	})
}

func (s *Server) requireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		m := s.memberOf(chi.URLParam(r, "accountId"), userID(r))
		s.mu.Unlock()
		if m == nil {
			writeError(w, http.StatusForbidden, "Not a member of this account")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), memberKey, m)))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userKey).(string)
	return id
}

func caller(r *http.Request) *member {
	m, _ := r.Context().Value(memberKey).(*member)
	return m
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userBy(in.Identifier)
	if u == nil || u.Password != in.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	ms := s.membershipsOf(u.ID)
	if len(ms) == 0 {
		writeError(w, http.StatusForbidden, "No account memberships found")
		return
	}
	accounts := make([]map[string]string, len(ms))
	for i, m := range ms {
		accounts[i] = map[string]string{"accountId": m.AccountID, "role": m.Role}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":    Token(u.ID, ms[0].AccountID, ms[0].Role, TokenTTL),
		"user":     userJSON(u),
		"accounts": accounts,
	})
}

func userJSON(u *user) map[string]string {
	return map[string]string{"id": u.ID, "loginId": u.LoginID, "email": u.Email, "name": u.Name}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		LoginID    string `json:"loginId"`
		MemberName string `json:"memberName"`
		Email      string `json:"email"`
		Password   string `json:"password"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(in.LoginID) == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "loginId and password are required")
		return
	}
	if s.userBy(in.LoginID) != nil {
		writeError(w, http.StatusBadRequest, "Login ID already taken")
		return
	}
	u := &user{ID: uuid.NewString(), LoginID: in.LoginID, Name: in.MemberName, Email: in.Email, Password: in.Password}
	s.users = append(s.users, u)
	writeJSON(w, http.StatusOK, userJSON(u))
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AccountName string `json:"accountName"`
		AccountDesc string `json:"accountDesc"`
		LoginID     string `json:"loginId"`
		MemberName  string `json:"memberName"`
		Email       string `json:"email"`
		Password    string `json:"password"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.TrimSpace(in.AccountName) == "":
		writeError(w, http.StatusBadRequest, "Account name is required")
		return
	case strings.TrimSpace(in.LoginID) == "" || in.Password == "":
		writeError(w, http.StatusBadRequest, "loginId and password are required")
		return
	case s.userBy(in.LoginID) != nil:
		writeError(w, http.StatusBadRequest, "Login ID already taken")
		return
	}
	u := &user{ID: uuid.NewString(), LoginID: in.LoginID, Name: in.MemberName, Email: in.Email, Password: in.Password}
	s.users = append(s.users, u)
	accountID, memberID := s.newAccount(in.AccountName, in.AccountDesc, u.ID)
	writeJSON(w, http.StatusOK, map[string]string{"memberId": memberID, "accountId": accountID, "role": "ADMIN"})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByID(userID(r))
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if u.Password != in.OldPassword {
		writeError(w, http.StatusBadRequest, "Old password is incorrect")
		return
	}
	u.Password = in.NewPassword
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByID(userID(r))
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, userJSON(u))
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]string{}
	for _, m := range s.membershipsOf(userID(r)) {
		a := s.accountByID(m.AccountID)
		out = append(out, map[string]string{
			"accountId":       m.AccountID,
			"name":            a.Name,
			"description":     a.Description,
			"role":            m.Role,
			"accountMemberId": m.ID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AccountName string `json:"accountName"`
		AccountDesc string `json:"accountDesc"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.AccountName) == "" {
		writeError(w, http.StatusBadRequest, "Account name is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := s.newAccount(in.AccountName, in.AccountDesc, userID(r))
	writeJSON(w, http.StatusOK, map[string]string{"accountId": id, "name": in.AccountName, "role": "ADMIN"})
}

func (s *Server) membership(w http.ResponseWriter, r *http.Request) {
	m := caller(r)
	writeJSON(w, http.StatusOK, map[string]string{"accountMemberId": m.ID, "accountId": m.AccountID, "role": m.Role})
}

func (s *Server) memberJSON(m *member) map[string]string {
	u := s.userByID(m.UserID)
	return map[string]string{
		"memberId":   m.ID,
		"accountId":  m.AccountID,
		"loginId":    u.LoginID,
		"email":      u.Email,
		"memberName": u.Name,
		"role":       m.Role,
	}
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]string{}
	for _, m := range s.members {
		if m.AccountID == caller(r).AccountID {
			out = append(out, s.memberJSON(m))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if caller(r).Role != "ADMIN" {
		writeError(w, http.StatusForbidden, "Only admins can manage members")
		return false
	}
	return true
}

func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var in struct {
		LoginID string `json:"loginId"`
		Email   string `json:"email"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userBy(in.LoginID)
	if u == nil {
		writeError(w, http.StatusBadRequest, "No user with login id "+in.LoginID)
		return
	}
	accountID := caller(r).AccountID
	if s.memberOf(accountID, u.ID) != nil {
		writeError(w, http.StatusConflict, "User is already a member of this account")
		return
	}
	m := &member{ID: uuid.NewString(), AccountID: accountID, UserID: u.ID, Role: "MEMBER"}
	s.members = append(s.members, m)
	writeJSON(w, http.StatusOK, s.memberJSON(m))
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var in struct {
		Role string `json:"role"`
	}
	if err := decode(r, &in); err != nil || (in.Role != "ADMIN" && in.Role != "MEMBER") {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.memberByID(chi.URLParam(r, "memberId"))
	if m == nil || m.AccountID != caller(r).AccountID {
		writeError(w, http.StatusNotFound, "Member not found")
		return
	}
	if m.ID == caller(r).ID && in.Role != "ADMIN" {
		writeError(w, http.StatusConflict, "Cannot demote yourself")
		return
	}
	m.Role = in.Role
	writeJSON(w, http.StatusOK, s.memberJSON(m))
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "memberId")
	if id == caller(r).ID {
		writeError(w, http.StatusConflict, "Cannot remove yourself from the account")
		return
	}
	for i, m := range s.members {
		if m.ID == id && m.AccountID == caller(r).AccountID {
			s.members = append(s.members[:i], s.members[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Member removed"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Member not found")
}

func (s *Server) aggregate(lines map[string][]Line) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		out := lines[caller(r).AccountID]
		s.mu.Unlock()
		if out == nil {
			out = []Line{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ownMember returns the membership with the given id when it belongs to the caller.
func (s *Server) ownMember(r *http.Request, id string) *member {
	m := s.memberByID(id)
	if m == nil || m.UserID != userID(r) {
		return nil
	}
	return m
}

func credentialJSON(c *credential) map[string]string {
	return map[string]string{
		"credentialId":    c.ID,
		"accountMemberId": c.MemberID,
		"nickname":        c.Nickname,
		"broker":          c.Broker,
		"createdAt":       c.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) listCredentials(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.ownMember(r, r.URL.Query().Get("accountMemberId"))
	if m == nil {
		writeError(w, http.StatusNotFound, "account member not found")
		return
	}
	out := []map[string]string{}
	for _, c := range s.credentials {
		if c.MemberID == m.ID {
			out = append(out, credentialJSON(c))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) storeCredential(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AccountMemberID string `json:"accountMemberId"`
		Broker          string `json:"broker"`
		Token           string `json:"token"`
		Nickname        string `json:"nickname"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.ownMember(r, in.AccountMemberID)
	if m == nil {
		writeError(w, http.StatusNotFound, "account member not found")
		return
	}
	if strings.TrimSpace(in.Nickname) == "" {
		writeError(w, http.StatusBadRequest, "nickname is required")
		return
	}
	if in.Broker != "DHAN" && in.Broker != "ZERODHA" {
		writeError(w, http.StatusBadRequest, "unsupported broker "+in.Broker)
		return
	}
	c := &credential{
		ID:        uuid.NewString(),
		MemberID:  m.ID,
		Broker:    in.Broker,
		Nickname:  in.Nickname,
		Token:     in.Token,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	s.credentials = append(s.credentials, c)
	writeJSON(w, http.StatusOK, credentialJSON(c))
}

func (s *Server) deleteCredential(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "credentialId")
	for i, c := range s.credentials {
		if c.ID == id && s.ownMember(r, c.MemberID) != nil {
			s.credentials = append(s.credentials[:i], s.credentials[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "credential not found")
}
