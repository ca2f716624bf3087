package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/brokerhub"
	"github.com/etnz/brokerhub/internal/fakeapi"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// env is a fake backend plus an isolated configuration and session directory.
type env struct {
	api *fakeapi.Server
	dir string

	accountID, adminID string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	api := fakeapi.New()
	api.AddUser("asharma", "Anil", "anil@example.com", "s3cretpass")
	api.AddUser("ravi", "Ravi", "", "ravipass1")
	accountID, adminID := api.AddAccount("Family", "asharma")
	api.SetHoldings(accountID,
		fakeapi.Line{Symbol: "INFY", ISIN: "INE009A01021", Quantity: 10, AvgPrice: 95, LastPrice: 100, PnL: 50},
		fakeapi.Line{Symbol: "TCS", ISIN: "INE467B01029", Quantity: 5, AvgPrice: 52, LastPrice: 50, PnL: -10},
	)
	api.SetPositions(accountID,
		fakeapi.Line{Symbol: "NIFTY", Quantity: -50, AvgPrice: 100, LastPrice: 90, PnL: 500},
		fakeapi.Line{Symbol: "BANKNIFTY", Quantity: 15, AvgPrice: 400, LastPrice: 380, PnL: -300},
	)
	srv := api.Start()
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("BROKERHUB_API_URL", srv.URL+"/api")
	t.Setenv("BROKERHUB_SESSION_STORE", "file")
	t.Setenv("BROKERHUB_SESSION_PATH", dir)
	t.Setenv("BROKERHUB_LOG_LEVEL", "warn")
	old := *configFile
	*configFile = filepath.Join(dir, "config.toml")
	t.Cleanup(func() { *configFile = old })

	return &env{api: api, dir: dir, accountID: accountID, adminID: adminID}
}

// run executes a command with the given stdin and arguments.
func run(t *testing.T, c subcommands.Command, input string, args ...string) (string, string, subcommands.ExitStatus) {
	t.Helper()
	var out, errOut bytes.Buffer
	stdin, stdout, stderr, lines = strings.NewReader(input), &out, &errOut, nil
	t.Cleanup(func() { stdin, stdout, stderr, lines = os.Stdin, os.Stdout, os.Stderr, nil })

	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	require.NoError(t, f.Parse(args))
	status := c.Execute(context.Background(), f)
	return out.String(), errOut.String(), status
}

func (e *env) session(t *testing.T) brokerhub.Session {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.dir, brokerhub.SessionKey+".json"))
	require.NoError(t, err)
	s, err := brokerhub.DecodeSession(data)
	require.NoError(t, err)
	return s
}

func (e *env) login(t *testing.T) {
	t.Helper()
	_, errOut, status := run(t, &loginCmd{}, "s3cretpass\n", "-u", "asharma")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
}

func TestLoginLogout(t *testing.T) {
	e := newEnv(t)

	out, errOut, status := run(t, &loginCmd{}, "asharma\ns3cretpass\n")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "Logged in as asharma.")
	assert.Contains(t, errOut, "Password: ")

	s := e.session(t)
	assert.True(t, s.Authenticated())
	require.NotNil(t, s.Current)
	assert.Equal(t, e.accountID, s.Current.AccountID)
	assert.Equal(t, e.adminID, s.Current.AccountMemberID, "membership looked up before exit")

	out, _, status = run(t, &logoutCmd{}, "")
	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Logged out.")
	_, err := os.Stat(filepath.Join(e.dir, brokerhub.SessionKey+".json"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoginFailure(t *testing.T) {
	e := newEnv(t)

	_, errOut, status := run(t, &loginCmd{}, "wrongpass\n", "-u", "asharma")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "Error: Invalid credentials")
	_, err := os.Stat(filepath.Join(e.dir, brokerhub.SessionKey+".json"))
	assert.True(t, os.IsNotExist(err))

	_, errOut, status = run(t, &loginCmd{}, "\n", "-u", "asharma")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "Error: password: Password is required")
}

func TestSignup(t *testing.T) {
	e := newEnv(t)

	out, errOut, status := run(t, &signupCmd{}, "kavyapass\nkavyapass\n",
		"-login", "kavya", "-name", "Kavya", "-account", "Trip")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "Welcome, Kavya! Your account is ready.")

	s := e.session(t)
	assert.Equal(t, "kavya", s.User.LoginID)
	require.NotNil(t, s.Current)
	assert.Equal(t, "Trip", s.Current.Name)
	assert.Equal(t, brokerhub.RoleAdmin, s.Current.Role)
	assert.NotEmpty(t, s.Current.AccountMemberID)
}

func TestSignupErrors(t *testing.T) {
	e := newEnv(t)

	_, errOut, status := run(t, &signupCmd{}, "short\nshort\n", "-login", "kavya", "-name", "Kavya", "-account", "Trip")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "Error: password: Password must be at least 8 characters")
	assert.Zero(t, e.api.Requests(), "invalid forms are not sent")

	_, errOut, _ = run(t, &signupCmd{}, "kavyapass\nkavyapas\n", "-login", "kavya", "-name", "Kavya", "-account", "Trip")
	assert.Contains(t, errOut, "Error: confirmPassword: Passwords do not match")

	_, errOut, status = run(t, &signupCmd{}, "anilpass1\nanilpass1\n", "-login", "asharma", "-name", "Anil", "-account", "Trip")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "Error: loginId: Login ID already taken")
}

func TestAccounts(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	out, errOut, status := run(t, &createAccountCmd{}, "", "-name", "Trip")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "Created account Trip")
	trip := e.session(t).Current
	require.NotNil(t, trip)
	assert.Equal(t, "Trip", trip.Name)
	assert.NotEmpty(t, trip.AccountMemberID)

	_, errOut, status = run(t, &selectCmd{}, "", "nope")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, `unknown account "nope"`)
	assert.Equal(t, trip.AccountID, e.session(t).CurrentID(), "unknown id leaves current unchanged")

	out, errOut, status = run(t, &selectCmd{}, "", e.accountID)
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "Current account:")
	assert.Equal(t, e.accountID, e.session(t).CurrentID())

	out, _, status = run(t, &accountsCmd{}, "", "-refresh", "-format", "json")
	require.Equal(t, subcommands.ExitSuccess, status)
	var accounts []brokerhub.Account
	require.NoError(t, json.Unmarshal([]byte(out), &accounts))
	require.Len(t, accounts, 2)
	names := []string{accounts[0].Name, accounts[1].Name}
	assert.ElementsMatch(t, []string{"Family", "Trip"}, names)
	assert.Equal(t, e.accountID, e.session(t).CurrentID())

	out, _, _ = run(t, &accountsCmd{}, "")
	assert.Contains(t, out, "Family")
}

func TestHoldings(t *testing.T) {
	e := newEnv(t)

	_, errOut, status := run(t, &holdingsCmd{}, "")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "not logged in")

	e.login(t)

	out, errOut, status := run(t, &holdingsCmd{}, "", "-f", "profit")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "INFY")
	assert.NotContains(t, out, "TCS")
	assert.Contains(t, out, "**[Profit]**")

	out, _, status = run(t, &holdingsCmd{}, "", "-f", "PROFIT", "-format", "json")
	require.Equal(t, subcommands.ExitSuccess, status)
	var v struct {
		Filter string            `json:"filter"`
		Rows   []json.RawMessage `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "PROFIT", v.Filter)
	assert.Len(t, v.Rows, 1)

	out, _, _ = run(t, &holdingsCmd{}, "", "-format", "html", "-q", " ine467 ")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "TCS")
	assert.NotContains(t, out, "INFY")

	_, errOut, status = run(t, &holdingsCmd{}, "", "-f", "LONG")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "invalid filter")

	_, _, status = run(t, &holdingsCmd{}, "", "-format", "pdf")
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestPositionsInteractive(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	// Only the final flush renders the searched page.
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "config.toml"), []byte("[display]\nsearch_debounce = \"1h\"\n"), 0o600))

	out, errOut, status := run(t, &positionsCmd{}, "bank\nnif\nNIFTY\n", "-i", "-format", "json", "-sort", "qty", "-asc")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)

	type page struct {
		Search string `json:"search"`
		Rows   []struct {
			Symbol string `json:"tradingSymbol"`
		} `json:"rows"`
	}
	dec := json.NewDecoder(strings.NewReader(out))
	var pages []page
	for dec.More() {
		var p page
		require.NoError(t, dec.Decode(&p))
		pages = append(pages, p)
	}
	require.Len(t, pages, 2)
	require.Len(t, pages[0].Rows, 2)
	assert.Equal(t, "NIFTY", pages[0].Rows[0].Symbol, "ascending quantity puts the short first")
	assert.Equal(t, "NIFTY", pages[1].Search)
	require.Len(t, pages[1].Rows, 2, "NIFTY matches BANKNIFTY too")

	out, _, _ = run(t, &positionsCmd{}, "", "-f", "SHORT")
	assert.Contains(t, out, "NIFTY")
	assert.NotContains(t, out, "BANKNIFTY")
}

func TestMembers(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	out, errOut, status := run(t, &membersAddCmd{}, "", "-login", "ravi", "-role", "admin")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "Added ravi to")
	assert.Contains(t, out, "as ADMIN")

	_, errOut, status = run(t, &membersAddCmd{}, "", "-login", "nobody")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "Error: loginId: No user with login id nobody")

	_, errOut, _ = run(t, &membersAddCmd{}, "", "-login", "ra vi", "-role", "OWNER")
	assert.Contains(t, errOut, "Error: loginId: Login ID cannot contain spaces")
	assert.Contains(t, errOut, "Error: role: Role must be ADMIN or MEMBER")

	out, _, status = run(t, &membersListCmd{}, "", "-format", "json")
	require.Equal(t, subcommands.ExitSuccess, status)
	var members []brokerhub.Member
	require.NoError(t, json.Unmarshal([]byte(out), &members))
	require.Len(t, members, 2)
	var ravi brokerhub.Member
	for _, m := range members {
		if m.LoginID == "ravi" {
			ravi = m
		}
	}
	require.NotEmpty(t, ravi.MemberID)

	out, errOut, status = run(t, &membersRoleCmd{}, "", ravi.MemberID, "member")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "ravi is now MEMBER.")

	_, _, status = run(t, &membersRoleCmd{}, "", ravi.MemberID)
	assert.Equal(t, subcommands.ExitUsageError, status)

	out, errOut, status = run(t, &membersRemoveCmd{}, "", ravi.MemberID)
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "Member removed.")

	_, errOut, _ = run(t, &membersRemoveCmd{}, "", e.adminID)
	assert.Contains(t, errOut, "Error: Cannot remove yourself from the account")
}

func TestMembersContainer(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	out, errOut, status := run(t, &membersCmd{}, "", "list")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "asharma")
}

func TestBrokers(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	out, _, status := run(t, &brokersListCmd{}, "")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "**No broker connected**")

	_, errOut, status := run(t, &brokersAddCmd{}, "\n", "-nickname", "main")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "Error: token: Access token is required")

	out, errOut, status = run(t, &brokersAddCmd{}, "main\ndhan-token\n", "-broker", "dhan")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, `Connected DHAN as "main"`)

	out, _, status = run(t, &brokersListCmd{}, "", "-format", "json")
	require.Equal(t, subcommands.ExitSuccess, status)
	var creds []brokerhub.BrokerCredential
	require.NoError(t, json.Unmarshal([]byte(out), &creds))
	require.Len(t, creds, 1)
	assert.Equal(t, "main", creds[0].Nickname)
	token, ok := e.api.StoredToken(creds[0].CredentialID)
	require.True(t, ok)
	assert.Equal(t, "dhan-token", token)
	assert.NotContains(t, out, "dhan-token")

	out, errOut, status = run(t, &brokersDeleteCmd{}, "", creds[0].CredentialID)
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "Broker credential deleted.")
}

func TestWhoamiAndPasswd(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	out, errOut, status := run(t, &whoamiCmd{}, "", "-format", "json")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	var u brokerhub.User
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	assert.Equal(t, "asharma", u.LoginID)
	assert.Equal(t, "anil@example.com", u.Email)

	out, _, _ = run(t, &whoamiCmd{}, "")
	assert.Contains(t, out, "Anil")

	_, errOut, status = run(t, &passwdCmd{}, "s3cretpass\nn3wpassword\nn3wpasswor\n")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "Error: confirmPassword: Passwords do not match")

	_, errOut, status = run(t, &passwdCmd{}, "wrongpass\nn3wpassword\nn3wpassword\n")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "Error: Old password is incorrect")

	out, errOut, status = run(t, &passwdCmd{}, "s3cretpass\nn3wpassword\nn3wpassword\n")
	require.Equal(t, subcommands.ExitSuccess, status, errOut)
	assert.Contains(t, out, "Password updated.")
	assert.Equal(t, "n3wpassword", e.api.Password("asharma"))
}

func TestTopic(t *testing.T) {
	out, _, status := run(t, &topicCmd{}, "", "privacy")
	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "# Privacy")

	out, _, _ = run(t, &topicCmd{}, "")
	assert.Contains(t, out, "* filters:")

	_, errOut, status := run(t, &topicCmd{}, "", "nope")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut, "not found")

	out, _, status = run(t, &topicCmd{}, "", "-list")
	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "| `privacy` | Privacy |")
	assert.Contains(t, out, "| `signup` |")
}

func TestCompletion(t *testing.T) {
	c := Completion()
	require.Contains(t, c.Sub, "holdings")
	assert.Contains(t, c.Flags, "config")
	assert.Contains(t, c.Sub["holdings"].Flags, "sort")
	assert.Equal(t, []string{"ALL", "PROFIT", "LOSS"}, c.Sub["holdings"].Flags["f"].Predict(""))
	assert.Contains(t, c.Sub["positions"].Flags["f"].Predict(""), "SHORT")
	require.Contains(t, c.Sub["members"].Sub, "add")
	assert.Contains(t, c.Sub["members"].Sub["add"].Flags["role"].Predict(""), "ADMIN")
	assert.Contains(t, c.Sub["topic"].Args.Predict(""), "privacy")
}
