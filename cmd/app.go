// Package cmd implements the bh terminal client of the brokerhub dashboard.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/etnz/brokerhub"
	"github.com/etnz/brokerhub/client"
	"github.com/etnz/brokerhub/config"
	"github.com/etnz/brokerhub/session"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, g := range groups {
		for _, cmd := range g.commands {
			c.Register(cmd, g.name)
		}
	}
}

type group struct {
	name     string
	commands []subcommands.Command
}

var groups = []group{
	{"session", []subcommands.Command{&loginCmd{}, &logoutCmd{}, &signupCmd{}, &whoamiCmd{}, &passwdCmd{}}},
	{"accounts", []subcommands.Command{&accountsCmd{}, &selectCmd{}, &createAccountCmd{}}},
	{"portfolio", []subcommands.Command{&holdingsCmd{}, &positionsCmd{}}},
	{"settings", []subcommands.Command{&membersCmd{}, &brokersCmd{}}},
	{"help", []subcommands.Command{&topicCmd{}}},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", config.DefaultPath(), "Path to the configuration file")
var apiURL = flag.String("api", "", "Backend base URL, overrides the configuration")
var logLevel = flag.String("log-level", "", "Log level (debug, info, warn, error), overrides the configuration")

// app is what a command needs to talk to the backend on behalf of the
// stored session.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	api     *client.Client
	session *session.Manager
	close   func() error
}

// openApp loads the configuration and restores the session.
// Close must be called before the command returns.
func openApp() (*app, error) {
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		return nil, err
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *logLevel != "" {
		if _, err := logrus.ParseLevel(*logLevel); err != nil {
			return nil, fmt.Errorf("invalid -log-level: %w", err)
		}
		cfg.Logging.Level = *logLevel
	}
	color = cfg.Display.Color
	log := cfg.NewLogger(stderr)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	api := client.New(
		client.WithBaseURL(cfg.API.BaseURL),
		client.WithTimeout(cfg.API.GetTimeout()),
		client.WithRateLimit(cfg.API.RateLimit),
		client.WithLogger(log),
	)
	m := session.Open(store, api, log)
	api.SetCredentials(m)
	return &app{cfg: cfg, log: log, api: api, session: m, close: closeStore}, nil
}

// Close waits for background session updates and releases the store.
func (a *app) Close() {
	a.session.Wait()
	if a.close == nil {
		return
	}
	if err := a.close(); err != nil {
		a.log.WithError(err).Warn("cannot close session store")
	}
}

func openStore(cfg *config.Config) (session.Store, func() error, error) {
	path := cfg.Session.Path
	if path == "" {
		dir, err := session.DefaultDir()
		if err != nil {
			return nil, nil, err
		}
		path = dir
		if cfg.Session.Store == "sqlite" {
			path = filepath.Join(dir, "session.db")
		}
	}
	if cfg.Session.Store == "sqlite" {
		s, err := session.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return session.FileStore{Dir: path}, nil, nil
}

// current returns the current account, failing when there is none.
func (a *app) current() (brokerhub.Account, error) {
	s := a.session.Session()
	if !s.Authenticated() {
		return brokerhub.Account{}, session.ErrAnonymous
	}
	if s.Current == nil {
		return brokerhub.Account{}, session.ErrNoAccount
	}
	return *s.Current, nil
}

// fail reports err on stderr. Form errors are detailed field by field.
func fail(err error) subcommands.ExitStatus {
	var fe *brokerhub.FormError
	if errors.As(err, &fe) && len(fe.Fields) > 0 {
		names := make([]string, 0, len(fe.Fields))
		for n := range fe.Fields {
			names = append(names, n)
		}
		sort.Strings(names)
		if fe.Message != "" {
			fmt.Fprintf(stderr, "Error: %s\n", fe.Message)
		}
		for _, n := range names {
			fmt.Fprintf(stderr, "Error: %s: %s\n", n, fe.Fields[n])
		}
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
