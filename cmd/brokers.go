package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/brokerhub"
	"github.com/etnz/brokerhub/client"
	"github.com/etnz/brokerhub/renderer"
	"github.com/etnz/brokerhub/session"
	"github.com/google/subcommands"
)

// brokersCmd is a container for broker access subcommands.
type brokersCmd struct{}

func (*brokersCmd) Name() string     { return "brokers" }
func (*brokersCmd) Synopsis() string { return "manage broker access tokens" }
func (*brokersCmd) Usage() string {
	return `brokers <subcommand> [args]

Commands:
  list   - List the brokers connected to your membership of the current account.
  add    - Store a broker access token.
  delete - Delete a stored access token.
`
}

func (c *brokersCmd) SetFlags(f *flag.FlagSet) {}
func (c *brokersCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, "brokers")
	for _, sub := range c.subcommands() {
		commander.Register(sub, "")
	}
	return commander.Execute(ctx, args...)
}

func (*brokersCmd) subcommands() []subcommands.Command {
	return []subcommands.Command{&brokersListCmd{}, &brokersAddCmd{}, &brokersDeleteCmd{}}
}

type brokersListCmd struct {
	out output
}

func (*brokersListCmd) Name() string     { return "list" }
func (*brokersListCmd) Synopsis() string { return "list connected brokers" }
func (*brokersListCmd) Usage() string    { return "bh brokers list [-format md|html|json]\n" }

func (c *brokersListCmd) SetFlags(f *flag.FlagSet) { c.out.SetFlags(f) }

func (c *brokersListCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.out.check(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	acc, err := a.current()
	if err != nil {
		return fail(err)
	}
	memberID, err := a.session.EnsureMembership(ctx)
	if err != nil {
		return fail(err)
	}
	creds, err := a.api.Credentials(ctx, memberID)
	if err != nil {
		return fail(err)
	}
	page := renderer.NewCredentialsPage(acc.Label(), creds)
	if err := c.out.print(renderer.RenderCredentials(page), creds); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type brokersAddCmd struct {
	broker   string
	nickname string
}

func (*brokersAddCmd) Name() string     { return "add" }
func (*brokersAddCmd) Synopsis() string { return "store a broker access token" }
func (*brokersAddCmd) Usage() string {
	return `bh brokers add [-broker DHAN|ZERODHA] [-nickname <name>]

  Stores an access token for your membership of the current account. The
  token is asked for, sent once and never shown again.
`
}

func (c *brokersAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.broker, "broker", string(brokerhub.BrokerDhan), "Broker: DHAN or ZERODHA")
	f.StringVar(&c.nickname, "nickname", "", "Name of this connection")
}

func (c *brokersAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	memberID, err := a.session.EnsureMembership(ctx)
	if err != nil {
		return fail(err)
	}
	form := &brokerhub.CredentialForm{
		AccountMemberID: memberID,
		Broker:          brokerhub.Broker(strings.ToUpper(strings.TrimSpace(c.broker))),
		Nickname:        c.nickname,
	}
	if err := promptIfEmpty(&form.Nickname, "Nickname"); err != nil {
		return fail(err)
	}
	if form.Token, err = promptSecret("Access token"); err != nil {
		return fail(err)
	}
	var stored brokerhub.BrokerCredential
	err = brokerhub.Submit(ctx, form, func(ctx context.Context) (err error) {
		stored, err = a.api.StoreCredential(ctx, client.StoreCredentialRequest{
			AccountMemberID: form.AccountMemberID,
			Broker:          form.Broker,
			Nickname:        form.Nickname,
			Token:           form.Token,
		})
		return err
	})
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "Connected %s as %q (credential id %s).\n", stored.Broker, stored.Nickname, stored.CredentialID)
	return subcommands.ExitSuccess
}

type brokersDeleteCmd struct{}

func (*brokersDeleteCmd) Name() string             { return "delete" }
func (*brokersDeleteCmd) Synopsis() string         { return "delete a stored access token" }
func (*brokersDeleteCmd) Usage() string            { return "bh brokers delete <credential id>\n" }
func (*brokersDeleteCmd) SetFlags(f *flag.FlagSet) {}

func (c *brokersDeleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one credential id is required.")
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	if !a.session.Authenticated() {
		return fail(session.ErrAnonymous)
	}
	if err := a.api.DeleteCredential(ctx, f.Arg(0)); err != nil {
		return fail(err)
	}
	fmt.Fprintln(stdout, "Broker credential deleted.")
	return subcommands.ExitSuccess
}
