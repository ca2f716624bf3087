package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/brokerhub"
	"github.com/etnz/brokerhub/renderer"
	"github.com/etnz/brokerhub/session"
	"github.com/google/subcommands"
)

type accountsCmd struct {
	refresh bool
	out     output
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list the accounts of the logged in user" }
func (*accountsCmd) Usage() string {
	return `bh accounts [-refresh] [-format md|html|json]

  Lists the group accounts known to the session, the current one is marked.
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.refresh, "refresh", false, "reload the list from the backend")
	c.out.SetFlags(f)
}

func (c *accountsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.out.check(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
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

	if c.refresh {
		accounts, err := a.api.Accounts(ctx)
		if err != nil {
			return fail(err)
		}
		if err := a.session.SyncAccounts(accounts); err != nil {
			return fail(err)
		}
	}
	s := a.session.Session()
	if err := c.out.print(renderer.RenderAccounts(renderer.NewAccountsPage(s)), s.Accounts); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type selectCmd struct{}

func (*selectCmd) Name() string     { return "select" }
func (*selectCmd) Synopsis() string { return "switch to another account" }
func (*selectCmd) Usage() string {
	return `bh select <account id>

  Makes one of the accounts listed by 'bh accounts' current.
`
}
func (*selectCmd) SetFlags(f *flag.FlagSet) {}

func (c *selectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one account id is required.")
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

	id := f.Arg(0)
	ok, err := a.session.SelectAccount(ctx, id)
	if err != nil {
		return fail(err)
	}
	if !ok {
		return fail(fmt.Errorf("unknown account %q, run 'bh accounts' for the list", id))
	}
	acc, _ := a.current()
	fmt.Fprintf(stdout, "Current account: %s\n", acc.Label())
	return subcommands.ExitSuccess
}

type createAccountCmd struct {
	form brokerhub.CreateAccountForm
}

func (*createAccountCmd) Name() string     { return "create-account" }
func (*createAccountCmd) Synopsis() string { return "create a group account and switch to it" }
func (*createAccountCmd) Usage() string {
	return `bh create-account [-name <name>] [-desc <text>]

  Creates a group account administered by the logged in user and makes it
  current.
`
}

func (c *createAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.form.AccountName, "name", "", "Account name, at least 2 characters")
	f.StringVar(&c.form.AccountDesc, "desc", "", "Description (optional)")
}

func (c *createAccountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	if !a.session.Authenticated() {
		return fail(session.ErrAnonymous)
	}

	form := &c.form
	if err := promptIfEmpty(&form.AccountName, "Account name"); err != nil {
		return fail(err)
	}
	var created brokerhub.Account
	err = brokerhub.Submit(ctx, form, func(ctx context.Context) error {
		acc, err := a.api.CreateAccount(ctx, form.AccountName, form.AccountDesc)
		if err != nil {
			return err
		}
		if acc.Description == "" {
			acc.Description = form.AccountDesc
		}
		created = acc
		return a.session.AddAccount(acc)
	})
	if err != nil {
		return fail(err)
	}
	if _, err := a.session.SelectAccount(ctx, created.AccountID); err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "Created account %s (%s), now current.\n", created.Label(), created.AccountID)
	return subcommands.ExitSuccess
}
