package cmd

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/etnz/brokerhub"
	"github.com/etnz/brokerhub/client"
	"github.com/etnz/brokerhub/renderer"
	"github.com/etnz/brokerhub/session"
	"github.com/google/subcommands"
)

type loginCmd struct {
	loginID string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "log in to the backend" }
func (*loginCmd) Usage() string {
	return `bh login [-u <login id>]

  Logs in with a login id (or email) and a password, then selects the first
  account of the user. The password is always asked for.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.loginID, "u", "", "Login id or email")
}

func (c *loginCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	form := &brokerhub.LoginForm{LoginID: c.loginID}
	if err := promptIfEmpty(&form.LoginID, "Login ID"); err != nil {
		return fail(err)
	}
	if form.Password, err = promptSecret("Password"); err != nil {
		return fail(err)
	}
	err = brokerhub.Submit(ctx, form, func(ctx context.Context) error {
		return a.session.Login(ctx, form.LoginID, form.Password)
	})
	if err != nil {
		return fail(err)
	}

	s := a.session.Session()
	fmt.Fprintf(stdout, "Logged in as %s.\n", s.User.LoginID)
	if s.Current != nil {
		// resolves the membership id in the background, saved before exit
		if _, err := a.session.SelectAccount(ctx, s.Current.AccountID); err != nil {
			return fail(err)
		}
		fmt.Fprintf(stdout, "Current account: %s\n", s.Current.Label())
	}
	return subcommands.ExitSuccess
}

type logoutCmd struct{}

func (*logoutCmd) Name() string             { return "logout" }
func (*logoutCmd) Synopsis() string         { return "forget the stored session" }
func (*logoutCmd) Usage() string            { return "bh logout\n" }
func (*logoutCmd) SetFlags(f *flag.FlagSet) {}

func (c *logoutCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	if err := a.session.Logout(); err != nil {
		return fail(err)
	}
	fmt.Fprintln(stdout, "Logged out.")
	return subcommands.ExitSuccess
}

type signupCmd struct {
	form brokerhub.SignupForm
}

func (*signupCmd) Name() string     { return "signup" }
func (*signupCmd) Synopsis() string { return "create a user and its group account" }
func (*signupCmd) Usage() string {
	return `bh signup [-login <id>] [-name <name>] [-email <email>] [-account <name>] [-desc <text>]

  Creates a user together with a group account administered by that user,
  then logs in. Missing required values and the password are asked for.
  See 'bh topic signup'.
`
}

func (c *signupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.form.LoginID, "login", "", "Login id, at least 3 characters without spaces")
	f.StringVar(&c.form.MemberName, "name", "", "Your name")
	f.StringVar(&c.form.Email, "email", "", "Email address (optional)")
	f.StringVar(&c.form.AccountName, "account", "", "Name of the group account")
	f.StringVar(&c.form.AccountDesc, "desc", "", "Description of the group account (optional)")
}

func (c *signupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	form := &c.form
	for _, p := range []struct {
		v     *string
		label string
	}{
		{&form.LoginID, "Login ID"},
		{&form.MemberName, "Name"},
		{&form.AccountName, "Account name"},
	} {
		if err := promptIfEmpty(p.v, p.label); err != nil {
			return fail(err)
		}
	}
	if form.Password, err = promptSecret("Password"); err != nil {
		return fail(err)
	}
	if form.ConfirmPassword, err = promptSecret("Confirm password"); err != nil {
		return fail(err)
	}

	err = brokerhub.Submit(ctx, form, func(ctx context.Context) error {
		res, err := a.api.Signup(ctx, client.SignupRequest{
			AccountName: form.AccountName,
			AccountDesc: form.AccountDesc,
			LoginID:     form.LoginID,
			MemberName:  form.MemberName,
			Email:       form.Email,
			Password:    form.Password,
		})
		if err != nil {
			return err
		}
		if err := a.session.Login(ctx, form.LoginID, form.Password); err != nil {
			return err
		}
		return a.session.AddAccount(brokerhub.Account{
			AccountID:       res.AccountID,
			Name:            form.AccountName,
			Description:     form.AccountDesc,
			Role:            res.Role,
			AccountMemberID: res.MemberID,
		})
	})
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "Welcome, %s! Your account is ready.\n", form.MemberName)
	return subcommands.ExitSuccess
}

type whoamiCmd struct {
	out output
}

func (*whoamiCmd) Name() string     { return "whoami" }
func (*whoamiCmd) Synopsis() string { return "show the profile of the logged in user" }
func (*whoamiCmd) Usage() string {
	return `bh whoami [-format md|html|json]

  Shows the user profile, the current account and when the session expires.
`
}

func (c *whoamiCmd) SetFlags(f *flag.FlagSet) { c.out.SetFlags(f) }

func (c *whoamiCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.out.check(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	s := a.session.Session()
	if !s.Authenticated() {
		return fail(session.ErrAnonymous)
	}
	user, err := a.api.Me(ctx)
	if err != nil {
		return fail(err)
	}
	claims, err := session.ParseClaims(s.Token)
	if err != nil {
		a.log.WithError(err).Debug("token expiry unknown")
	}
	page := renderer.NewProfilePage(s, user, claims.ExpiresAt, claims.Expired(time.Now()))
	if err := c.out.print(renderer.RenderProfile(page), user); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type passwdCmd struct{}

func (*passwdCmd) Name() string             { return "passwd" }
func (*passwdCmd) Synopsis() string         { return "change the password of the logged in user" }
func (*passwdCmd) Usage() string            { return "bh passwd\n\n  Asks for the current password and the new one, twice.\n" }
func (*passwdCmd) SetFlags(f *flag.FlagSet) {}

func (c *passwdCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	if !a.session.Authenticated() {
		return fail(session.ErrAnonymous)
	}

	form := &brokerhub.ChangePasswordForm{}
	if form.OldPassword, err = promptSecret("Current password"); err != nil {
		return fail(err)
	}
	if form.NewPassword, err = promptSecret("New password"); err != nil {
		return fail(err)
	}
	if form.ConfirmPassword, err = promptSecret("Confirm new password"); err != nil {
		return fail(err)
	}
	err = brokerhub.Submit(ctx, form, func(ctx context.Context) error {
		return a.session.ChangePassword(ctx, form.OldPassword, form.NewPassword)
	})
	if err != nil {
		return fail(err)
	}
	fmt.Fprintln(stdout, "Password updated.")
	return subcommands.ExitSuccess
}
