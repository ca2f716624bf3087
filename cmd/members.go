package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/brokerhub"
	"github.com/etnz/brokerhub/renderer"
	"github.com/google/subcommands"
)

// membersCmd is a container for group management subcommands.
type membersCmd struct{}

func (*membersCmd) Name() string     { return "members" }
func (*membersCmd) Synopsis() string { return "manage the members of the current account" }
func (*membersCmd) Usage() string {
	return `members <subcommand> [args]

Commands:
  list   - List the members of the current account.
  add    - Add a user to the current account.
  role   - Change the role of a member.
  remove - Remove a member from the current account.
`
}

func (c *membersCmd) SetFlags(f *flag.FlagSet) {}
func (c *membersCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, "members")
	for _, sub := range c.subcommands() {
		commander.Register(sub, "")
	}
	return commander.Execute(ctx, args...)
}

func (*membersCmd) subcommands() []subcommands.Command {
	return []subcommands.Command{&membersListCmd{}, &membersAddCmd{}, &membersRoleCmd{}, &membersRemoveCmd{}}
}

type membersListCmd struct {
	out output
}

func (*membersListCmd) Name() string     { return "list" }
func (*membersListCmd) Synopsis() string { return "list the members of the current account" }
func (*membersListCmd) Usage() string    { return "bh members list [-format md|html|json]\n" }

func (c *membersListCmd) SetFlags(f *flag.FlagSet) { c.out.SetFlags(f) }

func (c *membersListCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	members, err := a.api.Members(ctx, acc.AccountID)
	if err != nil {
		return fail(err)
	}
	page := renderer.NewMembersPage(acc.Label(), members)
	if err := c.out.print(renderer.RenderMembers(page), members); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type membersAddCmd struct {
	form brokerhub.AddMemberForm
	role string
}

func (*membersAddCmd) Name() string     { return "add" }
func (*membersAddCmd) Synopsis() string { return "add a user to the current account" }
func (*membersAddCmd) Usage() string {
	return `bh members add -login <id> [-email <email>] [-role ADMIN|MEMBER]

  Adds an existing user to the current account. Only admins can add members.
`
}

func (c *membersAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.form.LoginID, "login", "", "Login id of the user to add")
	f.StringVar(&c.form.Email, "email", "", "Email of the user (optional)")
	f.StringVar(&c.role, "role", string(brokerhub.RoleMember), "Role: ADMIN or MEMBER")
}

func (c *membersAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	acc, err := a.current()
	if err != nil {
		return fail(err)
	}
	form := &c.form
	form.Role = brokerhub.Role(c.role)
	if role, err := brokerhub.ParseRole(c.role); err == nil {
		form.Role = role
	}
	var added brokerhub.Member
	err = brokerhub.Submit(ctx, form, func(ctx context.Context) error {
		m, err := a.api.AddMember(ctx, acc.AccountID, form.LoginID, form.Email)
		if err != nil {
			return err
		}
		if form.Role != m.Role {
			if m, err = a.api.UpdateMemberRole(ctx, acc.AccountID, m.MemberID, form.Role); err != nil {
				return err
			}
		}
		added = m
		return nil
	})
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "Added %s to %s as %s (member id %s).\n", added.LoginID, acc.Label(), added.Role, added.MemberID)
	return subcommands.ExitSuccess
}

type membersRoleCmd struct{}

func (*membersRoleCmd) Name() string     { return "role" }
func (*membersRoleCmd) Synopsis() string { return "change the role of a member" }
func (*membersRoleCmd) Usage() string {
	return "bh members role <member id> ADMIN|MEMBER\n"
}
func (*membersRoleCmd) SetFlags(f *flag.FlagSet) {}

func (c *membersRoleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(stderr, "Error: a member id and a role are required.")
		return subcommands.ExitUsageError
	}
	role, err := brokerhub.ParseRole(f.Arg(1))
	if err != nil {
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
	m, err := a.api.UpdateMemberRole(ctx, acc.AccountID, f.Arg(0), role)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "%s is now %s.\n", m.LoginID, m.Role)
	return subcommands.ExitSuccess
}

type membersRemoveCmd struct{}

func (*membersRemoveCmd) Name() string             { return "remove" }
func (*membersRemoveCmd) Synopsis() string         { return "remove a member from the current account" }
func (*membersRemoveCmd) Usage() string            { return "bh members remove <member id>\n" }
func (*membersRemoveCmd) SetFlags(f *flag.FlagSet) {}

func (c *membersRemoveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one member id is required.")
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
	if err := a.api.RemoveMember(ctx, acc.AccountID, f.Arg(0)); err != nil {
		return fail(err)
	}
	fmt.Fprintln(stdout, "Member removed.")
	return subcommands.ExitSuccess
}
