package brokerhub

import "regexp"

var (
	noSpace = regexp.MustCompile(`^\S+$`)
	email   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func roleNames() []string   { return []string{string(RoleAdmin), string(RoleMember)} }
func brokerNames() []string { return []string{string(BrokerDhan), string(BrokerZerodha)} }

// SignupForm creates a group account together with its first admin user.
type SignupForm struct {
	AccountName     string
	AccountDesc     string
	LoginID         string
	MemberName      string
	Email           string
	Password        string
	ConfirmPassword string
}

var signupSchema = Schema{
	{"accountName", []Rule{MinLen(2, "Account name must be at least 2 characters")}},
	{"accountDesc", nil},
	{"loginId", []Rule{
		MinLen(3, "Login ID must be at least 3 characters"),
		Matches(noSpace, "Login ID cannot contain spaces"),
	}},
	{"memberName", []Rule{MinLen(2, "Member name must be at least 2 characters")}},
	{"email", []Rule{Optional(Matches(email, "Invalid email address"))}},
	{"password", []Rule{MinLen(8, "Password must be at least 8 characters")}},
	{"confirmPassword", []Rule{EqualTo("password", "Passwords do not match")}},
}

func (f *SignupForm) Schema() Schema { return signupSchema }
func (f *SignupForm) Values() Values {
	return Values{
		"accountName":     f.AccountName,
		"accountDesc":     f.AccountDesc,
		"loginId":         f.LoginID,
		"memberName":      f.MemberName,
		"email":           f.Email,
		"password":        f.Password,
		"confirmPassword": f.ConfirmPassword,
	}
}
func (f *SignupForm) ClearSecrets() { f.Password, f.ConfirmPassword = "", "" }

// LoginForm authenticates with a login id and a password.
type LoginForm struct {
	LoginID  string
	Password string
}

var loginSchema = Schema{
	{"loginId", []Rule{Required("Login ID is required")}},
	{"password", []Rule{Required("Password is required")}},
}

func (f *LoginForm) Schema() Schema { return loginSchema }
func (f *LoginForm) Values() Values {
	return Values{"loginId": f.LoginID, "password": f.Password}
}
func (f *LoginForm) ClearSecrets() { f.Password = "" }

// ChangePasswordForm changes the authenticated user's password.
type ChangePasswordForm struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

var changePasswordSchema = Schema{
	{"oldPassword", []Rule{Required("Current password is required")}},
	{"newPassword", []Rule{MinLen(8, "Password must be at least 8 characters")}},
	{"confirmPassword", []Rule{EqualTo("newPassword", "Passwords do not match")}},
}

func (f *ChangePasswordForm) Schema() Schema { return changePasswordSchema }
func (f *ChangePasswordForm) Values() Values {
	return Values{
		"oldPassword":     f.OldPassword,
		"newPassword":     f.NewPassword,
		"confirmPassword": f.ConfirmPassword,
	}
}
func (f *ChangePasswordForm) ClearSecrets() {
	f.OldPassword, f.NewPassword, f.ConfirmPassword = "", "", ""
}

// CreateAccountForm creates an additional group account for the current user.
type CreateAccountForm struct {
	AccountName string
	AccountDesc string
}

var createAccountSchema = Schema{
	{"accountName", []Rule{MinLen(2, "Account name must be at least 2 characters")}},
	{"accountDesc", nil},
}

func (f *CreateAccountForm) Schema() Schema { return createAccountSchema }
func (f *CreateAccountForm) Values() Values {
	return Values{"accountName": f.AccountName, "accountDesc": f.AccountDesc}
}
func (f *CreateAccountForm) ClearSecrets() {}

// CredentialForm stores a broker access token for a membership.
// The token is write-only, it is wiped as soon as the form was submitted.
type CredentialForm struct {
	AccountMemberID string
	Broker          Broker
	Nickname        string
	Token           string
}

var credentialSchema = Schema{
	{"accountMemberId", []Rule{Required("Select an account before adding a broker")}},
	{"broker", []Rule{OneOf(brokerNames(), "Broker must be DHAN or ZERODHA")}},
	{"nickname", []Rule{Required("Nickname is required")}},
	{"token", []Rule{Required("Access token is required")}},
}

func (f *CredentialForm) Schema() Schema { return credentialSchema }
func (f *CredentialForm) Values() Values {
	return Values{
		"accountMemberId": f.AccountMemberID,
		"broker":          string(f.Broker),
		"nickname":        f.Nickname,
		"token":           f.Token,
	}
}
func (f *CredentialForm) ClearSecrets() { f.Token = "" }

// AddMemberForm adds a user to the current account.
type AddMemberForm struct {
	LoginID string
	Email   string
	Role    Role
}

var addMemberSchema = Schema{
	{"loginId", []Rule{
		MinLen(3, "Login ID must be at least 3 characters"),
		Matches(noSpace, "Login ID cannot contain spaces"),
	}},
	{"email", []Rule{Optional(Matches(email, "Invalid email address"))}},
	{"role", []Rule{OneOf(roleNames(), "Role must be ADMIN or MEMBER")}},
}

func (f *AddMemberForm) Schema() Schema { return addMemberSchema }
func (f *AddMemberForm) Values() Values {
	return Values{"loginId": f.LoginID, "email": f.Email, "role": string(f.Role)}
}
func (f *AddMemberForm) ClearSecrets() {}
