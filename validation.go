package brokerhub

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// Values are the raw inputs of a form, by field name.
type Values map[string]string

// Rule checks a single field value. It returns the message to show when the
// value is invalid, or "" when it passes. all holds every value of the form
// for rules comparing fields.
type Rule func(value string, all Values) string

// Field is a named form field with its rules, checked in order.
type Field struct {
	Name  string
	Rules []Rule
}

// Schema describes a form.
type Schema []Field

// Has reports whether the schema declares a field.
func (s Schema) Has(name string) bool {
	return slices.ContainsFunc(s, func(f Field) bool { return f.Name == name })
}

// Validate checks every field and returns the first failure of each, or nil.
func (s Schema) Validate(v Values) FieldErrors {
	var errs FieldErrors
	for _, f := range s {
		for _, rule := range f.Rules {
			if msg := rule(v[f.Name], v); msg != "" {
				if errs == nil {
					errs = make(FieldErrors)
				}
				errs[f.Name] = msg
				break
			}
		}
	}
	return errs
}

func Required(msg string) Rule {
	return func(value string, _ Values) string {
		if strings.TrimSpace(value) == "" {
			return msg
		}
		return ""
	}
}

// MinLen requires at least n characters.
func MinLen(n int, msg string) Rule {
	return func(value string, _ Values) string {
		if utf8.RuneCountInString(value) < n {
			return msg
		}
		return ""
	}
}

func Matches(re *regexp.Regexp, msg string) Rule {
	return func(value string, _ Values) string {
		if !re.MatchString(value) {
			return msg
		}
		return ""
	}
}

// EqualTo requires the value to be the same as another field's.
func EqualTo(field, msg string) Rule {
	return func(value string, all Values) string {
		if value != all[field] {
			return msg
		}
		return ""
	}
}

func OneOf(options []string, msg string) Rule {
	return func(value string, _ Values) string {
		if !slices.Contains(options, value) {
			return msg
		}
		return ""
	}
}

// Optional applies rules only to a non blank value.
func Optional(rules ...Rule) Rule {
	return func(value string, all Values) string {
		if strings.TrimSpace(value) == "" {
			return ""
		}
		for _, r := range rules {
			if msg := r(value, all); msg != "" {
				return msg
			}
		}
		return ""
	}
}

// FieldErrors maps field names to their error message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	names := make([]string, 0, len(e))
	for n := range e {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s: %s", n, e[n])
	}
	return strings.Join(parts, "; ")
}

// FormError is the outcome of a failed form submission: either per-field
// messages, a form-level message, or both.
type FormError struct {
	Fields  FieldErrors
	Message string
	Err     error // server error, if any
}

func (e *FormError) Error() string {
	switch {
	case e.Message != "" && len(e.Fields) > 0:
		return e.Message + " (" + e.Fields.Error() + ")"
	case e.Message != "":
		return e.Message
	}
	return e.Fields.Error()
}

func (e *FormError) Unwrap() error { return e.Err }

// Field returns the message attached to a field, if any.
func (e *FormError) Field(name string) string { return e.Fields[name] }

// FieldFromMessage guesses which field a server message is about.
// It returns "" when the message names none.
func FieldFromMessage(msg string) string {
	lc := strings.ToLower(msg)
	switch {
	case strings.Contains(lc, "loginid"), strings.Contains(lc, "login id"):
		return "loginId"
	case strings.Contains(lc, "accountname"), strings.Contains(lc, "account name"):
		return "accountName"
	case strings.Contains(lc, "membername"), strings.Contains(lc, "member name"):
		return "memberName"
	case strings.Contains(lc, "password"):
		return "password"
	}
	return ""
}

// Form is a user input form.
type Form interface {
	Values() Values
	Schema() Schema
	// ClearSecrets wipes sensitive inputs such as passwords and tokens.
	ClearSecrets()
}

// Submit validates the form and, when valid, calls send.
//
// Validation failures are returned as a *FormError without calling send.
// A send error is returned as a *FormError wrapping it, attached to the field
// its message names when the form has that field. Secrets are wiped once
// Submit returns, whatever the outcome.
func Submit(ctx context.Context, f Form, send func(context.Context) error) error {
	defer f.ClearSecrets()
	schema := f.Schema()
	if errs := schema.Validate(f.Values()); errs != nil {
		return &FormError{Fields: errs}
	}
	err := send(ctx)
	if err == nil {
		return nil
	}
	var fe *FormError
	if errors.As(err, &fe) {
		return fe
	}
	msg := err.Error()
	if name := FieldFromMessage(msg); name != "" && schema.Has(name) {
		return &FormError{Fields: FieldErrors{name: msg}, Err: err}
	}
	return &FormError{Message: msg, Err: err}
}
