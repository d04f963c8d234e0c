package validation

import (
	"fmt"
	"net/mail"
	"strings"
)

// EmailLookup reports whether an email already belongs to a user other
// than ignoreID. An ignoreID of zero excludes no row. This is the only
// impure step in validation: a read-only existence check.
type EmailLookup func(email string, ignoreID int) (bool, error)

func requiredMessage(field string) string {
	return fmt.Sprintf("The %s field is required.", field)
}

// MinLen requires the value to be at least n characters.
func MinLen(n int) Rule {
	return func(field string, in Input) (string, error) {
		if len([]rune(in[field])) < n {
			return fmt.Sprintf("The %s field must be at least %d characters.", field, n), nil
		}
		return "", nil
	}
}

// MaxLen caps the value at n characters.
func MaxLen(n int) Rule {
	return func(field string, in Input) (string, error) {
		if len([]rune(in[field])) > n {
			return fmt.Sprintf("The %s field must not be greater than %d characters.", field, n), nil
		}
		return "", nil
	}
}

// Email requires a syntactically valid email address.
func Email() Rule {
	return func(field string, in Input) (string, error) {
		value := in[field]
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value {
			return fmt.Sprintf("The %s field must be a valid email address.", field), nil
		}
		return "", nil
	}
}

// In requires the value to be one of the allowed values.
func In(allowed ...string) Rule {
	return func(field string, in Input) (string, error) {
		value := in[field]
		for _, candidate := range allowed {
			if value == candidate {
				return "", nil
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field), nil
	}
}

// Confirmed requires a matching "<field>_confirmation" value.
func Confirmed() Rule {
	return func(field string, in Input) (string, error) {
		if in[field] != in[field+"_confirmation"] {
			return fmt.Sprintf("The %s field confirmation does not match.", field), nil
		}
		return "", nil
	}
}

// UniqueEmail rejects an email already taken by another user.
func UniqueEmail(lookup EmailLookup, ignoreID int) Rule {
	return func(field string, in Input) (string, error) {
		taken, err := lookup(in[field], ignoreID)
		if err != nil {
			return "", err
		}
		if taken {
			return EmailTakenMessage(field), nil
		}
		return "", nil
	}
}

// EmailTakenMessage is the uniqueness violation message. Handlers reuse
// it when the store reports a duplicate that raced past the pre-check.
func EmailTakenMessage(field string) string {
	return fmt.Sprintf("The %s has already been taken.", field)
}

// TodoRules is the rule set shared by todo create and update.
func TodoRules() []Field {
	return []Field{
		{Name: "title", Rules: []Rule{MaxLen(255)}},
		{Name: "description"},
	}
}

// UserCreateRules is the rule set for creating a user account.
func UserCreateRules(lookup EmailLookup) []Field {
	return []Field{
		{Name: "name", Rules: []Rule{MinLen(3), MaxLen(255)}},
		{Name: "email", Rules: []Rule{Email(), MaxLen(255), UniqueEmail(lookup, 0)}},
		{Name: "password", Rules: []Rule{MinLen(8), Confirmed()}},
		{Name: "role", Rules: []Rule{In("user", "admin")}},
	}
}

// UserUpdateRules mirrors UserCreateRules with every field optional;
// absence leaves the stored value unchanged. The uniqueness check
// excludes the record being updated.
func UserUpdateRules(lookup EmailLookup, userID int) []Field {
	return []Field{
		{Name: "name", Optional: true, Rules: []Rule{MinLen(3), MaxLen(255)}},
		{Name: "email", Optional: true, Rules: []Rule{Email(), MaxLen(255), UniqueEmail(lookup, userID)}},
		{Name: "password", Optional: true, Rules: []Rule{MinLen(8), Confirmed()}},
		{Name: "role", Optional: true, Rules: []Rule{In("user", "admin")}},
	}
}

// Normalize trims surrounding whitespace from every supplied value.
// Password fields are left untouched.
func Normalize(in Input) Input {
	out := make(Input, len(in))
	for key, value := range in {
		if strings.HasPrefix(key, "password") {
			out[key] = value
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}
