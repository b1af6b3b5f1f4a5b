// Package validation implements the form-field validators for signup and
// login. Every validator is a pure function mapping a field value (and
// optionally the whole form) to a human-readable message; the empty string
// means the value is acceptable. Invalid input is a normal return value,
// never an error.
package validation

import (
	"regexp"
	"unicode/utf8"
)

const (
	// PasswordMinLen and PasswordMaxLen bound acceptable password lengths.
	PasswordMinLen = 6
	PasswordMaxLen = 128

	// NameMinLen and NameMaxLen bound acceptable display-name lengths.
	NameMinLen = 2
	NameMaxLen = 50
)

var (
	// emailRE requires local@domain.tld with no whitespace or extra '@'.
	emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitRE = regexp.MustCompile(`\d`)
	alphaRE = regexp.MustCompile(`[a-zA-Z]`)
	// nameRE allows letters, spaces, hyphens, and apostrophes.
	nameRE = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
)

// Rule is a single validation step. It receives the field's value and the
// whole form (so cross-field rules like confirm-password can read their
// counterpart) and returns a message, or "" when the value passes.
type Rule func(value string, form map[string]string) string

// Result aggregates a full validation pass over a form.
type Result struct {
	IsValid bool              `json:"is_valid"`
	Errors  map[string]string `json:"errors"`
}

// ValidateEmail checks presence and a simple local@domain.tld shape.
func ValidateEmail(email string) string {
	if email == "" {
		return "Email is required"
	}
	if !emailRE.MatchString(email) {
		return "Please enter a valid email address"
	}
	return ""
}

// ValidatePassword checks presence, length bounds, and that the password
// contains at least one digit and one letter.
func ValidatePassword(password string) string {
	if password == "" {
		return "Password is required"
	}
	if len(password) < PasswordMinLen {
		return "Password must be at least 6 characters long"
	}
	if len(password) > PasswordMaxLen {
		return "Password must be less than 128 characters"
	}
	if !digitRE.MatchString(password) {
		return "Password must contain at least one number"
	}
	if !alphaRE.MatchString(password) {
		return "Password must contain at least one letter"
	}
	return ""
}

// ValidateConfirmPassword checks presence and exact equality with the
// primary password field.
func ValidateConfirmPassword(password, confirm string) string {
	if confirm == "" {
		return "Please confirm your password"
	}
	if password != confirm {
		return "Passwords do not match"
	}
	return ""
}

// ValidateName checks presence, rune-length bounds, and the permitted
// character set (letters, spaces, hyphens, apostrophes).
func ValidateName(name string) string {
	if name == "" {
		return "Name is required"
	}
	if utf8.RuneCountInString(name) < NameMinLen {
		return "Name must be at least 2 characters long"
	}
	if utf8.RuneCountInString(name) > NameMaxLen {
		return "Name must be less than 50 characters"
	}
	if !nameRE.MatchString(name) {
		return "Name can only contain letters, spaces, hyphens, and apostrophes"
	}
	return ""
}

// ValidateForm runs the ordered rule list for each field, stopping at the
// first failing rule per field. Fields are independent: one field's failure
// never short-circuits another's chain. The aggregate IsValid is true iff no
// field produced a message.
func ValidateForm(form map[string]string, rules map[string][]Rule) Result {
	errs := map[string]string{}
	for field, chain := range rules {
		value := form[field]
		for _, rule := range chain {
			if msg := rule(value, form); msg != "" {
				errs[field] = msg
				break
			}
		}
	}
	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// SignupRules is the rule set applied to the signup form.
var SignupRules = map[string][]Rule{
	"name": {
		func(v string, _ map[string]string) string { return ValidateName(v) },
	},
	"email": {
		func(v string, _ map[string]string) string { return ValidateEmail(v) },
	},
	"password": {
		func(v string, _ map[string]string) string { return ValidatePassword(v) },
	},
	"confirmPassword": {
		func(v string, form map[string]string) string {
			return ValidateConfirmPassword(form["password"], v)
		},
	},
}

// LoginRules is the rule set applied to the login form. Password presence is
// the only password rule here; strength is enforced at signup.
var LoginRules = map[string][]Rule{
	"email": {
		func(v string, _ map[string]string) string { return ValidateEmail(v) },
	},
	"password": {
		func(v string, _ map[string]string) string {
			if v == "" {
				return "Password is required"
			}
			return ""
		},
	},
}
