package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nbutton23/zxcvbn-go"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

const (
	usernameMinLength = 4
	usernameMaxLength = 32
	passwordMaxLength = 128
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
	digitsPattern   = regexp.MustCompile(`^[0-9]+$`)
)

// ValidateUsername reports a ValidationError on field when name is not a
// usable account name.
func ValidateUsername(field, name string) error {
	switch {
	case name == "":
		return model.NewValidationError(field, "username is required")
	case len(name) < usernameMinLength || len(name) > usernameMaxLength:
		return model.NewValidationError(field, fmt.Sprintf("username must be %d-%d characters", usernameMinLength, usernameMaxLength))
	case !usernamePattern.MatchString(name):
		return model.NewValidationError(field, "username may only contain letters, digits, '_', '.' and '-'")
	case digitsPattern.MatchString(name):
		return model.NewValidationError(field, "username cannot be all digits")
	}
	return nil
}

// PasswordPolicy rejects short or guessable passwords.
type PasswordPolicy struct {
	MinLength int
	// MinScore is the lowest accepted zxcvbn score, 0 to 4.
	MinScore int
}

// Check validates password for field. userInputs (username, nickname) are
// penalized by the strength estimator.
func (p PasswordPolicy) Check(field, password string, userInputs ...string) error {
	if password == "" {
		return model.NewValidationError(field, "password is required")
	}
	if len(password) < p.MinLength {
		return model.NewValidationError(field, fmt.Sprintf("password must be at least %d characters", p.MinLength))
	}
	if len(password) > passwordMaxLength {
		return model.NewValidationError(field, fmt.Sprintf("password must be at most %d characters", passwordMaxLength))
	}

	inputs := make([]string, 0, len(userInputs))
	for _, in := range userInputs {
		if in = strings.TrimSpace(in); in != "" {
			inputs = append(inputs, in)
		}
	}
	if score := zxcvbn.PasswordStrength(password, inputs).Score; score < p.MinScore {
		return model.NewValidationError(field, "password is too weak")
	}
	return nil
}
