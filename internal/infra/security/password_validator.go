package security

import (
	"fmt"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// PasswordRule validates one property of a candidate password.
type PasswordRule interface {
	Validate(password string) error
}

// PasswordValidator runs a chain of rules and reports the first failure.
type PasswordValidator struct {
	rules []PasswordRule
}

func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	return &PasswordValidator{rules: rules}
}

func (v *PasswordValidator) Validate(password string) error {
	for _, rule := range v.rules {
		if err := rule.Validate(password); err != nil {
			return err
		}
	}
	return nil
}

// DefaultPasswordValidator enforces the registration password policy.
func DefaultPasswordValidator(minLength, minScore int) *PasswordValidator {
	rules := []PasswordRule{MinLengthRule{Min: minLength}}
	if minScore > 0 {
		rules = append(rules, StrengthRule{MinScore: minScore})
	}
	return NewPasswordValidator(rules...)
}

type MinLengthRule struct {
	Min int
}

func (r MinLengthRule) Validate(password string) error {
	if len(password) < r.Min {
		return fmt.Errorf("password must be at least %d characters", r.Min)
	}
	return nil
}

// StrengthRule rejects guessable passwords using zxcvbn scoring (0 to 4).
type StrengthRule struct {
	MinScore int
}

func (r StrengthRule) Validate(password string) error {
	result := zxcvbn.PasswordStrength(password, nil)
	if result.Score < r.MinScore {
		return fmt.Errorf("password is too weak")
	}
	return nil
}
