package auth

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the work factor the original deployment used.
const DefaultBcryptCost = 10

const minPasswordLength = 8

// PasswordPolicy validates and hashes user passwords.
type PasswordPolicy struct {
	cost int
}

// NewPasswordPolicy constructs a policy with the given bcrypt cost.
// A cost outside bcrypt's supported range falls back to DefaultBcryptCost.
func NewPasswordPolicy(cost int) PasswordPolicy {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return PasswordPolicy{cost: cost}
}

// Validate checks the password against the policy and returns every violated
// rule, not just the first. A nil result means the password is acceptable.
func (p PasswordPolicy) Validate(password string) []string {
	var reasons []string
	var hasDigit, hasLower, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}

	if len(password) < minPasswordLength {
		reasons = append(reasons, "Password must be at least 8 characters long")
	}
	if !hasDigit {
		reasons = append(reasons, "Password must contain at least one digit")
	}
	if !hasLower {
		reasons = append(reasons, "Password must contain at least one lowercase letter")
	}
	if !hasUpper {
		reasons = append(reasons, "Password must contain at least one uppercase letter")
	}
	return reasons
}

// Hash returns the one-way digest of the password. The digest must never be
// logged or serialized into API responses.
func (p PasswordPolicy) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches digest.
func (p PasswordPolicy) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
