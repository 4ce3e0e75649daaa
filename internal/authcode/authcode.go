// Package authcode hashes and verifies the 4-digit codes that authorize
// anonymous reservation changes. The digest is one-way; only the digest is
// ever persisted.
package authcode

import (
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var codePattern = regexp.MustCompile(`^\d{4}$`)

// Valid reports whether code is exactly four digits.
func Valid(code string) bool {
	return codePattern.MatchString(code)
}

// Hasher turns plaintext codes into digests and verifies submissions
// against stored digests.
type Hasher interface {
	Hash(code string) (string, error)
	Matches(code, digest string) bool
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a Hasher backed by bcrypt. A cost outside the
// valid bcrypt range falls back to the default cost.
func NewBcryptHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return bcryptHasher{cost: cost}
}

func (h bcryptHasher) Hash(code string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(code), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash auth code: %w", err)
	}
	return string(digest), nil
}

func (h bcryptHasher) Matches(code, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(code)) == nil
}
