package password

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/authkeeper/internal/model"
)

// ErrMismatch is returned by Verify when the secret does not match the hash.
var ErrMismatch = errors.New("password mismatch")

// Bcrypt hashes secrets with bcrypt at a fixed cost.
type Bcrypt struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

var _ model.PasswordHasher = (*Bcrypt)(nil)

// NewBcrypt creates a hasher. Costs outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// prehash folds a secret of any length into 44 bytes so bcrypt's 72-byte
// input limit never truncates or rejects it.
func prehash(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// Hash returns a salted hash of secret.
func (b *Bcrypt) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(secret), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify checks secret against hash. It returns ErrMismatch for a wrong secret.
func (b *Bcrypt) Verify(hash, secret string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), prehash(secret))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to compare password: %w", err)
	}
	return nil
}

// VerifyDummy runs a comparison against a throwaway hash of the same cost.
// Login calls it for unknown emails so both failure paths take as long.
func (b *Bcrypt) VerifyDummy(secret string) {
	b.dummyOnce.Do(func() {
		b.dummy, _ = bcrypt.GenerateFromPassword(prehash("dummy-password"), b.cost)
	})
	_ = bcrypt.CompareHashAndPassword(b.dummy, prehash(secret))
}
