package hasher

import (
	"errors"
	"fmt"

	"github.com/haguru/myblog/internal/interfaces"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest plaintext bcrypt accepts.
const MaxPasswordBytes = 72

// BcryptHasher implements interfaces.PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost; zero selects bcrypt.DefaultCost.
func NewBcryptHasher(cost int) (interfaces.PasswordHasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash returns a salted bcrypt hash of plaintext. Plaintext longer than
// MaxPasswordBytes fails with interfaces.ErrPasswordTooLong.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %d bytes, at most %d", interfaces.ErrPasswordTooLong, len(plaintext), MaxPasswordBytes)
	}
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify compares plaintext against a bcrypt hash.
func (h *BcryptHasher) Verify(hashed, plaintext string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext))
}
