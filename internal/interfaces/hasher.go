package interfaces

import "errors"

// ErrPasswordTooLong is returned by Hash for plaintext the hashing scheme cannot represent.
var ErrPasswordTooLong = errors.New("password too long")

// PasswordHasher turns plaintext passwords into one-way, salted hashes.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify returns nil when plaintext matches hashed.
	Verify(hashed, plaintext string) error
}
