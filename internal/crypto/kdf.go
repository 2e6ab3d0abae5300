// Package crypto implements the passphrase-derived AES-256-CBC file
// encryption this system uses to protect a hidden payload blob.
package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. These are part of the on-disk wire format: every
// encrypted payload was derived with exactly these values, so they MUST NOT
// be changed, and MUST NOT be read from the underlying library's defaults
// (library defaults can and do drift between releases, which would silently
// break decryption of previously-hidden payloads).
const (
	Argon2Memory      = 19456 // KiB
	Argon2Time        = 2
	Argon2Parallelism = 1
	Argon2KeySize     = 32

	// SaltSize and IVSize are the per-file random values drawn fresh for
	// every encryption.
	SaltSize = 16
	IVSize   = 16
)

// RandomBytes generates n cryptographically secure random bytes, sanity
// checking that the CSPRNG did not hand back an all-zero buffer.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("crypto/rand: %w", err)
	}
	if bytes.Equal(b, make([]byte, n)) {
		return nil, errors.New("crypto/rand produced an all-zero buffer")
	}
	return b, nil
}

// DeriveKey derives a 32-byte AES-256 key from a password and salt using
// Argon2id with the fixed parameters above.
func DeriveKey(password, salt []byte) ([]byte, error) {
	key := argon2.IDKey(password, salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeySize)
	if bytes.Equal(key, make([]byte, Argon2KeySize)) {
		return nil, errors.New("argon2id produced an all-zero key")
	}
	return key, nil
}
