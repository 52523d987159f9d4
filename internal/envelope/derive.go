package envelope

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 iteration count used when no count
	// is carried alongside the ciphertext (the convenience key-derivation
	// path and password envelopes).
	DefaultIterations = 65535

	// SaltSize and IVSize are fixed at one AES block.
	SaltSize = 16
	IVSize   = 16

	// KeySize is the AES-256 key length.
	KeySize = 32
)

// deriveKey runs PBKDF2-HMAC-SHA256 with an explicit iteration count.
// Key bags carry their own count; everything else uses DefaultIterations.
func deriveKey(passphrase, salt []byte, iterations int) []byte {
	return pbkdf2.Key(passphrase, salt, iterations, KeySize, sha256.New)
}

// GenerateAESKey derives a 32-byte AES key from a passphrase with
// PBKDF2-HMAC-SHA256 at DefaultIterations. A nil salt defaults to the
// first 16 bytes of SHA-256(passphrase), giving a deterministic,
// passphrase-only derivation; a provided salt must be exactly 16 bytes.
func GenerateAESKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, NewOpError("derive", fmt.Errorf("%w: empty passphrase", ErrInvalidParameter))
	}
	switch {
	case salt == nil:
		sum := sha256.Sum256(passphrase)
		salt = sum[:SaltSize]
	case len(salt) != SaltSize:
		return nil, NewOpError("derive", fmt.Errorf("%w: salt is %d bytes, want %d", ErrInvalidParameter, len(salt), SaltSize))
	}
	return deriveKey(passphrase, salt, DefaultIterations), nil
}

// SaltAndIV resolves the salt and IV for a deterministic password
// envelope: any nil part is taken from SHA-256(password), bytes [0:16)
// for the salt and [16:32) for the IV. Provided parts must be exactly
// 16 bytes. This is distinct from the random salt/IV a default seal
// generates; the two policies are never mixed in one call.
func SaltAndIV(password, salt, iv []byte) ([]byte, []byte, error) {
	var sum [sha256.Size]byte
	if salt == nil || iv == nil {
		if len(password) == 0 {
			return nil, nil, fmt.Errorf("%w: empty password", ErrInvalidParameter)
		}
		sum = sha256.Sum256(password)
	}
	switch {
	case salt == nil:
		salt = sum[:SaltSize]
	case len(salt) != SaltSize:
		return nil, nil, fmt.Errorf("%w: salt is %d bytes, want %d", ErrInvalidParameter, len(salt), SaltSize)
	}
	switch {
	case iv == nil:
		iv = sum[SaltSize : SaltSize+IVSize]
	case len(iv) != IVSize:
		return nil, nil, fmt.Errorf("%w: iv is %d bytes, want %d", ErrInvalidParameter, len(iv), IVSize)
	}
	return salt, iv, nil
}
