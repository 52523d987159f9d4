// Package envelope implements the password and RSA envelopes used to
// protect RSA private keys and small payloads: PBES2-encrypted PKCS#8
// (PBKDF2/HMAC-SHA256 + AES-256-CBC, as emitted by OpenSSL), raw AES-CBC
// envelopes with derived or caller-held keys, and RSA-OAEP key transport.
package envelope

import (
	"errors"
	"fmt"
)

// OpError represents an envelope operation error with structured context.
// It supports errors.Is() and errors.As() for improved error handling.
type OpError struct {
	Op  string // Operation: "derive", "extract", "encrypt", "seal", "open"
	Err error  // Underlying error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("envelope %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OpError) Unwrap() error { return e.Err }

// NewOpError creates a new OpError with the given operation and error.
func NewOpError(op string, err error) *OpError {
	return &OpError{Op: op, Err: err}
}

// Sentinel errors for envelope operations.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrInvalidParameter indicates a salt, IV or key of the wrong size,
	// or a missing required passphrase.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDecryptionFailed indicates the payload could not be decrypted.
	// It deliberately carries no detail: a wrong passphrase and a corrupt
	// payload must stay indistinguishable to the caller.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrEncryptionFailed indicates the payload could not be encrypted.
	ErrEncryptionFailed = errors.New("encryption failed")
)
