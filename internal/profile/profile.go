// Package profile provides named PBES2 encryption policies.
//
// A profile pins the price of a passphrase guess: which PRF the key
// derivation uses, how many PBKDF2 iterations it runs, and which cipher
// wraps the key. Profiles keep those choices out of command lines so
// two sides of an interop agree by naming the same profile.
package profile

import "fmt"

const (
	// CipherAES256CBC is the only cipher the decryption pipeline accepts.
	CipherAES256CBC = "aes-256-cbc"

	// PRFHMACSHA256 is the only PBKDF2 PRF the decryption pipeline accepts.
	PRFHMACSHA256 = "hmac-sha256"
)

// KDFConfig defines the key derivation parameters of a profile.
type KDFConfig struct {
	// PRF names the PBKDF2 pseudo-random function.
	// Empty defaults to hmac-sha256.
	PRF string `yaml:"prf,omitempty" json:"prf,omitempty"`

	// Iterations is the PBKDF2 iteration count.
	Iterations int `yaml:"iterations" json:"iterations"`
}

// Profile defines a PBES2 key-wrapping policy.
type Profile struct {
	// Name is the unique identifier for this profile.
	Name string `yaml:"name" json:"name"`

	// Description provides a human-readable description.
	Description string `yaml:"description" json:"description"`

	// KDF defines the key derivation parameters.
	KDF KDFConfig `yaml:"kdf" json:"kdf"`

	// Cipher names the symmetric cipher that wraps the key.
	// Empty defaults to aes-256-cbc.
	Cipher string `yaml:"cipher,omitempty" json:"cipher,omitempty"`
}

// Validate checks that the profile configuration is valid.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if p.KDF.Iterations < 1 {
		return fmt.Errorf("kdf iterations must be positive, got %d", p.KDF.Iterations)
	}
	if p.KDF.PRF != "" && p.KDF.PRF != PRFHMACSHA256 {
		return fmt.Errorf("unsupported kdf prf: %s (only %s)", p.KDF.PRF, PRFHMACSHA256)
	}
	if p.Cipher != "" && p.Cipher != CipherAES256CBC {
		return fmt.Errorf("unsupported cipher: %s (only %s)", p.Cipher, CipherAES256CBC)
	}
	return nil
}

// applyDefaults fills optional fields with their single supported value.
func (p *Profile) applyDefaults() {
	if p.KDF.PRF == "" {
		p.KDF.PRF = PRFHMACSHA256
	}
	if p.Cipher == "" {
		p.Cipher = CipherAES256CBC
	}
}
