package envelope

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/cinira-llc/crypto-go/internal/pemutil"
	"github.com/cinira-llc/crypto-go/internal/pkcs8"
)

// ExtractPrivateKey reads an RSA private key from PEM text. Three section
// flavors are understood:
//
//   - ENCRYPTED PRIVATE KEY: PBES2-encrypted PKCS#8; passphrase required
//   - PRIVATE KEY: unencrypted PKCS#8
//   - RSA PRIVATE KEY: unencrypted PKCS#1
//
// The section is located by a "PRIVATE KEY" suffix match, so the first
// section of any flavor wins. The passphrase is ignored for the
// unencrypted flavors.
func ExtractPrivateKey(pemText, passphrase []byte) (*rsa.PrivateKey, error) {
	section, err := pemutil.ExtractSection(pemText, "PRIVATE KEY")
	if err != nil {
		return nil, NewOpError("extract", err)
	}
	body, err := section.Decode()
	if err != nil {
		return nil, NewOpError("extract", err)
	}

	var key *rsa.PrivateKey
	switch section.Header {
	case "ENCRYPTED PRIVATE KEY":
		key, err = decryptPrivateKey(body, passphrase)
	case "PRIVATE KEY":
		key, err = importPKCS8(body)
	case "RSA PRIVATE KEY":
		if key, err = x509.ParsePKCS1PrivateKey(body); err != nil {
			err = fmt.Errorf("parsing PKCS#1 key: %w", err)
		}
	default:
		err = fmt.Errorf("%w: %q section", pkcs8.ErrUnsupportedAlgorithm, section.Header)
	}
	if err != nil {
		return nil, NewOpError("extract", err)
	}
	return key, nil
}

// decryptPrivateKey opens a PBES2 bag: parse, check parameter sizes,
// derive the key with the bag's own salt and iteration count, decrypt,
// and import the plaintext PKCS#8.
func decryptPrivateKey(bag, passphrase []byte) (*rsa.PrivateKey, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: empty passphrase", ErrInvalidParameter)
	}
	info, err := pkcs8.ParseEncryptedPrivateKeyInfo(bag)
	if err != nil {
		return nil, err
	}
	if len(info.Salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt is %d bytes, want %d", ErrInvalidParameter, len(info.Salt), SaltSize)
	}
	if len(info.IV) != IVSize {
		return nil, fmt.Errorf("%w: iv is %d bytes, want %d", ErrInvalidParameter, len(info.IV), IVSize)
	}

	plaintext, err := decryptCBC(deriveKey(passphrase, info.Salt, info.Iterations), info.IV, info.Data)
	if err != nil {
		return nil, err
	}

	key, err := importPKCS8(plaintext)
	if err != nil {
		if errors.Is(err, pkcs8.ErrUnsupportedAlgorithm) {
			return nil, err
		}
		// Structural failures after decryption mean a wrong passphrase
		// or a corrupt bag; collapse them so callers cannot tell which
		// layer broke.
		return nil, ErrDecryptionFailed
	}
	return key, nil
}

// importPKCS8 parses an unencrypted PKCS#8 document and imports its RSA
// key. Keys of any other algorithm fail with ErrUnsupportedAlgorithm.
func importPKCS8(body []byte) (*rsa.PrivateKey, error) {
	info, err := pkcs8.ParsePrivateKeyInfo(body)
	if err != nil {
		return nil, err
	}
	if !info.Algorithm.Equal(pkcs8.OIDRSAEncryption) {
		return nil, fmt.Errorf("%w: got %s, want RSA", pkcs8.ErrUnsupportedAlgorithm, pkcs8.AlgorithmName(info.Algorithm))
	}
	key, err := x509.ParsePKCS1PrivateKey(info.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("parsing RSA key: %w", err)
	}
	return key, nil
}

// EncryptOptions control EncryptPrivateKey. The zero value picks the
// OpenSSL-compatible defaults.
type EncryptOptions struct {
	// Iterations is the PBKDF2 iteration count; DefaultIterations if zero.
	Iterations int
}

// EncryptPrivateKey wraps an RSA private key in a PBES2-encrypted PKCS#8
// bag with fresh random salt and IV. The output opens with
// ExtractPrivateKey and with `openssl pkcs8`.
func EncryptPrivateKey(key *rsa.PrivateKey, passphrase []byte, opts *EncryptOptions) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, NewOpError("encrypt", fmt.Errorf("%w: empty passphrase", ErrInvalidParameter))
	}
	iterations := DefaultIterations
	if opts != nil && opts.Iterations > 0 {
		iterations = opts.Iterations
	}

	plaintext, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, NewOpError("encrypt", err)
	}
	salt, err := randomOrExact(nil, SaltSize, "salt")
	if err != nil {
		return nil, NewOpError("encrypt", err)
	}
	iv, err := randomOrExact(nil, IVSize, "iv")
	if err != nil {
		return nil, NewOpError("encrypt", err)
	}

	ciphertext, err := encryptCBC(deriveKey(passphrase, salt, iterations), iv, plaintext)
	if err != nil {
		return nil, NewOpError("encrypt", err)
	}
	bag, err := pkcs8.MarshalEncryptedPrivateKeyInfo(salt, iterations, iv, ciphertext)
	if err != nil {
		return nil, NewOpError("encrypt", err)
	}
	return bag, nil
}
