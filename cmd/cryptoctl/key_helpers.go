package main

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/cinira-llc/crypto-go/internal/audit"
	"github.com/cinira-llc/crypto-go/internal/envelope"
	"github.com/cinira-llc/crypto-go/internal/profile"
)

// resolvePassphrase returns the flag value when set and prompts on the
// terminal otherwise. The prompt goes to stderr so piped output stays
// clean; without a terminal the command fails instead of hanging.
func resolvePassphrase(flagValue, prompt string) ([]byte, error) {
	if flagValue != "" {
		return []byte(flagValue), nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return nil, fmt.Errorf("no passphrase given and stdin is not a terminal (use --passphrase)")
	}

	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(pw) == 0 {
		return nil, fmt.Errorf("empty passphrase")
	}
	return pw, nil
}

// resolveWrapCost turns the --profile/--iterations flag pair into a
// PBKDF2 iteration count. Neither flag set means the interop default.
func resolveWrapCost(profileName, profileDir string, iterations int) (string, int, error) {
	if profileName != "" && iterations > 0 {
		return "", 0, fmt.Errorf("--profile and --iterations are mutually exclusive")
	}
	if iterations < 0 {
		return "", 0, fmt.Errorf("invalid iteration count %d", iterations)
	}
	if profileName == "" {
		if iterations == 0 {
			iterations = envelope.DefaultIterations
		}
		return "", iterations, nil
	}

	store := profile.NewProfileStore(profileDir)
	if err := store.Load(); err != nil {
		return "", 0, fmt.Errorf("failed to load profiles: %w", err)
	}
	prof, ok := store.Get(profileName)
	if !ok {
		return "", 0, fmt.Errorf("unknown profile %q (see 'cryptoctl profile list')", profileName)
	}
	return prof.Name, prof.KDF.Iterations, nil
}

// loadPrivateKey reads a PEM key file and extracts the RSA private key,
// decrypting when the file holds an encrypted PKCS#8 document. Rejected
// passphrases are recorded in the audit log.
func loadPrivateKey(path string, passphrase []byte) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	key, err := envelope.ExtractPrivateKey(data, passphrase)
	if err != nil {
		if errors.Is(err, envelope.ErrDecryptionFailed) {
			_ = audit.LogAuthFailed(path, "invalid passphrase or corrupt key")
		}
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}
	return key, nil
}

// writePlainKey writes an unencrypted private key PEM with mode 0600.
func writePlainKey(key *rsa.PrivateKey, path, format string) error {
	var header string
	var body []byte
	switch format {
	case "pkcs8":
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return fmt.Errorf("failed to marshal key: %w", err)
		}
		header, body = "PRIVATE KEY", der
	case "pkcs1":
		header, body = "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key)
	default:
		return fmt.Errorf("unsupported output format: %s (use 'pkcs8' or 'pkcs1')", format)
	}
	if err := writePEM(path, header, body, 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// writeEncryptedKey wraps key under passphrase at the given PBKDF2 cost
// and writes the ENCRYPTED PRIVATE KEY PEM with mode 0600.
func writeEncryptedKey(key *rsa.PrivateKey, passphrase []byte, iterations int, path string) error {
	bag, err := envelope.EncryptPrivateKey(key, passphrase, &envelope.EncryptOptions{Iterations: iterations})
	if err != nil {
		return fmt.Errorf("failed to encrypt key: %w", err)
	}
	if err := writePEM(path, "ENCRYPTED PRIVATE KEY", bag, 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// writePEM encodes a single PEM block to a file.
func writePEM(path, header string, body []byte, perm os.FileMode) error {
	block := &pem.Block{Type: header, Bytes: body}
	return os.WriteFile(path, pem.EncodeToMemory(block), perm)
}

// keyFingerprint is the SHA-256 of a DER-encoded public key, in hex.
func keyFingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}
