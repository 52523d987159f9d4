package main

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/cinira-llc/crypto-go/internal/envelope"
)

// testIterations keeps PBKDF2 cheap in tests.
const testIterations = 2048

// executeCommand executes a Cobra command with the given args and returns output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err = root.Execute()
	return buf.String(), err
}

// resetRootFlags resets the persistent root flags.
// This is needed because Cobra retains flag values between test runs.
func resetRootFlags() {
	auditLogPath = ""
}

// testContext holds test resources.
type testContext struct {
	t       *testing.T
	tempDir string
}

// newTestContext creates a new test context with a temp directory.
func newTestContext(t *testing.T) *testContext {
	t.Helper()
	dir, err := os.MkdirTemp("", "cryptoctl-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return &testContext{t: t, tempDir: dir}
}

// path returns a path within the temp directory.
func (tc *testContext) path(name string) string {
	return filepath.Join(tc.tempDir, name)
}

// writeFile writes content to a file in the temp directory.
func (tc *testContext) writeFile(name, content string) string {
	tc.t.Helper()
	path := tc.path(name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tc.t.Fatalf("Failed to write file %s: %v", name, err)
	}
	return path
}

// generateRSAKeyPair generates an RSA key pair.
func generateRSAKeyPair(t *testing.T, bits int) (*rsa.PrivateKey, *rsa.PublicKey) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}
	return priv, &priv.PublicKey
}

// writeRSAKeyPEM writes an unencrypted PKCS#8 private key to a PEM file.
func (tc *testContext) writeRSAKeyPEM(name string, key *rsa.PrivateKey) string {
	tc.t.Helper()
	path := tc.path(name)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		tc.t.Fatalf("Failed to marshal key: %v", err)
	}
	pemData := pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: der,
	})
	if err := os.WriteFile(path, pemData, 0600); err != nil {
		tc.t.Fatalf("Failed to write key: %v", err)
	}
	return path
}

// writeEncryptedKeyPEM wraps key under passphrase with a low-cost KDF
// and writes the ENCRYPTED PRIVATE KEY PEM.
func (tc *testContext) writeEncryptedKeyPEM(name, passphrase string, key *rsa.PrivateKey) string {
	tc.t.Helper()
	path := tc.path(name)

	bag, err := envelope.EncryptPrivateKey(key, []byte(passphrase), &envelope.EncryptOptions{Iterations: testIterations})
	if err != nil {
		tc.t.Fatalf("Failed to encrypt key: %v", err)
	}
	pemData := pem.EncodeToMemory(&pem.Block{
		Type:  "ENCRYPTED PRIVATE KEY",
		Bytes: bag,
	})
	if err := os.WriteFile(path, pemData, 0600); err != nil {
		tc.t.Fatalf("Failed to write key: %v", err)
	}
	return path
}

// writePublicKeyPEM writes a PKIX public key to a PEM file.
func (tc *testContext) writePublicKeyPEM(name string, pub *rsa.PublicKey) string {
	tc.t.Helper()
	path := tc.path(name)

	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		tc.t.Fatalf("Failed to marshal public key: %v", err)
	}
	pemData := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	})
	if err := os.WriteFile(path, pemData, 0644); err != nil {
		tc.t.Fatalf("Failed to write public key: %v", err)
	}
	return path
}

// loadKeyFromFile reads a key PEM file back for verification.
func loadKeyFromFile(t *testing.T, path, passphrase string) *rsa.PrivateKey {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read key file: %v", err)
	}
	key, err := envelope.ExtractPrivateKey(data, []byte(passphrase))
	if err != nil {
		t.Fatalf("Failed to extract key from %s: %v", path, err)
	}
	return key
}

// pemHeader returns the BEGIN header of the first PEM block in a file.
func pemHeader(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		t.Fatalf("No PEM block in %s", path)
	}
	return block.Type
}

// =============================================================================
// Assertion Helpers
// =============================================================================

// assertFileExists verifies that a file exists at the given path.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("file %s does not exist", path)
	}
}

// assertFileNotEmpty verifies that a file exists and is not empty.
func assertFileNotEmpty(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if len(data) == 0 {
		t.Errorf("file %s is empty", path)
	}
}

// assertNoError fails the test if err is not nil.
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertError fails the test if err is nil.
func assertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
