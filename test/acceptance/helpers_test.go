//go:build acceptance

// Package acceptance contains black-box CLI acceptance tests (TestA_*).
// Run with: go test -tags=acceptance ./test/acceptance/...
package acceptance

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// cryptoctlBinary is the path to the cryptoctl binary.
// Set via CRYPTOCTL_BINARY env var or default to ./bin/cryptoctl in the repo root.
var cryptoctlBinary string

func init() {
	if bin := os.Getenv("CRYPTOCTL_BINARY"); bin != "" {
		cryptoctlBinary = bin
	} else {
		// Default: look for binary in repo root
		cryptoctlBinary = "../../bin/cryptoctl"
	}
}

// runCryptoctl executes the cryptoctl CLI with the given arguments and returns stdout.
// Fails the test if the command returns a non-zero exit code.
func runCryptoctl(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command(cryptoctlBinary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		t.Fatalf("cryptoctl %s failed: %v\nstderr: %s\nstdout: %s",
			strings.Join(args, " "), err, stderr.String(), stdout.String())
	}
	return stdout.String()
}

// runCryptoctlExpectError executes cryptoctl and expects it to fail.
// Returns the combined output (stdout + stderr).
func runCryptoctlExpectError(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command(cryptoctlBinary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		t.Fatalf("cryptoctl %s expected to fail but succeeded\nstdout: %s",
			strings.Join(args, " "), stdout.String())
	}
	return stdout.String() + stderr.String()
}

// generatePlainKey generates an unencrypted RSA key and returns its path.
func generatePlainKey(t *testing.T) string {
	t.Helper()
	keyPath := filepath.Join(t.TempDir(), "key.pem")
	runCryptoctl(t, "key", "gen", "--bits", "2048", "--out", keyPath)
	return keyPath
}

// generateEncryptedKey generates a passphrase-protected RSA key and returns its path.
// The openssl-legacy profile keeps PBKDF2 cheap in tests.
func generateEncryptedKey(t *testing.T, passphrase string) string {
	t.Helper()
	keyPath := filepath.Join(t.TempDir(), "key.pem")
	runCryptoctl(t, "key", "gen", "--bits", "2048", "--out", keyPath,
		"--passphrase", passphrase, "--profile", "openssl-legacy")
	return keyPath
}

// extractPublicKey extracts the public half of a key file and returns its path.
func extractPublicKey(t *testing.T, keyPath, passphrase string) string {
	t.Helper()
	pubPath := filepath.Join(t.TempDir(), "key.pub")
	args := []string{"key", "pub", "--key", keyPath, "--out", pubPath}
	if passphrase != "" {
		args = append(args, "--passphrase", passphrase)
	}
	runCryptoctl(t, args...)
	return pubPath
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("expected file to exist: %s", path)
	}
}

// assertOutputContains fails if the output does not contain the expected substring.
func assertOutputContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got: %s", expected, output)
	}
}

// assertFileContent fails if the file's content differs from expected.
func assertFileContent(t *testing.T, path, expected string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if string(data) != expected {
		t.Errorf("file %s content = %q, want %q", path, data, expected)
	}
}

// writeTestFile creates a temporary file with the given content.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}
