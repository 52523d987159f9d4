//go:build acceptance

package acceptance

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// Profile Management Tests (TestA_Profile_*)
// =============================================================================

func TestA_Profile_List_Builtins(t *testing.T) {
	output := runCryptoctl(t, "profile", "list")

	for _, name := range []string{"modern", "interop-java", "openssl-legacy"} {
		assertOutputContains(t, output, name)
	}
	assertOutputContains(t, output, "built-in")
	assertOutputContains(t, output, "600000")
}

func TestA_Profile_List_CustomOverride(t *testing.T) {
	dir := t.TempDir()
	customPath := filepath.Join(dir, "modern.yaml")
	custom := "name: modern\ndescription: Tuned down\nkdf:\n  iterations: 120000\n"
	if err := os.WriteFile(customPath, []byte(custom), 0644); err != nil {
		t.Fatalf("failed to write custom profile: %v", err)
	}

	output := runCryptoctl(t, "profile", "list", "--profile-dir", dir)
	assertOutputContains(t, output, "custom (overrides built-in)")
	assertOutputContains(t, output, "120000")
}

func TestA_Profile_Show(t *testing.T) {
	output := runCryptoctl(t, "profile", "show", "modern")

	assertOutputContains(t, output, "name: modern")
	assertOutputContains(t, output, "iterations: 600000")
}

func TestA_Profile_Show_Unknown(t *testing.T) {
	output := runCryptoctlExpectError(t, "profile", "show", "no-such-profile")
	assertOutputContains(t, output, "profile not found")
}

func TestA_Profile_Export_ThenLint(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exported")

	output := runCryptoctl(t, "profile", "export", dir)
	assertOutputContains(t, output, "Exporting 3 profiles")

	for _, name := range []string{"modern", "interop-java", "openssl-legacy"} {
		path := filepath.Join(dir, name+".yaml")
		assertFileExists(t, path)

		lint := runCryptoctl(t, "profile", "lint", path)
		assertOutputContains(t, lint, "VALID: "+name)
	}
}

func TestA_Profile_Lint_Invalid(t *testing.T) {
	path := writeTestFile(t, "bad.yaml", "name: bad\nkdf:\n  iterations: 0\n")

	output := runCryptoctlExpectError(t, "profile", "lint", path)
	assertOutputContains(t, output, "INVALID")
}

func TestA_Profile_UsedForEncryption(t *testing.T) {
	dir := t.TempDir()
	customPath := filepath.Join(dir, "site.yaml")
	custom := "name: site\ndescription: Site policy\nkdf:\n  iterations: 2500\n"
	if err := os.WriteFile(customPath, []byte(custom), 0644); err != nil {
		t.Fatalf("failed to write custom profile: %v", err)
	}

	keyPath := generatePlainKey(t)
	encPath := filepath.Join(t.TempDir(), "enc.pem")

	output := runCryptoctl(t, "key", "encrypt", "--in", keyPath, "--out", encPath,
		"--passphrase", "secret", "--profile", "site", "--profile-dir", dir)
	assertOutputContains(t, output, "Iterations: 2500")
	assertOutputContains(t, output, "Profile:    site")

	info := runCryptoctl(t, "key", "inspect", encPath)
	assertOutputContains(t, info, "Iterations: 2500")
}
