// Command cryptoctl is the CLI tool for the crypto-go key protection toolkit.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cinira-llc/crypto-go/internal/audit"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var auditLogPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cryptoctl",
	Short: "OpenSSL-compatible key protection toolkit",
	Long: `cryptoctl protects RSA private keys and small payloads using
OpenSSL-compatible formats.

Private keys are wrapped as PBES2-encrypted PKCS#8 (PBKDF2-HMAC-SHA256 +
AES-256-CBC), so keys produced here open with "openssl pkcs8" and vice
versa. Arbitrary payloads are sealed in password-based AES envelopes or
encrypted to a recipient's RSA key with OAEP.

Key-wrapping cost comes from named profiles (see "cryptoctl profile list").
Every key operation can be recorded to a tamper-evident audit log.

Examples:
  # Generate an RSA key wrapped under a passphrase
  cryptoctl key gen --bits 3072 --out server.key --passphrase secret

  # Decrypt an OpenSSL-encrypted key
  cryptoctl key decrypt --in server.key --passphrase secret --out plain.key

  # Seal a payload under a password
  cryptoctl envelope seal --in config.json --out config.enc --password secret

  # Encrypt a data key to a recipient
  cryptoctl rsa encrypt --recipient their.pub --in datakey.bin --out datakey.enc`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Check for audit log path from environment if not set via flag
		if auditLogPath == "" {
			auditLogPath = os.Getenv("CRYPTO_AUDIT_LOG")
		}

		// Initialize audit logging
		if auditLogPath != "" {
			if err := audit.InitFile(auditLogPath); err != nil {
				return fmt.Errorf("failed to initialize audit log: %w", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		// Close audit log
		return audit.Close()
	},
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"Path to audit log file (or set CRYPTO_AUDIT_LOG env var)")

	// Namespace commands
	rootCmd.AddCommand(keyCmd)      // cryptoctl key ...
	rootCmd.AddCommand(envelopeCmd) // cryptoctl envelope ...
	rootCmd.AddCommand(rsaCmd)      // cryptoctl rsa ...
	rootCmd.AddCommand(profileCmd)  // cryptoctl profile ...
	rootCmd.AddCommand(auditCmd)
}
