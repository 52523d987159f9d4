package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cinira-llc/crypto-go/internal/audit"
	"github.com/cinira-llc/crypto-go/internal/pemutil"
	"github.com/cinira-llc/crypto-go/internal/pkcs8"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Key management commands",
	Long:  `Commands for generating, wrapping, and inspecting RSA private keys.`,
}

var keyGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate an RSA key pair",
	Long: `Generate a new RSA private key.

With --passphrase the key is saved as a PBES2-encrypted PKCS#8 document
(ENCRYPTED PRIVATE KEY); without it the key is saved unencrypted.

Supported key sizes: 2048, 3072, 4096.

Examples:
  # Generate an encrypted 3072-bit key
  cryptoctl key gen --bits 3072 --out server.key --passphrase secret

  # Use the PBKDF2 cost of a named profile
  cryptoctl key gen --out server.key --passphrase secret --profile modern`,
	RunE: runKeyGen,
}

var keyPubCmd = &cobra.Command{
	Use:   "pub",
	Short: "Extract public key from private key",
	Long: `Extract the public key from a private key file.

The output is a PEM-encoded public key that can be shared freely and
used as an encryption recipient (see "cryptoctl rsa encrypt").

Examples:
  # Extract from an encrypted key
  cryptoctl key pub --key server.key --passphrase secret --out server.pub`,
	RunE: runKeyPub,
}

var keyEncryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Wrap a private key under a passphrase",
	Long: `Encrypt a private key as a PBES2 PKCS#8 document
(PBKDF2-HMAC-SHA256 + AES-256-CBC), compatible with "openssl pkcs8".

The input may be unencrypted PKCS#8 (PRIVATE KEY), PKCS#1
(RSA PRIVATE KEY), or an already-encrypted key being rewrapped; supply
--current-passphrase for the latter.

The PBKDF2 cost comes from --profile or --iterations (mutually
exclusive). With neither, the interop default of 65535 is used.

Examples:
  cryptoctl key encrypt --in plain.key --out server.key --passphrase secret
  cryptoctl key encrypt --in plain.key --out server.key --passphrase secret --profile modern
  cryptoctl key encrypt --in old.key --current-passphrase old --passphrase new --out new.key`,
	RunE: runKeyEncrypt,
}

var keyDecryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Recover a private key from its encrypted form",
	Long: `Decrypt a PBES2-encrypted PKCS#8 private key.

The decrypted key is written with mode 0600. Output format is PKCS#8
(default) or PKCS#1 via --format.

Examples:
  cryptoctl key decrypt --in server.key --passphrase secret --out plain.key
  cryptoctl key decrypt --in server.key --out plain.key --format pkcs1`,
	RunE: runKeyDecrypt,
}

var keyInspectCmd = &cobra.Command{
	Use:   "inspect <keyfile>",
	Short: "Show the encryption parameters of a key file",
	Long: `Display the parameters of a private key file without decrypting it.

For encrypted keys this shows the PBES2 parameters (KDF, iteration
count, salt, IV). No passphrase is needed and no secret is printed.

Examples:
  cryptoctl key inspect server.key
  cryptoctl key inspect server.key --raw`,
	Args: cobra.ExactArgs(1),
	RunE: runKeyInspect,
}

var (
	keyGenBits       int
	keyGenOut        string
	keyGenPassphrase string
	keyGenProfile    string
	keyGenProfileDir string

	keyPubKey        string
	keyPubOut        string
	keyPubPassphrase string

	keyEncryptIn          string
	keyEncryptOut         string
	keyEncryptPassphrase  string
	keyEncryptCurrentPass string
	keyEncryptProfile     string
	keyEncryptProfileDir  string
	keyEncryptIterations  int

	keyDecryptIn         string
	keyDecryptOut        string
	keyDecryptPassphrase string
	keyDecryptFormat     string

	keyInspectRaw bool
)

func init() {
	keyCmd.AddCommand(keyGenCmd)
	keyCmd.AddCommand(keyPubCmd)
	keyCmd.AddCommand(keyEncryptCmd)
	keyCmd.AddCommand(keyDecryptCmd)
	keyCmd.AddCommand(keyInspectCmd)

	// gen flags
	flags := keyGenCmd.Flags()
	flags.IntVarP(&keyGenBits, "bits", "b", 2048, "RSA key size (2048, 3072, or 4096)")
	flags.StringVarP(&keyGenOut, "out", "o", "", "Output file (required)")
	flags.StringVarP(&keyGenPassphrase, "passphrase", "p", "", "Passphrase for encryption")
	flags.StringVar(&keyGenProfile, "profile", "", "Encryption profile (requires --passphrase)")
	flags.StringVar(&keyGenProfileDir, "profile-dir", "", "Directory with custom profiles")
	_ = keyGenCmd.MarkFlagRequired("out")

	// pub flags
	keyPubCmd.Flags().StringVarP(&keyPubKey, "key", "k", "", "Input private key file (required)")
	keyPubCmd.Flags().StringVarP(&keyPubOut, "out", "o", "", "Output public key file (required)")
	keyPubCmd.Flags().StringVar(&keyPubPassphrase, "passphrase", "", "Passphrase for encrypted key")
	_ = keyPubCmd.MarkFlagRequired("key")
	_ = keyPubCmd.MarkFlagRequired("out")

	// encrypt flags
	flags = keyEncryptCmd.Flags()
	flags.StringVarP(&keyEncryptIn, "in", "i", "", "Input private key file (required)")
	flags.StringVarP(&keyEncryptOut, "out", "o", "", "Output file (required)")
	flags.StringVarP(&keyEncryptPassphrase, "passphrase", "p", "", "New passphrase (prompted if not set)")
	flags.StringVar(&keyEncryptCurrentPass, "current-passphrase", "", "Passphrase of an already-encrypted input")
	flags.StringVar(&keyEncryptProfile, "profile", "", "Encryption profile")
	flags.StringVar(&keyEncryptProfileDir, "profile-dir", "", "Directory with custom profiles")
	flags.IntVar(&keyEncryptIterations, "iterations", 0, "Explicit PBKDF2 iteration count")
	_ = keyEncryptCmd.MarkFlagRequired("in")
	_ = keyEncryptCmd.MarkFlagRequired("out")

	// decrypt flags
	flags = keyDecryptCmd.Flags()
	flags.StringVarP(&keyDecryptIn, "in", "i", "", "Input encrypted key file (required)")
	flags.StringVarP(&keyDecryptOut, "out", "o", "", "Output file (required)")
	flags.StringVarP(&keyDecryptPassphrase, "passphrase", "p", "", "Key passphrase (prompted if not set)")
	flags.StringVar(&keyDecryptFormat, "format", "pkcs8", "Output format: pkcs8, pkcs1")
	_ = keyDecryptCmd.MarkFlagRequired("in")
	_ = keyDecryptCmd.MarkFlagRequired("out")

	// inspect flags
	keyInspectCmd.Flags().BoolVar(&keyInspectRaw, "raw", false, "Also list the flattened DER fields")
}

func runKeyGen(cmd *cobra.Command, args []string) error {
	switch keyGenBits {
	case 2048, 3072, 4096:
	default:
		return fmt.Errorf("unsupported key size %d (use 2048, 3072, or 4096)", keyGenBits)
	}
	if keyGenProfile != "" && keyGenPassphrase == "" {
		return fmt.Errorf("--profile requires --passphrase")
	}

	fmt.Printf("Generating %d-bit RSA key pair...\n", keyGenBits)

	key, err := rsa.GenerateKey(rand.Reader, keyGenBits)
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}

	if keyGenPassphrase == "" {
		if err := writePlainKey(key, keyGenOut, "pkcs8"); err != nil {
			return err
		}
	} else {
		_, iterations, err := resolveWrapCost(keyGenProfile, keyGenProfileDir, 0)
		if err != nil {
			return err
		}
		if err := writeEncryptedKey(key, []byte(keyGenPassphrase), iterations, keyGenOut); err != nil {
			return err
		}
	}

	_ = audit.LogKeyGenerated(keyGenOut, keyGenBits, true)

	fmt.Printf("Private key saved to: %s\n", keyGenOut)
	if keyGenPassphrase == "" {
		fmt.Println("WARNING: Private key is not encrypted.")
	} else {
		fmt.Println("Private key is encrypted with passphrase.")
	}

	return nil
}

func runKeyPub(cmd *cobra.Command, args []string) error {
	key, err := loadPrivateKey(keyPubKey, []byte(keyPubPassphrase))
	if err != nil {
		return err
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to marshal public key: %w", err)
	}
	if err := writePEM(keyPubOut, "PUBLIC KEY", pubDER, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	fmt.Printf("Public key extracted to: %s\n", keyPubOut)
	fmt.Printf("Fingerprint: %s\n", keyFingerprint(pubDER))

	return nil
}

func runKeyEncrypt(cmd *cobra.Command, args []string) error {
	profileName, iterations, err := resolveWrapCost(keyEncryptProfile, keyEncryptProfileDir, keyEncryptIterations)
	if err != nil {
		return err
	}
	passphrase, err := resolvePassphrase(keyEncryptPassphrase, "Enter new passphrase")
	if err != nil {
		return err
	}

	key, err := loadPrivateKey(keyEncryptIn, []byte(keyEncryptCurrentPass))
	if err != nil {
		return err
	}

	if err := writeEncryptedKey(key, passphrase, iterations, keyEncryptOut); err != nil {
		return err
	}

	_ = audit.LogKeyEncrypted(keyEncryptOut, profileName, iterations, true)

	fmt.Printf("Encrypted key saved to: %s\n", keyEncryptOut)
	fmt.Printf("  Iterations: %d\n", iterations)
	if profileName != "" {
		fmt.Printf("  Profile:    %s\n", profileName)
	}

	return nil
}

func runKeyDecrypt(cmd *cobra.Command, args []string) error {
	passphrase, err := resolvePassphrase(keyDecryptPassphrase, "Enter passphrase")
	if err != nil {
		return err
	}

	key, err := loadPrivateKey(keyDecryptIn, passphrase)
	if err != nil {
		return err
	}

	if err := writePlainKey(key, keyDecryptOut, keyDecryptFormat); err != nil {
		return err
	}

	// Plaintext key material left the process; that must not go unaudited.
	if err := audit.MustLog(audit.NewEvent(audit.EventKeyDecrypted, audit.ResultSuccess).
		WithObject(audit.Object{Type: "key", Path: keyDecryptIn})); err != nil {
		return err
	}

	fmt.Printf("Decrypted key saved to: %s\n", keyDecryptOut)
	fmt.Println("WARNING: Private key is not encrypted.")

	return nil
}

func runKeyInspect(cmd *cobra.Command, args []string) error {
	keyFile := args[0]

	data, err := os.ReadFile(keyFile)
	if err != nil {
		return fmt.Errorf("failed to read key file: %w", err)
	}
	section, err := pemutil.ExtractSection(data, "PRIVATE KEY")
	if err != nil {
		return fmt.Errorf("no private key found in %s: %w", keyFile, err)
	}
	body, err := section.Decode()
	if err != nil {
		return fmt.Errorf("invalid PEM body: %w", err)
	}

	fmt.Printf("File:       %s\n", keyFile)
	fmt.Printf("Format:     %s\n", section.Header)

	var algorithm string
	switch section.Header {
	case "ENCRYPTED PRIVATE KEY":
		algorithm = "PBES2"
		err = printEncryptedKeyInfo(body)
	case "PRIVATE KEY":
		algorithm, err = printPlainKeyInfo(body)
	case "RSA PRIVATE KEY":
		algorithm = "RSA"
		fmt.Println("Encrypted:  No")
		fmt.Println("Algorithm:  RSA (PKCS#1)")
	default:
		err = fmt.Errorf("unrecognized key format %q", section.Header)
	}
	if err != nil {
		_ = audit.LogKeyInspected(keyFile, algorithm, false)
		return err
	}

	// The flat field listing is only meaningful for PKCS#8 documents;
	// PKCS#1 bodies are all oversized integers.
	if keyInspectRaw && section.Header != "RSA PRIVATE KEY" {
		fmt.Println()
		if err := printRawFields(body); err != nil {
			_ = audit.LogKeyInspected(keyFile, algorithm, false)
			return err
		}
	}

	_ = audit.LogKeyInspected(keyFile, algorithm, true)

	return nil
}

func printEncryptedKeyInfo(body []byte) error {
	info, err := pkcs8.ParseEncryptedPrivateKeyInfo(body)
	if err != nil {
		return fmt.Errorf("failed to parse encrypted key: %w", err)
	}

	fmt.Println("Encrypted:  Yes")
	fmt.Println()
	fmt.Println("PBES2 parameters:")
	fmt.Printf("  KDF:        PBKDF2-HMAC-SHA256\n")
	fmt.Printf("  Iterations: %d\n", info.Iterations)
	fmt.Printf("  Salt:       %s\n", hex.EncodeToString(info.Salt))
	fmt.Printf("  Cipher:     AES-256-CBC\n")
	fmt.Printf("  IV:         %s\n", hex.EncodeToString(info.IV))
	fmt.Printf("  Payload:    %d bytes\n", len(info.Data))

	return nil
}

func printPlainKeyInfo(body []byte) (string, error) {
	info, err := pkcs8.ParsePrivateKeyInfo(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse key: %w", err)
	}

	name := pkcs8.AlgorithmName(info.Algorithm)
	fmt.Println("Encrypted:  No")
	fmt.Printf("Algorithm:  %s\n", name)
	fmt.Printf("Version:    %d\n", info.Version)

	return name, nil
}

// printRawFields lists the flattened DER fields of a PKCS#8 document:
// every OID, string-like value, and integer in encounter order. String
// values are shown by length only.
func printRawFields(body []byte) error {
	contents, err := pkcs8.ParseContents(body)
	if err != nil {
		return fmt.Errorf("failed to walk DER structure: %w", err)
	}

	fmt.Println("Raw DER fields:")
	fmt.Printf("  OIDs:    %s\n", strings.Join(contents.OIDs, ", "))
	fmt.Printf("  Numbers: %v\n", contents.Numbers)
	for i, s := range contents.Strings {
		fmt.Printf("  String %d: %d bytes\n", i, len(s))
	}

	return nil
}
