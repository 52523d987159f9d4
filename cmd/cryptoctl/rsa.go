package main

import (
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cinira-llc/crypto-go/internal/audit"
	"github.com/cinira-llc/crypto-go/internal/envelope"
	"github.com/cinira-llc/crypto-go/internal/pemutil"
)

var rsaCmd = &cobra.Command{
	Use:   "rsa",
	Short: "RSA key transport commands",
	Long: `Commands for encrypting small payloads to an RSA recipient.

Encryption uses RSA-OAEP with SHA-256, so the payload is limited by the
recipient's key size (190 bytes for RSA-2048). Transport a symmetric key
this way and seal the bulk data in an envelope.

Examples:
  cryptoctl rsa encrypt --recipient their.pub --in datakey.bin --out datakey.enc
  cryptoctl rsa decrypt --key server.key --passphrase secret --in datakey.enc --out datakey.bin`,
}

var rsaEncryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a payload to a recipient's public key",
	Long: `Encrypt a small payload with RSA-OAEP-SHA256.

The recipient is identified by a PEM public key file, as produced by
"cryptoctl key pub".

Examples:
  cryptoctl rsa encrypt --recipient their.pub --in datakey.bin --out datakey.enc`,
	RunE: runRSAEncrypt,
}

var rsaDecryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt a payload with a private key",
	Long: `Decrypt an RSA-OAEP-SHA256 payload.

The private key may be encrypted; supply --passphrase to unwrap it.

Examples:
  cryptoctl rsa decrypt --key server.key --passphrase secret --in datakey.enc --out datakey.bin`,
	RunE: runRSADecrypt,
}

var (
	rsaEncryptRecipient string
	rsaEncryptIn        string
	rsaEncryptOut       string

	rsaDecryptKey        string
	rsaDecryptPassphrase string
	rsaDecryptIn         string
	rsaDecryptOut        string
)

func init() {
	rsaCmd.AddCommand(rsaEncryptCmd)
	rsaCmd.AddCommand(rsaDecryptCmd)

	// encrypt flags
	flags := rsaEncryptCmd.Flags()
	flags.StringVarP(&rsaEncryptRecipient, "recipient", "r", "", "Recipient public key PEM file (required)")
	flags.StringVarP(&rsaEncryptIn, "in", "i", "", "Input file (required)")
	flags.StringVarP(&rsaEncryptOut, "out", "o", "", "Output file (required)")
	_ = rsaEncryptCmd.MarkFlagRequired("recipient")
	_ = rsaEncryptCmd.MarkFlagRequired("in")
	_ = rsaEncryptCmd.MarkFlagRequired("out")

	// decrypt flags
	flags = rsaDecryptCmd.Flags()
	flags.StringVarP(&rsaDecryptKey, "key", "k", "", "Private key PEM file (required)")
	flags.StringVarP(&rsaDecryptPassphrase, "passphrase", "p", "", "Passphrase for encrypted key")
	flags.StringVarP(&rsaDecryptIn, "in", "i", "", "Input file (required)")
	flags.StringVarP(&rsaDecryptOut, "out", "o", "", "Output file (required)")
	_ = rsaDecryptCmd.MarkFlagRequired("key")
	_ = rsaDecryptCmd.MarkFlagRequired("in")
	_ = rsaDecryptCmd.MarkFlagRequired("out")
}

func runRSAEncrypt(cmd *cobra.Command, args []string) error {
	pub, fingerprint, err := loadRecipientKey(rsaEncryptRecipient)
	if err != nil {
		return err
	}

	msg, err := os.ReadFile(rsaEncryptIn)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if max := pub.Size() - 66; len(msg) > max {
		return fmt.Errorf("message is %d bytes; an RSA-%d key can carry at most %d (seal bulk data in an envelope instead)",
			len(msg), pub.N.BitLen(), max)
	}

	ciphertext, err := envelope.RSAEncrypt(pub, msg)
	if err != nil {
		return fmt.Errorf("failed to encrypt: %w", err)
	}
	if err := os.WriteFile(rsaEncryptOut, ciphertext, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	_ = audit.LogRSAEncrypted(rsaEncryptOut, fingerprint, true)

	fmt.Printf("Encrypted message saved to: %s\n", rsaEncryptOut)
	fmt.Printf("  Recipient: %s\n", fingerprint)

	return nil
}

func runRSADecrypt(cmd *cobra.Command, args []string) error {
	key, err := loadPrivateKey(rsaDecryptKey, []byte(rsaDecryptPassphrase))
	if err != nil {
		return err
	}

	ciphertext, err := os.ReadFile(rsaDecryptIn)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	plaintext, err := envelope.RSADecrypt(key, ciphertext)
	if err != nil {
		_ = audit.LogRSADecrypted(rsaDecryptIn, false, "decryption failed")
		return fmt.Errorf("failed to decrypt: %w", err)
	}

	if err := os.WriteFile(rsaDecryptOut, plaintext, 0600); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	_ = audit.LogRSADecrypted(rsaDecryptIn, true, "")

	fmt.Printf("Decrypted message saved to: %s\n", rsaDecryptOut)
	fmt.Printf("  Payload: %d bytes\n", len(plaintext))

	return nil
}

// loadRecipientKey reads a PEM public key file and returns the RSA key
// with its fingerprint.
func loadRecipientKey(path string) (*rsa.PublicKey, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read recipient key: %w", err)
	}
	section, err := pemutil.ExtractSection(data, "PUBLIC KEY")
	if err != nil {
		return nil, "", fmt.Errorf("no public key found in %s: %w", path, err)
	}
	der, err := section.Decode()
	if err != nil {
		return nil, "", fmt.Errorf("invalid PEM body: %w", err)
	}
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, "", fmt.Errorf("recipient key is %T, want RSA", pub)
	}
	return rsaPub, keyFingerprint(der), nil
}
