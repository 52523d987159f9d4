package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cinira-llc/crypto-go/internal/audit"
	"github.com/cinira-llc/crypto-go/internal/envelope"
)

var envelopeCmd = &cobra.Command{
	Use:   "envelope",
	Short: "Symmetric envelope encryption commands",
	Long: `Commands for sealing payloads under a password or a raw AES key.

A password envelope is salt(16) || IV(16) || ciphertext, with the key
derived by PBKDF2-HMAC-SHA256 at 65535 iterations. A raw-key envelope
is IV(16) || ciphertext.

Examples:
  # Seal and open under a password
  cryptoctl envelope seal --in config.json --out config.enc --password secret
  cryptoctl envelope open --in config.enc --out config.json --password secret

  # Seal under a raw 32-byte key
  cryptoctl envelope seal --in data.bin --out data.enc --key $(cryptoctl envelope derive --passphrase secret | cut -d= -f2)`,
}

var envelopeSealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Encrypt a payload",
	Long: `Seal a payload under a password or a raw AES key.

By default the salt and IV are random, so sealing the same payload
twice yields different envelopes. With --deterministic both are derived
from SHA-256 of the password and the output is repeatable; use it only
where envelopes must be comparable, such as content-addressed storage.

Examples:
  cryptoctl envelope seal --in config.json --out config.enc --password secret
  cryptoctl envelope seal --in config.json --out config.enc --password secret --deterministic
  cryptoctl envelope seal --in data.bin --out data.enc --key <64 hex chars>`,
	RunE: runEnvelopeSeal,
}

var envelopeOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Decrypt an envelope",
	Long: `Open an envelope sealed with "envelope seal".

The mode must match the seal: --password for password envelopes,
--key for raw-key envelopes.

Examples:
  cryptoctl envelope open --in config.enc --out config.json --password secret
  cryptoctl envelope open --in data.enc --out data.bin --key <64 hex chars>`,
	RunE: runEnvelopeOpen,
}

var envelopeDeriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive the AES key for a passphrase",
	Long: `Derive the 32-byte AES key a passphrase maps to, printed as hex.

With no --salt the salt defaults to the first 16 bytes of
SHA-256(passphrase), making the derivation repeatable from the
passphrase alone. An explicit salt must be 16 bytes of hex.

The derived key is printed to stdout. Handle it like any other key.

Examples:
  cryptoctl envelope derive --passphrase secret
  cryptoctl envelope derive --passphrase secret --salt 000102030405060708090a0b0c0d0e0f`,
	RunE: runEnvelopeDerive,
}

var (
	envelopeSealIn            string
	envelopeSealOut           string
	envelopeSealPassword      string
	envelopeSealKeyHex        string
	envelopeSealDeterministic bool

	envelopeOpenIn       string
	envelopeOpenOut      string
	envelopeOpenPassword string
	envelopeOpenKeyHex   string

	envelopeDerivePassphrase string
	envelopeDeriveSalt       string
)

func init() {
	envelopeCmd.AddCommand(envelopeSealCmd)
	envelopeCmd.AddCommand(envelopeOpenCmd)
	envelopeCmd.AddCommand(envelopeDeriveCmd)

	// seal flags
	flags := envelopeSealCmd.Flags()
	flags.StringVarP(&envelopeSealIn, "in", "i", "", "Input file (required)")
	flags.StringVarP(&envelopeSealOut, "out", "o", "", "Output file (required)")
	flags.StringVarP(&envelopeSealPassword, "password", "p", "", "Password (prompted if no --key either)")
	flags.StringVarP(&envelopeSealKeyHex, "key", "k", "", "Raw 32-byte AES key in hex")
	flags.BoolVar(&envelopeSealDeterministic, "deterministic", false, "Derive salt and IV from the password")
	_ = envelopeSealCmd.MarkFlagRequired("in")
	_ = envelopeSealCmd.MarkFlagRequired("out")

	// open flags
	flags = envelopeOpenCmd.Flags()
	flags.StringVarP(&envelopeOpenIn, "in", "i", "", "Input envelope file (required)")
	flags.StringVarP(&envelopeOpenOut, "out", "o", "", "Output file (required)")
	flags.StringVarP(&envelopeOpenPassword, "password", "p", "", "Password (prompted if no --key either)")
	flags.StringVarP(&envelopeOpenKeyHex, "key", "k", "", "Raw 32-byte AES key in hex")
	_ = envelopeOpenCmd.MarkFlagRequired("in")
	_ = envelopeOpenCmd.MarkFlagRequired("out")

	// derive flags
	envelopeDeriveCmd.Flags().StringVarP(&envelopeDerivePassphrase, "passphrase", "p", "", "Passphrase (prompted if not set)")
	envelopeDeriveCmd.Flags().StringVar(&envelopeDeriveSalt, "salt", "", "Explicit 16-byte salt in hex")
}

func runEnvelopeSeal(cmd *cobra.Command, args []string) error {
	if envelopeSealPassword != "" && envelopeSealKeyHex != "" {
		return fmt.Errorf("--password and --key are mutually exclusive")
	}
	if envelopeSealDeterministic && envelopeSealKeyHex != "" {
		return fmt.Errorf("--deterministic requires --password")
	}

	plaintext, err := os.ReadFile(envelopeSealIn)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var sealed []byte
	if envelopeSealKeyHex != "" {
		key, err := decodeHexKey(envelopeSealKeyHex)
		if err != nil {
			return err
		}
		if sealed, err = envelope.AESEncrypt(key, plaintext); err != nil {
			return fmt.Errorf("failed to seal envelope: %w", err)
		}
	} else {
		password, err := resolvePassphrase(envelopeSealPassword, "Enter password")
		if err != nil {
			return err
		}
		var salt, iv []byte
		if envelopeSealDeterministic {
			if salt, iv, err = envelope.SaltAndIV(password, nil, nil); err != nil {
				return fmt.Errorf("failed to derive salt and IV: %w", err)
			}
		}
		if sealed, err = envelope.AESPasswordEncrypt(password, plaintext, salt, iv); err != nil {
			return fmt.Errorf("failed to seal envelope: %w", err)
		}
	}

	if err := os.WriteFile(envelopeSealOut, sealed, 0644); err != nil {
		return fmt.Errorf("failed to write envelope: %w", err)
	}

	_ = audit.LogEnvelopeSealed(envelopeSealOut, envelopeSealDeterministic, true)

	fmt.Printf("Envelope saved to: %s\n", envelopeSealOut)
	fmt.Printf("  Payload: %d bytes\n", len(plaintext))
	if envelopeSealDeterministic {
		fmt.Println("  Mode:    deterministic (salt and IV derived from password)")
	}

	return nil
}

func runEnvelopeOpen(cmd *cobra.Command, args []string) error {
	if envelopeOpenPassword != "" && envelopeOpenKeyHex != "" {
		return fmt.Errorf("--password and --key are mutually exclusive")
	}

	data, err := os.ReadFile(envelopeOpenIn)
	if err != nil {
		return fmt.Errorf("failed to read envelope: %w", err)
	}

	var plaintext []byte
	if envelopeOpenKeyHex != "" {
		key, err := decodeHexKey(envelopeOpenKeyHex)
		if err != nil {
			return err
		}
		if plaintext, err = envelope.AESDecrypt(key, data); err != nil {
			_ = audit.LogEnvelopeOpened(envelopeOpenIn, false, "invalid key or corrupt envelope")
			return fmt.Errorf("failed to open envelope: %w", err)
		}
	} else {
		password, err := resolvePassphrase(envelopeOpenPassword, "Enter password")
		if err != nil {
			return err
		}
		if plaintext, err = envelope.AESPasswordDecrypt(password, data); err != nil {
			_ = audit.LogEnvelopeOpened(envelopeOpenIn, false, "invalid password or corrupt envelope")
			return fmt.Errorf("failed to open envelope: %w", err)
		}
	}

	if err := os.WriteFile(envelopeOpenOut, plaintext, 0600); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	_ = audit.LogEnvelopeOpened(envelopeOpenIn, true, "")

	fmt.Printf("Envelope opened to: %s\n", envelopeOpenOut)
	fmt.Printf("  Payload: %d bytes\n", len(plaintext))

	return nil
}

func runEnvelopeDerive(cmd *cobra.Command, args []string) error {
	passphrase, err := resolvePassphrase(envelopeDerivePassphrase, "Enter passphrase")
	if err != nil {
		return err
	}

	var salt []byte
	if envelopeDeriveSalt != "" {
		if salt, err = hex.DecodeString(envelopeDeriveSalt); err != nil {
			return fmt.Errorf("invalid hex salt: %w", err)
		}
	}

	key, err := envelope.GenerateAESKey(passphrase, salt)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}

	fmt.Printf("key=%s\n", hex.EncodeToString(key))

	return nil
}

// decodeHexKey decodes a hex-encoded 32-byte AES key.
func decodeHexKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex key: %w", err)
	}
	if len(key) != envelope.KeySize {
		return nil, fmt.Errorf("key is %d bytes, want %d", len(key), envelope.KeySize)
	}
	return key, nil
}
