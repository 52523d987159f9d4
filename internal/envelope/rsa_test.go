package envelope

import (
	"bytes"
	"errors"
	"testing"
)

func TestU_RSAEncryptDecrypt_RoundTrip(t *testing.T) {
	key := testKey(t)
	msg := []byte("session key material")

	ciphertext, err := RSAEncrypt(&key.PublicKey, msg)
	if err != nil {
		t.Fatalf("RSAEncrypt() error = %v", err)
	}
	if len(ciphertext) != key.Size() {
		t.Errorf("len(ciphertext) = %d, want %d", len(ciphertext), key.Size())
	}

	got, err := RSADecrypt(key, ciphertext)
	if err != nil {
		t.Fatalf("RSADecrypt() error = %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Errorf("round trip = %q, want %q", got, msg)
	}
}

func TestU_RSADecrypt_WrongKey(t *testing.T) {
	key := testKey(t)
	other := testKey(t)

	ciphertext, err := RSAEncrypt(&key.PublicKey, []byte("secret"))
	if err != nil {
		t.Fatalf("RSAEncrypt() error = %v", err)
	}
	if _, err := RSADecrypt(other, ciphertext); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("RSADecrypt() error = %v, want ErrDecryptionFailed", err)
	}
}

func TestU_RSAEncrypt_OversizeMessage(t *testing.T) {
	key := testKey(t)

	// OAEP-SHA256 limit for a 2048-bit key is 256-2*32-2 = 190 bytes.
	msg := bytes.Repeat([]byte{0x01}, 191)
	if _, err := RSAEncrypt(&key.PublicKey, msg); !errors.Is(err, ErrEncryptionFailed) {
		t.Errorf("RSAEncrypt() error = %v, want ErrEncryptionFailed", err)
	}
}

// TestU_RSAKeyTransport seals a derived AES key for a recipient and opens
// the payload on the other side.
func TestU_RSAKeyTransport(t *testing.T) {
	recipient := testKey(t)
	payload := []byte("bulk payload, symmetrically encrypted")

	aesKey, err := GenerateAESKey([]byte("sender passphrase"), nil)
	if err != nil {
		t.Fatalf("GenerateAESKey() error = %v", err)
	}
	env, err := AESEncrypt(aesKey, payload)
	if err != nil {
		t.Fatalf("AESEncrypt() error = %v", err)
	}
	wrappedKey, err := RSAEncrypt(&recipient.PublicKey, aesKey)
	if err != nil {
		t.Fatalf("RSAEncrypt() error = %v", err)
	}

	// Recipient side.
	unwrapped, err := RSADecrypt(recipient, wrappedKey)
	if err != nil {
		t.Fatalf("RSADecrypt() error = %v", err)
	}
	got, err := AESDecrypt(unwrapped, env)
	if err != nil {
		t.Fatalf("AESDecrypt() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("round trip = %q, want %q", got, payload)
	}
}
