package envelope

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
)

// testKey returns a throwaway RSA key. 2048 bits keeps enough OAEP room
// for 32-byte payloads while staying fast in unit tests.
func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating RSA key: %v", err)
	}
	return key
}
