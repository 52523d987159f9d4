package envelope

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
)

// RSAEncrypt encrypts msg for pub with RSA-OAEP over SHA-256. The
// message must fit the key's OAEP limit; there is no chunking.
func RSAEncrypt(pub *rsa.PublicKey, msg []byte) ([]byte, error) {
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	return ciphertext, nil
}

// RSADecrypt decrypts an RSA-OAEP-SHA256 ciphertext with priv. Failures
// collapse to the bare ErrDecryptionFailed sentinel.
func RSADecrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	msg, err := rsa.DecryptOAEP(sha256.New(), nil, priv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return msg, nil
}
