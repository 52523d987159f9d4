package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// encryptCBC applies PKCS#7 padding and encrypts with AES-CBC.
func encryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	// PKCS#7 padding
	padLen := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := make([]byte, len(plaintext)+padLen)
	copy(padded, plaintext)
	for i := len(plaintext); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// decryptCBC decrypts AES-CBC and strips PKCS#7 padding. Padding
// failures return the bare ErrDecryptionFailed sentinel: a wrong key and
// a corrupt payload must produce the same error.
func decryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("%w: iv is %d bytes, want %d", ErrInvalidParameter, len(iv), aes.BlockSize)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a multiple of the block size", ErrDecryptionFailed)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	// Remove PKCS#7 padding; a zero pad byte is invalid.
	padLen := int(plaintext[len(plaintext)-1])
	if padLen == 0 || padLen > aes.BlockSize {
		return nil, ErrDecryptionFailed
	}
	for _, b := range plaintext[len(plaintext)-padLen:] {
		if int(b) != padLen {
			return nil, ErrDecryptionFailed
		}
	}
	return plaintext[:len(plaintext)-padLen], nil
}

// randomOrExact returns b if it is exactly size bytes, fresh random bytes
// if b is nil, and ErrInvalidParameter otherwise.
func randomOrExact(b []byte, size int, name string) ([]byte, error) {
	switch {
	case b == nil:
		b = make([]byte, size)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
		}
	case len(b) != size:
		return nil, fmt.Errorf("%w: %s is %d bytes, want %d", ErrInvalidParameter, name, len(b), size)
	}
	return b, nil
}

// AESEncrypt encrypts plaintext under a 32-byte key with AES-256-CBC and
// a fresh random IV. Output layout: IV(16) || ciphertext.
func AESEncrypt(key, plaintext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key is %d bytes, want %d", ErrInvalidParameter, len(key), KeySize)
	}
	iv, err := randomOrExact(nil, IVSize, "iv")
	if err != nil {
		return nil, err
	}
	ciphertext, err := encryptCBC(key, iv, plaintext)
	if err != nil {
		return nil, err
	}
	return append(iv, ciphertext...), nil
}

// AESDecrypt opens an IV(16) || ciphertext envelope produced by AESEncrypt.
func AESDecrypt(key, data []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key is %d bytes, want %d", ErrInvalidParameter, len(key), KeySize)
	}
	if len(data) < IVSize+aes.BlockSize {
		return nil, fmt.Errorf("%w: envelope is %d bytes, want at least %d", ErrInvalidParameter, len(data), IVSize+aes.BlockSize)
	}
	return decryptCBC(key, data[:IVSize], data[IVSize:])
}

// AESPasswordEncrypt seals plaintext under a password with a key derived
// at DefaultIterations. Nil salt and iv default to fresh random bytes;
// pass SaltAndIV results instead for a deterministic envelope. Output
// layout: salt(16) || IV(16) || ciphertext.
func AESPasswordEncrypt(password, plaintext, salt, iv []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, NewOpError("seal", fmt.Errorf("%w: empty password", ErrInvalidParameter))
	}
	var err error
	if salt, err = randomOrExact(salt, SaltSize, "salt"); err != nil {
		return nil, NewOpError("seal", err)
	}
	if iv, err = randomOrExact(iv, IVSize, "iv"); err != nil {
		return nil, NewOpError("seal", err)
	}

	ciphertext, err := encryptCBC(deriveKey(password, salt, DefaultIterations), iv, plaintext)
	if err != nil {
		return nil, NewOpError("seal", err)
	}

	out := make([]byte, 0, SaltSize+IVSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, ciphertext...)
	return out, nil
}

// AESPasswordDecrypt opens a salt(16) || IV(16) || ciphertext envelope
// produced by AESPasswordEncrypt.
func AESPasswordDecrypt(password, data []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, NewOpError("open", fmt.Errorf("%w: empty password", ErrInvalidParameter))
	}
	if len(data) < SaltSize+IVSize+aes.BlockSize {
		return nil, NewOpError("open", fmt.Errorf("%w: envelope is %d bytes, want at least %d", ErrInvalidParameter, len(data), SaltSize+IVSize+aes.BlockSize))
	}

	salt, iv, ciphertext := data[:SaltSize], data[SaltSize:SaltSize+IVSize], data[SaltSize+IVSize:]
	plaintext, err := decryptCBC(deriveKey(password, salt, DefaultIterations), iv, ciphertext)
	if err != nil {
		return nil, NewOpError("open", err)
	}
	return plaintext, nil
}
