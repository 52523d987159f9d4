package pkcs8

import "encoding/asn1"

// Marshalling goes through encoding/asn1; the hand-rolled scanner is only
// needed on the read side, where strictness matters.

type prfAlgorithm struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.RawValue
}

type pbkdf2Params struct {
	Salt       []byte
	Iterations int
	PRF        prfAlgorithm
}

type keyDerivationFunc struct {
	Algorithm asn1.ObjectIdentifier
	Params    pbkdf2Params
}

type encryptionScheme struct {
	Algorithm asn1.ObjectIdentifier
	IV        []byte
}

type pbes2Params struct {
	KDF    keyDerivationFunc
	Scheme encryptionScheme
}

type pbes2Algorithm struct {
	Algorithm asn1.ObjectIdentifier
	Params    pbes2Params
}

type encryptedPrivateKeyInfo struct {
	Algorithm pbes2Algorithm
	Data      []byte
}

// MarshalEncryptedPrivateKeyInfo encodes an EncryptedPrivateKeyInfo with
// the PBKDF2 + HMAC-SHA256 + AES-256-CBC parameter set, matching what
// `openssl pkcs8 -topk8 -v2 aes-256-cbc -v2prf hmacWithSHA256` emits.
func MarshalEncryptedPrivateKeyInfo(salt []byte, iterations int, iv, encrypted []byte) ([]byte, error) {
	return asn1.Marshal(encryptedPrivateKeyInfo{
		Algorithm: pbes2Algorithm{
			Algorithm: OIDPBES2,
			Params: pbes2Params{
				KDF: keyDerivationFunc{
					Algorithm: OIDPBKDF2,
					Params: pbkdf2Params{
						Salt:       salt,
						Iterations: iterations,
						PRF: prfAlgorithm{
							Algorithm:  OIDHMACWithSHA256,
							Parameters: asn1.NullRawValue,
						},
					},
				},
				Scheme: encryptionScheme{
					Algorithm: OIDAES256CBC,
					IV:        iv,
				},
			},
		},
		Data: encrypted,
	})
}
