// Package pkcs8 reads and writes the PKCS#8 structures that carry
// encrypted RSA private keys. Based on RFC 5958 (PKCS#8) and RFC 8018
// (PKCS#5 v2.1, PBES2/PBKDF2).
package pkcs8

import (
	"encoding/asn1"
	"fmt"
	"math"

	"github.com/cinira-llc/crypto-go/internal/der"
)

// PKCS#5 v2 algorithm OIDs
var (
	// Key derivation and encryption scheme
	OIDPBKDF2 = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 12}
	OIDPBES2  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 13}

	// PRF (RFC 8018 appendix B.1.2)
	OIDHMACWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 9}

	// Encryption scheme (NIST aes arc)
	OIDAES256CBC = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 42}
)

// Key algorithm OIDs
var (
	OIDRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	OIDECPublicKey   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	OIDEd25519       = asn1.ObjectIdentifier{1, 3, 101, 112}
)

// AlgorithmName returns a display name for a known key algorithm OID, or
// the dotted form for anything else.
func AlgorithmName(oid asn1.ObjectIdentifier) string {
	switch {
	case oid.Equal(OIDRSAEncryption):
		return "RSA"
	case oid.Equal(OIDECPublicKey):
		return "ECDSA"
	case oid.Equal(OIDEd25519):
		return "Ed25519"
	default:
		return oid.String()
	}
}

// parseOID decodes the value bytes of an OBJECT IDENTIFIER element. The
// first subidentifier folds the first two arcs per X.690 8.19.
func parseOID(value []byte) (asn1.ObjectIdentifier, error) {
	if len(value) == 0 {
		return nil, fmt.Errorf("%w: empty OBJECT IDENTIFIER", der.ErrMalformed)
	}
	var oid asn1.ObjectIdentifier
	off := 0
	for off < len(value) {
		if value[off] == 0x80 {
			return nil, fmt.Errorf("%w: non-minimal OID subidentifier at offset %d", der.ErrMalformed, off)
		}
		v := 0
		for {
			if off == len(value) {
				return nil, fmt.Errorf("%w: unterminated OID subidentifier", der.ErrMalformed)
			}
			b := value[off]
			off++
			if v > math.MaxInt32>>7 {
				return nil, fmt.Errorf("%w: OID subidentifier overflow", der.ErrMalformed)
			}
			v = v<<7 | int(b&0x7f)
			if b&0x80 == 0 {
				break
			}
		}
		if len(oid) == 0 {
			switch {
			case v < 40:
				oid = append(oid, 0, v)
			case v < 80:
				oid = append(oid, 1, v-40)
			default:
				oid = append(oid, 2, v-80)
			}
		} else {
			oid = append(oid, v)
		}
	}
	return oid, nil
}
