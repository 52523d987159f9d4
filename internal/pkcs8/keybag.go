package pkcs8

import (
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/cinira-llc/crypto-go/internal/der"
)

// ErrUnsupportedAlgorithm is returned when a structure is well-formed DER
// but names an algorithm outside the fixed PBES2/PBKDF2/HMAC-SHA256/
// AES-256-CBC set this package handles.
var ErrUnsupportedAlgorithm = errors.New("pkcs8: unsupported algorithm")

// EncryptedPrivateKeyInfo holds the PBES2 parameters and ciphertext of an
// encrypted PKCS#8 key. Salt, IV and Data alias the parsed input.
type EncryptedPrivateKeyInfo struct {
	Salt       []byte
	Iterations int
	IV         []byte
	Data       []byte
}

// PrivateKeyInfo is the decoded outer layer of an unencrypted PKCS#8 key.
// PrivateKey holds the algorithm-specific inner encoding, still in DER.
type PrivateKeyInfo struct {
	Version    int
	Algorithm  asn1.ObjectIdentifier
	PrivateKey []byte
}

// next reads the element at off in region and requires the given tag.
func next(region []byte, off int, want byte) (der.Element, int, error) {
	el, n, err := der.ReadElement(region, off)
	if err != nil {
		return der.Element{}, 0, err
	}
	if el.Tag != want {
		return der.Element{}, 0, fmt.Errorf("%w: tag 0x%02x at offset %d, want 0x%02x", der.ErrMalformed, el.Tag, off, want)
	}
	return el, n, nil
}

// done requires that a nested region was consumed exactly.
func done(region []byte, off int, what string) error {
	if off != len(region) {
		return fmt.Errorf("%w: %d trailing bytes in %s", der.ErrTruncated, len(region)-off, what)
	}
	return nil
}

// expectOID reads an OBJECT IDENTIFIER at off and requires it to equal want.
func expectOID(region []byte, off int, want asn1.ObjectIdentifier, name string) (int, error) {
	el, n, err := next(region, off, der.TagOID)
	if err != nil {
		return 0, err
	}
	oid, err := parseOID(el.Value)
	if err != nil {
		return 0, err
	}
	if !oid.Equal(want) {
		return 0, fmt.Errorf("%w: got %v, want %s (%v)", ErrUnsupportedAlgorithm, oid, name, want)
	}
	return n, nil
}

// ParseEncryptedPrivateKeyInfo decodes a DER EncryptedPrivateKeyInfo as
// produced by OpenSSL PBES2 key encryption:
//
//	EncryptedPrivateKeyInfo ::= SEQUENCE {
//	    encryptionAlgorithm  AlgorithmIdentifier,   -- PBES2
//	    encryptedData        OCTET STRING
//	}
//
// Only the PBKDF2 + HMAC-SHA256 + AES-256-CBC parameter set is accepted;
// anything else fails with ErrUnsupportedAlgorithm.
func ParseEncryptedPrivateKeyInfo(data []byte) (*EncryptedPrivateKeyInfo, error) {
	outer, err := der.Parse(data)
	if err != nil {
		return nil, err
	}
	if outer.Tag != der.TagSequence {
		return nil, fmt.Errorf("%w: EncryptedPrivateKeyInfo is not a SEQUENCE", der.ErrMalformed)
	}

	alg, off, err := next(outer.Value, 0, der.TagSequence)
	if err != nil {
		return nil, err
	}
	enc, off, err := next(outer.Value, off, der.TagOctetString)
	if err != nil {
		return nil, err
	}
	if err := done(outer.Value, off, "EncryptedPrivateKeyInfo"); err != nil {
		return nil, err
	}

	info, err := parsePBES2(alg.Value)
	if err != nil {
		return nil, err
	}
	info.Data = enc.Value
	return info, nil
}

// parsePBES2 decodes AlgorithmIdentifier{id-PBES2, PBES2-params}.
func parsePBES2(region []byte) (*EncryptedPrivateKeyInfo, error) {
	off, err := expectOID(region, 0, OIDPBES2, "PBES2")
	if err != nil {
		return nil, err
	}
	params, off, err := next(region, off, der.TagSequence)
	if err != nil {
		return nil, err
	}
	if err := done(region, off, "PBES2 AlgorithmIdentifier"); err != nil {
		return nil, err
	}

	// PBES2-params ::= SEQUENCE { keyDerivationFunc, encryptionScheme }
	kdf, poff, err := next(params.Value, 0, der.TagSequence)
	if err != nil {
		return nil, err
	}
	scheme, poff, err := next(params.Value, poff, der.TagSequence)
	if err != nil {
		return nil, err
	}
	if err := done(params.Value, poff, "PBES2-params"); err != nil {
		return nil, err
	}

	info := &EncryptedPrivateKeyInfo{}
	if info.Salt, info.Iterations, err = parsePBKDF2(kdf.Value); err != nil {
		return nil, err
	}
	if info.IV, err = parseScheme(scheme.Value); err != nil {
		return nil, err
	}
	return info, nil
}

// parsePBKDF2 decodes AlgorithmIdentifier{id-PBKDF2, PBKDF2-params} and
// returns the salt and iteration count. The prf field is optional on the
// wire but its default is HMAC-SHA1, so an absent prf is rejected as
// unsupported rather than silently deriving with the wrong hash.
func parsePBKDF2(region []byte) ([]byte, int, error) {
	off, err := expectOID(region, 0, OIDPBKDF2, "PBKDF2")
	if err != nil {
		return nil, 0, err
	}
	params, off, err := next(region, off, der.TagSequence)
	if err != nil {
		return nil, 0, err
	}
	if err := done(region, off, "PBKDF2 AlgorithmIdentifier"); err != nil {
		return nil, 0, err
	}

	// PBKDF2-params ::= SEQUENCE { salt OCTET STRING, iterationCount INTEGER, prf AlgorithmIdentifier }
	salt, poff, err := next(params.Value, 0, der.TagOctetString)
	if err != nil {
		return nil, 0, err
	}
	iter, poff, err := next(params.Value, poff, der.TagInteger)
	if err != nil {
		return nil, 0, err
	}
	iterations, err := der.ParseInt(iter.Value)
	if err != nil {
		return nil, 0, err
	}
	if iterations < 1 {
		return nil, 0, fmt.Errorf("%w: iteration count %d", der.ErrMalformed, iterations)
	}
	if poff == len(params.Value) {
		return nil, 0, fmt.Errorf("%w: PBKDF2 prf absent (defaults to HMAC-SHA1)", ErrUnsupportedAlgorithm)
	}
	prf, poff, err := next(params.Value, poff, der.TagSequence)
	if err != nil {
		return nil, 0, err
	}
	if err := done(params.Value, poff, "PBKDF2-params"); err != nil {
		return nil, 0, err
	}
	if err := parsePRF(prf.Value); err != nil {
		return nil, 0, err
	}
	return salt.Value, iterations, nil
}

// parsePRF decodes AlgorithmIdentifier{id-hmacWithSHA256, NULL?}. OpenSSL
// emits the NULL parameters; both present and absent are accepted.
func parsePRF(region []byte) error {
	off, err := expectOID(region, 0, OIDHMACWithSHA256, "HMAC-SHA256")
	if err != nil {
		return err
	}
	if off == len(region) {
		return nil
	}
	null, off, err := next(region, off, der.TagNull)
	if err != nil {
		return err
	}
	if len(null.Value) != 0 {
		return fmt.Errorf("%w: NULL with %d content bytes", der.ErrMalformed, len(null.Value))
	}
	return done(region, off, "prf AlgorithmIdentifier")
}

// parseScheme decodes AlgorithmIdentifier{id-aes256-CBC, iv OCTET STRING}
// and returns the IV.
func parseScheme(region []byte) ([]byte, error) {
	off, err := expectOID(region, 0, OIDAES256CBC, "AES-256-CBC")
	if err != nil {
		return nil, err
	}
	iv, off, err := next(region, off, der.TagOctetString)
	if err != nil {
		return nil, err
	}
	if err := done(region, off, "encryptionScheme"); err != nil {
		return nil, err
	}
	return iv.Value, nil
}

// ParsePrivateKeyInfo decodes the outer layer of an unencrypted PKCS#8
// PrivateKeyInfo:
//
//	PrivateKeyInfo ::= SEQUENCE {
//	    version             INTEGER,
//	    privateKeyAlgorithm AlgorithmIdentifier,
//	    privateKey          OCTET STRING
//	}
//
// The algorithm parameters are skipped; callers decide which algorithms
// they accept by inspecting Algorithm.
func ParsePrivateKeyInfo(data []byte) (*PrivateKeyInfo, error) {
	outer, err := der.Parse(data)
	if err != nil {
		return nil, err
	}
	if outer.Tag != der.TagSequence {
		return nil, fmt.Errorf("%w: PrivateKeyInfo is not a SEQUENCE", der.ErrMalformed)
	}

	ver, off, err := next(outer.Value, 0, der.TagInteger)
	if err != nil {
		return nil, err
	}
	version, err := der.ParseInt(ver.Value)
	if err != nil {
		return nil, err
	}
	alg, off, err := next(outer.Value, off, der.TagSequence)
	if err != nil {
		return nil, err
	}
	key, off, err := next(outer.Value, off, der.TagOctetString)
	if err != nil {
		return nil, err
	}
	if err := done(outer.Value, off, "PrivateKeyInfo"); err != nil {
		return nil, err
	}

	oidEl, aoff, err := next(alg.Value, 0, der.TagOID)
	if err != nil {
		return nil, err
	}
	oid, err := parseOID(oidEl.Value)
	if err != nil {
		return nil, err
	}
	if aoff != len(alg.Value) {
		if _, aoff, err = der.ReadElement(alg.Value, aoff); err != nil {
			return nil, err
		}
		if err := done(alg.Value, aoff, "privateKeyAlgorithm"); err != nil {
			return nil, err
		}
	}

	return &PrivateKeyInfo{Version: version, Algorithm: oid, PrivateKey: key.Value}, nil
}
