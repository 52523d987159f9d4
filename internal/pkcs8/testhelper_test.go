package pkcs8

// Test helpers: a tiny DER assembler so tests can build bags with any
// algorithm combination, independent of both encoding/asn1 and the
// scanner under test.

// Raw OID value bytes used to assemble fixtures.
var (
	rawPBES2      = []byte{0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x05, 0x0d}
	rawPBKDF2     = []byte{0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x05, 0x0c}
	rawHMACSHA256 = []byte{0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x02, 0x09}
	rawHMACSHA1   = []byte{0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x02, 0x07}
	rawAES256CBC  = []byte{0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x01, 0x2a}
	rawAES128CBC  = []byte{0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x01, 0x02}
)

var (
	testSalt  = counterBytes(0x00, 16)
	testIV    = counterBytes(0x10, 16)
	testData  = counterBytes(0xd0, 32)
	iter65535 = []byte{0x02, 0x03, 0x00, 0xff, 0xff}
	nullDER   = []byte{0x05, 0x00}
)

func counterBytes(start byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = start + byte(i)
	}
	return b
}

// tlv prepends tag and DER length to value.
func tlv(tag byte, value []byte) []byte {
	b := []byte{tag}
	switch n := len(value); {
	case n < 0x80:
		b = append(b, byte(n))
	case n < 0x100:
		b = append(b, 0x81, byte(n))
	default:
		b = append(b, 0x82, byte(n>>8), byte(n))
	}
	return append(b, value...)
}

// seq wraps the concatenated parts in a SEQUENCE.
func seq(parts ...[]byte) []byte {
	var content []byte
	for _, p := range parts {
		content = append(content, p...)
	}
	return tlv(0x30, content)
}

// algID builds AlgorithmIdentifier ::= SEQUENCE { OID, params... }.
func algID(oid []byte, params ...[]byte) []byte {
	return seq(append([][]byte{tlv(0x06, oid)}, params...)...)
}

// stdBag assembles the reference bag: PBES2 over PBKDF2(testSalt, 65535,
// HMAC-SHA256) and AES-256-CBC(testIV), wrapping testData.
func stdBag() []byte {
	prf := algID(rawHMACSHA256, nullDER)
	kdf := algID(rawPBKDF2, seq(tlv(0x04, testSalt), iter65535, prf))
	scheme := algID(rawAES256CBC, tlv(0x04, testIV))
	alg := algID(rawPBES2, seq(kdf, scheme))
	return seq(alg, tlv(0x04, testData))
}
