package pkcs8

import (
	"fmt"

	"github.com/cinira-llc/crypto-go/internal/der"
)

// Contents is a flat projection of a DER document: every OBJECT
// IDENTIFIER, string-like value and INTEGER in depth-first encounter
// order. It backs key inspection, where the interesting fields of a bag
// are its algorithm OIDs, salt/IV/ciphertext and iteration count.
type Contents struct {
	OIDs    []string
	Strings [][]byte
	Numbers []int
}

// ParseContents projects a DER document rooted in a single SEQUENCE.
// OCTET STRING values are collected as-is; BIT STRING values are
// collected with the leading unused-bits count stripped. INTEGER values
// must fit an int. Tags outside those four are visited but not collected.
func ParseContents(data []byte) (*Contents, error) {
	root, err := der.Parse(data)
	if err != nil {
		return nil, err
	}
	if root.Tag != der.TagSequence {
		return nil, fmt.Errorf("%w: document root is not a SEQUENCE", der.ErrMalformed)
	}

	c := &Contents{}
	err = der.Walk(data, func(el der.Element) error {
		switch el.Tag {
		case der.TagOID:
			oid, err := parseOID(el.Value)
			if err != nil {
				return err
			}
			c.OIDs = append(c.OIDs, oid.String())
		case der.TagOctetString:
			c.Strings = append(c.Strings, el.Value)
		case der.TagBitString:
			if len(el.Value) == 0 {
				return fmt.Errorf("%w: empty BIT STRING", der.ErrMalformed)
			}
			c.Strings = append(c.Strings, el.Value[1:])
		case der.TagInteger:
			v, err := der.ParseInt(el.Value)
			if err != nil {
				return err
			}
			c.Numbers = append(c.Numbers, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
