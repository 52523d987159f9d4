package der

// Walk performs a strict depth-first traversal of the elements in buf,
// calling fn for each element in encounter order. SEQUENCE and SET values
// are recursed into; all other tags are visited but not descended.
// Traversal stops at the first error, either from the scanner or from fn.
func Walk(buf []byte, fn func(Element) error) error {
	off := 0
	for off < len(buf) {
		el, next, err := ReadElement(buf, off)
		if err != nil {
			return err
		}
		if err := fn(el); err != nil {
			return err
		}
		if el.Tag == TagSequence || el.Tag == TagSet {
			if err := Walk(el.Value, fn); err != nil {
				return err
			}
		}
		off = next
	}
	return nil
}
