package bstring

// SplitBase64Safe returns the longest prefix of buf that is safe to decode
// as base64 right now: whitespace is not counted against alignment, and the
// prefix ends on a 4-character group boundary of the base64 alphabet. The
// remainder should be held and prepended to the next chunk. At end of input
// (final=true) the whole buffer is considered safe, since a trailing
// misaligned tail at that point is malformed input, not a chunk boundary.
func SplitBase64Safe(buf []byte, final bool) (safe, rest []byte) {
	if final {
		return buf, nil
	}

	usable := 0

	for _, c := range buf {
		if isBase64Alphabet(c) {
			usable++
		}
	}

	groups := usable / 4
	if groups == 0 {
		return nil, buf
	}

	want := groups * 4

	seen := 0

	for i, c := range buf {
		if isBase64Alphabet(c) {
			seen++
		}

		if seen == want {
			return buf[:i+1], buf[i+1:]
		}
	}

	return buf, nil
}

func isBase64Alphabet(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '+' || c == '/' || c == '='
}

// SplitQuotedPrintableSafe returns the longest prefix of buf safe to decode
// as quoted-printable right now, holding back a trailing '=' that might be
// the start of a hex escape or a soft line break split across chunks.
func SplitQuotedPrintableSafe(buf []byte, final bool) (safe, rest []byte) {
	if final {
		return buf, nil
	}

	for i := len(buf) - 1; i >= 0 && i >= len(buf)-3; i-- {
		if buf[i] == '=' {
			return buf[:i], buf[i:]
		}
	}

	return buf, nil
}
