// Package rfc2047 implements the encoded-word decoder and encoder used for
// non-ASCII header text (RFC 2047).
package rfc2047

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/mimekit-go/mimecore/bstring"
)

var wordRe = regexp.MustCompile(`=\?[^?]*\?[BbQq]\?[^?]*\?=`)

// DecodeWords scans text for one or more RFC 2047 encoded-words and decodes
// them in place, leaving everything else untouched. Adjacent encoded-words
// separated only by whitespace that share a charset are decoded through the
// same charset decoder call so a multi-byte character split across the
// transport-encoding boundary of two words still decodes correctly; the
// whitespace between such words is itself discarded, per RFC 2047's folding
// rule that inter-word whitespace is not part of the display text.
func DecodeWords(text string) string {
	matches := wordRe.FindAllStringIndex(text, -1)
	if matches == nil {
		return text
	}

	var out strings.Builder

	var runCharset string

	var runRaw []byte

	flush := func() {
		if len(runRaw) == 0 {
			return
		}

		out.Write(bstring.DecodeCharset(runRaw, runCharset))
		runRaw = nil
		runCharset = ""
	}

	last := 0

	for _, m := range matches {
		start, end := m[0], m[1]

		gap := text[last:start]
		if strings.TrimSpace(gap) != "" {
			flush()
			out.WriteString(gap)
		}

		word := text[start:end]

		charset, raw, ok := decodeWord(word)
		if !ok {
			flush()
			out.WriteString(word)
			last = end

			continue
		}

		if !strings.EqualFold(charset, runCharset) {
			flush()
			runCharset = charset
		}

		runRaw = append(runRaw, raw...)
		last = end
	}

	flush()
	out.WriteString(text[last:])

	return out.String()
}

// decodeWord splits "=?charset?enc?text?=" and applies the transport
// decoding (base64 or Q-encoding), returning the still charset-encoded raw
// bytes. It never applies the charset decode itself, so callers can buffer
// adjacent same-charset words before decoding.
func decodeWord(word string) (charset string, raw []byte, ok bool) {
	inner := word[2 : len(word)-2]

	parts := strings.SplitN(inner, "?", 3)
	if len(parts) != 3 {
		return "", nil, false
	}

	charset = parts[0]
	if i := strings.IndexByte(charset, '*'); i >= 0 {
		charset = charset[:i]
	}

	enc := parts[1]
	payload := parts[2]

	switch strings.ToUpper(enc) {
	case "B":
		raw, ok = decodeB64(payload)
	case "Q":
		raw, ok = decodeQ(payload)
	default:
		return "", nil, false
	}

	if !ok {
		return "", nil, false
	}

	return charset, raw, true
}

func decodeB64(payload string) ([]byte, bool) {
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '+' || c == '/' || c == '=') {
			return nil, false
		}
	}

	// Decoding via the unpadded alphabet after stripping any trailing '='
	// tolerates both correctly padded input and a stray extra '=' left by a
	// naively re-padded encoder.
	out, err := base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(payload, "="))
	if err != nil {
		return nil, false
	}

	return out, true
}

func decodeQ(payload string) ([]byte, bool) {
	out := make([]byte, 0, len(payload))

	for i := 0; i < len(payload); i++ {
		switch c := payload[i]; c {
		case '_':
			out = append(out, ' ')
		case '=':
			if i+2 >= len(payload) {
				return nil, false
			}

			hi, ok1 := hexDigit(payload[i+1])
			lo, ok2 := hexDigit(payload[i+2])

			if !ok1 || !ok2 {
				return nil, false
			}

			out = append(out, hi<<4|lo)
			i += 2
		default:
			out = append(out, c)
		}
	}

	return out, true
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
