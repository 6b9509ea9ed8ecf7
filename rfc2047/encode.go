package rfc2047

import (
	"encoding/base64"
	"strings"
)

// EncodeWord wraps text as a single "=?UTF-8?B?...?=" or "=?UTF-8?Q?...?="
// encoded-word, whichever transport encoding is shorter for this chunk.
// Callers (the header emitter) are responsible for splitting text into
// chunks that keep the resulting word inside a line's fold budget.
func EncodeWord(text []byte) string {
	b64 := base64.StdEncoding.EncodeToString(text)
	q := qEncode(text)

	if len(q) <= len(b64) {
		return "=?UTF-8?Q?" + q + "?="
	}

	return "=?UTF-8?B?" + b64 + "?="
}

// qEncode applies RFC 2047's Q-encoding: printable ASCII passes through
// except '=', '?', '_' and '"', which along with anything outside the
// printable ASCII range is hex-escaped; a literal space becomes '_'. This is
// distinct from RFC 2045 quoted-printable, which never rewrites space and
// uses different escaping rules, so it is not reusable from mime/quotedprintable.
func qEncode(b []byte) string {
	const hex = "0123456789ABCDEF"

	var out strings.Builder

	for _, c := range b {
		switch {
		case c == ' ':
			out.WriteByte('_')
		case c == '=' || c == '?' || c == '_' || c == '"' || c < 0x20 || c >= 0x7f:
			out.WriteByte('=')
			out.WriteByte(hex[c>>4])
			out.WriteByte(hex[c&0xf])
		default:
			out.WriteByte(c)
		}
	}

	return out.String()
}
