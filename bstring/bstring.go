// Package bstring provides the octet-level utilities the rest of the MIME
// core builds on: content-transfer-encoding decode and charset lookup.
package bstring

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/quotedprintable"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// TransferDecoder wraps r with the decoder named by cte ("base64",
// "quoted-printable", "7bit"/"8bit"/"binary"/""), returning r unchanged for
// anything it doesn't recognize.
func TransferDecoder(r io.Reader, cte string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(cte)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// DecodeTransferEncoding decodes the whole of b under cte in one shot.
func DecodeTransferEncoding(b []byte, cte string) ([]byte, error) {
	out, err := io.ReadAll(TransferDecoder(bytes.NewReader(b), cte))
	if err != nil {
		return nil, fmt.Errorf("failed to decode content-transfer-encoding %q: %w", cte, err)
	}

	return out, nil
}

// CharsetDecoder resolves the named IANA/MIME charset to a decoder, trying
// the plain name, the "cs"-prefixed IANA alias, and finally the HTML
// standard's alias table. Returns nil if the charset is not recognized,
// rather than panicking: unlike a text/plain part being re-encoded for PGP,
// an unrecognized charset in a header value is attacker-controlled input the
// core must survive, not a programmer bug.
func CharsetDecoder(charset string) *encoding.Decoder {
	name := strings.ToLower(strings.TrimSpace(charset))
	if name == "" {
		return nil
	}

	if enc, err := ianaindex.MIME.Encoding(name); err == nil && enc != nil {
		return enc.NewDecoder()
	}

	if enc, err := ianaindex.MIME.Encoding("cs" + name); err == nil && enc != nil {
		return enc.NewDecoder()
	}

	if enc, err := htmlindex.Get(name); err == nil && enc != nil {
		return enc.NewDecoder()
	}

	return nil
}

// DecodeCharset decodes raw bytes carried under charset into UTF-8, falling
// back to returning the raw bytes unchanged when the charset is unrecognized
// or the byte sequence is invalid.
func DecodeCharset(raw []byte, charset string) []byte {
	dec := CharsetDecoder(charset)
	if dec == nil {
		return raw
	}

	out, err := dec.Bytes(raw)
	if err != nil {
		return raw
	}

	return out
}
