package message

import "github.com/mimekit-go/mimecore/bstring"

// contentConverter is a stateful content-transfer-encoding (and optional
// charset) decoder. It is fed successive chunks via push and withholds
// whatever suffix isn't yet safe to decode (a partial base64 group, a
// trailing quoted-printable escape) until either more data arrives or the
// final flush (more=false) forces everything through.
type contentConverter struct {
	cte     string
	charset string
	pending []byte
}

func newContentConverter(cte, charset string) *contentConverter {
	return &contentConverter{cte: cte, charset: charset}
}

// push decodes as much of pending+data as is safe. more=true means the
// stream continues (a misaligned tail is held back); more=false is the final
// call and forces the entire remaining buffer through.
func (c *contentConverter) push(data []byte, more bool) []byte {
	buf := append(c.pending, data...)
	c.pending = nil

	var safe, rest []byte

	switch c.cte {
	case "base64":
		safe, rest = bstring.SplitBase64Safe(buf, !more)
	case "quoted-printable":
		safe, rest = bstring.SplitQuotedPrintableSafe(buf, !more)
	default:
		safe, rest = buf, nil
	}

	c.pending = rest

	decoded := safe

	if c.cte == "base64" || c.cte == "quoted-printable" {
		if out, err := bstring.DecodeTransferEncoding(safe, c.cte); err == nil {
			decoded = out
		}
	}

	if c.charset != "" {
		decoded = bstring.DecodeCharset(decoded, c.charset)
	}

	return decoded
}
