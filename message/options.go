// Package message implements the streaming MIME body parser: a push-based
// four-state machine that turns raw message octets into a tree of
// structured-header parts, honoring nested multipart/*, embedded
// message/rfc822, and content-transfer-encoding decoding.
package message

import "github.com/mimekit-go/mimecore/header"

// State is one of the parser's four states.
type State int

const (
	StateParsingHeaders State = iota
	StateBlackHole
	StateEmitter
	StateSubparser
)

func (s State) String() string {
	switch s {
	case StateParsingHeaders:
		return "PARSING_HEADERS"
	case StateBlackHole:
		return "SEND_TO_BLACK_HOLE"
	case StateEmitter:
		return "SEND_TO_EMITTER"
	case StateSubparser:
		return "SEND_TO_SUBPARSER"
	default:
		return "UNKNOWN"
	}
}

// BodyFormat controls how (and whether) leaf-part body bytes are delivered.
type BodyFormat int

const (
	BodyFormatNoDecode BodyFormat = iota
	BodyFormatNone
	BodyFormatRaw
	BodyFormatDecode
)

// StrFormat controls how body data is prepared before delivery. With
// StrFormatUnicode, text/* parts are decoded to UTF-8 through the resolved
// charset; the other values deliver the bytes unchanged. DeliverPartData
// always receives a []byte.
type StrFormat int

const (
	StrFormatBinaryString StrFormat = iota
	StrFormatUnicode
	StrFormatTypedArray
)

// Consumer is the set of callbacks the parser drives. Every field is
// optional; a nil field is simply never called.
type Consumer struct {
	StartMessage    func()
	EndMessage      func()
	StartPart       func(partNum string, headers *header.StructuredHeaders)
	EndPart         func(partNum string)
	DeliverPartData func(partNum string, data []byte)
}

type config struct {
	pruneAt            string
	bodyFormat         BodyFormat
	strFormat          StrFormat
	charset            string
	forceCharset       bool
	stripContinuations bool
	onError            func(error)
}

func defaultConfig() config {
	return config{
		bodyFormat:         BodyFormatNoDecode,
		strFormat:          StrFormatBinaryString,
		stripContinuations: true,
	}
}

// Option configures a Parser at construction time.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

func WithPruneAt(partNum string) Option {
	return optionFunc(func(c *config) { c.pruneAt = partNum })
}

func WithBodyFormat(f BodyFormat) Option {
	return optionFunc(func(c *config) { c.bodyFormat = f })
}

func WithStrFormat(f StrFormat) Option {
	return optionFunc(func(c *config) { c.strFormat = f })
}

func WithCharset(charset string) Option {
	return optionFunc(func(c *config) { c.charset = charset })
}

func WithForceCharset(force bool) Option {
	return optionFunc(func(c *config) { c.forceCharset = force })
}

func WithStripContinuations(strip bool) Option {
	return optionFunc(func(c *config) { c.stripContinuations = strip })
}

func WithOnError(fn func(error)) Option {
	return optionFunc(func(c *config) { c.onError = fn })
}
