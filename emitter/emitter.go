package emitter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mimekit-go/mimecore/rfc2047"
)

const (
	minSoftMargin = 30
	maxSoftMargin = 900
	maxHardMargin = 998
)

// Emitter builds one logical header at a time, folding at preferred or
// emergency break points to stay within its margins, and streams committed
// lines to a Sink.
type Emitter struct {
	sink       Sink
	softMargin int
	hardMargin int
	useASCII   bool

	currentLine    []byte
	preferredBreak int // -1 when none recorded

	err error // first error from a header.Writer method (those return no error of their own)
}

// Err returns the first error recorded by a header.Writer-interface method
// (AddAddresses, AddUnstructured, AddDate, AddRaw). AddHeader clears it when
// it starts a new header.
func (e *Emitter) Err() error {
	return e.err
}

func (e *Emitter) fail(err error) {
	if err != nil && e.err == nil {
		e.err = err
	}
}

// Option configures an Emitter at construction time.
type Option interface {
	config(*Emitter)
}

type optionFunc func(*Emitter)

func (f optionFunc) config(e *Emitter) { f(e) }

func WithSoftMargin(n int) Option {
	return optionFunc(func(e *Emitter) { e.softMargin = clamp(n, minSoftMargin, maxSoftMargin) })
}

func WithHardMargin(n int) Option {
	return optionFunc(func(e *Emitter) { e.hardMargin = n })
}

func WithASCII(use bool) Option {
	return optionFunc(func(e *Emitter) { e.useASCII = use })
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}

	if n > hi {
		return hi
	}

	return n
}

// NewEmitter builds an Emitter writing to sink, applying opts over the
// (78, 332, true) defaults. The hard margin is clamped to [soft, 998] after
// every option has applied, so WithSoftMargin and WithHardMargin may be
// passed in either order.
func NewEmitter(sink Sink, opts ...Option) *Emitter {
	e := &Emitter{
		sink:           sink,
		softMargin:     78,
		hardMargin:     332,
		useASCII:       true,
		preferredBreak: -1,
	}

	for _, o := range opts {
		o.config(e)
	}

	e.hardMargin = clamp(e.hardMargin, e.softMargin, maxHardMargin)

	return e
}

// reserveSpace ensures n more bytes can be appended to the current line,
// folding at a preferred break, then an emergency break, as needed.
func (e *Emitter) reserveSpace(n int) error {
	if len(e.currentLine)+n <= e.softMargin {
		return nil
	}

	if e.preferredBreak >= 0 {
		e.commitLine(e.preferredBreak, true)

		if len(e.currentLine)+n <= e.softMargin {
			return nil
		}
	}

	if len(e.currentLine)+n <= e.hardMargin {
		return nil
	}

	e.commitLine(len(e.currentLine), true)

	if len(e.currentLine)+n <= e.hardMargin {
		return nil
	}

	return fmt.Errorf("emitter: token of length %d does not fit within hard margin %d", n, e.hardMargin)
}

// commitLine emits currentLine[:count] (or the whole line when hasCount is
// false, signalling end-of-header) and, for a fold, starts a new line from
// the remainder with a leading folding space.
func (e *Emitter) commitLine(count int, hasCount bool) {
	if !hasCount {
		e.sink.DeliverData(strings.TrimRight(string(e.currentLine), " \t") + "\r\n")
		e.currentLine = nil
		e.preferredBreak = -1

		return
	}

	head := e.currentLine[:count]
	tail := e.currentLine[count:]

	e.sink.DeliverData(strings.TrimRight(string(head), " \t") + "\r\n")

	rest := strings.TrimLeft(string(tail), " \t")
	e.currentLine = append([]byte(" "), rest...)
	e.preferredBreak = -1
}

// addText reserves space for text, appends it to the current line, and, if
// mayBreakAfter, records a preferred breakpoint right after it (inserting a
// trailing space if one isn't already there).
func (e *Emitter) addText(text string, mayBreakAfter bool) error {
	if err := e.reserveSpace(len(text)); err != nil {
		return err
	}

	e.currentLine = append(e.currentLine, text...)

	if mayBreakAfter {
		if len(e.currentLine) == 0 || e.currentLine[len(e.currentLine)-1] != ' ' {
			e.currentLine = append(e.currentLine, ' ')
		}

		e.preferredBreak = len(e.currentLine)
	}

	return nil
}

// finishHeader commits the current line as a complete header, ending with
// CRLF and no continuation.
func (e *Emitter) finishHeader() {
	e.commitLine(0, false)
}

func isAlreadyQuoted(text string) bool {
	return len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"'
}

func quoteString(text string) string {
	var b strings.Builder

	b.WriteByte('"')

	for i := 0; i < len(text); i++ {
		if c := text[i]; c == '\\' || c == '"' {
			b.WriteByte('\\')
		}

		b.WriteByte(text[i])
	}

	b.WriteByte('"')

	return b.String()
}

// addQuotable wraps text in double quotes (escaping '\' and '"') when it
// isn't already quoted and contains any byte from qchars, then adds it.
func (e *Emitter) addQuotable(text, qchars string, mayBreakAfter bool) error {
	if !isAlreadyQuoted(text) && strings.ContainsAny(text, qchars) {
		text = quoteString(text)
	}

	return e.addText(text, mayBreakAfter)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func bytesLastIndexByte(b []byte, c byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == c {
			return i
		}
	}

	return -1
}

func containsNonASCII(s string) bool {
	for _, r := range s {
		if r > 0x7E || r < 0x20 {
			return true
		}
	}

	return false
}

// addPhrase collapses whitespace runs to a single space, routes non-ASCII
// text through the RFC 2047 encoder when useASCII is set, and otherwise
// tries to add the whole phrase quoted; failing that (overflow), falls back
// to adding it word by word.
func (e *Emitter) addPhrase(text, qchars string, mayBreakAfter bool) error {
	collapsed := whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")

	if e.useASCII && containsNonASCII(collapsed) {
		return e.encodeRFC2047Phrase(collapsed, mayBreakAfter)
	}

	forcedQuotes := !isAlreadyQuoted(collapsed) && strings.ContainsAny(collapsed, qchars)

	if err := e.addQuotable(collapsed, qchars, mayBreakAfter); err == nil {
		if e.preferredBreak < 0 && !forcedQuotes {
			if i := bytesLastIndexByte(e.currentLine, ' '); i > 0 {
				e.preferredBreak = i + 1
			}
		}

		return nil
	}

	words := strings.Split(collapsed, " ")

	for i, w := range words {
		brk := true
		if i == len(words)-1 {
			brk = mayBreakAfter
		}

		if err := e.addQuotable(w, qchars, brk); err != nil {
			return err
		}
	}

	return nil
}

// AddUnstructured writes text as a phrase that is never quoted but is
// RFC 2047-encoded when it contains non-ASCII bytes.
func (e *Emitter) AddUnstructured(text string) {
	e.fail(e.addPhrase(text, "", false))
}

// AddRaw writes text to the current line verbatim, as a single atom with no
// further quoting or encoding.
func (e *Emitter) AddRaw(text string) {
	e.fail(e.addText(text, false))
}

// encodeRFC2047Phrase implements the budget-tracked encoded-word chunker:
// it walks text's UTF-8 bytes, tracking what base64 and quoted-printable
// encoding would cost so far, and once both would overflow the line's
// remaining budget, backs up to the nearest UTF-8 character boundary and
// emits the accumulated bytes as one encoded-word.
func (e *Emitter) encodeRFC2047Phrase(text string, mayBreakAfter bool) error {
	data := []byte(text)

	const prelude = "=?UTF-8?B?"

	minRemain := len(prelude) + 10

	i := 0

	for i < len(data) {
		if e.hardMargin-len(e.currentLine) < minRemain {
			e.commitLine(len(e.currentLine), true)
		}

		budget := e.hardMargin - len(e.currentLine) - len(prelude) - len("?=")
		if budget < 1 {
			budget = 1
		}

		start := i
		j := i
		b64Len, qpLen := 0, 0

		for j < len(data) {
			raw := j - start + 1
			b64Len = ((raw + 2) / 3) * 4

			b := data[j]

			switch {
			case b < 0x20 || b >= 0x7F || strings.IndexByte(`=?_()"`, b) >= 0:
				qpLen += 3
			default:
				qpLen++
			}

			if b64Len > budget && qpLen > budget {
				for j > start+1 && data[j]&0xC0 == 0x80 {
					j--
				}

				break
			}

			j++
		}

		if j == start {
			j = start + 1
		}

		chunk := data[start:j]

		if err := e.addText(rfc2047.EncodeWord(chunk), false); err != nil {
			return err
		}

		i = j

		if i < len(data) {
			e.commitLine(len(e.currentLine), true)
		}
	}

	if mayBreakAfter {
		e.currentLine = append(e.currentLine, ' ')
		e.preferredBreak = len(e.currentLine)
	}

	return nil
}
