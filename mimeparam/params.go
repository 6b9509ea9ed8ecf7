// Package mimeparam decodes parameterized header values such as
// Content-Type and Content-Disposition, including RFC 2231 parameter
// continuations and charset extensions.
package mimeparam

import (
	"strconv"
	"strings"

	"github.com/bradenaw/juniper/xslices"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/mimekit-go/mimecore/bstring"
	"github.com/mimekit-go/mimecore/rfc5322"
)

// Params is a case-insensitive ordered view over decoded parameter names and
// values; PreSemi carries the token preceding the first ';' (for
// Content-Type, the "type/subtype" text before decomposition).
type Params struct {
	PreSemi string
	values  map[string]string
	order   []string
}

func newParams() *Params {
	return &Params{values: make(map[string]string)}
}

// Get returns the value for name (case-insensitive) and whether it is set.
func (p *Params) Get(name string) (string, bool) {
	v, ok := p.values[strings.ToLower(name)]
	return v, ok
}

// Names returns parameter names in the order they were first assigned; a
// later override of a name keeps its original position.
func (p *Params) Names() []string {
	return slices.Clone(p.order)
}

func (p *Params) set(name, value string) {
	key := strings.ToLower(name)
	if _, exists := p.values[key]; !exists {
		p.order = append(p.order, key)
	}

	p.values[key] = value
}

// Decode parses a parameterized header value per RFC 2045/2231.
// allowRFC2047 controls whether the tokenizer eagerly decodes encoded-words
// inside parameter values (Content-Type leaves this off; most other
// parameterized headers leave it on).
func Decode(value []byte, allowRFC2231, allowRFC2047 bool) (*Params, error) {
	params := newParams()

	semi := indexByte(value, ';')

	pre := value
	rest := []byte(nil)

	if semi >= 0 {
		pre = value[:semi]
		rest = value[semi+1:]
	}

	params.PreSemi = firstRun(strings.TrimSpace(string(pre)))

	tokens, err := rfc5322.Tokenize(rest, ";=", rfc5322.Options{
		QString: true,
		RFC2047: allowRFC2047,
	})
	if err != nil {
		return nil, err
	}

	pairs := scanPairs(tokens)

	assemble(params, pairs, allowRFC2231)

	return params, nil
}

type rawPair struct {
	name  string
	value string
}

// scanPairs walks the token stream collecting NAME = VALUE fragments
// terminated by ';'. A fragment that doesn't fit that shape (missing '=', or
// stray tokens after the value) is dropped and the scanner resyncs at the
// next ';'.
func scanPairs(tokens []rfc5322.Token) []rawPair {
	var pairs []rawPair

	idx := 0

	skipToSemi := func(i int) int {
		for i < len(tokens) && !tokens[i].IsDelimiter(';') {
			i++
		}

		return i
	}

	for idx < len(tokens) {
		if tokens[idx].IsDelimiter(';') {
			idx++
			continue
		}

		nameTok := tokens[idx]
		if nameTok.Kind != rfc5322.TokenAtom {
			idx = skipToSemi(idx)
			continue
		}

		idx++

		if idx >= len(tokens) || !tokens[idx].IsDelimiter('=') {
			idx = skipToSemi(idx)
			continue
		}

		idx++

		if idx >= len(tokens) || tokens[idx].IsDelimiter(';') {
			pairs = append(pairs, rawPair{name: nameTok.Text, value: ""})

			if idx < len(tokens) {
				idx++
			}

			continue
		}

		valTok := tokens[idx]
		if valTok.Kind == rfc5322.TokenDelimiter {
			idx = skipToSemi(idx)
			continue
		}

		idx++

		if idx < len(tokens) && !tokens[idx].IsDelimiter(';') {
			idx = skipToSemi(idx)
			continue
		}

		pairs = append(pairs, rawPair{name: nameTok.Text, value: valTok.Text})

		if idx < len(tokens) {
			idx++
		}
	}

	return pairs
}

type contSeg struct {
	value string
	star  bool
}

// assemble classifies each raw pair (plain / charset-extended single-value /
// continuation segment), applies RFC 2231 percent-decoding where the name
// says to, and writes results into params in the priority order the spec
// requires: plain values first, then assembled continuations, then
// single-segment charset-extended values, each layer overriding the last.
func assemble(params *Params, pairs []rawPair, allowRFC2231 bool) {
	type plainEntry struct{ name, value string }

	var plain []plainEntry

	extendedSingle := map[string]string{}

	continuations := map[string]map[int]contSeg{}

	for _, pr := range pairs {
		value := pr.value

		star := strings.HasSuffix(pr.name, "*")
		if allowRFC2231 && star {
			if decoded, ok := percentDecode(value); ok {
				value = decoded
			}
		}

		base, n, isContinuation, hasNumber := classify(pr.name)

		switch {
		case !allowRFC2231 || !hasNumber && !star:
			plain = append(plain, plainEntry{name: pr.name, value: pr.value})

		case !isContinuation && star:
			extendedSingle[base] = value

		case isContinuation:
			if continuations[base] == nil {
				continuations[base] = map[int]contSeg{}
			}

			if _, dup := continuations[base][n]; dup {
				continuations[base][-1] = contSeg{} // mark the whole entry invalid
			} else {
				continuations[base][n] = contSeg{value: value, star: star}
			}
		}
	}

	for _, e := range plain {
		params.set(e.name, e.value)
	}

	// Map iteration order is random; sort bases so two decodes of the same
	// header value always assign parameters in the same order.
	contBases := maps.Keys(continuations)
	slices.Sort(contBases)

	for _, base := range contBases {
		assembled, ok := assembleContinuation(continuations[base])
		if ok {
			params.set(base, assembled)
		}
	}

	extBases := maps.Keys(extendedSingle)
	slices.Sort(extBases)

	for _, base := range extBases {
		value := extendedSingle[base]

		charset, rest := splitCharsetLanguage(value)

		decoded := bstring.DecodeCharset([]byte(rest), charset)
		if charset != "" && bstring.CharsetDecoder(charset) == nil {
			continue // unknown charset: drop the parameter
		}

		params.set(base, string(decoded))
	}
}

// classify splits a parameter name into its base and, if it names a
// continuation segment ("base*N" or "base*N*"), the segment index.
func classify(name string) (base string, n int, isContinuation, hasNumber bool) {
	star := strings.IndexByte(name, '*')
	if star < 0 {
		return name, 0, false, false
	}

	prefix, rest := name[:star], name[star+1:]

	rest = strings.TrimSuffix(rest, "*")
	if rest == "" {
		return prefix, 0, false, false
	}

	if rest != "0" && (strings.HasPrefix(rest, "0") || !isAllDigits(rest)) {
		return name, 0, false, false
	}

	num, err := strconv.Atoi(rest)
	if err != nil {
		return name, 0, false, false
	}

	return prefix, num, true, true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

func assembleContinuation(segs map[int]contSeg) (string, bool) {
	if _, invalid := segs[-1]; invalid {
		return "", false
	}

	if _, ok := segs[0]; !ok {
		return "", false
	}

	indices := maps.Keys(segs)

	slices.Sort(indices)

	for i, n := range indices {
		if n != i {
			return "", false
		}
	}

	var b strings.Builder

	charsetStripped := false
	charset := ""

	for i, n := range indices {
		seg := segs[n]
		value := seg.value

		if i == 0 && seg.star {
			var rest string
			charset, rest = splitCharsetLanguage(value)
			value = rest
			charsetStripped = true
		}

		b.WriteString(value)
	}

	assembled := b.String()

	if charsetStripped {
		if charset != "" && bstring.CharsetDecoder(charset) == nil {
			return "", false
		}

		assembled = string(bstring.DecodeCharset([]byte(assembled), charset))
	}

	return assembled, true
}

// splitCharsetLanguage parses the "charset'language'" prefix RFC 2231 adds to
// an extended parameter value, returning the charset name and the remaining
// bytes. If there's no such prefix, charset is "".
func splitCharsetLanguage(value string) (charset, rest string) {
	first := strings.IndexByte(value, '\'')
	if first < 0 {
		return "", value
	}

	second := strings.IndexByte(value[first+1:], '\'')
	if second < 0 {
		return "", value
	}

	second += first + 1

	return value[:first], value[second+1:]
}

func percentDecode(s string) (string, bool) {
	var b strings.Builder

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}

		if i+2 >= len(s) {
			b.WriteByte(c)
			continue
		}

		hi, ok1 := hexVal(s[i+1])
		lo, ok2 := hexVal(s[i+2])

		if !ok1 || !ok2 {
			b.WriteByte(c)
			continue
		}

		b.WriteByte(hi<<4 | lo)
		i += 2
	}

	return b.String(), true
}

func hexVal(c byte) (byte, bool) {
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

func indexByte(b []byte, c byte) int {
	return xslices.IndexFunc(b, func(v byte) bool { return v == c })
}

func firstRun(s string) string {
	s = strings.TrimSpace(s)

	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' {
			return s[:i]
		}
	}

	return s
}
