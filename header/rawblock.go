// Package header implements the structured-headers data model (§3) and the
// process-wide decoder/encoder registry (§4.6) on top of the rfc5322/
// mimeparam decoders.
package header

import "strings"

// RawEntry is one raw header line as it appeared in the block, before any
// structured decoding.
type RawEntry struct {
	Name  string // lower-cased, trimmed
	Value string // trimmed
}

// RawBlock is the result of splitting a raw header block into individual
// name/value lines, preserving duplicate occurrences and first-seen order.
type RawBlock struct {
	Text    []byte // original bytes, mbox envelope line removed
	entries []RawEntry
	order   []string // lower-case names, first-seen order
	values  map[string][]string
	first   map[string]string // lower-case name -> first raw-cased spelling seen
}

// ParseHeaderBlock splits raw header bytes into logical lines (folded
// continuations are not split on), strips a leading mbox "From " envelope
// line if present, and partitions each line at its first ':'.
func ParseHeaderBlock(raw []byte, stripContinuations bool) *RawBlock {
	lines := splitHeaderLines(raw)

	text := raw

	if len(lines) > 0 && hasMboxEnvelope(lines[0]) {
		text = raw[len(lines[0]):]
		lines = lines[1:]
	}

	b := &RawBlock{
		Text:   text,
		values: make(map[string][]string),
		first:  make(map[string]string),
	}

	for _, line := range lines {
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}

		rawName := line[:colon]
		name := strings.ToLower(strings.TrimSpace(rawName))

		value := line[colon+1:]
		if stripContinuations {
			value = strings.NewReplacer("\r", "", "\n", "").Replace(value)
		}

		value = strings.TrimSpace(value)

		if _, seen := b.values[name]; !seen {
			b.order = append(b.order, name)
			b.first[name] = strings.TrimSpace(rawName)
		}

		b.values[name] = append(b.values[name], value)
		b.entries = append(b.entries, RawEntry{Name: name, Value: value})
	}

	return b
}

// Names returns header names (lower-cased) in first-seen order.
func (b *RawBlock) Names() []string {
	return append([]string(nil), b.order...)
}

// Values returns every raw occurrence of name (lower-case), in order.
func (b *RawBlock) Values(name string) []string {
	return b.values[strings.ToLower(name)]
}

// FirstSpelling returns the raw-cased spelling of name as first seen in the
// block, used as the fallback preferred spelling for headers the registry
// doesn't know about.
func (b *RawBlock) FirstSpelling(name string) string {
	return b.first[strings.ToLower(name)]
}

func hasMboxEnvelope(line string) bool {
	return strings.HasPrefix(line, "From ")
}

// splitHeaderLines splits on a line ending that is not immediately followed
// by a space or tab, since such an ending introduces a folded continuation
// of the same logical header rather than a new one. Each returned line
// excludes its own trailing line ending but, for a folded header, includes
// the internal CRLF(s)/leading whitespace of its continuation lines.
func splitHeaderLines(raw []byte) []string {
	s := string(raw)

	var lines []string

	lineStart := 0
	i := 0

	for i < len(s) {
		var endLen int

		switch {
		case s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n':
			endLen = 2
		case s[i] == '\r' || s[i] == '\n':
			endLen = 1
		default:
			i++
			continue
		}

		next := i + endLen

		if next < len(s) && (s[next] == ' ' || s[next] == '\t') {
			i = next
			continue
		}

		lines = append(lines, s[lineStart:i])
		lineStart = next
		i = next
	}

	if lineStart < len(s) {
		lines = append(lines, s[lineStart:])
	}

	return lines
}
