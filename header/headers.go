package header

import (
	"strings"
	"sync"

	"github.com/bradenaw/juniper/xslices"

	"github.com/mimekit-go/mimecore/mimeparam"
)

// Entry is one (preferred-spelling name, decoded value) pair, as yielded by
// StructuredHeaders iteration.
type Entry struct {
	Name  string
	Value interface{}
}

// StructuredHeaders is a lazy, cached view over one body part's raw header
// block. It is created once by the parser when end-of-headers is detected
// and is immutable except for Charset, which invalidates the decode cache
// when set.
type StructuredHeaders struct {
	block *RawBlock

	defaultContentType mimeparam.ContentType

	mu          sync.Mutex
	cache       map[string]interface{}
	charset     string
	contentType *mimeparam.ContentType
}

// New builds a StructuredHeaders over an already-split raw block.
// defaultContentType is used when no Content-Type header is present (e.g.
// text/plain, or message/rfc822 for children of a multipart/digest).
func New(block *RawBlock, defaultContentType mimeparam.ContentType) *StructuredHeaders {
	return &StructuredHeaders{
		block:               block,
		defaultContentType:  defaultContentType,
		cache:               make(map[string]interface{}),
	}
}

// Get returns the decoded structured value for name, decoding and caching it
// on first access. Headers with no registry entry decode to []string (one
// entry per raw occurrence, undecoded).
func (h *StructuredHeaders) Get(name string) (interface{}, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.getLocked(name)
}

func (h *StructuredHeaders) getLocked(name string) (interface{}, bool) {
	key := strings.ToLower(name)

	raw := h.block.Values(key)
	if len(raw) == 0 {
		return nil, false
	}

	if v, ok := h.cache[key]; ok {
		return v, true
	}

	v := h.decode(key, raw)
	h.cache[key] = v

	return v, true
}

func (h *StructuredHeaders) decode(key string, raw []string) interface{} {
	if e, ok := global.lookup(key); ok && e.decode != nil {
		if v, err := e.decode(raw); err == nil {
			return v
		}
	}

	return append([]string(nil), raw...)
}

// Has reports whether name occurred in the block at least once.
func (h *StructuredHeaders) Has(name string) bool {
	return len(h.block.Values(name)) > 0
}

// GetRawHeader returns every raw (undecoded) occurrence of name.
func (h *StructuredHeaders) GetRawHeader(name string) []string {
	return h.block.Values(name)
}

// Size returns the number of distinct header names present.
func (h *StructuredHeaders) Size() int {
	return len(h.block.Names())
}

// RawHeaderText returns the original header block bytes, with any mbox
// "From " envelope line removed.
func (h *StructuredHeaders) RawHeaderText() []byte {
	return h.block.Text
}

// Charset returns the currently configured fallback charset.
func (h *StructuredHeaders) Charset() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.charset
}

// SetCharset updates the fallback charset and clears the decode cache, since
// some decoders (e.g. unstructured text) are charset-sensitive.
func (h *StructuredHeaders) SetCharset(charset string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.charset = charset
	h.cache = make(map[string]interface{})
	h.contentType = nil
}

// ContentType returns the decoded Content-Type header, or the part's default
// when the header is absent.
func (h *StructuredHeaders) ContentType() mimeparam.ContentType {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.contentType != nil {
		return *h.contentType
	}

	var ct mimeparam.ContentType

	if v, ok := h.getLocked("content-type"); ok {
		if decoded, ok := v.(mimeparam.ContentType); ok {
			ct = decoded
		} else {
			ct = h.defaultContentType
		}
	} else {
		ct = h.defaultContentType
	}

	h.contentType = &ct

	return ct
}

// Iterate yields (preferred-spelling, decoded-value) pairs in the insertion
// order of the raw header names.
func (h *StructuredHeaders) Iterate() []Entry {
	return xslices.Map(h.block.Names(), func(name string) Entry {
		value, _ := h.Get(name)

		preferred := h.block.FirstSpelling(name)

		if e, ok := global.lookup(name); ok {
			preferred = e.preferred
		}

		return Entry{Name: preferred, Value: value}
	})
}
