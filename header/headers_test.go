package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimekit-go/mimecore/mimeparam"
)

func textPlainDefault() mimeparam.ContentType {
	ct, _ := mimeparam.DecodeContentType([]byte("text/plain"))
	return ct
}

func TestStructuredHeadersGetAndCache(t *testing.T) {
	block := ParseHeaderBlock([]byte("Subject: hello\r\nFrom: a@x\r\n\r\n"), false)
	h := New(block, textPlainDefault())

	v, ok := h.Get("subject")
	require.True(t, ok)
	assert.Equal(t, []string{"hello"}, v)

	v2, ok := h.Get("Subject")
	require.True(t, ok)
	assert.Equal(t, v, v2)
}

func TestStructuredHeadersMissingHeader(t *testing.T) {
	block := ParseHeaderBlock([]byte("Subject: hello\r\n\r\n"), false)
	h := New(block, textPlainDefault())

	_, ok := h.Get("X-Missing")
	assert.False(t, ok)
	assert.False(t, h.Has("X-Missing"))
}

func TestStructuredHeadersUnregisteredDecodesToStrings(t *testing.T) {
	block := ParseHeaderBlock([]byte("X-Trace: one\r\nX-Trace: two\r\n\r\n"), false)
	h := New(block, textPlainDefault())

	v, ok := h.Get("X-Trace")
	require.True(t, ok)
	assert.Equal(t, []string{"one", "two"}, v)
}

func TestStructuredHeadersContentTypeDefault(t *testing.T) {
	block := ParseHeaderBlock([]byte("Subject: hello\r\n\r\n"), false)
	h := New(block, textPlainDefault())

	ct := h.ContentType()
	assert.Equal(t, "text/plain", ct.Type)
}

func TestStructuredHeadersSetCharsetInvalidatesCache(t *testing.T) {
	block := ParseHeaderBlock([]byte("Subject: hello\r\n\r\n"), false)
	h := New(block, textPlainDefault())

	_, _ = h.Get("Subject")
	_ = h.ContentType()

	h.SetCharset("iso-8859-1")
	assert.Equal(t, "iso-8859-1", h.Charset())
	assert.Empty(t, h.cache)
}

func TestRawBlockFoldedContinuationNotSplit(t *testing.T) {
	block := ParseHeaderBlock([]byte("Subject: hello\r\n world\r\n\r\n"), false)

	values := block.Values("subject")
	require.Len(t, values, 1)
	assert.Contains(t, values[0], "world")
}

func TestRawBlockStripsMboxEnvelope(t *testing.T) {
	block := ParseHeaderBlock([]byte("From user@x Mon Jan  1 00:00:00 2001\r\nSubject: hi\r\n\r\n"), false)

	assert.Equal(t, []string{"hi"}, block.Values("subject"))
	assert.NotContains(t, string(block.Text), "Mon Jan")
}

func TestStructuredHeadersIteratePreservesOrderAndPreferredSpelling(t *testing.T) {
	block := ParseHeaderBlock([]byte("subject: hi\r\nfrom: a@x\r\n\r\n"), false)
	h := New(block, textPlainDefault())

	entries := h.Iterate()
	require.Len(t, entries, 2)
	assert.Equal(t, "Subject", entries[0].Name)
	assert.Equal(t, "From", entries[1].Name)
}
