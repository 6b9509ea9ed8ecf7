package mimeparam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeContentTypeBasic(t *testing.T) {
	ct, err := DecodeContentType([]byte("multipart/mixed; boundary=frontier"))
	require.NoError(t, err)

	assert.Equal(t, "multipart", ct.MediaType)
	assert.Equal(t, "mixed", ct.SubType)
	assert.Equal(t, "multipart/mixed", ct.Type)

	boundary, ok := ct.Params.Get("boundary")
	require.True(t, ok)
	assert.Equal(t, "frontier", boundary)
}

func TestDecodeContentTypeMalformedTypeCollapsesToTextPlain(t *testing.T) {
	ct, err := DecodeContentType([]byte("not-a-type"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", ct.Type)

	ct, err = DecodeContentType([]byte("a/b/c"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", ct.Type)
}

func TestDecodeContentTypeMessageRFC822NotMultipart(t *testing.T) {
	ct, err := DecodeContentType([]byte(`message/rfc822; boundary="--x"`))
	require.NoError(t, err)
	assert.Equal(t, "message", ct.MediaType)
	assert.NotEqual(t, "multipart", ct.MediaType)
}

func TestDecodeContentTypeIdempotent(t *testing.T) {
	inputs := []string{
		`text/plain; charset=utf-8`,
		`multipart/mixed; boundary="frontier"`,
		`application/octet-stream`,
	}

	for _, in := range inputs {
		ct1, err := DecodeContentType([]byte(in))
		require.NoError(t, err)

		ct2, err := DecodeContentType([]byte(formatContentType(ct1)))
		require.NoError(t, err)

		assert.Equal(t, ct1.Type, ct2.Type)
		assert.ElementsMatch(t, ct1.Params.Names(), ct2.Params.Names())
	}
}

func formatContentType(ct ContentType) string {
	s := ct.Type

	for _, name := range ct.Params.Names() {
		v, _ := ct.Params.Get(name)
		s += "; " + name + `="` + v + `"`
	}

	return s
}
