package bstring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTransferEncodingBase64(t *testing.T) {
	out, err := DecodeTransferEncoding([]byte("aGVsbG8="), "base64")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestDecodeTransferEncodingQuotedPrintable(t *testing.T) {
	out, err := DecodeTransferEncoding([]byte("caf=C3=A9"), "quoted-printable")
	require.NoError(t, err)
	assert.Equal(t, "café", string(out))
}

func TestDecodeTransferEncodingUnknownPassesThrough(t *testing.T) {
	out, err := DecodeTransferEncoding([]byte("plain text"), "7bit")
	require.NoError(t, err)
	assert.Equal(t, "plain text", string(out))
}

func TestDecodeCharsetUnknownFallsBackToRaw(t *testing.T) {
	raw := []byte("hello")
	out := DecodeCharset(raw, "totally-not-a-real-charset")
	assert.Equal(t, raw, out)
}

func TestDecodeCharsetISO8859_1(t *testing.T) {
	out := DecodeCharset([]byte{0xe9}, "iso-8859-1") // 'é' in Latin-1
	assert.Equal(t, "é", string(out))
}

func TestSplitBase64SafeAlignsOnFourByteGroups(t *testing.T) {
	safe, rest := SplitBase64Safe([]byte("aGVsbG8"), false) // 7 base64 chars: 1 full group + 3 leftover
	assert.Equal(t, "aGVs", string(safe))
	assert.Equal(t, "bG8", string(rest))
}

func TestSplitBase64SafeFinalTakesEverything(t *testing.T) {
	safe, rest := SplitBase64Safe([]byte("aGVsbG8="), true)
	assert.Equal(t, "aGVsbG8=", string(safe))
	assert.Nil(t, rest)
}

func TestSplitBase64SafeNoCompleteGroupHoldsAll(t *testing.T) {
	safe, rest := SplitBase64Safe([]byte("aG"), false)
	assert.Nil(t, safe)
	assert.Equal(t, "aG", string(rest))
}

func TestSplitQuotedPrintableSafeHoldsTrailingEquals(t *testing.T) {
	safe, rest := SplitQuotedPrintableSafe([]byte("caf=C3="), false)
	assert.Equal(t, "caf=C3", string(safe))
	assert.Equal(t, "=", string(rest))
}

func TestSplitQuotedPrintableSafeFinalTakesEverything(t *testing.T) {
	safe, rest := SplitQuotedPrintableSafe([]byte("caf=C3=A9"), true)
	assert.Equal(t, "caf=C3=A9", string(safe))
	assert.Nil(t, rest)
}
