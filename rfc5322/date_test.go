package rfc5322

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDateRFC5322(t *testing.T) {
	got, ok := DecodeDate([]byte("Fri, 21 Nov 1997 09:55:06 -0600"))
	require.True(t, ok)

	want := time.Date(1997, time.November, 21, 15, 55, 6, 0, time.UTC)
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestDecodeDateNamedZone(t *testing.T) {
	got, ok := DecodeDate([]byte("21 Nov 1997 09:55:06 GMT"))
	require.True(t, ok)

	want := time.Date(1997, time.November, 21, 9, 55, 6, 0, time.UTC)
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestDecodeDateTwoDigitYearPivot(t *testing.T) {
	got, ok := DecodeDate([]byte("21 Nov 97 09:55:06 -0600"))
	require.True(t, ok)
	assert.Equal(t, 1997, got.Year())

	got, ok = DecodeDate([]byte("21 Nov 12 09:55:06 -0600"))
	require.True(t, ok)
	assert.Equal(t, 2012, got.Year())
}

func TestDecodeDateMalformed(t *testing.T) {
	_, ok := DecodeDate([]byte("not a date"))
	assert.False(t, ok)
}
