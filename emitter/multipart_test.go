package emitter

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultipartWriterFramesEachPart(t *testing.T) {
	var b strings.Builder
	mw := NewMultipartWriter(&b, "frontier")

	require.NoError(t, mw.AddPart(func(w io.Writer) error {
		_, err := io.WriteString(w, "Content-Type: text/plain\r\n\r\npart one")
		return err
	}))

	require.NoError(t, mw.AddPart(func(w io.Writer) error {
		_, err := io.WriteString(w, "Content-Type: text/plain\r\n\r\npart two")
		return err
	}))

	require.NoError(t, mw.Done())

	want := "--frontier\r\n" +
		"Content-Type: text/plain\r\n\r\npart one\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/plain\r\n\r\npart two\r\n" +
		"--frontier--\r\n"

	assert.Equal(t, want, b.String())
}
