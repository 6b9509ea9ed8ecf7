package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectTreeBuildsMultipartShape(t *testing.T) {
	msg := "" +
		"Subject: hi\r\n" +
		"Content-Type: multipart/mixed; boundary=frontier\r\n\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"part one\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"part two\r\n" +
		"--frontier--\r\n"

	root, err := CollectTree(strings.NewReader(msg))
	require.NoError(t, err)
	require.NotNil(t, root)

	require.Len(t, root.Children, 2)
	assert.Equal(t, "1", root.Children[0].Number)
	assert.Equal(t, "2", root.Children[1].Number)
	assert.Contains(t, string(root.Children[0].Data), "part one")
	assert.Contains(t, string(root.Children[1].Data), "part two")
}

func TestCollectTreeSinglePartHasNoChildren(t *testing.T) {
	msg := "Content-Type: text/plain\r\n\r\nhello"

	root, err := CollectTree(strings.NewReader(msg))
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.Empty(t, root.Children)
	assert.Equal(t, "hello", string(root.Data))
}

func TestHashStableAcrossIdenticalMessages(t *testing.T) {
	msg := "Subject: hi\r\nFrom: a@x\r\nContent-Type: text/plain\r\n\r\nbody text"

	root1, err := CollectTree(strings.NewReader(msg))
	require.NoError(t, err)

	root2, err := CollectTree(strings.NewReader(msg))
	require.NoError(t, err)

	assert.Equal(t, Hash(root1), Hash(root2))
}

func TestHashDiffersOnBodyChange(t *testing.T) {
	msg1 := "Subject: hi\r\nContent-Type: text/plain\r\n\r\nbody one"
	msg2 := "Subject: hi\r\nContent-Type: text/plain\r\n\r\nbody two"

	root1, err := CollectTree(strings.NewReader(msg1))
	require.NoError(t, err)

	root2, err := CollectTree(strings.NewReader(msg2))
	require.NoError(t, err)

	assert.NotEqual(t, Hash(root1), Hash(root2))
}

func TestHashIgnoresTrailingCRAndWhitespace(t *testing.T) {
	msg1 := "Subject: hi\r\nContent-Type: text/plain\r\n\r\nbody text"
	msg2 := "Subject: hi\r\nContent-Type: text/plain\r\n\r\n  body text  \r"

	root1, err := CollectTree(strings.NewReader(msg1))
	require.NoError(t, err)

	root2, err := CollectTree(strings.NewReader(msg2))
	require.NoError(t, err)

	assert.Equal(t, Hash(root1), Hash(root2))
}
