package rfc5322

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAddressListCommas(t *testing.T) {
	entries, err := DecodeAddressList([]byte("a@x, b@y"), false)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, Address{Name: "", Email: "a@x"}, entries[0].Address)
	assert.Equal(t, Address{Name: "", Email: "b@y"}, entries[1].Address)
}

func TestDecodeAddressListSingle(t *testing.T) {
	entries, err := DecodeAddressList([]byte("a@x"), false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a@x", entries[0].Address.Email)
}

func TestDecodeAddressListNamedAddress(t *testing.T) {
	entries, err := DecodeAddressList([]byte(`"Joe Q. Public" <john.q.public@example.com>`), false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Address{Name: "Joe Q. Public", Email: "john.q.public@example.com"}, entries[0].Address)
}

func TestDecodeAddressListGroup(t *testing.T) {
	entries, err := DecodeAddressList([]byte("A Group: a@x, b@y;"), false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].IsGroup)

	assert.Equal(t, "A Group", entries[0].Group.Name)
	require.Len(t, entries[0].Group.List, 2)
	assert.Equal(t, Address{Name: "", Email: "a@x"}, entries[0].Group.List[0])
	assert.Equal(t, Address{Name: "", Email: "b@y"}, entries[0].Group.List[1])
}
