package emitter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimekit-go/mimecore/header"
	"github.com/mimekit-go/mimecore/rfc2047"
	"github.com/mimekit-go/mimecore/rfc5322"
)

func newTestEmitter(opts ...Option) (*Emitter, *strings.Builder) {
	var b strings.Builder
	e := NewEmitter(WriterSink{W: &b}, opts...)

	return e, &b
}

func TestMarginsClampRegardlessOfOptionOrder(t *testing.T) {
	e1 := NewEmitter(WriterSink{}, WithSoftMargin(10), WithHardMargin(20))
	assert.Equal(t, minSoftMargin, e1.softMargin) // 10 clamps up to 30
	assert.Equal(t, minSoftMargin, e1.hardMargin) // hard clamps to >= soft

	e2 := NewEmitter(WriterSink{}, WithHardMargin(5000), WithSoftMargin(50))
	assert.Equal(t, 50, e2.softMargin)
	assert.Equal(t, maxHardMargin, e2.hardMargin)
}

func TestAddUnstructuredASCIIPassthrough(t *testing.T) {
	e, b := newTestEmitter()

	e.AddUnstructured("hello world")
	require.NoError(t, e.Err())
	e.finishHeader()

	assert.Equal(t, "hello world\r\n", b.String())
}

func TestAddUnstructuredNonASCIIEncodesRFC2047(t *testing.T) {
	e, b := newTestEmitter()

	e.AddUnstructured("café")
	require.NoError(t, e.Err())
	e.finishHeader()

	out := strings.TrimSuffix(b.String(), "\r\n")
	assert.True(t, strings.HasPrefix(out, "=?UTF-8?"))
	assert.Equal(t, "café", rfc2047.DecodeWords(out))
}

func TestAddRawVerbatim(t *testing.T) {
	e, b := newTestEmitter()

	e.AddRaw("text/plain; charset=utf-8")
	require.NoError(t, e.Err())
	e.finishHeader()

	assert.Equal(t, "text/plain; charset=utf-8\r\n", b.String())
}

func TestAddDateRoundTripsThroughDecoder(t *testing.T) {
	e, b := newTestEmitter()

	when := time.Date(1997, time.November, 21, 15, 55, 6, 0, time.UTC)
	e.AddDate(when, true)
	require.NoError(t, e.Err())
	e.finishHeader()

	got, ok := rfc5322.DecodeDate([]byte(strings.TrimSuffix(b.String(), "\r\n")))
	require.True(t, ok)
	assert.True(t, got.Equal(when))
}

func TestAddDateInvalidFails(t *testing.T) {
	e, _ := newTestEmitter()

	e.AddDate(time.Time{}, false)
	assert.Error(t, e.Err())
}

func TestAddAddressesSimpleList(t *testing.T) {
	e, b := newTestEmitter()

	e.AddAddresses([]rfc5322.AddressListEntry{
		{Address: rfc5322.Address{Email: "a@x"}},
		{Address: rfc5322.Address{Name: "Joe Q. Public", Email: "john.q.public@example.com"}},
	})
	require.NoError(t, e.Err())
	e.finishHeader()

	out := b.String()
	assert.Contains(t, out, "a@x")
	assert.Contains(t, out, "john.q.public@example.com")
}

func TestAddAddressesGroupExpansion(t *testing.T) {
	e, b := newTestEmitter()

	e.AddAddresses([]rfc5322.AddressListEntry{
		{
			IsGroup: true,
			Group: rfc5322.Group{
				Name: "A Group",
				List: []rfc5322.Address{{Email: "a@x"}, {Email: "b@y"}},
			},
		},
	})
	require.NoError(t, e.Err())
	e.finishHeader()

	out := b.String()
	assert.Contains(t, out, "A Group:")
	assert.Contains(t, out, ";")
}

func TestAddHeaderRegisteredStructuredDispatch(t *testing.T) {
	e, b := newTestEmitter()

	err := e.AddHeader("Subject", []string{"hello"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(b.String(), "Subject:"))
}

func TestAddHeaderUnregisteredStringFallback(t *testing.T) {
	e, b := newTestEmitter()

	err := e.AddHeader("x-custom-thing", "value here")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(b.String(), "X-Custom-Thing:"))
	assert.Contains(t, b.String(), "value here")
}

func TestAddHeaderUnregisteredNonStringFails(t *testing.T) {
	e, _ := newTestEmitter()

	err := e.AddHeader("x-custom-thing", 42)
	assert.Error(t, err)
}

var _ header.Writer = (*Emitter)(nil)

func TestEncodeRFC2047PhraseLongTextChunksAndDecodesBack(t *testing.T) {
	e, b := newTestEmitter()

	long := strings.Repeat("日本語", 20)

	e.AddUnstructured(long)
	require.NoError(t, e.Err())
	e.finishHeader()

	lines := strings.Split(strings.TrimSuffix(b.String(), "\r\n"), "\r\n")

	var joined strings.Builder
	for _, l := range lines {
		joined.WriteString(strings.TrimPrefix(l, " "))
	}

	assert.Equal(t, long, rfc2047.DecodeWords(joined.String()))
}
