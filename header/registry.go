package header

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mimekit-go/mimecore/mimeparam"
	"github.com/mimekit-go/mimecore/rfc2047"
	"github.com/mimekit-go/mimecore/rfc5322"
)

// ErrBuiltinLocked is returned by Register when the caller attempts to
// override a built-in registry entry.
var ErrBuiltinLocked = errors.New("header: cannot override built-in registry entry")

// Writer is the subset of the emitter's capabilities an Encoder needs to
// serialize a decoded value back to wire form. Defined here, on the consumer
// side, so this package never imports the emitter package.
type Writer interface {
	AddAddresses(list []rfc5322.AddressListEntry)
	AddUnstructured(text string)
	AddDate(t time.Time, valid bool)
	AddRaw(text string)
}

// Decoder decodes every raw occurrence of a header into its structured
// value.
type Decoder func(raw []string) (interface{}, error)

// Encoder serializes a structured value through w.
type Encoder func(w Writer, value interface{}) error

type entry struct {
	preferred string
	decode    Decoder
	encode    Encoder
	builtin   bool
}

type registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

var global = newRegistry()

func newRegistry() *registry {
	r := &registry{entries: make(map[string]*entry)}
	r.registerBuiltins()

	return r
}

// LookupEncoder reports the preferred spelling of name if it has a
// registered encoder. A registry entry with no encoder (e.g. Content-Type,
// which is decode-only) is treated as not found.
func LookupEncoder(name string) (preferred string, ok bool) {
	e, found := global.lookup(name)
	if !found || e.encode == nil {
		return "", false
	}

	return e.preferred, true
}

// EncodeStructured invokes name's registered encoder against value, writing
// through w. The caller must have already confirmed presence via
// LookupEncoder and written the header name prefix.
func EncodeStructured(w Writer, name string, value interface{}) error {
	e, ok := global.lookup(name)
	if !ok || e.encode == nil {
		return fmt.Errorf("header: %q has no registered encoder", name)
	}

	return e.encode(w, value)
}

func (r *registry) lookup(name string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[strings.ToLower(name)]

	return e, ok
}

// Register adds a new (non-builtin) registry entry. Attempting to register a
// name already claimed by a built-in fails with ErrBuiltinLocked.
func Register(name, preferred string, decode Decoder, encode Encoder) error {
	return global.register(name, preferred, decode, encode)
}

func (r *registry) register(name, preferred string, decode Decoder, encode Encoder) error {
	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[key]; ok && existing.builtin {
		return fmt.Errorf("%w: %s", ErrBuiltinLocked, name)
	}

	r.entries[key] = &entry{preferred: preferred, decode: decode, encode: encode}

	return nil
}

func (r *registry) mustRegisterBuiltin(name, preferred string, decode Decoder, encode Encoder) {
	r.entries[strings.ToLower(name)] = &entry{preferred: preferred, decode: decode, encode: encode, builtin: true}
}

var addressHeaderNames = []string{
	"Bcc", "Cc", "From", "Reply-To",
	"Resent-Bcc", "Resent-Cc", "Resent-From", "Resent-Reply-To", "Resent-Sender", "Resent-To",
	"Sender", "To", "Approved", "Disposition-Notification-To", "Delivered-To",
	"Return-Receipt-To", "Mail-Reply-To", "Mail-Followup-To",
}

var unstructuredHeaderNames = []string{
	"Comments", "Keywords", "Subject", "MIME-Version", "Content-Description", "User-Agent",
}

var dateHeaderNames = []string{
	"Date", "Resent-Date", "Expires", "Injection-Date", "NNTP-Posting-Date",
}

func (r *registry) registerBuiltins() {
	for _, name := range addressHeaderNames {
		r.mustRegisterBuiltin(name, name, decodeAddressList, encodeAddressList)
	}

	for _, name := range unstructuredHeaderNames {
		r.mustRegisterBuiltin(name, name, decodeUnstructuredFirst, encodeUnstructured)
	}

	for _, name := range dateHeaderNames {
		r.mustRegisterBuiltin(name, name, decodeDate, encodeDate)
	}

	r.mustRegisterBuiltin("Content-Type", "Content-Type", decodeContentType, nil)
	r.mustRegisterBuiltin("Message-ID", "Message-ID", decodeRFC2047Only, encodeUnstructured)
	r.mustRegisterBuiltin("Resent-Message-ID", "Resent-Message-ID", decodeRFC2047Only, encodeUnstructured)
	r.mustRegisterBuiltin("Content-Transfer-Encoding", "Content-Transfer-Encoding", decodeCTE, encodeUnstructured)
}

func decodeAddressList(raw []string) (interface{}, error) {
	var out []rfc5322.AddressListEntry

	for _, v := range raw {
		entries, err := rfc5322.DecodeAddressList([]byte(v), true)
		if err != nil {
			return nil, err
		}

		out = append(out, entries...)
	}

	return out, nil
}

func encodeAddressList(w Writer, value interface{}) error {
	list, ok := value.([]rfc5322.AddressListEntry)
	if !ok {
		return fmt.Errorf("header: expected []rfc5322.AddressListEntry, got %T", value)
	}

	w.AddAddresses(list)

	return nil
}

// decodeUnstructuredFirst decodes every occurrence, but the spec calls out
// "RFC 2047 on the first occurrence" for this family; we decode all
// occurrences uniformly since a header repeated in this family (e.g. two
// Subject lines) has no defined merge rule beyond exposing each decoded.
func decodeUnstructuredFirst(raw []string) (interface{}, error) {
	out := make([]string, len(raw))

	for i, v := range raw {
		out[i] = rfc2047.DecodeWords(v)
	}

	return out, nil
}

func encodeUnstructured(w Writer, value interface{}) error {
	switch v := value.(type) {
	case string:
		w.AddUnstructured(v)
	case []string:
		if len(v) > 0 {
			w.AddUnstructured(v[0])
		}
	default:
		return fmt.Errorf("header: expected string or []string, got %T", value)
	}

	return nil
}

func decodeRFC2047Only(raw []string) (interface{}, error) {
	out := make([]string, len(raw))

	for i, v := range raw {
		out[i] = rfc2047.DecodeWords(v)
	}

	return out, nil
}

func decodeDate(raw []string) (interface{}, error) {
	if len(raw) == 0 {
		return DateValue{}, nil
	}

	t, ok := rfc5322.DecodeDate([]byte(raw[0]))

	return DateValue{Time: t, Valid: ok}, nil
}

func encodeDate(w Writer, value interface{}) error {
	d, ok := value.(DateValue)
	if !ok {
		return fmt.Errorf("header: expected header.DateValue, got %T", value)
	}

	w.AddDate(d.Time, d.Valid)

	return nil
}

func decodeContentType(raw []string) (interface{}, error) {
	if len(raw) == 0 {
		return mimeparam.ContentType{MediaType: "text", SubType: "plain", Type: "text/plain"}, nil
	}

	return mimeparam.DecodeContentType([]byte(raw[0]))
}

func decodeCTE(raw []string) (interface{}, error) {
	if len(raw) == 0 {
		return "", nil
	}

	return strings.ToLower(strings.TrimSpace(raw[0])), nil
}

// DateValue is the decoded form of a date header: an invalid date collapses
// to the zero Time with Valid false, matching the spec's NaN-equivalent
// sentinel.
type DateValue struct {
	Time  time.Time
	Valid bool
}
