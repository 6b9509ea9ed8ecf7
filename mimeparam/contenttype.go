package mimeparam

import "strings"

// ContentType is the decoded form of a Content-Type header: a case
// insensitive parameter map plus the derived media/sub/type fields.
type ContentType struct {
	Params    *Params
	MediaType string
	SubType   string
	Type      string
}

// DecodeContentType decodes a Content-Type header value. A malformed
// mediatype/subtype shape collapses the whole value to text/plain with an
// empty parameter set, per spec.
func DecodeContentType(value []byte) (ContentType, error) {
	params, err := Decode(value, true, false)
	if err != nil {
		return ContentType{}, err
	}

	parts := strings.Split(params.PreSemi, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ContentType{
			Params:    newParams(),
			MediaType: "text",
			SubType:   "plain",
			Type:      "text/plain",
		}, nil
	}

	media := strings.ToLower(strings.TrimSpace(parts[0]))
	sub := strings.ToLower(strings.TrimSpace(parts[1]))

	return ContentType{
		Params:    params,
		MediaType: media,
		SubType:   sub,
		Type:      media + "/" + sub,
	}, nil
}
