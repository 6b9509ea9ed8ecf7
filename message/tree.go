package message

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"strings"

	"github.com/mimekit-go/mimecore/header"
)

// Part is one node of the tree CollectTree materializes from a streaming
// Parser run: a leaf carries its delivered body bytes, a container (message
// or multipart) carries only its Children.
type Part struct {
	Number   string
	Headers  *header.StructuredHeaders
	Data     []byte
	Children []*Part
}

// CollectTree drives a Parser to completion over r and returns the root
// Part, with every descendant part reachable through Children in the order
// the parser discovered them. It forces BodyFormatDecode so leaf Data holds
// fully transfer-decoded bytes.
func CollectTree(r io.Reader, opts ...Option) (*Part, error) {
	nodes := map[string]*Part{}

	var root *Part

	opts = append([]Option{WithBodyFormat(BodyFormatDecode)}, opts...)

	consumer := Consumer{
		StartPart: func(partNum string, headers *header.StructuredHeaders) {
			node := &Part{Number: partNum, Headers: headers}
			nodes[partNum] = node

			if partNum == "" {
				root = node
				return
			}

			if parent, ok := nodes[parentPartNum(partNum)]; ok {
				parent.Children = append(parent.Children, node)
			}
		},
		DeliverPartData: func(partNum string, data []byte) {
			if node, ok := nodes[partNum]; ok {
				node.Data = append(node.Data, data...)
			}
		},
	}

	p := NewParser(consumer, opts...)

	buf := make([]byte, 32*1024)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if werr := p.Write(buf[:n]); werr != nil {
				return nil, werr
			}
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}
	}

	if err := p.Close(); err != nil {
		return nil, err
	}

	return root, nil
}

// parentPartNum strips the last "." or "$" component off a part number, e.g.
// "1.2" -> "1", "1$" -> "1", "1" -> "".
func parentPartNum(partNum string) string {
	for i := len(partNum) - 1; i >= 0; i-- {
		if partNum[i] == '.' || partNum[i] == '$' {
			return partNum[:i]
		}
	}

	return ""
}

var hashHeaderNames = []string{"subject", "from", "to", "cc", "reply-to", "in-reply-to"}

// Hash computes a content fingerprint of a message tree: a sha256 digest
// over the top-level envelope headers (Subject/From/To/Cc/Reply-To/
// In-Reply-To) plus, for every leaf part in document order, its
// Content-Type and Content-Disposition header text and its body with every
// CR byte removed and surrounding whitespace trimmed.
func Hash(root *Part) string {
	h := sha256.New()

	if root != nil && root.Headers != nil {
		for _, name := range hashHeaderNames {
			for _, v := range root.Headers.GetRawHeader(name) {
				io.WriteString(h, v)
			}
		}
	}

	walkLeaves(root, func(leaf *Part) {
		if leaf.Headers != nil {
			for _, v := range leaf.Headers.GetRawHeader("content-type") {
				io.WriteString(h, v)
			}

			for _, v := range leaf.Headers.GetRawHeader("content-disposition") {
				io.WriteString(h, v)
			}
		}

		body := bytes.ReplaceAll(leaf.Data, []byte("\r"), nil)
		h.Write([]byte(strings.TrimSpace(string(body))))
	})

	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func walkLeaves(part *Part, fn func(*Part)) {
	if part == nil {
		return
	}

	if len(part.Children) == 0 {
		fn(part)
		return
	}

	for _, c := range part.Children {
		walkLeaves(c, fn)
	}
}
