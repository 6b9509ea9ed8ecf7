package emitter

import (
	"fmt"
	"io"
)

// MultipartWriter writes a multipart body: each AddPart call emits a
// boundary line followed by whatever the callback writes, and Done emits
// the closing "--boundary--" line.
type MultipartWriter struct {
	w        io.Writer
	boundary string
}

func NewMultipartWriter(w io.Writer, boundary string) *MultipartWriter {
	return &MultipartWriter{w: w, boundary: boundary}
}

func (mw *MultipartWriter) AddPart(write func(io.Writer) error) error {
	if _, err := fmt.Fprintf(mw.w, "--%s\r\n", mw.boundary); err != nil {
		return err
	}

	if err := write(mw.w); err != nil {
		return err
	}

	_, err := fmt.Fprint(mw.w, "\r\n")

	return err
}

func (mw *MultipartWriter) Done() error {
	_, err := fmt.Fprintf(mw.w, "--%s--\r\n", mw.boundary)
	return err
}
