// Package emitter implements the header line-folding writer (§4.8): the
// counterpart to the header/rfc5322/rfc2047 decoders, producing RFC 5322
// header text with RFC 2047 encoding and RFC 2231-free ASCII folding.
package emitter

import "io"

// Sink receives the emitter's output through DeliverData, one committed line
// at a time. The Emitter in this package never calls DeliverEOF.
type Sink interface {
	DeliverData(s string)
	DeliverEOF()
}

// WriterSink adapts an io.Writer into a Sink; DeliverEOF is a no-op, since a
// plain io.Writer has no end-of-stream signal of its own.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) DeliverData(str string) {
	io.WriteString(s.W, str)
}

func (s WriterSink) DeliverEOF() {}
