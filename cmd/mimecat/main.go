// Command mimecat streams every message in an mbox file through the MIME
// parser and logs the discovered part tree.
package main

import (
	"flag"
	"io"
	"os"

	"github.com/emersion/go-mbox"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mimekit-go/mimecore/header"
	"github.com/mimekit-go/mimecore/message"
)

func main() {
	var (
		path      = flag.String("mbox", "", "path to an mbox file")
		bodyRaw   = flag.Bool("raw", false, "emit raw (undecoded) body bytes")
		charset   = flag.String("charset", "", "fallback charset for text parts")
		logFormat = flag.String("log-format", "text", "log format: text or json")
	)
	flag.Parse()

	log := logrus.New()
	if *logFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	if *path == "" {
		log.Fatal("mimecat: -mbox is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.WithError(err).Fatal("mimecat: failed to open mbox file")
	}
	defer f.Close()

	bodyFormat := message.BodyFormatDecode
	if *bodyRaw {
		bodyFormat = message.BodyFormatRaw
	}

	reader := mbox.NewReader(f)

	count := 0

	for {
		msgReader, err := reader.NextMessage()
		if err == io.EOF {
			break
		}

		if err != nil {
			log.WithError(err).Fatal("mimecat: failed to read next message")
		}

		runID := uuid.New().String()

		if err := processMessage(log.WithField("run_id", runID), msgReader, bodyFormat, *charset); err != nil {
			log.WithError(err).WithField("run_id", runID).Error("mimecat: failed to parse message")
		}

		count++
	}

	log.WithField("messages", count).Info("mimecat: done")
}

func processMessage(log *logrus.Entry, r io.Reader, bodyFormat message.BodyFormat, charset string) error {
	opts := []message.Option{
		message.WithBodyFormat(bodyFormat),
		message.WithStrFormat(message.StrFormatUnicode),
		message.WithCharset(charset),
		message.WithOnError(func(err error) {
			log.WithError(err).Warn("mimecat: consumer callback error")
		}),
	}

	consumer := message.Consumer{
		StartMessage: func() {
			log.Debug("mimecat: start message")
		},
		EndMessage: func() {
			log.Debug("mimecat: end message")
		},
		StartPart: func(partNum string, headers *header.StructuredHeaders) {
			ct := headers.ContentType()
			log.WithFields(logrus.Fields{
				"part":         partNum,
				"content_type": ct.Type,
			}).Info("mimecat: start part")
		},
		EndPart: func(partNum string) {
			log.WithField("part", partNum).Debug("mimecat: end part")
		},
		DeliverPartData: func(partNum string, data []byte) {
			log.WithFields(logrus.Fields{
				"part":  partNum,
				"bytes": len(data),
			}).Debug("mimecat: part data")
		},
	}

	p := message.NewParser(consumer, opts...)

	buf := make([]byte, 32*1024)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if werr := p.Write(buf[:n]); werr != nil {
				return werr
			}
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return err
		}
	}

	return p.Close()
}
