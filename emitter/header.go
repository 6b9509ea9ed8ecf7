package emitter

import (
	"fmt"
	"strings"

	"github.com/mimekit-go/mimecore/header"
)

// AddHeader writes one complete header line: "Name: value\r\n" (folded as
// needed). A registered structured header is dispatched through its
// encoder; an unregistered header accepts only a string value, written as
// unstructured text under a title-cased rendering of name.
func (e *Emitter) AddHeader(name string, value interface{}) error {
	e.err = nil

	if preferred, ok := header.LookupEncoder(name); ok {
		if err := e.addText(preferred+":", true); err != nil {
			return err
		}

		if err := header.EncodeStructured(e, name, value); err != nil {
			return err
		}

		if e.err != nil {
			return e.err
		}

		e.finishHeader()

		return nil
	}

	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("emitter: cannot encode header %q with non-string value %T", name, value)
	}

	if err := e.addText(capitalizeHeaderName(name)+":", true); err != nil {
		return err
	}

	e.AddUnstructured(s)

	if e.err != nil {
		return e.err
	}

	e.finishHeader()

	return nil
}

func capitalizeHeaderName(name string) string {
	words := strings.Split(name, "-")

	for i, w := range words {
		if w == "" {
			continue
		}

		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}

	return strings.Join(words, "-")
}
