package emitter

import (
	"fmt"
	"time"
)

// AddDate validates and formats an RFC 5322 date-time token as
// "Dow, D Mon YYYY HH:MM:SS +HHMM", as a single atom with no internal
// breaks. Go's "-0700" layout already emits the correct sign for a zone
// east/west of UTC, which is the result the spec's JS-derived sign rule
// (negate a "minutes west" offset) arrives at too.
func (e *Emitter) AddDate(t time.Time, valid bool) {
	if !valid {
		e.fail(fmt.Errorf("emitter: cannot encode an invalid date"))
		return
	}

	if y := t.Year(); y < 1900 || y > 9999 {
		e.fail(fmt.Errorf("emitter: date year %d out of range [1900, 9999]", y))
		return
	}

	e.fail(e.addText(t.Format("Mon, 2 Jan 2006 15:04:05 -0700"), false))
}
