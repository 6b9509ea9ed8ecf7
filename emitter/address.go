package emitter

import (
	"strings"

	"github.com/mimekit-go/mimecore/rfc5322"
)

const addressQChars = `,()<>:;."`
const localPartQChars = `()<>[]:;@\, !"`

// AddAddresses writes an address/group list, interposing ", " (with a
// preferred break) between entries and expanding groups as "name:members;".
func (e *Emitter) AddAddresses(list []rfc5322.AddressListEntry) {
	for i, entry := range list {
		if i > 0 {
			e.fail(e.addText(",", true))
		}

		if entry.IsGroup {
			e.fail(e.addPhrase(entry.Group.Name, addressQChars, false))
			e.fail(e.addText(":", false))

			for j, member := range entry.Group.List {
				if j > 0 {
					e.fail(e.addText(",", true))
				}

				e.fail(e.addAddress(member))
			}

			e.fail(e.addText(";", false))

			continue
		}

		e.fail(e.addAddress(entry.Address))
	}
}

func (e *Emitter) addAddress(addr rfc5322.Address) error {
	if addr.Name != "" {
		_ = e.reserveSpace(len(addr.Name) + len(addr.Email) + 3)

		if err := e.addPhrase(addr.Name, addressQChars, false); err != nil {
			return err
		}

		if err := e.addText("<", false); err != nil {
			return err
		}
	}

	local, domain := splitEmailAtLastAt(addr.Email)

	if err := e.addQuotable(local, localPartQChars, false); err != nil {
		return err
	}

	tail := domain
	if strings.IndexByte(addr.Email, '@') >= 0 {
		tail = "@" + domain
	}

	if addr.Name != "" {
		tail += ">"
	}

	return e.addText(tail, false)
}

func splitEmailAtLastAt(email string) (local, domain string) {
	i := strings.LastIndexByte(email, '@')
	if i < 0 {
		return email, ""
	}

	return email[:i], email[i+1:]
}
