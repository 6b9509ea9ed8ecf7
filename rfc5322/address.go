package rfc5322

import "strings"

// Address is a single mailbox: a display name and an email address, either of
// which may be empty.
type Address struct {
	Name  string
	Email string
}

// Group is a named collection of addresses, as in "undisclosed-recipients: ;"
// or "project-team: alice@x.com, bob@x.com;".
type Group struct {
	Name string
	List []Address
}

// AddressListEntry is either an Address or a Group; exactly one of the two
// fields is meaningful, discriminated by IsGroup.
type AddressListEntry struct {
	IsGroup bool
	Address Address
	Group   Group
}

const addressDelimiters = ":,;<>@"

// DecodeAddressList parses an address-list header value (To, From, Cc, ...)
// into an ordered sequence of addresses and groups.
func DecodeAddressList(value []byte, decodeRFC2047 bool) ([]AddressListEntry, error) {
	tokens, err := Tokenize(value, addressDelimiters, Options{
		QString:  true,
		DLiteral: true,
		Comments: true,
		RFC2047:  decodeRFC2047,
	})
	if err != nil {
		return nil, err
	}

	p := &addressParser{}

	for _, tok := range tokens {
		p.step(tok)
	}

	p.finish()

	return p.out, nil
}

type addressParser struct {
	out []AddressListEntry

	addrlist []Address
	groupName string

	name    strings.Builder
	address strings.Builder

	inAngle     bool
	addressMode bool
	needsSpace  bool
}

func (p *addressParser) step(tok Token) {
	if tok.Kind == TokenCommentOpen || tok.Kind == TokenCommentClose {
		return
	}

	if tok.Kind == TokenDelimiter {
		p.delimiter(tok.Delim)
		return
	}

	p.appendText(tok.Text)
}

func (p *addressParser) activeBuilder() *strings.Builder {
	if p.inAngle || p.addressMode {
		return &p.address
	}

	return &p.name
}

func (p *addressParser) appendText(text string) {
	b := p.activeBuilder()

	if p.needsSpace && text != "" && !strings.HasPrefix(text, ".") {
		b.WriteByte(' ')
	}

	b.WriteString(text)
	p.needsSpace = true
}

func (p *addressParser) delimiter(ch byte) {
	switch ch {
	case '<':
		p.inAngle = true
		p.addressMode = true
		p.needsSpace = false

	case '>':
		p.inAngle = false
		p.needsSpace = false

	case '@':
		if p.inAngle {
			p.address.WriteByte('@')
			p.needsSpace = false

			return
		}

		local := p.name.String()
		p.name.Reset()
		p.address.Reset()
		p.address.WriteString(quoteLocalPartIfNeeded(local))
		p.address.WriteByte('@')
		p.addressMode = true
		p.needsSpace = false

	case ',':
		p.commit()
		p.reset()

	case ':':
		p.groupName = strings.TrimSpace(p.name.String())
		p.flushAddrlistIndividually()
		p.name.Reset()
		p.needsSpace = false

	case ';':
		p.commit()

		if p.groupName != "" {
			p.out = append(p.out, AddressListEntry{IsGroup: true, Group: Group{Name: p.groupName, List: p.addrlist}})
		} else {
			p.flushAddrlistIndividually()
		}

		p.groupName = ""
		p.addrlist = nil
		p.reset()
	}
}

// commit appends the in-progress name/email pair to addrlist if either is
// non-empty, then clears the name/email builders without touching group
// state.
func (p *addressParser) commit() {
	name := strings.TrimSpace(p.name.String())
	email := strings.TrimSpace(p.address.String())

	if name != "" || email != "" {
		p.addrlist = append(p.addrlist, Address{Name: name, Email: email})
	}
}

func (p *addressParser) reset() {
	p.name.Reset()
	p.address.Reset()
	p.inAngle = false
	p.addressMode = false
	p.needsSpace = false
}

func (p *addressParser) flushAddrlistIndividually() {
	for _, a := range p.addrlist {
		p.out = append(p.out, AddressListEntry{Address: a})
	}

	p.addrlist = nil
}

func (p *addressParser) finish() {
	p.commit()

	if p.groupName != "" {
		p.out = append(p.out, AddressListEntry{IsGroup: true, Group: Group{Name: p.groupName, List: p.addrlist}})
	} else {
		p.flushAddrlistIndividually()
	}

	p.groupName = ""
	p.addrlist = nil
}

const localPartSpecials = " !()<>[]:;@\\,\""

func quoteLocalPartIfNeeded(local string) string {
	if !strings.ContainsAny(local, localPartSpecials) {
		return local
	}

	var b strings.Builder

	b.WriteByte('"')

	for i := 0; i < len(local); i++ {
		c := local[i]
		if c == '\\' || c == '"' {
			b.WriteByte('\\')
		}

		b.WriteByte(c)
	}

	b.WriteByte('"')

	return b.String()
}
