package message

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bradenaw/juniper/sets"

	"github.com/mimekit-go/mimecore/header"
	"github.com/mimekit-go/mimecore/mimeparam"
)

var defaultLeafContentType = mimeparam.ContentType{MediaType: "text", SubType: "plain", Type: "text/plain"}
var digestChildContentType = mimeparam.ContentType{MediaType: "message", SubType: "rfc822", Type: "message/rfc822"}

// messageFamilyTypes holds the Content-Types that transition a part into
// SUBPARSER rather than EMITTER.
var messageFamilyTypes = func() sets.Map[string] {
	s := make(sets.Map[string])
	s.Add("message/rfc822")
	s.Add("message/global")
	s.Add("message/news")

	return s
}()

// Parser is a streaming push parser for one message or body part. A caller
// drives the root instance with repeated Write calls followed by Close;
// every other instance in the tree is driven internally as children are
// discovered.
type Parser struct {
	cfg      config
	consumer Consumer

	isRoot             bool
	startMessageCalled bool

	state              State
	partNum            string
	defaultContentType mimeparam.ContentType
	headers            *header.StructuredHeaders
	pruned             bool

	hold      []byte
	headerBuf []byte

	contentConv *contentConverter

	hasBoundary       bool
	boundary          string
	boundaryRe        *regexp.Regexp
	mpPending         []byte
	childCount        int
	childPartNum      string
	childDefaultCT    mimeparam.ContentType
	child             *Parser
}

// NewParser builds a root parser that drives consumer as content arrives.
func NewParser(consumer Consumer, opts ...Option) *Parser {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(&cfg)
	}

	return &Parser{
		cfg:                cfg,
		consumer:           consumer,
		isRoot:             true,
		state:              StateParsingHeaders,
		defaultContentType: defaultLeafContentType,
	}
}

func newChildParser(parent *Parser, partNum string, defaultCT mimeparam.ContentType) *Parser {
	return &Parser{
		cfg:                parent.cfg,
		consumer:           parent.consumer,
		isRoot:             false,
		state:              StateParsingHeaders,
		partNum:            partNum,
		defaultContentType: defaultCT,
	}
}

// Write feeds the next chunk of raw message bytes to the root parser.
func (p *Parser) Write(data []byte) error {
	if !p.isRoot {
		return errors.New("message: Write called on a non-root parser")
	}

	dispatchable, hold := conditionPacket(p.hold, data)
	p.hold = hold

	if len(dispatchable) == 0 {
		return nil
	}

	return p.dispatch(dispatchable)
}

// Close signals end of input, flushing any held bytes and every open part.
func (p *Parser) Close() error {
	if !p.isRoot {
		return errors.New("message: Close called on a non-root parser")
	}

	final := p.hold
	p.hold = nil

	if len(final) > 0 {
		if err := p.dispatch(final); err != nil {
			return err
		}
	}

	if err := p.finishInternal(); err != nil {
		return err
	}

	if p.consumer.EndMessage != nil {
		p.safeCall(p.consumer.EndMessage)
	}

	return nil
}

// dispatch routes a chunk known to start at a logical line boundary (or, for
// the root, at a packet-conditioning-safe boundary) through the current
// state.
func (p *Parser) dispatch(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}

	if p.state == StateParsingHeaders {
		return p.dispatchHeaders(buf)
	}

	if p.hasBoundary {
		return p.multipartFeed(buf, false)
	}

	return p.dispatchBody(buf)
}

func (p *Parser) dispatchHeaders(buf []byte) error {
	p.headerBuf = append(p.headerBuf, buf...)

	idx, sepLen, found := findEndOfHeaders(p.headerBuf)
	if !found {
		return nil
	}

	rawHeader := p.headerBuf[:idx]
	rest := append([]byte(nil), p.headerBuf[idx+sepLen:]...)
	p.headerBuf = nil

	if err := p.finalizeHeaders(rawHeader); err != nil {
		return err
	}

	if len(rest) > 0 {
		return p.dispatch(rest)
	}

	return nil
}

// finalizeHeaders builds the StructuredHeaders view, fires StartMessage (for
// the root, once) and StartPart, then transitions into the body state.
func (p *Parser) finalizeHeaders(rawHeader []byte) error {
	block := header.ParseHeaderBlock(rawHeader, p.cfg.stripContinuations)
	headers := header.New(block, p.defaultContentType)
	p.headers = headers

	p.pruned = partIsPruned(p.partNum, p.cfg.pruneAt)

	if p.isRoot && !p.startMessageCalled {
		p.startMessageCalled = true

		if p.consumer.StartMessage != nil {
			p.safeCall(p.consumer.StartMessage)
		}
	}

	if !p.pruned && p.consumer.StartPart != nil {
		p.safeCall(func() { p.consumer.StartPart(p.partNum, headers) })
	}

	p.transitionToBody(headers)

	return nil
}

func partIsPruned(partNum, pruneAt string) bool {
	if pruneAt == "" {
		return false
	}

	if partNum == pruneAt {
		return false
	}

	if strings.HasPrefix(partNum, pruneAt) {
		rest := partNum[len(pruneAt):]
		if len(rest) > 0 && (rest[0] == '.' || rest[0] == '$') {
			return false
		}
	}

	return true
}

// transitionToBody inspects the just-decoded Content-Type and moves the
// parser into BLACK_HOLE (multipart), SUBPARSER (message/rfc822 family), or
// EMITTER (everything else), wiring up the content converter each needs.
func (p *Parser) transitionToBody(headers *header.StructuredHeaders) {
	ct := headers.ContentType()

	cte := ""
	if v, ok := headers.Get("content-transfer-encoding"); ok {
		if s, ok2 := v.(string); ok2 {
			cte = s
		}
	}

	switch {
	case ct.MediaType == "multipart":
		boundary, ok := ct.Params.Get("boundary")
		if !ok || boundary == "" {
			p.state = StateBlackHole
			return
		}

		p.state = StateBlackHole
		p.hasBoundary = true
		p.boundary = boundary
		p.boundaryRe = compileBoundaryRegex(boundary)
		p.childPartNum = ""
		p.childCount = 1
		p.contentConv = newContentConverter("", "")

		if ct.SubType == "digest" {
			p.childDefaultCT = digestChildContentType
		} else {
			p.childDefaultCT = defaultLeafContentType
		}

	case messageFamilyTypes.Contains(ct.Type):
		p.state = StateSubparser
		p.child = newChildParser(p, p.partNum+"$", defaultLeafContentType)
		p.childPartNum = p.partNum + "$"
		p.contentConv = newContentConverter(strings.ToLower(strings.TrimSpace(cte)), "")

	default:
		p.state = StateEmitter

		decodeCTE := ""
		if p.cfg.bodyFormat == BodyFormatDecode {
			decodeCTE = strings.ToLower(strings.TrimSpace(cte))
		}

		charset := ""
		if p.cfg.strFormat == StrFormatUnicode && ct.MediaType == "text" {
			charset = resolveCharset(p.cfg, ct)
		}

		p.contentConv = newContentConverter(decodeCTE, charset)
	}

	if p.cfg.bodyFormat == BodyFormatRaw && p.partNum == p.cfg.pruneAt {
		p.state = StateEmitter
		p.hasBoundary = false
		p.contentConv = newContentConverter("", "")
	}
}

func resolveCharset(cfg config, ct mimeparam.ContentType) string {
	if cfg.forceCharset {
		return cfg.charset
	}

	if cs, ok := ct.Params.Get("charset"); ok && cs != "" {
		return cs
	}

	return cfg.charset
}

func compileBoundaryRegex(boundary string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|\r\n|\r|\n)--` + regexp.QuoteMeta(boundary) + `(--)?[ \t]*(?:\r\n|\r|\n|$)`)
}

// dispatchBody delivers a chunk known to contain no boundary marker to the
// current non-header state.
func (p *Parser) dispatchBody(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}

	switch p.state {
	case StateBlackHole:
		return nil

	case StateEmitter:
		return p.deliverEmitterData(buf)

	case StateSubparser:
		raw := p.contentConv.push(buf, true)
		return p.child.dispatch(raw)
	}

	return nil
}

func (p *Parser) deliverEmitterData(buf []byte) error {
	if p.pruned || p.cfg.bodyFormat == BodyFormatNone {
		return nil
	}

	out := p.contentConv.push(buf, true)

	if p.consumer.DeliverPartData != nil {
		p.safeCall(func() { p.consumer.DeliverPartData(p.partNum, out) })
	}

	return nil
}

// multipartFeed implements the multipart split handler: it accumulates
// content in mpPending (so a boundary marker split across two Write calls
// still matches), repeatedly peels off complete pre-boundary spans and runs
// the boundary-hit transition, and otherwise forwards everything except a
// trailing run of CR/LF bytes — those might turn out to be the boundary's
// own leading line break once more data (or EOF) arrives.
func (p *Parser) multipartFeed(chunk []byte, final bool) error {
	p.mpPending = append(p.mpPending, chunk...)

	for {
		loc := p.boundaryRe.FindSubmatchIndex(p.mpPending)
		if loc == nil {
			break
		}

		before := p.mpPending[:loc[0]]
		if err := p.dispatchBody(before); err != nil {
			return err
		}

		isTerm := loc[2] >= 0

		if err := p.handleBoundaryHit(isTerm); err != nil {
			return err
		}

		p.mpPending = p.mpPending[loc[1]:]

		if !p.hasBoundary {
			p.mpPending = nil
			return nil
		}
	}

	if final {
		rest := p.mpPending
		p.mpPending = nil

		return p.dispatchBody(rest)
	}

	safe, rest := splitAtTrailingNewlines(p.mpPending)
	p.mpPending = rest

	return p.dispatchBody(safe)
}

func splitAtTrailingNewlines(buf []byte) (safe, rest []byte) {
	i := len(buf)
	for i > 0 && (buf[i-1] == '\r' || buf[i-1] == '\n') {
		i--
	}

	return buf[:i], buf[i:]
}

// handleBoundaryHit runs the multipart split transition: the first hit ends
// the prologue (starting child 1, or closing out a body-less multipart on a
// terminator); every later hit closes the active child out and either starts
// the next one or, on a terminator, moves to discarding the epilogue.
func (p *Parser) handleBoundaryHit(isTerm bool) error {
	if p.childPartNum == "" {
		if isTerm {
			p.state = StateBlackHole
			p.hasBoundary = false

			return nil
		}

		next := p.nextChildPartNum()
		p.child = newChildParser(p, next, p.childDefaultCT)
		p.childPartNum = next
		p.childCount++
		p.state = StateSubparser

		return nil
	}

	if err := p.child.finishInternal(); err != nil {
		return err
	}

	if isTerm {
		p.state = StateBlackHole
		p.hasBoundary = false

		return nil
	}

	next := p.nextChildPartNum()
	p.child = newChildParser(p, next, p.childDefaultCT)
	p.childPartNum = next
	p.childCount++
	p.state = StateSubparser

	return nil
}

// nextChildPartNum computes the next multipart child's part number: "N" at
// the root (whose own part number is the empty string), "parent.N"
// otherwise.
func (p *Parser) nextChildPartNum() string {
	if p.partNum == "" {
		return fmt.Sprintf("%d", p.childCount)
	}

	return fmt.Sprintf("%s.%d", p.partNum, p.childCount)
}

// finishInternal runs end-of-input handling for this part: a headers-only
// message with no blank line is finalized lazily here, any buffered content
// is flushed through the converter with more=false, any open child is closed
// out, and EndPart fires.
func (p *Parser) finishInternal() error {
	if p.state == StateParsingHeaders {
		if err := p.finalizeHeaders(p.headerBuf); err != nil {
			return err
		}

		p.headerBuf = nil
	}

	switch {
	case p.hasBoundary:
		if err := p.multipartFeed(nil, true); err != nil {
			return err
		}

		if p.child != nil {
			if err := p.child.finishInternal(); err != nil {
				return err
			}
		}

	case p.state == StateEmitter:
		final := p.contentConv.push(nil, false)

		if !p.pruned && p.cfg.bodyFormat != BodyFormatNone && len(final) > 0 && p.consumer.DeliverPartData != nil {
			p.safeCall(func() { p.consumer.DeliverPartData(p.partNum, final) })
		}

	case p.state == StateSubparser:
		final := p.contentConv.push(nil, false)

		if len(final) > 0 {
			if err := p.child.dispatch(final); err != nil {
				return err
			}
		}

		if err := p.child.finishInternal(); err != nil {
			return err
		}
	}

	if !p.pruned && p.consumer.EndPart != nil {
		p.safeCall(func() { p.consumer.EndPart(p.partNum) })
	}

	return nil
}

// safeCall invokes fn, converting a panic into an error routed through
// OnError. A panic from inside OnError itself is not recovered here and
// aborts parsing.
func (p *Parser) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if p.cfg.onError != nil {
				p.cfg.onError(fmt.Errorf("message: consumer callback panicked: %v", r))
			}
		}
	}()

	fn()
}
