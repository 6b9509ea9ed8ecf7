package rfcparser

import (
	"errors"
	"fmt"
)

// Parser consumes tokens from a Scanner built over a ByteScanner, one byte
// of lookahead at a time. Advance must be called once before any Check/
// Consume call to load the first token.
type Parser struct {
	source        *ByteScanner
	scanner       *Scanner
	previousToken Token
	currentToken  Token
}

type Error struct {
	Token   Token
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[offset=%d]: %s", e.Token.Offset, e.Message)
}

func (e *Error) IsEOF() bool {
	return e.Token.TType == TokenTypeEOF
}

func IsError(err error) bool {
	var perr *Error
	return errors.As(err, &perr)
}

func NewParser(data []byte) *Parser {
	source := NewByteScanner(data)

	return &Parser{
		source:  source,
		scanner: NewScannerWithReader(source),
	}
}

type ParserState struct {
	scanner       ByteScannerScope
	previousToken Token
	currentToken  Token
}

func (p *Parser) SaveState() ParserState {
	return ParserState{
		scanner:       p.source.SaveState(),
		previousToken: p.previousToken,
		currentToken:  p.currentToken,
	}
}

func (p *Parser) RestoreState(s ParserState) {
	p.source.RestoreState(s.scanner)
	p.previousToken = s.previousToken
	p.currentToken = s.currentToken
}

// Advance reads and classifies the next byte, making it the current token.
func (p *Parser) Advance() error {
	p.previousToken = p.currentToken

	next, err := p.scanner.ScanToken()
	if err != nil {
		return err
	}

	p.currentToken = next

	return nil
}

func (p *Parser) Check(t TokenType) bool {
	return p.currentToken.TType == t
}

func (p *Parser) CheckWith(f func(TokenType) bool) bool {
	return f(p.currentToken.TType)
}

func (p *Parser) CheckByte(b byte) bool {
	return p.currentToken.Value == b && p.currentToken.TType != TokenTypeEOF
}

// Matches advances past the current token if it matches t, reporting whether
// it did.
func (p *Parser) Matches(t TokenType) (bool, error) {
	if !p.Check(t) {
		return false, nil
	}

	return true, p.Advance()
}

func (p *Parser) MatchesWith(f func(TokenType) bool) (bool, error) {
	if !p.CheckWith(f) {
		return false, nil
	}

	return true, p.Advance()
}

func (p *Parser) Consume(t TokenType, message string) error {
	return p.ConsumeWith(func(tt TokenType) bool { return tt == t }, message)
}

func (p *Parser) ConsumeWith(f func(TokenType) bool, message string) error {
	if f(p.currentToken.TType) {
		return p.Advance()
	}

	return p.MakeError(message)
}

// ConsumeBytesFold advances past chars, case-insensitively, in order.
func (p *Parser) ConsumeBytesFold(chars ...byte) error {
	for _, c := range chars {
		if ByteToLower(p.currentToken.Value) != ByteToLower(c) || p.currentToken.TType == TokenTypeEOF {
			return p.MakeError(fmt.Sprintf("expected byte %q", c))
		}

		if err := p.Advance(); err != nil {
			return err
		}
	}

	return nil
}

// CollectBytesWhileMatchesWith collects token values, starting with the
// current token, while they satisfy f, without consuming the first
// non-matching token.
func (p *Parser) CollectBytesWhileMatchesWith(f func(TokenType) bool) ([]byte, error) {
	var out []byte

	for {
		if ok, err := p.MatchesWith(f); err != nil {
			return nil, err
		} else if ok {
			out = append(out, p.previousToken.Value)
		} else {
			break
		}
	}

	return out, nil
}

func (p *Parser) ParseNumber() (int, error) {
	if err := p.Consume(TokenTypeDigit, "expected digit"); err != nil {
		return 0, err
	}

	n := ByteToInt(p.previousToken.Value)

	for {
		if ok, err := p.Matches(TokenTypeDigit); err != nil {
			return 0, err
		} else if ok {
			n = n*10 + ByteToInt(p.previousToken.Value)
		} else {
			break
		}
	}

	return n, nil
}

// ParseNumberN parses up to n decimal digits, stopping early if fewer are
// available.
func (p *Parser) ParseNumberN(n int) (int, error) {
	if err := p.Consume(TokenTypeDigit, "expected digit"); err != nil {
		return 0, err
	}

	v := ByteToInt(p.previousToken.Value)

	for i := 0; i < n-1; i++ {
		if ok, err := p.Matches(TokenTypeDigit); err != nil {
			return 0, err
		} else if ok {
			v = v*10 + ByteToInt(p.previousToken.Value)
		} else {
			break
		}
	}

	return v, nil
}

// RemainingFromCurrent returns the unread input starting at the current
// token's own byte, for callers that need to run a regular expression ahead
// of the single-token lookahead the rest of Parser offers.
func (p *Parser) RemainingFromCurrent() []byte {
	if p.currentToken.TType == TokenTypeEOF {
		return nil
	}

	return p.source.Bytes()[p.currentToken.Offset:]
}

// SkipBytes advances past n bytes, starting at (and including) the current
// token, landing the new current token at the byte n positions ahead.
func (p *Parser) SkipBytes(n int) error {
	for i := 0; i < n; i++ {
		if err := p.Advance(); err != nil {
			return err
		}
	}

	return nil
}

func (p *Parser) PreviousToken() Token {
	return p.previousToken
}

func (p *Parser) CurrentToken() Token {
	return p.currentToken
}

func (p *Parser) MakeError(message string) error {
	return &Error{Token: p.previousToken, Message: message}
}

func (p *Parser) MakeErrorAtOffset(message string, offset int) error {
	tok := p.previousToken
	tok.Offset = offset

	return &Error{Token: tok, Message: message}
}
