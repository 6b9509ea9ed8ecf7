package rfc5322

import (
	"regexp"

	"github.com/mimekit-go/mimecore/rfc2047"
	"github.com/mimekit-go/mimecore/rfcparser"
)

var encodedWordRunRe = regexp.MustCompile(
	`^(?:=\?[^?]*\?[BbQq]\?[^?]*\?=)(?:[ \t]*=\?[^?]*\?[BbQq]\?[^?]*\?=)*`,
)

// Tokenize lexes value into a flat token stream. delimiters names the bytes
// this call should surface as Delimiter tokens; every other non-whitespace,
// non-special byte accumulates into the current Atom.
func Tokenize(value []byte, delimiters string, opts Options) ([]Token, error) {
	isDelim := make([]bool, 256)
	for i := 0; i < len(delimiters); i++ {
		isDelim[delimiters[i]] = true
	}

	p := rfcparser.NewParser(value)
	if err := p.Advance(); err != nil {
		return nil, err
	}

	var tokens []Token

	var atom []byte

	flush := func() {
		if len(atom) > 0 {
			tokens = append(tokens, Token{Kind: TokenAtom, Text: string(atom)})
			atom = nil
		}
	}

	for !p.Check(rfcparser.TokenTypeEOF) {
		cur := p.CurrentToken()

		switch {
		case isWhitespace(cur.TType):
			flush()

			if err := p.Advance(); err != nil {
				return nil, err
			}

		case cur.TType == rfcparser.TokenTypeBackslash:
			atom = append(atom, cur.Value)

			if err := p.Advance(); err != nil {
				return nil, err
			}

			if !p.Check(rfcparser.TokenTypeEOF) {
				atom = append(atom, p.CurrentToken().Value)

				if err := p.Advance(); err != nil {
					return nil, err
				}
			}

		case opts.RFC2047 && cur.Value == '=':
			if run, ok := matchEncodedWordRun(p); ok {
				flush()

				tokens = append(tokens, Token{Kind: TokenEncodedWord, Text: rfc2047.DecodeWords(run)})

				if err := p.SkipBytes(len(run)); err != nil {
					return nil, err
				}
			} else {
				atom = append(atom, cur.Value)

				if err := p.Advance(); err != nil {
					return nil, err
				}
			}

		case opts.QString && cur.TType == rfcparser.TokenTypeDQuote:
			flush()

			text, err := scanQuotedString(p)
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, Token{Kind: TokenQuotedString, Text: text})

		case opts.DLiteral && cur.TType == rfcparser.TokenTypeLBracket:
			flush()

			text, err := scanDomainLiteral(p)
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, Token{Kind: TokenDomainLiteral, Text: text})

		case opts.Comments && cur.TType == rfcparser.TokenTypeLParen:
			flush()

			commentTokens, err := scanComment(p)
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, commentTokens...)

		case isDelim[cur.Value]:
			flush()

			tokens = append(tokens, Token{Kind: TokenDelimiter, Delim: cur.Value})

			if err := p.Advance(); err != nil {
				return nil, err
			}

		default:
			atom = append(atom, cur.Value)

			if err := p.Advance(); err != nil {
				return nil, err
			}
		}
	}

	flush()

	return tokens, nil
}

func isWhitespace(t rfcparser.TokenType) bool {
	return t == rfcparser.TokenTypeSP || t == rfcparser.TokenTypeTab ||
		t == rfcparser.TokenTypeCR || t == rfcparser.TokenTypeLF
}

// matchEncodedWordRun tries to match one-or-more adjacent encoded-words,
// separated only by horizontal whitespace, starting at the parser's current
// byte. On success it returns the raw matched text (still to be decoded) and
// true, without moving the parser.
func matchEncodedWordRun(p *rfcparser.Parser) (string, bool) {
	loc := encodedWordRunRe.FindIndex(p.RemainingFromCurrent())
	if loc == nil {
		return "", false
	}

	return string(p.RemainingFromCurrent()[loc[0]:loc[1]]), true
}

// scanQuotedString consumes a "..." construct with the parser positioned on
// the opening quote, unescaping quoted-pairs and returning the payload
// without its surrounding quotes. A missing closing quote at end-of-input is
// treated as an implicit close rather than an error.
func scanQuotedString(p *rfcparser.Parser) (string, error) {
	if err := p.Advance(); err != nil {
		return "", err
	}

	var buf []byte

	for {
		if p.Check(rfcparser.TokenTypeEOF) {
			break
		}

		cur := p.CurrentToken()

		switch cur.TType {
		case rfcparser.TokenTypeDQuote:
			if err := p.Advance(); err != nil {
				return "", err
			}

			return string(buf), nil

		case rfcparser.TokenTypeBackslash:
			if err := p.Advance(); err != nil {
				return "", err
			}

			if !p.Check(rfcparser.TokenTypeEOF) {
				buf = append(buf, p.CurrentToken().Value)

				if err := p.Advance(); err != nil {
					return "", err
				}
			}

		default:
			buf = append(buf, cur.Value)

			if err := p.Advance(); err != nil {
				return "", err
			}
		}
	}

	return string(buf), nil
}

// scanDomainLiteral consumes a [...] construct, retaining the brackets and
// any quoted-pair backslashes verbatim in the returned text.
func scanDomainLiteral(p *rfcparser.Parser) (string, error) {
	buf := []byte{'['}

	if err := p.Advance(); err != nil {
		return "", err
	}

	for {
		if p.Check(rfcparser.TokenTypeEOF) {
			break
		}

		cur := p.CurrentToken()

		switch cur.TType {
		case rfcparser.TokenTypeRBracket:
			buf = append(buf, ']')

			if err := p.Advance(); err != nil {
				return "", err
			}

			return string(buf), nil

		case rfcparser.TokenTypeBackslash:
			buf = append(buf, cur.Value)

			if err := p.Advance(); err != nil {
				return "", err
			}

			if !p.Check(rfcparser.TokenTypeEOF) {
				buf = append(buf, p.CurrentToken().Value)

				if err := p.Advance(); err != nil {
					return "", err
				}
			}

		default:
			buf = append(buf, cur.Value)

			if err := p.Advance(); err != nil {
				return "", err
			}
		}
	}

	return string(buf), nil
}

// scanComment consumes a (...) construct with the parser positioned on the
// opening paren, tracking nesting depth and emitting a CommentOpen/
// CommentClose pair per paren encountered. Quoted-strings and domain-literals
// inside the comment are recognized (their delimiters don't affect nesting
// depth or get mistaken for the comment's own parens) but their content is
// discarded rather than surfaced as tokens, matching how a comment's own text
// is dropped. An unterminated comment at end-of-input closes implicitly.
func scanComment(p *rfcparser.Parser) ([]Token, error) {
	var tokens []Token

	depth := 0

	for {
		if p.Check(rfcparser.TokenTypeEOF) {
			return tokens, nil
		}

		cur := p.CurrentToken()

		switch cur.TType {
		case rfcparser.TokenTypeLParen:
			depth++

			tokens = append(tokens, Token{Kind: TokenCommentOpen})

			if err := p.Advance(); err != nil {
				return nil, err
			}

		case rfcparser.TokenTypeRParen:
			depth--

			tokens = append(tokens, Token{Kind: TokenCommentClose})

			if err := p.Advance(); err != nil {
				return nil, err
			}

			if depth == 0 {
				return tokens, nil
			}

		case rfcparser.TokenTypeDQuote:
			if _, err := scanQuotedString(p); err != nil {
				return nil, err
			}

		case rfcparser.TokenTypeLBracket:
			if _, err := scanDomainLiteral(p); err != nil {
				return nil, err
			}

		case rfcparser.TokenTypeBackslash:
			if err := p.Advance(); err != nil {
				return nil, err
			}

			if !p.Check(rfcparser.TokenTypeEOF) {
				if err := p.Advance(); err != nil {
					return nil, err
				}
			}

		default:
			if err := p.Advance(); err != nil {
				return nil, err
			}
		}
	}
}
