package parse

import (
	"bytes"
	"strconv"
)

type Spaces uint64

var SpaceAll = NewSpaces(' ', '\t', '\r', '\n')

func NewSpaces(skip ...byte) (ss Spaces) {
	for _, q := range skip {
		if q >= 64 {
			panic("too high char code")
		}

		ss |= 1 << q
	}

	return
}

func (s Spaces) Skip(b []byte, st int) (i int) {
	i = st

	for i < len(b) && b[i] < 64 && s&(1<<b[i]) != 0 {
		i++
	}

	return
}

// skip skips spaces and comments.
func (p *Parser) skip(i int) int {
	for {
		i = SpaceAll.Skip(p.b, i)

		switch {
		case i < len(p.b) && p.b[i] == '#',
			bytes.HasPrefix(p.b[i:], []byte("//")):
			i = skipLine(p.b, i)
		default:
			return i
		}
	}
}

func skipLine(b []byte, i int) int {
	for i < len(b) && b[i] != '\n' {
		i++
	}

	return i
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// ident reads a name. Slash-separated segments make one name: List/Cons.
func (p *Parser) ident(st int) (s string, i int, ok bool) {
	i = st

	if i == len(p.b) || !isLetter(p.b[i]) {
		return "", st, false
	}

	for i < len(p.b) {
		c := p.b[i]

		switch {
		case isLetter(c) || isDigit(c):
			i++
		case c == '/' && i+1 < len(p.b) && isLetter(p.b[i+1]):
			i++
		default:
			return string(p.b[st:i]), i, true
		}
	}

	return string(p.b[st:i]), i, true
}

var keywords = map[string]bool{
	"fn": true, "type": true, "object": true, "alias": true, "module": true, "import": true,
	"return": true, "use": true, "if": true, "else": true, "match": true, "lambda": true,
	"true": true, "false": true,
}

// name reads an identifier which is not a keyword.
func (p *Parser) name(st int) (string, int, error) {
	i := p.skip(st)

	s, j, ok := p.ident(i)
	if !ok || keywords[s] {
		return "", st, p.unexpected(i, "name")
	}

	return s, j, nil
}

func (p *Parser) keyword(st int, kw string) (int, bool) {
	i := p.skip(st)

	s, j, ok := p.ident(i)
	if !ok || s != kw {
		return st, false
	}

	return j, true
}

var operators = []string{
	"**", "<<", ">>", "<=", ">=", "==", "!=", "=>", "->",
	"+", "-", "*", "/", "%", "<", ">", "&", "|", "^", "=",
	"(", ")", "{", "}", "[", "]", ",", ";", ":", ".",
}

// punct returns the longest punctuation token at i.
func (p *Parser) punct(st int) (string, int) {
	i := p.skip(st)

	for _, op := range operators {
		if bytes.HasPrefix(p.b[i:], []byte(op)) {
			return op, i + len(op)
		}
	}

	return "", st
}

// is consumes tok if it is the next token.
func (p *Parser) is(st int, tok string) (int, bool) {
	t, i := p.punct(st)
	if t != tok {
		return st, false
	}

	return i, true
}

func (p *Parser) expect(st int, tok string) (int, error) {
	i, ok := p.is(st, tok)
	if !ok {
		return st, p.unexpected(st, strconv.Quote(tok))
	}

	return i, nil
}
