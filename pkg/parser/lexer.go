// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jllopis/bmpp/pkg/protocol"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokLAngle
	tokRAngle
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokComma
	tokColon
	tokArrow
)

var tokenNames = map[tokenKind]string{
	tokEOF:      "end of input",
	tokIdent:    "identifier",
	tokString:   "string",
	tokLAngle:   `"<"`,
	tokRAngle:   `">"`,
	tokLParen:   `"("`,
	tokRParen:   `")"`,
	tokLBrace:   `"{"`,
	tokRBrace:   `"}"`,
	tokLBracket: `"["`,
	tokRBracket: `"]"`,
	tokComma:    `","`,
	tokColon:    `":"`,
	tokArrow:    `"->"`,
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

type token struct {
	kind tokenKind
	text string
	pos  protocol.Position
}

func (t token) describe() string {
	switch t.kind {
	case tokIdent:
		return fmt.Sprintf("identifier %q", t.text)
	case tokString:
		return fmt.Sprintf("string %q", t.text)
	default:
		return t.kind.String()
	}
}

// lexer turns source text into tokens. Comments and whitespace are dropped.
type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) pos() protocol.Position {
	return protocol.Position{Line: l.line, Column: l.col, Offset: l.off}
}

func (l *lexer) peekByte(ahead int) byte {
	if l.off+ahead >= len(l.src) {
		return 0
	}
	return l.src[l.off+ahead]
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// tokenize scans the whole input.
func (l *lexer) tokenize() ([]token, error) {
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpace(); err != nil {
		return token{}, err
	}
	start := l.pos()
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := l.src[l.off]
	switch {
	case isIdentStart(c):
		for l.off < len(l.src) && isIdentPart(l.src[l.off]) {
			l.advance()
		}
		return token{kind: tokIdent, text: l.src[start.Offset:l.off], pos: start}, nil
	case c == '"':
		return l.scanString(start)
	case c == '-' && l.peekByte(1) == '>':
		l.advance()
		l.advance()
		return token{kind: tokArrow, text: "->", pos: start}, nil
	}

	kind, ok := punctuation[c]
	if !ok {
		r := l.advance()
		return token{}, &ParseError{
			Pos:      start,
			Expected: "protocol declaration token",
			Found:    fmt.Sprintf("unexpected character %q", r),
		}
	}
	l.advance()
	return token{kind: kind, text: string(c), pos: start}, nil
}

var punctuation = map[byte]tokenKind{
	'<': tokLAngle,
	'>': tokRAngle,
	'(': tokLParen,
	')': tokRParen,
	'{': tokLBrace,
	'}': tokRBrace,
	'[': tokLBracket,
	']': tokRBracket,
	',': tokComma,
	':': tokColon,
}

func (l *lexer) skipSpace() error {
	for l.off < len(l.src) {
		c := l.src[l.off]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.advance()
		case c == '/' && l.peekByte(1) == '/':
			for l.off < len(l.src) && l.src[l.off] != '\n' {
				l.advance()
			}
		case c == '/' && l.peekByte(1) == '*':
			start := l.pos()
			l.advance()
			l.advance()
			closed := false
			for l.off < len(l.src) {
				if l.src[l.off] == '*' && l.peekByte(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return &ParseError{Pos: start, Expected: `"*/" closing block comment`, Found: "end of input"}
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) scanString(start protocol.Position) (token, error) {
	l.advance() // opening quote
	var b strings.Builder
	for l.off < len(l.src) {
		c := l.src[l.off]
		switch c {
		case '"':
			l.advance()
			return token{kind: tokString, text: b.String(), pos: start}, nil
		case '\\':
			l.advance()
			if l.off >= len(l.src) {
				break
			}
			esc := l.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"', '\\':
				b.WriteRune(esc)
			default:
				b.WriteByte('\\')
				b.WriteRune(esc)
			}
		default:
			b.WriteRune(l.advance())
		}
	}
	return token{}, &ParseError{Pos: start, Expected: `closing '"' of string`, Found: "end of input"}
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}
