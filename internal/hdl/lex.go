// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// A Type is a token type.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Ident
	Int
	Literal
	BracketOpen
	BracketClose
	Comma
	Range
	Equal
)

var typeNames = [...]string{
	EOF:          "end of input",
	Raw:          "character",
	Ident:        "identifier",
	Int:          "integer",
	Literal:      "value",
	BracketOpen:  "'['",
	BracketClose: "']'",
	Comma:        "','",
	Range:        "'..'",
	Equal:        "'='",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// A Token is a lexical token. Pos is the byte offset of the token in the
// input.
//
type Token struct {
	Type  Type
	Pos   int
	Value string
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return t.Type.String()
	case Raw:
		return "character " + strconv.Quote(t.Value)
	}
	return t.Type.String() + " " + strconv.Quote(t.Value)
}

type stateFn func(l *lexer) stateFn

type lexer struct {
	input  string
	start  int
	pos    int
	width  int
	tokens []Token
}

// Lex splits input into tokens. The last token is always EOF. Lexing stops at
// the first unexpected character, which is returned as a Raw token.
//
func Lex(input string) []Token {
	l := &lexer{input: input}
	for state := lexInit; state != nil; {
		state = state(l)
	}
	return l.tokens
}

const eof = -1

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	return r
}

func (l *lexer) backup() { l.pos -= l.width }

func (l *lexer) ignore() { l.start = l.pos }

func (l *lexer) acceptWhile(f func(rune) bool) {
	for f(l.next()) {
	}
	l.backup()
}

func (l *lexer) emit(t Type) {
	l.tokens = append(l.tokens, Token{t, l.start, l.input[l.start:l.pos]})
	l.start = l.pos
}

func isIdent(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

func lexInit(l *lexer) stateFn {
	r := l.next()
	switch {
	case r == eof:
		l.emit(EOF)
		return nil
	case unicode.IsSpace(r):
		l.acceptWhile(unicode.IsSpace)
		l.ignore()
	case unicode.IsLetter(r) || r == '_':
		l.acceptWhile(isIdent)
		l.emit(Ident)
	case isDigit(r):
		l.acceptWhile(isDigit)
		l.emit(Int)
	case r == '[':
		l.emit(BracketOpen)
	case r == ']':
		l.emit(BracketClose)
	case r == ',':
		l.emit(Comma)
	case r == '=':
		l.emit(Equal)
		return lexValue
	case r == '.':
		if l.next() == '.' {
			l.emit(Range)
			break
		}
		l.backup()
		fallthrough
	default:
		l.emit(Raw)
		l.emit(EOF)
		return nil
	}
	return lexInit
}

// lexValue lexes the right hand side of an assignment.
//
func lexValue(l *lexer) stateFn {
	l.acceptWhile(unicode.IsSpace)
	l.ignore()
	l.acceptWhile(isIdent)
	if l.pos > l.start {
		l.emit(Literal)
	}
	return lexInit
}
