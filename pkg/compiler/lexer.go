package compiler

import (
	"fmt"
	"strings"
	"unicode"
)

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // 1-based column of the next rune to consume

	problems []Problem
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1, col: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipLineComment discards everything from the current position to end-of-line.
// The opening "//" must already have been consumed.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

// skipBlockComment discards everything up to and including the closing "*/".
// The opening "/*" must already have been consumed. It reports whether the
// comment was actually closed before end of input.
func (l *Lexer) skipBlockComment() bool {
	for l.pos < len(l.src) {
		if l.peek() == '*' && l.peek2() == '/' {
			l.advance() // *
			l.advance() // /
			return true
		}
		l.advance()
	}
	return false
}

func (l *Lexer) problem(span Span, msg string) {
	l.problems = append(l.problems, Problem{Span: span, Message: msg})
}

// scanIdent collects a full identifier or keyword token.
// The first character (letter or '_') must still be at l.peek().
func (l *Lexer) scanIdent() Token {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENT
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Line: line, StartCol: col, EndCol: l.col}
}

// scanNumber collects a decimal integer literal.
// The first digit must still be at l.peek().
func (l *Lexer) scanNumber() Token {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	return Token{Type: NUMBER, Lexeme: string(l.src[start:l.pos]), Line: line, StartCol: col, EndCol: l.col}
}

func (l *Lexer) emit(tt TokenType, lexeme string, line, col int) (Token, bool) {
	return Token{Type: tt, Lexeme: lexeme, Line: line, StartCol: col, EndCol: l.col}, true
}

// nextToken skips whitespace and comments and scans the next token. The
// second result is false when a problem was recorded instead; scanning can
// continue with the following character.
func (l *Lexer) nextToken() (Token, bool) {
	// Skip whitespace and both comment styles in a loop so that
	// a comment followed immediately by more whitespace is handled.
	for {
		l.skipWhitespace()
		if l.pos >= len(l.src) {
			return Token{Type: EOF, Lexeme: "", Line: l.line, StartCol: l.col, EndCol: l.col}, true
		}
		if l.peek() == '/' && l.peek2() == '/' {
			l.advance()
			l.advance()
			l.skipLineComment()
			continue
		}
		if l.peek() == '/' && l.peek2() == '*' {
			line, col := l.line, l.col
			l.advance()
			l.advance()
			if !l.skipBlockComment() {
				l.problem(Span{line, col, line, col + 2}, "Unterminated block comment.")
				return Token{}, false
			}
			continue
		}
		break
	}

	ch := l.peek()
	line, col := l.line, l.col

	if unicode.IsLetter(ch) || ch == '_' {
		return l.scanIdent(), true
	}
	if unicode.IsDigit(ch) {
		return l.scanNumber(), true
	}

	l.advance() // consume the character before the switch
	switch ch {
	case '{':
		return l.emit(LBRACE, "{", line, col)
	case '}':
		return l.emit(RBRACE, "}", line, col)
	case '(':
		return l.emit(LPAREN, "(", line, col)
	case ')':
		return l.emit(RPAREN, ")", line, col)
	case ';':
		return l.emit(SEMICOLON, ";", line, col)
	case ',':
		return l.emit(COMMA, ",", line, col)
	case '+':
		return l.emit(PLUS, "+", line, col)
	case '-':
		return l.emit(MINUS, "-", line, col)
	case '*':
		return l.emit(STAR, "*", line, col)
	case '/':
		return l.emit(SLASH, "/", line, col)
	case '%':
		return l.emit(PERCENT, "%", line, col)
	case '&':
		if l.peek() == '&' {
			l.advance()
			return l.emit(AND, "&&", line, col)
		}
		l.problem(Span{line, col, line, col + 1}, "Undefined token '&'.")
		return Token{}, false
	case '|':
		if l.peek() == '|' {
			l.advance()
			return l.emit(OR, "||", line, col)
		}
		l.problem(Span{line, col, line, col + 1}, "Undefined token '|'.")
		return Token{}, false
	case '!':
		if l.peek() == '=' {
			l.advance()
			return l.emit(NOT_EQ, "!=", line, col)
		}
		return l.emit(NOT, "!", line, col)
	case '<':
		if l.peek() == '=' {
			l.advance()
			return l.emit(LESS_EQ, "<=", line, col)
		}
		return l.emit(LESS, "<", line, col)
	case '>':
		if l.peek() == '=' {
			l.advance()
			return l.emit(GREATER_EQ, ">=", line, col)
		}
		return l.emit(GREATER, ">", line, col)
	case '=':
		if l.peek() == '=' { // lookahead: distinguish = vs ==
			l.advance()
			return l.emit(EQUALS, "==", line, col)
		}
		return l.emit(ASSIGN, "=", line, col)
	default:
		l.problem(Span{line, col, line, col + 1}, fmt.Sprintf("Unexpected character '%c'.", ch))
		return Token{}, false
	}
}

// Lex tokenises src and returns all tokens including the final EOF token.
// When the source contains illegal characters the tokens scanned so far
// still come back, along with a single *Diag error covering every problem
// found.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, ok := l.nextToken()
		if !ok {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	if len(l.problems) > 0 {
		return tokens, NewDiag(DiagLex, l.problems, strings.Split(src, "\n"))
	}
	return tokens, nil
}
