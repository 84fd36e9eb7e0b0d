package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENT  // variable / function name
	NUMBER // decimal integer literal

	// Keywords
	INT     // "int"
	BOOL    // "bool"
	TRUE    // "true"
	FALSE   // "false"
	FUN     // "fun"
	IF      // "if"
	ELSE    // "else"
	WHILE   // "while"
	RETURN  // "return"
	PRINT   // "print"
	PRINTSP // "printsp"
	PRINTLN // "println"

	// Paired delimiters
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }

	// Punctuation
	COMMA     // ,
	SEMICOLON // ;

	// Operators (order matters: ASSIGN before EQUALS)
	PLUS       // +
	MINUS      // -
	STAR       // *
	SLASH      // /
	PERCENT    // %
	AND        // &&
	OR         // ||
	NOT        // !
	ASSIGN     // =
	EQUALS     // ==
	NOT_EQ     // !=
	LESS       // <
	LESS_EQ    // <=
	GREATER    // >
	GREATER_EQ // >=
)

// tokenNames holds the user-facing spelling of each token type. Parse
// errors quote these, so operators use their symbols and keywords their
// source text.
var tokenNames = [...]string{
	EOF:        "end of file",
	IDENT:      "identifier",
	NUMBER:     "number",
	INT:        "int",
	BOOL:       "bool",
	TRUE:       "true",
	FALSE:      "false",
	FUN:        "fun",
	IF:         "if",
	ELSE:       "else",
	WHILE:      "while",
	RETURN:     "return",
	PRINT:      "print",
	PRINTSP:    "printsp",
	PRINTLN:    "println",
	LPAREN:     "(",
	RPAREN:     ")",
	LBRACE:     "{",
	RBRACE:     "}",
	COMMA:      ",",
	SEMICOLON:  ";",
	PLUS:       "+",
	MINUS:      "-",
	STAR:       "*",
	SLASH:      "/",
	PERCENT:    "%",
	AND:        "&&",
	OR:         "||",
	NOT:        "!",
	ASSIGN:     "=",
	EQUALS:     "==",
	NOT_EQ:     "!=",
	LESS:       "<",
	LESS_EQ:    "<=",
	GREATER:    ">",
	GREATER_EQ: ">=",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// keywords maps reserved words to their token types. Any other word lexes
// as IDENT.
var keywords = map[string]TokenType{
	"int":     INT,
	"bool":    BOOL,
	"true":    TRUE,
	"false":   FALSE,
	"fun":     FUN,
	"if":      IF,
	"else":    ELSE,
	"while":   WHILE,
	"return":  RETURN,
	"print":   PRINT,
	"printsp": PRINTSP,
	"println": PRINTLN,
}

// Token is a single lexical unit produced by the Lexer. Columns are 1-based;
// EndCol is the column one past the last character of the lexeme.
type Token struct {
	Type     TokenType
	Lexeme   string // the exact source text that was matched
	Line     int    // 1-based source line
	StartCol int
	EndCol   int
}

func (t Token) String() string {
	return fmt.Sprintf("[%s] %q (line %d, cols %d-%d)", t.Type, t.Lexeme, t.Line, t.StartCol, t.EndCol)
}

// span returns the single-line source span covered by the token.
func (t Token) span() Span {
	return Span{StartLine: t.Line, StartCol: t.StartCol, EndLine: t.Line, EndCol: t.EndCol}
}
