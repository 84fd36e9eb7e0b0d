package compiler

import (
	"fmt"
	"strconv"
)

// Parser consumes the flat token slice produced by the Lexer and builds an
// AST. It stops at the first syntax problem.
//
// Grammar:
//
//	program    = statement* EOF
//	statement  = varDecl | assignment | funDecl | ifStmt | whileStmt
//	           | returnStmt | printStmt | block | exprStmt
//	varDecl    = type IDENT ("=" expression)? ";"
//	funDecl    = "fun" type IDENT "(" (param ("," param)*)? ")" "{" statement* "}"
//	param      = type IDENT
//	type       = "int" | "bool"
//	assignment = IDENT "=" expression ";"
//	ifStmt     = "if" "(" expression ")" statement ("else" statement)?
//	whileStmt  = "while" "(" expression ")" statement
//	returnStmt = "return" expression ";"
//	printStmt  = "print" expression ";"
//	           | ("printsp" | "println") expression? ";"
//	block      = "{" statement* "}"
//	expression = logicalOr
//	logicalOr  = logicalAnd ("||" logicalAnd)*
//	logicalAnd = equality ("&&" equality)*
//	equality   = relational (("==" | "!=") relational)*
//	relational = additive (("<" | "<=" | ">" | ">=") additive)*
//	additive   = multiplicative (("+" | "-") multiplicative)*
//	multiplicative = unary (("*" | "/" | "%") unary)*
//	unary      = ("-" | "!" | "+") unary | primary
//	primary    = NUMBER | "true" | "false" | IDENT ("(" args ")")?
//	           | "(" expression ")"
type Parser struct {
	tokens     []Token
	pos        int
	lines      []string
	inFunction int // > 0 while inside a function body
}

func NewParser(tokens []Token, lines []string) *Parser {
	return &Parser{tokens: tokens, lines: lines}
}

// fmtError builds a syntax diagnostic pointing at the given span.
func (p *Parser) fmtError(span Span, format string, args ...any) error {
	problem := Problem{Span: span, Message: fmt.Sprintf(format, args...)}
	return NewDiag(DiagParse, []Problem{problem}, p.lines)
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) == 0 {
			return Token{Type: EOF, Line: 1, StartCol: 1, EndCol: 1}
		}
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

// peekNext returns the token immediately after the current one.
func (p *Parser) peekNext() Token {
	if p.pos+1 >= len(p.tokens) {
		return p.peek()
	}
	return p.tokens[p.pos+1]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an
// error pointing at the token that was found instead.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.fmtError(tok.span(), "Expected token of type %s, but got %s.", tt, tok.Type)
	}
	return p.advance(), nil
}

// parseType consumes an int or bool keyword.
func (p *Parser) parseType() (VarType, Token, error) {
	tok := p.peek()
	switch tok.Type {
	case INT:
		p.advance()
		return TypeInt, tok, nil
	case BOOL:
		p.advance()
		return TypeBool, tok, nil
	}
	return TypeErr, tok, p.fmtError(tok.span(), "Expected token of type type, but got %s.", tok.Type)
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseLogicalOr()
}

// parseLogicalOr handles ||
func (p *Parser) parseLogicalOr() (Expr, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == OR {
		op := p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right, Span: joinSpans(left.span(), right.span())}
	}
	return left, nil
}

// parseLogicalAnd handles &&
func (p *Parser) parseLogicalAnd() (Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == AND {
		op := p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right, Span: joinSpans(left.span(), right.span())}
	}
	return left, nil
}

// parseEquality handles == and !=
func (p *Parser) parseEquality() (Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == EQUALS || p.peek().Type == NOT_EQ {
		op := p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right, Span: joinSpans(left.span(), right.span())}
	}
	return left, nil
}

// parseRelational handles <, <=, > and >=
func (p *Parser) parseRelational() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case LESS, LESS_EQ, GREATER, GREATER_EQ:
		default:
			return left, nil
		}
		op := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right, Span: joinSpans(left.span(), right.span())}
	}
}

// parseAdditive handles + and -
func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == PLUS || p.peek().Type == MINUS {
		op := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right, Span: joinSpans(left.span(), right.span())}
	}
	return left, nil
}

// parseMultiplicative handles *, / and %
func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == STAR || p.peek().Type == SLASH || p.peek().Type == PERCENT {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right, Span: joinSpans(left.span(), right.span())}
	}
	return left, nil
}

// parseUnary handles prefix -, ! and +
func (p *Parser) parseUnary() (Expr, error) {
	tok := p.peek()
	if tok.Type == MINUS || tok.Type == NOT || tok.Type == PLUS {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: tok.Type, Operand: operand, Span: joinSpans(tok.span(), operand.span())}, nil
	}
	return p.parsePrimary()
}

// parsePrimary handles literals, variable reads, calls, and parenthesised
// expressions.
func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case NUMBER:
		p.advance()
		v, err := strconv.Atoi(tok.Lexeme)
		if err != nil {
			return nil, p.fmtError(tok.span(), "Invalid integer literal.")
		}
		return &IntLit{Value: v, Span: tok.span()}, nil
	case TRUE, FALSE:
		p.advance()
		return &BoolLit{Value: tok.Type == TRUE, Span: tok.span()}, nil
	case IDENT:
		p.advance()
		if p.peek().Type == LPAREN {
			return p.parseCall(tok)
		}
		return &VarRef{Name: tok.Lexeme, Span: tok.span()}, nil
	case LPAREN:
		p.advance()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		// A parenthesised expression keeps the inner span.
		return e, nil
	}
	return nil, p.fmtError(tok.span(),
		"Unexpected token '%s' of type %s. Expected one of: NUMBER, BOOLEAN, IDENTIFIER, or '(' expression ')'.",
		tok.Lexeme, tok.Type)
}

// parseCall parses the argument list of a call whose name token has
// already been consumed.
func (p *Parser) parseCall(nameTok Token) (Expr, error) {
	p.advance() // (
	var args []Expr
	if p.peek().Type != RPAREN {
		for {
			a, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
	}
	rparen, err := p.expect(RPAREN)
	if err != nil {
		return nil, err
	}
	return &CallExpr{Callee: nameTok.Lexeme, Args: args, Span: joinSpans(nameTok.span(), rparen.span())}, nil
}

// parseStatement dispatches to the correct sub-parser based on the leading
// token.
func (p *Parser) parseStatement() (Stmt, error) {
	switch p.peek().Type {
	case PRINT:
		return p.parsePrint(PrintPlain)
	case PRINTSP:
		return p.parsePrint(PrintSpace)
	case PRINTLN:
		return p.parsePrint(PrintLine)
	case RETURN:
		return p.parseReturn()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case INT, BOOL:
		return p.parseVarDecl()
	case FUN:
		return p.parseFunctionDecl()
	case LBRACE:
		return p.parseBlockStmt()
	case IDENT:
		if p.peekNext().Type == ASSIGN {
			return p.parseAssignment()
		}
	}
	return p.parseExprStmt()
}

// parseVarDecl parses  type IDENT ("=" expression)? ";"
func (p *Parser) parseVarDecl() (Stmt, error) {
	vt, typeTok, err := p.parseType()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	declSpan := joinSpans(typeTok.span(), nameTok.span())
	d := &VarDecl{Name: nameTok.Lexeme, Type: vt, Span: declSpan, DeclSpan: declSpan}
	if p.peek().Type == ASSIGN {
		p.advance()
		init, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		d.Init = init
		d.Span = joinSpans(declSpan, init.span())
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return d, nil
}

// parseAssignment parses  IDENT "=" expression ";"
// The leading IDENT is still at p.peek().
func (p *Parser) parseAssignment() (Stmt, error) {
	nameTok := p.advance()
	p.advance() // =
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &AssignStmt{Name: nameTok.Lexeme, Value: value, Span: joinSpans(nameTok.span(), value.span())}, nil
}

// parseFunctionDecl parses  fun type name(params) { body }
func (p *Parser) parseFunctionDecl() (Stmt, error) {
	funTok := p.peek()
	if p.inFunction > 0 {
		return nil, p.fmtError(funTok.span(), "Nested functions are not supported.")
	}
	p.advance()
	retType, _, err := p.parseType()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	var params []Param
	if p.peek().Type != RPAREN {
		for {
			ptype, ptok, err := p.parseType()
			if err != nil {
				return nil, err
			}
			pname, err := p.expect(IDENT)
			if err != nil {
				return nil, err
			}
			params = append(params, Param{Name: pname.Lexeme, Type: ptype, Span: joinSpans(ptok.span(), pname.span())})
			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	p.inFunction++
	body, bodySpan, err := p.parseBlock()
	p.inFunction--
	if err != nil {
		return nil, err
	}
	return &FunDecl{
		Name:       nameTok.Lexeme,
		Params:     params,
		ReturnType: retType,
		Body:       body,
		Span:       joinSpans(funTok.span(), bodySpan),
		HeaderSpan: joinSpans(funTok.span(), nameTok.span()),
	}, nil
}

// parseIf parses  if ( cond ) stmt [ else stmt ]
func (p *Parser) parseIf() (Stmt, error) {
	ifTok := p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &IfStmt{Cond: cond, Then: then, Span: joinSpans(ifTok.span(), then.span())}
	if p.peek().Type == ELSE {
		p.advance()
		other, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Else = other
		stmt.Span = joinSpans(ifTok.span(), other.span())
	}
	return stmt, nil
}

// parseWhile parses  while ( cond ) stmt
func (p *Parser) parseWhile() (Stmt, error) {
	whileTok := p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body, Span: joinSpans(whileTok.span(), body.span())}, nil
}

// parseReturn parses  return expression ;
func (p *Parser) parseReturn() (Stmt, error) {
	kw := p.advance()
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &ReturnStmt{Value: value, Span: joinSpans(kw.span(), value.span())}, nil
}

// parsePrint parses the three print forms. print requires a value;
// printsp and println may omit it to emit just their trailing character.
func (p *Parser) parsePrint(mode PrintMode) (Stmt, error) {
	kw := p.advance()
	if mode != PrintPlain && p.peek().Type == SEMICOLON {
		p.advance()
		return &PrintStmt{Mode: mode, Span: kw.span()}, nil
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &PrintStmt{Mode: mode, Value: value, Span: joinSpans(kw.span(), value.span())}, nil
}

// parseBlockStmt parses a braced block used as a statement.
func (p *Parser) parseBlockStmt() (Stmt, error) {
	stmts, span, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &BlockStmt{Stmts: stmts, Span: span}, nil
}

// parseBlock parses { stmt1; stmt2; ... } and returns the statements along
// with the span from the opening brace through the closing one.
func (p *Parser) parseBlock() ([]Stmt, Span, error) {
	open, err := p.expect(LBRACE)
	if err != nil {
		return nil, Span{}, err
	}
	var stmts []Stmt
	for p.peek().Type != RBRACE && p.peek().Type != EOF {
		s, err := p.parseStatement()
		if err != nil {
			return nil, Span{}, err
		}
		stmts = append(stmts, s)
	}
	closing, err := p.expect(RBRACE)
	if err != nil {
		return nil, Span{}, err
	}
	return stmts, joinSpans(open.span(), closing.span()), nil
}

// parseExprStmt parses  expression ;
func (p *Parser) parseExprStmt() (Stmt, error) {
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &ExprStmt{Expr: e, Span: e.span()}, nil
}

// Parse builds the statement list for a whole program. The error, when not
// nil, is a *Diag describing the first syntax problem found.
func Parse(tokens []Token, lines []string) ([]Stmt, error) {
	p := NewParser(tokens, lines)
	var stmts []Stmt
	for p.peek().Type != EOF {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}
