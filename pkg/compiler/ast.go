package compiler

import (
	"fmt"
	"strings"
)

// VarType is the type of a value in the language. TypeErr is the poisoned
// type given to an expression that already has a reported problem; checks
// involving it stay quiet so one mistake is not reported twice.
type VarType int

const (
	TypeInt VarType = iota
	TypeBool
	TypeErr
)

func (t VarType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	}
	return "ERROR"
}

//  Expression nodes

// Expr is implemented by every node that produces a value. Each node keeps
// the source span it was parsed from so checker problems can point at it.
type Expr interface {
	exprNode()
	span() Span
	String() string
}

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
	span() Span
	String() string
}

// IntLit is a decimal integer literal.
//
//	int x = 10;
//	        ^^  IntLit{Value: 10}
type IntLit struct {
	Value int
	Span  Span
}

// BoolLit is a true or false literal.
type BoolLit struct {
	Value bool
	Span  Span
}

// VarRef is a read of a named variable.
//
//	return x;
//	       ^  VarRef{Name: "x"}
type VarRef struct {
	Name string
	Span Span
}

// UnaryExpr represents Op Operand, where Op is MINUS or NOT.
type UnaryExpr struct {
	Op      TokenType
	Operand Expr
	Span    Span
}

// BinaryExpr represents a binary operation: Left Op Right.
//
//	x + 1
//	^ ^ ^
//	| | |
//	| | Right
//	| Op
//	Left
type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
	Span  Span
}

// CallExpr represents name(args). The span runs from the callee name
// through the closing parenthesis.
type CallExpr struct {
	Callee string
	Args   []Expr
	Span   Span
}

func (*IntLit) exprNode()     {}
func (*BoolLit) exprNode()    {}
func (*VarRef) exprNode()     {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*CallExpr) exprNode()   {}

func (e *IntLit) span() Span     { return e.Span }
func (e *BoolLit) span() Span    { return e.Span }
func (e *VarRef) span() Span     { return e.Span }
func (e *UnaryExpr) span() Span  { return e.Span }
func (e *BinaryExpr) span() Span { return e.Span }
func (e *CallExpr) span() Span   { return e.Span }

func (e *IntLit) String() string { return fmt.Sprintf("%d", e.Value) }

func (e *BoolLit) String() string {
	if e.Value {
		return "true"
	}
	return "false"
}

func (e *VarRef) String() string { return e.Name }

func (e *UnaryExpr) String() string {
	return fmt.Sprintf("(%s%s)", e.Op, e.Operand)
}

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(args, ", "))
}

//  Statement nodes

// Param is one parameter in a function declaration. Its span covers the
// type keyword through the parameter name.
type Param struct {
	Name string
	Type VarType
	Span Span
}

// VarDecl represents  int name = expr;  with an optional initializer.
// DeclSpan covers just the type keyword through the name, which is where
// redeclaration problems point.
type VarDecl struct {
	Name     string
	Type     VarType
	Init     Expr // nil when declared without a value
	Span     Span
	DeclSpan Span
}

// AssignStmt represents  name = expr;
type AssignStmt struct {
	Name  string
	Value Expr
	Span  Span
}

// FunDecl represents  fun type name(params) { body }. HeaderSpan covers
// the fun keyword through the function name.
type FunDecl struct {
	Name       string
	Params     []Param
	ReturnType VarType
	Body       []Stmt
	Span       Span
	HeaderSpan Span
}

// IfStmt represents if (cond) then [else other]. Else is nil when no else
// branch was written.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt
	Span Span
}

// WhileStmt represents while (cond) body.
type WhileStmt struct {
	Cond Expr
	Body Stmt
	Span Span
}

// BlockStmt is a braced statement list introducing a new scope.
type BlockStmt struct {
	Stmts []Stmt
	Span  Span
}

// ReturnStmt represents  return expr;
type ReturnStmt struct {
	Value Expr
	Span  Span
}

// PrintMode selects what a print statement writes after its value.
type PrintMode int

const (
	PrintPlain PrintMode = iota // just the value
	PrintSpace                  // value then a space
	PrintLine                   // value then a newline
)

// PrintStmt writes an integer value to output. Value may be nil for
// printsp and println, which then emit only their trailing character.
type PrintStmt struct {
	Mode  PrintMode
	Value Expr
	Span  Span
}

// ExprStmt represents an expression evaluated for its side effects (e.g. a
// function call).
type ExprStmt struct {
	Expr Expr
	Span Span
}

func (*VarDecl) stmtNode()    {}
func (*AssignStmt) stmtNode() {}
func (*FunDecl) stmtNode()    {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}
func (*BlockStmt) stmtNode()  {}
func (*ReturnStmt) stmtNode() {}
func (*PrintStmt) stmtNode()  {}
func (*ExprStmt) stmtNode()   {}

func (s *VarDecl) span() Span    { return s.Span }
func (s *AssignStmt) span() Span { return s.Span }
func (s *FunDecl) span() Span    { return s.Span }
func (s *IfStmt) span() Span     { return s.Span }
func (s *WhileStmt) span() Span  { return s.Span }
func (s *BlockStmt) span() Span  { return s.Span }
func (s *ReturnStmt) span() Span { return s.Span }
func (s *PrintStmt) span() Span  { return s.Span }
func (s *ExprStmt) span() Span   { return s.Span }

func (s *VarDecl) String() string {
	if s.Init == nil {
		return fmt.Sprintf("%s %s;", s.Type, s.Name)
	}
	return fmt.Sprintf("%s %s = %s;", s.Type, s.Name, s.Init)
}

func (s *AssignStmt) String() string {
	return fmt.Sprintf("%s = %s;", s.Name, s.Value)
}

func (s *FunDecl) String() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.Type.String() + " " + p.Name
	}
	return fmt.Sprintf("fun %s %s(%s) %s", s.ReturnType, s.Name, strings.Join(params, ", "), formatBlock(s.Body))
}

func (s *IfStmt) String() string {
	if s.Else == nil {
		return fmt.Sprintf("if (%s) %s", s.Cond, s.Then)
	}
	return fmt.Sprintf("if (%s) %s else %s", s.Cond, s.Then, s.Else)
}

func (s *WhileStmt) String() string {
	return fmt.Sprintf("while (%s) %s", s.Cond, s.Body)
}

func (s *BlockStmt) String() string { return formatBlock(s.Stmts) }

func (s *ReturnStmt) String() string {
	return fmt.Sprintf("return %s;", s.Value)
}

func (s *PrintStmt) String() string {
	kw := "print"
	switch s.Mode {
	case PrintSpace:
		kw = "printsp"
	case PrintLine:
		kw = "println"
	}
	if s.Value == nil {
		return kw + ";"
	}
	return fmt.Sprintf("%s %s;", kw, s.Value)
}

func (s *ExprStmt) String() string { return s.Expr.String() + ";" }

func formatBlock(stmts []Stmt) string {
	if len(stmts) == 0 {
		return "{ }"
	}
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = s.String()
	}
	return "{ " + strings.Join(parts, " ") + " }"
}
