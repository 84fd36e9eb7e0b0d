package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nalgeon/be"
)

// parseOK lexes and parses src, failing the test on any problem.
func parseOK(t *testing.T, src string) []Stmt {
	t.Helper()
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q): %v", src, err)
	}
	stmts, err := Parse(tokens, strings.Split(src, "\n"))
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return stmts
}

// parseErr parses src and returns the syntax diagnostic it must produce.
func parseErr(t *testing.T, src string) *Diag {
	t.Helper()
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q): %v", src, err)
	}
	_, err = Parse(tokens, strings.Split(src, "\n"))
	var d *Diag
	if !errors.As(err, &d) {
		t.Fatalf("Parse(%q) error = %v, want *Diag", src, err)
	}
	return d
}

func TestParseVarDecl(t *testing.T) {
	stmts := parseOK(t, "int x = 5;")
	want := []Stmt{
		&VarDecl{
			Name:     "x",
			Type:     TypeInt,
			Init:     &IntLit{Value: 5, Span: Span{1, 9, 1, 10}},
			Span:     Span{1, 1, 1, 10},
			DeclSpan: Span{1, 1, 1, 6},
		},
	}
	if diff := cmp.Diff(want, stmts); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}

	stmts = parseOK(t, "bool flag;")
	want = []Stmt{
		&VarDecl{
			Name:     "flag",
			Type:     TypeBool,
			Span:     Span{1, 1, 1, 10},
			DeclSpan: Span{1, 1, 1, 10},
		},
	}
	if diff := cmp.Diff(want, stmts); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFunDecl(t *testing.T) {
	stmts := parseOK(t, "fun int add(int a, int b) {\n    return a + b;\n}\n")
	want := []Stmt{
		&FunDecl{
			Name: "add",
			Params: []Param{
				{Name: "a", Type: TypeInt, Span: Span{1, 13, 1, 18}},
				{Name: "b", Type: TypeInt, Span: Span{1, 20, 1, 25}},
			},
			ReturnType: TypeInt,
			Body: []Stmt{
				&ReturnStmt{
					Value: &BinaryExpr{
						Op:    PLUS,
						Left:  &VarRef{Name: "a", Span: Span{2, 12, 2, 13}},
						Right: &VarRef{Name: "b", Span: Span{2, 16, 2, 17}},
						Span:  Span{2, 12, 2, 17},
					},
					Span: Span{2, 5, 2, 17},
				},
			},
			Span:       Span{1, 1, 3, 2},
			HeaderSpan: Span{1, 1, 1, 12},
		},
	}
	if diff := cmp.Diff(want, stmts); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCall(t *testing.T) {
	stmts := parseOK(t, "add(1, x);")
	want := []Stmt{
		&ExprStmt{
			Expr: &CallExpr{
				Callee: "add",
				Args: []Expr{
					&IntLit{Value: 1, Span: Span{1, 5, 1, 6}},
					&VarRef{Name: "x", Span: Span{1, 8, 1, 9}},
				},
				Span: Span{1, 1, 1, 10},
			},
			Span: Span{1, 1, 1, 10},
		},
	}
	if diff := cmp.Diff(want, stmts); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}

	stmts = parseOK(t, "f();")
	call := stmts[0].(*ExprStmt).Expr.(*CallExpr)
	be.Equal(t, call.Callee, "f")
	be.Equal(t, len(call.Args), 0)
}

// TestParsePrecedence checks operator binding through the String rendering,
// which parenthesises every binary and unary node.
func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3;", "(1 + (2 * 3));"},
		{"(1 + 2) * 3;", "((1 + 2) * 3);"},
		{"1 - 2 - 3;", "((1 - 2) - 3);"},
		{"8 / 2 % 3;", "((8 / 2) % 3);"},
		{"a || b && c;", "(a || (b && c));"},
		{"1 < 2 == true;", "((1 < 2) == true);"},
		{"a == b != c;", "((a == b) != c);"},
		{"1 + 2 < 3 * 4;", "((1 + 2) < (3 * 4));"},
		{"-x * 3;", "((-x) * 3);"},
		{"!a && b;", "((!a) && b);"},
		{"- -5;", "(-(-5));"},
		{"+x;", "(+x);"},
	}
	for _, tt := range tests {
		stmts := parseOK(t, tt.src)
		be.Equal(t, stmts[0].String(), tt.want)
	}
}

func TestParsePrintForms(t *testing.T) {
	tests := []struct {
		src      string
		mode     PrintMode
		hasValue bool
	}{
		{"print 5;", PrintPlain, true},
		{"printsp 5;", PrintSpace, true},
		{"println 5;", PrintLine, true},
		{"printsp;", PrintSpace, false},
		{"println;", PrintLine, false},
	}
	for _, tt := range tests {
		stmts := parseOK(t, tt.src)
		p := stmts[0].(*PrintStmt)
		be.Equal(t, p.Mode, tt.mode)
		be.Equal(t, p.Value != nil, tt.hasValue)
	}

	// Plain print always needs a value.
	d := parseErr(t, "print;")
	be.Equal(t, d.Problems[0].Message,
		"Unexpected token ';' of type ;. Expected one of: NUMBER, BOOLEAN, IDENTIFIER, or '(' expression ')'.")
}

func TestParseIfElse(t *testing.T) {
	stmts := parseOK(t, "if (x > 0) { print x; } else { print 0; }")
	s := stmts[0].(*IfStmt)
	be.True(t, s.Else != nil)
	be.Equal(t, s.Span, Span{1, 1, 1, 42})

	// An else binds to the nearest if.
	stmts = parseOK(t, "if (a) if (b) print 1; else print 2;")
	outer := stmts[0].(*IfStmt)
	be.True(t, outer.Else == nil)
	inner := outer.Then.(*IfStmt)
	be.True(t, inner.Else != nil)
}

func TestParseWhile(t *testing.T) {
	stmts := parseOK(t, "while (n > 0) n = n - 1;")
	s := stmts[0].(*WhileStmt)
	be.Equal(t, s.Cond.String(), "(n > 0)")
	if _, ok := s.Body.(*AssignStmt); !ok {
		t.Fatalf("body = %T, want *AssignStmt", s.Body)
	}
	be.Equal(t, s.Span, Span{1, 1, 1, 24})
}

func TestParseBlock(t *testing.T) {
	stmts := parseOK(t, "{\n    int x = 1;\n    x = 2;\n}")
	b := stmts[0].(*BlockStmt)
	be.Equal(t, len(b.Stmts), 2)
	be.Equal(t, b.Span, Span{1, 1, 4, 2})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
		span    Span
	}{
		{
			name:    "missing semicolon",
			src:     "int x = 5",
			message: "Expected token of type ;, but got end of file.",
			span:    Span{1, 10, 1, 10},
		},
		{
			name:    "unclosed function body",
			src:     "fun int main() { print 1;",
			message: "Expected token of type }, but got end of file.",
			span:    Span{1, 26, 1, 26},
		},
		{
			name:    "nested function",
			src:     "fun int outer() { fun int inner() { return 1; } }",
			message: "Nested functions are not supported.",
			span:    Span{1, 19, 1, 22},
		},
		{
			name:    "unknown type in function header",
			src:     "fun string f() {}",
			message: "Expected token of type type, but got identifier.",
			span:    Span{1, 5, 1, 11},
		},
		{
			name:    "if without parentheses",
			src:     "if x > 0 { }",
			message: "Expected token of type (, but got identifier.",
			span:    Span{1, 4, 1, 5},
		},
		{
			name:    "initializer missing expression",
			src:     "int x = ;",
			message: "Unexpected token ';' of type ;. Expected one of: NUMBER, BOOLEAN, IDENTIFIER, or '(' expression ')'.",
			span:    Span{1, 9, 1, 10},
		},
		{
			name:    "missing call argument",
			src:     "f(1,);",
			message: "Unexpected token ')' of type ). Expected one of: NUMBER, BOOLEAN, IDENTIFIER, or '(' expression ')'.",
			span:    Span{1, 5, 1, 6},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parseErr(t, tt.src)
			be.Equal(t, d.Kind, DiagParse)
			be.Equal(t, len(d.Problems), 1)
			be.Equal(t, d.Problems[0].Message, tt.message)
			be.Equal(t, d.Problems[0].Span, tt.span)
		})
	}
}
