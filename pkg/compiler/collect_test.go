package compiler

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func collect(t *testing.T, src string) *Report {
	t.Helper()
	return Collect(parseOK(t, src), strings.Split(src, "\n"))
}

func TestCollectCleanProgram(t *testing.T) {
	report := collect(t, strings.Join([]string{
		"int limit = 2 + 3 * 4;",
		"bool on = true;",
		"fun int main() {",
		"    return limit;",
		"}",
	}, "\n"))
	be.True(t, report.Empty())
}

func TestCollectMissingMain(t *testing.T) {
	report := collect(t, "fun int helper() {\n    return 1;\n}\n")
	be.Equal(t, len(report.Diags), 1)
	d := report.Diags[0]
	be.Equal(t, d.Kind, DiagScope)
	be.Equal(t, d.Problems[0].Message,
		"No main function found; program must have a main function as the entry point.")
	be.Equal(t, d.Problems[0].Span, Span{1, 1, 1, 1})
}

// TestCollectMissingMainFirst: the missing-main diagnostic anchors at 1:1,
// so it always sorts ahead of anything else the pass finds.
func TestCollectMissingMainFirst(t *testing.T) {
	report := collect(t, "int x = 1;\nx = 2;\n")
	be.Equal(t, len(report.Diags), 2)
	be.True(t, strings.Contains(report.Diags[0].Problems[0].Message, "No main function found"))
	be.True(t, strings.Contains(report.Diags[1].Problems[0].Message, "Global statements are not allowed"))
}

func TestCollectRedeclaredFunction(t *testing.T) {
	report := collect(t, strings.Join([]string{
		"fun int f() { return 1; }",
		"fun int f() { return 2; }",
		"fun int main() { return 0; }",
	}, "\n"))
	be.Equal(t, len(report.Diags), 1)
	d := report.Diags[0]
	be.Equal(t, d.Problems[0].Message,
		"Function 'f' was previously declared; functions cannot be redeclared.")
	// The second declaration is the one reported, at its header.
	be.Equal(t, d.Problems[0].Span, Span{2, 1, 2, 10})
}

func TestCollectGlobalStatement(t *testing.T) {
	report := collect(t, strings.Join([]string{
		"int x = 1;",
		"x = 2;",
		"fun int main() { return 0; }",
	}, "\n"))
	be.Equal(t, len(report.Diags), 1)
	d := report.Diags[0]
	be.Equal(t, d.Problems[0].Message,
		"Global statements are not allowed; all executable statements must appear inside of a function.")
	be.Equal(t, d.Problems[0].Span, Span{2, 1, 2, 6})
}

func TestCollectNonConstInitializer(t *testing.T) {
	report := collect(t, strings.Join([]string{
		"fun int f() { return 1; }",
		"int x = f() + 1;",
		"fun int main() { return 0; }",
	}, "\n"))
	be.Equal(t, len(report.Diags), 1)
	d := report.Diags[0]
	be.Equal(t, len(d.Problems), 1)
	be.Equal(t, d.Problems[0].Message,
		"Global variable initial values must be constant; this is not a constant value.")
	be.Equal(t, d.Problems[0].Span, Span{2, 9, 2, 12})
}

// TestCollectNestedCall: a call inside an offending call's arguments is
// covered by the outer problem, so only one problem is reported.
func TestCollectNestedCall(t *testing.T) {
	report := collect(t, strings.Join([]string{
		"fun int g(int a) { return a; }",
		"fun int h() { return 1; }",
		"int y = g(h());",
		"fun int main() { return 0; }",
	}, "\n"))
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Span, Span{3, 9, 3, 15})
}

// TestCollectTwoCallsOneInitializer: two separate calls in one initializer
// render as one diagnostic carrying two problems.
func TestCollectTwoCallsOneInitializer(t *testing.T) {
	report := collect(t, strings.Join([]string{
		"fun int f() { return 1; }",
		"int z = f() + f();",
		"fun int main() { return 0; }",
	}, "\n"))
	be.Equal(t, len(report.Diags), 1)
	be.Equal(t, len(report.Diags[0].Problems), 2)
}

func TestCollectSignatures(t *testing.T) {
	stmts := parseOK(t, strings.Join([]string{
		"fun int f(int a) { return a; }",
		"fun bool f() { return true; }",
		"fun int main() { return 0; }",
	}, "\n"))
	env := CollectSignatures(stmts)
	be.True(t, env.DeclaredInScope("f"))
	be.True(t, env.DeclaredInScope("main"))
	be.True(t, !env.DeclaredInScope("g"))

	// The first declaration wins: f keeps its int return and one param.
	sym, ok := env.Lookup("f")
	be.True(t, ok)
	be.Equal(t, sym.Type, TypeInt)
	be.Equal(t, len(sym.Params), 1)
}
