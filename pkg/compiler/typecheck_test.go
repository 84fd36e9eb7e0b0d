package compiler

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func checkTypes(t *testing.T, src string) *Report {
	t.Helper()
	return CheckTypes(parseOK(t, src), strings.Split(src, "\n"))
}

func TestCheckTypesClean(t *testing.T) {
	report := checkTypes(t, strings.Join([]string{
		"int limit = 100;",
		"fun bool under(int n) {",
		"    return n < limit;",
		"}",
		"fun int main() {",
		"    int n = 3 * 4 + 1;",
		"    bool ok = under(n) && !false;",
		"    if (ok) {",
		"        print n;",
		"    }",
		"    while (n > 0) {",
		"        n = n - 1;",
		"    }",
		"    return n;",
		"}",
	}, "\n"))
	be.True(t, report.Empty())
}

func TestCheckTypesVarDecl(t *testing.T) {
	report := checkTypes(t, "fun int main() {\n    int x = true;\n    return x;\n}\n")
	be.Equal(t, report.Problems(), 1)
	d := report.Diags[0]
	be.Equal(t, d.Kind, DiagType)
	be.Equal(t, d.Problems[0].Message,
		"Variable 'x' expected value of type int, but value is of type bool.")
	be.Equal(t, d.Problems[0].Span, Span{2, 13, 2, 17})

	report = checkTypes(t, "fun int main() {\n    bool b = 5;\n    return 0;\n}\n")
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Variable 'b' expected value of type bool, but value is of type int.")
}

func TestCheckTypesAssign(t *testing.T) {
	report := checkTypes(t, strings.Join([]string{
		"fun int main() {",
		"    int x = 1;",
		"    x = true;",
		"    return x;",
		"}",
	}, "\n"))
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Variable x expected value of type int, but value is of type bool.")
	be.Equal(t, report.Diags[0].Problems[0].Span, Span{3, 9, 3, 13})
}

func TestCheckTypesCondition(t *testing.T) {
	report := checkTypes(t, "fun int main() {\n    if (1) { return 1; }\n    return 0;\n}\n")
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Conditional expressions need to be of type bool, but this expression is of type int.")

	report = checkTypes(t, "fun int main() {\n    while (2 + 3) { return 1; }\n    return 0;\n}\n")
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Conditional expressions need to be of type bool, but this expression is of type int.")
}

func TestCheckTypesReturn(t *testing.T) {
	report := checkTypes(t, "fun int main() {\n    return true;\n}\n")
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Function is of type int, but return value is of type bool.")
	be.Equal(t, report.Diags[0].Problems[0].Span, Span{2, 5, 2, 16})

	report = checkTypes(t, strings.Join([]string{
		"fun bool flag() {",
		"    return 0;",
		"}",
		"fun int main() { return 0; }",
	}, "\n"))
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Function is of type bool, but return value is of type int.")
}

func TestCheckTypesUnary(t *testing.T) {
	report := checkTypes(t, "fun int main() {\n    int x = -true;\n    return x;\n}\n")
	// The variable declaration stays quiet about the poisoned initializer.
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Operator '-' expects expression of type int, but got expression of type bool.")

	report = checkTypes(t, "fun int main() {\n    bool b = !5;\n    return 0;\n}\n")
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Operator '!' expects expression of type bool, but got expression of type int.")
}

func TestCheckTypesBinary(t *testing.T) {
	// Only the offending operand is reported, and the poisoned result keeps
	// the enclosing declaration quiet: exactly one problem.
	report := checkTypes(t, "fun int main() {\n    int x = true + 1;\n    return x;\n}\n")
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Operator '+' expects expressions of type int, but got expression of type bool.")
	be.Equal(t, report.Diags[0].Problems[0].Span, Span{2, 13, 2, 17})

	// Both operands wrong: two problems, one diagnostic.
	report = checkTypes(t, "fun int main() {\n    int x = true + false;\n    return x;\n}\n")
	be.Equal(t, len(report.Diags), 1)
	be.Equal(t, report.Problems(), 2)

	report = checkTypes(t, "fun int main() {\n    bool b = 1 && true;\n    return 0;\n}\n")
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Operator '&&' expects expressions of type bool, but got expression of type int.")

	report = checkTypes(t, "fun int main() {\n    bool b = 1 < true;\n    return 0;\n}\n")
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Operator '<' expects expressions of type int, but got expression of type bool.")
}

func TestCheckTypesEquality(t *testing.T) {
	report := checkTypes(t, "fun int main() {\n    bool b = 1 == true;\n    return 0;\n}\n")
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Operator '==' expects expressions of the same type, but left expression is of type int while right expression is of type bool.")

	report = checkTypes(t, "fun int main() {\n    bool b = true != 0;\n    return 0;\n}\n")
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Operator '!=' expects expressions of the same type, but left expression is of type bool while right expression is of type int.")

	// An operand already in error silences the equality check.
	report = checkTypes(t, "fun int main() {\n    bool b = -true == 1;\n    return 0;\n}\n")
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Operator '-' expects expression of type int, but got expression of type bool.")
}

// TestCheckTypesCascade: one mistake deep in an expression is reported
// once; every operator above it sees the error sentinel and stays quiet.
func TestCheckTypesCascade(t *testing.T) {
	report := checkTypes(t, "fun int main() {\n    int x = (true + 1) * 2 - 7;\n    return x;\n}\n")
	be.Equal(t, report.Problems(), 1)
}

func TestCheckTypesCallArity(t *testing.T) {
	report := checkTypes(t, strings.Join([]string{
		"fun int add(int a, int b) { return a + b; }",
		"fun int main() {",
		"    return add(1);",
		"}",
	}, "\n"))
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Function add expects 2 parameters, but was given 1.")
	be.Equal(t, report.Diags[0].Problems[0].Span, Span{3, 12, 3, 18})

	// With the count wrong the argument types are not second-guessed.
	report = checkTypes(t, strings.Join([]string{
		"fun int add(int a, int b) { return a + b; }",
		"fun int main() {",
		"    return add(true);",
		"}",
	}, "\n"))
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Function add expects 2 parameters, but was given 1.")
}

func TestCheckTypesCallParam(t *testing.T) {
	report := checkTypes(t, strings.Join([]string{
		"fun int add(int a, int b) { return a + b; }",
		"fun int main() {",
		"    return add(1, true);",
		"}",
	}, "\n"))
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Parameter 'b' is of type int, but was given value of type bool.")
	be.Equal(t, report.Diags[0].Problems[0].Span, Span{3, 19, 3, 23})
}

// TestCheckTypesCallResult: a call's type is its declared return type, so
// it participates in the surrounding checks.
func TestCheckTypesCallResult(t *testing.T) {
	report := checkTypes(t, strings.Join([]string{
		"fun bool flag() { return true; }",
		"fun int main() {",
		"    int x = flag();",
		"    return x;",
		"}",
	}, "\n"))
	be.Equal(t, report.Problems(), 1)
	be.Equal(t, report.Diags[0].Problems[0].Message,
		"Variable 'x' expected value of type int, but value is of type bool.")
}

// TestCheckTypesPrint: print takes either scalar type.
func TestCheckTypesPrint(t *testing.T) {
	report := checkTypes(t, strings.Join([]string{
		"fun int main() {",
		"    print 5;",
		"    println true;",
		"    printsp 1 < 2;",
		"    return 0;",
		"}",
	}, "\n"))
	be.True(t, report.Empty())
}
