package lsp

import (
	"testing"

	"github.com/nalgeon/be"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestDiagnosticsForTypeError(t *testing.T) {
	src := "fun int main() {\n    int x = true;\n}\n"

	diags := DiagnosticsFor(src)
	be.Equal(t, len(diags), 1)

	d := diags[0]
	be.Equal(t, d.Message, "Type Error: Variable 'x' expected value of type int, but value is of type bool.")
	be.Equal(t, d.Range.Start, protocol.Position{Line: 1, Character: 12})
	be.Equal(t, d.Range.End, protocol.Position{Line: 1, Character: 16})
	be.Equal(t, *d.Severity, protocol.DiagnosticSeverityError)
	be.Equal(t, *d.Source, "brio-lsp")
}

func TestDiagnosticsForMissingMain(t *testing.T) {
	src := "fun int helper() {\n    return 1;\n}\n"

	diags := DiagnosticsFor(src)
	be.Equal(t, len(diags), 1)

	d := diags[0]
	be.Equal(t, d.Message, "Scope Error: No main function found; program must have a main function as the entry point.")
	be.Equal(t, d.Range.Start, protocol.Position{Line: 0, Character: 0})
	be.Equal(t, d.Range.End, protocol.Position{Line: 0, Character: 0})
}

func TestDiagnosticsForCleanProgram(t *testing.T) {
	src := "fun int main() {\n    print 42;\n    return 0;\n}\n"

	diags := DiagnosticsFor(src)
	be.True(t, diags != nil)
	be.Equal(t, len(diags), 0)
}

func TestDiagnosticsForLexError(t *testing.T) {
	diags := DiagnosticsFor("fun int main() { int x = 5 @ 3; }")
	be.Equal(t, len(diags), 1)
	be.Equal(t, diags[0].Range.Start.Line, uint32(0))
}

func TestSymbolsFor(t *testing.T) {
	src := `int counter = 0;

fun int add(int a, int b) {
    return a + b;
}

fun int main() {
    print add(1, 2);
}
`

	symbols := SymbolsFor(src)
	be.Equal(t, len(symbols), 3)

	be.Equal(t, symbols[0].Name, "counter")
	be.Equal(t, symbols[0].Kind, protocol.SymbolKindVariable)
	be.Equal(t, *symbols[0].Detail, "int")
	be.Equal(t, symbols[0].SelectionRange.Start, protocol.Position{Line: 0, Character: 0})
	be.Equal(t, symbols[0].SelectionRange.End, protocol.Position{Line: 0, Character: 11})

	be.Equal(t, symbols[1].Name, "add")
	be.Equal(t, symbols[1].Kind, protocol.SymbolKindFunction)
	be.Equal(t, *symbols[1].Detail, "fun int")
	be.Equal(t, symbols[1].SelectionRange.Start, protocol.Position{Line: 2, Character: 0})
	be.Equal(t, symbols[1].SelectionRange.End, protocol.Position{Line: 2, Character: 11})

	be.Equal(t, symbols[2].Name, "main")
	be.Equal(t, symbols[2].Kind, protocol.SymbolKindFunction)
}

func TestSymbolsForBrokenSource(t *testing.T) {
	symbols := SymbolsFor("fun int {")
	be.Equal(t, len(symbols), 0)
}
