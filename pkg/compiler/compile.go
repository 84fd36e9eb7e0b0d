package compiler

import (
	"errors"
	"strings"
)

// Compile runs the whole pipeline over one source text. Problems in the
// program come back in the report with the assembly empty; the error
// return is reserved for internal failures in the back end stages.
func Compile(src string) (string, *Report, error) {
	lines := strings.Split(src, "\n")

	tokens, err := Lex(src)
	if err != nil {
		report, ierr := asReport(err)
		return "", report, ierr
	}

	stmts, err := Parse(tokens, lines)
	if err != nil {
		report, ierr := asReport(err)
		return "", report, ierr
	}

	report := MergeReports(
		Collect(stmts, lines),
		CheckNames(stmts, lines),
		CheckTypes(stmts, lines),
	)
	if !report.Empty() {
		return "", report, nil
	}

	flat := pruneDeadFunctions(Flatten(stmts))
	syms := BuildSymbolTable(flat)
	assembly, err := Generate(flat, syms)
	if err != nil {
		return "", nil, err
	}
	return assembly, report, nil
}

// asReport unwraps the diagnostic carried by a front end error. Anything
// that is not a diagnostic passes through as an internal failure.
func asReport(err error) (*Report, error) {
	var d *Diag
	if errors.As(err, &d) {
		r := &Report{}
		r.Add(d)
		return r, nil
	}
	return nil, err
}
