package compiler

import "fmt"

// CollectSignatures returns a fresh global scope with every top-level
// function pre-declared, so calls resolve even when they appear before the
// declaration in source. When a name is declared twice the first
// declaration wins; the duplicate is reported by Collect.
func CollectSignatures(stmts []Stmt) *Env {
	env := NewEnv()
	for _, s := range stmts {
		f, ok := s.(*FunDecl)
		if !ok {
			continue
		}
		if env.DeclaredInScope(f.Name) {
			continue
		}
		env.DeclareFunction(f.Name, f.ReturnType, f.Params)
	}
	return env
}

// Collect enforces the top-level shape of a program: a main function must
// exist, functions cannot be redeclared, executable statements cannot
// appear outside functions, and global initializers must be constant
// expressions.
func Collect(stmts []Stmt, lines []string) *Report {
	report := &Report{}

	hasMain := false
	for _, s := range stmts {
		if f, ok := s.(*FunDecl); ok && f.Name == "main" {
			hasMain = true
			break
		}
	}
	if !hasMain {
		p := Problem{
			Span:    Span{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1},
			Message: "No main function found; program must have a main function as the entry point.",
		}
		report.Add(NewDiag(DiagScope, []Problem{p}, lines))
	}

	declared := make(map[string]bool)
	for _, s := range stmts {
		switch s := s.(type) {
		case *FunDecl:
			if declared[s.Name] {
				p := Problem{
					Span:    s.HeaderSpan,
					Message: fmt.Sprintf("Function '%s' was previously declared; functions cannot be redeclared.", s.Name),
				}
				report.Add(NewDiag(DiagScope, []Problem{p}, lines))
			}
			declared[s.Name] = true
		case *VarDecl:
			if s.Init == nil {
				continue
			}
			var problems []Problem
			collectNonConst(s.Init, &problems)
			if len(problems) > 0 {
				report.Add(NewDiag(DiagScope, problems, lines))
			}
		default:
			p := Problem{
				Span:    s.span(),
				Message: "Global statements are not allowed; all executable statements must appear inside of a function.",
			}
			report.Add(NewDiag(DiagScope, []Problem{p}, lines))
		}
	}
	return report
}

// collectNonConst records a problem for every call inside a global
// initializer. Literals, variable reads, and operators fold at compile
// time; calls do not. Nested calls inside an offending call's arguments
// are covered by the outer problem.
func collectNonConst(e Expr, problems *[]Problem) {
	switch e := e.(type) {
	case *UnaryExpr:
		collectNonConst(e.Operand, problems)
	case *BinaryExpr:
		collectNonConst(e.Left, problems)
		collectNonConst(e.Right, problems)
	case *CallExpr:
		*problems = append(*problems, Problem{
			Span:    e.Span,
			Message: "Global variable initial values must be constant; this is not a constant value.",
		})
	}
}
