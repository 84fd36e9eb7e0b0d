package compiler

import "fmt"

// nameChecker walks the tree verifying that every identifier is declared
// before use and used according to what it names. Problems found while
// checking one statement are batched into a single diagnostic, flushed
// before descending into any nested statements.
type nameChecker struct {
	env      *Env
	lines    []string
	report   *Report
	problems []Problem
}

// CheckNames runs the name resolution pass and reports every problem it
// finds. It never stops early; one bad name should not hide the next.
func CheckNames(stmts []Stmt, lines []string) *Report {
	c := &nameChecker{env: CollectSignatures(stmts), lines: lines, report: &Report{}}
	for _, s := range stmts {
		c.checkStmt(s)
	}
	return c.report
}

func (c *nameChecker) problemAt(span Span, format string, args ...any) {
	c.problems = append(c.problems, Problem{Span: span, Message: fmt.Sprintf(format, args...)})
}

func (c *nameChecker) flush() {
	if len(c.problems) == 0 {
		return
	}
	c.report.Add(NewDiag(DiagName, c.problems, c.lines))
	c.problems = nil
}

func (c *nameChecker) checkStmt(s Stmt) {
	switch s := s.(type) {
	case *VarDecl:
		c.checkVarDecl(s)
	case *AssignStmt:
		c.checkAssign(s)
	case *FunDecl:
		c.checkFunDecl(s)
	case *IfStmt:
		c.checkExpr(s.Cond)
		c.flush()
		c.env = c.env.Push()
		c.checkStmt(s.Then)
		c.env = c.env.Pop()
		if s.Else != nil {
			c.env = c.env.Push()
			c.checkStmt(s.Else)
			c.env = c.env.Pop()
		}
	case *WhileStmt:
		c.checkExpr(s.Cond)
		c.flush()
		c.env = c.env.Push()
		c.checkStmt(s.Body)
		c.env = c.env.Pop()
	case *BlockStmt:
		c.env = c.env.Push()
		for _, st := range s.Stmts {
			c.checkStmt(st)
		}
		c.env = c.env.Pop()
	case *ReturnStmt:
		if _, ok := c.env.ReturnType(); !ok {
			c.problemAt(s.Span, "Return statements can only be used within functions.")
		}
		c.checkExpr(s.Value)
		c.flush()
	case *PrintStmt:
		if s.Value != nil {
			c.checkExpr(s.Value)
		}
		c.flush()
	case *ExprStmt:
		c.checkExpr(s.Expr)
		c.flush()
	}
}

func (c *nameChecker) checkVarDecl(s *VarDecl) {
	if c.env.DeclaredInScope(s.Name) && (!c.env.IsFunction(s.Name) || c.env.IsInitialized(s.Name)) {
		c.problemAt(s.DeclSpan, "Variable '%s' was previously declared in this scope; cannot redeclare variables.", s.Name)
	} else if c.env.Declared(s.Name) && c.env.IsFunction(s.Name) && c.env.IsInitialized(s.Name) {
		c.problemAt(s.DeclSpan, "Variable '%s' was previously declared as a function; variables and functions cannot share identifiers.", s.Name)
	}
	if s.Init != nil {
		c.checkExpr(s.Init)
	}
	// The declaration lands even after a problem, replacing whatever held
	// the name in this scope. A function binding replaced here gets
	// reported again when its declaration is reached.
	c.env.DeclareVariable(s.Name, s.Type, s.Init != nil)
	c.flush()
}

func (c *nameChecker) checkAssign(s *AssignStmt) {
	nameSpan := Span{
		StartLine: s.Span.StartLine,
		StartCol:  s.Span.StartCol,
		EndLine:   s.Span.StartLine,
		EndCol:    s.Span.StartCol + len(s.Name),
	}
	if !c.env.Declared(s.Name) {
		msg := fmt.Sprintf("Variable '%s' was used but never declared.", s.Name)
		if sug := suggest(s.Name, c.env.VisibleVariables()); sug != "" {
			msg += fmt.Sprintf(" Did you mean '%s'?", sug)
		}
		c.problemAt(nameSpan, "%s", msg)
	} else if c.env.IsFunction(s.Name) {
		c.problemAt(nameSpan,
			"Function '%s' was referenced without being called. Must use '()' to call a function (i.e., '%s()').",
			s.Name, s.Name)
	}
	c.checkExpr(s.Value)
	if c.env.IsVariable(s.Name) {
		c.env.MarkInitialized(s.Name)
	}
	c.flush()
}

func (c *nameChecker) checkFunDecl(s *FunDecl) {
	if c.env.IsVariable(s.Name) {
		c.problemAt(s.HeaderSpan,
			"Identifier %s was previously used to define a variable; variables and functions cannot share names.", s.Name)
	}
	c.env.DeclareFunction(s.Name, s.ReturnType, s.Params)
	c.env.MarkInitialized(s.Name)

	c.env = c.env.PushReturn(s.ReturnType)
	for _, p := range s.Params {
		if c.env.IsFunction(p.Name) {
			c.problemAt(p.Span,
				"Parameter %s shares an identifier with a function; parameters and functions cannot share names.", p.Name)
		} else if c.env.DeclaredInScope(p.Name) {
			c.problemAt(p.Span,
				"Parameter %s is already used for this function; cannot have duplicate parameter names.", p.Name)
		}
		c.env.DeclareVariable(p.Name, p.Type, true)
	}
	c.flush()
	for _, st := range s.Body {
		c.checkStmt(st)
	}
	c.env = c.env.Pop()
}

func (c *nameChecker) checkExpr(e Expr) {
	switch e := e.(type) {
	case *VarRef:
		if !c.env.Declared(e.Name) {
			msg := fmt.Sprintf("Variable '%s' was used but never declared.", e.Name)
			if sug := suggest(e.Name, c.env.VisibleVariables()); sug != "" {
				msg += fmt.Sprintf(" Did you mean '%s'?", sug)
			}
			c.problemAt(e.Span, "%s", msg)
		} else if c.env.IsFunction(e.Name) {
			c.problemAt(e.Span,
				"Function '%s' was referenced without being called. Must use '()' to call a function (i.e., '%s()').",
				e.Name, e.Name)
		} else if !c.env.IsInitialized(e.Name) {
			c.problemAt(e.Span, "Variable '%s' was used but never initialized.", e.Name)
		}
	case *CallExpr:
		nameSpan := Span{
			StartLine: e.Span.StartLine,
			StartCol:  e.Span.StartCol,
			EndLine:   e.Span.StartLine,
			EndCol:    e.Span.StartCol + len(e.Callee),
		}
		if !c.env.Declared(e.Callee) {
			msg := fmt.Sprintf("Function '%s' was used but never declared.", e.Callee)
			if sug := suggest(e.Callee, c.env.VisibleFunctions()); sug != "" {
				msg += fmt.Sprintf(" Did you mean '%s'?", sug)
			}
			c.problemAt(nameSpan, "%s", msg)
		} else if c.env.IsVariable(e.Callee) {
			c.problemAt(nameSpan, "Identifier '%s' was declared as a variable but used as a function.", e.Callee)
		}
		for _, a := range e.Args {
			c.checkExpr(a)
		}
	case *UnaryExpr:
		c.checkExpr(e.Operand)
	case *BinaryExpr:
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)
	}
}
