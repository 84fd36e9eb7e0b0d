package compiler

import "fmt"

// typeChecker computes the type of every expression and reports
// mismatches. It mirrors the name checker's traversal and batching but
// walks its own scope chain, so the two passes stay independent of each
// other's findings.
type typeChecker struct {
	env      *Env
	lines    []string
	report   *Report
	problems []Problem
}

// CheckTypes runs the type resolution pass. An expression that already has
// a reported problem evaluates to the error sentinel, which keeps every
// enclosing check quiet; each mistake is reported exactly once.
func CheckTypes(stmts []Stmt, lines []string) *Report {
	c := &typeChecker{env: CollectSignatures(stmts), lines: lines, report: &Report{}}
	for _, s := range stmts {
		c.checkStmt(s)
	}
	return c.report
}

func (c *typeChecker) problemAt(span Span, format string, args ...any) {
	c.problems = append(c.problems, Problem{Span: span, Message: fmt.Sprintf(format, args...)})
}

func (c *typeChecker) flush() {
	if len(c.problems) == 0 {
		return
	}
	c.report.Add(NewDiag(DiagType, c.problems, c.lines))
	c.problems = nil
}

func (c *typeChecker) checkStmt(s Stmt) {
	switch s := s.(type) {
	case *VarDecl:
		if s.Init != nil {
			t := c.checkExpr(s.Init)
			if t != TypeErr && t != s.Type {
				c.problemAt(s.Init.span(),
					"Variable '%s' expected value of type %s, but value is of type %s.", s.Name, s.Type, t)
			}
		}
		c.env.DeclareVariable(s.Name, s.Type, s.Init != nil)
		c.flush()
	case *AssignStmt:
		t := c.checkExpr(s.Value)
		if id, ok := c.env.Lookup(s.Name); ok && id.Kind == KindVariable {
			if t != TypeErr && t != id.Type {
				c.problemAt(s.Value.span(),
					"Variable %s expected value of type %s, but value is of type %s.", s.Name, id.Type, t)
			}
		}
		c.flush()
	case *FunDecl:
		c.env.DeclareFunction(s.Name, s.ReturnType, s.Params)
		c.env.MarkInitialized(s.Name)
		c.env = c.env.PushReturn(s.ReturnType)
		for _, p := range s.Params {
			c.env.DeclareVariable(p.Name, p.Type, true)
		}
		for _, st := range s.Body {
			c.checkStmt(st)
		}
		c.env = c.env.Pop()
	case *IfStmt:
		if t := c.checkExpr(s.Cond); t == TypeInt {
			c.problemAt(s.Cond.span(),
				"Conditional expressions need to be of type bool, but this expression is of type int.")
		}
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
		if t := c.checkExpr(s.Cond); t == TypeInt {
			c.problemAt(s.Cond.span(),
				"Conditional expressions need to be of type bool, but this expression is of type int.")
		}
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
		t := c.checkExpr(s.Value)
		// A return outside any function is the name checker's report.
		if ret, ok := c.env.ReturnType(); ok && t != TypeErr && t != ret {
			c.problemAt(s.Span, "Function is of type %s, but return value is of type %s.", ret, t)
		}
		c.flush()
	case *PrintStmt:
		// Both scalar types print as their machine value.
		if s.Value != nil {
			c.checkExpr(s.Value)
		}
		c.flush()
	case *ExprStmt:
		c.checkExpr(s.Expr)
		c.flush()
	}
}

func (c *typeChecker) checkExpr(e Expr) VarType {
	switch e := e.(type) {
	case *IntLit:
		return TypeInt
	case *BoolLit:
		return TypeBool
	case *VarRef:
		id, ok := c.env.Lookup(e.Name)
		if !ok || id.Kind != KindVariable {
			// Undeclared names and bare function reads belong to the
			// name checker.
			return TypeErr
		}
		return id.Type
	case *UnaryExpr:
		return c.checkUnary(e)
	case *BinaryExpr:
		return c.checkBinary(e)
	case *CallExpr:
		return c.checkCall(e)
	}
	return TypeErr
}

func (c *typeChecker) checkUnary(e *UnaryExpr) VarType {
	t := c.checkExpr(e.Operand)
	switch e.Op {
	case MINUS, PLUS:
		if t == TypeBool {
			c.problemAt(e.Span,
				"Operator '%s' expects expression of type int, but got expression of type bool.", e.Op)
			return TypeErr
		}
		if t == TypeErr {
			return TypeErr
		}
		return TypeInt
	case NOT:
		if t == TypeInt {
			c.problemAt(e.Span,
				"Operator '%s' expects expression of type bool, but got expression of type int.", e.Op)
			return TypeErr
		}
		if t == TypeErr {
			return TypeErr
		}
		return TypeBool
	}
	c.problemAt(e.Span, "Unsupported operator '%s' used on unary expression.", e.Op)
	return TypeErr
}

func (c *typeChecker) checkBinary(e *BinaryExpr) VarType {
	lt := c.checkExpr(e.Left)
	rt := c.checkExpr(e.Right)
	switch e.Op {
	case PLUS, MINUS, STAR, SLASH, PERCENT:
		return c.checkOperands(e, lt, rt, TypeInt, TypeInt)
	case LESS, LESS_EQ, GREATER, GREATER_EQ:
		return c.checkOperands(e, lt, rt, TypeInt, TypeBool)
	case AND, OR:
		return c.checkOperands(e, lt, rt, TypeBool, TypeBool)
	case EQUALS, NOT_EQ:
		if lt == TypeErr || rt == TypeErr {
			return TypeErr
		}
		if lt != rt {
			c.problemAt(e.Span,
				"Operator '%s' expects expressions of the same type, but left expression is of type %s while right expression is of type %s.",
				e.Op, lt, rt)
			return TypeErr
		}
		return TypeBool
	}
	c.problemAt(e.Span, "Unsupported operator used in binary expression.")
	return TypeErr
}

// checkOperands reports each operand whose type is concretely wrong for
// the operator and returns result when both are fine. An operand already
// in error stays quiet but still poisons the result.
func (c *typeChecker) checkOperands(e *BinaryExpr, lt, rt, want, result VarType) VarType {
	got := TypeBool
	if want == TypeBool {
		got = TypeInt
	}
	bad := lt == TypeErr || rt == TypeErr
	if lt == got {
		c.problemAt(e.Left.span(),
			"Operator '%s' expects expressions of type %s, but got expression of type %s.", e.Op, want, got)
		bad = true
	}
	if rt == got {
		c.problemAt(e.Right.span(),
			"Operator '%s' expects expressions of type %s, but got expression of type %s.", e.Op, want, got)
		bad = true
	}
	if bad {
		return TypeErr
	}
	return result
}

func (c *typeChecker) checkCall(e *CallExpr) VarType {
	id, ok := c.env.Lookup(e.Callee)
	if !ok || id.Kind != KindFunction {
		// Calling an undeclared name or a variable is the name checker's
		// report.
		return TypeErr
	}
	if len(e.Args) != len(id.Params) {
		c.problemAt(e.Span, "Function %s expects %d parameters, but was given %d.",
			e.Callee, len(id.Params), len(e.Args))
		return id.Type
	}
	for i, a := range e.Args {
		t := c.checkExpr(a)
		p := id.Params[i]
		if t != TypeErr && t != p.Type {
			c.problemAt(a.span(), "Parameter '%s' is of type %s, but was given value of type %s.", p.Name, p.Type, t)
		}
	}
	return id.Type
}
