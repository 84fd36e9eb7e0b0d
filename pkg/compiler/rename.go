package compiler

import "fmt"

// renamer rewrites every identifier to a program-unique name so later
// stages never deal with shadowing. One counter is shared by variables,
// parameters, and functions.
type renamer struct {
	env     *Env
	counter int
}

// Flatten returns a copy of the tree in which every declaration site gets
// a fresh name of the form name_N. main keeps its name verbatim since the
// generated assembly jumps to it. The input tree is left untouched. It
// must only be called on a program that passed all checks.
func Flatten(stmts []Stmt) []Stmt {
	r := &renamer{env: NewEnv()}
	// Assign function names up front so calls that appear before the
	// declaration rename consistently.
	for _, s := range stmts {
		if f, ok := s.(*FunDecl); ok {
			r.env.DeclareFunction(f.Name, f.ReturnType, f.Params)
			r.env.SetUniqueName(f.Name, r.unique(f.Name))
		}
	}
	out := make([]Stmt, len(stmts))
	for i, s := range stmts {
		out[i] = r.renameStmt(s)
	}
	return out
}

func (r *renamer) unique(name string) string {
	if name == "main" {
		return "main"
	}
	u := fmt.Sprintf("%s_%d", name, r.counter)
	r.counter++
	return u
}

func (r *renamer) renameStmt(s Stmt) Stmt {
	switch s := s.(type) {
	case *VarDecl:
		// The initializer renames before the new binding lands, so
		//   int x = x;  inside a scope shadowing an outer x reads the
		// outer one.
		var init Expr
		if s.Init != nil {
			init = r.renameExpr(s.Init)
		}
		u := r.unique(s.Name)
		r.env.DeclareVariable(s.Name, s.Type, true)
		r.env.SetUniqueName(s.Name, u)
		return &VarDecl{Name: u, Type: s.Type, Init: init, Span: s.Span, DeclSpan: s.DeclSpan}
	case *AssignStmt:
		return &AssignStmt{Name: r.env.UniqueName(s.Name), Value: r.renameExpr(s.Value), Span: s.Span}
	case *FunDecl:
		u := r.env.UniqueName(s.Name)
		r.env = r.env.Push()
		params := make([]Param, len(s.Params))
		for i, p := range s.Params {
			pu := r.unique(p.Name)
			r.env.DeclareVariable(p.Name, p.Type, true)
			r.env.SetUniqueName(p.Name, pu)
			params[i] = Param{Name: pu, Type: p.Type, Span: p.Span}
		}
		body := make([]Stmt, len(s.Body))
		for i, st := range s.Body {
			body[i] = r.renameStmt(st)
		}
		r.env = r.env.Pop()
		return &FunDecl{Name: u, Params: params, ReturnType: s.ReturnType, Body: body, Span: s.Span, HeaderSpan: s.HeaderSpan}
	case *IfStmt:
		out := &IfStmt{Cond: r.renameExpr(s.Cond), Span: s.Span}
		r.env = r.env.Push()
		out.Then = r.renameStmt(s.Then)
		r.env = r.env.Pop()
		if s.Else != nil {
			r.env = r.env.Push()
			out.Else = r.renameStmt(s.Else)
			r.env = r.env.Pop()
		}
		return out
	case *WhileStmt:
		cond := r.renameExpr(s.Cond)
		r.env = r.env.Push()
		body := r.renameStmt(s.Body)
		r.env = r.env.Pop()
		return &WhileStmt{Cond: cond, Body: body, Span: s.Span}
	case *BlockStmt:
		r.env = r.env.Push()
		stmts := make([]Stmt, len(s.Stmts))
		for i, st := range s.Stmts {
			stmts[i] = r.renameStmt(st)
		}
		r.env = r.env.Pop()
		return &BlockStmt{Stmts: stmts, Span: s.Span}
	case *ReturnStmt:
		return &ReturnStmt{Value: r.renameExpr(s.Value), Span: s.Span}
	case *PrintStmt:
		out := &PrintStmt{Mode: s.Mode, Span: s.Span}
		if s.Value != nil {
			out.Value = r.renameExpr(s.Value)
		}
		return out
	case *ExprStmt:
		return &ExprStmt{Expr: r.renameExpr(s.Expr), Span: s.Span}
	}
	return s
}

func (r *renamer) renameExpr(e Expr) Expr {
	switch e := e.(type) {
	case *VarRef:
		return &VarRef{Name: r.env.UniqueName(e.Name), Span: e.Span}
	case *UnaryExpr:
		return &UnaryExpr{Op: e.Op, Operand: r.renameExpr(e.Operand), Span: e.Span}
	case *BinaryExpr:
		return &BinaryExpr{Op: e.Op, Left: r.renameExpr(e.Left), Right: r.renameExpr(e.Right), Span: e.Span}
	case *CallExpr:
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = r.renameExpr(a)
		}
		return &CallExpr{Callee: r.env.UniqueName(e.Callee), Args: args, Span: e.Span}
	}
	// Literals carry no names and are immutable; share them.
	return e
}
