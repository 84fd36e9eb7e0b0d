package compiler

// pruneDeadFunctions removes functions that can never run. Reachability
// starts at main and follows calls transitively. The checking passes have
// already walked the whole tree, so a pruned function keeps its
// diagnostics; it just produces no code.
func pruneDeadFunctions(stmts []Stmt) []Stmt {
	funcs := make(map[string]*FunDecl)
	for _, s := range stmts {
		if f, ok := s.(*FunDecl); ok {
			funcs[f.Name] = f
		}
	}

	reachable := make(map[string]bool)
	var worklist []string
	mark := func(name string) {
		if !reachable[name] {
			reachable[name] = true
			worklist = append(worklist, name)
		}
	}

	if _, ok := funcs["main"]; ok {
		mark("main")
	}

	for len(worklist) > 0 {
		f, ok := funcs[worklist[0]]
		worklist = worklist[1:]
		if !ok {
			continue
		}
		for _, s := range f.Body {
			markCallsStmt(s, mark)
		}
	}

	pruned := make([]Stmt, 0, len(stmts))
	for _, s := range stmts {
		if f, ok := s.(*FunDecl); ok && !reachable[f.Name] {
			continue
		}
		pruned = append(pruned, s)
	}
	return pruned
}

// markCallsStmt reports every function a statement calls.
func markCallsStmt(s Stmt, mark func(string)) {
	if s == nil {
		return
	}
	switch n := s.(type) {
	case *VarDecl:
		markCallsExpr(n.Init, mark)
	case *AssignStmt:
		markCallsExpr(n.Value, mark)
	case *IfStmt:
		markCallsExpr(n.Cond, mark)
		markCallsStmt(n.Then, mark)
		markCallsStmt(n.Else, mark)
	case *WhileStmt:
		markCallsExpr(n.Cond, mark)
		markCallsStmt(n.Body, mark)
	case *BlockStmt:
		for _, child := range n.Stmts {
			markCallsStmt(child, mark)
		}
	case *ReturnStmt:
		markCallsExpr(n.Value, mark)
	case *PrintStmt:
		markCallsExpr(n.Value, mark)
	case *ExprStmt:
		markCallsExpr(n.Expr, mark)
	}
}

// markCallsExpr reports every function an expression calls.
func markCallsExpr(e Expr, mark func(string)) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *UnaryExpr:
		markCallsExpr(n.Operand, mark)
	case *BinaryExpr:
		markCallsExpr(n.Left, mark)
		markCallsExpr(n.Right, mark)
	case *CallExpr:
		mark(n.Callee)
		for _, a := range n.Args {
			markCallsExpr(a, mark)
		}
	}
}
