package compiler

import (
	"fmt"
	"strings"
)

// CodeGen walks a flattened tree and emits assembly source text.
//
// Expressions evaluate on the stack: every genExpr leaves exactly one
// word pushed, and statements pop what they consume. Scratch values move
// through $t0 and $t1 only, so no register survives a subexpression.
type CodeGen struct {
	syms      *SymbolTable
	fn        *Symbol
	out       strings.Builder
	nextLabel int
}

func newCodeGen(syms *SymbolTable) *CodeGen {
	return &CodeGen{syms: syms}
}

func (cg *CodeGen) newLabel() string {
	l := fmt.Sprintf("L%d", cg.nextLabel)
	cg.nextLabel++
	return l
}

func (cg *CodeGen) line(format string, args ...any) {
	fmt.Fprintf(&cg.out, format+"\n", args...)
}

func (cg *CodeGen) comment(format string, args ...any) {
	cg.line("# "+format, args...)
}

func (cg *CodeGen) push(reg string) {
	cg.line("    addi $sp, $sp, -4")
	cg.line("    sw %s, 0($sp)", reg)
}

func (cg *CodeGen) pop(reg string) {
	cg.line("    lw %s, 0($sp)", reg)
	cg.line("    addi $sp, $sp, 4")
}

// frameOffset turns a parameter or local symbol into its $fp-relative
// offset. Parameters sit above the frame pointer where the caller pushed
// them; locals sit below the saved $fp and $ra pair.
func frameOffset(sym *Symbol) int {
	if sym.Kind == SymParameter {
		return sym.Offset
	}
	return -(12 + sym.Offset)
}

// storage resolves a name to either a frame slot or a global label.
func (cg *CodeGen) storage(name string) (*Symbol, bool) {
	if cg.fn != nil {
		if sym, ok := cg.fn.Locals.Lookup(name); ok {
			return sym, true
		}
	}
	if sym, ok := cg.syms.Lookup(name); ok && sym.Kind == SymVariable {
		return sym, false
	}
	return nil, false
}

func (cg *CodeGen) loadVar(name, reg string) error {
	sym, local := cg.storage(name)
	if sym == nil {
		return fmt.Errorf("codegen: no storage for %q", name)
	}
	if local {
		cg.line("    lw %s, %d($fp)", reg, frameOffset(sym))
	} else {
		cg.line("    lw %s, %s", reg, sym.Name)
	}
	return nil
}

func (cg *CodeGen) storeVar(name, reg string) error {
	sym, local := cg.storage(name)
	if sym == nil {
		return fmt.Errorf("codegen: no storage for %q", name)
	}
	if local {
		cg.line("    sw %s, %d($fp)", reg, frameOffset(sym))
	} else {
		cg.line("    sw %s, %s", reg, sym.Name)
	}
	return nil
}

var binaryOps = map[TokenType]string{
	PLUS:       "add",
	MINUS:      "sub",
	STAR:       "mul",
	SLASH:      "div",
	PERCENT:    "rem",
	AND:        "and",
	OR:         "or",
	LESS:       "slt",
	LESS_EQ:    "sle",
	GREATER:    "sgt",
	GREATER_EQ: "sge",
	EQUALS:     "seq",
	NOT_EQ:     "sne",
}

// genExpr emits the instructions that evaluate e and push its value.
func (cg *CodeGen) genExpr(e Expr) error {
	switch n := e.(type) {
	case *IntLit:
		cg.line("    li $t0, %d", n.Value)
		cg.push("$t0")

	case *BoolLit:
		v := 0
		if n.Value {
			v = 1
		}
		cg.line("    li $t0, %d", v)
		cg.push("$t0")

	case *VarRef:
		if err := cg.loadVar(n.Name, "$t0"); err != nil {
			return err
		}
		cg.push("$t0")

	case *UnaryExpr:
		if err := cg.genExpr(n.Operand); err != nil {
			return err
		}
		switch n.Op {
		case PLUS:
			// unary plus leaves the operand as is
		case MINUS:
			cg.pop("$t0")
			cg.line("    sub $t0, $zero, $t0")
			cg.push("$t0")
		case NOT:
			cg.pop("$t0")
			cg.line("    seq $t0, $t0, $zero")
			cg.push("$t0")
		default:
			return fmt.Errorf("codegen: unknown unary operator %s", n.Op)
		}

	case *BinaryExpr:
		if err := cg.genExpr(n.Left); err != nil {
			return err
		}
		if err := cg.genExpr(n.Right); err != nil {
			return err
		}
		op, ok := binaryOps[n.Op]
		if !ok {
			return fmt.Errorf("codegen: unknown binary operator %s", n.Op)
		}
		cg.pop("$t1")
		cg.pop("$t0")
		cg.line("    %s $t0, $t0, $t1", op)
		cg.push("$t0")

	case *CallExpr:
		// Arguments go on last to first so the first argument ends up at
		// the top of the stack, right where the callee's $fp will point.
		for i := len(n.Args) - 1; i >= 0; i-- {
			if err := cg.genExpr(n.Args[i]); err != nil {
				return err
			}
		}
		cg.line("    jal %s", n.Callee)
		if len(n.Args) > 0 {
			cg.line("    addi $sp, $sp, %d", 4*len(n.Args))
		}
		cg.push("$v0")

	default:
		return fmt.Errorf("codegen: unknown expression node %T", e)
	}
	return nil
}

// genStmt emits the instructions that carry out s inside a function body.
func (cg *CodeGen) genStmt(s Stmt) error {
	switch n := s.(type) {
	case *VarDecl:
		cg.comment("%s %s", n.Type, n.Name)
		if n.Init != nil {
			if err := cg.genExpr(n.Init); err != nil {
				return err
			}
			cg.pop("$t0")
			if err := cg.storeVar(n.Name, "$t0"); err != nil {
				return err
			}
		}

	case *AssignStmt:
		cg.comment("%s =", n.Name)
		if err := cg.genExpr(n.Value); err != nil {
			return err
		}
		cg.pop("$t0")
		if err := cg.storeVar(n.Name, "$t0"); err != nil {
			return err
		}

	case *IfStmt:
		cg.comment("if %s", n.Cond)
		if err := cg.genExpr(n.Cond); err != nil {
			return err
		}
		cg.pop("$t0")
		falseLabel := cg.newLabel()
		cg.line("    beqz $t0, %s", falseLabel)
		if err := cg.genStmt(n.Then); err != nil {
			return err
		}
		if n.Else != nil {
			endLabel := cg.newLabel()
			cg.line("    j %s", endLabel)
			cg.line("%s:", falseLabel)
			if err := cg.genStmt(n.Else); err != nil {
				return err
			}
			cg.line("%s:", endLabel)
		} else {
			cg.line("%s:", falseLabel)
		}

	case *WhileStmt:
		cg.comment("while %s", n.Cond)
		startLabel := cg.newLabel()
		endLabel := cg.newLabel()
		cg.line("%s:", startLabel)
		if err := cg.genExpr(n.Cond); err != nil {
			return err
		}
		cg.pop("$t0")
		cg.line("    beqz $t0, %s", endLabel)
		if err := cg.genStmt(n.Body); err != nil {
			return err
		}
		cg.line("    j %s", startLabel)
		cg.line("%s:", endLabel)

	case *BlockStmt:
		for _, stmt := range n.Stmts {
			if err := cg.genStmt(stmt); err != nil {
				return err
			}
		}

	case *ReturnStmt:
		cg.comment("return")
		if err := cg.genExpr(n.Value); err != nil {
			return err
		}
		cg.pop("$v0")
		cg.epilogue()

	case *PrintStmt:
		cg.comment("print")
		if n.Value != nil {
			if err := cg.genExpr(n.Value); err != nil {
				return err
			}
			cg.pop("$a0")
			cg.line("    li $v0, 1")
			cg.line("    syscall")
		}
		switch n.Mode {
		case PrintSpace:
			cg.line("    li $a0, 32")
			cg.line("    li $v0, 11")
			cg.line("    syscall")
		case PrintLine:
			cg.line("    li $a0, 10")
			cg.line("    li $v0, 11")
			cg.line("    syscall")
		}

	case *ExprStmt:
		cg.comment("%s", n.Expr)
		if err := cg.genExpr(n.Expr); err != nil {
			return err
		}
		cg.line("    addi $sp, $sp, 4")

	default:
		return fmt.Errorf("codegen: unknown statement node %T", s)
	}
	return nil
}

// genFunction lays down the label, prologue, body, and a closing epilogue
// for the fall-off-the-end case.
func (cg *CodeGen) genFunction(f *FunDecl) error {
	sym, ok := cg.syms.Lookup(f.Name)
	if !ok || sym.Kind != SymFunction {
		return fmt.Errorf("codegen: no symbol for function %q", f.Name)
	}
	cg.fn = sym
	cg.out.WriteByte('\n')
	cg.line("%s:", f.Name)
	cg.push("$fp")
	cg.push("$ra")
	cg.line("    addi $fp, $sp, 8")
	if size := sym.Locals.LocalSize(); size > 0 {
		cg.line("    addi $sp, $sp, -%d", size)
	}
	for _, s := range f.Body {
		if err := cg.genStmt(s); err != nil {
			return err
		}
	}
	cg.epilogue()
	cg.fn = nil
	return nil
}

// epilogue unwinds the frame. $sp moves back to the saved $ra slot, both
// saved registers restore, and $sp ends up at the first-argument slot so
// the caller only has to drop its own arguments.
func (cg *CodeGen) epilogue() {
	cg.line("    addi $sp, $fp, -8")
	cg.pop("$ra")
	cg.pop("$fp")
	cg.line("    jr $ra")
}

// Generate emits the whole program: a .data section holding every global
// at its folded initial value, then .text starting with the entry jump.
// Errors are internal inconsistencies, never user mistakes; those were
// all caught before this stage runs.
func Generate(stmts []Stmt, syms *SymbolTable) (string, error) {
	cg := newCodeGen(syms)
	cg.line(".data")
	for _, sym := range syms.Symbols() {
		if sym.Kind == SymVariable {
			cg.line("%s: .word %d", sym.Name, sym.Initial)
		}
	}
	cg.line(".text")
	cg.line("    j main")
	for _, s := range stmts {
		switch s := s.(type) {
		case *VarDecl:
			// globals live in .data, nothing to execute
		case *FunDecl:
			if err := cg.genFunction(s); err != nil {
				return "", err
			}
		default:
			return "", fmt.Errorf("codegen: unexpected top level statement %T", s)
		}
	}
	return cg.out.String(), nil
}
