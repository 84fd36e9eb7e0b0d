package compiler

import (
	"fmt"
	"strings"
)

// SymKind tags a symbol table entry.
type SymKind int

const (
	SymVariable SymKind = iota
	SymParameter
	SymFunction
)

// Symbol is one table entry. Variables and parameters carry a byte
// offset into their frame area; globals carry a folded initial value;
// functions carry their own table of parameters and locals.
type Symbol struct {
	Name    string
	Kind    SymKind
	Type    VarType
	Offset  int
	Initial int32
	Locals  *SymbolTable
}

// SymbolTable maps unique names to symbols. Parameters and local
// variables advance through independent offset sequences, four bytes
// apart, so the code generator can address parameters above the frame
// pointer and locals below it.
type SymbolTable struct {
	names           map[string]*Symbol
	order           []string
	nextVarOffset   int
	nextParamOffset int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{names: make(map[string]*Symbol)}
}

func (t *SymbolTable) put(sym *Symbol) *Symbol {
	t.names[sym.Name] = sym
	t.order = append(t.order, sym.Name)
	return sym
}

func (t *SymbolTable) PutVariable(name string, typ VarType) *Symbol {
	sym := t.put(&Symbol{Name: name, Kind: SymVariable, Type: typ, Offset: t.nextVarOffset})
	t.nextVarOffset += 4
	return sym
}

func (t *SymbolTable) PutParameter(name string, typ VarType) *Symbol {
	sym := t.put(&Symbol{Name: name, Kind: SymParameter, Type: typ, Offset: t.nextParamOffset})
	t.nextParamOffset += 4
	return sym
}

func (t *SymbolTable) PutFunction(name string, ret VarType) *Symbol {
	return t.put(&Symbol{Name: name, Kind: SymFunction, Type: ret, Locals: NewSymbolTable()})
}

func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	sym, ok := t.names[name]
	return sym, ok
}

// LocalSize reports how many bytes of local variables the table holds,
// not counting parameters.
func (t *SymbolTable) LocalSize() int {
	return t.nextVarOffset
}

// Symbols returns the entries in insertion order.
func (t *SymbolTable) Symbols() []*Symbol {
	out := make([]*Symbol, len(t.order))
	for i, name := range t.order {
		out[i] = t.names[name]
	}
	return out
}

func (t *SymbolTable) String() string {
	var b strings.Builder
	for _, sym := range t.Symbols() {
		switch sym.Kind {
		case SymFunction:
			fmt.Fprintf(&b, "fun %s %s (locals %d bytes)\n", sym.Type, sym.Name, sym.Locals.LocalSize())
			for _, line := range strings.Split(sym.Locals.String(), "\n") {
				if line != "" {
					fmt.Fprintf(&b, "  %s\n", line)
				}
			}
		case SymParameter:
			fmt.Fprintf(&b, "param %s %s +%d\n", sym.Type, sym.Name, sym.Offset)
		default:
			fmt.Fprintf(&b, "var %s %s +%d = %d\n", sym.Type, sym.Name, sym.Offset, sym.Initial)
		}
	}
	return b.String()
}

// tableBuilder walks a flattened tree and lays out every symbol. Locals
// declared anywhere inside a function, including nested blocks and
// branches, land in that function's single frame.
type tableBuilder struct {
	global  *SymbolTable
	current *SymbolTable
}

// BuildSymbolTable assigns frame offsets to every declaration and folds
// global initializers down to their constant values. It expects a tree
// that passed all checks and went through Flatten.
func BuildSymbolTable(stmts []Stmt) *SymbolTable {
	b := &tableBuilder{global: NewSymbolTable()}
	b.current = b.global
	b.walk(stmts)
	return b.global
}

func (b *tableBuilder) walk(stmts []Stmt) {
	for _, s := range stmts {
		b.walkStmt(s)
	}
}

func (b *tableBuilder) walkStmt(s Stmt) {
	switch s := s.(type) {
	case *VarDecl:
		sym := b.current.PutVariable(s.Name, s.Type)
		if b.current == b.global && s.Init != nil {
			sym.Initial = b.fold(s.Init)
		}
	case *FunDecl:
		fsym := b.global.PutFunction(s.Name, s.ReturnType)
		b.current = fsym.Locals
		for _, p := range s.Params {
			b.current.PutParameter(p.Name, p.Type)
		}
		b.walk(s.Body)
		b.current = b.global
	case *IfStmt:
		b.walkStmt(s.Then)
		if s.Else != nil {
			b.walkStmt(s.Else)
		}
	case *WhileStmt:
		b.walkStmt(s.Body)
	case *BlockStmt:
		b.walk(s.Stmts)
	}
}

// fold evaluates a global initializer at compile time. The checks already
// limited these to constant expressions over earlier globals; anything
// outside that, like a division by zero, quietly folds to zero.
func (b *tableBuilder) fold(e Expr) int32 {
	switch e := e.(type) {
	case *IntLit:
		return int32(e.Value)
	case *BoolLit:
		if e.Value {
			return 1
		}
		return 0
	case *VarRef:
		if sym, ok := b.global.Lookup(e.Name); ok {
			return sym.Initial
		}
		return 0
	case *UnaryExpr:
		v := b.fold(e.Operand)
		switch e.Op {
		case MINUS:
			return -v
		case NOT:
			if v == 0 {
				return 1
			}
			return 0
		}
		return v
	case *BinaryExpr:
		l, r := b.fold(e.Left), b.fold(e.Right)
		switch e.Op {
		case PLUS:
			return l + r
		case MINUS:
			return l - r
		case STAR:
			return l * r
		case SLASH:
			if r == 0 {
				return 0
			}
			return l / r
		case PERCENT:
			if r == 0 {
				return 0
			}
			return l % r
		case AND:
			return boolToWord(l != 0 && r != 0)
		case OR:
			return boolToWord(l != 0 || r != 0)
		case EQUALS:
			return boolToWord(l == r)
		case NOT_EQ:
			return boolToWord(l != r)
		case LESS:
			return boolToWord(l < r)
		case LESS_EQ:
			return boolToWord(l <= r)
		case GREATER:
			return boolToWord(l > r)
		case GREATER_EQ:
			return boolToWord(l >= r)
		}
	}
	return 0
}

func boolToWord(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
