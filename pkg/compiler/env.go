package compiler

import "sort"

// IdentKind says whether a binding names a variable or a function.
type IdentKind int

const (
	KindVariable IdentKind = iota
	KindFunction
)

// Ident is one name binding: a variable with its declared type, or a
// function with its return type and parameters. Initialized means a
// variable has been given a value, or a function's declaration has been
// reached by the walk (as opposed to only pre-collected).
type Ident struct {
	Kind        IdentKind
	Type        VarType // variable type, or function return type
	Params      []Param // functions only
	Initialized bool
	UniqueName  string
}

// Env is a chain of lexical scopes. Each scope maps names to bindings;
// lookups walk outward through the enclosing scopes. Function scopes carry
// the declared return type so return statements inside can be checked.
type Env struct {
	parent     *Env
	names      map[string]*Ident
	returnType *VarType
}

// NewEnv returns an empty global scope.
func NewEnv() *Env {
	return &Env{names: make(map[string]*Ident)}
}

// Push opens a nested scope and returns it.
func (e *Env) Push() *Env {
	return &Env{parent: e, names: make(map[string]*Ident)}
}

// PushReturn opens a nested function scope carrying the function's return
// type.
func (e *Env) PushReturn(ret VarType) *Env {
	child := e.Push()
	child.returnType = &ret
	return child
}

// Pop closes the current scope and returns its parent.
func (e *Env) Pop() *Env { return e.parent }

// DeclareVariable binds name as a variable in this scope, replacing any
// existing binding of the same name here.
func (e *Env) DeclareVariable(name string, typ VarType, initialized bool) {
	e.names[name] = &Ident{Kind: KindVariable, Type: typ, Initialized: initialized}
}

// DeclareFunction binds name as a function in this scope. The binding
// starts uninitialized; the walk marks it when it reaches the declaration
// itself.
func (e *Env) DeclareFunction(name string, ret VarType, params []Param) {
	e.names[name] = &Ident{Kind: KindFunction, Type: ret, Params: params}
}

func (e *Env) lookup(name string) *Ident {
	for s := e; s != nil; s = s.parent {
		if id, ok := s.names[name]; ok {
			return id
		}
	}
	return nil
}

// Lookup finds the nearest binding of name, walking outward.
func (e *Env) Lookup(name string) (*Ident, bool) {
	id := e.lookup(name)
	return id, id != nil
}

// Declared reports whether name is bound in this scope or any enclosing
// one.
func (e *Env) Declared(name string) bool { return e.lookup(name) != nil }

// DeclaredInScope reports whether name is bound in this scope itself.
func (e *Env) DeclaredInScope(name string) bool {
	_, ok := e.names[name]
	return ok
}

// IsFunction reports whether the nearest binding of name is a function.
func (e *Env) IsFunction(name string) bool {
	id := e.lookup(name)
	return id != nil && id.Kind == KindFunction
}

// IsVariable reports whether the nearest binding of name is a variable.
func (e *Env) IsVariable(name string) bool {
	id := e.lookup(name)
	return id != nil && id.Kind == KindVariable
}

// IsInitialized reports whether the nearest binding of name has been
// initialized.
func (e *Env) IsInitialized(name string) bool {
	id := e.lookup(name)
	return id != nil && id.Initialized
}

// MarkInitialized marks the nearest binding of name as initialized.
func (e *Env) MarkInitialized(name string) {
	if id := e.lookup(name); id != nil {
		id.Initialized = true
	}
}

// SetUniqueName records the flattened name for the nearest binding of
// name.
func (e *Env) SetUniqueName(name, unique string) {
	if id := e.lookup(name); id != nil {
		id.UniqueName = unique
	}
}

// UniqueName returns the flattened name recorded for the nearest binding
// of name, or the name itself when none was recorded.
func (e *Env) UniqueName(name string) string {
	if id := e.lookup(name); id != nil && id.UniqueName != "" {
		return id.UniqueName
	}
	return name
}

// ReturnType reports the return type of the enclosing function scope, if
// the current scope is inside one.
func (e *Env) ReturnType() (VarType, bool) {
	for s := e; s != nil; s = s.parent {
		if s.returnType != nil {
			return *s.returnType, true
		}
	}
	return TypeErr, false
}

// VisibleVariables lists every variable name visible from this scope,
// innermost scopes first. Names within one scope come out sorted so
// spelling suggestions are deterministic.
func (e *Env) VisibleVariables() []string {
	return e.visible(KindVariable)
}

// VisibleFunctions lists every function name visible from this scope,
// innermost scopes first.
func (e *Env) VisibleFunctions() []string {
	return e.visible(KindFunction)
}

func (e *Env) visible(kind IdentKind) []string {
	var out []string
	seen := make(map[string]bool)
	for s := e; s != nil; s = s.parent {
		var level []string
		for name, id := range s.names {
			if id.Kind == kind && !seen[name] {
				level = append(level, name)
				seen[name] = true
			}
		}
		sort.Strings(level)
		out = append(out, level...)
	}
	return out
}
