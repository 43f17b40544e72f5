package nse

import "github.com/nielssp/nsecore/nserr"

type scopeKind int

const (
	scopeBinding scopeKind = iota
	// scopeModuleAnchor brings a module's defs/macro_defs/
	// read_macro_defs namespaces into unqualified lookup.
	scopeModuleAnchor
	// scopeTypeAnchor brings a module's type_defs namespace into
	// unqualified type lookup.
	scopeTypeAnchor
)

// Scope is one frame of a persistent, singly-linked lexical scope. A
// binding frame holds one symbol/value pair; an anchor frame instead
// brings a whole module's namespace into unqualified lookup. The links
// between frames never change once made — Push always allocates a new
// frame rather than relinking an existing one — so multiple callers
// can share a suffix of the chain (e.g. a closure's captured scope and
// the scope it was captured from). A binding frame's value is the one
// mutable part: Set replaces it in place, and every scope sharing that
// frame sees the new value.
//
// An anchor frame is always terminal: UseModule and UseModuleTypes
// only ever construct one as the root of a brand new chain (next is
// always nil), never chained onto an existing scope, so there is no
// way to build one with something beneath it. Push, by contrast, may
// freely link a binding frame on top of an anchor — that is the
// ordinary shape of evaluating a binding form at module scope — so
// what can never happen is a frame appearing *after* an anchor, only
// ever before it. Get/GetMacro/GetType/GetReadMacro each scan for the
// frame kind relevant to the namespace being queried and skip frames
// of any other kind, so there is no way to mis-read an anchor frame as
// a binding or vice versa.
type Scope struct {
	refs int
	kind scopeKind

	symbol *Symbol
	value  Value

	module *Module

	next *Scope
}

// Push returns a new scope with sym bound to val, chained onto next
// (which may be nil for an empty scope).
func Push(next *Scope, sym *Symbol, val Value) *Scope {
	return &Scope{
		refs: 1, kind: scopeBinding,
		symbol: addSymbolRef(sym), value: AddRef(val),
		next: ScopeCopy(next),
	}
}

// UseModule returns a new scope, rooted on an anchor frame, that
// brings module's ordinary value, macro and read-macro namespaces into
// unqualified lookup. An anchor frame is always the start of a fresh
// chain — there is no way to chain it onto an existing scope, which is
// what guarantees it is always terminal; bindings are expected to be
// Push'd on top of the scope this returns, not the other way around.
func UseModule(module *Module) *Scope {
	return &Scope{refs: 1, kind: scopeModuleAnchor, module: module}
}

// UseModuleTypes returns a new scope, rooted on an anchor frame, that
// brings module's type namespace into unqualified type lookup. Like
// UseModule, the anchor it returns is always the root of a fresh
// chain.
func UseModuleTypes(module *Module) *Scope {
	return &Scope{refs: 1, kind: scopeTypeAnchor, module: module}
}

// ScopeCopy increments s's reference count and returns it (nil-safe).
func ScopeCopy(s *Scope) *Scope {
	if s == nil {
		return nil
	}
	s.refs++
	return s
}

// ScopeDelete releases a reference to s, recursively releasing its
// owned symbol/value (or nothing, for an anchor frame, which does not
// own the module it points to) and its next frame once the count
// reaches zero.
func ScopeDelete(s *Scope) {
	if s == nil {
		return
	}
	s.refs--
	if s.refs > 0 {
		return
	}
	if s.kind == scopeBinding {
		delSymbolRef(s.symbol)
		DelRef(s.value)
	}
	ScopeDelete(s.next)
}

// Pop returns the scope beneath s's top frame, without releasing s
// itself — the caller that holds s's only reference should follow
// with ScopeDelete(s) once it no longer needs the top frame alone.
func Pop(s *Scope) *Scope {
	if s == nil {
		return nil
	}
	return s.next
}

// PopUntil walks s outward, releasing each frame, until it reaches
// until (by pointer identity) or the chain's end. Used to restore a
// saved scope mark after leaving a lexical block, releasing every
// frame pushed since the mark was taken. A frame that is still shared
// after its release keeps its hold on the frames beneath it, so those
// are left untouched.
func PopUntil(s, until *Scope) *Scope {
	cur := s
	owned := true
	for cur != nil && cur != until {
		next := cur.next
		if owned {
			cur.refs--
			if cur.refs <= 0 {
				if cur.kind == scopeBinding {
					delSymbolRef(cur.symbol)
					DelRef(cur.value)
				}
			} else {
				owned = false
			}
		}
		cur = next
	}
	if owned && cur != nil && cur != s {
		cur.refs--
	}
	return cur
}

func scopeResolvesSymbol(m *Module, sym *Symbol) bool {
	found, ok := m.FindInternal(sym.Name())
	if !ok {
		return false
	}
	same := found == sym
	delSymbolRef(found)
	return same
}

// Get resolves sym's lexical value binding: the nearest binding frame
// for the exact symbol, or failing that the defs namespace of the
// nearest module-anchor frame whose module interns a symbol of that
// name (which, for an imported symbol, is not the anchor's own module
// but the symbol's actual home module — import only aliases the name,
// it does not move the binding).
func (s *Scope) Get(sym *Symbol) (Value, error) {
	for cur := s; cur != nil; cur = cur.next {
		switch cur.kind {
		case scopeBinding:
			if cur.symbol == sym {
				return AddRef(cur.value), nil
			}
		case scopeModuleAnchor:
			if scopeResolvesSymbol(cur.module, sym) {
				if v, ok := sym.Module().Get(sym); ok {
					return v, nil
				}
			}
		}
	}
	return Undefined, nserr.New(nserr.NameError, "unbound variable: %s", sym.QualifiedName())
}

// GetMacro resolves sym's macro binding through the chain's
// module-anchor frames. Macros live only at module scope, so binding
// frames are skipped.
func (s *Scope) GetMacro(sym *Symbol) (Value, bool) {
	for cur := s; cur != nil; cur = cur.next {
		if cur.kind == scopeModuleAnchor && scopeResolvesSymbol(cur.module, sym) {
			if v, ok := sym.Module().GetMacro(sym); ok {
				return v, true
			}
		}
	}
	return Undefined, false
}

// GetReadMacro resolves sym's read-macro binding through the chain's
// module-anchor frames.
func (s *Scope) GetReadMacro(sym *Symbol) (Value, bool) {
	for cur := s; cur != nil; cur = cur.next {
		if cur.kind == scopeModuleAnchor && scopeResolvesSymbol(cur.module, sym) {
			if v, ok := sym.Module().GetReadMacro(sym); ok {
				return v, true
			}
		}
	}
	return Undefined, false
}

// GetType resolves sym's type binding through the chain's type-anchor
// frames.
func (s *Scope) GetType(sym *Symbol) (*Type, bool) {
	for cur := s; cur != nil; cur = cur.next {
		if cur.kind == scopeTypeAnchor && scopeResolvesSymbol(cur.module, sym) {
			if t, ok := sym.Module().GetType(sym); ok {
				return t, true
			}
		}
	}
	return nil, false
}

// Set rebinds sym in the nearest frame that already binds it —
// mutating the nearest matching binding frame in place, or
// redefining sym at module scope if only a module-anchor frame
// resolves it. Used for assignment (set!) rather than fresh binding.
//
// weak suppresses the new value's add-ref: the caller is handing over
// a reference it already owns rather than lending one, which is how a
// self-referential closure is installed into the binding it captured
// without creating a permanent cycle (the closure's own strong
// reference to the binding's value is the one the binding keeps;
// nothing new is added).
func (s *Scope) Set(sym *Symbol, val Value, weak bool) error {
	for cur := s; cur != nil; cur = cur.next {
		switch cur.kind {
		case scopeBinding:
			if cur.symbol == sym {
				DelRef(cur.value)
				if weak {
					cur.value = val
				} else {
					cur.value = AddRef(val)
				}
				return nil
			}
		case scopeModuleAnchor:
			if scopeResolvesSymbol(cur.module, sym) {
				if weak {
					sym.Module().Define(sym, val)
				} else {
					sym.Module().Define(sym, AddRef(val))
				}
				return nil
			}
		}
	}
	return nserr.New(nserr.NameError, "unbound variable: %s", sym.QualifiedName())
}
