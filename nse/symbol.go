package nse

import (
	"strings"

	"github.com/nielssp/nsecore/hashmap"
)

// Symbol is an interned name, always owned by exactly one Module (its
// home module) even when referenced unqualified from another
// module's scope or copied into another module's import table.
type Symbol struct {
	refs   int
	name   string
	module *Module
}

// Name returns the symbol's bare (unqualified) name.
func (s *Symbol) Name() string { return s.name }

// Module returns the symbol's home module.
func (s *Symbol) Module() *Module { return s.module }

// QualifiedName returns "module/name", or just "name" for a symbol
// with no home module (should not normally occur outside of tests).
func (s *Symbol) QualifiedName() string {
	if s.module == nil {
		return s.name
	}
	return s.module.Name + "/" + s.name
}

func addSymbolRef(s *Symbol) *Symbol {
	if s == nil {
		return nil
	}
	s.refs++
	return s
}

// delSymbolRef releases a reference to s. Because a module's internal
// symbol table itself holds one permanent reference for the module's
// entire lifetime (interned symbols persist for as long as their
// module exists, matching ordinary symbol-table semantics), this only
// actually removes the symbol from its tables in the pathological case
// where a caller releases more references than it acquired.
func delSymbolRef(s *Symbol) {
	if s == nil {
		return
	}
	s.refs--
	if s.refs > 0 || s.module == nil {
		return
	}
	s.module.internal.remove(s.name)
	s.module.external.remove(s.name)
}

// symMap is the string-keyed table backing a module's internal and
// external symbol tables.
type symMap struct {
	table *hashmap.Table
}

func newSymMap(capacity int) *symMap {
	return &symMap{table: hashmap.NewSized(stringKeyHash, stringKeyEqual, capacity)}
}

func stringKeyHash(key interface{}) uint64  { return hashmap.StringHash(key.(string)) }
func stringKeyEqual(a, b interface{}) bool  { return hashmap.StringEqual(a, b) }

func (m *symMap) lookup(name string) (*Symbol, bool) {
	v, ok := m.table.Lookup(name)
	if !ok {
		return nil, false
	}
	return v.(*Symbol), true
}

func (m *symMap) add(name string, s *Symbol)  { m.table.Add(name, s) }
func (m *symMap) remove(name string)          { m.table.Remove(name) }
func (m *symMap) symbols() []*Symbol {
	out := make([]*Symbol, 0, m.table.Len())
	it := m.table.Iterate()
	for {
		_, v, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, v.(*Symbol))
	}
	return out
}

// valueNamespace is a *Symbol -> Value table, backing a module's defs,
// macro_defs and read_macro_defs namespaces.
type valueNamespace struct {
	table *hashmap.Table
}

func newValueNamespace(capacity int) *valueNamespace {
	return &valueNamespace{table: hashmap.NewSized(hashmap.PointerHash, hashmap.PointerEqual, capacity)}
}

// Set stores v under sym, releasing whatever was previously bound
// there. Takes ownership of v.
func (n *valueNamespace) Set(sym *Symbol, v Value) {
	if existing, ok := n.table.Lookup(sym); ok {
		DelRef(existing.(Value))
		n.table.Remove(sym)
	}
	n.table.Add(sym, v)
}

// Get returns a fresh reference to the value bound to sym, if any.
func (n *valueNamespace) Get(sym *Symbol) (Value, bool) {
	v, ok := n.table.Lookup(sym)
	if !ok {
		return Undefined, false
	}
	return AddRef(v.(Value)), true
}

func (n *valueNamespace) destroy() {
	it := n.table.Iterate()
	for {
		_, v, ok := it.Next()
		if !ok {
			break
		}
		DelRef(v.(Value))
	}
}

// typeNamespace is a *Symbol -> *Type table, backing a module's
// type_defs namespace.
type typeNamespace struct {
	table *hashmap.Table
}

func newTypeNamespace(capacity int) *typeNamespace {
	return &typeNamespace{table: hashmap.NewSized(hashmap.PointerHash, hashmap.PointerEqual, capacity)}
}

func (n *typeNamespace) Set(sym *Symbol, t *Type) {
	if existing, ok := n.table.Lookup(sym); ok {
		deleteType(existing.(*Type))
		n.table.Remove(sym)
	}
	n.table.Add(sym, t)
}

func (n *typeNamespace) Get(sym *Symbol) (*Type, bool) {
	v, ok := n.table.Lookup(sym)
	if !ok {
		return nil, false
	}
	return copyType(v.(*Type)), true
}

func (n *typeNamespace) destroy() {
	it := n.table.Iterate()
	for {
		_, v, ok := it.Next()
		if !ok {
			break
		}
		deleteType(v.(*Type))
	}
}

// SplitQualifiedName parses a possibly module-qualified name by
// splitting at the *last* '/', matching get_symbol_module's rule that
// everything up to the final slash is the module path and everything
// after it is the symbol's bare name. A name with no '/' is
// unqualified.
func SplitQualifiedName(s string) (moduleName, symbolName string, qualified bool) {
	i := strings.LastIndex(s, "/")
	if i < 0 {
		return "", s, false
	}
	return s[:i], s[i+1:], true
}
