package nse

import "github.com/nielssp/nsecore/hashmap"

// MethodMap maps (symbol, parameter-type-tuple) to the Value
// implementing that multi-method overload. Entries never
// expire on their own; DefineMethod replaces, Module.destroy tears the
// whole table down with the owning module.
type MethodMap struct {
	table *hashmap.Table
}

type methodKey struct {
	sym    *Symbol
	params []*Type
}

// methodHash folds the generic symbol's pointer identity together
// with every parameter type's pointer identity, using the same
// FoldPointer mixer types.go's instance cache uses for its type-tuple
// keys, so a lookup for a given (symbol, params) tuple always lands on
// the same bucket regardless of insertion order.
func methodHash(key interface{}) uint64 {
	k := key.(methodKey)
	h := hashmap.FoldPointer(hashmap.InitHash, k.sym)
	for _, p := range k.params {
		h = hashmap.FoldPointer(h, p)
	}
	return h
}

func methodEqual(a, b interface{}) bool {
	ka, kb := a.(methodKey), b.(methodKey)
	if ka.sym != kb.sym || len(ka.params) != len(kb.params) {
		return false
	}
	for i := range ka.params {
		if ka.params[i] != kb.params[i] {
			return false
		}
	}
	return true
}

func newMethodMap(capacity int) *MethodMap {
	return &MethodMap{table: hashmap.NewSized(methodHash, methodEqual, capacity)}
}

// Define registers val as the method for sym applied to the given
// exact parameter type tuple, releasing whatever was previously
// registered for that exact tuple.
func (mm *MethodMap) Define(sym *Symbol, params []*Type, val Value) {
	key := methodKey{sym: sym, params: append([]*Type(nil), params...)}
	if existing, ok := mm.table.Lookup(key); ok {
		DelRef(existing.(Value))
		mm.table.Remove(key)
	}
	mm.table.Add(key, val)
}

// Find looks up the method registered for an exact parameter type
// tuple. Picking the most specific applicable method when no exact
// tuple matches is the evaluator's dispatch concern, built on top of
// this exact-match primitive plus IsSubtypeOf.
func (mm *MethodMap) Find(sym *Symbol, params []*Type) (Value, bool) {
	v, ok := mm.table.Lookup(methodKey{sym: sym, params: params})
	if !ok {
		return Undefined, false
	}
	return AddRef(v.(Value)), true
}

func (mm *MethodMap) destroy() {
	it := mm.table.Iterate()
	for {
		_, v, ok := it.Next()
		if !ok {
			break
		}
		DelRef(v.(Value))
	}
}
