package nse

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nielssp/nsecore/hashmap"
	"github.com/nielssp/nsecore/nserr"
)

// logger receives trace-level records of generic/instance interning
// activity. Runtime.New replaces it with a field-scoped entry once a
// Config is available; standalone users of this package get a
// harmless default.
var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger overrides the logger used for type-lattice trace records.
func SetLogger(l logrus.FieldLogger) {
	logger = l
}

// TypeKind tags the variant a *Type is.
type TypeKind int

const (
	// TypeSimple is a named type with a single super type (any, bool,
	// int, string, ...).
	TypeSimple TypeKind = iota
	// TypeFunc is a native function signature: (params...) -> return.
	TypeFunc
	// TypeClosure is a closure signature; always a subtype of the Func
	// type of the same shape.
	TypeClosure
	// TypeGenericFunc is a multi-method signature whose parameter types
	// may themselves be poly-vars.
	TypeGenericFunc
	// TypeGeneric is a type constructor (e.g. `list`) of fixed arity,
	// not itself instantiable as a value's type until applied.
	TypeGeneric
	// TypeInstance is a generic applied to concrete argument types
	// (e.g. `(list int)`). Its argument types may themselves contain
	// poly-vars, in which case it is the shape a generic function's own
	// signature uses before a call site binds concrete types.
	TypeInstance
	// TypePolyInstance is the single universal node representing a
	// generic applied polymorphically, with no argument tuple at all —
	// the generic's own `poly` slot. It is the super type of things like
	// `nil`, and is mutually subtype-compatible with every TypeInstance
	// of the same generic regardless of that instance's arguments.
	TypePolyInstance
	// TypePolyVar is a placeholder type bound to a concrete type at a
	// generic function call site.
	TypePolyVar
)

// Type is a node in the type lattice. Only the fields relevant to Kind
// are meaningful.
type Type struct {
	refs int
	Kind TypeKind

	Name  *Symbol // Simple, Generic, PolyVar
	Super *Type   // Simple, PolyVar bound, Func/Closure/GenericFunc parent, precomputed Instance/PolyInstance parent

	Params   []*Type // Func/Closure/GenericFunc parameter types; Instance argument types
	Return   *Type   // Func/Closure/GenericFunc return type
	Variadic bool    // Func/Closure/GenericFunc

	Generic *Type // Instance/PolyInstance: owning generic (strong back-edge)
	Arity   int   // Generic: number of type parameters
	Index   int   // PolyVar: position, for display/diagnostics only

	instances *hashmap.Table // Generic only: weak map from param-tuple to *Type instance
	poly      *Type          // Generic only: weak back-ref to this generic's universal poly-instance
}

func typeArrayHash(key interface{}) uint64 {
	arr := key.([]*Type)
	h := hashmap.InitHash
	for _, t := range arr {
		h = hashmap.FoldPointer(h, t)
	}
	return h
}

func typeArrayEqual(a, b interface{}) bool {
	aa, bb := a.([]*Type), b.([]*Type)
	if len(aa) != len(bb) {
		return false
	}
	for i := range aa {
		if aa[i] != bb[i] {
			return false
		}
	}
	return true
}

// NewSimpleType allocates a new named simple type (refs=1). super may
// be nil only for the root of the lattice (`any`).
func NewSimpleType(name *Symbol, super *Type) *Type {
	t := &Type{refs: 1, Kind: TypeSimple, Name: addSymbolRef(name), Super: copyType(super)}
	return t
}

// NewGeneric allocates a new generic type constructor of the given
// arity (refs=1), with its own (initially empty) weak instance cache.
func NewGeneric(name *Symbol, arity int, super *Type) *Type {
	t := &Type{
		Kind: TypeGeneric, Name: addSymbolRef(name), Arity: arity, Super: copyType(super),
		refs:      1,
		instances: hashmap.New(typeArrayHash, typeArrayEqual),
	}
	logger.WithField("generic", name.Name()).Trace("type: generic created")
	return t
}

// NewPolyVar allocates a new poly-var placeholder (refs=1). bound
// becomes its Super; a nil bound leaves Super nil.
func NewPolyVar(name *Symbol, index int, bound *Type) *Type {
	return &Type{refs: 1, Kind: TypePolyVar, Name: addSymbolRef(name), Index: index, Super: copyType(bound)}
}

// GetFuncType builds a (not-interned) native function type whose Super
// is root — the built-in `func` type, giving the chain
// "closure(a,v) < func(a,v) < func < any". Each call returns a fresh
// node; TypeRegistry.InternFuncType is the interning entry point that
// returns one shared node per (params, variadic, ret) signature.
func GetFuncType(params []*Type, variadic bool, ret *Type, root *Type) *Type {
	t := &Type{
		Kind: TypeFunc, Params: copyTypeSlice(params), Variadic: variadic, Return: copyType(ret),
		Super: copyType(root), refs: 1,
	}
	return t
}

// GetClosureType builds a closure type whose Super is funcType — the
// func type of the identical signature, making closures subtypes of
// matching function types.
func GetClosureType(params []*Type, variadic bool, ret *Type, funcType *Type) *Type {
	t := &Type{
		Kind: TypeClosure, Params: copyTypeSlice(params), Variadic: variadic, Return: copyType(ret),
		Super: copyType(funcType), refs: 1,
	}
	return t
}

// GetGenericFuncType builds a multi-method signature type, also a
// subtype of the built-in `func` type. Parameter types may be, or
// contain, poly-vars.
func GetGenericFuncType(params []*Type, variadic bool, ret *Type, root *Type) *Type {
	return &Type{
		Kind: TypeGenericFunc, Params: copyTypeSlice(params), Variadic: variadic, Return: copyType(ret),
		Super: copyType(root), refs: 1,
	}
}

func copyTypeSlice(ts []*Type) []*Type {
	out := make([]*Type, len(ts))
	for i, t := range ts {
		out[i] = copyType(t)
	}
	return out
}

// GetInstance returns the canonical instance of generic applied to
// params, creating and registering it if this is the first request for
// this exact parameter tuple. The generic holds a weak (non-owning)
// back-edge to the instance; the instance holds a strong (owning)
// forward edge to the generic — releasing the last external reference
// to an instance must detach it from the generic's cache before the
// generic itself can be considered for release.
func GetInstance(generic *Type, params []*Type) (*Type, error) {
	if generic.Kind != TypeGeneric {
		return nil, fmt.Errorf("nse: GetInstance called on non-generic type %v", generic.Kind)
	}
	if len(params) != generic.Arity {
		return nil, nserr.New(nserr.DomainError, "generic %s expects %d parameters, got %d", generic.Name.Name(), generic.Arity, len(params))
	}
	if existing, ok := generic.instances.Lookup(params); ok {
		return copyType(existing.(*Type)), nil
	}
	inst := &Type{
		Kind: TypeInstance, Generic: copyType(generic), Params: copyTypeSlice(params),
		Super: copyType(generic.Super), refs: 1,
	}
	generic.instances.Add(inst.Params, inst)
	logger.WithFields(logrus.Fields{"generic": generic.Name.Name(), "arity": len(params)}).
		Trace("type: instance interned")
	return inst, nil
}

// GetUnaryInstance is a convenience for GetInstance on an arity-1
// generic, e.g. `(list int)`.
func GetUnaryInstance(generic, param *Type) (*Type, error) {
	return GetInstance(generic, []*Type{param})
}

// GetPolyInstance returns the canonical universal poly-instance of
// generic: a single node per generic, with no argument tuple, weakly
// cached in the generic's own `poly` slot (mirroring the `instances`
// map's weak/strong back-edge split — the instance holds a strong
// reference to generic, and releasing the last external reference to
// the poly-instance must clear the slot before the generic can be
// considered for release). This is the node built-ins like `nil` chain
// through as their super type, giving every concrete instance of the
// same generic a common, pointer-stable ancestor regardless of its own
// argument types — see genericCompatible.
func GetPolyInstance(generic *Type) (*Type, error) {
	if generic.Kind != TypeGeneric {
		return nil, fmt.Errorf("nse: GetPolyInstance called on non-generic type %v", generic.Kind)
	}
	if generic.poly != nil {
		return copyType(generic.poly), nil
	}
	t := &Type{
		Kind: TypePolyInstance, Generic: copyType(generic),
		Super: copyType(generic.Super), refs: 1,
	}
	generic.poly = t
	logger.WithField("generic", generic.Name.Name()).Trace("type: poly instance interned")
	return t, nil
}

// copyType increments t's reference count (strong references only;
// the generic->instance back-edge is never counted here) and returns
// t, so a call site can chain acquisition with use in one expression.
func copyType(t *Type) *Type {
	if t == nil {
		return nil
	}
	t.refs++
	return t
}

// deleteType releases a strong reference to t, recursively destroying
// it and its owned children once the count reaches zero.
func deleteType(t *Type) {
	if t == nil {
		return
	}
	t.refs--
	if t.refs > 0 {
		return
	}
	switch t.Kind {
	case TypeSimple:
		delSymbolRef(t.Name)
		deleteType(t.Super)
	case TypeFunc, TypeClosure, TypeGenericFunc:
		for _, p := range t.Params {
			deleteType(p)
		}
		deleteType(t.Return)
		deleteType(t.Super)
	case TypeGeneric:
		delSymbolRef(t.Name)
		deleteType(t.Super)
	case TypeInstance:
		if t.Generic != nil && t.Generic.instances != nil {
			t.Generic.instances.Remove(t.Params)
		}
		for _, p := range t.Params {
			deleteType(p)
		}
		deleteType(t.Super)
		deleteType(t.Generic)
	case TypePolyInstance:
		if t.Generic != nil && t.Generic.poly == t {
			t.Generic.poly = nil
		}
		deleteType(t.Super)
		deleteType(t.Generic)
	case TypePolyVar:
		delSymbolRef(t.Name)
		deleteType(t.Super)
	}
}

// genericCompatible implements is_subtype_of's and unify_types' shared
// special case: a generic's universal poly-instance (its `poly` slot,
// see GetPolyInstance) is mutually compatible with any instance of
// that same generic, regardless of the instance's own argument types —
// the poly-instance is the generic's universal upper bound for all its
// instances and, conversely, every instance is beneath it.
func genericCompatible(a, b *Type) bool {
	if a.Kind == TypePolyInstance && b.Kind == TypeInstance && a.Generic == b.Generic {
		return true
	}
	if b.Kind == TypePolyInstance && a.Kind == TypeInstance && b.Generic == a.Generic {
		return true
	}
	return false
}

// IsSubtypeOf reports whether sub is the same as, or a descendant of,
// super in the lattice. Walks sub's super chain, applying
// genericCompatible at every step.
func IsSubtypeOf(sub, super *Type) bool {
	for cur := sub; cur != nil; cur = cur.Super {
		if cur == super {
			return true
		}
		if genericCompatible(cur, super) {
			return true
		}
	}
	return false
}

// UnifyTypes returns the most specific common ancestor of a and b in
// the lattice, falling back to the `any` root if the two share no
// ancestor more specific than that (any is reached by every chain,
// since it is the lattice's unique root with a nil Super). For each
// node y on b's super chain, the whole of a's chain is rescanned
// looking for an exact match or a poly-instance/instance pairing; on a
// poly-instance match the concrete instance side is returned, since
// that side is already the more specific (and thus correct) common
// ancestor of the pair.
func UnifyTypes(a, b *Type, any *Type) *Type {
	for y := b; y != nil; y = y.Super {
		for x := a; x != nil; x = x.Super {
			if x == y {
				return x
			}
			if x.Kind == TypePolyInstance && y.Kind == TypeInstance && x.Generic == y.Generic {
				return y
			}
			if y.Kind == TypePolyInstance && x.Kind == TypeInstance && y.Generic == x.Generic {
				return x
			}
		}
	}
	return any
}

// TypeRegistry interns function-family types so that two identical
// signatures compare equal by pointer, the way generics' instances
// already do via GetInstance. Kept separate from the per-generic
// instance caches so an embedder can hold one TypeRegistry per Runtime
// instead of relying on package-level state.
type TypeRegistry struct {
	funcTypes        *hashmap.Table
	closureTypes     *hashmap.Table
	genericFuncTypes *hashmap.Table
	funcRoot         *Type
}

// NewTypeRegistry returns an empty registry. SetFuncRoot must be
// called once, with the built-in `func` type, before interning any
// signature.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		funcTypes:        hashmap.New(funcTypeHash, funcTypeEqual),
		closureTypes:     hashmap.New(funcTypeHash, funcTypeEqual),
		genericFuncTypes: hashmap.New(funcTypeHash, funcTypeEqual),
	}
}

// SetFuncRoot records the built-in `func` type as the super type every
// interned function/closure/generic-function signature ultimately
// chains up to, per the lattice "closure(a,v) < func(a,v) < func <
// any".
func (r *TypeRegistry) SetFuncRoot(root *Type) {
	r.funcRoot = copyType(root)
}

type funcTypeKey struct {
	params   []*Type
	variadic bool
	ret      *Type
}

func funcTypeHash(key interface{}) uint64 {
	k := key.(funcTypeKey)
	h := hashmap.InitHash
	for _, p := range k.params {
		h = hashmap.FoldPointer(h, p)
	}
	h = hashmap.FoldPointer(h, k.ret)
	if k.variadic {
		h = hashmap.FoldPointer(h, "variadic")
	}
	return h
}

func funcTypeEqual(a, b interface{}) bool {
	ka, kb := a.(funcTypeKey), b.(funcTypeKey)
	if ka.variadic != kb.variadic || ka.ret != kb.ret || len(ka.params) != len(kb.params) {
		return false
	}
	for i := range ka.params {
		if ka.params[i] != kb.params[i] {
			return false
		}
	}
	return true
}

// InternFuncType returns the canonical *Type for this signature,
// building it via GetFuncType on first request.
func (r *TypeRegistry) InternFuncType(params []*Type, variadic bool, ret *Type) *Type {
	key := funcTypeKey{params: params, variadic: variadic, ret: ret}
	if existing, ok := r.funcTypes.Lookup(key); ok {
		return copyType(existing.(*Type))
	}
	t := GetFuncType(params, variadic, ret, r.funcRoot)
	r.funcTypes.Add(key, t)
	return t
}

// InternClosureType returns the canonical closure *Type for this
// signature, building it (and its backing func type) on first
// request.
func (r *TypeRegistry) InternClosureType(params []*Type, variadic bool, ret *Type) *Type {
	key := funcTypeKey{params: params, variadic: variadic, ret: ret}
	if existing, ok := r.closureTypes.Lookup(key); ok {
		return copyType(existing.(*Type))
	}
	funcType := r.InternFuncType(params, variadic, ret)
	t := GetClosureType(params, variadic, ret, funcType)
	r.closureTypes.Add(key, t)
	return t
}

// InternGenericFuncType returns the canonical multi-method signature
// *Type, building it on first request.
func (r *TypeRegistry) InternGenericFuncType(params []*Type, variadic bool, ret *Type) *Type {
	key := funcTypeKey{params: params, variadic: variadic, ret: ret}
	if existing, ok := r.genericFuncTypes.Lookup(key); ok {
		return copyType(existing.(*Type))
	}
	t := GetGenericFuncType(params, variadic, ret, r.funcRoot)
	r.genericFuncTypes.Add(key, t)
	return t
}

// InstantiateType substitutes every poly-var reachable from t with its
// binding, bottom-up, interning the resulting concrete func/closure/
// generic-func types through reg and concrete generic applications
// through GetInstance. Returns a domain_error if t mentions a poly-var
// with no binding.
func InstantiateType(reg *TypeRegistry, t *Type, bindings map[*Type]*Type) (*Type, error) {
	switch t.Kind {
	case TypePolyVar:
		if bound, ok := bindings[t]; ok {
			return bound, nil
		}
		return nil, nserr.New(nserr.DomainError, "unbound poly-var %s", t.Name.Name())
	case TypeSimple, TypeGeneric:
		return t, nil
	case TypeFunc, TypeClosure, TypeGenericFunc:
		params := make([]*Type, len(t.Params))
		for i, p := range t.Params {
			sub, err := InstantiateType(reg, p, bindings)
			if err != nil {
				return nil, err
			}
			params[i] = sub
		}
		ret, err := InstantiateType(reg, t.Return, bindings)
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case TypeFunc:
			return reg.InternFuncType(params, t.Variadic, ret), nil
		case TypeClosure:
			return reg.InternClosureType(params, t.Variadic, ret), nil
		default:
			return reg.InternGenericFuncType(params, t.Variadic, ret), nil
		}
	case TypeInstance:
		params := make([]*Type, len(t.Params))
		for i, p := range t.Params {
			sub, err := InstantiateType(reg, p, bindings)
			if err != nil {
				return nil, err
			}
			params[i] = sub
		}
		return GetInstance(t.Generic, params)
	default:
		// TypePolyInstance carries no argument tuple to substitute
		// into — it is the fixed universal node for its generic — so
		// it, like TypeSimple and TypeGeneric, passes through
		// unchanged.
		return t, nil
	}
}
