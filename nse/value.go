// Package nse implements the value/type/module runtime core: the
// tagged value union, the type lattice, the symbol and module
// registry, and lexical scope. The four are kept in one package
// because they are mutually recursive in the same way go/types keeps
// Object, Scope, Package and Type together: a closure's Value carries
// a *Scope, a *Scope is anchored on a *Module, a *Module's Namespace
// maps *Symbol to Value, a *Symbol names its owning *Module, and a
// *Type optionally carries a *Symbol name.
package nse

import "fmt"

// Kind tags the variant a Value holds.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindI64
	KindF64
	KindString
	KindSymbol
	KindCons
	KindClosure
	KindFunction
	KindReference
	KindType
	KindSyntax
	// KindUndefined is the distinguished failure sentinel returned by
	// fallible operations. It is orthogonal to KindNil: code that
	// wants to test "no value" must check Kind == KindUndefined, not
	// treat nil and undefined interchangeably.
	KindUndefined
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindI64:
		return "i64"
	case KindF64:
		return "f64"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindCons:
		return "cons"
	case KindClosure:
		return "closure"
	case KindFunction:
		return "function"
	case KindReference:
		return "reference"
	case KindType:
		return "type"
	case KindSyntax:
		return "syntax"
	case KindUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// Value is the tagged union of runtime values. Only the field(s)
// matching Kind are meaningful; heap-resident variants are reference
// counted through their pointee's own refs field.
type Value struct {
	Kind Kind

	i64  int64
	f64  float64
	boo  bool
	str  *stringVal
	sym  *Symbol
	cons *cons
	clo  *Closure
	fn   *Function
	ref  *Reference
	typ  *Type
	syn  *syntax
}

// Nil is the unique nil value.
var Nil = Value{Kind: KindNil}

// True and False are the two boolean singletons.
var (
	True  = Value{Kind: KindBool, boo: true}
	False = Value{Kind: KindBool, boo: false}
)

// Undefined is the distinguished sentinel fallible operations return
// on failure.
var Undefined = Value{Kind: KindUndefined}

// heap object liveness counter, used by tests to verify the
// reference-counting discipline balances — the Go runtime's GC would
// reclaim these regardless, but the discipline this package
// implements is independent of that: every NewXxx increments, every
// structural release decrements, and a correct program returns the
// counter to its starting value.
var liveHeapObjects int64

// LiveHeapObjects reports the number of heap-resident value payloads
// (strings, cons cells, closures, functions, references, syntax
// wrappers) that have not yet been fully released. Symbols and types
// are ref-counted separately and are not included. Tests use this to
// check for leaks and double-frees.
func LiveHeapObjects() int64 {
	return liveHeapObjects
}

type stringVal struct {
	refs  int
	bytes []byte
}

type cons struct {
	refs int
	head Value
	tail Value
}

// Closure is the payload of a KindClosure value: a captured scope, the
// formal parameter symbols, the body expression, and the closure's
// concrete type (a subtype of the matching function type).
type Closure struct {
	refs     int
	Scope    *Scope
	Params   []*Symbol
	Variadic bool
	Body     Value
	Type     *Type
}

// Function is the payload of a KindFunction value: a native callable
// with a fixed arity and optional variadic tail.
type Function struct {
	refs     int
	Name     string
	MinArity int
	Variadic bool
	Call     func(args []Value) (Value, error)
}

// Reference is the payload of a KindReference value: an opaque pointer
// with a destructor invoked exactly once when the last reference is
// released.
type Reference struct {
	refs       int
	Data       interface{}
	destructor func(interface{})
}

type syntax struct {
	refs  int
	value Value
	loc   SourceLocation
}

// SourceLocation is the source-location quadruple a Syntax value wraps
// its payload in: file, start line/column, end line/column.
type SourceLocation struct {
	File      string
	Line, Col int
	EndLine   int
	EndCol    int
}

// I64 constructs an inline i64 value.
func I64(n int64) Value { return Value{Kind: KindI64, i64: n} }

// F64 constructs an inline f64 value.
func F64(n float64) Value { return Value{Kind: KindF64, f64: n} }

// Bool returns True or False.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// NewString allocates a new string value (refs=1). Ownership of the
// bytes moves to the returned value.
func NewString(s string) Value {
	liveHeapObjects++
	return Value{Kind: KindString, str: &stringVal{refs: 1, bytes: []byte(s)}}
}

// NewCons allocates a new cons cell (refs=1). Ownership of head and
// tail moves to the returned value — the caller must not release them
// itself. Producers never create cycles, so a finite chain is always
// safe to release recursively.
func NewCons(head, tail Value) Value {
	liveHeapObjects++
	return Value{Kind: KindCons, cons: &cons{refs: 1, head: head, tail: tail}}
}

// NewClosure allocates a new closure value (refs=1). Ownership of
// scope, params and body moves to the returned value.
func NewClosure(scope *Scope, params []*Symbol, variadic bool, body Value, typ *Type) Value {
	liveHeapObjects++
	return Value{Kind: KindClosure, clo: &Closure{
		refs: 1, Scope: scope, Params: params, Variadic: variadic, Body: body, Type: typ,
	}}
}

// NewFunction allocates a new native function value (refs=1).
func NewFunction(name string, minArity int, variadic bool, call func([]Value) (Value, error)) Value {
	liveHeapObjects++
	return Value{Kind: KindFunction, fn: &Function{refs: 1, Name: name, MinArity: minArity, Variadic: variadic, Call: call}}
}

// NewReference allocates a new opaque reference value (refs=1). The
// destructor, if non-nil, is invoked exactly once when the last
// reference is released.
func NewReference(data interface{}, destructor func(interface{})) Value {
	liveHeapObjects++
	return Value{Kind: KindReference, ref: &Reference{refs: 1, Data: data, destructor: destructor}}
}

// NewSyntax wraps value in a syntax node carrying its source location.
// Ownership of value moves to the returned value.
func NewSyntax(value Value, loc SourceLocation) Value {
	liveHeapObjects++
	return Value{Kind: KindSyntax, syn: &syntax{refs: 1, value: value, loc: loc}}
}

// TypeValue wraps a *Type as a first-class Value (the `type` variant
// of the Kind it carries). AddRef/DelRef on the resulting Value delegate to
// the type's own (weak/strong aware) reference counting, see types.go.
func TypeValue(t *Type) Value {
	return Value{Kind: KindType, typ: copyType(t)}
}

// SymbolValue wraps a *Symbol as a first-class Value.
func SymbolValue(s *Symbol) Value {
	return Value{Kind: KindSymbol, sym: addSymbolRef(s)}
}

// AddRef increments the reference count of v's heap payload (if any)
// and returns v unchanged, mirroring add_ref()'s "returns its argument"
// convenience so call sites can write `x := AddRef(y)`.
func AddRef(v Value) Value {
	switch v.Kind {
	case KindString:
		if v.str != nil {
			v.str.refs++
		}
	case KindCons:
		if v.cons != nil {
			v.cons.refs++
		}
	case KindClosure:
		if v.clo != nil {
			v.clo.refs++
		}
	case KindFunction:
		if v.fn != nil {
			v.fn.refs++
		}
	case KindReference:
		if v.ref != nil {
			v.ref.refs++
		}
	case KindSyntax:
		if v.syn != nil {
			v.syn.refs++
		}
	case KindSymbol:
		if v.sym != nil {
			addSymbolRef(v.sym)
		}
	case KindType:
		if v.typ != nil {
			copyType(v.typ)
		}
	}
	return v
}

// DelRef decrements the reference count of v's heap payload (if any).
// When the count reaches zero the payload is structurally destroyed:
// a cons releases head and tail, a closure releases its captured
// scope, a reference invokes its destructor exactly once. Destructors
// never raise.
func DelRef(v Value) {
	switch v.Kind {
	case KindString:
		if v.str == nil {
			return
		}
		v.str.refs--
		if v.str.refs <= 0 {
			liveHeapObjects--
		}
	case KindCons:
		if v.cons == nil {
			return
		}
		v.cons.refs--
		if v.cons.refs <= 0 {
			DelRef(v.cons.head)
			DelRef(v.cons.tail)
			liveHeapObjects--
		}
	case KindClosure:
		if v.clo == nil {
			return
		}
		v.clo.refs--
		if v.clo.refs <= 0 {
			ScopeDelete(v.clo.Scope)
			DelRef(v.clo.Body)
			deleteType(v.clo.Type)
			liveHeapObjects--
		}
	case KindFunction:
		if v.fn == nil {
			return
		}
		v.fn.refs--
		if v.fn.refs <= 0 {
			liveHeapObjects--
		}
	case KindReference:
		if v.ref == nil {
			return
		}
		v.ref.refs--
		if v.ref.refs <= 0 {
			if v.ref.destructor != nil {
				v.ref.destructor(v.ref.Data)
			}
			liveHeapObjects--
		}
	case KindSyntax:
		if v.syn == nil {
			return
		}
		v.syn.refs--
		if v.syn.refs <= 0 {
			DelRef(v.syn.value)
			liveHeapObjects--
		}
	case KindSymbol:
		delSymbolRef(v.sym)
	case KindType:
		deleteType(v.typ)
	}
}

// IsNil reports whether v is the nil value.
func IsNil(v Value) bool { return v.Kind == KindNil }

// IsUndefined reports whether v is the undefined sentinel.
func IsUndefined(v Value) bool { return v.Kind == KindUndefined }

// IsSymbol reports whether v holds a symbol.
func IsSymbol(v Value) bool { return v.Kind == KindSymbol }

// ToSymbol returns v's symbol payload, or nil if v does not hold one.
func ToSymbol(v Value) *Symbol {
	if v.Kind != KindSymbol {
		return nil
	}
	return v.sym
}

// IsCons reports whether v holds a cons cell.
func IsCons(v Value) bool { return v.Kind == KindCons }

// Head returns the head of a cons value. Panics if v is not a cons —
// callers must check IsCons first; this is an unchecked accessor.
func Head(v Value) Value { return v.cons.head }

// Tail returns the tail of a cons value. See Head.
func Tail(v Value) Value { return v.cons.tail }

// ToI64 returns v's inline i64 payload.
func ToI64(v Value) int64 { return v.i64 }

// ToF64 returns v's inline f64 payload.
func ToF64(v Value) float64 { return v.f64 }

// ToBool returns v's inline boolean payload.
func ToBool(v Value) bool { return v.boo }

// ToString returns v's string payload as a Go string.
func ToString(v Value) string {
	if v.str == nil {
		return ""
	}
	return string(v.str.bytes)
}

// ToType returns v's type payload, or nil if v does not hold one.
func ToType(v Value) *Type {
	if v.Kind != KindType {
		return nil
	}
	return v.typ
}

// ToClosure returns v's closure payload, or nil.
func ToClosure(v Value) *Closure {
	if v.Kind != KindClosure {
		return nil
	}
	return v.clo
}

// ToFunction returns v's function payload, or nil.
func ToFunction(v Value) *Function {
	if v.Kind != KindFunction {
		return nil
	}
	return v.fn
}

// ToReference returns v's reference payload, or nil.
func ToReference(v Value) *Reference {
	if v.Kind != KindReference {
		return nil
	}
	return v.ref
}

func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return fmt.Sprintf("%v", v.boo)
	case KindI64:
		return fmt.Sprintf("%d", v.i64)
	case KindF64:
		return fmt.Sprintf("%g", v.f64)
	case KindString:
		return fmt.Sprintf("%q", string(v.str.bytes))
	case KindSymbol:
		return v.sym.QualifiedName()
	case KindUndefined:
		return "#undefined"
	default:
		return fmt.Sprintf("#<%s>", v.Kind)
	}
}
