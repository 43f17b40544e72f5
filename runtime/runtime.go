// Package runtime gathers the module registry, the function/closure/
// generic-function type interning caches, the `lang` and `keyword`
// modules, and the built-in type lattice into one explicit,
// constructible Runtime value, the way go/types threads an explicit
// *Context/*checker through every operation instead of relying on
// package globals.
package runtime

import (
	"github.com/sirupsen/logrus"

	"github.com/nielssp/nsecore/config"
	"github.com/nielssp/nsecore/nse"
)

// Runtime is the facade embedders construct once. Its methods cover
// module lookup/creation, symbol interning, import, scope construction,
// and error reporting; definition goes through *nse.Module methods, and
// type queries and value construction are package-level nse functions
// that take no Runtime.
type Runtime struct {
	Registry *nse.Registry
	Types    *nse.TypeRegistry
	Config   *config.Config
	Log      logrus.FieldLogger

	LangModule    *nse.Module
	KeywordModule *nse.Module

	// Built-in simple types.
	AnyType          *nse.Type
	BoolType         *nse.Type
	NumType          *nse.Type
	IntType          *nse.Type
	FloatType        *nse.Type
	I64Type          *nse.Type
	F64Type          *nse.Type
	StringType       *nse.Type
	SymbolType       *nse.Type
	KeywordType      *nse.Type
	QuoteType        *nse.Type
	ContinueType     *nse.Type
	TypeQuoteType    *nse.Type
	SyntaxType       *nse.Type
	TypeType         *nse.Type
	FuncType         *nse.Type
	ScopeType        *nse.Type
	StreamType       *nse.Type
	GenericTypeType  *nse.Type
	ImproperListType *nse.Type
	ProperListType   *nse.Type
	NilType          *nse.Type

	// ListGeneric is the arity-1 `list` generic; `nil < list's
	// poly-instance < proper-list`.
	ListGeneric *nse.Type
}

// New constructs a Runtime: a module registry, a type-interning
// registry, the `lang` and `keyword` modules, and the full built-in
// type lattice, configured from cfg (config.Default()
// if cfg is nil).
func New(cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	log := logrus.New()
	if cfg.Trace {
		log.SetLevel(logrus.TraceLevel)
	} else if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	registry := nse.NewRegistryWithCapacity(cfg.InitialCapacity)
	registry.SetLogger(log)
	types := nse.NewTypeRegistry()
	nse.SetLogger(log)

	r := &Runtime{Registry: registry, Types: types, Config: cfg, Log: log}

	lang, err := registry.CreateModule("lang")
	if err != nil {
		return nil, err
	}
	keyword, err := registry.CreateModule("keyword")
	if err != nil {
		return nil, err
	}
	r.LangModule = lang
	r.KeywordModule = keyword

	if err := r.bootstrapTypes(); err != nil {
		return nil, err
	}
	return r, nil
}

func simple(m *nse.Module, name string, super *nse.Type) (*nse.Type, error) {
	sym, err := m.ExternSymbol(name)
	if err != nil {
		return nil, err
	}
	t := nse.NewSimpleType(sym, super)
	m.DefineType(sym, t)
	return t, nil
}

// bootstrapTypes builds the fixed built-in type lattice:
//
//	any
//	bool < any
//	improper-list < any
//	proper-list < improper-list
//	list (generic, arity 1) < proper-list
//	nil < list's poly-instance < proper-list, and nil is, in turn, a
//	  subtype of every list(T) via genericCompatible
//	num < any; int < num; float < num; i64 < int; f64 < float
//	string, symbol, quote, continue, type-quote, syntax, type, func,
//	scope, stream, generic-type < any
//	keyword < symbol
func (r *Runtime) bootstrapTypes() error {
	m := r.LangModule
	var err error

	if r.AnyType, err = simple(m, "any", nil); err != nil {
		return err
	}
	if r.BoolType, err = simple(m, "bool", r.AnyType); err != nil {
		return err
	}
	if r.ImproperListType, err = simple(m, "improper-list", r.AnyType); err != nil {
		return err
	}
	if r.ProperListType, err = simple(m, "proper-list", r.ImproperListType); err != nil {
		return err
	}
	if r.NumType, err = simple(m, "num", r.AnyType); err != nil {
		return err
	}
	if r.IntType, err = simple(m, "int", r.NumType); err != nil {
		return err
	}
	if r.FloatType, err = simple(m, "float", r.NumType); err != nil {
		return err
	}
	if r.I64Type, err = simple(m, "i64", r.IntType); err != nil {
		return err
	}
	if r.F64Type, err = simple(m, "f64", r.FloatType); err != nil {
		return err
	}
	if r.StringType, err = simple(m, "string", r.AnyType); err != nil {
		return err
	}
	if r.SymbolType, err = simple(m, "symbol", r.AnyType); err != nil {
		return err
	}
	if r.KeywordType, err = simple(m, "keyword", r.SymbolType); err != nil {
		return err
	}
	if r.QuoteType, err = simple(m, "quote", r.AnyType); err != nil {
		return err
	}
	if r.ContinueType, err = simple(m, "continue", r.AnyType); err != nil {
		return err
	}
	if r.TypeQuoteType, err = simple(m, "type-quote", r.AnyType); err != nil {
		return err
	}
	if r.SyntaxType, err = simple(m, "syntax", r.AnyType); err != nil {
		return err
	}
	if r.TypeType, err = simple(m, "type", r.AnyType); err != nil {
		return err
	}
	if r.FuncType, err = simple(m, "func", r.AnyType); err != nil {
		return err
	}
	r.Types.SetFuncRoot(r.FuncType)
	if r.ScopeType, err = simple(m, "scope", r.AnyType); err != nil {
		return err
	}
	if r.StreamType, err = simple(m, "stream", r.AnyType); err != nil {
		return err
	}
	if r.GenericTypeType, err = simple(m, "generic-type", r.AnyType); err != nil {
		return err
	}

	// list(T) is always a proper cons chain ending in nil, so the
	// generic's own super is proper-list (not improper-list, which
	// also admits dotted pairs outside the `list` generic):
	// list(T) < proper-list < improper-list < any.
	listSym, err := m.ExternSymbol("list")
	if err != nil {
		return err
	}
	r.ListGeneric = nse.NewGeneric(listSym, 1, r.ProperListType)
	m.DefineType(listSym, r.ListGeneric)

	// nil's super is the generic's own universal poly-instance, not a
	// concrete instantiation — giving nil a common ancestor with every
	// list(T) regardless of T, per GetPolyInstance/genericCompatible.
	listPoly, err := nse.GetPolyInstance(r.ListGeneric)
	if err != nil {
		return err
	}
	nilSym, err := m.ExternSymbol("nil")
	if err != nil {
		return err
	}
	r.NilType = nse.NewSimpleType(nilSym, listPoly)
	m.DefineType(nilSym, r.NilType)
	return nil
}
