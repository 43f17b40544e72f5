package nse

import (
	"github.com/sirupsen/logrus"

	"github.com/nielssp/nsecore/hashmap"
	"github.com/nielssp/nsecore/nserr"
)

// Module is a namespace of interned symbols plus the four definition
// tables bound to those symbols: ordinary values, macros,
// types, and read macros. It also owns a method table keyed by
// (symbol, parameter-type-tuple) for multi-method dispatch.
type Module struct {
	refs int
	Name string

	internal *symMap // every symbol this module has ever interned
	external *symMap // the subset explicitly exported

	defs          *valueNamespace
	macroDefs     *valueNamespace
	typeDefs      *typeNamespace
	readMacroDefs *valueNamespace

	methods *MethodMap
}

func newModule(name string, capacity int) *Module {
	return &Module{
		refs: 1, Name: name,
		internal: newSymMap(capacity), external: newSymMap(capacity),
		defs: newValueNamespace(capacity), macroDefs: newValueNamespace(capacity),
		typeDefs: newTypeNamespace(capacity), readMacroDefs: newValueNamespace(capacity),
		methods: newMethodMap(capacity),
	}
}

// InternSymbol returns the module's canonical Symbol for name,
// creating it on first use. Returns a domain_error if name is empty,
// checked up front before any allocation happens.
func (m *Module) InternSymbol(name string) (*Symbol, error) {
	if name == "" {
		return nil, nserr.New(nserr.DomainError, "cannot intern an empty symbol name in module %s", m.Name)
	}
	if existing, ok := m.internal.lookup(name); ok {
		return addSymbolRef(existing), nil
	}
	sym := &Symbol{refs: 1, name: name, module: m}
	m.internal.add(name, sym)
	return addSymbolRef(sym), nil
}

// ExternSymbol interns name (if needed) and additionally marks it
// exported, visible to FindSymbol/Registry.ImportModule from outside
// this module.
func (m *Module) ExternSymbol(name string) (*Symbol, error) {
	sym, err := m.InternSymbol(name)
	if err != nil {
		return nil, err
	}
	if _, ok := m.external.lookup(name); !ok {
		m.external.add(name, sym)
	}
	return sym, nil
}

// FindInternal looks up an already-interned symbol without creating
// one.
func (m *Module) FindInternal(name string) (*Symbol, bool) {
	s, ok := m.internal.lookup(name)
	if !ok {
		return nil, false
	}
	return addSymbolRef(s), true
}

// FindExternal looks up an already-exported symbol without creating
// one.
func (m *Module) FindExternal(name string) (*Symbol, bool) {
	s, ok := m.external.lookup(name)
	if !ok {
		return nil, false
	}
	return addSymbolRef(s), true
}

// Symbols returns every symbol this module has interned, the
// counterpart of get_symbols.
func (m *Module) Symbols() []*Symbol { return m.internal.symbols() }

// ExternalSymbols returns every symbol this module has exported, the
// export-table counterpart to Symbols.
func (m *Module) ExternalSymbols() []*Symbol { return m.external.symbols() }

// Define binds sym to v in this module's ordinary value namespace,
// releasing any prior binding.
func (m *Module) Define(sym *Symbol, v Value) { m.defs.Set(sym, v) }

// Get looks up sym's ordinary value binding.
func (m *Module) Get(sym *Symbol) (Value, bool) { return m.defs.Get(sym) }

// DefineMacro binds sym to a macro transformer value.
func (m *Module) DefineMacro(sym *Symbol, v Value) { m.macroDefs.Set(sym, v) }

// GetMacro looks up sym's macro binding.
func (m *Module) GetMacro(sym *Symbol) (Value, bool) { return m.macroDefs.Get(sym) }

// DefineType binds sym to a named type.
func (m *Module) DefineType(sym *Symbol, t *Type) { m.typeDefs.Set(sym, t) }

// GetType looks up sym's type binding.
func (m *Module) GetType(sym *Symbol) (*Type, bool) { return m.typeDefs.Get(sym) }

// DefineReadMacro binds sym to a reader-macro transformer value.
func (m *Module) DefineReadMacro(sym *Symbol, v Value) { m.readMacroDefs.Set(sym, v) }

// GetReadMacro looks up sym's read-macro binding.
func (m *Module) GetReadMacro(sym *Symbol) (Value, bool) { return m.readMacroDefs.Get(sym) }

// ExtDefine interns and exports name, then binds it to v in one step —
// the common case of defining a module-level public value.
func (m *Module) ExtDefine(name string, v Value) (*Symbol, error) {
	sym, err := m.ExternSymbol(name)
	if err != nil {
		return nil, err
	}
	m.Define(sym, v)
	return sym, nil
}

// ExtDefineMacro is ExtDefine for the macro namespace.
func (m *Module) ExtDefineMacro(name string, v Value) (*Symbol, error) {
	sym, err := m.ExternSymbol(name)
	if err != nil {
		return nil, err
	}
	m.DefineMacro(sym, v)
	return sym, nil
}

// ExtDefineType is ExtDefine for the type namespace.
func (m *Module) ExtDefineType(name string, t *Type) (*Symbol, error) {
	sym, err := m.ExternSymbol(name)
	if err != nil {
		return nil, err
	}
	m.DefineType(sym, t)
	return sym, nil
}

// ExtDefineReadMacro is ExtDefine for the read-macro namespace.
func (m *Module) ExtDefineReadMacro(name string, v Value) (*Symbol, error) {
	sym, err := m.ExternSymbol(name)
	if err != nil {
		return nil, err
	}
	m.DefineReadMacro(sym, v)
	return sym, nil
}

// DefineMethod registers val as sym's method for the given parameter
// type tuple.
func (m *Module) DefineMethod(sym *Symbol, params []*Type, val Value) {
	m.methods.Define(sym, params, val)
}

// FindMethod looks up sym's method for an exact parameter type tuple.
// Dispatch across the subtype lattice (picking the most specific
// applicable method) is the evaluator's concern, not the module
// registry's; this is the exact-match primitive it is built on.
func (m *Module) FindMethod(sym *Symbol, params []*Type) (Value, bool) {
	return m.methods.Find(sym, params)
}

func (m *Module) destroy() {
	m.defs.destroy()
	m.macroDefs.destroy()
	m.readMacroDefs.destroy()
	m.typeDefs.destroy()
	m.methods.destroy()
	for _, s := range m.internal.symbols() {
		s.module = nil
		s.refs = 0
	}
}

// Registry is the process/runtime-wide table of modules, gathered
// into an explicit value an embedder constructs and owns instead of
// package-level globals.
type Registry struct {
	modules  *hashmap.Table // name string -> *Module
	log      logrus.FieldLogger
	capacity int
}

// NewRegistry returns an empty module registry whose modules start at
// the minimum hash table capacity.
func NewRegistry() *Registry {
	return NewRegistryWithCapacity(8)
}

// NewRegistryWithCapacity is like NewRegistry but sizes every module's
// namespaces to start at capacity (rounded up to a power of two, floor
// 8), per config.Config.InitialCapacity.
func NewRegistryWithCapacity(capacity int) *Registry {
	return &Registry{
		modules:  hashmap.NewSized(stringKeyHash, stringKeyEqual, capacity),
		log:      logrus.StandardLogger(),
		capacity: capacity,
	}
}

// SetLogger overrides the registry's logger.
func (r *Registry) SetLogger(l logrus.FieldLogger) { r.log = l }

// CreateModule allocates and registers a new, empty module. Returns a
// name_error if a module by this name already exists.
func (r *Registry) CreateModule(name string) (*Module, error) {
	if _, ok := r.modules.Lookup(name); ok {
		return nil, nserr.New(nserr.NameError, "module %s already exists", name)
	}
	m := newModule(name, r.capacity)
	r.modules.Add(name, m)
	r.log.WithField("module", name).Debug("module: created")
	return m, nil
}

// DeleteModule removes and destroys the named module, releasing every
// value, type and method binding it owns. Any Symbol obtained from
// this module and retained elsewhere becomes invalid; nothing guards
// against that case.
func (r *Registry) DeleteModule(name string) error {
	v, ok := r.modules.Lookup(name)
	if !ok {
		return nserr.New(nserr.NameError, "no such module: %s", name)
	}
	m := v.(*Module)
	r.modules.Remove(name)
	m.destroy()
	r.log.WithField("module", name).Debug("module: deleted")
	return nil
}

// FindModule looks up a module by name.
func (r *Registry) FindModule(name string) (*Module, bool) {
	v, ok := r.modules.Lookup(name)
	if !ok {
		return nil, false
	}
	return v.(*Module), true
}

// Modules returns every registered module.
func (r *Registry) Modules() []*Module {
	out := make([]*Module, 0, r.modules.Len())
	it := r.modules.Iterate()
	for {
		_, v, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, v.(*Module))
	}
	return out
}

// FindSymbol resolves a fully module-qualified name ("module/name") to
// its exported Symbol. Unqualified names are not this function's
// concern — a bare name is resolved against the current scope's
// module chain by Scope.Get, not by searching the whole registry.
func (r *Registry) FindSymbol(qualifiedName string) (*Symbol, error) {
	modName, symName, qualified := SplitQualifiedName(qualifiedName)
	if !qualified {
		return nil, nserr.New(nserr.DomainError, "name %q is not module-qualified", qualifiedName)
	}
	m, ok := r.FindModule(modName)
	if !ok {
		return nil, nserr.New(nserr.NameError, "no such module: %s", modName)
	}
	sym, ok := m.FindExternal(symName)
	if !ok {
		return nil, nserr.New(nserr.NameError, "module %s has no exported symbol %s", modName, symName)
	}
	return sym, nil
}

// ImportModule copies every exported symbol of src into dest's
// internal table as an alias of the same Symbol object (src remains
// the symbol's home module). A name already present in dest — from
// dest's own definitions or an earlier import — silently keeps its
// existing binding; the conflict is logged at Warn level rather than
// changing which symbol wins.
func (r *Registry) ImportModule(dest, src *Module) {
	for _, sym := range src.ExternalSymbols() {
		if _, exists := dest.internal.lookup(sym.name); exists {
			r.log.WithFields(logrus.Fields{"dest": dest.Name, "src": src.Name, "symbol": sym.name}).
				Warn("import: symbol already defined in destination module, keeping existing binding")
			continue
		}
		dest.internal.add(sym.name, addSymbolRef(sym))
	}
}

// ImportModuleSymbol imports a single named export of src into dest,
// under the same conflict policy as ImportModule.
func (r *Registry) ImportModuleSymbol(dest, src *Module, name string) error {
	sym, ok := src.external.lookup(name)
	if !ok {
		return nserr.New(nserr.NameError, "module %s has no exported symbol %s", src.Name, name)
	}
	if _, exists := dest.internal.lookup(name); exists {
		r.log.WithFields(logrus.Fields{"dest": dest.Name, "src": src.Name, "symbol": name}).
			Warn("import: symbol already defined in destination module, keeping existing binding")
		return nil
	}
	dest.internal.add(name, addSymbolRef(sym))
	return nil
}
