package runtime

import (
	"github.com/sirupsen/logrus"

	"github.com/nielssp/nsecore/nse"
	"github.com/nielssp/nsecore/nserr"
)

// CreateModule creates and registers a new empty module.
func (r *Runtime) CreateModule(name string) (*nse.Module, error) {
	return r.Registry.CreateModule(name)
}

// DeleteModule destroys and unregisters a module.
func (r *Runtime) DeleteModule(name string) error {
	return r.Registry.DeleteModule(name)
}

// FindModule looks up a registered module by name.
func (r *Runtime) FindModule(name string) (*nse.Module, bool) {
	return r.Registry.FindModule(name)
}

// Modules returns every registered module.
func (r *Runtime) Modules() []*nse.Module {
	return r.Registry.Modules()
}

// Intern interns name in m, allocating it on first use.
func (r *Runtime) Intern(m *nse.Module, name string) (*nse.Symbol, error) {
	return m.InternSymbol(name)
}

// Extern interns and exports name in m.
func (r *Runtime) Extern(m *nse.Module, name string) (*nse.Symbol, error) {
	return m.ExternSymbol(name)
}

// InternKeyword interns name in the dedicated keyword module and
// returns the symbol. Keywords are plain symbols; only their home
// module marks them as keywords.
func (r *Runtime) InternKeyword(name string) (*nse.Symbol, error) {
	return r.KeywordModule.InternSymbol(name)
}

// InternSpecial interns name in the `lang` module — the home of every
// special form and built-in.
func (r *Runtime) InternSpecial(name string) (*nse.Symbol, error) {
	return r.LangModule.InternSymbol(name)
}

// FindSymbol resolves a module-qualified "module/name" reference.
func (r *Runtime) FindSymbol(qualifiedName string) (*nse.Symbol, error) {
	return r.Registry.FindSymbol(qualifiedName)
}

// ImportModule copies every export of src into dest, per the
// conflict policy documented on nse.Registry.ImportModule.
func (r *Runtime) ImportModule(dest, src *nse.Module) {
	r.Registry.ImportModule(dest, src)
}

// ImportModuleSymbol imports a single named export of src into dest.
func (r *Runtime) ImportModuleSymbol(dest, src *nse.Module, name string) error {
	return r.Registry.ImportModuleSymbol(dest, src, name)
}

// NewScope returns an empty scope anchored on the given module's
// ordinary value namespace, macro namespace, and read-macro namespace
// — the usual starting point for evaluating top-level forms in that
// module.
func (r *Runtime) NewScope(m *nse.Module) *nse.Scope {
	return nse.UseModule(m)
}

// NewTypeScope returns an empty scope anchored on the given module's
// type namespace, for resolving unqualified type names.
func (r *Runtime) NewTypeScope(m *nse.Module) *nse.Scope {
	return nse.UseModuleTypes(m)
}

// RaiseError builds a *nserr.Raised of the given kind, logs it at a
// level appropriate to its kind, and returns it: callers get a normal
// error return instead of a sentinel undefined value plus a side
// channel to consult for why.
func (r *Runtime) RaiseError(kind nserr.Kind, format string, args ...interface{}) error {
	err := nserr.New(kind, format, args...)
	level := logrus.WarnLevel
	if kind == nserr.OutOfMemory {
		level = logrus.ErrorLevel
	}
	r.Log.WithField("kind", kind.String()).Log(level, err.Error())
	return err
}

// Guard runs fn, recovering any nserr.Bail panic raised within it
// (directly or transitively) and returning it as a plain error. Other
// panics propagate unchanged. See nserr.Guard; exposed here so
// collaborators that only hold a *Runtime don't need a second import.
func (r *Runtime) Guard(fn func()) error {
	return nserr.Guard(fn)
}
