package nse_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nielssp/nsecore/nse"
	"github.com/nielssp/nsecore/nserr"
)

func TestInternSymbolIsIdempotent(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)

	a, err := m.InternSymbol("x")
	require.NoError(t, err)
	b, err := m.InternSymbol("x")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestInternSymbolRejectsEmptyName(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)

	_, err = m.InternSymbol("")
	require.Error(t, err)
	assert.True(t, nserr.Is(err, nserr.DomainError))
}

func TestCreateModuleRejectsDuplicate(t *testing.T) {
	reg := nse.NewRegistry()
	_, err := reg.CreateModule("dup")
	require.NoError(t, err)
	_, err = reg.CreateModule("dup")
	require.Error(t, err)
	assert.True(t, nserr.Is(err, nserr.NameError))
}

func TestDefineAndGet(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)
	sym, err := m.InternSymbol("x")
	require.NoError(t, err)

	m.Define(sym, nse.I64(7))
	v, ok := m.Get(sym)
	require.True(t, ok)
	assert.Equal(t, int64(7), nse.ToI64(v))

	m.Define(sym, nse.I64(8))
	v, ok = m.Get(sym)
	require.True(t, ok)
	assert.Equal(t, int64(8), nse.ToI64(v), "redefining must replace, not stack, the binding")
}

func TestFindSymbolRequiresExportAndQualification(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)
	_, err = m.InternSymbol("hidden")
	require.NoError(t, err)
	_, err = m.ExternSymbol("visible")
	require.NoError(t, err)

	_, err = reg.FindSymbol("hidden")
	require.Error(t, err, "unqualified names are not FindSymbol's concern")

	_, err = reg.FindSymbol("m/hidden")
	require.Error(t, err, "an interned-but-not-exported symbol must not resolve")

	sym, err := reg.FindSymbol("m/visible")
	require.NoError(t, err)
	assert.Equal(t, "visible", sym.Name())
}

func TestImportModuleSilentlyKeepsFirstOnConflict(t *testing.T) {
	reg := nse.NewRegistry()
	src, err := reg.CreateModule("src")
	require.NoError(t, err)
	dest, err := reg.CreateModule("dest")
	require.NoError(t, err)

	_, err = src.ExtDefine("shared", nse.I64(1))
	require.NoError(t, err)
	destSym, err := dest.ExtDefine("shared", nse.I64(2))
	require.NoError(t, err)

	reg.ImportModule(dest, src)

	found, ok := dest.FindInternal("shared")
	require.True(t, ok)
	assert.Same(t, destSym, found, "dest's own binding must win on conflict, not src's")
}

func TestImportModuleBringsNewExports(t *testing.T) {
	reg := nse.NewRegistry()
	src, err := reg.CreateModule("src")
	require.NoError(t, err)
	dest, err := reg.CreateModule("dest")
	require.NoError(t, err)

	_, err = src.ExtDefine("greet", nse.NewString("hi"))
	require.NoError(t, err)

	reg.ImportModule(dest, src)

	sym, ok := dest.FindInternal("greet")
	require.True(t, ok)
	v, ok := sym.Module().Get(sym)
	require.True(t, ok)
	assert.Equal(t, "hi", nse.ToString(v))
}

func TestImportModuleSymbolBringsSingleExport(t *testing.T) {
	reg := nse.NewRegistry()
	src, err := reg.CreateModule("src")
	require.NoError(t, err)
	dest, err := reg.CreateModule("dest")
	require.NoError(t, err)

	srcSym, err := src.ExtDefine("greet", nse.NewString("hi"))
	require.NoError(t, err)

	err = reg.ImportModuleSymbol(dest, src, "greet")
	require.NoError(t, err)

	sym, ok := dest.FindInternal("greet")
	require.True(t, ok)
	assert.Same(t, srcSym, sym, "the imported alias must be the identical Symbol object src owns")

	// src must still find and resolve its own export afterwards — the
	// import must not have disturbed src's own bookkeeping.
	again, ok := src.FindExternal("greet")
	require.True(t, ok)
	assert.Same(t, srcSym, again)
}

func TestImportModuleSymbolConflictLeavesSrcUntouched(t *testing.T) {
	reg := nse.NewRegistry()
	src, err := reg.CreateModule("src")
	require.NoError(t, err)
	dest, err := reg.CreateModule("dest")
	require.NoError(t, err)

	srcSym, err := src.ExtDefine("shared", nse.I64(1))
	require.NoError(t, err)
	destSym, err := dest.ExtDefine("shared", nse.I64(2))
	require.NoError(t, err)

	err = reg.ImportModuleSymbol(dest, src, "shared")
	require.NoError(t, err)

	found, ok := dest.FindInternal("shared")
	require.True(t, ok)
	assert.Same(t, destSym, found, "dest's own binding must win on conflict")

	// A conflict must not corrupt src's own tables — it never took
	// ownership of anything to begin with, so there is nothing to
	// release.
	again, ok := src.FindExternal("shared")
	require.True(t, ok)
	assert.Same(t, srcSym, again)
}

func TestModuleSymbolsAndExternalSymbols(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)
	_, err = m.InternSymbol("internal-only")
	require.NoError(t, err)
	_, err = m.ExternSymbol("exported")
	require.NoError(t, err)

	names := func(syms []*nse.Symbol) []string {
		out := make([]string, len(syms))
		for i, s := range syms {
			out[i] = s.Name()
		}
		return out
	}

	all := names(m.Symbols())
	ext := names(m.ExternalSymbols())
	if diff := cmp.Diff([]string{"exported"}, ext); diff != "" {
		t.Errorf("external symbols mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, all, "internal-only")
	assert.Contains(t, all, "exported")
}

func TestMethodTableExactMatch(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)
	lang, err := reg.CreateModule("lang")
	require.NoError(t, err)
	anySym, err := lang.ExternSymbol("any")
	require.NoError(t, err)
	any := nse.NewSimpleType(anySym, nil)

	sym, err := m.InternSymbol("describe")
	require.NoError(t, err)

	m.DefineMethod(sym, []*nse.Type{any}, nse.NewString("described"))
	v, ok := m.FindMethod(sym, []*nse.Type{any})
	require.True(t, ok)
	assert.Equal(t, "described", nse.ToString(v))

	_, ok = m.FindMethod(sym, []*nse.Type{})
	assert.False(t, ok)
}
