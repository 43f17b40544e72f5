package nse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nielssp/nsecore/nse"
)

func TestScopeBindingShadowsOuter(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)
	x, err := m.InternSymbol("x")
	require.NoError(t, err)

	s0 := nse.Push(nil, x, nse.I64(1))
	s1 := nse.Push(s0, x, nse.I64(2))

	v, err := s1.Get(x)
	require.NoError(t, err)
	assert.Equal(t, int64(2), nse.ToI64(v))

	v, err = s0.Get(x)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nse.ToI64(v), "the outer scope must be unaffected by the inner binding")

	nse.ScopeDelete(s1)
	nse.ScopeDelete(s0)
}

func TestScopeModuleAnchorResolvesUnbound(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)
	sym, err := m.InternSymbol("greeting")
	require.NoError(t, err)
	m.Define(sym, nse.NewString("hi"))

	s := nse.UseModule(m)
	v, err := s.Get(sym)
	require.NoError(t, err)
	assert.Equal(t, "hi", nse.ToString(v))

	nse.ScopeDelete(s)
}

func TestScopeGetUnboundReturnsNameError(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)
	sym, err := m.InternSymbol("nope")
	require.NoError(t, err)

	s := nse.UseModule(m)
	_, err = s.Get(sym)
	require.Error(t, err)
	nse.ScopeDelete(s)
}

func TestScopeImportedSymbolResolvesThroughHomeModule(t *testing.T) {
	reg := nse.NewRegistry()
	src, err := reg.CreateModule("src")
	require.NoError(t, err)
	dest, err := reg.CreateModule("dest")
	require.NoError(t, err)
	_, err = src.ExtDefine("shared", nse.I64(42))
	require.NoError(t, err)
	reg.ImportModule(dest, src)

	sym, ok := dest.FindInternal("shared")
	require.True(t, ok)

	s := nse.UseModule(dest)
	v, err := s.Get(sym)
	require.NoError(t, err)
	assert.Equal(t, int64(42), nse.ToI64(v), "an imported alias must resolve to its home module's binding")
	nse.ScopeDelete(s)
}

func TestScopeSetMutatesNearestBinding(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)
	x, err := m.InternSymbol("x")
	require.NoError(t, err)

	s := nse.Push(nil, x, nse.I64(1))
	err = s.Set(x, nse.I64(99), false)
	require.NoError(t, err)

	v, err := s.Get(x)
	require.NoError(t, err)
	assert.Equal(t, int64(99), nse.ToI64(v))
	nse.ScopeDelete(s)
}

func TestScopeSetWeakSuppressesAddRef(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)
	x, err := m.InternSymbol("x")
	require.NoError(t, err)

	before := nse.LiveHeapObjects()
	s := nse.Push(nil, x, nse.Undefined)

	// The caller already owns this reference (as it would just after
	// building a closure meant to capture its own binding) and hands
	// it to Set directly rather than lending a borrowed one.
	val := nse.NewString("owned")
	err = s.Set(x, val, true)
	require.NoError(t, err)

	got, err := s.Get(x)
	require.NoError(t, err)
	assert.Equal(t, "owned", nse.ToString(got))
	nse.DelRef(got)

	nse.ScopeDelete(s)
	assert.Equal(t, before, nse.LiveHeapObjects(), "weak Set must not leak or double-free the handed-over value")
}

func TestScopeTypeAnchorResolvesTypeNamespace(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)
	sym, err := m.ExternSymbol("widget")
	require.NoError(t, err)
	widget := nse.NewSimpleType(sym, nil)
	m.DefineType(sym, widget)

	s := nse.UseModuleTypes(m)
	got, ok := s.GetType(sym)
	require.True(t, ok)
	assert.Same(t, widget, got)
	nse.ScopeDelete(s)
}

func TestPushBindingOntoModuleAnchorShadowsModuleDef(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)
	x, err := m.InternSymbol("x")
	require.NoError(t, err)
	m.Define(x, nse.I64(1))

	// An anchor frame is always terminal (UseModule never takes a next
	// argument), but that never stops a binding frame being Push'd on
	// top of one — that's the ordinary shape of a let inside a module
	// body.
	anchor := nse.UseModule(m)
	shadowed := nse.Push(anchor, x, nse.I64(2))

	v, err := shadowed.Get(x)
	require.NoError(t, err)
	assert.Equal(t, int64(2), nse.ToI64(v), "the pushed binding must shadow the module-level definition")

	v, err = anchor.Get(x)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nse.ToI64(v), "the anchor alone must still resolve through the module")

	nse.ScopeDelete(shadowed)
}

func TestPopUntilRestoresMark(t *testing.T) {
	reg := nse.NewRegistry()
	m, err := reg.CreateModule("m")
	require.NoError(t, err)
	x, err := m.InternSymbol("x")
	require.NoError(t, err)
	y, err := m.InternSymbol("y")
	require.NoError(t, err)

	mark := nse.Push(nil, x, nse.I64(1))
	extended := nse.Push(mark, y, nse.I64(2))

	restored := nse.PopUntil(extended, mark)
	assert.Same(t, mark, restored)

	v, err := restored.Get(x)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nse.ToI64(v))
	nse.ScopeDelete(mark)
}
