package nse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nielssp/nsecore/nse"
)

func smallLattice(t *testing.T) (reg *nse.Registry, any, num, i64, str, listGeneric *nse.Type) {
	t.Helper()
	reg = nse.NewRegistry()
	m, err := reg.CreateModule("lang")
	require.NoError(t, err)

	mk := func(name string, super *nse.Type) *nse.Type {
		sym, err := m.ExternSymbol(name)
		require.NoError(t, err)
		ty := nse.NewSimpleType(sym, super)
		m.DefineType(sym, ty)
		return ty
	}
	any = mk("any", nil)
	num = mk("num", any)
	i64 = mk("i64", num)
	str = mk("string", any)

	listSym, err := m.ExternSymbol("list")
	require.NoError(t, err)
	listGeneric = nse.NewGeneric(listSym, 1, any)
	m.DefineType(listSym, listGeneric)
	return
}

func TestIsSubtypeOfWalksSuperChain(t *testing.T) {
	_, any, num, i64, str, _ := smallLattice(t)

	assert.True(t, nse.IsSubtypeOf(i64, num))
	assert.True(t, nse.IsSubtypeOf(i64, any))
	assert.True(t, nse.IsSubtypeOf(i64, i64))
	assert.False(t, nse.IsSubtypeOf(num, i64))
	assert.False(t, nse.IsSubtypeOf(str, num))
	assert.True(t, nse.IsSubtypeOf(str, any))
}

func TestUnifyTypesFindsNearestCommonAncestor(t *testing.T) {
	_, any, num, i64, str, _ := smallLattice(t)

	assert.Equal(t, num, nse.UnifyTypes(i64, num, any))
	assert.Equal(t, any, nse.UnifyTypes(i64, str, any))
	assert.Equal(t, i64, nse.UnifyTypes(i64, i64, any))
}

func TestGetInstanceInterning(t *testing.T) {
	_, _, _, i64, str, listGeneric := smallLattice(t)

	a, err := nse.GetUnaryInstance(listGeneric, i64)
	require.NoError(t, err)
	b, err := nse.GetUnaryInstance(listGeneric, i64)
	require.NoError(t, err)
	assert.Same(t, a, b, "two requests for list(i64) must return the identical interned object")

	c, err := nse.GetUnaryInstance(listGeneric, str)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestGetInstanceRejectsWrongArity(t *testing.T) {
	_, _, _, i64, str, listGeneric := smallLattice(t)
	_, err := nse.GetInstance(listGeneric, []*nse.Type{i64, str})
	assert.Error(t, err)
}

func TestInstantiateTypeSubstitutesPolyVars(t *testing.T) {
	_, any, _, i64, _, listGeneric := smallLattice(t)
	reg := nse.NewTypeRegistry()
	reg.SetFuncRoot(any)

	tv, err := nse.NewRegistry().CreateModule("scratch")
	require.NoError(t, err)
	tsym, err := tv.InternSymbol("T")
	require.NoError(t, err)
	poly := nse.NewPolyVar(tsym, 0, any)

	// A generic function's own signature carries an ordinary TypeInstance
	// whose Params happen to contain a poly-var — get_instance never
	// produces a TypePolyInstance itself; only get_poly_instance does.
	sigList, err := nse.GetUnaryInstance(listGeneric, poly)
	require.NoError(t, err)
	assert.Equal(t, nse.TypeInstance, sigList.Kind)

	concrete, err := nse.InstantiateType(reg, sigList, map[*nse.Type]*nse.Type{poly: i64})
	require.NoError(t, err)
	assert.Equal(t, nse.TypeInstance, concrete.Kind)

	again, err := nse.GetUnaryInstance(listGeneric, i64)
	require.NoError(t, err)
	assert.Same(t, again, concrete, "instantiating list(T) with T=i64 must hit the same interned instance as a direct GetUnaryInstance(list, i64)")
}

func TestGetPolyInstanceIsUniversalAndInterned(t *testing.T) {
	_, _, _, i64, str, listGeneric := smallLattice(t)

	p1, err := nse.GetPolyInstance(listGeneric)
	require.NoError(t, err)
	assert.Equal(t, nse.TypePolyInstance, p1.Kind)

	p2, err := nse.GetPolyInstance(listGeneric)
	require.NoError(t, err)
	assert.Same(t, p1, p2, "GetPolyInstance must always return the same node for a given generic")

	listI64, err := nse.GetUnaryInstance(listGeneric, i64)
	require.NoError(t, err)
	listStr, err := nse.GetUnaryInstance(listGeneric, str)
	require.NoError(t, err)

	assert.True(t, nse.IsSubtypeOf(listI64, p1), "list(i64) must be a subtype of the generic's poly-instance")
	assert.True(t, nse.IsSubtypeOf(listStr, p1), "list(string) must be a subtype of the generic's poly-instance regardless of argument type")
}

func TestUnifyTypesThroughPolyInstance(t *testing.T) {
	reg, any, _, i64, _, listGeneric := smallLattice(t)
	m, ok := reg.FindModule("lang")
	require.True(t, ok)

	nilSym, err := m.ExternSymbol("nil")
	require.NoError(t, err)
	listPoly, err := nse.GetPolyInstance(listGeneric)
	require.NoError(t, err)
	nilType := nse.NewSimpleType(nilSym, listPoly)

	listI64, err := nse.GetUnaryInstance(listGeneric, i64)
	require.NoError(t, err)

	assert.True(t, nse.IsSubtypeOf(nilType, listI64), "nil must be a subtype of list(i64) via the poly-instance rule")
	assert.Same(t, listI64, nse.UnifyTypes(nilType, listI64, any),
		"unifying nil with list(i64), where nil is already a subtype of list(i64), must yield list(i64) itself")
}

func TestFuncTypeInterningAndSubtyping(t *testing.T) {
	_, any, _, i64, _, _ := smallLattice(t)
	reg := nse.NewTypeRegistry()
	reg.SetFuncRoot(any)

	ft1 := reg.InternFuncType([]*nse.Type{i64}, false, i64)
	ft2 := reg.InternFuncType([]*nse.Type{i64}, false, i64)
	assert.Same(t, ft1, ft2)

	ct := reg.InternClosureType([]*nse.Type{i64}, false, i64)
	assert.True(t, nse.IsSubtypeOf(ct, ft1))
}
