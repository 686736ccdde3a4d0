package arithmetic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeVars struct{ m map[string]int64 }

func newFakeVars() *fakeVars { return &fakeVars{m: map[string]int64{}} }

func (f *fakeVars) GetInt(name string) int64    { return f.m[name] }
func (f *fakeVars) SetInt(name string, v int64) { f.m[name] = v }

func eval(t *testing.T, expr string, vars Vars) int64 {
	t.Helper()
	if vars == nil {
		vars = newFakeVars()
	}
	v, err := Eval(expr, vars)
	require.NoError(t, err)
	return v
}

func TestBasicArithmetic(t *testing.T) {
	require.Equal(t, int64(3), eval(t, "1+2", nil))
	require.Equal(t, int64(7), eval(t, "1+2*3", nil))
	require.Equal(t, int64(9), eval(t, "(1+2)*3", nil))
	require.Equal(t, int64(2), eval(t, "7/3", nil))
	require.Equal(t, int64(1), eval(t, "7%3", nil))
	require.Equal(t, int64(8), eval(t, "2**3", nil))
}

func TestComparisonAndLogical(t *testing.T) {
	require.Equal(t, int64(1), eval(t, "3 > 2", nil))
	require.Equal(t, int64(0), eval(t, "3 < 2", nil))
	require.Equal(t, int64(1), eval(t, "1 && 1", nil))
	require.Equal(t, int64(0), eval(t, "1 && 0", nil))
	require.Equal(t, int64(1), eval(t, "0 || 1", nil))
}

func TestTernary(t *testing.T) {
	require.Equal(t, int64(5), eval(t, "1 ? 5 : 6", nil))
	require.Equal(t, int64(6), eval(t, "0 ? 5 : 6", nil))
}

func TestVariableReadAndAssign(t *testing.T) {
	vars := newFakeVars()
	vars.m["x"] = 10
	require.Equal(t, int64(10), eval(t, "x", vars))
	require.Equal(t, int64(15), eval(t, "x += 5", vars))
	require.Equal(t, int64(15), vars.GetInt("x"))
}

func TestPreAndPostIncrement(t *testing.T) {
	vars := newFakeVars()
	vars.m["x"] = 1
	require.Equal(t, int64(2), eval(t, "++x", vars))
	require.Equal(t, int64(2), vars.GetInt("x"))

	vars.m["y"] = 1
	require.Equal(t, int64(1), eval(t, "y++", vars))
	require.Equal(t, int64(2), vars.GetInt("y"))
}

func TestBitwiseOps(t *testing.T) {
	require.Equal(t, int64(6), eval(t, "4 | 2", nil))
	require.Equal(t, int64(0), eval(t, "4 & 2", nil))
	require.Equal(t, int64(6), eval(t, "4 ^ 2", nil))
	require.Equal(t, int64(8), eval(t, "1 << 3", nil))
	require.Equal(t, int64(1), eval(t, "8 >> 3", nil))
}

func TestHexAndBaseNLiterals(t *testing.T) {
	require.Equal(t, int64(255), eval(t, "0xFF", nil))
	require.Equal(t, int64(15), eval(t, "8#17", nil))
}

func TestDivisionByZeroErrors(t *testing.T) {
	_, err := Eval("1/0", newFakeVars())
	require.Error(t, err)
}

func TestCommaEvaluatesLastExpression(t *testing.T) {
	vars := newFakeVars()
	require.Equal(t, int64(2), eval(t, "x=1, x=2", vars))
}

func TestTruthy(t *testing.T) {
	require.True(t, Truthy(1))
	require.True(t, Truthy(-1))
	require.False(t, Truthy(0))
}
