package types

import (
	"testing"

	"github.com/ryogrid/samehada-executor/common"
	testingpkg "github.com/ryogrid/samehada-executor/testing/testing_assert"
)

func TestSerializeRoundTrip(t *testing.T) {
	vals := []Value{NewInteger(-7), NewBigInt(1 << 40), NewFloat(2.5), NewVarchar("hello"), NewBoolean(true), NewNull(Varchar), NewNull(Integer)}
	for _, v := range vals {
		got := NewValueFromBytes(v.Serialize(), v.ValueType())
		testingpkg.Assert(t, got.CompareEquals(v), "%v should be restored but got %v", v, *got)
		testingpkg.Equals(t, v.IsNull(), got.IsNull())
	}
}

func TestIdentityEqualityTreatsNullAsEqual(t *testing.T) {
	testingpkg.SimpleAssert(t, NewNull(Integer).CompareEquals(NewNull(Integer)))
	testingpkg.SimpleAssert(t, !NewNull(Integer).CompareEquals(NewInteger(0)))
	testingpkg.SimpleAssert(t, NewInteger(3).CompareEquals(NewBigInt(3)))
	testingpkg.SimpleAssert(t, !NewVarchar("3").CompareEquals(NewInteger(3)))
}

func TestCompareTo(t *testing.T) {
	ret, err := NewInteger(1).CompareTo(NewFloat(1.5))
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, -1, ret)

	ret, err = NewVarchar("b").CompareTo(NewVarchar("a"))
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, 1, ret)

	_, err = NewVarchar("b").CompareTo(NewInteger(1))
	testingpkg.Nok(t, err)
	testingpkg.SimpleAssert(t, common.IsEvalError(err))
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		name string
		l, r Value
		op   ArithmeticOp
		exp  Value
	}{
		{"int add", NewInteger(2), NewInteger(3), OpAdd, NewInteger(5)},
		{"promote bigint", NewInteger(2), NewBigInt(3), OpMultiply, NewBigInt(6)},
		{"promote float", NewInteger(3), NewFloat(0.5), OpSubtract, NewFloat(2.5)},
		{"int div truncates", NewInteger(7), NewInteger(2), OpDivide, NewInteger(3)},
		{"modulo", NewInteger(7), NewInteger(3), OpModulo, NewInteger(1)},
		{"null propagates", NewNull(Integer), NewInteger(3), OpAdd, NewNull(Integer)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := c.l.arith(c.op, c.r)
			testingpkg.Ok(t, err)
			testingpkg.Equals(t, c.exp.ValueType(), got.ValueType())
			testingpkg.Assert(t, c.exp.CompareEquals(got), "expected %v but got %v", c.exp, got)
		})
	}
}

func TestArithmeticErrors(t *testing.T) {
	_, err := NewInteger(1).Divide(NewInteger(0))
	testingpkg.SimpleAssert(t, common.IsEvalError(err))
	_, err = NewFloat(1).Divide(NewFloat(0))
	testingpkg.SimpleAssert(t, common.IsEvalError(err))
	_, err = NewInteger(2147483647).Add(NewInteger(1))
	testingpkg.SimpleAssert(t, common.IsEvalError(err))
	_, err = NewVarchar("a").Add(NewInteger(1))
	testingpkg.SimpleAssert(t, common.IsEvalError(err))
}

func TestCompareForSortNullPlacement(t *testing.T) {
	testingpkg.Equals(t, 1, NewNull(Integer).CompareForSort(NewInteger(1), false))
	testingpkg.Equals(t, -1, NewNull(Integer).CompareForSort(NewInteger(1), true))
	testingpkg.Equals(t, 0, NewNull(Integer).CompareForSort(NewNull(Integer), true))
}
