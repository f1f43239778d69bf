package hash

import (
	"math"
	"testing"

	testingpkg "github.com/ryogrid/samehada-executor/testing/testing_assert"
	"github.com/ryogrid/samehada-executor/types"
)

func TestHashValueConsistentWithEquality(t *testing.T) {
	pairs := [][2]types.Value{
		{types.NewInteger(1), types.NewBigInt(1)},
		{types.NewInteger(1), types.NewFloat(1.0)},
		{types.NewFloat(0), types.NewFloat(float32(math.Copysign(0, -1)))},
		{types.NewFloat(float32(math.NaN())), types.NewFloat(float32(math.NaN()))},
		{types.NewVarchar("abc"), types.NewVarchar("abc")},
		{types.NewNull(types.Integer), types.NewNull(types.Varchar)},
	}
	for _, p := range pairs {
		testingpkg.Assert(t, p[0].CompareEquals(p[1]), "%v and %v should be equal", p[0], p[1])
		testingpkg.Equals(t, HashValue(&p[0], 0), HashValue(&p[1], 0))
	}

	null := types.NewNull(types.Integer)
	testingpkg.Equals(t, uint32(0), HashValue(&null, 7))

	v := types.NewVarchar("abc")
	testingpkg.Assert(t, HashValue(&v, 0) != HashValue(&v, 1), "seed should change hash")
	w := types.NewVarchar("abd")
	testingpkg.Assert(t, HashValue(&v, 0) != HashValue(&w, 0), "different strings should not collide")
}

func TestCollation(t *testing.T) {
	c, err := ParseCollation("NOCASE")
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, CollationNocase, c)
	_, err = ParseCollation("fr_FR")
	testingpkg.Nok(t, err)

	upper, lower := types.NewVarchar("ABC"), types.NewVarchar("abc")
	testingpkg.SimpleAssert(t, c.Equal(upper, lower))
	testingpkg.SimpleAssert(t, !CollationDefault.Equal(upper, lower))
	testingpkg.Equals(t, HashFuncFor(c)(&upper, 3), HashFuncFor(c)(&lower, 3))
}

func TestRotateLeft1(t *testing.T) {
	testingpkg.Equals(t, uint32(1), RotateLeft1(0x80000000))
	testingpkg.Equals(t, uint32(0x2), RotateLeft1(1))
}
