package hash

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ryogrid/samehada-executor/types"
	"github.com/spaolacci/murmur3"
)

// RotateLeft1 is applied to accumulated hash before next column's hash is xored
func RotateLeft1(h uint32) uint32 {
	return (h << 1) | (h >> 31)
}

func GenHashMurMurWithSeed(key []byte, seed uint32) uint32 {
	return murmur3.Sum32WithSeed(key, seed)
}

// Collation decides which varchar values are regarded as same
type Collation int32

const (
	CollationDefault Collation = iota
	// case insensitive
	CollationNocase
)

func ParseCollation(name string) (Collation, error) {
	switch strings.ToLower(name) {
	case "", "default", "binary":
		return CollationDefault, nil
	case "nocase":
		return CollationNocase, nil
	}
	return CollationDefault, errors.Newf("unknown collation: %s", name)
}

func (c Collation) String() string {
	if c == CollationNocase {
		return "nocase"
	}
	return "default"
}

// Normalize returns the representative of values which are same under c
func (c Collation) Normalize(val types.Value) types.Value {
	if c == CollationNocase && val.ValueType() == types.Varchar && !val.IsNull() {
		return types.NewVarchar(strings.ToLower(val.ToVarchar()))
	}
	return val
}

// Equal is identity equality under c. NULL equals NULL.
func (c Collation) Equal(l types.Value, r types.Value) bool {
	return c.Normalize(l).CompareEquals(c.Normalize(r))
}

// HashFunc calculates hash of a non-NULL value
type HashFunc func(val *types.Value, seed uint32) uint32

/**
* HashValue returns hash of the value which is consistent with
* types.Value.CompareEquals. numeric values are hashed as float64 so
* 1 and 1.0 have same hash. -0 is hashed as 0 and all NaNs are same.
* NULL is hashed to 0.
 */
func HashValue(val *types.Value, seed uint32) uint32 {
	if val.IsNull() {
		return 0
	}
	var buf [8]byte
	switch val.ValueType() {
	case types.Integer, types.BigInt, types.Float:
		f := val.ToFloat64()
		switch {
		case math.IsNaN(f):
			f = math.NaN()
		case f == 0:
			f = 0
		}
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		return GenHashMurMurWithSeed(buf[:], seed)
	case types.Boolean:
		if val.ToBoolean() {
			buf[0] = 1
		}
		return GenHashMurMurWithSeed(buf[:1], seed)
	case types.Varchar:
		return GenHashMurMurWithSeed([]byte(val.ToVarchar()), seed)
	}
	panic(errors.AssertionFailedf("not supported type: %s", val.ValueType()))
}

// HashFuncFor returns the hash function for values of collation c
func HashFuncFor(c Collation) HashFunc {
	if c == CollationDefault {
		return HashValue
	}
	return func(val *types.Value, seed uint32) uint32 {
		normalized := c.Normalize(*val)
		return HashValue(&normalized, seed)
	}
}
