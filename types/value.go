// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// A value is an class that represents a view over SQL data stored in
// some materialized state. All values have a type and comparison functions,
// and implement other type-specific functionality.
type Value struct {
	valueType TypeID
	isNull    bool
	integer   *int32
	bigint    *int64
	boolean   *bool
	varchar   *string
	float     *float32
}

func NewInteger(value int32) Value {
	return Value{valueType: Integer, integer: &value}
}

func NewBigInt(value int64) Value {
	return Value{valueType: BigInt, bigint: &value}
}

func NewFloat(value float32) Value {
	return Value{valueType: Float, float: &value}
}

func NewBoolean(value bool) Value {
	return Value{valueType: Boolean, boolean: &value}
}

func NewVarchar(value string) Value {
	return Value{valueType: Varchar, varchar: &value}
}

// NewNull returns NULL of valueType.
// a value filed correspoding to value type is initialized to default value
func NewNull(valueType TypeID) Value {
	ret := Value{valueType: valueType}
	ret.SetNull()
	return ret
}

// NewValueFromBytes is used for deserialization
func NewValueFromBytes(data []byte, valueType TypeID) (ret *Value) {
	buf := bytes.NewBuffer(data)
	isNull := new(bool)
	binary.Read(buf, binary.LittleEndian, isNull)
	var val Value
	switch valueType {
	case Integer:
		v := new(int32)
		binary.Read(buf, binary.LittleEndian, v)
		val = NewInteger(*v)
	case BigInt:
		v := new(int64)
		binary.Read(buf, binary.LittleEndian, v)
		val = NewBigInt(*v)
	case Float:
		v := new(float32)
		binary.Read(buf, binary.LittleEndian, v)
		val = NewFloat(*v)
	case Varchar:
		length := new(uint16)
		binary.Read(buf, binary.LittleEndian, length)
		val = NewVarchar(string(data[1+2 : uint32(*length)+(1+2)]))
	case Boolean:
		v := new(bool)
		binary.Read(buf, binary.LittleEndian, v)
		val = NewBoolean(*v)
	default:
		panic(fmt.Sprintf("%v is illegal", valueType))
	}
	if *isNull {
		val.SetNull()
	}
	return &val
}

func (v Value) Serialize() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, v.isNull)
	switch v.valueType {
	case Integer:
		binary.Write(buf, binary.LittleEndian, *v.integer)
	case BigInt:
		binary.Write(buf, binary.LittleEndian, *v.bigint)
	case Float:
		binary.Write(buf, binary.LittleEndian, *v.float)
	case Varchar:
		binary.Write(buf, binary.LittleEndian, uint16(len(*v.varchar)))
		return append(buf.Bytes(), []byte(*v.varchar)...)
	case Boolean:
		binary.Write(buf, binary.LittleEndian, *v.boolean)
	}
	return buf.Bytes()
}

// Size returns the size in bytes that the type will occupy inside the tuple
func (v Value) Size() uint32 {
	switch v.valueType {
	case Varchar:
		return uint32(len(*v.varchar)) + 1 + 2 // varchar occupies the size of the string + 2 bytes for length storage
	case Integer, BigInt, Float, Boolean:
		return v.valueType.Size()
	}
	panic("not implemented")
}

// if you use this to get column value
// NULL value check is needed in general
func (v Value) ToBoolean() bool {
	return *v.boolean
}

func (v Value) ToInteger() int32 {
	return *v.integer
}

func (v Value) ToBigInt() int64 {
	return *v.bigint
}

func (v Value) ToFloat() float32 {
	return *v.float
}

func (v Value) ToVarchar() string {
	return *v.varchar
}

// ToInt64 returns integral value of Integer or BigInt
func (v Value) ToInt64() int64 {
	switch v.valueType {
	case Integer:
		return int64(*v.integer)
	case BigInt:
		return *v.bigint
	case Float:
		return int64(*v.float)
	}
	panic(fmt.Sprintf("%v can't be converted to int64", v.valueType))
}

func (v Value) ToFloat64() float64 {
	switch v.valueType {
	case Integer:
		return float64(*v.integer)
	case BigInt:
		return float64(*v.bigint)
	case Float:
		return float64(*v.float)
	}
	panic(fmt.Sprintf("%v can't be converted to float64", v.valueType))
}

func (v Value) ValueType() TypeID {
	return v.valueType
}

// note: a value filed correspoding to value type is initialized to default value
func (v *Value) SetNull() {
	v.isNull = true
	switch v.valueType {
	case Integer:
		v.integer = new(int32)
	case BigInt:
		v.bigint = new(int64)
	case Float:
		v.float = new(float32)
	case Varchar:
		v.varchar = new(string)
	case Boolean:
		v.boolean = new(bool)
	}
}

func (v Value) IsNull() bool {
	return v.isNull
}

// IsTrue is true when v is non-NULL boolean true
func (v Value) IsTrue() bool {
	return v.valueType == Boolean && !v.isNull && *v.boolean
}

func (v Value) String() string {
	if v.isNull {
		return "NULL"
	}
	switch v.valueType {
	case Integer:
		return strconv.FormatInt(int64(*v.integer), 10)
	case BigInt:
		return strconv.FormatInt(*v.bigint, 10)
	case Float:
		return strconv.FormatFloat(float64(*v.float), 'g', -1, 32)
	case Varchar:
		return *v.varchar
	case Boolean:
		return strconv.FormatBool(*v.boolean)
	}
	return "invalid"
}

// CompareEquals is identity equality used for grouping and hashing.
// NULL equals to NULL here unlike SQL "=" operator (see CompareTo).
func (v Value) CompareEquals(right Value) bool {
	if v.IsNull() && right.IsNull() {
		return true
	} else if v.IsNull() || right.IsNull() {
		return false
	}
	if v.valueType != right.valueType {
		if v.valueType.IsNumeric() && right.valueType.IsNumeric() {
			return compareNumeric(v, right) == 0
		}
		return false
	}

	switch v.valueType {
	case Integer:
		return *v.integer == *right.integer
	case BigInt:
		return *v.bigint == *right.bigint
	case Float:
		return floatIdentityCompare(float64(*v.float), float64(*right.float)) == 0
	case Varchar:
		return *v.varchar == *right.varchar
	case Boolean:
		return *v.boolean == *right.boolean
	}
	return false
}

func (v Value) CompareNotEquals(right Value) bool {
	return !v.CompareEquals(right)
}

// CompareForSort orders values totally. NULL is placed after (or before when nullsFirst)
// all non-NULL values. values of incomparable types are ordered by type id.
func (v Value) CompareForSort(right Value, nullsFirst bool) int {
	switch {
	case v.IsNull() && right.IsNull():
		return 0
	case v.IsNull():
		if nullsFirst {
			return -1
		}
		return 1
	case right.IsNull():
		if nullsFirst {
			return 1
		}
		return -1
	}
	if ret, err := v.CompareTo(right); err == nil {
		return ret
	}
	if v.valueType < right.valueType {
		return -1
	}
	return 1
}

func (v Value) CompareLessThan(right Value) bool {
	return v.CompareForSort(right, false) < 0
}

func (v Value) CompareGreaterThan(right Value) bool {
	return v.CompareForSort(right, false) > 0
}

func (v Value) Max(other *Value) *Value {
	if other.IsNull() {
		return &v
	}
	if v.IsNull() || v.CompareForSort(*other, false) < 0 {
		return other
	}
	return &v
}

func (v Value) Min(other *Value) *Value {
	if other.IsNull() {
		return &v
	}
	if v.IsNull() || v.CompareForSort(*other, false) > 0 {
		return other
	}
	return &v
}

func compareNumeric(l Value, r Value) int {
	if l.valueType == Float || r.valueType == Float {
		return floatIdentityCompare(l.ToFloat64(), r.ToFloat64())
	}
	li, ri := l.ToInt64(), r.ToInt64()
	switch {
	case li < ri:
		return -1
	case li > ri:
		return 1
	}
	return 0
}

// NaN is treated as equal to itself and larger than any other value
func floatIdentityCompare(l float64, r float64) int {
	lNaN, rNaN := math.IsNaN(l), math.IsNaN(r)
	switch {
	case lNaN && rNaN:
		return 0
	case lNaN:
		return 1
	case rNaN:
		return -1
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}
