// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package testing_util

import (
	"github.com/ryogrid/samehada-executor/types"
)

// GetValue converts go value to types.Value. nil means NULL of Integer.
func GetValue(data interface{}) (value types.Value) {
	switch v := data.(type) {
	case nil:
		value = types.NewNull(types.Integer)
	case int:
		value = types.NewInteger(int32(v))
	case int32:
		value = types.NewInteger(v)
	case int64:
		value = types.NewBigInt(v)
	case float32:
		value = types.NewFloat(v)
	case float64:
		value = types.NewFloat(float32(v))
	case string:
		value = types.NewVarchar(v)
	case bool:
		value = types.NewBoolean(v)
	case types.Value:
		return v
	case *types.Value:
		return *v
	default:
		panic("not implemented")
	}
	return
}

func GetValueType(data interface{}) (value types.TypeID) {
	switch v := data.(type) {
	case int, int32:
		return types.Integer
	case int64:
		return types.BigInt
	case float32, float64:
		return types.Float
	case string:
		return types.Varchar
	case bool:
		return types.Boolean
	case types.Value:
		return v.ValueType()
	case *types.Value:
		return v.ValueType()
	}
	panic("not implemented")
}

// GetValues converts a row of go values.
func GetValues(row ...interface{}) []types.Value {
	ret := make([]types.Value, 0, len(row))
	for _, d := range row {
		ret = append(ret, GetValue(d))
	}
	return ret
}

// ToGoValues converts a row to comparable go values. NULL becomes nil.
func ToGoValues(values []types.Value) []interface{} {
	ret := make([]interface{}, 0, len(values))
	for _, v := range values {
		if v.IsNull() {
			ret = append(ret, nil)
			continue
		}
		switch v.ValueType() {
		case types.Integer:
			ret = append(ret, int(v.ToInteger()))
		case types.BigInt:
			ret = append(ret, v.ToBigInt())
		case types.Float:
			ret = append(ret, v.ToFloat())
		case types.Varchar:
			ret = append(ret, v.ToVarchar())
		case types.Boolean:
			ret = append(ret, v.ToBoolean())
		}
	}
	return ret
}
