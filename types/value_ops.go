package types

import (
	"math"
	"strings"

	"github.com/ryogrid/samehada-executor/common"
)

// CompareTo is the comparison of SQL operators.
// NULL must be handled by caller, because SQL comparison with NULL yields NULL.
func (v Value) CompareTo(right Value) (int, error) {
	common.SH_Assert(!v.IsNull() && !right.IsNull(), "CompareTo is called with NULL")
	if v.valueType.IsNumeric() && right.valueType.IsNumeric() {
		return compareNumeric(v, right), nil
	}
	if v.valueType != right.valueType {
		return 0, common.NewEvalError("operator does not exist: %s = %s", v.valueType, right.valueType)
	}
	switch v.valueType {
	case Varchar:
		return strings.Compare(*v.varchar, *right.varchar), nil
	case Boolean:
		l, r := *v.boolean, *right.boolean
		switch {
		case l == r:
			return 0, nil
		case !l:
			return -1, nil
		}
		return 1, nil
	}
	return 0, common.NewEvalError("type %s is not comparable", v.valueType)
}

type ArithmeticOp int

const (
	OpAdd ArithmeticOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
)

func (op ArithmeticOp) String() string {
	return [...]string{"+", "-", "*", "/", "%"}[op]
}

func (v Value) Add(right Value) (Value, error)      { return v.arith(OpAdd, right) }
func (v Value) Subtract(right Value) (Value, error) { return v.arith(OpSubtract, right) }
func (v Value) Multiply(right Value) (Value, error) { return v.arith(OpMultiply, right) }
func (v Value) Divide(right Value) (Value, error)   { return v.arith(OpDivide, right) }
func (v Value) Modulo(right Value) (Value, error)   { return v.arith(OpModulo, right) }

func (v Value) Negate() (Value, error) {
	switch v.valueType {
	case Integer:
		if v.isNull {
			return v, nil
		}
		if *v.integer == math.MinInt32 {
			return Value{}, common.NewEvalError("integer out of range")
		}
		return NewInteger(-*v.integer), nil
	case BigInt:
		if v.isNull {
			return v, nil
		}
		if *v.bigint == math.MinInt64 {
			return Value{}, common.NewEvalError("bigint out of range")
		}
		return NewBigInt(-*v.bigint), nil
	case Float:
		if v.isNull {
			return v, nil
		}
		return NewFloat(-*v.float), nil
	}
	return Value{}, common.NewEvalError("operator does not exist: -%s", v.valueType)
}

func (v Value) arith(op ArithmeticOp, right Value) (Value, error) {
	if !v.valueType.IsNumeric() || !right.valueType.IsNumeric() {
		return Value{}, common.NewEvalError("operator does not exist: %s %s %s", v.valueType, op, right.valueType)
	}
	retType := PromoteNumeric(v.valueType, right.valueType)
	if v.isNull || right.isNull {
		return NewNull(retType), nil
	}

	if retType == Float {
		l, r := v.ToFloat64(), right.ToFloat64()
		var ret float64
		switch op {
		case OpAdd:
			ret = l + r
		case OpSubtract:
			ret = l - r
		case OpMultiply:
			ret = l * r
		case OpDivide:
			if r == 0 {
				return Value{}, common.NewEvalError("division by zero")
			}
			ret = l / r
		case OpModulo:
			return Value{}, common.NewEvalError("operator does not exist: float %% float")
		}
		if math.IsInf(ret, 0) && !math.IsInf(l, 0) && !math.IsInf(r, 0) {
			return Value{}, common.NewEvalError("value out of range: overflow")
		}
		return NewFloat(float32(ret)), nil
	}

	l, r := v.ToInt64(), right.ToInt64()
	var ret int64
	overflow := false
	switch op {
	case OpAdd:
		ret = l + r
		overflow = (r > 0 && ret < l) || (r < 0 && ret > l)
	case OpSubtract:
		ret = l - r
		overflow = (r < 0 && ret < l) || (r > 0 && ret > l)
	case OpMultiply:
		ret = l * r
		overflow = l != 0 && (ret/l != r || (l == -1 && r == math.MinInt64))
	case OpDivide:
		if r == 0 {
			return Value{}, common.NewEvalError("division by zero")
		}
		if l == math.MinInt64 && r == -1 {
			overflow = true
		}
		ret = l / r
	case OpModulo:
		if r == 0 {
			return Value{}, common.NewEvalError("division by zero")
		}
		if r == -1 {
			ret = 0
		} else {
			ret = l % r
		}
	}
	if retType == Integer {
		if overflow || ret > math.MaxInt32 || ret < math.MinInt32 {
			return Value{}, common.NewEvalError("integer out of range")
		}
		return NewInteger(int32(ret)), nil
	}
	if overflow {
		return Value{}, common.NewEvalError("bigint out of range")
	}
	return NewBigInt(ret), nil
}
