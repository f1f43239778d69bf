package types

type TypeID int

const (
	Invalid TypeID = iota
	Boolean
	Integer
	BigInt
	Float
	Varchar
)

// Size returns the fixed size of the type on serialized form.
// leading 1 byte of each value is null flag. Varchar returns the size of offset to payload.
func (t TypeID) Size() uint32 {
	switch t {
	case Boolean:
		return 1 + 1
	case Integer:
		return 1 + 4
	case BigInt:
		return 1 + 8
	case Float:
		return 1 + 4
	case Varchar:
		return 4
	}
	return 0
}

func (t TypeID) IsNumeric() bool {
	return t == Integer || t == BigInt || t == Float
}

func (t TypeID) String() string {
	switch t {
	case Boolean:
		return "boolean"
	case Integer:
		return "integer"
	case BigInt:
		return "bigint"
	case Float:
		return "float"
	case Varchar:
		return "varchar"
	}
	return "invalid"
}

// PromoteNumeric returns the type which arithmetic between l and r results in
func PromoteNumeric(l TypeID, r TypeID) TypeID {
	if l == Float || r == Float {
		return Float
	}
	if l == BigInt || r == BigInt {
		return BigInt
	}
	return Integer
}
