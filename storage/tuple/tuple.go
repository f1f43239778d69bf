// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package tuple

import (
	"encoding/binary"
	"fmt"

	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/types"
)

/**
 * Tuple format:
 * ---------------------------------------------------------------------
 * | FIXED-SIZE or VARIED-SIZED OFFSET | PAYLOAD OF VARIED-SIZED FIELD |
 * ---------------------------------------------------------------------
 * each field starts with 1 byte null flag.
 */

// Header is visibility information of a stored row version
type Header struct {
	Xmin types.TxnID // inserter
	Xmax types.TxnID // deleter, updater or InvalidTxnID
	Ctid page.RID    // RID of newer version when updated, otherwise RID of itself
}

/**
 * Tuple is a physical tuple which is formed as on storage and has
 * identity (RID) and visibility header.
 */
type Tuple struct {
	rid    *page.RID
	header Header
	size   uint32
	data   []byte
}

func NewTuple(rid *page.RID, size uint32, data []byte) *Tuple {
	return &Tuple{rid: rid, size: size, data: data}
}

// NewTupleFromSchema creates a new tuple based on input value
func NewTupleFromSchema(values []types.Value, schema_ *schema.Schema) *Tuple {
	data := formTupleData(values, schema_)
	return &Tuple{size: uint32(len(data)), data: data}
}

func formTupleData(values []types.Value, schema_ *schema.Schema) []byte {
	common.SH_Assert(uint32(len(values)) == schema_.GetColumnCount(),
		fmt.Sprintf("value count %d does not match schema %s", len(values), schema_))
	// calculate tuple size considering varchar columns
	tupleSize := schema_.Length()
	for _, colIndex := range schema_.GetUnlinedColumns() {
		tupleSize += values[colIndex].Size()
	}

	// allocate memory
	data := make([]byte, tupleSize)

	// serialize each attribute base on the input value
	tupleEndOffset := schema_.Length()
	for i := uint32(0); i < schema_.GetColumnCount(); i++ {
		col := schema_.GetColumn(i)
		val := values[i]
		if val.ValueType() != col.GetType() {
			val = coerce(val, col.GetType())
		}
		if col.IsInlined() {
			copy(data[col.GetOffset():], val.Serialize())
		} else {
			binary.LittleEndian.PutUint32(data[col.GetOffset():], tupleEndOffset)
			copy(data[tupleEndOffset:], val.Serialize())
			tupleEndOffset += val.Size()
		}
	}
	return data
}

// coerce converts numeric value to column type. NULL keeps its nullness
func coerce(val types.Value, to types.TypeID) types.Value {
	if val.IsNull() {
		return types.NewNull(to)
	}
	common.SH_Assert(val.ValueType().IsNumeric() && to.IsNumeric(),
		fmt.Sprintf("value of %s can't be stored to %s column", val.ValueType(), to))
	switch to {
	case types.Integer:
		return types.NewInteger(int32(val.ToInt64()))
	case types.BigInt:
		return types.NewBigInt(val.ToInt64())
	}
	return types.NewFloat(float32(val.ToFloat64()))
}

func getValueFromData(data []byte, schema_ *schema.Schema, colIndex uint32) types.Value {
	column := schema_.GetColumn(colIndex)
	offset := column.GetOffset()
	if !column.IsInlined() {
		offset = binary.LittleEndian.Uint32(data[offset : offset+column.FixedLength()])
	}

	value := types.NewValueFromBytes(data[offset:], column.GetType())
	return *value
}

func (t *Tuple) GetValue(schema_ *schema.Schema, colIndex uint32) types.Value {
	return getValueFromData(t.data, schema_, colIndex)
}

func (t *Tuple) Size() uint32 {
	return t.size
}

func (t *Tuple) Data() []byte {
	return t.data
}

func (t *Tuple) SetData(data []byte) {
	t.data = data
	t.size = uint32(len(data))
}

func (t *Tuple) GetRID() *page.RID {
	return t.rid
}

func (t *Tuple) SetRID(rid *page.RID) {
	t.rid = rid
}

func (t *Tuple) Header() Header {
	return t.header
}

func (t *Tuple) SetHeader(header Header) {
	t.header = header
}

// Copy returns deep copy of t
func (t *Tuple) Copy() *Tuple {
	ret := &Tuple{header: t.header, size: t.size, data: append([]byte(nil), t.data...)}
	if t.rid != nil {
		rid := *t.rid
		ret.rid = &rid
	}
	return ret
}

/**
 * MinimalTuple has same data format as Tuple but has neither RID nor header.
 * it is used for tuples stored in executor owned structures like hash tables or tuplestores.
 */
type MinimalTuple struct {
	data []byte
}

func NewMinimalTupleFromSchema(values []types.Value, schema_ *schema.Schema) *MinimalTuple {
	return &MinimalTuple{formTupleData(values, schema_)}
}

func NewMinimalTuple(data []byte) *MinimalTuple {
	return &MinimalTuple{data}
}

func (mt *MinimalTuple) GetValue(schema_ *schema.Schema, colIndex uint32) types.Value {
	return getValueFromData(mt.data, schema_, colIndex)
}

func (mt *MinimalTuple) Data() []byte {
	return mt.data
}

func (mt *MinimalTuple) Size() uint32 {
	return uint32(len(mt.data))
}
