// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package column

import (
	"github.com/ryogrid/samehada-executor/types"
)

/**
 * Column describes one attribute of a tuple descriptor. offset is the
 * position of the fixed length part in a physical tuple; a Varchar column
 * stores there the offset of its bytes in the variable length area.
 */
type Column struct {
	columnName   string
	columnType   types.TypeID
	fixedLength  uint32
	columnOffset uint32
	nullable     bool
}

func NewColumn(name string, columnType types.TypeID) *Column {
	return &Column{name, columnType, columnType.Size(), 0, true}
}

func (c *Column) IsInlined() bool {
	return c.columnType != types.Varchar
}

func (c *Column) GetType() types.TypeID {
	return c.columnType
}

func (c *Column) GetOffset() uint32 {
	return c.columnOffset
}

func (c *Column) SetOffset(offset uint32) {
	c.columnOffset = offset
}

func (c *Column) FixedLength() uint32 {
	return c.fixedLength
}

func (c *Column) GetColumnName() string {
	return c.columnName
}

// IsNullable is false when NULL must not be stored. executors don't check it
func (c *Column) IsNullable() bool {
	return c.nullable
}

func (c *Column) SetNullable(nullable bool) {
	c.nullable = nullable
}

// Copy returns a column which has same name and type. offset is not copied.
func (c *Column) Copy() *Column {
	ret := *c
	ret.columnOffset = 0
	return &ret
}
