// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package schema

import (
	"math"
	"strings"

	"github.com/ryogrid/samehada-executor/storage/table/column"
	"github.com/ryogrid/samehada-executor/types"
)

// Schema is immutable after NewSchema returns
type Schema struct {
	length           uint32           // Fixed-length column size, i.e. the number of bytes used by one tuple
	columns          []*column.Column // All the columns in the schema, inlined and uninlined.
	tupleIsInlined   bool             // True if all the columns are inlined, false otherwise
	uninlinedColumns []uint32         // Indices of all uninlined columns
}

func NewSchema(columns []*column.Column) *Schema {
	schema := &Schema{}
	schema.tupleIsInlined = true

	var currentOffset uint32
	currentOffset = 0
	for i := uint32(0); i < uint32(len(columns)); i++ {
		column := columns[i]

		if !column.IsInlined() {
			schema.tupleIsInlined = false
			schema.uninlinedColumns = append(schema.uninlinedColumns, i)
		}

		column.SetOffset(currentOffset)
		currentOffset += column.FixedLength()

		schema.columns = append(schema.columns, column)
	}
	schema.length = currentOffset
	return schema
}

// NewSchemaFromTypes creates schema from pairs of name and type. convenient for tests and plans
func NewSchemaFromTypes(names []string, colTypes []types.TypeID) *Schema {
	cols := make([]*column.Column, 0, len(names))
	for i, name := range names {
		cols = append(cols, column.NewColumn(name, colTypes[i]))
	}
	return NewSchema(cols)
}

func (s *Schema) GetColumn(colIndex uint32) *column.Column {
	return s.columns[colIndex]
}

func (s *Schema) GetUnlinedColumns() []uint32 {
	return s.uninlinedColumns
}

func (s *Schema) GetColumnCount() uint32 {
	return uint32(len(s.columns))
}

func (s *Schema) Length() uint32 {
	return s.length
}

func (s *Schema) IsInlined() bool {
	return s.tupleIsInlined
}

func (s *Schema) GetColIndex(columnName string) uint32 {
	for i := uint32(0); i < s.GetColumnCount(); i++ {
		if s.columns[i].GetColumnName() == columnName {
			return i
		}
	}

	// "table.col" form is matched by column part when schema has no qualified name
	if idx := strings.LastIndex(columnName, "."); idx >= 0 {
		return s.GetColIndex(columnName[idx+1:])
	}
	return math.MaxUint32
}

func (s *Schema) GetColumns() []*column.Column {
	return s.columns
}

func (s *Schema) GetTypes() []types.TypeID {
	ret := make([]types.TypeID, 0, len(s.columns))
	for _, col := range s.columns {
		ret = append(ret, col.GetType())
	}
	return ret
}

func (s *Schema) IsHaveColumn(columnName *string) bool {
	return s.GetColIndex(*columnName) != math.MaxUint32
}

// Equals is true when both schemas have same column count and types.
// names are not compared because it is shape of tuple what matters.
func (s *Schema) Equals(other *Schema) bool {
	if s.GetColumnCount() != other.GetColumnCount() {
		return false
	}
	for i, col := range s.columns {
		if col.GetType() != other.columns[i].GetType() {
			return false
		}
	}
	return true
}

// CopySchema creates new schema which has columns of from specified by attrs
func CopySchema(from *Schema, attrs []uint32) *Schema {
	cols := make([]*column.Column, 0, len(attrs))
	for _, attr := range attrs {
		cols = append(cols, from.columns[attr].Copy())
	}
	return NewSchema(cols)
}

// ConcatSchema creates schema of joined tuple
func ConcatSchema(left *Schema, right *Schema) *Schema {
	cols := make([]*column.Column, 0, left.GetColumnCount()+right.GetColumnCount())
	for _, col := range left.columns {
		cols = append(cols, col.Copy())
	}
	for _, col := range right.columns {
		cols = append(cols, col.Copy())
	}
	return NewSchema(cols)
}

func (s *Schema) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, col := range s.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col.GetColumnName())
		sb.WriteString(":")
		sb.WriteString(col.GetType().String())
	}
	sb.WriteString(")")
	return sb.String()
}
