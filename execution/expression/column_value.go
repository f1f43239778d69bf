// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package expression

import (
	"fmt"
	"math"

	"github.com/ryogrid/samehada-executor/types"
)

// Varno tells which slot of ExprContext a column reference reads
type Varno int

const (
	// tuple of scan node
	ScanVar Varno = iota
	// left (outer) input of join or the only input of upper node
	OuterVar
	// right (inner) input of join
	InnerVar
	// row version before update
	OldVar
	// row version after update
	NewVar
	numVarnos
)

func (v Varno) String() string {
	return [...]string{"scan", "outer", "inner", "old", "new"}[v]
}

// RowIDColumn as column index refers to the RID of the tuple packed into BigInt
const RowIDColumn uint32 = math.MaxUint32

/**
 * ColumnValue maintains the slot and column index relative to a particular schema or join.
 */
type ColumnValue struct {
	*AbstractExpression
	varno    Varno
	colIndex uint32 // Column index refers to the index within the schema of the tuple, e.g. schema {A,B,C} has indexes {0,1,2}
}

// colType can be Invalid. then the type of the column in bound descriptor is used.
func NewColumnValue(varno Varno, colIndex uint32, colType types.TypeID) Expression {
	return &ColumnValue{newAbstractExpression(colType), varno, colIndex}
}

func (c *ColumnValue) GetVarno() Varno { return c.varno }

func (c *ColumnValue) GetColIndex() uint32 { return c.colIndex }

func (c *ColumnValue) GetType() ExpressionType { return EXPRESSION_TYPE_COLUMN_VALUE }

func (c *ColumnValue) String() string {
	if c.colIndex == RowIDColumn {
		return fmt.Sprintf("%s.rid", c.varno)
	}
	return fmt.Sprintf("%s.#%d", c.varno, c.colIndex)
}
