package testing_tbl_gen

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/storage/table/column"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/types"
)

type ColumnInsertMeta struct {
	/**
	 * Name of the column
	 */
	Name_ string
	/**
	 * Type of the column
	 */
	Type_ types.TypeID
	/**
	 * Every NullEvery_ th row gets NULL. 0 means no NULL
	 */
	NullEvery_ int32
	/**
	 * Distribution of values
	 */
	Dist_ int32
	/**
	 * Min value of the column
	 */
	Min_ int32
	/**
	 * Max value of the column
	 */
	Max_ int32
	/**
	 * Counter to generate serial data
	 */
	SerialCounter_ int32
}

type TableInsertMeta struct {
	/**
	 * Relation filled
	 */
	Rel_ access.RelationID
	/**
	 * Number of rows
	 */
	NumRows_ uint32
	/**
	 * Columns
	 */
	ColMeta_ []*ColumnInsertMeta
}

const DistSerial int32 = 0
const DistUniform int32 = 1

const TEST1_SIZE uint32 = 1000
const TEST2_SIZE uint32 = 100

const TestRel1 access.RelationID = 1
const TestRel2 access.RelationID = 2

func genValue(col_meta *ColumnInsertMeta, rnd *rand.Rand) types.Value {
	var n int32
	if col_meta.Dist_ == DistSerial {
		n = col_meta.Min_ + col_meta.SerialCounter_
		col_meta.SerialCounter_++
	} else {
		n = col_meta.Min_ + rnd.Int31n(col_meta.Max_-col_meta.Min_+1)
	}
	switch col_meta.Type_ {
	case types.Integer:
		return types.NewInteger(n)
	case types.BigInt:
		return types.NewBigInt(int64(n))
	case types.Float:
		return types.NewFloat(float32(n) / 10)
	case types.Varchar:
		return types.NewVarchar(fmt.Sprintf("v%05d", n))
	default:
		panic("Not yet implemented")
	}
}

// MakeRow returns the values of the row_idx th row of table_meta
func MakeRow(table_meta *TableInsertMeta, row_idx uint32, rnd *rand.Rand) []types.Value {
	entry := make([]types.Value, 0, len(table_meta.ColMeta_))
	for _, col_meta := range table_meta.ColMeta_ {
		val := genValue(col_meta, rnd)
		if col_meta.NullEvery_ > 0 && int32(row_idx)%col_meta.NullEvery_ == col_meta.NullEvery_-1 {
			val = types.NewNull(col_meta.Type_)
		}
		entry = append(entry, val)
	}
	return entry
}

func MakeSchema(table_meta *TableInsertMeta) *schema.Schema {
	cols := make([]*column.Column, 0, len(table_meta.ColMeta_))
	for _, col_meta := range table_meta.ColMeta_ {
		col := column.NewColumn(col_meta.Name_, col_meta.Type_)
		col.SetNullable(col_meta.NullEvery_ > 0)
		cols = append(cols, col)
	}
	return schema.NewSchema(cols)
}

/**
 * FillTable creates relation of table_meta in storage and inserts generated
 * rows by txn. uniform values are drawn from a generator seeded by seed, so
 * tables are reproducible.
 */
func FillTable(storage *access.MemStorage, table_meta *TableInsertMeta, txn *access.Transaction, seed int64) ([]page.RID, error) {
	if err := storage.CreateRelation(table_meta.Rel_, MakeSchema(table_meta)); err != nil {
		return nil, err
	}
	rnd := rand.New(rand.NewSource(seed))
	rids := make([]page.RID, 0, table_meta.NumRows_)
	for i := uint32(0); i < table_meta.NumRows_; i++ {
		rid, err := storage.InsertRow(context.Background(), table_meta.Rel_, txn, MakeRow(table_meta, i, rnd))
		if err != nil {
			return nil, err
		}
		rids = append(rids, rid)
	}
	return rids, nil
}

func MakeColumnValueExpression(schema_ *schema.Schema, varno expression.Varno, col_name string) expression.Expression {
	col_idx := schema_.GetColIndex(col_name)
	return expression.NewColumnValue(varno, col_idx, schema_.GetColumn(col_idx).GetType())
}

func MakeComparisonExpression(lhs expression.Expression, rhs expression.Expression,
	comp_type expression.ComparisonType) expression.Expression {
	return expression.NewComparison(lhs, rhs, comp_type)
}

func MakeConstantValueExpression(val *types.Value) expression.Expression {
	return expression.NewConstantValue(*val, val.ValueType())
}

/**
 * GenerateTestTabls creates and fills two relations in a committed
 * transaction. test_1 has TEST1_SIZE rows and test_2 has TEST2_SIZE rows.
 * first column of both is serial from 0.
 */
func GenerateTestTabls(storage *access.MemStorage, seed int64) (*TableInsertMeta, *TableInsertMeta, error) {
	tableMeta1 := &TableInsertMeta{TestRel1,
		TEST1_SIZE,
		[]*ColumnInsertMeta{
			{"colA", types.Integer, 0, DistSerial, 0, 0, 0},
			{"colB", types.Integer, 0, DistUniform, 0, 9, 0},
			{"colC", types.Integer, 0, DistUniform, 0, 9999, 0},
			{"colD", types.Integer, 0, DistUniform, 0, 99999, 0},
		}}
	tableMeta2 := &TableInsertMeta{TestRel2,
		TEST2_SIZE,
		[]*ColumnInsertMeta{
			{"col1", types.Integer, 0, DistSerial, 0, 0, 0},
			{"col2", types.Integer, 0, DistUniform, 0, 9, 0},
			{"col3", types.Integer, 0, DistUniform, 0, 1024, 0},
			{"col4", types.Integer, 10, DistUniform, 0, 2048, 0},
		}}

	txn_mgr := storage.GetTransactionManager()
	txn := txn_mgr.Begin(access.ReadCommitted)
	for _, meta := range []*TableInsertMeta{tableMeta1, tableMeta2} {
		if _, err := FillTable(storage, meta, txn, seed); err != nil {
			txn_mgr.Abort(txn)
			return nil, nil, err
		}
	}
	txn_mgr.Commit(txn)
	return tableMeta1, tableMeta2, nil
}
