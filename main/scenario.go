package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/executors"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/parser"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	"github.com/ryogrid/samehada-executor/types"
)

// string written for NULL in rows of scenario file
const nullLiteral = "NULL"

type columnDef struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type relationDef struct {
	Name    string          `toml:"name"`
	Columns []columnDef     `toml:"columns"`
	Rows    [][]interface{} `toml:"rows"`
}

type queryDef struct {
	// select, insert, update or delete
	Kind    string   `toml:"kind"`
	From    string   `toml:"from"`
	Where   string   `toml:"where"`
	Select  string   `toml:"select"`
	OrderBy []string `toml:"order_by"`
	Limit   uint64   `toml:"limit"`
	// column name to expression text, for update
	Set       map[string]string `toml:"set"`
	Values    [][]interface{}   `toml:"values"`
	Returning bool              `toml:"returning"`
}

type scenario struct {
	Relations []relationDef `toml:"relation"`
	Queries   []queryDef    `toml:"query"`
}

func loadScenario(path string) (*scenario, error) {
	sc := &scenario{}
	if _, err := toml.DecodeFile(path, sc); err != nil {
		return nil, errors.Wrapf(err, "failed to load scenario %s", path)
	}
	return sc, nil
}

type relationInfo struct {
	id   access.RelationID
	desc *schema.Schema
}

// scenarioRunner runs queries of a scenario one by one, each in its own transaction
type scenarioRunner struct {
	storage *access.MemStorage
	txn_mgr *access.TransactionManager
	config  *common.ExecutorConfig
	rels    map[string]relationInfo
	out     io.Writer
}

func newScenarioRunner(config *common.ExecutorConfig, out io.Writer) *scenarioRunner {
	txn_mgr := access.NewTransactionManager(access.NewLockManager())
	return &scenarioRunner{
		storage: access.NewMemStorage(txn_mgr),
		txn_mgr: txn_mgr,
		config:  config,
		rels:    make(map[string]relationInfo),
		out:     out,
	}
}

func parseTypeName(name string) (types.TypeID, error) {
	switch strings.ToLower(name) {
	case "int", "integer":
		return types.Integer, nil
	case "bigint":
		return types.BigInt, nil
	case "float", "real":
		return types.Float, nil
	case "varchar", "text":
		return types.Varchar, nil
	case "bool", "boolean":
		return types.Boolean, nil
	}
	return types.Invalid, errors.Newf("unknown column type %q", name)
}

// toValue converts a value decoded from TOML to typ
func toValue(raw interface{}, typ types.TypeID) (types.Value, error) {
	if s, ok := raw.(string); ok && s == nullLiteral {
		return types.NewNull(typ), nil
	}
	switch v := raw.(type) {
	case int64:
		switch typ {
		case types.Integer:
			if v >= math.MinInt32 && v <= math.MaxInt32 {
				return types.NewInteger(int32(v)), nil
			}
		case types.BigInt:
			return types.NewBigInt(v), nil
		case types.Float:
			return types.NewFloat(float32(v)), nil
		}
	case float64:
		if typ == types.Float {
			return types.NewFloat(float32(v)), nil
		}
	case string:
		if typ == types.Varchar {
			return types.NewVarchar(v), nil
		}
	case bool:
		if typ == types.Boolean {
			return types.NewBoolean(v), nil
		}
	}
	return types.Value{}, errors.Newf("%v can't be stored in %s column", raw, typ)
}

func toRow(raw []interface{}, desc *schema.Schema) ([]types.Value, error) {
	if uint32(len(raw)) != desc.GetColumnCount() {
		return nil, errors.Newf("row %v has %d values but relation has %d columns", raw, len(raw), desc.GetColumnCount())
	}
	ret := make([]types.Value, 0, len(raw))
	for i, v := range raw {
		val, err := toValue(v, desc.GetColumn(uint32(i)).GetType())
		if err != nil {
			return nil, err
		}
		ret = append(ret, val)
	}
	return ret, nil
}

func (r *scenarioRunner) createRelations(defs []relationDef) error {
	for i, def := range defs {
		names := make([]string, 0, len(def.Columns))
		colTypes := make([]types.TypeID, 0, len(def.Columns))
		for _, col := range def.Columns {
			typ, err := parseTypeName(col.Type)
			if err != nil {
				return errors.Wrapf(err, "relation %s", def.Name)
			}
			names = append(names, col.Name)
			colTypes = append(colTypes, typ)
		}
		info := relationInfo{access.RelationID(i + 1), schema.NewSchemaFromTypes(names, colTypes)}
		if err := r.storage.CreateRelation(info.id, info.desc); err != nil {
			return err
		}
		r.rels[strings.ToLower(def.Name)] = info

		txn := r.txn_mgr.Begin(access.ReadCommitted)
		for _, raw := range def.Rows {
			row, err := toRow(raw, info.desc)
			if err == nil {
				_, err = r.storage.InsertRow(context.Background(), info.id, txn, row)
			}
			if err != nil {
				r.txn_mgr.Abort(txn)
				return errors.Wrapf(err, "relation %s", def.Name)
			}
		}
		r.txn_mgr.Commit(txn)
		common.ShPrintf(common.INFO, "created relation %s with %d rows\n", def.Name, len(def.Rows))
	}
	return nil
}

func (r *scenarioRunner) relation(name string) (relationInfo, error) {
	info, ok := r.rels[strings.ToLower(name)]
	if !ok {
		return relationInfo{}, errors.Newf("relation %q does not exist", name)
	}
	return info, nil
}

// outputSchema names targets and types them by compiling
func outputSchema(targets []expression.Expression, names []string, binding *expression.Binding) (*schema.Schema, error) {
	colTypes := make([]types.TypeID, 0, len(targets))
	for _, target := range targets {
		p, err := expression.Compile(target, binding)
		if err != nil {
			return nil, err
		}
		colTypes = append(colTypes, p.ResultType())
	}
	return schema.NewSchemaFromTypes(names, colTypes), nil
}

// targetScan scans rel with the where clause of q. targets nil means all columns followed by RID
func (r *scenarioRunner) targetScan(q *queryDef, rel relationInfo, targets []expression.Expression, out *schema.Schema) (*plans.SeqScanPlanNode, error) {
	var qual []expression.Expression
	if q.Where != "" {
		var err error
		if qual, err = parser.ParseQual(q.Where, parser.NewScope().Add(q.From, expression.ScanVar, rel.desc)); err != nil {
			return nil, err
		}
	}
	if targets == nil {
		names := make([]string, 0)
		colTypes := make([]types.TypeID, 0)
		for i, col := range rel.desc.GetColumns() {
			targets = append(targets, expression.NewColumnValue(expression.ScanVar, uint32(i), col.GetType()))
			names = append(names, col.GetColumnName())
			colTypes = append(colTypes, col.GetType())
		}
		targets = append(targets, expression.NewColumnValue(expression.ScanVar, expression.RowIDColumn, types.BigInt))
		out = schema.NewSchemaFromTypes(append(names, "rid"), append(colTypes, types.BigInt))
	}
	return plans.NewSeqScanPlanNode(rel.id, 1, rel.desc, qual, targets, out), nil
}

func (r *scenarioRunner) buildSelect(q *queryDef, rel relationInfo) (plans.Plan, error) {
	selectList := q.Select
	if selectList == "" {
		names := make([]string, 0)
		for _, col := range rel.desc.GetColumns() {
			names = append(names, col.GetColumnName())
		}
		selectList = strings.Join(names, ", ")
	}
	scope := parser.NewScope().Add(q.From, expression.ScanVar, rel.desc)
	targets, names, err := parser.ParseTargetList(selectList, scope)
	if err != nil {
		return nil, err
	}
	out, err := outputSchema(targets, names, scope.Binding())
	if err != nil {
		return nil, err
	}
	var plan plans.Plan
	if plan, err = r.targetScan(q, rel, targets, out); err != nil {
		return nil, err
	}

	if len(q.OrderBy) > 0 {
		cols := make([]uint32, 0, len(q.OrderBy))
		orders := make([]plans.OrderbyType, 0, len(q.OrderBy))
		for _, key := range q.OrderBy {
			fields := strings.Fields(key)
			if len(fields) == 0 || len(fields) > 2 {
				return nil, errors.Newf("invalid sort key %q", key)
			}
			idx := out.GetColIndex(fields[0])
			if idx >= out.GetColumnCount() {
				return nil, errors.Newf("sort key %q is not in select list", fields[0])
			}
			order := plans.ASC
			if len(fields) == 2 && strings.EqualFold(fields[1], "desc") {
				order = plans.DESC
			}
			cols = append(cols, idx)
			orders = append(orders, order)
		}
		plan = plans.NewOrderbyPlanNode(plan, cols, orders, nil)
	}
	if q.Limit > 0 {
		plan = plans.NewLimitPlanNode(plan, q.Limit, 0)
	}
	return plan, nil
}

func (r *scenarioRunner) buildModify(q *queryDef, rel relationInfo) (plans.Plan, error) {
	child, err := r.targetScan(q, rel, nil, nil)
	if err != nil {
		return nil, err
	}
	ridCol := rel.desc.GetColumnCount()
	if q.Kind == "delete" {
		return plans.NewDeletePlanNode(child, rel.id, 1, rel.desc, ridCol).SetReturning(q.Returning), nil
	}

	// new values are computed from the old version of the row
	scope := parser.NewScope().Add(q.From, expression.OldVar, rel.desc)
	cols := make([]string, 0, len(q.Set))
	for col := range q.Set {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	colIdxs := make([]uint32, 0, len(cols))
	exprs := make([]expression.Expression, 0, len(cols))
	for _, col := range cols {
		idx := rel.desc.GetColIndex(col)
		if idx >= rel.desc.GetColumnCount() {
			return nil, errors.Newf("column %q does not exist in %s", col, q.From)
		}
		e, err := parser.ParseExpression(q.Set[col], scope)
		if err != nil {
			return nil, err
		}
		colIdxs = append(colIdxs, idx)
		exprs = append(exprs, e)
	}
	return plans.NewUpdatePlanNode(child, rel.id, 1, rel.desc, ridCol, colIdxs, exprs).SetReturning(q.Returning), nil
}

func (r *scenarioRunner) buildPlan(q *queryDef) (plans.Plan, error) {
	rel, err := r.relation(q.From)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(q.Kind) {
	case "", "select":
		return r.buildSelect(q, rel)
	case "update", "delete":
		q.Kind = strings.ToLower(q.Kind)
		return r.buildModify(q, rel)
	case "insert":
		rows := make([][]types.Value, 0, len(q.Values))
		for _, raw := range q.Values {
			row, err := toRow(raw, rel.desc)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		return plans.NewInsertPlanNode(rows, rel.id, rel.desc).SetReturning(q.Returning), nil
	}
	return nil, errors.Newf("unknown query kind %q", q.Kind)
}

// runQuery executes q in a new transaction and writes its rows to out
func (r *scenarioRunner) runQuery(ctx context.Context, n int, q *queryDef) error {
	plan, err := r.buildPlan(q)
	if err != nil {
		return errors.Wrapf(err, "query %d", n)
	}
	txn := r.txn_mgr.Begin(access.ReadCommitted)
	ectx := executors.NewExecutorContext(ctx, r.storage, txn, r.txn_mgr.GetSnapshot(txn), r.config)

	fmt.Fprintf(r.out, "-- query %d\n", n)
	for _, line := range strings.Split(strings.TrimRight(plans.PlanTreeString(plan), "\n"), "\n") {
		fmt.Fprintf(r.out, "-- %s\n", line)
	}
	rows := 0
	dest := executors.DestFunc(func(slot *tuple.Slot) (bool, error) {
		vals := make([]string, 0, slot.Schema().GetColumnCount())
		for _, v := range slot.GetAllValues() {
			vals = append(vals, v.String())
		}
		rows++
		_, err := fmt.Fprintln(r.out, strings.Join(vals, " | "))
		return err == nil, err
	})

	engine := executors.NewExecutionEngine(nil)
	qd := executors.NewQueryDesc(plan, ectx, dest)
	err = engine.ExecutorStart(qd, 0)
	if err == nil {
		err = engine.ExecutorRun(qd, access.ForwardScanDirection, 0)
	}
	if err == nil {
		err = engine.ExecutorFinish(qd)
	}
	engine.ExecutorEnd(qd)
	if err != nil {
		r.txn_mgr.Abort(txn)
		return errors.Wrapf(err, "query %d", n)
	}
	r.txn_mgr.Commit(txn)
	fmt.Fprintf(r.out, "(%d rows, %d processed)\n", rows, qd.GetProcessed())
	return nil
}

func (r *scenarioRunner) run(ctx context.Context, sc *scenario) error {
	if err := r.createRelations(sc.Relations); err != nil {
		return err
	}
	for i := range sc.Queries {
		if err := r.runQuery(ctx, i+1, &sc.Queries[i]); err != nil {
			return err
		}
	}
	return nil
}
