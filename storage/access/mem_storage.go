package access

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	"github.com/ryogrid/samehada-executor/types"
)

// heapItem is an element of the btree which orders row versions by RID
type heapItem struct {
	rid     page.RID
	version *rowVersion
}

func (item *heapItem) Less(than btree.Item) bool {
	return item.rid.Less(than.(*heapItem).rid)
}

type relation struct {
	id        RelationID
	schema_   *schema.Schema
	rows      *btree.BTree
	next_slot uint64
}

func (rel *relation) allocateRID() page.RID {
	slot := rel.next_slot
	rel.next_slot++
	return page.NewRID(types.PageID(slot/common.SlotsPerPage), uint32(slot%common.SlotsPerPage))
}

func (rel *relation) get(rid page.RID) *rowVersion {
	found := rel.rows.Get(&heapItem{rid: rid})
	if found == nil {
		return nil
	}
	return found.(*heapItem).version
}

type cursorPosition int32

const (
	beforeStart cursorPosition = iota
	onRow
	afterEnd
)

type memScanCursor struct {
	rel      *relation
	snapshot *Snapshot
	pos      cursorPosition
	cur      page.RID
	// scan only pages whose number modulo nparts equals part
	part   int
	nparts int
}

func (c *memScanCursor) Relation() RelationID { return c.rel.id }

/**
 * MemStorage is Storage which keeps all row versions on memory.
 * each relation is a btree ordered by RID. an update creates a new
 * version and links it from the old one.
 */
type MemStorage struct {
	latch     common.ReaderWriterLatch
	txn_mgr   *TransactionManager
	relations map[RelationID]*relation
}

func NewMemStorage(txn_mgr *TransactionManager) *MemStorage {
	return &MemStorage{
		latch:     common.NewRWLatch("mem_storage"),
		txn_mgr:   txn_mgr,
		relations: make(map[RelationID]*relation),
	}
}

func (s *MemStorage) GetTransactionManager() *TransactionManager {
	return s.txn_mgr
}

func (s *MemStorage) CreateRelation(id RelationID, schema_ *schema.Schema) error {
	s.latch.WLock()
	defer s.latch.WUnlock()
	if _, exists := s.relations[id]; exists {
		return errors.Newf("relation %d already exists", id)
	}
	s.relations[id] = &relation{id: id, schema_: schema_, rows: btree.New(common.HeapBTreeDegree)}
	return nil
}

func (s *MemStorage) getRelation(id RelationID) (*relation, error) {
	rel, ok := s.relations[id]
	if !ok {
		return nil, errors.Newf("relation %d does not exist", id)
	}
	return rel, nil
}

func (s *MemStorage) Schema(rel RelationID) (*schema.Schema, error) {
	s.latch.RLock()
	defer s.latch.RUnlock()
	r, err := s.getRelation(rel)
	if err != nil {
		return nil, err
	}
	return r.schema_, nil
}

// PageCount returns the number of pages relation rows are spread over
func (s *MemStorage) PageCount(rel RelationID) (int, error) {
	s.latch.RLock()
	defer s.latch.RUnlock()
	r, err := s.getRelation(rel)
	if err != nil {
		return 0, err
	}
	return int((r.next_slot + common.SlotsPerPage - 1) / common.SlotsPerPage), nil
}

func makeTuple(rid page.RID, v *rowVersion) *tuple.Tuple {
	rid_ := rid
	ret := tuple.NewTuple(&rid_, uint32(len(v.data)), v.data)
	ctid := rid
	if v.next.IsValid() {
		ctid = v.next
	}
	ret.SetHeader(tuple.Header{Xmin: v.xmin, Xmax: v.xmax, Ctid: ctid})
	return ret
}

func (s *MemStorage) FetchRow(ctx context.Context, rel RelationID, rid page.RID, snapshot *Snapshot) (*tuple.Tuple, bool, error) {
	s.latch.RLock()
	defer s.latch.RUnlock()
	r, err := s.getRelation(rel)
	if err != nil {
		return nil, false, err
	}
	v := r.get(rid)
	if v == nil {
		return nil, false, nil
	}
	if snapshot == nil {
		if s.txn_mgr.TxnStatus(v.xmin) == ABORTED {
			return nil, false, nil
		}
		return makeTuple(rid, v), true, nil
	}
	if !satisfiesMVCC(v, snapshot, s.txn_mgr.TxnStatus) {
		return nil, false, nil
	}
	return makeTuple(rid, v), true, nil
}

// checkModifiable inspects the version for a writer or locker.
// when the version is blocked by other in-progress transaction, the blocker is returned.
func (s *MemStorage) checkModifiable(v *rowVersion, txn *Transaction) (TMFailureData, types.TxnID) {
	my_id := txn.GetTransactionId()
	xmin_status := s.txn_mgr.TxnStatus(v.xmin)
	if xmin_status == ABORTED {
		return TMFailureData{Result: TMInvisible}, types.InvalidTxnID
	}
	if v.xmin != my_id && !xmin_status.IsFinished() {
		return TMFailureData{}, v.xmin
	}
	if !v.xmax.IsValid() {
		return TMFailureData{Result: TMOk}, types.InvalidTxnID
	}
	if v.xmax == my_id {
		return TMFailureData{Result: TMSelfModified, Xmax: my_id, Successor: v.next}, types.InvalidTxnID
	}
	switch s.txn_mgr.TxnStatus(v.xmax) {
	case COMMITTED:
		if v.next.IsValid() {
			return TMFailureData{Result: TMUpdated, Successor: v.next, Xmax: v.xmax}, types.InvalidTxnID
		}
		return TMFailureData{Result: TMDeleted, Xmax: v.xmax}, types.InvalidTxnID
	case ABORTED:
		return TMFailureData{Result: TMOk}, types.InvalidTxnID
	default:
		return TMFailureData{}, v.xmax
	}
}

/**
* lockVersion acquires row lock of mode on the version at rid and calls
* onLocked under write latch. when other transaction blocks, it waits,
* skips or fails according to wait.
 */
func (s *MemStorage) lockVersion(ctx context.Context, rel RelationID, rid page.RID, txn *Transaction, mode RowLockMode, wait WaitPolicy,
	onLocked func(r *relation, v *rowVersion, result *TMFailureData) error) (TMFailureData, error) {
	for {
		if err := common.CheckForInterrupts(ctx); err != nil {
			return TMFailureData{}, err
		}

		s.latch.WLock()
		r, err := s.getRelation(rel)
		if err != nil {
			s.latch.WUnlock()
			return TMFailureData{}, err
		}
		v := r.get(rid)
		if v == nil {
			s.latch.WUnlock()
			return TMFailureData{Result: TMInvisible}, nil
		}

		result, blocker := s.checkModifiable(v, txn)
		if !blocker.IsValid() && result.Result == TMOk {
			granted, lock_blocker := s.txn_mgr.GetLockManager().TryLock(txn, RowKey{rel, rid}, mode)
			if granted {
				err = onLocked(r, v, &result)
				s.latch.WUnlock()
				return result, err
			}
			blocker = lock_blocker
		}
		s.latch.WUnlock()

		if !blocker.IsValid() {
			return result, nil
		}
		switch wait {
		case WaitSkip:
			return TMFailureData{Result: TMWouldBlock, Xmax: blocker}, nil
		case WaitError:
			return TMFailureData{}, common.NewLockNotAvailableError("could not obtain lock on row %s in relation %d", rid, rel)
		}
		common.ShPrintf(common.DEBUG_INFO, "txn %d waits for txn %d on row %s\n", txn.GetTransactionId(), blocker, rid)
		if err = s.txn_mgr.WaitForTxn(ctx, blocker); err != nil {
			return TMFailureData{}, err
		}
	}
}

func (s *MemStorage) LockRow(ctx context.Context, rel RelationID, rid page.RID, txn *Transaction, mode RowLockMode, wait WaitPolicy) (TMFailureData, error) {
	return s.lockVersion(ctx, rel, rid, txn, mode, wait, func(r *relation, v *rowVersion, result *TMFailureData) error {
		result.Tuple = makeTuple(rid, v)
		return nil
	})
}

func (s *MemStorage) BeginScan(ctx context.Context, rel RelationID, snapshot *Snapshot) (ScanCursor, error) {
	return s.BeginPartialScan(ctx, rel, snapshot, 0, 1)
}

// BeginPartialScan opens scan of the pages assigned to part when pages are dealt to nparts scans
func (s *MemStorage) BeginPartialScan(ctx context.Context, rel RelationID, snapshot *Snapshot, part int, nparts int) (ScanCursor, error) {
	common.SH_Assert(nparts > 0 && part >= 0 && part < nparts, "invalid scan partition")
	s.latch.RLock()
	defer s.latch.RUnlock()
	r, err := s.getRelation(rel)
	if err != nil {
		return nil, err
	}
	return &memScanCursor{rel: r, snapshot: snapshot, pos: beforeStart, part: part, nparts: nparts}, nil
}

func (s *MemStorage) isTarget(c *memScanCursor, item *heapItem) bool {
	if int(item.rid.GetPageId())%c.nparts != c.part {
		return false
	}
	return c.snapshot == nil || satisfiesMVCC(item.version, c.snapshot, s.txn_mgr.TxnStatus)
}

func (s *MemStorage) ScanNext(ctx context.Context, cursor ScanCursor, direction ScanDirection) (*tuple.Tuple, error) {
	c, ok := cursor.(*memScanCursor)
	if !ok {
		return nil, errors.AssertionFailedf("cursor of other storage is passed")
	}
	if direction == NoMovementScanDirection {
		return nil, nil
	}
	s.latch.RLock()
	defer s.latch.RUnlock()

	var found *heapItem
	visit := func(i btree.Item) bool {
		item := i.(*heapItem)
		if c.pos == onRow && item.rid == c.cur {
			return true
		}
		if s.isTarget(c, item) {
			found = item
			return false
		}
		return true
	}

	if direction.IsForward() {
		switch c.pos {
		case beforeStart:
			c.rel.rows.Ascend(visit)
		case onRow:
			c.rel.rows.AscendGreaterOrEqual(&heapItem{rid: c.cur}, visit)
		case afterEnd:
			return nil, nil
		}
		if found == nil {
			c.pos = afterEnd
			return nil, nil
		}
	} else {
		switch c.pos {
		case afterEnd:
			c.rel.rows.Descend(visit)
		case onRow:
			c.rel.rows.DescendLessOrEqual(&heapItem{rid: c.cur}, visit)
		case beforeStart:
			return nil, nil
		}
		if found == nil {
			c.pos = beforeStart
			return nil, nil
		}
	}
	c.pos = onRow
	c.cur = found.rid
	return makeTuple(found.rid, found.version), nil
}

func (s *MemStorage) RescanCursor(cursor ScanCursor) error {
	c, ok := cursor.(*memScanCursor)
	if !ok {
		return errors.AssertionFailedf("cursor of other storage is passed")
	}
	c.pos = beforeStart
	c.cur = page.InvalidRID
	return nil
}

func (s *MemStorage) EndScan(cursor ScanCursor) {
	if c, ok := cursor.(*memScanCursor); ok {
		c.pos = afterEnd
	}
}

func (s *MemStorage) InsertRow(ctx context.Context, rel RelationID, txn *Transaction, values []types.Value) (page.RID, error) {
	s.latch.WLock()
	defer s.latch.WUnlock()
	r, err := s.getRelation(rel)
	if err != nil {
		return page.InvalidRID, err
	}
	if uint32(len(values)) != r.schema_.GetColumnCount() {
		return page.InvalidRID, common.NewEvalError("relation %d has %d columns but %d values are given", rel, r.schema_.GetColumnCount(), len(values))
	}
	rid := r.allocateRID()
	r.rows.ReplaceOrInsert(&heapItem{rid: rid, version: &rowVersion{
		xmin: txn.GetTransactionId(),
		cmin: txn.GetCommandID(),
		xmax: types.InvalidTxnID,
		next: page.InvalidRID,
		data: tuple.NewTupleFromSchema(values, r.schema_).Data(),
	}})
	return rid, nil
}

func (s *MemStorage) UpdateRow(ctx context.Context, rel RelationID, rid page.RID, txn *Transaction, values []types.Value, wait WaitPolicy) (TMFailureData, error) {
	return s.lockVersion(ctx, rel, rid, txn, LockNoKeyExclusive, wait, func(r *relation, v *rowVersion, result *TMFailureData) error {
		if uint32(len(values)) != r.schema_.GetColumnCount() {
			return common.NewEvalError("relation %d has %d columns but %d values are given", rel, r.schema_.GetColumnCount(), len(values))
		}
		new_rid := r.allocateRID()
		r.rows.ReplaceOrInsert(&heapItem{rid: new_rid, version: &rowVersion{
			xmin: txn.GetTransactionId(),
			cmin: txn.GetCommandID(),
			xmax: types.InvalidTxnID,
			next: page.InvalidRID,
			data: tuple.NewTupleFromSchema(values, r.schema_).Data(),
		}})
		v.xmax = txn.GetTransactionId()
		v.cmax = txn.GetCommandID()
		v.next = new_rid
		result.NewRID = new_rid
		return nil
	})
}

func (s *MemStorage) DeleteRow(ctx context.Context, rel RelationID, rid page.RID, txn *Transaction, wait WaitPolicy) (TMFailureData, error) {
	return s.lockVersion(ctx, rel, rid, txn, LockExclusive, wait, func(r *relation, v *rowVersion, result *TMFailureData) error {
		v.xmax = txn.GetTransactionId()
		v.cmax = txn.GetCommandID()
		v.next = page.InvalidRID
		return nil
	})
}
