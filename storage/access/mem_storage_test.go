package access

import (
	"context"
	"testing"
	"time"

	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	testingpkg "github.com/ryogrid/samehada-executor/testing/testing_assert"
	"github.com/ryogrid/samehada-executor/testing/testing_util"
	"github.com/ryogrid/samehada-executor/types"
)

const testRel = RelationID(1)

func newTestStorage(t *testing.T) (*MemStorage, *schema.Schema) {
	txn_mgr := NewTransactionManager(NewLockManager())
	storage := NewMemStorage(txn_mgr)
	sc := schema.NewSchemaFromTypes([]string{"id", "name"}, []types.TypeID{types.Integer, types.Varchar})
	testingpkg.Ok(t, storage.CreateRelation(testRel, sc))
	return storage, sc
}

func insertCommitted(t *testing.T, storage *MemStorage, rows ...[]interface{}) []page.RID {
	txn_mgr := storage.GetTransactionManager()
	txn := txn_mgr.Begin(ReadCommitted)
	rids := make([]page.RID, 0)
	for _, row := range rows {
		rid, err := storage.InsertRow(context.Background(), testRel, txn, testing_util.GetValues(row...))
		testingpkg.Ok(t, err)
		rids = append(rids, rid)
	}
	txn_mgr.Commit(txn)
	return rids
}

func scanAll(t *testing.T, storage *MemStorage, snapshot *Snapshot, dir ScanDirection) []*tuple.Tuple {
	cursor, err := storage.BeginScan(context.Background(), testRel, snapshot)
	testingpkg.Ok(t, err)
	defer storage.EndScan(cursor)
	ret := make([]*tuple.Tuple, 0)
	if dir.IsBackward() {
		// position after the end first
		for {
			tup, err := storage.ScanNext(context.Background(), cursor, ForwardScanDirection)
			testingpkg.Ok(t, err)
			if tup == nil {
				break
			}
		}
	}
	for {
		tup, err := storage.ScanNext(context.Background(), cursor, dir)
		testingpkg.Ok(t, err)
		if tup == nil {
			return ret
		}
		ret = append(ret, tup)
	}
}

func TestMemStorageVisibility(t *testing.T) {
	storage, sc := newTestStorage(t)
	txn_mgr := storage.GetTransactionManager()
	insertCommitted(t, storage, []interface{}{1, "a"}, []interface{}{2, "b"})

	writer := txn_mgr.Begin(ReadCommitted)
	_, err := storage.InsertRow(context.Background(), testRel, writer, testing_util.GetValues(3, "c"))
	testingpkg.Ok(t, err)

	// own insert is not visible to the command which made it
	testingpkg.Equals(t, 2, len(scanAll(t, storage, txn_mgr.GetSnapshot(writer), ForwardScanDirection)))
	writer.CommandCounterIncrement()
	testingpkg.Equals(t, 3, len(scanAll(t, storage, txn_mgr.GetSnapshot(writer), ForwardScanDirection)))

	reader := txn_mgr.Begin(RepeatableRead)
	snap := txn_mgr.GetSnapshot(reader)
	testingpkg.Equals(t, 2, len(scanAll(t, storage, snap, ForwardScanDirection)))

	txn_mgr.Commit(writer)
	// repeatable read keeps the first snapshot
	testingpkg.Equals(t, 2, len(scanAll(t, storage, txn_mgr.GetSnapshot(reader), ForwardScanDirection)))

	readCommitted := txn_mgr.Begin(ReadCommitted)
	rows := scanAll(t, storage, txn_mgr.GetSnapshot(readCommitted), ForwardScanDirection)
	testingpkg.Equals(t, 3, len(rows))
	testingpkg.Equals(t, "c", rows[2].GetValue(sc, 1).ToVarchar())
}

func TestMemStorageScanDirection(t *testing.T) {
	storage, sc := newTestStorage(t)
	rows := make([][]interface{}, 0)
	for i := 0; i < common.SlotsPerPage*2+5; i++ {
		rows = append(rows, []interface{}{i, "x"})
	}
	insertCommitted(t, storage, rows...)
	txn := storage.GetTransactionManager().Begin(ReadCommitted)
	snap := storage.GetTransactionManager().GetSnapshot(txn)

	forward := scanAll(t, storage, snap, ForwardScanDirection)
	backward := scanAll(t, storage, snap, BackwardScanDirection)
	testingpkg.Equals(t, len(rows), len(forward))
	testingpkg.Equals(t, len(rows), len(backward))
	for i := range forward {
		testingpkg.Equals(t, int32(i), forward[i].GetValue(sc, 0).ToInteger())
		testingpkg.Equals(t, int32(len(rows)-1-i), backward[i].GetValue(sc, 0).ToInteger())
	}

	pages, err := storage.PageCount(testRel)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, 3, pages)

	// partial scans cover each row exactly once
	seen := make(map[int32]bool)
	for part := 0; part < 2; part++ {
		cursor, err := storage.BeginPartialScan(context.Background(), testRel, snap, part, 2)
		testingpkg.Ok(t, err)
		for {
			tup, err := storage.ScanNext(context.Background(), cursor, ForwardScanDirection)
			testingpkg.Ok(t, err)
			if tup == nil {
				break
			}
			testingpkg.Equals(t, part, int(tup.GetRID().GetPageId())%2)
			id := tup.GetValue(sc, 0).ToInteger()
			testingpkg.Assert(t, !seen[id], "row %d is scanned twice", id)
			seen[id] = true
		}
	}
	testingpkg.Equals(t, len(rows), len(seen))

	cursor, _ := storage.BeginScan(context.Background(), testRel, snap)
	first, _ := storage.ScanNext(context.Background(), cursor, ForwardScanDirection)
	storage.ScanNext(context.Background(), cursor, ForwardScanDirection)
	testingpkg.Ok(t, storage.RescanCursor(cursor))
	again, _ := storage.ScanNext(context.Background(), cursor, ForwardScanDirection)
	testingpkg.Equals(t, *first.GetRID(), *again.GetRID())
}

func TestMemStorageConcurrentUpdate(t *testing.T) {
	storage, sc := newTestStorage(t)
	txn_mgr := storage.GetTransactionManager()
	rids := insertCommitted(t, storage, []interface{}{1, "a"})
	ctx := context.Background()

	updater := txn_mgr.Begin(ReadCommitted)
	result, err := storage.UpdateRow(ctx, testRel, rids[0], updater, testing_util.GetValues(1, "b"), WaitBlock)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, TMOk, result.Result)
	newRID := result.NewRID

	locker := txn_mgr.Begin(ReadCommitted)
	result, err = storage.LockRow(ctx, testRel, rids[0], locker, LockExclusive, WaitSkip)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, TMWouldBlock, result.Result)

	_, err = storage.LockRow(ctx, testRel, rids[0], locker, LockExclusive, WaitError)
	testingpkg.Assert(t, common.IsLockNotAvailable(err), "lock not available is expected but %v", err)

	done := make(chan TMFailureData)
	go func() {
		ret, err := storage.LockRow(ctx, testRel, rids[0], locker, LockExclusive, WaitBlock)
		testingpkg.Ok(t, err)
		done <- ret
	}()
	time.Sleep(10 * time.Millisecond)
	txn_mgr.Commit(updater)
	result = <-done
	testingpkg.Equals(t, TMUpdated, result.Result)
	testingpkg.Equals(t, newRID, result.Successor)

	successor, ok, err := storage.FetchRow(ctx, testRel, result.Successor, nil)
	testingpkg.Ok(t, err)
	testingpkg.SimpleAssert(t, ok)
	testingpkg.Equals(t, "b", successor.GetValue(sc, 1).ToVarchar())

	result, err = storage.LockRow(ctx, testRel, newRID, locker, LockExclusive, WaitBlock)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, TMOk, result.Result)
	testingpkg.Equals(t, "b", result.Tuple.GetValue(sc, 1).ToVarchar())

	result, err = storage.DeleteRow(ctx, testRel, newRID, locker, WaitBlock)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, TMOk, result.Result)
	result, err = storage.LockRow(ctx, testRel, newRID, locker, LockShare, WaitBlock)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, TMSelfModified, result.Result)
	txn_mgr.Commit(locker)

	late := txn_mgr.Begin(ReadCommitted)
	result, err = storage.LockRow(ctx, testRel, newRID, late, LockShare, WaitBlock)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, TMDeleted, result.Result)
}

func TestMemStorageAbortedUpdate(t *testing.T) {
	storage, sc := newTestStorage(t)
	txn_mgr := storage.GetTransactionManager()
	rids := insertCommitted(t, storage, []interface{}{1, "a"})
	ctx := context.Background()

	updater := txn_mgr.Begin(ReadCommitted)
	result, err := storage.UpdateRow(ctx, testRel, rids[0], updater, testing_util.GetValues(1, "b"), WaitBlock)
	testingpkg.Ok(t, err)
	txn_mgr.Abort(updater)

	_, ok, err := storage.FetchRow(ctx, testRel, result.NewRID, nil)
	testingpkg.Ok(t, err)
	testingpkg.SimpleAssert(t, !ok)

	locker := txn_mgr.Begin(ReadCommitted)
	result, err = storage.LockRow(ctx, testRel, rids[0], locker, LockExclusive, WaitBlock)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, TMOk, result.Result)
	testingpkg.Equals(t, "a", result.Tuple.GetValue(sc, 1).ToVarchar())
}

func TestMemStorageWaitCanceled(t *testing.T) {
	storage, _ := newTestStorage(t)
	txn_mgr := storage.GetTransactionManager()
	rids := insertCommitted(t, storage, []interface{}{1, "a"})

	holder := txn_mgr.Begin(ReadCommitted)
	result, err := storage.LockRow(context.Background(), testRel, rids[0], holder, LockExclusive, WaitBlock)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, TMOk, result.Result)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	waiter := txn_mgr.Begin(ReadCommitted)
	_, err = storage.LockRow(ctx, testRel, rids[0], waiter, LockShare, WaitBlock)
	testingpkg.Assert(t, common.IsCanceled(err), "cancel is expected but %v", err)

	txn_mgr.Commit(holder)
	result, err = storage.LockRow(context.Background(), testRel, rids[0], waiter, LockShare, WaitBlock)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, TMOk, result.Result)
}
