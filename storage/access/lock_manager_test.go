package access

import (
	"testing"

	"github.com/ryogrid/samehada-executor/storage/page"
	testingpkg "github.com/ryogrid/samehada-executor/testing/testing_assert"
)

func TestLockManagerConflicts(t *testing.T) {
	lock_manager := NewLockManager()
	txn_mgr := NewTransactionManager(lock_manager)
	txn1 := txn_mgr.Begin(ReadCommitted)
	txn2 := txn_mgr.Begin(ReadCommitted)
	key := RowKey{1, page.NewRID(0, 1)}

	granted, _ := lock_manager.TryLock(txn1, key, LockShare)
	testingpkg.SimpleAssert(t, granted)
	granted, _ = lock_manager.TryLock(txn2, key, LockKeyShare)
	testingpkg.SimpleAssert(t, granted)
	granted, _ = lock_manager.TryLock(txn2, key, LockShare)
	testingpkg.SimpleAssert(t, granted)
	granted, blocker := lock_manager.TryLock(txn2, key, LockNoKeyExclusive)
	testingpkg.SimpleAssert(t, !granted)
	testingpkg.Equals(t, txn1.GetTransactionId(), blocker)
	testingpkg.SimpleAssert(t, txn1.IsSharedLocked(key))

	// upgrade of own lock
	txn_mgr.Commit(txn2)
	granted, _ = lock_manager.TryLock(txn1, key, LockExclusive)
	testingpkg.SimpleAssert(t, granted)
	testingpkg.SimpleAssert(t, txn1.IsExclusiveLocked(key))
	testingpkg.SimpleAssert(t, !txn1.IsSharedLocked(key))
	mode, held := lock_manager.HeldMode(txn1, key)
	testingpkg.SimpleAssert(t, held)
	testingpkg.Equals(t, LockExclusive, mode)

	txn3 := txn_mgr.Begin(ReadCommitted)
	_, found := lock_manager.Conflicting(txn3, key, LockKeyShare)
	testingpkg.SimpleAssert(t, found)

	txn_mgr.Commit(txn1)
	_, found = lock_manager.Conflicting(txn3, key, LockExclusive)
	testingpkg.SimpleAssert(t, !found)
	testingpkg.Equals(t, 0, txn1.GetExclusiveLockSet().Cardinality())
	testingpkg.Equals(t, COMMITTED, txn_mgr.TxnStatus(txn1.GetTransactionId()))
}
