// package concurrency
// package transaction
package access

import (
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/types"
	"github.com/sasha-s/go-deadlock"
)

// lockConflicts[held][requested] is true when requested mode can't be granted
// to another transaction while held mode is held
var lockConflicts = [4][4]bool{
	LockKeyShare:       {false, false, false, true},
	LockShare:          {false, false, true, true},
	LockNoKeyExclusive: {false, true, true, true},
	LockExclusive:      {true, true, true, true},
}

/**
 * LockManager handles transactions asking for row locks.
 * locks are held until the end of the transaction (strict two-phase locking).
 * waiting is not done here. a caller which got a conflict waits for the
 * blocking transaction to finish and retries.
 */
type LockManager struct {
	mutex *deadlock.Mutex
	// holders of each row and their strongest mode
	lock_table map[RowKey]map[types.TxnID]RowLockMode
}

func NewLockManager() *LockManager {
	ret := new(LockManager)
	ret.mutex = new(deadlock.Mutex)
	ret.lock_table = make(map[RowKey]map[types.TxnID]RowLockMode)
	return ret
}

// findConflict returns a transaction other than txn which holds a lock conflicting with mode
func (lock_manager *LockManager) findConflict(txn *Transaction, key RowKey, mode RowLockMode) (types.TxnID, bool) {
	for holder, held := range lock_manager.lock_table[key] {
		if holder == txn.GetTransactionId() {
			continue
		}
		if lockConflicts[held][mode] {
			return holder, true
		}
	}
	return types.InvalidTxnID, false
}

/**
* Acquire a lock on row in mode.
* @return true and InvalidTxnID if the lock is granted, otherwise false and the transaction which blocks
 */
func (lock_manager *LockManager) TryLock(txn *Transaction, key RowKey, mode RowLockMode) (bool, types.TxnID) {
	lock_manager.mutex.Lock()
	defer lock_manager.mutex.Unlock()
	common.SH_Assert(!txn.GetState().IsFinished(), "finished transaction requests lock")

	if blocker, found := lock_manager.findConflict(txn, key, mode); found {
		return false, blocker
	}
	holders, ok := lock_manager.lock_table[key]
	if !ok {
		holders = make(map[types.TxnID]RowLockMode)
		lock_manager.lock_table[key] = holders
	}
	if cur, held := holders[txn.GetTransactionId()]; !held || cur < mode {
		holders[txn.GetTransactionId()] = mode
	}
	if holders[txn.GetTransactionId()] >= LockNoKeyExclusive {
		txn.GetSharedLockSet().Remove(key)
		txn.GetExclusiveLockSet().Add(key)
	} else {
		txn.GetSharedLockSet().Add(key)
	}
	return true, types.InvalidTxnID
}

// Conflicting reports a transaction other than txn holding a lock which blocks mode
func (lock_manager *LockManager) Conflicting(txn *Transaction, key RowKey, mode RowLockMode) (types.TxnID, bool) {
	lock_manager.mutex.Lock()
	defer lock_manager.mutex.Unlock()
	return lock_manager.findConflict(txn, key, mode)
}

func (lock_manager *LockManager) HeldMode(txn *Transaction, key RowKey) (RowLockMode, bool) {
	lock_manager.mutex.Lock()
	defer lock_manager.mutex.Unlock()
	mode, ok := lock_manager.lock_table[key][txn.GetTransactionId()]
	return mode, ok
}

/**
* Release all the locks held by the transaction.
 */
func (lock_manager *LockManager) UnlockAll(txn *Transaction) {
	lock_manager.mutex.Lock()
	defer lock_manager.mutex.Unlock()
	release := func(key RowKey) bool {
		if holders, ok := lock_manager.lock_table[key]; ok {
			delete(holders, txn.GetTransactionId())
			if len(holders) == 0 {
				delete(lock_manager.lock_table, key)
			}
		}
		return false
	}
	txn.GetSharedLockSet().Each(release)
	txn.GetExclusiveLockSet().Each(release)
	txn.GetSharedLockSet().Clear()
	txn.GetExclusiveLockSet().Clear()
}
