package access

import (
	"context"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/types"
)

/**
 * TransactionManager keeps track of all the transactions running in the system.
 */
type TransactionManager struct {
	next_txn_id  types.TxnID
	lock_manager *LockManager
	// status of all transactions ever started
	txn_map map[types.TxnID]*Transaction
	mutex   *sync.Mutex
}

func NewTransactionManager(lock_manager *LockManager) *TransactionManager {
	return &TransactionManager{0, lock_manager, make(map[types.TxnID]*Transaction), new(sync.Mutex)}
}

func (transaction_manager *TransactionManager) GetLockManager() *LockManager {
	return transaction_manager.lock_manager
}

func (transaction_manager *TransactionManager) Begin(isolation_level IsolationLevel) *Transaction {
	transaction_manager.mutex.Lock()
	defer transaction_manager.mutex.Unlock()

	transaction_manager.next_txn_id += 1
	txn_ret := NewTransaction(transaction_manager.next_txn_id, isolation_level)
	transaction_manager.txn_map[txn_ret.GetTransactionId()] = txn_ret
	common.ShPrintf(common.DEBUG_INFO, "begin txn %d\n", txn_ret.GetTransactionId())
	return txn_ret
}

func (transaction_manager *TransactionManager) finish(txn *Transaction, state TransactionState) {
	transaction_manager.mutex.Lock()
	if txn.GetState().IsFinished() {
		transaction_manager.mutex.Unlock()
		return
	}
	txn.SetState(state)
	transaction_manager.mutex.Unlock()

	// Release all the locks.
	transaction_manager.lock_manager.UnlockAll(txn)
	close(txn.done)
}

func (transaction_manager *TransactionManager) Commit(txn *Transaction) {
	transaction_manager.finish(txn, COMMITTED)
	common.ShPrintf(common.DEBUG_INFO, "commit txn %d\n", txn.GetTransactionId())
}

// Abort makes all the versions written by txn invisible. nothing is rolled back physically.
func (transaction_manager *TransactionManager) Abort(txn *Transaction) {
	transaction_manager.finish(txn, ABORTED)
	common.ShPrintf(common.DEBUG_INFO, "abort txn %d\n", txn.GetTransactionId())
}

// TxnStatus is the state of transaction xid. unknown ids are regarded as aborted.
func (transaction_manager *TransactionManager) TxnStatus(xid types.TxnID) TransactionState {
	transaction_manager.mutex.Lock()
	defer transaction_manager.mutex.Unlock()
	if txn, ok := transaction_manager.txn_map[xid]; ok {
		return txn.GetState()
	}
	return ABORTED
}

func (transaction_manager *TransactionManager) GetTransaction(xid types.TxnID) *Transaction {
	transaction_manager.mutex.Lock()
	defer transaction_manager.mutex.Unlock()
	return transaction_manager.txn_map[xid]
}

/**
* GetSnapshot returns snapshot for the next statement of txn.
* RepeatableRead transaction reuses the snapshot taken at its first statement.
 */
func (transaction_manager *TransactionManager) GetSnapshot(txn *Transaction) *Snapshot {
	if txn.GetIsolationLevel() == RepeatableRead && txn.snapshot != nil {
		ret := txn.snapshot.Copy()
		ret.CurCid = txn.GetCommandID()
		return ret
	}

	transaction_manager.mutex.Lock()
	xip := mapset.NewSet[types.TxnID]()
	for xid, t := range transaction_manager.txn_map {
		if xid != txn.GetTransactionId() && !t.GetState().IsFinished() {
			xip.Add(xid)
		}
	}
	snap := &Snapshot{
		Xmax:   transaction_manager.next_txn_id + 1,
		Xip:    xip,
		CurTxn: txn.GetTransactionId(),
		CurCid: txn.GetCommandID(),
	}
	transaction_manager.mutex.Unlock()

	if txn.GetIsolationLevel() == RepeatableRead {
		txn.snapshot = snap
	}
	return snap
}

// WaitForTxn blocks until transaction xid finishes or ctx is canceled
func (transaction_manager *TransactionManager) WaitForTxn(ctx context.Context, xid types.TxnID) error {
	txn := transaction_manager.GetTransaction(xid)
	if txn == nil {
		return nil
	}
	select {
	case <-txn.Done():
		return nil
	case <-ctx.Done():
		return common.CheckForInterrupts(ctx)
	}
}
