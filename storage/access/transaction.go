// package concurrency
// package transaction
package access

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/types"
)

/**
 * Transaction states:
 *
 *     _________________________
 *    |                         v
 * GROWING -> SHRINKING -> COMMITTED   ABORTED
 *    |__________|________________________^
 *
 **/

type TransactionState int32

const (
	GROWING TransactionState = iota
	SHRINKING
	COMMITTED
	ABORTED
)

func (s TransactionState) IsFinished() bool {
	return s == COMMITTED || s == ABORTED
}

type IsolationLevel int32

const (
	// each statement takes new snapshot. concurrent updates are re-evaluated
	ReadCommitted IsolationLevel = iota
	// one snapshot per transaction. concurrent updates are serialization failure
	RepeatableRead
)

// CommandID orders statements in a transaction. rows written by the current
// command are not visible to the command itself
type CommandID uint32

// RowKey identifies row version over relations
type RowKey struct {
	Rel RelationID
	RID page.RID
}

/**
 * Transaction tracks information related to a transaction.
 */
type Transaction struct {
	/** The current transaction state. */
	state TransactionState

	/** The GetPageId of this access. */
	txn_id types.TxnID

	isolation_level IsolationLevel
	cur_cid         CommandID
	// snapshot of RepeatableRead transaction
	snapshot *Snapshot

	// /** LockManager: the set of shared-locked rows held by this access. */
	shared_lock_set mapset.Set[RowKey]
	// /** LockManager: the set of exclusive-locked rows held by this access. */
	exclusive_lock_set mapset.Set[RowKey]

	// closed when the transaction finishes
	done chan struct{}
}

func NewTransaction(txn_id types.TxnID, isolation_level IsolationLevel) *Transaction {
	return &Transaction{
		state:              GROWING,
		txn_id:             txn_id,
		isolation_level:    isolation_level,
		shared_lock_set:    mapset.NewSet[RowKey](),
		exclusive_lock_set: mapset.NewSet[RowKey](),
		done:               make(chan struct{}),
	}
}

/** @return the id of this transaction */
func (txn *Transaction) GetTransactionId() types.TxnID { return txn.txn_id }

func (txn *Transaction) GetState() TransactionState { return txn.state }

func (txn *Transaction) SetState(state TransactionState) { txn.state = state }

func (txn *Transaction) GetIsolationLevel() IsolationLevel { return txn.isolation_level }

func (txn *Transaction) GetCommandID() CommandID { return txn.cur_cid }

// CommandCounterIncrement makes writes of previous commands visible to following ones
func (txn *Transaction) CommandCounterIncrement() { txn.cur_cid++ }

// /** @return the set of resources under a shared lock */
func (txn *Transaction) GetSharedLockSet() mapset.Set[RowKey] { return txn.shared_lock_set }

// /** @return the set of resources under an exclusive lock */
func (txn *Transaction) GetExclusiveLockSet() mapset.Set[RowKey] { return txn.exclusive_lock_set }

func (txn *Transaction) IsSharedLocked(key RowKey) bool { return txn.shared_lock_set.Contains(key) }

func (txn *Transaction) IsExclusiveLocked(key RowKey) bool {
	return txn.exclusive_lock_set.Contains(key)
}

// Done returns channel which is closed at commit or abort
func (txn *Transaction) Done() <-chan struct{} { return txn.done }
