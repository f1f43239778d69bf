package access

import (
	"context"
	"fmt"

	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	"github.com/ryogrid/samehada-executor/types"
)

type RelationID uint32

type ScanDirection int32

const (
	BackwardScanDirection   ScanDirection = -1
	NoMovementScanDirection ScanDirection = 0
	ForwardScanDirection    ScanDirection = 1
)

func (d ScanDirection) IsForward() bool  { return d == ForwardScanDirection }
func (d ScanDirection) IsBackward() bool { return d == BackwardScanDirection }

// row lock strength. a mode conflicts with the modes on or after the one it conflicts first
type RowLockMode int32

const (
	LockKeyShare RowLockMode = iota
	LockShare
	LockNoKeyExclusive
	LockExclusive
)

func (m RowLockMode) String() string {
	return [...]string{"FOR KEY SHARE", "FOR SHARE", "FOR NO KEY UPDATE", "FOR UPDATE"}[m]
}

// what to do when requested row lock is held by other transaction
type WaitPolicy int32

const (
	WaitBlock WaitPolicy = iota
	WaitSkip
	WaitError
)

// TMResult is the outcome of a row level operation on a specific version
type TMResult int32

const (
	// lock was acquired or write was done
	TMOk TMResult = iota
	// the version was updated by a committed transaction. successor is reported
	TMUpdated
	// the version was deleted by a committed transaction
	TMDeleted
	// the version was modified by the calling transaction itself
	TMSelfModified
	// the version is not visible to anyone (inserter aborted)
	TMInvisible
	// lock is held by other and WaitSkip is specified
	TMWouldBlock
)

func (r TMResult) String() string {
	return [...]string{"Ok", "Updated", "Deleted", "SelfModified", "Invisible", "WouldBlock"}[r]
}

// TMFailureData is the result of LockRow, UpdateRow and DeleteRow
type TMFailureData struct {
	Result TMResult
	// RID of newer version when Result is TMUpdated
	Successor page.RID
	// transaction which made the conflicting modification
	Xmax types.TxnID
	// locked version when LockRow succeeded
	Tuple *tuple.Tuple
	// RID of created version when UpdateRow succeeded
	NewRID page.RID
}

func (d TMFailureData) String() string {
	return fmt.Sprintf("{%s successor:%s xmax:%d}", d.Result, d.Successor, d.Xmax)
}

// ScanCursor is an opened scan of one relation. it is owned by one scan node.
type ScanCursor interface {
	Relation() RelationID
}

//go:generate mockgen -destination=mock_access/mock_storage.go -package=mock_access github.com/ryogrid/samehada-executor/storage/access Storage

/**
 * Storage is the access layer the executor consumes. it owns row
 * versions, their visibility and row locks.
 */
type Storage interface {
	// Schema returns descriptor of rows of rel
	Schema(rel RelationID) (*schema.Schema, error)
	// FetchRow returns the version at rid if it is visible to snapshot. nil snapshot means any version.
	FetchRow(ctx context.Context, rel RelationID, rid page.RID, snapshot *Snapshot) (*tuple.Tuple, bool, error)
	// LockRow acquires row lock on the version at rid
	LockRow(ctx context.Context, rel RelationID, rid page.RID, txn *Transaction, mode RowLockMode, wait WaitPolicy) (TMFailureData, error)
	BeginScan(ctx context.Context, rel RelationID, snapshot *Snapshot) (ScanCursor, error)
	// ScanNext returns next visible row in direction. nil is returned at the end
	ScanNext(ctx context.Context, cursor ScanCursor, direction ScanDirection) (*tuple.Tuple, error)
	// RescanCursor positions cursor before the first row again
	RescanCursor(cursor ScanCursor) error
	EndScan(cursor ScanCursor)
	InsertRow(ctx context.Context, rel RelationID, txn *Transaction, values []types.Value) (page.RID, error)
	UpdateRow(ctx context.Context, rel RelationID, rid page.RID, txn *Transaction, values []types.Value, wait WaitPolicy) (TMFailureData, error)
	DeleteRow(ctx context.Context, rel RelationID, rid page.RID, txn *Transaction, wait WaitPolicy) (TMFailureData, error)
}

// PartitionedStorage can deal pages of a relation to several scans which run in parallel
type PartitionedStorage interface {
	Storage
	PageCount(rel RelationID) (int, error)
	BeginPartialScan(ctx context.Context, rel RelationID, snapshot *Snapshot, part int, nparts int) (ScanCursor, error)
}
