package access

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/types"
)

/**
 * Snapshot decides which row versions are visible. transactions which
 * were in progress or not started yet at snapshot time are treated as
 * in progress even after they finish.
 */
type Snapshot struct {
	// transactions >= Xmax had not started
	Xmax types.TxnID
	// transactions in progress at snapshot time
	Xip    mapset.Set[types.TxnID]
	CurTxn types.TxnID
	CurCid CommandID
}

func (s *Snapshot) XidInProgress(xid types.TxnID) bool {
	return xid >= s.Xmax || s.Xip.Contains(xid)
}

// Copy returns snapshot which shares the in-progress set but has its own command id
func (s *Snapshot) Copy() *Snapshot {
	ret := *s
	return &ret
}

// version of a row stored in heap
type rowVersion struct {
	xmin types.TxnID
	cmin CommandID
	xmax types.TxnID
	cmax CommandID
	// RID of newer version. InvalidRID if not updated
	next page.RID
	data []byte
}

// satisfiesMVCC is the visibility check of v for snapshot
func satisfiesMVCC(v *rowVersion, snap *Snapshot, status func(types.TxnID) TransactionState) bool {
	if v.xmin == snap.CurTxn {
		if v.cmin >= snap.CurCid {
			// inserted after scan started
			return false
		}
		if !v.xmax.IsValid() {
			return true
		}
		if v.xmax == snap.CurTxn {
			return v.cmax >= snap.CurCid
		}
		return true
	}
	if status(v.xmin) != COMMITTED || snap.XidInProgress(v.xmin) {
		return false
	}

	if !v.xmax.IsValid() {
		return true
	}
	if v.xmax == snap.CurTxn {
		return v.cmax >= snap.CurCid
	}
	if status(v.xmax) != COMMITTED || snap.XidInProgress(v.xmax) {
		return true
	}
	return false
}
