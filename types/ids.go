package types

// PageID numbers virtual pages of a relation. a RID is (PageID, slot)
type PageID int32

const InvalidPageID = PageID(-1)

func (id PageID) IsValid() bool { return id >= 0 }

// TxnID identifies a transaction. ids grow monotonically, so a snapshot can
// compare them to tell whether a writer started after it
type TxnID int32

const InvalidTxnID = TxnID(-1)

func (id TxnID) IsValid() bool { return id >= 0 }
