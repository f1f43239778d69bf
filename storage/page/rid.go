package page

import (
	"fmt"

	"github.com/ryogrid/samehada-executor/types"
)

// RID is the record identifier for the given page identifier and slot number
type RID struct {
	pageId  types.PageID
	slotNum uint32
}

var InvalidRID = RID{types.InvalidPageID, 0}

func NewRID(pageId types.PageID, slot uint32) RID {
	return RID{pageId, slot}
}

// Set sets the recod identifier
func (r *RID) Set(pageId types.PageID, slot uint32) {
	r.pageId = pageId
	r.slotNum = slot
}

// GetPageId gets the page id
func (r *RID) GetPageId() types.PageID {
	return r.pageId
}

// GetSlot gets the slot number
func (r *RID) GetSlot() uint32 {
	return r.slotNum
}

func (r RID) IsValid() bool {
	return r.pageId.IsValid()
}

// Less orders RIDs physically, page first
func (r RID) Less(other RID) bool {
	if r.pageId != other.pageId {
		return r.pageId < other.pageId
	}
	return r.slotNum < other.slotNum
}

// ToInt64 packs r into one integer which can be carried as a BigInt column
func (r RID) ToInt64() int64 {
	return int64(r.pageId)<<32 | int64(r.slotNum)
}

func NewRIDFromInt64(v int64) RID {
	return RID{types.PageID(int32(v >> 32)), uint32(v)}
}

func (r RID) String() string {
	return fmt.Sprintf("(%d,%d)", r.pageId, r.slotNum)
}
