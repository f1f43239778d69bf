package executors

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/dsnet/golib/memfile"
	"github.com/ryogrid/samehada-executor/memory"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

const tuplestoreLenSize = 4

/**
 * tuplestore spools minimal tuples into a memfile and reads them back in
 * any order. each tuple is stored with its length in front. the bytes are
 * charged to the memory context of the owner.
 */
type tuplestore struct {
	file    *memfile.File
	offsets []int64
	end     int64
	mem     *memory.MemoryContext
	lenBuf  [tuplestoreLenSize]byte
}

func newTuplestore(mem *memory.MemoryContext) *tuplestore {
	return &tuplestore{file: memfile.New(make([]byte, 0)), offsets: make([]int64, 0), mem: mem}
}

func (ts *tuplestore) count() int { return len(ts.offsets) }

func (ts *tuplestore) putTuple(mt *tuple.MinimalTuple) error {
	data := mt.Data()
	if err := ts.mem.Track(int64(len(data) + tuplestoreLenSize + 8)); err != nil {
		return errors.Wrap(err, "tuplestore")
	}
	binary.LittleEndian.PutUint32(ts.lenBuf[:], uint32(len(data)))
	if _, err := ts.file.WriteAt(ts.lenBuf[:], ts.end); err != nil {
		return err
	}
	if _, err := ts.file.WriteAt(data, ts.end+tuplestoreLenSize); err != nil {
		return err
	}
	ts.offsets = append(ts.offsets, ts.end)
	ts.end += int64(len(data) + tuplestoreLenSize)
	return nil
}

// getTuple reads the idx-th tuple. returned tuple doesn't share memory with the store
func (ts *tuplestore) getTuple(idx int) (*tuple.MinimalTuple, error) {
	off := ts.offsets[idx]
	if _, err := ts.file.ReadAt(ts.lenBuf[:], off); err != nil {
		return nil, err
	}
	data := make([]byte, binary.LittleEndian.Uint32(ts.lenBuf[:]))
	if _, err := ts.file.ReadAt(data, off+tuplestoreLenSize); err != nil && err != io.EOF {
		return nil, err
	}
	return tuple.NewMinimalTuple(data), nil
}

// clear removes all tuples. charged bytes are released when the owner's context is reset
func (ts *tuplestore) clear() {
	ts.file.Truncate(0)
	ts.offsets = ts.offsets[:0]
	ts.end = 0
}
