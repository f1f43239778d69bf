// this code is from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

import (
	"sync"

	"github.com/sasha-s/go-deadlock"
)

type ReaderWriterLatch interface {
	WLock()
	WUnlock()
	RLock()
	RUnlock()
}

var latchDetectionOnce sync.Once

/**
 * namedLatch is a RW latch for structures shared by the leader and gather workers.
 * lock order checking of go-deadlock works only when EnableDebug is true at
 * the time the first latch is created. a detected deadlock is logged with the
 * latch name instead of exiting the process.
 */
type namedLatch struct {
	name  string
	mutex deadlock.RWMutex
}

func NewRWLatch(name string) ReaderWriterLatch {
	latchDetectionOnce.Do(func() {
		deadlock.Opts.Disable = !EnableDebug
		deadlock.Opts.OnPotentialDeadlock = func() {
			ShPrintf(FATAL, "potential deadlock on latches\n")
		}
	})
	return &namedLatch{name: name}
}

func (l *namedLatch) WLock() {
	l.mutex.Lock()
	ShPrintf(DEBUG_INFO_DETAIL, "latch %s: write locked\n", l.name)
}

func (l *namedLatch) WUnlock() {
	l.mutex.Unlock()
}

func (l *namedLatch) RLock() {
	l.mutex.RLock()
}

func (l *namedLatch) RUnlock() {
	l.mutex.RUnlock()
}
