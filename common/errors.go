package common

import (
	"context"

	"github.com/cockroachdb/errors"
)

// error classes. concrete errors are marked with one of them and
// callers classify with errors.Is
var (
	ErrInitialization       = errors.New("executor initialization error")
	ErrEvaluation           = errors.New("expression evaluation error")
	ErrOutOfMemory          = errors.New("out of memory")
	ErrSerializationFailure = errors.New("could not serialize access due to concurrent update")
	ErrQueryCanceled        = errors.New("canceling statement due to user request")
	ErrLockNotAvailable     = errors.New("could not obtain lock on row")
)

func NewInitError(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrInitialization)
}

func NewEvalError(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrEvaluation)
}

func NewOOMError(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrOutOfMemory)
}

func NewSerializationError(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrSerializationFailure)
}

func NewLockNotAvailableError(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrLockNotAvailable)
}

func IsInitError(err error) bool          { return errors.Is(err, ErrInitialization) }
func IsEvalError(err error) bool          { return errors.Is(err, ErrEvaluation) }
func IsOOMError(err error) bool           { return errors.Is(err, ErrOutOfMemory) }
func IsSerializationError(err error) bool { return errors.Is(err, ErrSerializationFailure) }
func IsCanceled(err error) bool           { return errors.Is(err, ErrQueryCanceled) }
func IsLockNotAvailable(err error) bool   { return errors.Is(err, ErrLockNotAvailable) }

// CheckForInterrupts is the cancellation check point which is called on every pull path.
func CheckForInterrupts(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return errors.Mark(errors.Wrap(ctx.Err(), "interrupted"), ErrQueryCanceled)
	default:
		return nil
	}
}
