package common

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type LogLevel int32

const (
	DEBUG_INFO_DETAIL LogLevel = 1
	DEBUG_INFO                 = 2
	RDB_OP_FUNC_CALL           = 4
	DEBUGGING                  = 8
	INFO                       = 16
	WARN                       = 32
	ERROR                      = 64
	FATAL                      = 128
	EPQ_STATE_INFO             = 256
)

var LogLevelSetting LogLevel = INFO | WARN | ERROR | FATAL

var logKindNames = map[string]LogLevel{
	"DEBUG_INFO_DETAIL": DEBUG_INFO_DETAIL,
	"DEBUG_INFO":        DEBUG_INFO,
	"RDB_OP_FUNC_CALL":  RDB_OP_FUNC_CALL,
	"DEBUGGING":         DEBUGGING,
	"INFO":              INFO,
	"WARN":              WARN,
	"ERROR":             ERROR,
	"FATAL":             FATAL,
	"EPQ_STATE_INFO":    EPQ_STATE_INFO,
}

var logger = newDefaultLogger()

func newDefaultLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// SetLogger replaces the sink of ShPrintf. nil means discarding all output.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l.Sugar()
}

func Logger() *zap.SugaredLogger {
	return logger
}

func ParseLogKinds(names []string) (LogLevel, error) {
	var ret LogLevel
	for _, name := range names {
		kind, ok := logKindNames[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return 0, errors.Newf("unknown log kind: %s", name)
		}
		ret |= kind
	}
	return ret, nil
}

func ShPrintf(logLevel LogLevel, fmtStl string, a ...interface{}) {
	if logLevel&LogLevelSetting == 0 {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(fmtStl, a...), "\n")
	switch {
	case logLevel&FATAL > 0, logLevel&ERROR > 0:
		logger.Error(msg)
	case logLevel&WARN > 0:
		logger.Warn(msg)
	case logLevel&INFO > 0:
		logger.Info(msg)
	default:
		logger.Debug(msg)
	}
}
