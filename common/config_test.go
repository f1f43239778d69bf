package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "executor.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
work_mem_bytes = 65536
gather_workers = 2
error_on_conflict = true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(65536), cfg.WorkMemBytes)
	assert.Equal(t, 2, cfg.GatherWorkers)
	assert.True(t, cfg.ErrorOnConflict)
	// not written in the file
	assert.Equal(t, 0.75, cfg.HashFillFactor)
	assert.Equal(t, DefaultConfig().LogKinds, cfg.LogKinds)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	for _, body := range []string{
		"hash_fill_factor = 1.5",
		"gather_workers = 0",
		"interrupt_check_interval = 0",
		"work_mem_bytes = -1",
		`log_kinds = ["INFO", "NOISE"]`,
		"gather_workers = 'two'",
	} {
		_, err := LoadConfig(writeConfig(t, body))
		assert.Error(t, err, body)
	}
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestApplyLogKinds(t *testing.T) {
	stubs := gostub.Stub(&LogLevelSetting, LogLevel(0))
	defer stubs.Reset()

	cfg := DefaultConfig()
	cfg.LogKinds = []string{"warn", " EPQ_STATE_INFO "}
	require.NoError(t, cfg.ApplyLogKinds())
	assert.Equal(t, LogLevel(WARN|EPQ_STATE_INFO), LogLevelSetting)

	cfg.LogKinds = []string{"LOUD"}
	assert.Error(t, cfg.ApplyLogKinds())
	assert.Equal(t, LogLevel(WARN|EPQ_STATE_INFO), LogLevelSetting)
}

func TestShPrintfFiltersByLogKind(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	stubs := gostub.Stub(&LogLevelSetting, LogLevel(INFO|ERROR|DEBUG_INFO))
	defer stubs.Reset()
	SetLogger(zap.New(core))
	defer SetLogger(newDefaultLogger().Desugar())

	ShPrintf(INFO, "scan of relation %d started\n", 1)
	ShPrintf(WARN, "filtered out")
	ShPrintf(ERROR, "failed: %s", "boom")
	ShPrintf(DEBUG_INFO, "debug %d", 2)

	entries := logs.AllUntimed()
	require.Equal(t, 3, len(entries))
	assert.Equal(t, "scan of relation 1 started", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
}

func TestErrorClassification(t *testing.T) {
	err := NewSerializationError("row %d was updated", 3)
	assert.True(t, IsSerializationError(err))
	assert.False(t, IsEvalError(err))
	assert.EqualError(t, err, "row 3 was updated")
	assert.True(t, IsInitError(NewInitError("bad plan")))
	assert.True(t, IsLockNotAvailable(NewLockNotAvailableError("locked")))
}
