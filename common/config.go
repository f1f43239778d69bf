// this code is from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

import (
	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

var EnableDebug bool = false

const (
	// row slots per virtual page of the in-memory heap
	SlotsPerPage = 64
	// degree of the btree which orders heap rows by RID
	HeapBTreeDegree = 32
	// initial chunk size of memory context
	MemoryChunkSize = 8 * 1024
	// bucket count used when caller gives no estimate
	DefaultHashTableBuckets = 256
	// max bucket count which hash table can grow to
	MaxHashTableBuckets = 1 << 30
	// rows buffered between gather workers and leader
	GatherQueueSize = 64
)

// ExecutorConfig holds tunables of the executor which can be given by TOML file.
type ExecutorConfig struct {
	// budget of per-query memory in bytes. 0 means unlimited
	WorkMemBytes int64 `toml:"work_mem_bytes"`
	// load factor of tuple hash table
	HashFillFactor float64 `toml:"hash_fill_factor"`
	// use random initial value of hash calculation for each table
	HashSeedRandomize bool `toml:"hash_seed_randomize"`
	// size of worker pool used by gather node
	GatherWorkers int `toml:"gather_workers"`
	// number of pulls between interrupt checks
	InterruptCheckInterval int `toml:"interrupt_check_interval"`
	// error out instead of skipping rows on concurrent update
	ErrorOnConflict bool `toml:"error_on_conflict"`
	// names of log kinds to be output
	LogKinds []string `toml:"log_kinds"`
}

func DefaultConfig() *ExecutorConfig {
	return &ExecutorConfig{
		WorkMemBytes:           0,
		HashFillFactor:         0.75,
		HashSeedRandomize:      false,
		GatherWorkers:          4,
		InterruptCheckInterval: 1,
		ErrorOnConflict:        false,
		LogKinds:               []string{"INFO", "WARN", "ERROR", "FATAL"},
	}
}

// LoadConfig reads TOML file at path. values not written in the file are kept default.
func LoadConfig(path string) (*ExecutorConfig, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to load config file %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ExecutorConfig) Validate() error {
	if c.HashFillFactor <= 0 || c.HashFillFactor > 1 {
		return errors.Newf("hash_fill_factor must be in (0, 1], got %v", c.HashFillFactor)
	}
	if c.GatherWorkers < 1 {
		return errors.Newf("gather_workers must be positive, got %d", c.GatherWorkers)
	}
	if c.InterruptCheckInterval < 1 {
		return errors.Newf("interrupt_check_interval must be positive, got %d", c.InterruptCheckInterval)
	}
	if c.WorkMemBytes < 0 {
		return errors.Newf("work_mem_bytes must not be negative, got %d", c.WorkMemBytes)
	}
	if _, err := ParseLogKinds(c.LogKinds); err != nil {
		return err
	}
	return nil
}

// ApplyLogKinds sets LogLevelSetting according to LogKinds.
func (c *ExecutorConfig) ApplyLogKinds() error {
	setting, err := ParseLogKinds(c.LogKinds)
	if err != nil {
		return err
	}
	LogLevelSetting = setting
	return nil
}
