package cache

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// Manager combines the memory and disk levels. Lookups try memory first
// and promote disk hits into memory.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache // nil when the disk level is disabled
}

// NewManager creates a cache manager. The disk level is skipped when
// DiskPath is empty or DiskCapacity is zero.
func NewManager(cfg Config) (*Manager, error) {
	m := &Manager{memory: NewMemoryCache(cfg.MemoryCapacity)}

	if cfg.DiskPath != "" && cfg.DiskCapacity > 0 {
		disk, err := NewDiskCache(cfg.DiskPath, cfg.DiskCapacity, cfg.CompressionLevel, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk cache: %w", err)
		}
		m.disk = disk
	}
	return m, nil
}

// Get retrieves a value from the first level that has it.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		return data, true
	}
	if m.disk == nil {
		return nil, false
	}
	data, ok := m.disk.Get(key)
	if !ok {
		return nil, false
	}
	if err := m.memory.Put(key, data); err != nil && !errors.Is(err, ErrItemTooLarge) {
		log.Debug("unable to promote cache entry", "key", key, "error", err)
	}
	return data, true
}

// Put stores a value in every level. A value too large for one level is
// still stored in the others.
func (m *Manager) Put(key string, value []byte) error {
	memErr := m.memory.Put(key, value)
	if m.disk == nil {
		return memErr
	}
	diskErr := m.disk.Put(key, value)
	if memErr == nil || diskErr == nil {
		return nil
	}
	return errors.Join(memErr, diskErr)
}

// Delete removes a key from every level.
func (m *Manager) Delete(key string) error {
	err := m.memory.Delete(key)
	if m.disk != nil {
		err = errors.Join(err, m.disk.Delete(key))
	}
	return err
}

// Clear empties every level.
func (m *Manager) Clear() error {
	err := m.memory.Clear()
	if m.disk != nil {
		err = errors.Join(err, m.disk.Clear())
	}
	return err
}

// Contains reports whether any level has key.
func (m *Manager) Contains(key string) bool {
	return m.memory.Contains(key) || (m.disk != nil && m.disk.Contains(key))
}

// Stats returns the counters of each enabled level.
func (m *Manager) Stats() map[Level]Stats {
	out := map[Level]Stats{LevelMemory: m.memory.Stats()}
	if m.disk != nil {
		out[LevelDisk] = m.disk.Stats()
	}
	return out
}

// Close flushes the disk index.
func (m *Manager) Close() error {
	if m.disk == nil {
		return nil
	}
	return m.disk.Close()
}
