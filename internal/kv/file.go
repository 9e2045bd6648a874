package kv

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStore persists the key space as a single JSON file under the terminal's
// state directory. The in-memory map is authoritative for readers; writes are
// flushed with a temp-file rename so a crash never leaves a half-written
// file. Persist failures are logged and the in-memory state stays valid, the
// same degrade-to-session behavior a browser shows when local storage writes
// fail.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu     sync.RWMutex
	data   map[string]string
	nextID int
	subs   map[int]func(key string)
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &FileStore{
		path:   filepath.Join(dir, "state.json"),
		logger: logger,
		data:   make(map[string]string),
		subs:   make(map[int]func(key string)),
	}
	if err := s.load(); err != nil {
		// Corrupt state reads as empty rather than failing startup.
		logger.Warn("state file unreadable, starting empty",
			zap.String("path", s.path), zap.Error(err))
		s.data = make(map[string]string)
	}
	return s, nil
}

func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, &s.data)
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok
}

func (s *FileStore) Set(key, value string) {
	s.mu.Lock()
	s.data[key] = value
	s.persistLocked()
	s.mu.Unlock()
	s.notify(key)
}

func (s *FileStore) Delete(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.persistLocked()
	s.mu.Unlock()
	s.notify(key)
}

func (s *FileStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

func (s *FileStore) Clear(preserve ...string) {
	s.mu.Lock()
	kept := make(map[string]string, len(preserve))
	for _, k := range preserve {
		if v, ok := s.data[k]; ok {
			kept[k] = v
		}
	}
	s.data = kept
	s.persistLocked()
	s.mu.Unlock()
	s.notify("")
}

func (s *FileStore) Subscribe(fn func(key string)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *FileStore) persistLocked() {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		s.logger.Error("state marshal failed", zap.Error(err))
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		s.logger.Error("state write failed", zap.String("path", tmp), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Error("state rename failed", zap.String("path", s.path), zap.Error(err))
	}
}

func (s *FileStore) notify(key string) {
	s.mu.RLock()
	fns := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(key)
	}
}
