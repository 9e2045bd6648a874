package kv

import "sync"

// MemoryStore is the in-memory Store used by tests and by terminals that run
// without a state directory. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	nextID int
	subs   map[int]func(key string)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]string),
		subs: make(map[int]func(key string)),
	}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	s.notify(key)
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	s.notify(key)
}

func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

func (s *MemoryStore) Clear(preserve ...string) {
	s.mu.Lock()
	kept := make(map[string]string, len(preserve))
	for _, k := range preserve {
		if v, ok := s.data[k]; ok {
			kept[k] = v
		}
	}
	s.data = kept
	s.mu.Unlock()
	s.notify("")
}

func (s *MemoryStore) Subscribe(fn func(key string)) func() {
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

func (s *MemoryStore) notify(key string) {
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
