package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/julianstephens/coinlit/internal/constants"
)

// MemoryStore is a Provider held in process memory. Failures can be injected
// per domain to exercise rollback paths.
type MemoryStore struct {
	mu        sync.Mutex
	docs      map[constants.Domain][]byte
	failSave  map[constants.Domain]error
	failLoad  map[constants.Domain]error
	saveCalls map[constants.Domain]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[constants.Domain][]byte),
		failSave:  make(map[constants.Domain]error),
		failLoad:  make(map[constants.Domain]error),
		saveCalls: make(map[constants.Domain]int),
	}
}

func (s *MemoryStore) Init() error  { return nil }
func (s *MemoryStore) Load() error  { return nil }
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) LoadDocument(ctx context.Context, domain constants.Domain) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failLoad[domain]; err != nil {
		return nil, err
	}
	data, ok := s.docs[domain]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

func (s *MemoryStore) SaveDocument(ctx context.Context, domain constants.Domain, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saveCalls[domain]++
	if err := s.failSave[domain]; err != nil {
		return fmt.Errorf("save %s: %w", domain, err)
	}
	s.docs[domain] = slices.Clone(data)
	return nil
}

func (s *MemoryStore) GetConfigPath() string {
	return "memory"
}

// FailSave makes every SaveDocument for domain return err. A nil err clears it.
func (s *MemoryStore) FailSave(domain constants.Domain, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failSave, domain)
		return
	}
	s.failSave[domain] = err
}

// FailLoad makes every LoadDocument for domain return err. A nil err clears it.
func (s *MemoryStore) FailLoad(domain constants.Domain, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failLoad, domain)
		return
	}
	s.failLoad[domain] = err
}

// SaveCalls returns how many times SaveDocument was called for domain.
func (s *MemoryStore) SaveCalls(domain constants.Domain) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCalls[domain]
}

// Put seeds a document directly.
func (s *MemoryStore) Put(domain constants.Domain, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[domain] = slices.Clone(data)
}

// Snapshot returns a copy of every stored document.
func (s *MemoryStore) Snapshot() map[constants.Domain][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[constants.Domain][]byte, len(s.docs))
	for k, v := range s.docs {
		out[k] = slices.Clone(v)
	}
	return out
}
