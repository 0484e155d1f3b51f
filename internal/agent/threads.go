package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesmcarthur-3999/taskerino/internal/llm"
)

// GraphOnlyThreadID is the reserved thread marker returned when the
// skip-LLM fast path answered without touching any thread.
const GraphOnlyThreadID = "graph-only"

// Thread holds one conversation's append-only message history. Turn
// processing locks the thread, so two concurrent searches against the
// same thread serialize instead of interleaving history.
type Thread struct {
	ID        string
	Messages  []llm.Message
	CreatedAt time.Time

	// cacheMarkedAt records when cache-marked blocks were last sent on
	// this thread, for TTL-based re-marking.
	cacheMarkedAt time.Time

	mu sync.Mutex
}

// ThreadStore owns threads for the orchestrator. The store is injected
// so callers can own thread lifetime; MemoryThreadStore is the default.
type ThreadStore interface {
	// GetOrCreate returns the thread with the given id, creating it on
	// first use.
	GetOrCreate(id string) *Thread

	// Get returns the thread if it exists.
	Get(id string) (*Thread, bool)

	// Delete removes the thread. Missing ids are a no-op.
	Delete(id string)
}

// MemoryThreadStore is an in-process ThreadStore backed by a
// mutex-guarded map.
type MemoryThreadStore struct {
	mu      sync.RWMutex
	threads map[string]*Thread
}

// NewMemoryThreadStore creates an empty store.
func NewMemoryThreadStore() *MemoryThreadStore {
	return &MemoryThreadStore{threads: make(map[string]*Thread)}
}

// GetOrCreate returns the thread with the given id, creating it on
// first use.
func (s *MemoryThreadStore) GetOrCreate(id string) *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.threads[id]; ok {
		return t
	}
	t := &Thread{ID: id, CreatedAt: time.Now()}
	s.threads[id] = t
	return t
}

// Get returns the thread if it exists.
func (s *MemoryThreadStore) Get(id string) (*Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[id]
	return t, ok
}

// Delete removes the thread.
func (s *MemoryThreadStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, id)
}

// NewThreadID generates a fresh thread identifier.
func NewThreadID() string {
	return uuid.NewString()
}

// Compile-time assertion.
var _ ThreadStore = (*MemoryThreadStore)(nil)
