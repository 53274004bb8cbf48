package api

import (
	"sync"
)

// CompletionStore keeps finished completions in memory so clients can fetch
// them again by id. It holds at most limit entries and drops the oldest
// first.
type CompletionStore struct {
	mu          sync.Mutex
	limit       int
	order       []string
	completions map[string]CompletionResponse
}

// DefaultStoreLimit bounds the number of stored completions.
const DefaultStoreLimit = 1024

func NewCompletionStore(limit int) *CompletionStore {
	if limit <= 0 {
		limit = DefaultStoreLimit
	}
	return &CompletionStore{
		limit:       limit,
		completions: make(map[string]CompletionResponse),
	}
}

func (s *CompletionStore) Save(resp CompletionResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.completions[resp.ID]; !ok {
		s.order = append(s.order, resp.ID)
	}
	s.completions[resp.ID] = resp
	for len(s.order) > s.limit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.completions, oldest)
	}
}

func (s *CompletionStore) Get(id string) (CompletionResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.completions[id]
	return resp, ok
}

func (s *CompletionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.completions[id]; !ok {
		return false
	}
	delete(s.completions, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *CompletionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completions)
}
