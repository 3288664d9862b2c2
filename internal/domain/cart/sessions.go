package cart

import "sync"

// Sessions maps buyers to their live carts. The map is guarded here; the
// carts it hands out do their own locking.
type Sessions struct {
	mu    sync.RWMutex
	carts map[int64]*Cart
}

// NewSessions creates an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{carts: make(map[int64]*Cart)}
}

// Get returns the buyer's cart, creating one on first use.
func (s *Sessions) Get(buyerID int64) *Cart {
	s.mu.RLock()
	c, ok := s.carts[buyerID]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[buyerID]; ok {
		return c
	}
	c = New(buyerID)
	s.carts[buyerID] = c
	return c
}

// Drop discards the buyer's cart, e.g. on logout.
func (s *Sessions) Drop(buyerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, buyerID)
}
