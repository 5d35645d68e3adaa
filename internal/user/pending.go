package user

import (
	"sync"

	"github.com/Proton-105/cashflow-bot/internal/domain"
)

// PendingSet holds users waiting for the administrator, keyed by id.
type PendingSet struct {
	mu    sync.Mutex
	users map[int64]*domain.User
}

// NewPendingSet creates an empty set.
func NewPendingSet() *PendingSet {
	return &PendingSet{users: make(map[int64]*domain.User)}
}

// Add queues the user. A second request from the same user replaces the first.
func (p *PendingSet) Add(u *domain.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[u.ID] = u
}

// Get returns the queued user.
func (p *PendingSet) Get(id int64) (*domain.User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[id]
	return u, ok
}

// Has reports whether the user is queued.
func (p *PendingSet) Has(id int64) bool {
	_, ok := p.Get(id)
	return ok
}

// Clear drops every queued user.
func (p *PendingSet) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = make(map[int64]*domain.User)
}

// Len returns the number of queued users.
func (p *PendingSet) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.users)
}
