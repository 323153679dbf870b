package chathub

import "sync"

// Registry maps user ids to their live connection. A user has at most one
// handle; the most recent connect wins.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Connect records c as the handle of its user and returns the handle it
// replaced, if any. Clients without a user id are ignored.
func (r *Registry) Connect(c Client) (prev Client) {
	userID := c.GetUserID()
	if userID == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	prev = r.clients[userID]
	r.clients[userID] = c
	if prev == c {
		return nil
	}
	return prev
}

// Remove drops the handle of userID only while it is still c, so a late
// disconnect of a superseded connection leaves the newer one in place.
func (r *Registry) Remove(userID string, c Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.clients[userID]; ok && cur == c {
		delete(r.clients, userID)
		return true
	}
	return false
}

func (r *Registry) Resolve(userID string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

// Drain empties the registry and returns the handles it held.
func (r *Registry) Drain() []Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Client, 0, len(r.clients))
	for id, c := range r.clients {
		out = append(out, c)
		delete(r.clients, id)
	}
	return out
}
