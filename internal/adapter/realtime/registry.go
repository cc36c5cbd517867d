package realtime

import "sync"

// Registry maps customer phones to the live session that registered them.
// It is process-local; with the RabbitMQ backplane every instance keeps its
// own and only the instance holding the session delivers a targeted event.
type Registry struct {
	mu      sync.RWMutex
	byPhone map[string]string
}

func NewRegistry() *Registry {
	return &Registry{byPhone: make(map[string]string)}
}

// Bind points phone at sessionID, replacing any previous binding.
func (r *Registry) Bind(phone, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPhone[phone] = sessionID
}

// Unbind drops every phone currently bound to sessionID. Phones that were
// rebound to a newer session are left alone.
func (r *Registry) Unbind(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for phone, id := range r.byPhone {
		if id == sessionID {
			delete(r.byPhone, phone)
		}
	}
}

func (r *Registry) Lookup(phone string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPhone[phone]
	return id, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPhone)
}
