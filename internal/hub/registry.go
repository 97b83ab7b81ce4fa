package hub

import "github.com/togisoft/t-force/internal/domain"

// Registry maps connection IDs to their live clients and verified
// identities. It holds no lock of its own: it is private state of the Hub
// and every access goes through the Hub's mutex.
type Registry struct {
	clients map[string]*Client
}

func newRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

func (r *Registry) register(c *Client) {
	r.clients[c.ID] = c
}

func (r *Registry) unregister(id string) {
	delete(r.clients, id)
}

func (r *Registry) identityOf(id string) (domain.Identity, bool) {
	c, ok := r.clients[id]
	if !ok {
		return domain.Identity{}, false
	}
	return c.Identity, true
}

// all returns a snapshot of every registered client.
func (r *Registry) all() []*Client {
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

func (r *Registry) len() int {
	return len(r.clients)
}
