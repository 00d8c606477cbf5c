package ws

import "sync"

// Registry maps a user id to its single live client. Last connection
// wins: registering a user who already holds an endpoint replaces the
// previous entry. The registry is volatile process state; a restart
// drops it and clients re-register on reconnect.
type Registry struct {
	clients sync.Map // userId -> *UserClient
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Set stores the mapping for client.UserId and returns the client it
// replaced, if any. The caller owns shutting down the replaced client.
func (r *Registry) Set(client *UserClient) *UserClient {
	prev, loaded := r.clients.Swap(client.UserId, client)
	if !loaded {
		return nil
	}
	return prev.(*UserClient)
}

// Remove deletes the mapping only while it still points at client. A
// stale client whose entry was already taken over by a reconnect is
// left alone, so a late disconnect cannot knock out the live endpoint.
func (r *Registry) Remove(client *UserClient) bool {
	return r.clients.CompareAndDelete(client.UserId, client)
}

func (r *Registry) Get(userId string) (*UserClient, bool) {
	v, ok := r.clients.Load(userId)
	if !ok {
		return nil, false
	}
	return v.(*UserClient), true
}

// UserIds returns a snapshot of the currently registered user ids.
func (r *Registry) UserIds() []string {
	ids := make([]string, 0)
	r.clients.Range(func(k, _ any) bool {
		ids = append(ids, k.(string))
		return true
	})
	return ids
}

func (r *Registry) Len() int {
	n := 0
	r.clients.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
