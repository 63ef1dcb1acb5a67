/*
Package chat contains the real-time delivery core: per-connection session
actors, the shared connection registry, inbound frame routing and directed
fan-out to thread peers.

This file defines the Registry, the process-wide map from (thread,
principal) to the live connection handle. It replaces broadcast-to-group
delivery with directed delivery to the known peers of a conversation.
*/
package chat

import (
	"sync"
)

// Handle is a sendable, non-owning reference to a live connection. The
// owning session is solely responsible for the connection's lifetime; the
// Registry only looks handles up.
type Handle interface {
	// Enqueue queues data for asynchronous delivery on the connection's
	// outbound channel. It never blocks; a full or closed channel is an
	// error.
	Enqueue(data []byte) error

	// Kick closes the connection with an application close code and reason.
	Kick(code int, reason string)
}

// Peer pairs a registered principal with its connection handle.
type Peer struct {
	PrincipalID int64
	Handle      Handle
}

// Registry is the process-local presence map. It holds at most one handle
// per (thread, principal) key; a new registration for an occupied key
// replaces the previous handle so a crashed client can never permanently
// occupy a routing slot. State is in-memory only: a restart empties the
// registry and clients re-register on reconnect.
type Registry struct {
	mu      sync.RWMutex
	threads map[int64]map[int64]Handle
}

// NewRegistry creates an empty Registry. One instance is constructed at
// process start and shared by every session.
func NewRegistry() *Registry {
	return &Registry{
		threads: make(map[int64]map[int64]Handle),
	}
}

// Register inserts or replaces the handle for (threadID, principalID) and
// returns the replaced handle, or nil if the slot was free. The caller is
// expected to kick the replaced connection outside the registry lock;
// registry operations themselves never touch the network.
func (r *Registry) Register(threadID, principalID int64, h Handle) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers := r.threads[threadID]
	if peers == nil {
		peers = make(map[int64]Handle)
		r.threads[threadID] = peers
	}

	prev := peers[principalID]
	peers[principalID] = h

	return prev
}

// Deregister removes the entry for (threadID, principalID) if it still
// refers to h. The handle check keeps a session's deferred cleanup from
// removing the replacement that kicked it. Removing an absent entry is a
// no-op, which tolerates double cleanup on abnormal disconnect paths.
func (r *Registry) Deregister(threadID, principalID int64, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers, ok := r.threads[threadID]
	if !ok {
		return
	}

	if current, ok := peers[principalID]; !ok || current != h {
		return
	}

	delete(peers, principalID)
	if len(peers) == 0 {
		delete(r.threads, threadID)
	}
}

// PeersExcluding returns every registered connection for threadID except the
// excluded principal's own. The result is a snapshot; handles may disconnect
// concurrently, which delivery tolerates per peer.
func (r *Registry) PeersExcluding(threadID, excludePrincipalID int64) []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peers := r.threads[threadID]
	if len(peers) == 0 {
		return nil
	}

	out := make([]Peer, 0, len(peers))
	for id, h := range peers {
		if id == excludePrincipalID {
			continue
		}
		out = append(out, Peer{PrincipalID: id, Handle: h})
	}

	return out
}
