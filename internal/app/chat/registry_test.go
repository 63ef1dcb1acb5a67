package chat

import (
	"errors"
	"sync"
	"testing"
)

// recordingHandle is a Handle that records delivered frames.
type recordingHandle struct {
	mu     sync.Mutex
	frames [][]byte
	failed bool
	kicked int
}

func (h *recordingHandle) Enqueue(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failed {
		return errors.New("handle closed")
	}
	h.frames = append(h.frames, data)
	return nil
}

func (h *recordingHandle) Kick(code int, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kicked = code
}

func (h *recordingHandle) frameCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.frames)
}

func TestRegistryRegisterAndPeers(t *testing.T) {
	r := NewRegistry()
	a := &recordingHandle{}
	b := &recordingHandle{}

	if prev := r.Register(7, 1, a); prev != nil {
		t.Errorf("expected no previous handle, got %v", prev)
	}
	if prev := r.Register(7, 2, b); prev != nil {
		t.Errorf("expected no previous handle, got %v", prev)
	}

	peers := r.PeersExcluding(7, 1)
	if len(peers) != 1 {
		t.Fatalf("expected 1 peer, got %d", len(peers))
	}
	if peers[0].PrincipalID != 2 || peers[0].Handle != b {
		t.Errorf("peersExcluding returned the wrong peer: %+v", peers[0])
	}

	// The excluded principal's own handle must never come back.
	for _, p := range r.PeersExcluding(7, 1) {
		if p.PrincipalID == 1 {
			t.Error("peersExcluding returned the excluded principal")
		}
	}
}

func TestRegistryReplacement(t *testing.T) {
	r := NewRegistry()
	old := &recordingHandle{}
	replacement := &recordingHandle{}

	r.Register(7, 1, old)
	prev := r.Register(7, 1, replacement)

	if prev != old {
		t.Errorf("expected the stale handle back on replacement, got %v", prev)
	}

	peers := r.PeersExcluding(7, 99)
	if len(peers) != 1 {
		t.Fatalf("expected exactly 1 entry after replacement, got %d", len(peers))
	}
	if peers[0].Handle != replacement {
		t.Error("registry still routes to the replaced handle")
	}
}

func TestRegistryDeregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	h := &recordingHandle{}

	// Deregistering a never-registered key must not panic.
	r.Deregister(7, 1, h)

	r.Register(7, 1, h)
	r.Deregister(7, 1, h)
	r.Deregister(7, 1, h)

	if peers := r.PeersExcluding(7, 99); len(peers) != 0 {
		t.Errorf("expected empty thread after deregister, got %d peers", len(peers))
	}
}

func TestRegistryDeregisterIgnoresStaleHandle(t *testing.T) {
	r := NewRegistry()
	old := &recordingHandle{}
	replacement := &recordingHandle{}

	r.Register(7, 1, old)
	r.Register(7, 1, replacement)

	// The replaced session's deferred cleanup must not evict the new entry.
	r.Deregister(7, 1, old)

	peers := r.PeersExcluding(7, 99)
	if len(peers) != 1 || peers[0].Handle != replacement {
		t.Error("stale deregister removed the replacement handle")
	}
}

func TestRegistryConcurrentChurn(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			h := &recordingHandle{}
			for range 100 {
				r.Register(7, id, h)
				r.PeersExcluding(7, id)
				r.Deregister(7, id, h)
			}
		}(int64(i))
	}
	wg.Wait()

	if peers := r.PeersExcluding(7, -1); len(peers) != 0 {
		t.Errorf("expected empty registry after churn, got %d entries", len(peers))
	}
}

func TestRegistryAtMostOneEntryPerKeyUnderRaces(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	handles := make([]*recordingHandle, 16)
	for i := range handles {
		handles[i] = &recordingHandle{}
		wg.Add(1)
		go func(h *recordingHandle) {
			defer wg.Done()
			r.Register(7, 1, h)
		}(handles[i])
	}
	wg.Wait()

	peers := r.PeersExcluding(7, -1)
	if len(peers) != 1 {
		t.Fatalf("expected exactly one entry for the contested key, got %d", len(peers))
	}

	found := false
	for _, h := range handles {
		if peers[0].Handle == h {
			found = true
			break
		}
	}
	if !found {
		t.Error("registered handle is not one of the racers")
	}
}
