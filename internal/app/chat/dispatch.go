/*
Package chat contains the real-time delivery core.

This file implements the fan-out dispatcher, which resolves a thread's
registered peers and pushes a rendered payload to each of them. Delivery is
best effort: persistence is authoritative and an offline peer catches up on
its next fetch.
*/
package chat

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"shambachat/internal/pkg/logx"
)

// Dispatcher delivers outbound payloads to the peers of a thread. It only
// reads the Registry and sends to handles; it never mutates another
// session's state.
type Dispatcher struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewDispatcher builds a Dispatcher over registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logx.Logger().With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch marshals payload once and pushes it to every peer of threadID
// except excludePrincipalID. A push failure for one peer (typically a
// connection mid-disconnect) is logged and skipped; it never aborts
// delivery to the remaining peers and never surfaces to the caller. Zero
// registered peers is not an error.
func (d *Dispatcher) Dispatch(threadID, excludePrincipalID int64, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error().Err(err).
			Int64("thread_id", threadID).
			Msg("Failed to marshal payload for dispatch")
		return
	}

	peers := d.registry.PeersExcluding(threadID, excludePrincipalID)
	if len(peers) == 0 {
		d.logger.Debug().
			Int64("thread_id", threadID).
			Msg("No other participants online")
		return
	}

	for _, peer := range peers {
		if err := peer.Handle.Enqueue(data); err != nil {
			d.logger.Warn().Err(err).
				Int64("thread_id", threadID).
				Int64("peer_id", peer.PrincipalID).
				Msg("Failed to deliver payload to peer")
		}
	}
}
