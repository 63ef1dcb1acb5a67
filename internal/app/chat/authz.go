/*
Package chat contains the real-time delivery core.

This file implements the thread membership check run before a connection is
registered, so unauthorized connections never appear in the Registry.
*/
package chat

import (
	"context"

	"shambachat/internal/app/store"
	"shambachat/internal/app/user"
	"shambachat/internal/pkg/logx"
)

// ThreadStore resolves conversation threads from persistence.
type ThreadStore interface {
	FindThreadByID(ctx context.Context, id int64) (*store.Thread, error)
}

// Authorizer decides whether a principal may join a conversation thread.
type Authorizer struct {
	threads ThreadStore
}

// NewAuthorizer builds an Authorizer reading threads from threads.
func NewAuthorizer(threads ThreadStore) *Authorizer {
	return &Authorizer{threads: threads}
}

// Authorize reports whether principal may join threadID. Access is granted
// to the farmer who opened the conversation (matched by phone number), the
// assigned staff member, or any staff account. A missing thread or a lookup
// fault denies access.
func (a *Authorizer) Authorize(ctx context.Context, principal user.Principal, threadID int64) bool {
	thread, err := a.threads.FindThreadByID(ctx, threadID)
	if err != nil {
		logx.Error(err, "Thread lookup failed during authorization",
			"thread_id", threadID,
			"user_id", principal.ID,
		)
		return false
	}

	return permits(principal, thread)
}

// permits is the pure membership decision: nil thread denies, otherwise
// farmer phone match, assigned staff match or the staff flag grants.
func permits(p user.Principal, t *store.Thread) bool {
	if t == nil {
		return false
	}

	if p.IsFarmer && p.Phone != "" && p.Phone == t.FarmerPhone {
		return true
	}

	if t.AssignedStaffID != 0 && t.AssignedStaffID == p.ID {
		return true
	}

	return p.IsStaff
}
