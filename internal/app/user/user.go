/*
Package user defines the authenticated identity attached to a chat
connection and the directory used to resolve it.
*/
package user

import "context"

// Principal is the authenticated identity for one connection. It is built
// once during token verification and never mutated afterwards.
type Principal struct {
	// ID is the numeric user identifier.
	ID int64 `json:"id"`

	// Name is the display name.
	Name string `json:"name,omitempty"`

	// Phone is the registered phone number, used to match a farmer against
	// the conversation they opened.
	Phone string `json:"phone,omitempty"`

	// IsFarmer marks accounts registered through the farmer app.
	IsFarmer bool `json:"is_farmer,omitempty"`

	// IsStaff marks privileged government/extension staff accounts.
	IsStaff bool `json:"is_staff,omitempty"`

	// Anonymous is set only for the credential-free diagnostic endpoint.
	Anonymous bool `json:"-"`
}

// Anonymous returns the principal used by the diagnostic WebSocket target,
// which bypasses token verification.
func Anonymous() Principal {
	return Principal{Anonymous: true}
}

// Directory resolves user identities from external storage.
// A nil Principal with a nil error means the user does not exist.
type Directory interface {
	FindUserByID(ctx context.Context, id int64) (*Principal, error)
}
