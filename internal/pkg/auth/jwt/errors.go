package jwt

import "fmt"

// Reason classifies why token verification failed. The values travel to the
// client inside the details of the auth_failed error frame, so they are part
// of the wire contract.
type Reason string

const (
	// ReasonNoToken means no credential was present in the handshake.
	ReasonNoToken Reason = "no_token"

	// ReasonExpired means the token signature was valid but its time
	// validity has lapsed.
	ReasonExpired Reason = "token_expired"

	// ReasonInvalid means the token could not be decoded or its signature
	// did not verify.
	ReasonInvalid Reason = "invalid_token"

	// ReasonUnknownUser means the token was valid but the claimed user id
	// does not resolve in the directory.
	ReasonUnknownUser Reason = "unknown_user"

	// ReasonException means an unexpected fault occurred during lookup.
	ReasonException Reason = "exception"
)

// clientMessages maps each reason to the message shown to the client.
var clientMessages = map[Reason]string{
	ReasonNoToken:     "No token provided",
	ReasonExpired:     "Token has expired",
	ReasonInvalid:     "Invalid token",
	ReasonUnknownUser: "User not found",
	ReasonException:   "Server error during authentication",
}

// AuthError is a typed verification failure. It is terminal for the
// connection: the caller reports the reason to the client and closes.
type AuthError struct {
	Reason Reason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth failed (%s)", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ClientMessage returns the user-facing description for this failure.
func (e *AuthError) ClientMessage() string {
	if msg, ok := clientMessages[e.Reason]; ok {
		return msg
	}
	return clientMessages[ReasonException]
}

func newAuthError(reason Reason, err error) *AuthError {
	return &AuthError{Reason: reason, Err: err}
}
