/*
Package jwt implements bearer-token verification for WebSocket handshakes.

Tokens are HS256-signed with a shared secret. The user identifier may appear
under either of two claim names for backward compatibility; verification
resolves the claimed id through the user directory and returns a typed
failure reason on every error path so the session can report a precise
rejection to the client.
*/
package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt"

	"shambachat/internal/app/user"
)

const (
	// TokenIssuer identifies tokens minted by this server.
	TokenIssuer = "shambachat"

	// DefaultTokenLifetime is the validity window for issued tokens.
	DefaultTokenLifetime = 24 * time.Hour
)

// Verifier validates bearer tokens and resolves the authenticated principal.
type Verifier struct {
	secret []byte
	users  user.Directory
}

// NewVerifier constructs a Verifier signing-checked against secret and
// resolving identities through users.
func NewVerifier(secret string, users user.Directory) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		users:  users,
	}
}

// Verify decodes rawToken, extracts the user-identifier claim and resolves
// it through the directory. It is a pure check: storing the principal in
// connection state is the caller's job.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (user.Principal, *AuthError) {
	if rawToken == "" {
		return user.Principal{}, newAuthError(ReasonNoToken, nil)
	}

	claims := jwt.MapClaims{}

	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})

	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return user.Principal{}, newAuthError(ReasonExpired, err)
		}
		return user.Principal{}, newAuthError(ReasonInvalid, err)
	}

	if !token.Valid {
		return user.Principal{}, newAuthError(ReasonInvalid, errors.New("token not valid"))
	}

	userID, ok := userIDFromClaims(claims)
	if !ok {
		return user.Principal{}, newAuthError(ReasonInvalid, errors.New("no user identifier claim"))
	}

	principal, err := v.users.FindUserByID(ctx, userID)
	if err != nil {
		return user.Principal{}, newAuthError(ReasonException, err)
	}
	if principal == nil {
		return user.Principal{}, newAuthError(ReasonUnknownUser, nil)
	}

	return *principal, nil
}

// GenerateToken mints an HS256 token for userID, signed with secret. Used by
// operational tooling and tests.
func GenerateToken(userID int64, secret string, duration time.Duration) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		ClaimUID: userID,
		"iat":    now.Unix(),
		"exp":    now.Add(duration).Unix(),
		"iss":    TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secret))
}
