package jwt

import (
	"github.com/golang-jwt/jwt"
)

const (
	// ClaimUID is the primary user-identifier claim issued by this platform.
	ClaimUID = "uid"

	// ClaimUserID is the legacy claim name still emitted by older token
	// issuers. Checked only when "uid" is absent.
	ClaimUserID = "user_id"
)

// userIDFromClaims extracts the numeric user id from the token claims,
// preferring "uid" over the legacy "user_id". The second return value is
// false when neither claim carries a usable id.
func userIDFromClaims(claims jwt.MapClaims) (int64, bool) {
	for _, name := range []string{ClaimUID, ClaimUserID} {
		raw, ok := claims[name]
		if !ok {
			continue
		}

		switch v := raw.(type) {
		case float64:
			return int64(v), true
		case int64:
			return v, true
		}
	}

	return 0, false
}
