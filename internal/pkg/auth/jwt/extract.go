package jwt

import (
	"net/http"
	"strings"
)

// minimum length treated as a bare token when the subprotocol header does
// not use the "Bearer " prefix. Signed tokens are always far longer than
// ordinary subprotocol names.
const minBareTokenLength = 50

// ExtractWebSocketToken pulls the bearer credential from a WebSocket upgrade
// request. The Sec-WebSocket-Protocol header is checked first ("Bearer
// <token>", or the whole value when it is long enough to be a raw token),
// then the "token" query parameter. Not every client stack can set custom
// headers during the upgrade, so both transports are accepted.
func ExtractWebSocketToken(r *http.Request) (token string, source string) {
	proto := r.Header.Get("Sec-WebSocket-Protocol")
	if proto != "" {
		if after, ok := strings.CutPrefix(proto, "Bearer "); ok {
			return after, "subprotocol"
		}
		if len(proto) >= minBareTokenLength {
			return proto, "subprotocol_direct"
		}
	}

	if t := r.URL.Query().Get("token"); t != "" {
		return t, "query_string"
	}

	return "", ""
}
