package identity

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

const tokenRandomBytes = 16

// Resolve produces the canonical cart owner for a request. An
// authenticated user id always wins; otherwise the existing session token
// is reused, and only when neither is present is a fresh token minted.
// The second return value is non-empty exactly when a token was minted
// and must be persisted into the caller's session store.
func Resolve(userID *uint64, sessionToken string) (Owner, string) {
	if userID != nil {
		return OwnerForUser(*userID), ""
	}
	if sessionToken != "" {
		return OwnerForSession(sessionToken), ""
	}
	token := MintToken()
	return OwnerForSession(token), token
}

// MintToken generates an unguessable session token: a nanosecond
// timestamp component joined with 128 random bits, base64url encoded.
func MintToken() string {
	buf := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process has no entropy source;
		// there is no sane fallback for an unguessable token.
		panic(fmt.Sprintf("identity: reading random bytes: %v", err))
	}
	stamp := strconv.FormatInt(time.Now().UnixNano(), 36)
	return stamp + "." + base64.RawURLEncoding.EncodeToString(buf)
}
