package identity

import "fmt"

// Owner identifies who a cart's lines belong to: an authenticated user or
// an anonymous browser session. Exactly one side is ever populated; the
// zero Owner is invalid and rejected by every store operation.
type Owner struct {
	userID       uint64
	sessionToken string
	isUser       bool
}

// OwnerForUser builds an owner for an authenticated user id.
func OwnerForUser(userID uint64) Owner {
	return Owner{userID: userID, isUser: true}
}

// OwnerForSession builds an owner for an anonymous session token.
func OwnerForSession(token string) Owner {
	return Owner{sessionToken: token}
}

// IsUser reports whether the owner is an authenticated user.
func (o Owner) IsUser() bool {
	return o.isUser
}

// IsZero reports whether the owner carries neither identity.
func (o Owner) IsZero() bool {
	return !o.isUser && o.sessionToken == ""
}

// UserID returns the user id; valid only when IsUser is true.
func (o Owner) UserID() uint64 {
	return o.userID
}

// SessionToken returns the session token; valid only when IsUser is false.
func (o Owner) SessionToken() string {
	return o.sessionToken
}

// String renders a log-safe identifier for the owner.
func (o Owner) String() string {
	if o.isUser {
		return fmt.Sprintf("user:%d", o.userID)
	}
	if o.sessionToken == "" {
		return "none"
	}
	return "session:" + o.sessionToken
}
