// Package auth decides whether a request may act on a user's pages.
package auth

import "social/internal/models"

type Decision int

const (
	OK Decision = iota
	UserNotFound
	NotLoggedIn
	IdentityMismatch
)

// Identity is the user a request is authenticated as. The zero value is
// anonymous.
type Identity struct {
	UserID   int64
	Username string
}

func (i Identity) Anonymous() bool { return i.UserID == 0 }

// Check compares the looked-up target (nil when no row matched) with the
// request identity. It never has side effects.
func Check(target *models.User, id Identity) Decision {
	switch {
	case target == nil:
		return UserNotFound
	case id.Anonymous():
		return NotLoggedIn
	case id.UserID != target.ID:
		return IdentityMismatch
	default:
		return OK
	}
}

// Flash is the warning shown to the user for a denied decision.
func (d Decision) Flash() string {
	switch d {
	case UserNotFound:
		return "User not found"
	case NotLoggedIn:
		return "Oh naughty, naughty, you have to log in"
	case IdentityMismatch:
		return "Don't mess with other users!"
	}
	return ""
}

func (d Decision) String() string {
	switch d {
	case OK:
		return "ok"
	case UserNotFound:
		return "user_not_found"
	case NotLoggedIn:
		return "not_logged_in"
	case IdentityMismatch:
		return "identity_mismatch"
	}
	return "unknown"
}
