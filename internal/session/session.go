// Package session keeps login sessions in the database behind a cookie and
// carries one-time flash messages across redirects.
package session

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"social/internal/auth"
	"social/internal/models"
)

type Store struct {
	DB         *sql.DB
	CookieName string
	TTL        time.Duration

	now func() time.Time
}

func NewStore(db *sql.DB, cookieName string, ttl time.Duration) *Store {
	return &Store{DB: db, CookieName: cookieName, TTL: ttl, now: time.Now}
}

// Start opens a new session for userID, revoking any earlier ones, and sets
// the session cookie.
func (s *Store) Start(ctx context.Context, w http.ResponseWriter, userID int64) error {
	sid := uuid.NewString()
	expires := s.now().Add(s.TTL)
	if err := models.CreateSession(ctx, s.DB, userID, sid, expires); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    sid,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Identity resolves the request's session cookie. Missing, unknown, revoked
// and expired sessions all yield the anonymous identity without error.
func (s *Store) Identity(r *http.Request) (auth.Identity, error) {
	cookie, err := r.Cookie(s.CookieName)
	if err != nil || cookie.Value == "" {
		return auth.Identity{}, nil
	}
	ctx := r.Context()
	sess, err := models.GetSession(ctx, s.DB, cookie.Value)
	if errors.Is(err, models.ErrNotFound) {
		return auth.Identity{}, nil
	}
	if err != nil {
		return auth.Identity{}, err
	}
	if sess.RevokedAt != nil || !sess.ExpiresAt.After(s.now()) {
		return auth.Identity{}, nil
	}
	u, err := models.GetUserByID(ctx, s.DB, sess.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return auth.Identity{}, nil
	}
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{UserID: u.ID, Username: u.Username}, nil
}

// End revokes the request's session, if any, and clears the cookie.
func (s *Store) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(s.CookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: s.CookieName, Path: "/", MaxAge: -1, HttpOnly: true})
	return models.RevokeSession(ctx, s.DB, cookie.Value)
}
