package session

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social/internal/db"
	"social/internal/models"
)

func newStore(t *testing.T) (*Store, *sql.DB, int64) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	id, err := models.CreateUser(context.Background(), database, models.NewUser{Username: "alice", PasswordHash: "x"})
	require.NoError(t, err)
	return NewStore(database, "session_id", time.Hour), database, id
}

func requestWith(cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestStartAndIdentity(t *testing.T) {
	store, _, id := newStore(t)

	w := httptest.NewRecorder()
	require.NoError(t, store.Start(context.Background(), w, id))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_id", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	ident, err := store.Identity(requestWith(cookies))
	require.NoError(t, err)
	assert.Equal(t, id, ident.UserID)
	assert.Equal(t, "alice", ident.Username)
}

func TestIdentityAnonymous(t *testing.T) {
	store, _, _ := newStore(t)

	ident, err := store.Identity(requestWith(nil))
	require.NoError(t, err)
	assert.True(t, ident.Anonymous())

	ident, err = store.Identity(requestWith([]*http.Cookie{{Name: "session_id", Value: "forged"}}))
	require.NoError(t, err)
	assert.True(t, ident.Anonymous())
}

func TestEndRevokes(t *testing.T) {
	store, _, id := newStore(t)
	w := httptest.NewRecorder()
	require.NoError(t, store.Start(context.Background(), w, id))
	cookies := w.Result().Cookies()

	w = httptest.NewRecorder()
	require.NoError(t, store.End(context.Background(), w, requestWith(cookies)))
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Less(t, cleared[0].MaxAge, 0)

	ident, err := store.Identity(requestWith(cookies))
	require.NoError(t, err)
	assert.True(t, ident.Anonymous())
}

func TestExpiredSession(t *testing.T) {
	store, _, id := newStore(t)
	w := httptest.NewRecorder()
	require.NoError(t, store.Start(context.Background(), w, id))
	cookies := w.Result().Cookies()

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	ident, err := store.Identity(requestWith(cookies))
	require.NoError(t, err)
	assert.True(t, ident.Anonymous())
}

func TestFlashRoundTrip(t *testing.T) {
	w := httptest.NewRecorder()
	AddFlash(w, requestWith(nil), Warning, "Username is taken!")
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	w = httptest.NewRecorder()
	AddFlash(w, requestWith(cookies), Success, "second")
	cookies = w.Result().Cookies()

	w = httptest.NewRecorder()
	flashes := PopFlashes(w, requestWith(cookies))
	assert.Equal(t, []Flash{{Warning, "Username is taken!"}, {Success, "second"}}, flashes)
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestAddFlashKeepsNewest(t *testing.T) {
	var cookies []*http.Cookie
	for i := 0; i < maxFlashes+3; i++ {
		w := httptest.NewRecorder()
		AddFlash(w, requestWith(cookies), Warning, fmt.Sprintf("msg %d", i))
		cookies = w.Result().Cookies()
	}

	flashes := PopFlashes(httptest.NewRecorder(), requestWith(cookies))
	require.Len(t, flashes, maxFlashes)
	assert.Equal(t, "msg 3", flashes[0].Message)
	assert.Equal(t, fmt.Sprintf("msg %d", maxFlashes+2), flashes[maxFlashes-1].Message)
}

func TestPopFlashesIgnoresGarbage(t *testing.T) {
	w := httptest.NewRecorder()
	flashes := PopFlashes(w, requestWith([]*http.Cookie{{Name: flashCookie, Value: "%%%"}}))
	assert.Empty(t, flashes)
}
