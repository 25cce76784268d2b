package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCounters(t *testing.T) {
	m := New()
	m.Event(PostCreated)
	m.Event(PostCreated)
	m.Denied("not_logged_in")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsTotal.WithLabelValues(PostCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deniedTotal.WithLabelValues("not_logged_in")))
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "GET /stream/{username}", 200, 5*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "GET /stream/{username}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.Event(UserRegistered)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), `social_events_total{event="user_registered"} 1`)
}

func TestNewIsolatedRegistries(t *testing.T) {
	a, b := New(), New()
	a.Event(FriendAdded)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.eventsTotal.WithLabelValues(FriendAdded)))
}
