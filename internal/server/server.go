package server

import (
	"database/sql"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/crypto/bcrypt"

	"social/internal/auth"
	"social/internal/metrics"
	"social/internal/models"
	"social/internal/session"
	"social/internal/uploads"
)

type Config struct {
	TemplateDir    string
	CookieName     string
	SessionTTL     time.Duration
	BcryptCost     int
	MaxUploadBytes int64
}

type Server struct {
	DB *sql.DB

	sessions *session.Store
	uploads  uploads.Store
	metrics  *metrics.Metrics
	tmpl     map[string]*template.Template

	bcryptCost int
	maxUpload  int64

	handler http.Handler
}

func New(db *sql.DB, store uploads.Store, cfg Config) (*Server, error) {
	if cfg.CookieName == "" {
		cfg.CookieName = "session_id"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	templates, err := loadTemplates(cfg.TemplateDir)
	if err != nil {
		return nil, err
	}
	s := &Server{
		DB:         db,
		sessions:   session.NewStore(db, cfg.CookieName, cfg.SessionTTL),
		uploads:    store,
		metrics:    metrics.New(),
		tmpl:       templates,
		bcryptCost: cfg.BcryptCost,
		maxUpload:  cfg.MaxUploadBytes,
	}
	s.handler = s.instrument(s.routes())
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	for _, p := range []string{"/{$}", "/index"} {
		mux.HandleFunc("GET "+p, s.handleIndex)
		mux.HandleFunc("POST "+p, s.handleIndex)
	}
	for p, h := range map[string]identityHandler{
		"/stream/{username}":             s.handleStream,
		"/comments/{username}/{post_id}": s.handleComments,
		"/friends/{username}":            s.handleFriends,
		"/profile/{username}":            s.handleProfile,
	} {
		mux.HandleFunc("GET "+p, s.withIdentity(h))
		mux.HandleFunc("POST "+p, s.withIdentity(h))
	}
	mux.HandleFunc("GET /uploads/{filename}", s.handleUpload)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// instrument writes an access log line and request metrics. The route label
// is read after the mux has matched, so it carries the pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, elapsed)
		s.metrics.ObserveRequest(r.Method, r.Pattern, rec.status, elapsed)
	})
}

type identityHandler func(http.ResponseWriter, *http.Request, auth.Identity)

// middleware
func (s *Server) withIdentity(next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := s.sessions.Identity(r)
		if err != nil {
			s.internalError(w, "resolve session", err)
			return
		}
		next(w, r, id)
	}
}

// target loads the user named by the {username} path value and runs the
// authorization check. Denied requests are flashed and sent to the index;
// with allowMismatch the caller gets IdentityMismatch back to handle itself.
func (s *Server) target(w http.ResponseWriter, r *http.Request, id auth.Identity, allowMismatch bool) (*models.User, auth.Decision, bool) {
	user, err := models.GetUserByUsername(r.Context(), s.DB, r.PathValue("username"))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.internalError(w, "lookup user", err)
		return nil, 0, false
	}
	d := auth.Check(user, id)
	if d == auth.OK || (d == auth.IdentityMismatch && allowMismatch) {
		return user, d, true
	}
	s.metrics.Denied(d.String())
	s.warn(w, r, d.Flash())
	s.redirect(w, r, "/index")
	return nil, d, false
}

func (s *Server) warn(w http.ResponseWriter, r *http.Request, msg string) {
	session.AddFlash(w, r, session.Warning, msg)
}

func (s *Server) success(w http.ResponseWriter, r *http.Request, msg string) {
	session.AddFlash(w, r, session.Success, msg)
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s: %v", op, err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// helpers
func userPath(page, username string) string {
	return "/" + page + "/" + url.PathEscape(username)
}
