package server

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"social/internal/auth"
	"social/internal/metrics"
	"social/internal/models"
)

var validUsername = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// handleIndex serves the login and registration forms. Landing here always
// ends the visitor's session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.End(r.Context(), w, r); err != nil {
		log.Printf("end session: %v", err)
	}
	if r.Method == http.MethodPost {
		switch r.PostFormValue("form") {
		case "login":
			s.login(w, r)
			return
		case "register":
			s.register(w, r)
			return
		}
	}
	s.render(w, r, "index", auth.Identity{}, map[string]any{"Title": "Welcome"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		s.warn(w, r, "Username and password are required!")
		s.redirect(w, r, "/index")
		return
	}
	user, err := models.GetUserByUsername(r.Context(), s.DB, username)
	if errors.Is(err, models.ErrNotFound) {
		s.metrics.Event(metrics.LoginFailed)
		s.warn(w, r, "Sorry, this user does not exist!")
		s.redirect(w, r, "/index")
		return
	}
	if err != nil {
		s.internalError(w, "lookup user", err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.metrics.Event(metrics.LoginFailed)
		s.warn(w, r, "Sorry, wrong password!")
		s.redirect(w, r, "/index")
		return
	}
	if err := s.sessions.Start(r.Context(), w, user.ID); err != nil {
		s.internalError(w, "start session", err)
		return
	}
	s.metrics.Event(metrics.LoginSucceeded)
	s.redirect(w, r, userPath("stream", user.Username))
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	defer s.redirect(w, r, "/index")

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirm_password")
	if username == "" || password == "" {
		s.warn(w, r, "Username and password are required!")
		return
	}
	if !validUsername.MatchString(username) {
		s.warn(w, r, "Usernames may only contain letters, digits, '.', '_' and '-'!")
		return
	}
	if confirm != "" && confirm != password {
		s.warn(w, r, "Passwords do not match!")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		s.warn(w, r, "Password is too long!")
		return
	}
	if err != nil {
		log.Printf("hash password: %v", err)
		s.warn(w, r, "Could not create user, please try again.")
		return
	}
	_, err = models.CreateUser(r.Context(), s.DB, models.NewUser{
		Username:     username,
		FirstName:    strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:     strings.TrimSpace(r.PostFormValue("last_name")),
		PasswordHash: string(hash),
	})
	switch {
	case errors.Is(err, models.ErrDuplicateUsername):
		s.metrics.Event(metrics.RegisterRefused)
		s.warn(w, r, "Username is taken!")
	case err != nil:
		log.Printf("create user: %v", err)
		s.warn(w, r, "Could not create user, please try again.")
	default:
		s.metrics.Event(metrics.UserRegistered)
		s.success(w, r, "User successfully created!")
	}
}
