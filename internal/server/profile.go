package server

import (
	"net/http"
	"strings"

	"social/internal/auth"
	"social/internal/metrics"
	"social/internal/models"
)

// handleProfile lets any logged in user view a profile; only its owner may
// change it.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	user, decision, ok := s.target(w, r, id, true)
	if !ok {
		return
	}
	if r.Method == http.MethodPost {
		if decision == auth.IdentityMismatch {
			s.metrics.Denied(decision.String())
			s.warn(w, r, decision.Flash())
		} else if err := models.UpdateProfile(r.Context(), s.DB, user.ID, profileForm(r)); err != nil {
			s.internalError(w, "update profile", err)
			return
		} else {
			s.metrics.Event(metrics.ProfileUpdated)
			s.success(w, r, "Profile updated!")
		}
		s.redirect(w, r, userPath("profile", user.Username))
		return
	}
	s.render(w, r, "profile", id, map[string]any{
		"Title":    "Profile",
		"Username": user.Username,
		"User":     user,
		"Editable": decision == auth.OK,
	})
}

func profileForm(r *http.Request) models.Profile {
	field := func(name string) string { return strings.TrimSpace(r.PostFormValue(name)) }
	return models.Profile{
		Education:   field("education"),
		Employment:  field("employment"),
		Music:       field("music"),
		Movie:       field("movie"),
		Nationality: field("nationality"),
		Birthday:    field("birthday"),
	}
}
