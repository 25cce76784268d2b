package server

import (
	"errors"
	"net/http"
	"strings"

	"social/internal/auth"
	"social/internal/metrics"
	"social/internal/models"
)

func (s *Server) handleFriends(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	user, _, ok := s.target(w, r, id, false)
	if !ok {
		return
	}
	if r.Method == http.MethodPost {
		s.addFriend(w, r, user)
		return
	}
	friends, err := models.ListFriends(r.Context(), s.DB, user.ID)
	if err != nil {
		s.internalError(w, "list friends", err)
		return
	}
	s.render(w, r, "friends", id, map[string]any{
		"Title":    "Friends",
		"Username": user.Username,
		"Friends":  friends,
	})
}

func (s *Server) addFriend(w http.ResponseWriter, r *http.Request, user *models.User) {
	ctx := r.Context()
	friend, err := models.GetUserByUsername(ctx, s.DB, strings.TrimSpace(r.PostFormValue("username")))
	if errors.Is(err, models.ErrNotFound) {
		s.warn(w, r, "User does not exist!")
		s.redirect(w, r, r.URL.Path)
		return
	}
	if err != nil {
		s.internalError(w, "lookup friend", err)
		return
	}

	switch err := models.AddFriend(ctx, s.DB, user.ID, friend.ID); {
	case errors.Is(err, models.ErrSelfFriend):
		s.warn(w, r, "You cannot be friends with yourself!")
	case errors.Is(err, models.ErrDuplicateFriend):
		s.warn(w, r, "You are already friends with this user!")
	case err != nil:
		s.internalError(w, "add friend", err)
		return
	default:
		s.metrics.Event(metrics.FriendAdded)
		s.success(w, r, "Friend successfully added!")
	}
	s.redirect(w, r, r.URL.Path)
}
