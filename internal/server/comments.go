package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"social/internal/auth"
	"social/internal/metrics"
	"social/internal/models"
)

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	user, _, ok := s.target(w, r, id, false)
	if !ok {
		return
	}
	postID, err := strconv.ParseInt(r.PathValue("post_id"), 10, 64)
	if err != nil || postID <= 0 {
		http.NotFound(w, r)
		return
	}
	post, err := models.GetPost(r.Context(), s.DB, postID)
	if errors.Is(err, models.ErrNotFound) {
		s.warn(w, r, "Post not found!")
		s.redirect(w, r, userPath("stream", user.Username))
		return
	}
	if err != nil {
		s.internalError(w, "get post", err)
		return
	}

	if r.Method == http.MethodPost {
		body := strings.TrimSpace(r.PostFormValue("comment"))
		if body == "" {
			s.warn(w, r, "Comment cannot be empty!")
		} else if _, err := models.CreateComment(r.Context(), s.DB, post.ID, user.ID, body); err != nil {
			s.internalError(w, "create comment", err)
			return
		} else {
			s.metrics.Event(metrics.CommentCreated)
		}
		s.redirect(w, r, r.URL.Path)
		return
	}

	comments, err := models.ListComments(r.Context(), s.DB, post.ID)
	if err != nil {
		s.internalError(w, "list comments", err)
		return
	}
	s.render(w, r, "comments", id, map[string]any{
		"Title":    "Comments",
		"Username": user.Username,
		"Post":     post,
		"Comments": comments,
	})
}
