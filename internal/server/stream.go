package server

import (
	"errors"
	"net/http"
	"strings"

	"social/internal/auth"
	"social/internal/metrics"
	"social/internal/models"
	"social/internal/uploads"
)

// multipart parts beyond this stay on disk while parsing
const formMemory = 1 << 20

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	user, _, ok := s.target(w, r, id, false)
	if !ok {
		return
	}
	if r.Method == http.MethodPost {
		s.createPost(w, r, user)
		return
	}
	posts, err := models.ListStream(r.Context(), s.DB, user.ID)
	if err != nil {
		s.internalError(w, "list stream", err)
		return
	}
	s.render(w, r, "stream", id, map[string]any{
		"Title":    "Stream",
		"Username": user.Username,
		"Posts":    posts,
	})
}

// createPost stores the optional image before inserting the post. If the
// insert fails the file stays behind; nothing references it.
func (s *Server) createPost(w http.ResponseWriter, r *http.Request, user *models.User) {
	back := userPath("stream", user.Username)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(formMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.warn(w, r, "The image is too large!")
			s.redirect(w, r, back)
			return
		}
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	content := strings.TrimSpace(r.PostFormValue("content"))
	if content == "" {
		s.warn(w, r, "Post content cannot be empty!")
		s.redirect(w, r, back)
		return
	}

	var image string
	if r.MultipartForm != nil && len(r.MultipartForm.File["image"]) > 0 {
		fh := r.MultipartForm.File["image"][0]
		if !uploads.IsImage(fh.Filename) {
			s.warn(w, r, "Only image uploads are allowed!")
			s.redirect(w, r, back)
			return
		}
		f, err := fh.Open()
		if err != nil {
			s.internalError(w, "open upload", err)
			return
		}
		defer f.Close()
		image = uploads.UniqueName(fh.Filename)
		if err := s.uploads.Save(r.Context(), image, f); err != nil {
			s.internalError(w, "save upload", err)
			return
		}
		s.metrics.Event(metrics.UploadStored)
	}

	if _, err := models.CreatePost(r.Context(), s.DB, user.ID, content, image); err != nil {
		s.internalError(w, "create post", err)
		return
	}
	s.metrics.Event(metrics.PostCreated)
	s.redirect(w, r, back)
}
