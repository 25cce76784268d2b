package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"social/internal/uploads"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if !uploads.ValidName(name) {
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	}
	rc, err := s.uploads.Open(r.Context(), name)
	switch {
	case errors.Is(err, uploads.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, uploads.ErrInvalidName):
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	case err != nil:
		s.internalError(w, "open upload", err)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, time.Time{}, rs)
		return
	}
	io.Copy(w, rc)
}
