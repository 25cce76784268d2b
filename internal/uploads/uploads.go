// Package uploads stores post images and hands them back by name.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"social/internal/config"
)

var (
	ErrNotFound    = errors.New("upload not found")
	ErrInvalidName = errors.New("invalid upload name")
)

type Store interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// FromConfig builds the backend selected by cfg.Backend.
func FromConfig(ctx context.Context, cfg config.Uploads) (Store, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		return NewLocalStore(cfg.Dir)
	case config.BackendS3:
		return NewS3Store(ctx, cfg.S3)
	}
	return nil, fmt.Errorf("unknown uploads backend %q", cfg.Backend)
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// SanitizeFilename reduces a client supplied name to a single path element:
// directories are dropped, quotes, slashes and dots are stripped from the
// stem and spaces become underscores. Only the extension keeps its dot.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = name[strings.LastIndex(name, "/")+1:]
	ext := filepath.Ext(name)
	stem := strip(strings.TrimSuffix(name, ext))
	ext = strip(ext)
	if stem == "" {
		stem = "upload"
	}
	if ext == "" {
		return stem
	}
	return stem + "." + strings.ToLower(ext)
}

func strip(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', '/', '\\', '.', 0:
			return -1
		case ' ':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
}

// UniqueName sanitizes name and prefixes a random token so two uploads with
// the same name do not overwrite each other.
func UniqueName(name string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return token + "_" + SanitizeFilename(name)
}

// ValidName reports whether name can be served: one path element, no
// traversal and no hidden files.
func ValidName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}
