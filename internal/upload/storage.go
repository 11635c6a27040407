// AngelaMos | 2026
// storage.go

package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var ErrTooLarge = errors.New("file too large")

// Storage writes uploaded assets under one directory and serves them back.
type Storage struct {
	dir      string
	maxBytes int64
}

func NewStorage(dir string, maxBytes int64) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Storage{dir: dir, maxBytes: maxBytes}, nil
}

func (s *Storage) MaxBytes() int64 {
	return s.maxBytes
}

// Save streams src to name and returns the byte count. Content beyond
// maxBytes aborts the write and removes the partial file.
func (s *Storage) Save(name string, src io.Reader) (int64, error) {
	path, err := s.path(name)
	if err != nil {
		return 0, err
	}

	//nolint:gosec // G304: path is confined to the upload dir by s.path
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return 0, fmt.Errorf("create asset: %w", err)
	}

	n, copyErr := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	closeErr := dst.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(path) //nolint:errcheck // already failing
		return 0, fmt.Errorf("write asset: %w", copyErr)
	case n > s.maxBytes:
		_ = os.Remove(path) //nolint:errcheck // already failing
		return 0, ErrTooLarge
	case closeErr != nil:
		_ = os.Remove(path) //nolint:errcheck // already failing
		return 0, fmt.Errorf("close asset: %w", closeErr)
	}

	return n, nil
}

func (s *Storage) Remove(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove asset: %w", err)
	}
	return nil
}

func (s *Storage) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid asset name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Handler serves stored assets. Directory listings are not exposed.
func (s *Storage) Handler(prefix string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(s.dir)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
