// AngelaMos | 2026
// file.go

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/metrics"
)

const fileBackend = "file"

// FileStore keeps each collection in <dir>/<collection>.json. Modify cycles
// are serialized per collection within this process only; another process
// writing the same directory can still lose updates.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *FileStore) Load(ctx context.Context, collection string) ([]byte, error) {
	unlock, err := s.lock(collection)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := s.read(collection)
	metrics.ObserveStore(fileBackend, "load", err)
	return data, err
}

func (s *FileStore) Save(
	ctx context.Context,
	collection string,
	data []byte,
) error {
	unlock, err := s.lock(collection)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.write(collection, data)
	metrics.ObserveStore(fileBackend, "save", err)
	return err
}

func (s *FileStore) Modify(
	ctx context.Context,
	collection string,
	fn func(current []byte) ([]byte, error),
) error {
	unlock, err := s.lock(collection)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.modify(collection, fn)
	metrics.ObserveStore(fileBackend, "modify", err)
	return err
}

func (s *FileStore) modify(
	collection string,
	fn func(current []byte) ([]byte, error),
) error {
	current, err := s.read(collection)
	if err != nil {
		return err
	}

	next, err := fn(current)
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.write(collection, next)
}

func (s *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", s.dir)
	}

	marker, err := os.CreateTemp(s.dir, ".ping-*")
	if err != nil {
		return fmt.Errorf("data dir not writable: %w", err)
	}
	name := marker.Name()
	_ = marker.Close() //nolint:errcheck // marker file is removed next
	return os.Remove(name)
}

func (s *FileStore) lock(collection string) (func(), error) {
	if err := validateName(collection); err != nil {
		return nil, err
	}

	s.mu.Lock()
	m, ok := s.locks[collection]
	if !ok {
		m = &sync.Mutex{}
		s.locks[collection] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// read must be called with the collection lock held.
func (s *FileStore) read(collection string) ([]byte, error) {
	data, err := os.ReadFile(s.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.write(collection, emptyCollection); err != nil {
			return nil, fmt.Errorf("initialize %s: %w", collection, err)
		}
		return append([]byte(nil), emptyCollection...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	return data, nil
}

// write replaces the collection file through a temp file and rename so a
// reader never observes a partial write.
func (s *FileStore) write(collection string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, collection+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()        //nolint:errcheck // already failing
		_ = os.Remove(tmpName) //nolint:errcheck // already failing
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", collection, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // already failing
		return fmt.Errorf("close %s: %w", collection, err)
	}

	if err := os.Rename(tmpName, s.path(collection)); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // already failing
		return fmt.Errorf("replace %s: %w", collection, err)
	}
	return nil
}
