package media

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"

	"blogicum/internal/observability"

	"github.com/spf13/afero"
)

// LocalStore keeps media in a directory of an afero filesystem.
type LocalStore struct {
	fs      afero.Fs
	root    string
	baseURL string
}

func NewLocalStore(fsys afero.Fs, root, baseURL string) *LocalStore {
	if root == "" {
		root = "media"
	}
	return &LocalStore{fs: fsys, root: root, baseURL: baseURL}
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *LocalStore) Save(_ context.Context, key string, r io.Reader, size int64, _ string) error {
	p := s.path(key)
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	if err := afero.WriteReader(s.fs, p, r); err != nil {
		return err
	}
	observability.MediaBytes.WithLabelValues(s.Backend()).Add(float64(size))
	return nil
}

func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	f, err := s.fs.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	if info, statErr := f.Stat(); statErr == nil && info.IsDir() {
		_ = f.Close()
		return nil, "", ErrNotFound
	}
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return f, contentType, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	err := s.fs.Remove(s.path(key))
	if err != nil && (errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)) {
		return nil
	}
	return err
}

func (s *LocalStore) URL(key string) string {
	return joinURL(s.baseURL, key)
}

func (s *LocalStore) Backend() string {
	return "local"
}
