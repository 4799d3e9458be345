// Package storage keeps uploaded images on the local filesystem. Objects are
// addressed by slash-separated keys ("<slug>/products/<file>") and served by
// the router under /uploads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrInvalidKey is returned for keys that would escape the storage root.
var ErrInvalidKey = errors.New("storage: invalid key")

// LocalStore writes objects under root and builds public URLs from baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory served as static files.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// NewKey builds a unique key under prefix keeping the extension of filename
// (or deriving one from contentType).
func NewKey(prefix, filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return strings.TrimRight(prefix, "/") + "/" + uuid.NewString() + ext
}

// Put stores r under key and returns its public URL.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: create: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("storage: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("storage: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("storage: commit: %w", err)
	}

	log.Debug().Str("key", key).Str("content_type", contentType).Msg("storage: object stored")
	return s.URL(key), nil
}

// URL is the public address of key.
func (s *LocalStore) URL(key string) string { return s.baseURL + "/" + strings.TrimLeft(key, "/") }

// KeyFromURL inverts URL; ok is false for URLs this store did not issue.
func (s *LocalStore) KeyFromURL(u string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(u, prefix) {
		return "", false
	}
	return strings.TrimPrefix(u, prefix), true
}

// Delete removes one object. A missing object is not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// ListByPrefix returns every key below prefix.
func (s *LocalStore) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	dir, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}
	var keys []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", prefix, err)
	}
	return keys, nil
}

// DeleteMany removes keys and then prunes empty directories left behind.
// It keeps going after a failure and returns the first error.
func (s *LocalStore) DeleteMany(ctx context.Context, keys []string) error {
	var first error
	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil && first == nil {
			first = err
		}
	}
	for _, k := range keys {
		s.pruneDirs(path.Dir(k))
	}
	return first
}

func (s *LocalStore) pruneDirs(dirKey string) {
	for dirKey != "." && dirKey != "/" && dirKey != "" {
		p, err := s.resolve(dirKey)
		if err != nil || os.Remove(p) != nil {
			return
		}
		dirKey = path.Dir(dirKey)
	}
}
