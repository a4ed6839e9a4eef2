// Package objstore archives pipeline artifacts on the local filesystem
// under stable content keys.
package objstore

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Store writes artifacts below a root directory. Keys follow the
// {category}/{ticker}/{identifier} convention, e.g.
// parsed/CAT/3a7bd3.json or runs/docpipe/run-42.json.
type Store struct {
	root string
}

// New creates a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, eris.New("objstore: root directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "objstore: create root %s", dir)
	}
	return &Store{root: dir}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Path resolves a key to its absolute location, rejecting keys that
// would escape the root.
func (s *Store) Path(key string) (string, error) {
	if key == "" {
		return "", eris.New("objstore: empty key")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", eris.Errorf("objstore: key %q escapes root", key)
	}
	return filepath.Join(s.root, cleaned), nil
}

// Upload copies a local file into the store and returns the stored key.
func (s *Store) Upload(localPath, key string) (string, error) {
	dst, err := s.Path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", eris.Wrapf(err, "objstore: create dir for %s", key)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", eris.Wrapf(err, "objstore: open %s", localPath)
	}
	defer src.Close() //nolint:errcheck

	out, err := os.Create(dst)
	if err != nil {
		return "", eris.Wrapf(err, "objstore: create %s", dst)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", eris.Wrapf(err, "objstore: copy to %s", key)
	}
	if err := out.Close(); err != nil {
		return "", eris.Wrapf(err, "objstore: close %s", key)
	}

	zap.L().Debug("artifact uploaded", zap.String("key", key))
	return key, nil
}

// UploadJSON marshals v and stores it under key, returning the key.
func (s *Store) UploadJSON(v any, key string) (string, error) {
	dst, err := s.Path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", eris.Wrapf(err, "objstore: create dir for %s", key)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", eris.Wrapf(err, "objstore: marshal %s", key)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "objstore: write %s", key)
	}

	zap.L().Debug("artifact uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return key, nil
}

// GetJSON reads the artifact at key into v.
func (s *Store) GetJSON(key string, v any) error {
	src, err := s.Path(key)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return eris.Wrapf(err, "objstore: read %s", key)
	}
	return eris.Wrapf(json.Unmarshal(data, v), "objstore: unmarshal %s", key)
}

// List returns the keys under prefix, in lexical walk order.
func (s *Store) List(prefix string) ([]string, error) {
	start, err := s.Path(prefix)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(start); os.IsNotExist(err) {
		return nil, nil
	}

	var keys []string
	err = filepath.WalkDir(start, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "objstore: list %s", prefix)
	}
	return keys, nil
}
