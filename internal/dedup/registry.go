// Package dedup provides the content-addressed registry that gates
// documents before chunking and persistence.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// Digest returns the hex SHA-256 of the UTF-8 bytes of text. It is
// computed over parsed, normalized text rather than raw payload bytes,
// so two filings with different markup but identical extracted text
// share a digest.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Registry is a durable set of content digests backed by a line-oriented
// file, one digest per line, sorted. The whole set is loaded at
// construction and rewritten on every new digest.
//
// A Registry is safe for concurrent use within one process. The backing
// file is owned exclusively by that process; running two processes
// against the same file is unsupported.
type Registry struct {
	mu   sync.Mutex
	path string
	seen map[string]struct{}
}

// NewRegistry loads the registry file at path, creating parent
// directories when the file does not exist yet.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: path, seen: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, eris.Wrapf(err, "dedup: read registry %s", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, eris.Wrap(err, "dedup: create registry dir")
		}
		return r, nil
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			r.seen[line] = struct{}{}
		}
	}
	return r, nil
}

// IsDuplicate reports whether digest has been seen before.
func (r *Registry) IsDuplicate(digest string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[digest]
	return ok
}

// MarkSeen records digest and persists the full set. Marking a digest
// that is already present is a no-op.
func (r *Registry) MarkSeen(digest string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[digest]; ok {
		return nil
	}
	r.seen[digest] = struct{}{}

	if err := r.flushLocked(); err != nil {
		delete(r.seen, digest)
		return err
	}
	return nil
}

// Size returns the number of recorded digests.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

// Digests returns all recorded digests in sorted order.
func (r *Registry) Digests() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked()
}

func (r *Registry) sortedLocked() []string {
	out := make([]string, 0, len(r.seen))
	for d := range r.seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) flushLocked() error {
	lines := r.sortedLocked()
	var sb strings.Builder
	for _, d := range lines {
		sb.WriteString(d)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(r.path, []byte(sb.String()), 0o644); err != nil {
		return eris.Wrapf(err, "dedup: write registry %s", r.path)
	}
	return nil
}
