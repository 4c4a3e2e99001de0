package store

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates no value exists at the requested path.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable indicates a transport-level failure talking to the
	// backing store. The value at the path is unchanged.
	ErrUnavailable = errors.New("store unavailable")
)

// Store is the real-time keyed store the session protocol runs on. Paths
// are "/"-joined and case-sensitive, e.g. "sessions/AB12CD34/phase". There
// are no transactions and no compare-and-set: every Put is an unconditional
// last-write-wins point write.
//
// The first two path segments identify a document ("sessions/{id}"); Watch
// observes all writes under one document.
type Store interface {
	// Put writes value at path, creating it if absent.
	Put(ctx context.Context, path string, value []byte) error

	// Get reads the value at exactly path, or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// Snapshot returns every entry at or under prefix, keyed by full path.
	// An empty map means nothing exists there.
	Snapshot(ctx context.Context, prefix string) (map[string][]byte, error)

	// Delete removes every entry at or under prefix. Deleting a missing
	// prefix is not an error.
	Delete(ctx context.Context, prefix string) error

	// Watch registers onChange to run after every write or delete under
	// path's document. The returned cancel stops further deliveries; no
	// callback begins after cancel returns.
	Watch(ctx context.Context, path string, onChange func()) (cancel func(), err error)
}

// DocRoot returns the document identity of a path: its first two segments.
func DocRoot(path string) string {
	parts := strings.SplitN(path, "/", 3)
	if len(parts) < 2 {
		return path
	}
	return parts[0] + "/" + parts[1]
}

// under reports whether path is prefix itself or nested beneath it.
func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
