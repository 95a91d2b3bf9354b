// Package id generates ULID run identifiers. ULIDs sort lexicographically
// by creation time, so sync_runs can order attempts by run_id alone.
package id

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu sync.Mutex
	// ulid.Monotonic keeps IDs generated within the same millisecond
	// strictly increasing.
	entropy io.Reader = ulid.Monotonic(rand.Reader, 0)
)

// New returns a fresh ULID string.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String()
}
