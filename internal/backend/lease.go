package backend

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// ErrLeaseHeld indicates another acquisition is already in flight for the
// same pack family.
var ErrLeaseHeld = errors.New("acquisition already in flight for this pack family")

// Lease is a machine-wide reservation on a pack family, backed by a file
// lock, so at most one acquisition per family runs at a time even across
// processes. It must be released exactly once per acquisition; Release is
// safe to call more than once.
type Lease struct {
	fl *flock.Flock

	mu   sync.Mutex
	held bool
}

// AcquireLease takes the lease for a family, failing fast with ErrLeaseHeld
// when it is unavailable.
func AcquireLease(dir, family string) (*Lease, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lease dir: %w", err)
	}

	fl := flock.New(filepath.Join(dir, family+".lease"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock lease for %s: %w", family, err)
	}
	if !ok {
		return nil, ErrLeaseHeld
	}

	return &Lease{fl: fl, held: true}, nil
}

// Release gives up the lease. Subsequent calls are no-ops.
func (l *Lease) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return nil
	}
	l.held = false
	return l.fl.Unlock()
}

// Held reports whether the lease is currently held.
func (l *Lease) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}
