package shared

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created in the output root while a run is writing into it.
const LockFileName = ".ytmd.lock"

// DirLock is an exclusive advisory lock on an output directory.
type DirLock struct {
	path string
	lock *flock.Flock
}

// LockDir creates dir when needed and takes its lock without blocking.
// It returns [ErrOutputLocked] when another process holds it.
func LockDir(dir string) (*DirLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, LockFileName)
	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, dir)
	}
	return &DirLock{path: path, lock: l}, nil
}

// Path returns the lock file path.
func (d *DirLock) Path() string { return d.path }

// Unlock releases the lock and removes the lock file.
func (d *DirLock) Unlock() error {
	if err := d.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	_ = os.Remove(d.path)
	return nil
}
