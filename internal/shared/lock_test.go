package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLockDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	first, err := LockDir(dir)
	if err != nil {
		t.Fatalf("first lock failed: %v", err)
	}

	if _, err := os.Stat(first.Path()); err != nil {
		t.Fatalf("lock file should exist: %v", err)
	}

	if _, err := LockDir(dir); !errors.Is(err, ErrOutputLocked) {
		t.Errorf("expected ErrOutputLocked for second lock, got %v", err)
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}

	again, err := LockDir(dir)
	if err != nil {
		t.Fatalf("lock after unlock failed: %v", err)
	}
	defer again.Unlock()
}
