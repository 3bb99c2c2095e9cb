package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/shared"
)

// DefaultMissTTL is how long a cached negative lookup is trusted.
const DefaultMissTTL = 7 * 24 * time.Hour

// LookupCacheAdapter implements services.LookupCache using LookupRepository.
//
// Hits are kept until the cache is cleared. Misses (empty values) expire after missTTL
// so newly published lyrics and artwork are eventually picked up.
type LookupCacheAdapter struct {
	repo    *LookupRepository
	missTTL time.Duration
	now     func() time.Time
}

// NewLookupCacheAdapter creates a new LookupCacheAdapter with the given repository
func NewLookupCacheAdapter(repo *LookupRepository, missTTL time.Duration) *LookupCacheAdapter {
	if missTTL <= 0 {
		missTTL = DefaultMissTTL
	}
	return &LookupCacheAdapter{repo: repo, missTTL: missTTL, now: time.Now}
}

// Lookup returns the cached value for kind and key. ok is false when nothing usable is cached.
func (a *LookupCacheAdapter) Lookup(kind models.LookupKind, key string) (value string, ok bool, err error) {
	entry, err := a.repo.Find(kind, key)
	if errors.Is(err, shared.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if entry.Value() == "" && a.now().Sub(entry.UpdatedAt()) > a.missTTL {
		return "", false, nil
	}
	return entry.Value(), true, nil
}

// Store caches value for kind and key. An empty value records a miss.
func (a *LookupCacheAdapter) Store(kind models.LookupKind, key, value string) error {
	if err := a.repo.Create(models.NewLookupEntry(kind, key, value)); err != nil {
		return fmt.Errorf("failed to cache lookup: %w", err)
	}
	return nil
}
