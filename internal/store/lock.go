package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

var ErrImportInProgress = errors.New("another import is in progress")

// ImportLock serialises batch imports, both within this process and
// across engine processes sharing a data dir.
type ImportLock struct {
	mu sync.Mutex
	fl *flock.Flock
}

func NewImportLock(dataDir string) *ImportLock {
	return &ImportLock{fl: flock.New(filepath.Join(dataDir, "import.lock"))}
}

// TryAcquire returns a release func, or ErrImportInProgress when held elsewhere.
func (l *ImportLock) TryAcquire() (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrImportInProgress
	}
	ok, err := l.fl.TryLock()
	if err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("import lock: %w", err)
	}
	if !ok {
		l.mu.Unlock()
		return nil, ErrImportInProgress
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			_ = l.fl.Unlock()
			l.mu.Unlock()
		})
	}, nil
}
