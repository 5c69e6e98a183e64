package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/docsearch/documenter-mcp/internal/config"
)

// indexLock is the inter-process lock guarding the on-disk index. The kernel
// drops a flock when its owner dies, so there are no stale locks to clean.
type indexLock struct {
	path      string
	timeout   time.Duration
	retryWait time.Duration
	log       *logrus.Entry

	fl *flock.Flock
}

func newIndexLock(path string, timeout, retryWait time.Duration, log *logrus.Entry) *indexLock {
	return &indexLock{
		path:      path,
		timeout:   timeout,
		retryWait: retryWait,
		log:       log,
		fl:        flock.New(path),
	}
}

// Held reports whether this process owns the lock
func (l *indexLock) Held() bool {
	return l.fl.Locked()
}

// Acquire waits up to the configured timeout for the lock
func (l *indexLock) Acquire(ctx context.Context) error {
	if l.fl.Locked() {
		l.log.Debug("Index lock already held by this process")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	startTime := time.Now()
	for {
		locked, err := l.fl.TryLock()
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", l.path, err)
		}
		if locked {
			l.log.WithField("pid", os.Getpid()).Info("Index lock acquired")
			return nil
		}

		elapsed := time.Since(startTime)
		if elapsed >= l.timeout {
			return fmt.Errorf("timeout waiting for index lock %s after %v", l.path, elapsed.Round(time.Millisecond))
		}

		l.log.WithField("elapsed", elapsed.Round(100*time.Millisecond)).Info("Index locked by another process, waiting...")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryWait):
		}
	}
}

// Release unlocks if held
func (l *indexLock) Release() error {
	if !l.fl.Locked() {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("failed to release index lock: %w", err)
	}
	l.log.Info("Index lock released")
	return nil
}

// LockDataDir takes the index lock of cfg.DataDir, for tools that write the
// server's index from outside the server
func LockDataDir(ctx context.Context, cfg *config.Config, log *logrus.Entry) (release func() error, err error) {
	lock := newIndexLock(filepath.Join(cfg.DataDir, lockFile), cfg.LockTimeout, cfg.LockRetryWait, log)
	if err := lock.Acquire(ctx); err != nil {
		return nil, err
	}
	return lock.Release, nil
}

// IndexDir is where the server keeps its full-text index
func IndexDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, indexDir)
}

// IndexVersionPath is the version file that goes with the index at dir
func IndexVersionPath(dir string) string {
	return filepath.Join(filepath.Dir(dir), filepath.Base(indexVersionFile))
}
