package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	ps "github.com/mitchellh/go-ps"
)

// Lockfile timing.
const (
	lockMaxRetries = 10
	lockRetryDelay = 100 * time.Millisecond
	staleLockAge   = 30 * time.Second
)

// findProcessFunc is swapped in tests.
var findProcessFunc = ps.FindProcess

// acquireFileLock takes a cross-process advisory lock next to path and returns
// the function that releases it.
func acquireFileLock(path string) (func(), error) {
	lockPath := path + ".lock"

	if err := os.MkdirAll(filepath.Dir(lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	for range lockMaxRetries {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d", os.Getpid())
			_ = f.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}

		if removeStaleLock(lockPath, staleLockAge) {
			continue
		}
		time.Sleep(lockRetryDelay)
	}

	return nil, fmt.Errorf("could not acquire lock on %s after retries", lockPath)
}

// lockOwner is what is known about the process named in a lock file.
type lockOwner int

const (
	ownerUnknown lockOwner = iota
	ownerAlive
	ownerDead
)

// removeStaleLock removes a lock whose owner is confirmed dead, or one older
// than maxAge whose owner cannot be shown alive, and reports whether it did.
func removeStaleLock(lockPath string, maxAge time.Duration) bool {
	info, statErr := os.Stat(lockPath)
	if statErr != nil {
		return false
	}
	switch lockOwnerOf(lockPath) {
	case ownerAlive:
		return false
	case ownerUnknown:
		if time.Since(info.ModTime()) <= maxAge {
			return false
		}
	case ownerDead:
	}
	_ = os.Remove(lockPath)
	return true
}

func lockOwnerOf(lockPath string) lockOwner {
	pidData, readErr := os.ReadFile(lockPath)
	if readErr != nil || len(pidData) == 0 {
		return ownerUnknown
	}
	var pid int
	if _, scanErr := fmt.Sscanf(string(pidData), "%d", &pid); scanErr != nil || pid <= 0 {
		return ownerUnknown
	}
	proc, err := findProcessFunc(pid)
	switch {
	case err != nil:
		return ownerUnknown
	case proc == nil:
		return ownerDead
	default:
		return ownerAlive
	}
}

// writeFileAtomic writes data to a temp file beside path and renames it over
// path.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
