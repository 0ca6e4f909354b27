package db

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Lock is an exclusive advisory lock on a file under the data directory.
type Lock struct {
	file *os.File
	path string
}

func openLockFile(dataDir, name string) (*os.File, string, error) {
	locksDir := filepath.Join(dataDir, "locks")
	if err := os.MkdirAll(locksDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create locks dir: %w", err)
	}
	lockPath := filepath.Join(locksDir, name+".lock")
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("open lock file: %w", err)
	}
	return file, lockPath, nil
}

// AcquireLock creates and locks <dataDir>/locks/<name>.lock, blocking until it is free.
func AcquireLock(dataDir, name string) (*Lock, error) {
	file, lockPath, err := openLockFile(dataDir, name)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("lock %s: %w", lockPath, err)
	}
	return &Lock{file: file, path: lockPath}, nil
}

// TryAcquireLock attempts to acquire the lock without blocking.
// ok is false when another process holds it.
func TryAcquireLock(dataDir, name string) (*Lock, bool, error) {
	file, lockPath, err := openLockFile(dataDir, name)
	if err != nil {
		return nil, false, err
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		return nil, false, nil
	}
	return &Lock{file: file, path: lockPath}, true, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release releases the lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}
