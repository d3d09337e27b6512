package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// outputFile is a document path guarded by an advisory lock so two podcats
// processes never write the same file.
type outputFile struct {
	path string
	lock *flock.Flock
}

func openOutput(path string) (*outputFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	lock := flock.New(abs + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", abs, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s is being written by another podcats process", abs)
	}

	return &outputFile{path: abs, lock: lock}, nil
}

func (o *outputFile) Path() string {
	return o.path
}

// Write replaces the file contents atomically.
func (o *outputFile) Write(data []byte) error {
	dir := filepath.Dir(o.path)
	tmp, err := os.CreateTemp(dir, ".podcats-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, o.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Close releases the lock and removes the lock file.
func (o *outputFile) Close() error {
	if err := o.lock.Unlock(); err != nil {
		return err
	}
	if err := os.Remove(o.lock.Path()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
