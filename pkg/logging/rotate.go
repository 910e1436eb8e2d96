// Package logging holds the debug log sink used by telemetryctl --debug.
package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// DefaultMaxSize caps the debug log before it is moved aside.
const DefaultMaxSize = 1 << 20 // 1MB

// RotatingFile is an io.WriteCloser that keeps at most one previous log,
// renamed to "<path>.old", once the current file would exceed its size limit.
type RotatingFile struct {
	path    string
	maxSize int64

	mu   sync.Mutex
	file *os.File
	size int64
}

// NewRotatingFile opens (or creates) path for appending. maxSize <= 0 selects
// DefaultMaxSize.
func NewRotatingFile(path string, maxSize int64) (*RotatingFile, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	r := &RotatingFile{path: path, maxSize: maxSize}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RotatingFile) open() error {
	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}

	r.file = file
	r.size = info.Size()
	return nil
}

func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size > 0 && r.size+int64(len(p)) > r.maxSize {
		if err := r.file.Close(); err != nil {
			return 0, err
		}
		if err := os.Rename(r.path, r.path+".old"); err != nil && !os.IsNotExist(err) {
			return 0, err
		}
		if err := r.open(); err != nil {
			return 0, err
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// NewDebugLogger returns a debug-level text logger writing to w.
func NewDebugLogger(w *RotatingFile) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
