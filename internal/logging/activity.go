package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// AppendFile is an io.Writer that opens Path for append on every Write and
// closes it again, so the activity log can be rotated underneath a running
// daemon without a restart.
type AppendFile struct {
	Path string

	mu sync.Mutex
}

func (a *AppendFile) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return 0, fmt.Errorf("create activity log dir: %w", err)
	}
	f, err := os.OpenFile(a.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open activity log: %w", err)
	}
	n, err := f.Write(p)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	return n, err
}
