package loadorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writePluginFile creates an empty file named name under dir and sets its
// modification time, for tests exercising a directory scan.
func writePluginFile(t *testing.T, dir, name string, mtime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("setting mtime on %s: %v", path, err)
	}
}
