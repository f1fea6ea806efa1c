package loadorder

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mod-troubleshooter/loadorder/internal/identity"
)

// timestampEpoch is the fixed base time plugin mtimes are spaced out
// from on save, per spec.md §4.7's "spaced at 60-second intervals from
// a chosen epoch to preserve relative order".
var timestampEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// timestampStrategy implements the Morrowind/Oblivion/Fallout 3/New
// Vegas load order: ordering comes purely from file modification time,
// with activation tracked in a separate plugins.txt.
type timestampStrategy struct{}

func (s *timestampStrategy) Load(ctx context.Context, c *Core) error {
	entries, err := c.reconcile(ctx, nil) // timestamp order is scan order; no persisted list
	if err != nil {
		return err
	}

	activeNames, err := readPluginList(c.Paths.ActivePluginsFile)
	if err != nil {
		return err
	}
	active := make(map[string]bool, len(activeNames))
	for _, n := range activeNames {
		active[identity.Key(n)] = true
	}
	for i := range entries {
		if active[identity.Key(entries[i].Name)] {
			entries[i].Active = true
		}
	}

	c.entries = entries
	return nil
}

func (s *timestampStrategy) Save(ctx context.Context, c *Core) error {
	for i, e := range c.entries {
		t := timestampEpoch.Add(time.Duration(i) * 60 * time.Second)
		path := filepath.Join(c.Paths.PluginsDirectory, e.Name)
		if e.Ghosted {
			path += ".ghost"
		}
		if err := os.Chtimes(path, t, t); err != nil {
			return err
		}
		c.entries[i].ModTime = t
	}
	return writePluginList(c.Paths.ActivePluginsFile, c.ActivePlugins())
}

func (s *timestampStrategy) InsertPosition(c *Core, candidate Entry) int {
	if candidate.IsMaster {
		for i, e := range c.entries {
			if !e.IsMaster {
				return i
			}
		}
		return len(c.entries)
	}
	for i, e := range c.entries {
		if !e.IsMaster {
			continue
		}
		for _, m := range e.Masters {
			if c.matches(m, candidate.Name) {
				return i
			}
		}
	}
	return len(c.entries)
}

// IsSelfConsistent is always true: mtime order is the single source of
// truth, so there's nothing for it to disagree with.
func (s *timestampStrategy) IsSelfConsistent(c *Core) (bool, error) { return true, nil }

// IsAmbiguous is true iff two plugins share an identical mtime at
// second granularity, since that leaves their relative order undefined
// on the next scan.
func (s *timestampStrategy) IsAmbiguous(c *Core) (bool, error) {
	seen := make(map[int64]bool, len(c.entries))
	for _, e := range c.entries {
		t := e.ModTime.Unix()
		if seen[t] {
			return true, nil
		}
		seen[t] = true
	}
	return false, nil
}
