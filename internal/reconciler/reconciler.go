// Package reconciler merges a persisted load order with what's actually
// installed on disk: scanning plugin directories, appending newly
// discovered files, hoisting masters above non-masters that declare
// them, and ensuring implicitly-active plugins are present and active.
// It knows nothing about how a load order is serialized; that's the
// method strategies' job.
package reconciler

import (
	"os"
	"sort"
	"time"
)

// Plugin is the reconciler's view of one installed or listed plugin,
// independent of loadorder.Entry so this package stays free of any
// dependency on the state machine it feeds.
type Plugin struct {
	Name            string
	IsMaster        bool
	DeclaredMasters []string
	Active          bool
	ModTime         time.Time
}

// ScannedPlugin is one file found by ScanDirectories, carrying the
// mtime it was found with so callers needing it (the Timestamp
// method's ordering and ambiguity check) don't have to re-stat.
type ScannedPlugin struct {
	Name    string
	ModTime time.Time
}

// ScanDirectories walks each directory in order (later directories take
// precedence on a duplicate identity) and returns the plugins found,
// deduplicated by key and sorted by mtime ascending. On a tie, ties
// break by filename descending, except when ascendingTieBreak is set
// (Starfield), which breaks ascending instead. isPlugin filters
// candidate filenames; key canonicalizes a filename for dedup purposes
// (case/ghost-insensitive identity).
func ScanDirectories(dirs []string, isPlugin func(name string) bool, key func(name string) string, ascendingTieBreak bool) ([]ScannedPlugin, error) {
	byKey := make(map[string]ScannedPlugin)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !isPlugin(entry.Name()) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return nil, err
			}
			byKey[key(entry.Name())] = ScannedPlugin{Name: entry.Name(), ModTime: info.ModTime()}
		}
	}

	out := make([]ScannedPlugin, 0, len(byKey))
	for _, f := range byKey {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.Before(out[j].ModTime)
		}
		if ascendingTieBreak {
			return out[i].Name < out[j].Name
		}
		return out[i].Name > out[j].Name
	})
	return out, nil
}

// MergeWithPersisted appends entries found on disk but absent from the
// persisted list, in scan order, inactive by default. Entries already
// present keep their relative order and activation untouched.
func MergeWithPersisted(persisted []Plugin, scanned []string, key func(name string) string, build func(name string) (Plugin, bool)) []Plugin {
	known := make(map[string]bool, len(persisted))
	for _, p := range persisted {
		known[key(p.Name)] = true
	}

	merged := make([]Plugin, len(persisted))
	copy(merged, persisted)

	for _, name := range scanned {
		k := key(name)
		if known[k] {
			continue
		}
		known[k] = true
		plugin, ok := build(name)
		if !ok {
			continue
		}
		merged = append(merged, plugin)
	}
	return merged
}

// HoistMasters walks the prefix of masters and, for each master, moves
// any of its declared masters found later in the list as a non-master
// up to immediately precede it — preserving the relative order of every
// other entry. This is the stable-sort variant of the hoist algorithm:
// entries are given a sort key equal to their own position, except a
// hoisted non-master which takes the position of the master hoisting it
// (minus a fraction to keep it strictly before), and the list is then
// stable-sorted on that key.
func HoistMasters(plugins []Plugin, key func(name string) string) []Plugin {
	index := make(map[string]int, len(plugins))
	for i, p := range plugins {
		index[key(p.Name)] = i
	}

	rank := make([]float64, len(plugins))
	for i := range plugins {
		rank[i] = float64(i)
	}

	for i, p := range plugins {
		if !p.IsMaster {
			continue
		}
		for _, declared := range p.DeclaredMasters {
			j, ok := index[key(declared)]
			if !ok || plugins[j].IsMaster || j < i {
				continue
			}
			// Hoist plugins[j] to just before this master, keeping it
			// strictly behind anything already hoisted to that slot.
			rank[j] = float64(i) - 1 + 1/float64(len(plugins)+2)
		}
	}

	type ranked struct {
		plugin Plugin
		rank   float64
		orig   int
	}
	items := make([]ranked, len(plugins))
	for i, p := range plugins {
		items[i] = ranked{plugin: p, rank: rank[i], orig: i}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].rank != items[j].rank {
			return items[i].rank < items[j].rank
		}
		return items[i].orig < items[j].orig
	})

	out := make([]Plugin, len(items))
	for i, it := range items {
		out[i] = it.plugin
	}
	return out
}

// ApplyImplicitlyActive ensures every name in implicitlyActive that is
// present in plugins (by key) is marked active. insertPosition is not
// invoked here: by the time a load order reaches this step every
// implicitly-active plugin installed on disk should already have been
// merged in by MergeWithPersisted, so this step only flips the flag.
func ApplyImplicitlyActive(plugins []Plugin, implicitlyActive []string, key func(name string) string) []Plugin {
	active := make(map[string]bool, len(implicitlyActive))
	for _, name := range implicitlyActive {
		active[key(name)] = true
	}
	out := make([]Plugin, len(plugins))
	for i, p := range plugins {
		if active[key(p.Name)] {
			p.Active = true
		}
		out[i] = p
	}
	return out
}
