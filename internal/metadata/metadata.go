// Package metadata defines the PluginMetadata collaborator the load
// order core consumes, and a caching adapter over internal/plugin so
// repeated load() calls don't re-parse unchanged files.
package metadata

import (
	"context"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mod-troubleshooter/loadorder/internal/plugin"
)

// Info is what a plugin file tells the core about itself. The core
// never parses plugin bytes; it only ever sees this shape.
type Info struct {
	ParsedOK        bool
	IsMaster        bool
	IsLight         bool
	DeclaredMasters []string
}

// Provider resolves a plugin's path to its Info. Implementations may
// cache on mtime; a failed parse is reported with ParsedOK false
// together with the parse error. The core's directory scan treats such a
// file as merely excluded, not fatal to the whole load.
type Provider interface {
	Describe(ctx context.Context, path string) (Info, error)
}

type cacheEntry struct {
	modTime int64
	size    int64
	info    Info
}

// CachingProvider wraps a plugin.Parser with an mtime-keyed LRU so that
// reloading a load order whose files haven't changed on disk doesn't
// re-read and re-parse every plugin.
type CachingProvider struct {
	parser *plugin.Parser
	cache  *lru.Cache[string, cacheEntry]
}

// NewCachingProvider builds a CachingProvider holding up to size parsed
// headers at a time.
func NewCachingProvider(size int) (*CachingProvider, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &CachingProvider{parser: plugin.NewParser(), cache: cache}, nil
}

// Describe returns cached Info for path when the file's mtime and size
// match what was last parsed, otherwise reparses and repopulates the
// cache entry.
func (c *CachingProvider) Describe(ctx context.Context, path string) (Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}

	if entry, ok := c.cache.Get(path); ok {
		if entry.modTime == stat.ModTime().UnixNano() && entry.size == stat.Size() {
			return entry.info, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	header, err := c.parser.Parse(ctx, f, stat.Name())
	info := Info{ParsedOK: err == nil}
	if err == nil {
		info.IsMaster = header.Flags.IsMaster
		info.IsLight = header.Flags.IsLight
		masters := make([]string, len(header.Masters))
		for i, m := range header.Masters {
			masters[i] = m.Filename
		}
		info.DeclaredMasters = masters
	}

	c.cache.Add(path, cacheEntry{
		modTime: stat.ModTime().UnixNano(),
		size:    stat.Size(),
		info:    info,
	})

	if err != nil {
		return info, err
	}
	return info, nil
}
