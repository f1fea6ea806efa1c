package loadorder

import (
	"context"
	"time"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/identity"
	"github.com/mod-troubleshooter/loadorder/internal/reconciler"
)

// scanInstalled returns the plugins found in the game's plugin
// directories, sorted (mtime ascending, filename descending — except
// Starfield, which breaks mtime ties by filename ascending).
func (c *Core) scanInstalled() ([]reconciler.ScannedPlugin, error) {
	dirs := append([]string{c.Paths.PluginsDirectory}, c.Paths.AdditionalPluginsDirectory...)
	ascendingTieBreak := c.Profile.ID == game.Starfield
	return reconciler.ScanDirectories(dirs, c.isPlugin, identity.Key, ascendingTieBreak)
}

// buildEntry resolves name's metadata and constructs an Entry. A parse
// failure is reported via ok=false rather than an error: an unparseable
// file is simply excluded from the load order, it doesn't abort the
// whole load.
func (c *Core) buildEntry(ctx context.Context, name string) (Entry, bool) {
	info, err := c.describe(ctx, name)
	if err != nil || !info.ParsedOK {
		return Entry{}, false
	}
	return Entry{
		Name:     identity.TrimGhost(name),
		IsMaster: info.IsMaster || info.IsLight,
		IsLight:  info.IsLight,
		Masters:  info.DeclaredMasters,
		Ghosted:  identity.IsGhosted(name),
	}, true
}

// reconcile is the shared tail every method strategy's Load runs
// through: it takes the plugin names persisted state names in order
// (possibly empty, for Timestamp), appends any installed files not
// already among them in scan order, builds each name's Entry via
// PluginMetadata, hoists masters, and marks implicitly-active plugins
// active. Activation beyond implicitly-active plugins is the caller's
// responsibility, since that comes from each method's own active list.
func (c *Core) reconcile(ctx context.Context, persistedOrder []string) ([]Entry, error) {
	scanned, err := c.scanInstalled()
	if err != nil {
		return nil, err
	}

	scannedNames := make([]string, len(scanned))
	modTimes := make(map[string]time.Time, len(scanned))
	for i, s := range scanned {
		scannedNames[i] = s.Name
		modTimes[identity.Key(s.Name)] = s.ModTime
	}

	persistedPlugins := make([]reconciler.Plugin, len(persistedOrder))
	for i, n := range persistedOrder {
		persistedPlugins[i] = reconciler.Plugin{Name: n}
	}

	names := reconciler.MergeWithPersisted(persistedPlugins, scannedNames, identity.Key, func(name string) (reconciler.Plugin, bool) {
		return reconciler.Plugin{Name: name}, true
	})

	entryByKey := make(map[string]Entry, len(names))
	built := make([]reconciler.Plugin, 0, len(names))
	for _, n := range names {
		e, ok := c.buildEntry(ctx, n.Name)
		if !ok {
			continue
		}
		e.ModTime = modTimes[identity.Key(e.Name)]
		entryByKey[identity.Key(e.Name)] = e
		built = append(built, reconciler.Plugin{Name: e.Name, IsMaster: e.IsMaster, DeclaredMasters: e.Masters})
	}

	merged := reconciler.HoistMasters(built, identity.Key)
	implicit := append([]string{c.Profile.MasterFile}, c.Profile.ImplicitlyActive...)
	merged = reconciler.ApplyImplicitlyActive(merged, implicit, identity.Key)

	out := make([]Entry, len(merged))
	for i, m := range merged {
		e := entryByKey[identity.Key(m.Name)]
		e.Active = m.Active
		out[i] = e
	}
	return out, nil
}
