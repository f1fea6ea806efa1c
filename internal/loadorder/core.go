package loadorder

import (
	"context"
	"path/filepath"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/identity"
	"github.com/mod-troubleshooter/loadorder/internal/loaderr"
	"github.com/mod-troubleshooter/loadorder/internal/metadata"
)

const (
	maxNormalActive = 255
	maxLightActive  = 4096
)

// Paths is where a Core reads and writes plugin and active-list state.
type Paths struct {
	PluginsDirectory           string
	AdditionalPluginsDirectory []string
	ActivePluginsFile          string
	LoadOrderFile              string // only used by the Textfile method
}

// Core is the mutable ordered list of plugins: LoadOrderCore in
// spec.md §4.6. All mutation routes through it, and every exported
// method either leaves the invariants in §3 holding, or returns an
// error with state unchanged.
type Core struct {
	Profile  game.Profile
	Paths    Paths
	Provider metadata.Provider
	strategy Strategy
	entries  []Entry
}

// New builds a Core for the given profile, ready for Load.
func New(profile game.Profile, paths Paths, provider metadata.Provider) *Core {
	return &Core{
		Profile:  profile,
		Paths:    paths,
		Provider: provider,
		strategy: NewStrategy(profile.Method),
	}
}

func (c *Core) matches(a, b string) bool { return identity.Matches(a, b) }

func (c *Core) isPlugin(name string) bool {
	return identity.HasPluginExtension(name, c.Profile.SupportsLightPlugins)
}

// Plugins returns a read-only snapshot of the current load order.
func (c *Core) Plugins() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// ActivePlugins returns the names of all currently active plugins, in
// load order.
func (c *Core) ActivePlugins() []string {
	var out []string
	for _, e := range c.entries {
		if e.Active {
			out = append(out, e.Name)
		}
	}
	return out
}

// IndexOf returns the position of name, or -1 if it isn't present.
func (c *Core) IndexOf(name string) int {
	for i, e := range c.entries {
		if c.matches(e.Name, name) {
			return i
		}
	}
	return -1
}

// Load resets state and delegates to the method strategy, which
// reconciles persisted state with a directory scan and applies
// implicitly-active plugins. On error, prior state is left untouched.
func (c *Core) Load(ctx context.Context) error {
	prev := c.entries
	c.entries = nil
	if err := c.strategy.Load(ctx, c); err != nil {
		c.entries = prev
		return err
	}
	if err := ValidateLoadOrder(entriesToItems(c.entries), c.matches); err != nil {
		c.entries = prev
		return err
	}
	return nil
}

// Save serializes the current state through the method strategy,
// creating any missing parent directories.
func (c *Core) Save(ctx context.Context) error {
	return c.strategy.Save(ctx, c)
}

// describe resolves a plugin's metadata by path, given the entry is
// known to exist under the plugins directory.
func (c *Core) describe(ctx context.Context, name string) (metadata.Info, error) {
	path := filepath.Join(c.Paths.PluginsDirectory, name)
	info, err := c.Provider.Describe(ctx, path)
	if err != nil {
		if ghostInfo, ghostErr := c.Provider.Describe(ctx, path+".ghost"); ghostErr == nil {
			return ghostInfo, nil
		}
	}
	return info, err
}

// Add inserts a new plugin, computing its position from the method
// strategy's InsertPosition.
func (c *Core) Add(ctx context.Context, name string) error {
	if c.IndexOf(name) >= 0 {
		return &loaderr.Error{Kind: loaderr.KindInstalledPlugin, Plugin: name}
	}

	info, err := c.describe(ctx, name)
	if err != nil || !info.ParsedOK {
		return &loaderr.Error{Kind: loaderr.KindInvalidPlugin, Plugin: name, Err: err}
	}

	entry := Entry{
		Name:     identity.TrimGhost(name),
		IsMaster: info.IsMaster || info.IsLight,
		IsLight:  info.IsLight,
		Masters:  info.DeclaredMasters,
		Ghosted:  identity.IsGhosted(name),
	}

	position := c.strategy.InsertPosition(c, entry)
	if err := ValidateIndex(entriesToItems(c.entries), entry.item(), position, c.matches); err != nil {
		return err
	}

	c.entries = insertAt(c.entries, entry, position)
	return nil
}

// Remove drops name from the load order. It fails if the plugin file
// is still installed, or if it's implicitly active.
func (c *Core) Remove(ctx context.Context, name string, installed bool) error {
	idx := c.IndexOf(name)
	if idx < 0 {
		return &loaderr.Error{Kind: loaderr.KindPluginNotFound, Plugin: name}
	}
	if installed {
		return &loaderr.Error{Kind: loaderr.KindInstalledPlugin, Plugin: name}
	}
	if c.Profile.IsImplicitlyActive(c.entries[idx].Name, c.matches) {
		return &loaderr.Error{Kind: loaderr.KindImplicitlyActivePlugin, Plugin: name}
	}
	c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
	return nil
}

// SetLoadOrder atomically replaces the entire list. names must be
// unique by identity and pass ValidateLoadOrder; Textfile and Asterisk
// methods additionally require names[0] to be the game master. Prior
// active flags are preserved for names that were already present.
func (c *Core) SetLoadOrder(ctx context.Context, names []string) error {
	seen := map[string]bool{}
	for _, n := range names {
		k := identity.Key(n)
		if seen[k] {
			return &loaderr.Error{Kind: loaderr.KindDuplicatePlugin, Plugin: n}
		}
		seen[k] = true
	}

	if (c.Profile.Method == game.Textfile || c.Profile.Method == game.Asterisk) && len(names) > 0 {
		if !c.matches(names[0], c.Profile.MasterFile) {
			return &loaderr.Error{Kind: loaderr.KindGameMasterMustLoadFirst, Plugin: c.Profile.MasterFile}
		}
	}

	next := make([]Entry, 0, len(names))
	for _, n := range names {
		info, err := c.describe(ctx, n)
		if err != nil || !info.ParsedOK {
			return &loaderr.Error{Kind: loaderr.KindInvalidPlugin, Plugin: n, Err: err}
		}
		entry := Entry{
			Name:     identity.TrimGhost(n),
			IsMaster: info.IsMaster || info.IsLight,
			IsLight:  info.IsLight,
			Masters:  info.DeclaredMasters,
			Ghosted:  identity.IsGhosted(n),
		}
		if idx := c.IndexOf(n); idx >= 0 {
			entry.Active = c.entries[idx].Active
			entry.ModTime = c.entries[idx].ModTime
		} else if c.Profile.IsImplicitlyActive(entry.Name, c.matches) {
			entry.Active = true
		}
		next = append(next, entry)
	}

	if err := ValidateLoadOrder(entriesToItems(next), c.matches); err != nil {
		return err
	}

	c.entries = next
	return nil
}

// SetPluginIndex moves an existing entry, or inserts a new one, at
// position.
func (c *Core) SetPluginIndex(ctx context.Context, name string, position int) error {
	if c.Profile.Method == game.Textfile || c.Profile.Method == game.Asterisk {
		isMasterName := c.matches(name, c.Profile.MasterFile)
		if (position == 0) != isMasterName {
			return &loaderr.Error{Kind: loaderr.KindGameMasterMustLoadFirst, Plugin: c.Profile.MasterFile}
		}
	}

	idx := c.IndexOf(name)
	var entry Entry
	rest := c.entries
	if idx >= 0 {
		entry = c.entries[idx]
		rest = append(append([]Entry{}, c.entries[:idx]...), c.entries[idx+1:]...)
	} else {
		info, err := c.describe(ctx, name)
		if err != nil || !info.ParsedOK {
			return &loaderr.Error{Kind: loaderr.KindInvalidPlugin, Plugin: name, Err: err}
		}
		entry = Entry{
			Name:     identity.TrimGhost(name),
			IsMaster: info.IsMaster || info.IsLight,
			IsLight:  info.IsLight,
			Masters:  info.DeclaredMasters,
			Ghosted:  identity.IsGhosted(name),
		}
	}

	if position > len(rest) {
		position = len(rest)
	}
	if err := ValidateIndex(entriesToItems(rest), entry.item(), position, c.matches); err != nil {
		return err
	}

	c.entries = insertAt(rest, entry, position)
	return nil
}

func (c *Core) activeCounts() (normal, light int) {
	for _, e := range c.entries {
		if !e.Active {
			continue
		}
		if e.IsLight {
			light++
		} else {
			normal++
		}
	}
	return
}

// Activate marks name active, failing if doing so would exceed the
// game's active-count cap.
func (c *Core) Activate(name string) error {
	idx := c.IndexOf(name)
	if idx < 0 {
		return &loaderr.Error{Kind: loaderr.KindPluginNotFound, Plugin: name}
	}
	if c.entries[idx].Active {
		return nil
	}

	normal, light := c.activeCounts()
	if c.entries[idx].IsLight {
		light++
	} else {
		normal++
	}
	if normal > maxNormalActive || (c.Profile.SupportsLightPlugins && light > maxLightActive) {
		return &loaderr.Error{Kind: loaderr.KindTooManyActivePlugins, LightCount: light, NormalCount: normal}
	}

	c.entries[idx].Active = true
	return nil
}

// Deactivate clears name's active flag, failing if it's implicitly
// active.
func (c *Core) Deactivate(name string) error {
	idx := c.IndexOf(name)
	if idx < 0 {
		return &loaderr.Error{Kind: loaderr.KindPluginNotFound, Plugin: name}
	}
	if c.Profile.IsImplicitlyActive(c.entries[idx].Name, c.matches) {
		return &loaderr.Error{Kind: loaderr.KindImplicitlyActivePlugin, Plugin: name}
	}
	c.entries[idx].Active = false
	return nil
}

// SetActivePlugins atomically replaces the active set: deactivates
// everything, activates exactly names, then re-activates any
// implicitly-active plugin regardless of whether it was named.
func (c *Core) SetActivePlugins(names []string) error {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[identity.Key(n)] = true
	}

	var normal, light int
	active := make([]bool, len(c.entries))
	for i := range c.entries {
		active[i] = want[identity.Key(c.entries[i].Name)] ||
			c.Profile.IsImplicitlyActive(c.entries[i].Name, c.matches)
		if !active[i] {
			continue
		}
		if c.entries[i].IsLight {
			light++
		} else {
			normal++
		}
	}

	if normal > maxNormalActive || (c.Profile.SupportsLightPlugins && light > maxLightActive) {
		return &loaderr.Error{Kind: loaderr.KindTooManyActivePlugins, LightCount: light, NormalCount: normal}
	}

	for i := range c.entries {
		c.entries[i].Active = active[i]
	}
	return nil
}

// IsSelfConsistent delegates to the method strategy.
func (c *Core) IsSelfConsistent() (bool, error) { return c.strategy.IsSelfConsistent(c) }

// IsAmbiguous delegates to the method strategy.
func (c *Core) IsAmbiguous() (bool, error) { return c.strategy.IsAmbiguous(c) }

func insertAt(entries []Entry, entry Entry, position int) []Entry {
	if position >= len(entries) {
		return append(entries, entry)
	}
	out := make([]Entry, 0, len(entries)+1)
	out = append(out, entries[:position]...)
	out = append(out, entry)
	out = append(out, entries[position:]...)
	return out
}
