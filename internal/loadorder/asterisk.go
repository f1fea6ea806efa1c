package loadorder

import (
	"context"
	"os"
	"strings"

	"github.com/mod-troubleshooter/loadorder/internal/identity"
	"github.com/mod-troubleshooter/loadorder/internal/textcodec"
)

// asteriskStrategy implements the Skyrim SE/VR, Fallout 4/VR, and
// Starfield load order: a single plugins.txt encodes both order and
// activation, with a leading "*" marking a line active. The game
// master and implicitly-active plugins are never written; they're
// synthesized on load and always index 0 / active respectively.
type asteriskStrategy struct{}

// parseAsteriskFile reads plugins.txt, returning the listed plugin
// names in file order and the subset marked active. A missing file
// yields empty results, not an error.
func parseAsteriskFile(path string) (names []string, active map[string]bool, err error) {
	active = map[string]bool{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, active, nil
		}
		return nil, nil, err
	}

	for _, line := range strings.Split(textcodec.Decode(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		isActive := strings.HasPrefix(line, "*")
		name := strings.TrimPrefix(line, "*")
		names = append(names, name)
		if isActive {
			active[identity.Key(name)] = true
		}
	}
	return names, active, nil
}

func (s *asteriskStrategy) Load(ctx context.Context, c *Core) error {
	names, active, err := parseAsteriskFile(c.Paths.ActivePluginsFile)
	if err != nil {
		return err
	}
	orderNames := ensureMasterFirst(names, c.Profile.MasterFile, c.matches)

	entries, err := c.reconcile(ctx, orderNames)
	if err != nil {
		return err
	}
	for i := range entries {
		if active[identity.Key(entries[i].Name)] {
			entries[i].Active = true
		}
	}

	c.entries = entries
	return nil
}

// Save skips the game master and implicitly-active plugins, matching
// spec.md §4.7: those are always synthesized on load and never need a
// line of their own.
func (s *asteriskStrategy) Save(ctx context.Context, c *Core) error {
	var lines []string
	for _, e := range c.entries {
		if c.matches(e.Name, c.Profile.MasterFile) {
			continue
		}
		if c.Profile.IsImplicitlyActive(e.Name, c.matches) {
			continue
		}
		prefix := ""
		if e.Active {
			prefix = "*"
		}
		lines = append(lines, prefix+e.Name)
	}
	return writePluginList(c.Paths.ActivePluginsFile, lines)
}

func (s *asteriskStrategy) InsertPosition(c *Core, candidate Entry) int {
	if candidate.IsMaster {
		lastMaster, firstNonMaster := -1, len(c.entries)
		for i, e := range c.entries {
			if e.IsMaster {
				lastMaster = i
			} else if firstNonMaster == len(c.entries) {
				firstNonMaster = i
			}
		}
		pos := lastMaster + 1
		if pos > firstNonMaster {
			pos = firstNonMaster
		}
		return pos
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

// IsSelfConsistent is always true: a single file can't disagree with
// itself.
func (s *asteriskStrategy) IsSelfConsistent(c *Core) (bool, error) { return true, nil }

// IsAmbiguous is true iff an installed, non-implicitly-active plugin
// is missing from plugins.txt.
func (s *asteriskStrategy) IsAmbiguous(c *Core) (bool, error) {
	names, _, err := parseAsteriskFile(c.Paths.ActivePluginsFile)
	if err != nil {
		return false, err
	}
	listed := make(map[string]bool, len(names))
	for _, n := range names {
		listed[identity.Key(n)] = true
	}

	installed, err := c.scanInstalled()
	if err != nil {
		return false, err
	}
	for _, p := range installed {
		name := p.Name
		if c.matches(name, c.Profile.MasterFile) {
			continue
		}
		if c.Profile.IsImplicitlyActive(name, c.matches) {
			continue
		}
		if !listed[identity.Key(name)] {
			return true, nil
		}
	}
	return false, nil
}
