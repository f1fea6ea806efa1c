package loadorder

import (
	"context"
	"os"

	"github.com/mod-troubleshooter/loadorder/internal/identity"
)

// textfileStrategy implements the Skyrim LE load order: a full ordered
// list in loadorder.txt plus a separately-tracked active set in
// plugins.txt.
type textfileStrategy struct{}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func ensureMasterFirst(names []string, master string, matches Matcher) []string {
	idx := -1
	for i, n := range names {
		if matches(n, master) {
			idx = i
			break
		}
	}
	if idx == 0 {
		return names
	}
	out := make([]string, 0, len(names)+1)
	out = append(out, master)
	for i, n := range names {
		if i == idx {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (s *textfileStrategy) Load(ctx context.Context, c *Core) error {
	activeNames, err := readPluginList(c.Paths.ActivePluginsFile)
	if err != nil {
		return err
	}

	var orderNames []string
	if fileExists(c.Paths.LoadOrderFile) {
		orderNames, err = readPluginList(c.Paths.LoadOrderFile)
		if err != nil {
			return err
		}
	} else {
		orderNames = append([]string{}, activeNames...)
	}
	orderNames = ensureMasterFirst(orderNames, c.Profile.MasterFile, c.matches)

	entries, err := c.reconcile(ctx, orderNames)
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

func (s *textfileStrategy) Save(ctx context.Context, c *Core) error {
	if err := writePluginList(c.Paths.LoadOrderFile, sortedByOrder(c.entries)); err != nil {
		return err
	}
	return writePluginList(c.Paths.ActivePluginsFile, c.ActivePlugins())
}

func sortedByOrder(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func (s *textfileStrategy) InsertPosition(c *Core, candidate Entry) int {
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

// Consistency enumerates the four cases Skyrim LE's two load-order
// files can be in, per the upstream implementation's
// check_self_consistency: whether loadorder.txt exists at all, and if
// so whether its subsequence filtered to plugins.txt's names matches
// plugins.txt exactly.
type Consistency int

const (
	ConsistentNoLoadOrderFile Consistency = iota
	ConsistentOnlyLoadOrderFile
	ConsistentWithNames
	Inconsistent
)

func (s *textfileStrategy) checkConsistency(c *Core) (Consistency, error) {
	if !fileExists(c.Paths.LoadOrderFile) {
		return ConsistentNoLoadOrderFile, nil
	}

	orderNames, err := readPluginList(c.Paths.LoadOrderFile)
	if err != nil {
		return 0, err
	}
	activeNames, err := readPluginList(c.Paths.ActivePluginsFile)
	if err != nil {
		return 0, err
	}
	if len(activeNames) == 0 {
		return ConsistentOnlyLoadOrderFile, nil
	}

	var filtered []string
	activeSet := make(map[string]bool, len(activeNames))
	for _, n := range activeNames {
		activeSet[identity.Key(n)] = true
	}
	for _, n := range orderNames {
		if activeSet[identity.Key(n)] {
			filtered = append(filtered, n)
		}
	}

	if len(filtered) != len(activeNames) {
		return Inconsistent, nil
	}
	for i := range filtered {
		if identity.Key(filtered[i]) != identity.Key(activeNames[i]) {
			return Inconsistent, nil
		}
	}
	return ConsistentWithNames, nil
}

func (s *textfileStrategy) IsSelfConsistent(c *Core) (bool, error) {
	consistency, err := s.checkConsistency(c)
	if err != nil {
		return false, err
	}
	return consistency != Inconsistent, nil
}

func (s *textfileStrategy) IsAmbiguous(c *Core) (bool, error) {
	consistent, err := s.IsSelfConsistent(c)
	if err != nil {
		return false, err
	}
	if !consistent {
		return true, nil
	}

	installed, err := c.scanInstalled()
	if err != nil {
		return false, err
	}
	for _, p := range installed {
		if c.IndexOf(p.Name) < 0 {
			return true, nil
		}
	}
	return false, nil
}
