package loadorder

import "github.com/mod-troubleshooter/loadorder/internal/loaderr"

// Item is the minimal shape the invariant checks need: just enough to
// reason about master/non-master partitioning, independent of Entry so
// these predicates stay free of any ownership of the richer type.
type Item struct {
	Name            string
	IsMaster        bool
	DeclaredMasters []string
}

// Matcher decides whether two plugin names refer to the same plugin
// (case/ghost-insensitive identity), injected so this package stays
// free of any dependency on internal/identity's concrete rules.
type Matcher func(a, b string) bool

func declares(item Item, name string, matches Matcher) bool {
	for _, m := range item.DeclaredMasters {
		if matches(m, name) {
			return true
		}
	}
	return false
}

func rightmostMasterBefore(items []Item, position int) int {
	for i := position - 1; i >= 0; i-- {
		if items[i].IsMaster {
			return i
		}
	}
	return -1
}

// ValidateIndex checks whether candidate may be placed at position
// within items (items does not yet contain candidate).
func ValidateIndex(items []Item, candidate Item, position int, matches Matcher) error {
	if candidate.IsMaster {
		previousMaster := rightmostMasterBefore(items, position)
		for i := previousMaster + 1; i < position && i < len(items); i++ {
			if !items[i].IsMaster && !declares(candidate, items[i].Name, matches) {
				return &loaderr.Error{Kind: loaderr.KindNonMasterBeforeMaster, Plugin: items[i].Name, Master: candidate.Name}
			}
		}
		for i := position; i < len(items); i++ {
			if !items[i].IsMaster && declares(candidate, items[i].Name, matches) {
				return &loaderr.Error{Kind: loaderr.KindUnrepresentedHoist, Plugin: items[i].Name, Master: candidate.Name}
			}
		}
		return nil
	}

	for i := 0; i < position && i < len(items); i++ {
		if items[i].IsMaster && declares(items[i], candidate.Name, matches) {
			return &loaderr.Error{Kind: loaderr.KindUnrepresentedHoist, Plugin: candidate.Name, Master: items[i].Name}
		}
	}
	if next, ok := nextMasterAtOrAfter(items, position); ok && !declares(items[next], candidate.Name, matches) {
		return &loaderr.Error{Kind: loaderr.KindNonMasterBeforeMaster, Plugin: candidate.Name, Master: items[next].Name}
	}
	return nil
}

func nextMasterAtOrAfter(items []Item, position int) (int, bool) {
	for i := position; i < len(items); i++ {
		if items[i].IsMaster {
			return i, true
		}
	}
	return 0, false
}

// ValidateLoadOrder checks that the full list is partitioned correctly:
// once any non-master appears, every subsequent master may only
// declare masters that are either themselves masters, or non-masters
// legitimately hoisted above it.
func ValidateLoadOrder(items []Item, matches Matcher) error {
	pending := map[string]bool{}
	sawNonMaster := false
	for _, it := range items {
		if !it.IsMaster {
			sawNonMaster = true
			pending[canon(it.Name)] = true
			continue
		}
		if !sawNonMaster {
			continue
		}
		for _, m := range it.DeclaredMasters {
			delete(pending, canon(m))
		}
		if len(pending) > 0 {
			for name := range pending {
				return &loaderr.Error{Kind: loaderr.KindNonMasterBeforeMaster, Plugin: name, Master: it.Name}
			}
		}
	}

	seenNonMasters := map[string]bool{}
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if !it.IsMaster {
			seenNonMasters[canon(it.Name)] = true
			continue
		}
		for _, m := range it.DeclaredMasters {
			if seenNonMasters[canon(m)] {
				return &loaderr.Error{Kind: loaderr.KindUnrepresentedHoist, Plugin: m, Master: it.Name}
			}
		}
	}

	return nil
}

// canon lower-cases ASCII letters for use as a set key. ValidateLoadOrder
// compares the list's names with the master names that plugins declare
// through canon rather than through Matcher, so ghost suffixes and
// non-ASCII case differences are not folded in those comparisons.
func canon(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
