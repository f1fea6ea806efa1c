// Package loadorder implements the load-order state machine: an
// ordered list of plugins with an active flag on each, validated
// against master/non-master partitioning, hoisting, implicitly-active
// plugins, and active-count caps, and persisted through one of three
// method strategies (Timestamp, Textfile, Asterisk).
package loadorder

import "time"

// Entry is one plugin's record within a load order.
type Entry struct {
	// Name is the on-disk filename with any trailing ".ghost" stripped.
	Name string
	// IsMaster is true if the plugin's master flag is set, or if it's
	// light-flagged — light plugins always count as masters for
	// ordering purposes.
	IsMaster bool
	// IsLight is only meaningful on games that support light plugins.
	IsLight bool
	Active  bool
	// ModTime is used only under the Timestamp method.
	ModTime time.Time
	// Masters is the ordered sequence of declared master filenames.
	Masters []string
	// Ghosted records whether the file carries a ".ghost" suffix on
	// disk, so Save can round-trip it.
	Ghosted bool
}

func (e Entry) item() Item {
	return Item{Name: e.Name, IsMaster: e.IsMaster, DeclaredMasters: e.Masters}
}

func entriesToItems(entries []Entry) []Item {
	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = e.item()
	}
	return items
}
