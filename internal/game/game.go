// Package game holds the per-game constants a load order is validated
// and persisted against: which file anchors the master list, which of
// the three persistence methods applies, which plugins load whether or
// not they appear in any active-plugins file, and whether light plugins
// are supported at all.
package game

import "fmt"

// ID identifies one of the supported Bethesda titles. Values are stable
// and match the order games were added to the ecosystem this package's
// behaviour is modelled on.
type ID int

const (
	Morrowind ID = iota + 1
	Oblivion
	Skyrim
	Fallout3
	FalloutNV
	Fallout4
	SkyrimSE
	Fallout4VR
	SkyrimVR
	Starfield
)

func (id ID) String() string {
	if p, ok := profiles[id]; ok {
		return p.Name
	}
	return fmt.Sprintf("ID(%d)", int(id))
}

// Method identifies which of the three persistence strategies a game's
// load order is read from and written to.
type Method int

const (
	// Timestamp orders plugins by file modification time; activation is
	// recorded in a separate plugins.txt listing only active plugins.
	Timestamp Method = iota
	// Textfile orders plugins via loadorder.txt, a fully-qualified list
	// of every known plugin; plugins.txt separately lists active ones.
	Textfile
	// Asterisk encodes both order and activation in a single
	// plugins.txt, where a leading "*" marks a line active.
	Asterisk
)

func (m Method) String() string {
	switch m {
	case Timestamp:
		return "timestamp"
	case Textfile:
		return "textfile"
	case Asterisk:
		return "asterisk"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// Category names Starfield's three plugin tiers, which share a
// namespace. Nothing in this module assigns a Category to a plugin; the
// active-count caps distinguish only light from non-light plugins.
type Category int

const (
	CategoryFull Category = iota
	CategoryMedium
	CategoryLight
)

// Profile is the immutable set of facts this package knows about one
// game: what its master file is called, how its load order is
// persisted, and which plugins are active regardless of what any
// active-plugins file says.
type Profile struct {
	ID ID
	// Name is the game's display name.
	Name string
	// MasterFile is the plugin that can never be deactivated or removed
	// (e.g. "Skyrim.esm"). Under the Textfile and Asterisk methods it
	// must also load first and cannot be moved.
	MasterFile string
	// Method is the persistence strategy this game's load order uses.
	Method Method
	// ImplicitlyActive lists plugins that are always active even when
	// absent from plugins.txt, in the order they must load. MasterFile
	// is always implicitly active and need not be repeated here.
	ImplicitlyActive []string
	// SupportsLightPlugins reports whether ESL-flagged plugins get
	// their own active-count cap separate from full plugins.
	SupportsLightPlugins bool
	// SupportsMediumPlugins reports whether a third, Starfield-only
	// "medium" category of master-flagged plugins exists. The
	// active-count cap check does not count medium plugins separately.
	SupportsMediumPlugins bool
}

var profiles = map[ID]Profile{
	Morrowind: {
		ID: Morrowind, Name: "Morrowind",
		MasterFile: "Morrowind.esm",
		Method:     Timestamp,
	},
	Oblivion: {
		ID: Oblivion, Name: "Oblivion",
		MasterFile: "Oblivion.esm",
		Method:     Timestamp,
	},
	Skyrim: {
		ID: Skyrim, Name: "Skyrim",
		MasterFile:       "Skyrim.esm",
		Method:           Textfile,
		ImplicitlyActive: []string{"Skyrim.esm", "Update.esm"},
	},
	Fallout3: {
		ID: Fallout3, Name: "Fallout 3",
		MasterFile: "Fallout3.esm",
		Method:     Timestamp,
	},
	FalloutNV: {
		ID: FalloutNV, Name: "Fallout: New Vegas",
		MasterFile: "FalloutNV.esm",
		Method:     Timestamp,
	},
	Fallout4: {
		ID: Fallout4, Name: "Fallout 4",
		MasterFile:           "Fallout4.esm",
		Method:               Asterisk,
		SupportsLightPlugins: true,
		ImplicitlyActive: []string{
			"Fallout4.esm",
			"DLCRobot.esm",
			"DLCworkshop01.esm",
			"DLCCoast.esm",
			"DLCworkshop02.esm",
			"DLCworkshop03.esm",
			"DLCNukaWorld.esm",
			"DLCUltraHighResolution.esm",
		},
	},
	SkyrimSE: {
		ID: SkyrimSE, Name: "Skyrim Special Edition",
		MasterFile:           "Skyrim.esm",
		Method:               Asterisk,
		SupportsLightPlugins: true,
		ImplicitlyActive: []string{
			"Skyrim.esm",
			"Update.esm",
			"Dawnguard.esm",
			"HearthFires.esm",
			"Dragonborn.esm",
		},
	},
	Fallout4VR: {
		ID: Fallout4VR, Name: "Fallout 4 VR",
		MasterFile:           "Fallout4.esm",
		Method:               Asterisk,
		SupportsLightPlugins: true,
		ImplicitlyActive:     []string{"Fallout4.esm", "Fallout4_VR.esm"},
	},
	SkyrimVR: {
		ID: SkyrimVR, Name: "Skyrim VR",
		MasterFile:           "Skyrim.esm",
		Method:               Asterisk,
		SupportsLightPlugins: true,
		ImplicitlyActive:     []string{"Skyrim.esm", "Update.esm", "Dawnguard.esm", "HearthFires.esm", "Dragonborn.esm", "SkyrimVR.esm"},
	},
	Starfield: {
		ID: Starfield, Name: "Starfield",
		MasterFile:            "Starfield.esm",
		Method:                Asterisk,
		SupportsLightPlugins:  true,
		SupportsMediumPlugins: true,
		ImplicitlyActive:      []string{"Starfield.esm", "BlueprintShips-Starfield.esm", "OldMars.esm", "Constellation.esm", "SFBGS003.esm", "SFBGS004.esm", "SFBGS006.esm", "SFBGS007.esm", "SFBGS008.esm"},
	},
}

// Lookup returns the profile for id.
func Lookup(id ID) (Profile, bool) {
	p, ok := profiles[id]
	return p, ok
}

// IsImplicitlyActive reports whether name is always active for this
// profile, independent of what any active-plugins file records.
func (p Profile) IsImplicitlyActive(name string, matches func(a, b string) bool) bool {
	if matches(name, p.MasterFile) {
		return true
	}
	for _, f := range p.ImplicitlyActive {
		if matches(name, f) {
			return true
		}
	}
	return false
}
