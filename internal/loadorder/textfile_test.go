package loadorder

import (
	"context"
	"testing"
	"time"

	"github.com/mod-troubleshooter/loadorder/internal/metadata"
)

func TestTextfileStrategyLoadReconcilesPersistedAndScannedPlugins(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writePluginFile(t, dir, "Skyrim.esm", now)
	writePluginFile(t, dir, "Dawnguard.esm", now)
	writePluginFile(t, dir, "Patch.esp", now)
	writePluginFile(t, dir, "Cosmetic.esp", now)

	loadOrderFile := dir + "/loadorder.txt"
	activeFile := dir + "/plugins.txt"
	if err := writePluginList(loadOrderFile, []string{"Skyrim.esm", "Dawnguard.esm", "Patch.esp"}); err != nil {
		t.Fatalf("writing loadorder.txt: %v", err)
	}
	if err := writePluginList(activeFile, []string{"Skyrim.esm", "Patch.esp"}); err != nil {
		t.Fatalf("writing plugins.txt: %v", err)
	}

	provider := newFakeProvider()
	provider.register("Skyrim.esm", metadata.Info{ParsedOK: true, IsMaster: true})
	provider.register("Dawnguard.esm", metadata.Info{ParsedOK: true, IsMaster: true, DeclaredMasters: []string{"Skyrim.esm"}})
	provider.register("Patch.esp", metadata.Info{ParsedOK: true, DeclaredMasters: []string{"Dawnguard.esm"}})
	provider.register("Cosmetic.esp", metadata.Info{ParsedOK: true})

	c := New(skyrimProfile(t), Paths{
		PluginsDirectory:  dir,
		ActivePluginsFile: activeFile,
		LoadOrderFile:     loadOrderFile,
	}, provider)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	entries := c.Plugins()
	wantOrder := []string{"Skyrim.esm", "Dawnguard.esm", "Patch.esp", "Cosmetic.esp"}
	if len(entries) != len(wantOrder) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(wantOrder), entries)
	}
	for i, name := range wantOrder {
		if entries[i].Name != name {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Name, name)
		}
	}

	wantActive := map[string]bool{"Skyrim.esm": true, "Patch.esp": true}
	for _, e := range entries {
		if e.Active != wantActive[e.Name] {
			t.Errorf("entry %q: Active = %v, want %v", e.Name, e.Active, wantActive[e.Name])
		}
	}
}

func TestTextfileStrategySaveWritesBothFiles(t *testing.T) {
	c := newCoreForTest(skyrimProfile(t), nil, []Entry{
		{Name: "Skyrim.esm", IsMaster: true, Active: true},
		{Name: "Cosmetic.esp", Active: false},
		{Name: "Active.esp", Active: true},
	})
	dir := t.TempDir()
	c.Paths = Paths{LoadOrderFile: dir + "/loadorder.txt", ActivePluginsFile: dir + "/plugins.txt"}

	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	order, err := readPluginList(c.Paths.LoadOrderFile)
	if err != nil {
		t.Fatalf("reading loadorder.txt: %v", err)
	}
	wantOrder := []string{"Skyrim.esm", "Cosmetic.esp", "Active.esp"}
	if len(order) != len(wantOrder) {
		t.Fatalf("order = %v, want %v", order, wantOrder)
	}
	for i := range wantOrder {
		if order[i] != wantOrder[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], wantOrder[i])
		}
	}

	active, err := readPluginList(c.Paths.ActivePluginsFile)
	if err != nil {
		t.Fatalf("reading plugins.txt: %v", err)
	}
	wantActive := []string{"Skyrim.esm", "Active.esp"}
	if len(active) != len(wantActive) {
		t.Fatalf("active = %v, want %v", active, wantActive)
	}
}

func TestTextfileStrategyConsistencyNoLoadOrderFile(t *testing.T) {
	dir := t.TempDir()
	c := New(skyrimProfile(t), Paths{
		PluginsDirectory:  dir,
		ActivePluginsFile: dir + "/plugins.txt",
		LoadOrderFile:     dir + "/loadorder.txt",
	}, newFakeProvider())

	s := &textfileStrategy{}
	consistency, err := s.checkConsistency(c)
	if err != nil {
		t.Fatalf("checkConsistency failed: %v", err)
	}
	if consistency != ConsistentNoLoadOrderFile {
		t.Errorf("consistency = %v, want ConsistentNoLoadOrderFile", consistency)
	}
}

func TestTextfileStrategyConsistencyOnlyLoadOrderFile(t *testing.T) {
	dir := t.TempDir()
	loadOrderFile := dir + "/loadorder.txt"
	if err := writePluginList(loadOrderFile, []string{"Skyrim.esm"}); err != nil {
		t.Fatalf("writing loadorder.txt: %v", err)
	}
	c := New(skyrimProfile(t), Paths{
		PluginsDirectory:  dir,
		ActivePluginsFile: dir + "/plugins.txt",
		LoadOrderFile:     loadOrderFile,
	}, newFakeProvider())

	s := &textfileStrategy{}
	consistency, err := s.checkConsistency(c)
	if err != nil {
		t.Fatalf("checkConsistency failed: %v", err)
	}
	if consistency != ConsistentOnlyLoadOrderFile {
		t.Errorf("consistency = %v, want ConsistentOnlyLoadOrderFile", consistency)
	}
}

func TestTextfileStrategyConsistencyWithNames(t *testing.T) {
	dir := t.TempDir()
	loadOrderFile := dir + "/loadorder.txt"
	activeFile := dir + "/plugins.txt"
	if err := writePluginList(loadOrderFile, []string{"Skyrim.esm", "Dawnguard.esm", "Patch.esp"}); err != nil {
		t.Fatalf("writing loadorder.txt: %v", err)
	}
	if err := writePluginList(activeFile, []string{"Skyrim.esm", "Patch.esp"}); err != nil {
		t.Fatalf("writing plugins.txt: %v", err)
	}
	c := New(skyrimProfile(t), Paths{
		PluginsDirectory:  dir,
		ActivePluginsFile: activeFile,
		LoadOrderFile:     loadOrderFile,
	}, newFakeProvider())

	s := &textfileStrategy{}
	consistency, err := s.checkConsistency(c)
	if err != nil {
		t.Fatalf("checkConsistency failed: %v", err)
	}
	if consistency != ConsistentWithNames {
		t.Errorf("consistency = %v, want ConsistentWithNames", consistency)
	}
}

func TestTextfileStrategyConsistencyInconsistentOrdering(t *testing.T) {
	dir := t.TempDir()
	loadOrderFile := dir + "/loadorder.txt"
	activeFile := dir + "/plugins.txt"
	if err := writePluginList(loadOrderFile, []string{"Skyrim.esm", "Dawnguard.esm", "Patch.esp"}); err != nil {
		t.Fatalf("writing loadorder.txt: %v", err)
	}
	// plugins.txt lists the same names but in a different relative order.
	if err := writePluginList(activeFile, []string{"Patch.esp", "Skyrim.esm"}); err != nil {
		t.Fatalf("writing plugins.txt: %v", err)
	}
	c := New(skyrimProfile(t), Paths{
		PluginsDirectory:  dir,
		ActivePluginsFile: activeFile,
		LoadOrderFile:     loadOrderFile,
	}, newFakeProvider())

	s := &textfileStrategy{}
	consistency, err := s.checkConsistency(c)
	if err != nil {
		t.Fatalf("checkConsistency failed: %v", err)
	}
	if consistency != Inconsistent {
		t.Errorf("consistency = %v, want Inconsistent", consistency)
	}
}

func TestTextfileStrategyIsAmbiguousWhenInstalledPluginMissingFromEntries(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writePluginFile(t, dir, "Skyrim.esm", now)
	writePluginFile(t, dir, "Stray.esp", now)

	// entries deliberately omits Stray.esp, as if it were installed
	// after the load order was last read into memory.
	c := newCoreForTest(skyrimProfile(t), newFakeProvider(), []Entry{{Name: "Skyrim.esm", IsMaster: true}})
	c.Paths = Paths{PluginsDirectory: dir}

	ambiguous, err := c.IsAmbiguous()
	if err != nil {
		t.Fatalf("IsAmbiguous failed: %v", err)
	}
	if !ambiguous {
		t.Error("expected ambiguous result: Stray.esp is installed but absent from entries")
	}
}
