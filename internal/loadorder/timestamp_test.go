package loadorder

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/metadata"
)

func morrowindProfile(t *testing.T) game.Profile {
	t.Helper()
	p, ok := game.Lookup(game.Morrowind)
	if !ok {
		t.Fatal("game.Lookup(Morrowind) failed")
	}
	return p
}

func TestTimestampStrategyLoadOrdersByModTime(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	writePluginFile(t, dir, "Morrowind.esm", base)
	writePluginFile(t, dir, "Alpha.esp", base.Add(10*time.Minute))
	writePluginFile(t, dir, "Beta.esp", base.Add(20*time.Minute))

	provider := newFakeProvider()
	provider.register("Morrowind.esm", metadata.Info{ParsedOK: true, IsMaster: true})
	provider.register("Alpha.esp", metadata.Info{ParsedOK: true})
	provider.register("Beta.esp", metadata.Info{ParsedOK: true})

	c := New(morrowindProfile(t), Paths{
		PluginsDirectory:  dir,
		ActivePluginsFile: dir + "/Morrowind.ini.fake-active",
	}, provider)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{"Morrowind.esm", "Alpha.esp", "Beta.esp"}
	got := c.Plugins()
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("entries[%d] = %q, want %q", i, got[i].Name, name)
		}
	}

	ambiguous, err := c.IsAmbiguous()
	if err != nil {
		t.Fatalf("IsAmbiguous failed: %v", err)
	}
	if ambiguous {
		t.Error("entries have distinct on-disk mtimes, should not be ambiguous")
	}
}

func TestTimestampStrategyLoadThreadsModTimeIntoEntries(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	writePluginFile(t, dir, "Morrowind.esm", base)
	writePluginFile(t, dir, "Alpha.esp", base)

	provider := newFakeProvider()
	provider.register("Morrowind.esm", metadata.Info{ParsedOK: true, IsMaster: true})
	provider.register("Alpha.esp", metadata.Info{ParsedOK: true})

	c := New(morrowindProfile(t), Paths{
		PluginsDirectory:  dir,
		ActivePluginsFile: dir + "/Morrowind.ini.fake-active",
	}, provider)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ambiguous, err := c.IsAmbiguous()
	if err != nil {
		t.Fatalf("IsAmbiguous failed: %v", err)
	}
	if !ambiguous {
		t.Error("two plugins sharing an on-disk mtime should report ambiguous after Load")
	}
}

func TestTimestampStrategySaveSpacesMtimesAndWritesActiveFile(t *testing.T) {
	dir := t.TempDir()
	writePluginFile(t, dir, "Morrowind.esm", time.Now())
	writePluginFile(t, dir, "Alpha.esp", time.Now())

	c := newCoreForTest(morrowindProfile(t), nil, []Entry{
		{Name: "Morrowind.esm", IsMaster: true, Active: true},
		{Name: "Alpha.esp", Active: true},
	})
	c.Paths = Paths{
		PluginsDirectory:  dir,
		ActivePluginsFile: dir + "/plugins.txt",
	}

	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	first, err := os.Stat(dir + "/Morrowind.esm")
	if err != nil {
		t.Fatalf("stat Morrowind.esm: %v", err)
	}
	second, err := os.Stat(dir + "/Alpha.esp")
	if err != nil {
		t.Fatalf("stat Alpha.esp: %v", err)
	}
	if !second.ModTime().After(first.ModTime()) {
		t.Errorf("Alpha.esp mtime %v should be after Morrowind.esm mtime %v", second.ModTime(), first.ModTime())
	}
	if got, want := second.ModTime().Sub(first.ModTime()), 60*time.Second; got != want {
		t.Errorf("mtime spacing = %v, want %v", got, want)
	}

	active, err := readPluginList(dir + "/plugins.txt")
	if err != nil {
		t.Fatalf("reading active file: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active list = %v, want 2 entries", active)
	}
}

func TestTimestampStrategyIsAmbiguousOnSharedModTime(t *testing.T) {
	shared := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newCoreForTest(morrowindProfile(t), nil, []Entry{
		{Name: "Morrowind.esm", IsMaster: true, ModTime: shared},
		{Name: "Alpha.esp", ModTime: shared},
	})
	ambiguous, err := c.IsAmbiguous()
	if err != nil {
		t.Fatalf("IsAmbiguous failed: %v", err)
	}
	if !ambiguous {
		t.Error("expected ambiguous result for two entries sharing an mtime")
	}
}

func TestTimestampStrategyIsNotAmbiguousWithDistinctModTimes(t *testing.T) {
	base := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newCoreForTest(morrowindProfile(t), nil, []Entry{
		{Name: "Morrowind.esm", IsMaster: true, ModTime: base},
		{Name: "Alpha.esp", ModTime: base.Add(time.Minute)},
	})
	ambiguous, err := c.IsAmbiguous()
	if err != nil {
		t.Fatalf("IsAmbiguous failed: %v", err)
	}
	if ambiguous {
		t.Error("distinct mtimes should not be reported ambiguous")
	}
}
