package loadorder

import (
	"errors"
	"strings"
	"testing"

	"github.com/mod-troubleshooter/loadorder/internal/loaderr"
)

func fold(a, b string) bool { return strings.EqualFold(a, b) }

func kindOf(t *testing.T, err error) loaderr.Kind {
	t.Helper()
	var le *loaderr.Error
	if !errors.As(err, &le) {
		t.Fatalf("error %v is not a *loaderr.Error", err)
	}
	return le.Kind
}

func TestValidateIndexMasterDirectlyAfterAnotherMasterIsFine(t *testing.T) {
	items := []Item{
		{Name: "Skyrim.esm", IsMaster: true},
		{Name: "Unrelated.esp"},
	}
	candidate := Item{Name: "Dawnguard.esm", IsMaster: true}
	if err := ValidateIndex(items, candidate, 1, fold); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateIndexRejectsMasterAfterNonMasterThatDoesNotDependOnIt(t *testing.T) {
	items := []Item{
		{Name: "Skyrim.esm", IsMaster: true},
		{Name: "Unrelated.esp"},
	}
	candidate := Item{Name: "Dawnguard.esm", IsMaster: true}
	err := ValidateIndex(items, candidate, 2, fold)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if kind := kindOf(t, err); kind != loaderr.KindNonMasterBeforeMaster {
		t.Errorf("kind = %v, want KindNonMasterBeforeMaster", kind)
	}
}

func TestValidateIndexRejectsMasterThatLeavesADeclaredMasterUnhoisted(t *testing.T) {
	items := []Item{
		{Name: "Skyrim.esm", IsMaster: true},
		{Name: "PatchNeeded.esp"},
	}
	candidate := Item{Name: "Dawnguard.esm", IsMaster: true, DeclaredMasters: []string{"Skyrim.esm", "PatchNeeded.esp"}}
	err := ValidateIndex(items, candidate, 1, fold)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if kind := kindOf(t, err); kind != loaderr.KindUnrepresentedHoist {
		t.Errorf("kind = %v, want KindUnrepresentedHoist", kind)
	}
}

func TestValidateIndexNonMasterBeforeDeclaredMasterIsRejected(t *testing.T) {
	items := []Item{
		{Name: "Skyrim.esm", IsMaster: true},
		{Name: "Dawnguard.esm", IsMaster: true},
	}
	candidate := Item{Name: "Patch.esp", DeclaredMasters: []string{"Dawnguard.esm"}}
	err := ValidateIndex(items, candidate, 1, fold)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if kind := kindOf(t, err); kind != loaderr.KindNonMasterBeforeMaster {
		t.Errorf("kind = %v, want KindNonMasterBeforeMaster", kind)
	}
}

func TestValidateIndexNonMasterAfterAllMastersIsFine(t *testing.T) {
	items := []Item{
		{Name: "Skyrim.esm", IsMaster: true},
		{Name: "Dawnguard.esm", IsMaster: true},
	}
	candidate := Item{Name: "Patch.esp", DeclaredMasters: []string{"Dawnguard.esm"}}
	if err := ValidateIndex(items, candidate, 2, fold); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateIndexNonMasterLeftBehindADeclaringMasterIsRejected(t *testing.T) {
	items := []Item{
		{Name: "Skyrim.esm", IsMaster: true, DeclaredMasters: []string{"Plugin.esp"}},
	}
	candidate := Item{Name: "Plugin.esp"}
	err := ValidateIndex(items, candidate, 1, fold)
	if err == nil {
		t.Fatal("expected an error when the preceding master declares candidate as one of its masters")
	}
	if kind := kindOf(t, err); kind != loaderr.KindUnrepresentedHoist {
		t.Errorf("kind = %v, want KindUnrepresentedHoist", kind)
	}
}

func TestValidateIndexNonMasterUndeclaredByPrecedingMasterIsFine(t *testing.T) {
	items := []Item{
		{Name: "Skyrim.esm", IsMaster: true},
	}
	candidate := Item{Name: "Plugin.esp"}
	if err := ValidateIndex(items, candidate, 1, fold); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateLoadOrderAcceptsWellFormedList(t *testing.T) {
	items := []Item{
		{Name: "Skyrim.esm", IsMaster: true},
		{Name: "Dawnguard.esm", IsMaster: true, DeclaredMasters: []string{"Skyrim.esm"}},
		{Name: "Patch.esp", DeclaredMasters: []string{"Dawnguard.esm"}},
		{Name: "Cosmetic.esp"},
	}
	if err := ValidateLoadOrder(items, fold); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateLoadOrderRejectsMasterAfterUnrelatedNonMaster(t *testing.T) {
	items := []Item{
		{Name: "Skyrim.esm", IsMaster: true},
		{Name: "Cosmetic.esp"},
		{Name: "Dawnguard.esm", IsMaster: true},
	}
	err := ValidateLoadOrder(items, fold)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if kind := kindOf(t, err); kind != loaderr.KindNonMasterBeforeMaster {
		t.Errorf("kind = %v, want KindNonMasterBeforeMaster", kind)
	}
}

func TestValidateLoadOrderAllowsMasterAfterItsOwnDependentNonMaster(t *testing.T) {
	// Dawnguard.esm declares Patch.esp as one of its masters, so
	// Patch.esp is legitimately hoisted above it; the list remains valid.
	items := []Item{
		{Name: "Skyrim.esm", IsMaster: true},
		{Name: "Patch.esp"},
		{Name: "Dawnguard.esm", IsMaster: true, DeclaredMasters: []string{"Skyrim.esm", "Patch.esp"}},
	}
	if err := ValidateLoadOrder(items, fold); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateLoadOrderRejectsUnrepresentedHoist(t *testing.T) {
	// Dawnguard.esm declares Cosmetic.esp as a master, but Cosmetic.esp
	// appears AFTER Dawnguard.esm instead of being hoisted above it.
	items := []Item{
		{Name: "Skyrim.esm", IsMaster: true},
		{Name: "Dawnguard.esm", IsMaster: true, DeclaredMasters: []string{"Skyrim.esm", "Cosmetic.esp"}},
		{Name: "Cosmetic.esp"},
	}
	err := ValidateLoadOrder(items, fold)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if kind := kindOf(t, err); kind != loaderr.KindUnrepresentedHoist {
		t.Errorf("kind = %v, want KindUnrepresentedHoist", kind)
	}
}

func TestValidateLoadOrderEmptyListIsValid(t *testing.T) {
	if err := ValidateLoadOrder(nil, fold); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
