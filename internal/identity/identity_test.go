package identity

import "testing"

func TestTrimGhost(t *testing.T) {
	cases := map[string]string{
		"Blank.esp":        "Blank.esp",
		"Blank.esp.ghost":  "Blank.esp",
		"Blank.esp.GHOST":  "Blank.esp",
		"ghost":            "ghost",
		".ghost":           "",
	}
	for in, want := range cases {
		if got := TrimGhost(in); got != want {
			t.Errorf("TrimGhost(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Blank.esp", "blank.esp", true},
		{"Blank.esp", "Blank.esp.ghost", true},
		{"Blank.esp.ghost", "BLANK.ESP", true},
		{"Blank.esp", "Blank2.esp", false},
		{"Blàñk.esp", "BLÀÑK.ESP", true},
		{"Blàñk.esp", "Blank.esp", false},
	}
	for _, tt := range tests {
		if got := Matches(tt.a, tt.b); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestHasPluginExtension(t *testing.T) {
	if !HasPluginExtension("Blank.esp.ghost", false) {
		t.Error("expected ghosted esp to count as a plugin")
	}
	if HasPluginExtension("Blank.esl", false) {
		t.Error("esl should not count as a plugin when light plugins are unsupported")
	}
	if !HasPluginExtension("Blank.esl", true) {
		t.Error("esl should count as a plugin when light plugins are supported")
	}
	if HasPluginExtension("readme.txt", true) {
		t.Error("txt should never count as a plugin")
	}
}
