// Package identity implements case-insensitive, ghost-aware plugin filename
// comparison and normalization.
package identity

import (
	"strings"

	"golang.org/x/text/cases"
)

const ghostSuffix = ".ghost"

var foldASCII = cases.Fold()

// TrimGhost strips a single trailing ".ghost" suffix, case-insensitively.
func TrimGhost(name string) string {
	if len(name) < len(ghostSuffix) {
		return name
	}
	tail := name[len(name)-len(ghostSuffix):]
	if !strings.EqualFold(tail, ghostSuffix) {
		return name
	}
	return name[:len(name)-len(ghostSuffix)]
}

// IsGhosted reports whether name carries a trailing ".ghost" suffix.
func IsGhosted(name string) bool {
	return len(name) >= len(ghostSuffix) && strings.EqualFold(name[len(name)-len(ghostSuffix):], ghostSuffix)
}

// Matches reports whether a and b identify the same plugin: equal after
// trimming any ".ghost" suffix and casefolding. ASCII names fold with a
// cheap EqualFold comparison; names containing non-ASCII bytes fall back to
// Unicode simple casefolding via golang.org/x/text/cases so accented
// filenames (e.g. "Blàñk.esp") still compare correctly.
func Matches(a, b string) bool {
	a, b = TrimGhost(a), TrimGhost(b)
	if isASCII(a) && isASCII(b) {
		return strings.EqualFold(a, b)
	}
	return foldASCII.String(a) == foldASCII.String(b)
}

// Key returns a canonical, ghost-trimmed, casefolded string suitable for use
// as a map key when identity equality (not display) is what matters.
func Key(name string) string {
	name = TrimGhost(name)
	if isASCII(name) {
		return strings.ToLower(name)
	}
	return foldASCII.String(name)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// pluginExtensions lists the recognized non-light plugin extensions; the
// light extension is added per-game by HasPluginExtension.
var pluginExtensions = []string{".esp", ".esm"}

// HasPluginExtension reports whether name (after stripping any ".ghost"
// suffix) has an extension the game recognizes as a plugin. lightSupported
// additionally admits ".esl".
func HasPluginExtension(name string, lightSupported bool) bool {
	name = TrimGhost(name)
	lower := strings.ToLower(name)
	for _, ext := range pluginExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return lightSupported && strings.HasSuffix(lower, ".esl")
}
