package loadorder

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mod-troubleshooter/loadorder/internal/loaderr"
	"github.com/mod-troubleshooter/loadorder/internal/textcodec"
)

// readPluginList reads a newline-separated plugin list file, decoding
// with textcodec (UTF-8 preferred, Windows-1252 fallback) and skipping
// blank lines and "#"-prefixed comments. A missing file yields an
// empty list, not an error.
func readPluginList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	text := textcodec.Decode(data)
	var names []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names, nil
}

// writePluginList strict-encodes names as Windows-1252 and writes them
// newline-separated to path, creating parent directories as needed.
func writePluginList(path string, names []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var sb strings.Builder
	for _, n := range names {
		sb.WriteString(n)
		sb.WriteByte('\n')
	}
	encoded, err := textcodec.StrictEncode(sb.String())
	if err != nil {
		return &loaderr.Error{Kind: loaderr.KindEncodeError, Path: path, Err: err}
	}
	return os.WriteFile(path, encoded, 0o644)
}
