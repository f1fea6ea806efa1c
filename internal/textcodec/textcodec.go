// Package textcodec implements the strict Windows-1252 encode/decode rules
// that plugins.txt and loadorder.txt are read and written under.
package textcodec

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrUnrepresentable is returned by StrictEncode when a code point has no
// Windows-1252 mapping, or the string contains an embedded NUL.
var ErrUnrepresentable = errors.New("unrepresentable character")

// Decode prefers UTF-8; if the bytes are not valid UTF-8 it falls back to
// Windows-1252, which has no invalid byte sequences and so always succeeds.
func Decode(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	// Windows-1252 maps every byte value, so this decode cannot fail.
	out, _ := charmap.Windows1252.NewDecoder().Bytes(data)
	return string(out)
}

// StrictEncode encodes s as Windows-1252. It fails if s contains a code
// point with no Windows-1252 mapping, or an embedded NUL byte.
func StrictEncode(s string) ([]byte, error) {
	if bytes.ContainsRune([]byte(s), 0) {
		return nil, fmt.Errorf("encode %q: %w", s, ErrUnrepresentable)
	}

	encoder := charmap.Windows1252.NewEncoder()
	out, err := encoder.Bytes([]byte(s))
	if err != nil {
		// The only failure mode an encoder.Encoder reports for a valid
		// UTF-8 input is an unmappable rune, so any error here means the
		// string isn't representable in Windows-1252.
		return nil, fmt.Errorf("encode %q: %w", s, ErrUnrepresentable)
	}
	return out, nil
}
