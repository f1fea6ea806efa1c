package textcodec

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecodePrefersUTF8(t *testing.T) {
	if got := Decode([]byte("Blàñk.esp")); got != "Blàñk.esp" {
		t.Errorf("Decode valid UTF-8 = %q", got)
	}
}

func TestDecodeFallsBackToWindows1252(t *testing.T) {
	// 0xE0 is 'à' in Windows-1252 but is not valid standalone UTF-8.
	got := Decode([]byte{'B', 'l', 0xE0, 'n', 'k'})
	want := "Blà" + "nk"
	if got != want {
		t.Errorf("Decode(Windows-1252 bytes) = %q, want %q", got, want)
	}
}

func TestStrictEncodeRoundTrip(t *testing.T) {
	out, err := StrictEncode("Blàñk.esp")
	if err != nil {
		t.Fatalf("StrictEncode: %v", err)
	}
	if Decode(out) != "Blàñk.esp" {
		t.Errorf("round trip failed: got %q", Decode(out))
	}
}

func TestStrictEncodeFailsOnUnrepresentableCharacter(t *testing.T) {
	_, err := StrictEncode("Blȧnk.esm")
	if !errors.Is(err, ErrUnrepresentable) {
		t.Fatalf("expected ErrUnrepresentable, got %v", err)
	}
}

func TestStrictEncodeFailsOnEmbeddedNUL(t *testing.T) {
	_, err := StrictEncode("Blank\x00.esp")
	if !errors.Is(err, ErrUnrepresentable) {
		t.Fatalf("expected ErrUnrepresentable for embedded NUL, got %v", err)
	}
}

func TestStrictEncodeMatchesASCIIBytes(t *testing.T) {
	out, err := StrictEncode("Blank.esp")
	if err != nil {
		t.Fatalf("StrictEncode: %v", err)
	}
	if !bytes.Equal(out, []byte("Blank.esp")) {
		t.Errorf("ASCII round trip changed bytes: %v", out)
	}
}
