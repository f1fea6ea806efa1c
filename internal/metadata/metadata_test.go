package metadata

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func writeSubrecord(buf *bytes.Buffer, signature string, data []byte) {
	buf.WriteString(signature)
	binary.Write(buf, binary.LittleEndian, uint16(len(data)))
	buf.Write(data)
}

func minimalPlugin(flags uint32) []byte {
	var recordData bytes.Buffer
	writeSubrecord(&recordData, "HEDR", []byte{
		0x9A, 0x99, 0xD9, 0x3F,
		0, 0, 0, 0,
		0x01, 0x00, 0x00, 0x00,
	})
	writeSubrecord(&recordData, "MAST", append([]byte("Skyrim.esm"), 0))
	var sizeData [8]byte
	binary.LittleEndian.PutUint64(sizeData[:], 100)
	writeSubrecord(&recordData, "DATA", sizeData[:])

	var buf bytes.Buffer
	buf.WriteString("TES4")
	binary.Write(&buf, binary.LittleEndian, uint32(recordData.Len()))
	binary.Write(&buf, binary.LittleEndian, flags)
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, uint16(44))
	binary.Write(&buf, binary.LittleEndian, uint16(0))
	buf.Write(recordData.Bytes())
	return buf.Bytes()
}

func TestCachingProviderDescribe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Dragonborn.esm")
	if err := os.WriteFile(path, minimalPlugin(1), 0o644); err != nil {
		t.Fatal(err)
	}

	provider, err := NewCachingProvider(8)
	if err != nil {
		t.Fatal(err)
	}

	info, err := provider.Describe(context.Background(), path)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if !info.ParsedOK || !info.IsMaster {
		t.Errorf("unexpected info: %+v", info)
	}
	if len(info.DeclaredMasters) != 1 || info.DeclaredMasters[0] != "Skyrim.esm" {
		t.Errorf("unexpected masters: %v", info.DeclaredMasters)
	}
}

func TestCachingProviderHitsCacheUntilFileChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Blank.esp")
	if err := os.WriteFile(path, minimalPlugin(0), 0o644); err != nil {
		t.Fatal(err)
	}

	provider, err := NewCachingProvider(8)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first, err := provider.Describe(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := provider.Describe(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("expected cached result to be stable: %+v vs %+v", first, second)
	}
}

func TestCachingProviderReportsParseFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Broken.esp")
	if err := os.WriteFile(path, []byte("not a plugin"), 0o644); err != nil {
		t.Fatal(err)
	}

	provider, err := NewCachingProvider(8)
	if err != nil {
		t.Fatal(err)
	}

	info, err := provider.Describe(context.Background(), path)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if info.ParsedOK {
		t.Error("expected ParsedOK to be false on parse failure")
	}
}
