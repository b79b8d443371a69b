package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const testHex = "08d3c833b71c60a7b620322ac0c0aba7bf5a3e73"

func TestParseHash(t *testing.T) {
	h, err := ParseHash(testHex)
	if err != nil {
		t.Fatalf("ParseHash failed: %v", err)
	}
	if h.String() != strings.ToUpper(testHex) {
		t.Errorf("Expected %s, got %s", strings.ToUpper(testHex), h.String())
	}

	upper, err := ParseHash(strings.ToUpper(testHex))
	if err != nil {
		t.Fatalf("ParseHash upper failed: %v", err)
	}
	if upper != h {
		t.Error("Expected case-insensitive parsing to give equal hashes")
	}
}

func TestParseHashInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short", "08d3c8"},
		{"long", testHex + "00"},
		{"not hex", strings.Repeat("zz", HashSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHash(tt.input)
			if !errors.Is(err, ErrInvalidHash) {
				t.Errorf("Expected ErrInvalidHash, got %v", err)
			}
		})
	}
}

func TestHashScan(t *testing.T) {
	want := MustParseHash(testHex)

	var fromBlob Hash
	if err := fromBlob.Scan(want[:]); err != nil {
		t.Fatalf("Scan blob failed: %v", err)
	}
	if fromBlob != want {
		t.Error("Blob scan mismatch")
	}

	var fromHex Hash
	if err := fromHex.Scan(testHex); err != nil {
		t.Fatalf("Scan hex failed: %v", err)
	}
	if fromHex != want {
		t.Error("Hex scan mismatch")
	}

	var bad Hash
	if err := bad.Scan(int64(7)); err == nil {
		t.Error("Expected error scanning an integer")
	}
}

func TestHashValue(t *testing.T) {
	h := MustParseHash(testHex)
	v, err := h.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	b, ok := v.([]byte)
	if !ok {
		t.Fatalf("Expected []byte, got %T", v)
	}
	if !bytes.Equal(b, h[:]) || len(b) != HashSize {
		t.Errorf("Unexpected blob %x", b)
	}
}

func TestHashOffsetJSON(t *testing.T) {
	in := HashOffset{Hash: MustParseHash(testHex), Offset: 42}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), strings.ToUpper(testHex)) {
		t.Errorf("Expected hex hash in %s", data)
	}

	var out HashOffset
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out != in {
		t.Errorf("Expected %+v, got %+v", in, out)
	}
}
