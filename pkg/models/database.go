package models

import (
	"database/sql/driver"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// HashSize is the width in bytes of a stored fingerprint hash.
const HashSize = 20

// ErrInvalidHash is returned when a hash cannot be decoded.
var ErrInvalidHash = errors.New("invalid fingerprint hash")

// Hash is a fixed-width fingerprint identifier. It travels as a hex string
// and is stored as a HashSize-byte blob.
type Hash [HashSize]byte

// ParseHash decodes a 40 character hex string. Case is ignored.
func ParseHash(s string) (Hash, error) {
	var h Hash
	s = strings.TrimSpace(s)
	if len(s) != hex.EncodedLen(HashSize) {
		return h, fmt.Errorf("%w: want %d hex chars, got %d", ErrInvalidHash, hex.EncodedLen(HashSize), len(s))
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return h, nil
}

// MustParseHash is ParseHash for literals in tests and examples.
func MustParseHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

// HashFromBytes copies b into a Hash. b must be exactly HashSize bytes.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidHash, HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// String returns the upper-case hex form, the same text SQL HEX() produces.
func (h Hash) String() string {
	return strings.ToUpper(hex.EncodeToString(h[:]))
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Value stores the hash as a fixed-width blob.
func (h Hash) Value() (driver.Value, error) {
	return h[:], nil
}

// Scan accepts the blob form, and the hex form some drivers hand back for
// HEX() projections.
func (h *Hash) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		if len(v) == hex.EncodedLen(HashSize) {
			return h.UnmarshalText(v)
		}
		parsed, err := HashFromBytes(v)
		if err != nil {
			return err
		}
		*h = parsed
		return nil
	case string:
		return h.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidHash, src)
	}
}

// Fingerprint is one stored occurrence of a hash inside a song.
type Fingerprint struct {
	Hash   Hash
	SongID uint
	Offset uint32
}

// HashOffset pairs a hash with the frame offset it was sampled at.
// It is the unit of both ingestion and querying.
type HashOffset struct {
	Hash   Hash   `json:"hash"`
	Offset uint32 `json:"offset"`
}

// SongOffset is a stored occurrence without its hash.
type SongOffset struct {
	SongID uint   `json:"song_id"`
	Offset uint32 `json:"offset"`
}
