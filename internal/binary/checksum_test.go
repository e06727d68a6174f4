package binary

import (
	"testing"
)

func TestLookup3KnownVectors(t *testing.T) {
	if got := Lookup3Checksum(nil); got != 0xdeadbeef {
		t.Errorf("empty input: got 0x%08x, want 0xdeadbeef", got)
	}
	if got := Lookup3Checksum([]byte("Four score and seven years ago")); got != 0x17770551 {
		t.Errorf("Four score: got 0x%08x, want 0x17770551", got)
	}
}

func TestLookup3LengthVariations(t *testing.T) {
	seen := make(map[uint32]int)
	for length := 0; length <= 24; length++ {
		data := make([]byte, length)
		for i := range data {
			data[i] = byte(i)
		}
		seen[Lookup3Checksum(data)] = length
	}
	// All 25 lengths should produce unique checksums
	if len(seen) != 25 {
		t.Errorf("expected 25 unique checksums for lengths 0-24, got %d", len(seen))
	}
}

func TestVerifyLookup3(t *testing.T) {
	data := []byte("OHDR message block")
	sum := Lookup3Checksum(data)
	if !VerifyLookup3(data, sum) {
		t.Error("VerifyLookup3 rejected its own checksum")
	}
	data[0] ^= 0xff
	if VerifyLookup3(data, sum) {
		t.Error("VerifyLookup3 accepted corrupted data")
	}
}
