package binary

import (
	"encoding/binary"
	"math/bits"
)

// lookup3 is the three-word state of Bob Jenkins' hashlittle.
type lookup3 struct{ a, b, c uint32 }

// add folds one 12-byte block into the state.
func (h *lookup3) add(block []byte) {
	h.a += binary.LittleEndian.Uint32(block[0:])
	h.b += binary.LittleEndian.Uint32(block[4:])
	h.c += binary.LittleEndian.Uint32(block[8:])
}

// mix runs the six mixing steps. Each step has the same shape on a
// rotated view of the state; six rotations restore the original order.
func (h *lookup3) mix() {
	for _, r := range [...]int{4, 6, 8, 16, 19, 4} {
		h.a -= h.c
		h.a ^= bits.RotateLeft32(h.c, r)
		h.c += h.b
		h.a, h.b, h.c = h.b, h.c, h.a
	}
}

func (h *lookup3) final() {
	h.c ^= h.b
	h.c -= bits.RotateLeft32(h.b, 14)
	h.a ^= h.c
	h.a -= bits.RotateLeft32(h.c, 11)
	h.b ^= h.a
	h.b -= bits.RotateLeft32(h.a, 25)
	h.c ^= h.b
	h.c -= bits.RotateLeft32(h.b, 16)
	h.a ^= h.c
	h.a -= bits.RotateLeft32(h.c, 4)
	h.b ^= h.a
	h.b -= bits.RotateLeft32(h.a, 14)
	h.c ^= h.b
	h.c -= bits.RotateLeft32(h.b, 24)
}

// Lookup3Checksum computes the Jenkins lookup3 (hashlittle, initval 0) hash
// that protects superblock and object header metadata.
func Lookup3Checksum(data []byte) uint32 {
	seed := 0xdeadbeef + uint32(len(data))
	h := lookup3{seed, seed, seed}
	if len(data) == 0 {
		return h.c
	}
	// The last 1-12 bytes always go through final, never mix.
	for len(data) > 12 {
		h.add(data[:12])
		h.mix()
		data = data[12:]
	}
	var tail [12]byte
	copy(tail[:], data)
	h.add(tail[:])
	h.final()
	return h.c
}

// VerifyLookup3 verifies data against an expected lookup3 checksum.
func VerifyLookup3(data []byte, expected uint32) bool {
	return Lookup3Checksum(data) == expected
}
