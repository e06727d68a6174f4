package binary

import (
	"encoding/binary"
	"errors"
	"slices"
	"testing"
)

func TestReaderFixedWidths(t *testing.T) {
	data := NewBuffer([]byte{
		0x42,
		0x02, 0x01,
		0x78, 0x56, 0x34, 0x12,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
	})
	r := NewReader(data, DefaultConfig())

	v8, err := r.ReadUint8()
	if err != nil {
		t.Fatalf("ReadUint8 failed: %v", err)
	}
	if v8 != 0x42 {
		t.Errorf("ReadUint8 = 0x%x, want 0x42", v8)
	}

	v16, err := r.ReadUint16()
	if err != nil {
		t.Fatalf("ReadUint16 failed: %v", err)
	}
	if v16 != 0x0102 {
		t.Errorf("ReadUint16 = 0x%x, want 0x0102", v16)
	}

	v32, err := r.ReadUint32()
	if err != nil {
		t.Fatalf("ReadUint32 failed: %v", err)
	}
	if v32 != 0x12345678 {
		t.Errorf("ReadUint32 = 0x%x, want 0x12345678", v32)
	}

	v64, err := r.ReadUint64()
	if err != nil {
		t.Fatalf("ReadUint64 failed: %v", err)
	}
	if v64 != 0x0102030405060708 {
		t.Errorf("ReadUint64 = 0x%x, want 0x0102030405060708", v64)
	}
	if r.Pos() != 15 {
		t.Errorf("Pos = %d, want 15", r.Pos())
	}
}

func TestReaderBigEndian(t *testing.T) {
	r := NewReader(NewBuffer([]byte{0x01, 0x02}), Config{ByteOrder: binary.BigEndian, OffsetSize: 8, LengthSize: 8})
	v, err := r.ReadUint16()
	if err != nil {
		t.Fatalf("ReadUint16 failed: %v", err)
	}
	if v != 0x0102 {
		t.Errorf("ReadUint16 = 0x%x, want 0x0102", v)
	}
}

func TestReaderShortRead(t *testing.T) {
	r := NewReader(NewBuffer([]byte{1, 2, 3}), DefaultConfig())
	if _, err := r.ReadUint32(); !errors.Is(err, ErrShortRead) {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
	// A failed read must not advance
	if r.Pos() != 0 {
		t.Errorf("Pos = %d, want 0", r.Pos())
	}
}

func TestReaderOffsetsAndUndefined(t *testing.T) {
	cfg := Config{ByteOrder: binary.LittleEndian, OffsetSize: 4, LengthSize: 2}
	r := NewReader(NewBuffer([]byte{0xff, 0xff, 0xff, 0xff, 0x10, 0x00}), cfg)

	off, err := r.ReadOffset()
	if err != nil {
		t.Fatalf("ReadOffset failed: %v", err)
	}
	if !r.IsUndefinedOffset(off) {
		t.Errorf("offset 0x%x should be undefined for 4-byte offsets", off)
	}

	l, err := r.ReadLength()
	if err != nil {
		t.Fatalf("ReadLength failed: %v", err)
	}
	if l != 16 {
		t.Errorf("ReadLength = %d, want 16", l)
	}
}

func TestReaderAtIndependentPosition(t *testing.T) {
	r := NewReader(NewBuffer([]byte{1, 2, 3, 4}), DefaultConfig())
	b, err := r.At(2).ReadUint8()
	if err != nil {
		t.Fatalf("ReadUint8 failed: %v", err)
	}
	if b != 3 {
		t.Errorf("ReadUint8 at 2 = %d, want 3", b)
	}
	if r.Pos() != 0 {
		t.Errorf("Pos = %d, want 0", r.Pos())
	}
}

func TestReaderBulkWords(t *testing.T) {
	buf := NewBuffer(nil)
	w := NewWriter(buf, DefaultConfig())
	if err := w.WriteUint16s([]uint16{1, 65535, 7}); err != nil {
		t.Fatalf("WriteUint16s failed: %v", err)
	}
	if err := w.WriteUint32s([]uint32{0xdeadbeef, 0}); err != nil {
		t.Fatalf("WriteUint32s failed: %v", err)
	}

	r := NewReader(buf, DefaultConfig())
	words, err := r.ReadUint16s(3)
	if err != nil {
		t.Fatalf("ReadUint16s failed: %v", err)
	}
	if !slices.Equal(words, []uint16{1, 65535, 7}) {
		t.Errorf("ReadUint16s = %v", words)
	}

	dwords, err := r.ReadUint32s(2)
	if err != nil {
		t.Fatalf("ReadUint32s failed: %v", err)
	}
	if !slices.Equal(dwords, []uint32{0xdeadbeef, 0}) {
		t.Errorf("ReadUint32s = %x", dwords)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig invalid: %v", err)
	}
	err := Config{ByteOrder: binary.LittleEndian, OffsetSize: 3, LengthSize: 8}.Validate()
	if !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}
