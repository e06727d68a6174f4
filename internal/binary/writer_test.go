package binary

import (
	"bytes"
	"testing"
)

func TestWriterLayout(t *testing.T) {
	buf := NewBuffer(nil)
	w := NewWriter(buf, DefaultConfig())

	steps := []func() error{
		func() error { return w.WriteUint8(0xAB) },
		func() error { return w.WriteUint16(0x0102) },
		func() error { return w.WriteUint32(0x03040506) },
		func() error { return w.WriteUintN(0x0708, 2) },
		func() error { return w.WriteZeros(3) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	want := []byte{0xAB, 0x02, 0x01, 0x06, 0x05, 0x04, 0x03, 0x08, 0x07, 0, 0, 0}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
	if w.Pos() != 12 {
		t.Errorf("Pos = %d, want 12", w.Pos())
	}
}

func TestWriterUndefinedOffset(t *testing.T) {
	buf := NewBuffer(nil)
	w := NewWriter(buf, DefaultConfig())
	if err := w.WriteUndefinedOffset(); err != nil {
		t.Fatalf("WriteUndefinedOffset failed: %v", err)
	}

	r := NewReader(buf, DefaultConfig())
	off, err := r.ReadOffset()
	if err != nil {
		t.Fatalf("ReadOffset failed: %v", err)
	}
	if !r.IsUndefinedOffset(off) {
		t.Errorf("offset 0x%x should be undefined", off)
	}
	if w.UndefinedOffset() != ^uint64(0) {
		t.Errorf("UndefinedOffset = 0x%x, want all ones", w.UndefinedOffset())
	}
}

func TestWriterAtPatchesInPlace(t *testing.T) {
	buf := NewBuffer(make([]byte, 8))
	w := NewWriter(buf, DefaultConfig())
	if err := w.At(4).WriteUint32(0xffffffff); err != nil {
		t.Fatalf("WriteUint32 failed: %v", err)
	}
	want := []byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
	// At must not move the parent writer
	if w.Pos() != 0 {
		t.Errorf("Pos = %d, want 0", w.Pos())
	}
}

func TestBufferReadPastEnd(t *testing.T) {
	buf := NewBuffer([]byte{1, 2})
	p := make([]byte, 4)
	n, err := buf.ReadAt(p, 1)
	if n != 1 {
		t.Errorf("ReadAt n = %d, want 1", n)
	}
	if err == nil {
		t.Error("expected error reading past end")
	}
	if buf.Len() != 2 {
		t.Errorf("Len = %d, want 2", buf.Len())
	}
}
