package format

import (
	"bytes"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/robert-malhotra/go-spectra/internal/binary"
)

var cfg = binary.DefaultConfig()

func TestSuperblockRoundTrip(t *testing.T) {
	sb := &Superblock{Config: cfg, EOFAddress: 4096, RootAddress: 48}
	data, err := sb.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(data) != SuperblockSize {
		t.Errorf("encoded %d bytes, want %d", len(data), SuperblockSize)
	}

	got, err := ReadSuperblock(binary.NewBuffer(data))
	if err != nil {
		t.Fatalf("ReadSuperblock failed: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}
	if got.EOFAddress != 4096 || got.RootAddress != 48 {
		t.Errorf("addresses = (%d, %d), want (4096, 48)", got.EOFAddress, got.RootAddress)
	}
	if got.Config.OffsetSize != 8 {
		t.Errorf("OffsetSize = %d, want 8", got.Config.OffsetSize)
	}
}

func TestSuperblockCorruption(t *testing.T) {
	sb := &Superblock{Config: cfg, EOFAddress: 100, RootAddress: 48}
	data, err := sb.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	data[30] ^= 0x01
	if _, err := ReadSuperblock(binary.NewBuffer(data)); !errors.Is(err, ErrChecksum) {
		t.Errorf("expected ErrChecksum, got %v", err)
	}
	if _, err := ReadSuperblock(binary.NewBuffer([]byte("plain text, not hdf5"))); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("expected ErrNotHDF5, got %v", err)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	msgs := []Message{
		LinkInfo{},
		GroupInfo{},
		&Link{Name: "metadata", Address: 1234},
		&Attribute{
			Name:  "type",
			Dtype: StringType(6),
			Space: &Dataspace{},
			Data:  []byte("1D-LFC"),
		},
	}
	data, err := EncodeHeader(cfg, msgs)
	if err != nil {
		t.Fatalf("EncodeHeader failed: %v", err)
	}

	raw, err := ReadHeader(binary.NewReader(binary.NewBuffer(data), cfg))
	if err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}
	if len(raw) != 4 {
		t.Fatalf("got %d messages, want 4", len(raw))
	}

	link, err := DecodeLink(BodyReader(cfg, raw[2].Body))
	if err != nil {
		t.Fatalf("DecodeLink failed: %v", err)
	}
	if link.Name != "metadata" || link.Address != 1234 || !link.Hard {
		t.Errorf("link = %+v", link)
	}

	attr, err := DecodeAttribute(BodyReader(cfg, raw[3].Body))
	if err != nil {
		t.Fatalf("DecodeAttribute failed: %v", err)
	}
	if attr.Name != "type" {
		t.Errorf("Name = %q, want type", attr.Name)
	}
	if attr.Dtype.Class != ClassString {
		t.Errorf("Class = %v, want string", attr.Dtype.Class)
	}
	// Scalar attribute
	if len(attr.Space.Dims) != 0 {
		t.Errorf("Dims = %v, want none", attr.Space.Dims)
	}
	if !bytes.Equal(attr.Data, []byte("1D-LFC")) {
		t.Errorf("Data = %q", attr.Data)
	}
}

func TestHeaderChecksumDetected(t *testing.T) {
	data, err := EncodeHeader(cfg, []Message{GroupInfo{}})
	if err != nil {
		t.Fatalf("EncodeHeader failed: %v", err)
	}
	data[len(data)-5] ^= 0xff
	if _, err := ReadHeader(binary.NewReader(binary.NewBuffer(data), cfg)); !errors.Is(err, ErrChecksum) {
		t.Errorf("expected ErrChecksum, got %v", err)
	}
}

func TestDatatypeEnumRoundTrip(t *testing.T) {
	enum := EnumType(IntType(1, true), []EnumMember{{"OneD", 0}, {"OneDLossFree", 1}, {"TwoD", 2}, {"Invalid", -1}})
	data, err := Marshal(cfg, enum)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	got, err := DecodeDatatype(BodyReader(cfg, data))
	if err != nil {
		t.Fatalf("DecodeDatatype failed: %v", err)
	}
	if got.Class != ClassEnum || got.Size != 1 {
		t.Errorf("got class %v size %d, want enum size 1", got.Class, got.Size)
	}
	if !reflect.DeepEqual(got.Members, enum.Members) {
		t.Errorf("Members = %v, want %v", got.Members, enum.Members)
	}
}

func TestDatatypeNumeric(t *testing.T) {
	for _, dt := range []*Datatype{IntType(2, false), IntType(8, true), FloatType(4), FloatType(8)} {
		data, err := Marshal(cfg, dt)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		got, err := DecodeDatatype(BodyReader(cfg, data))
		if err != nil {
			t.Fatalf("DecodeDatatype failed: %v", err)
		}
		if got.Class != dt.Class || got.Size != dt.Size || got.Signed != dt.Signed {
			t.Errorf("got %v/%d/%v, want %v/%d/%v", got.Class, got.Size, got.Signed, dt.Class, dt.Size, dt.Signed)
		}
	}
}

func TestDataspaceMaxDims(t *testing.T) {
	ds := &Dataspace{Dims: []uint64{3, 2}, MaxDims: []uint64{Unlimited, 2}}
	data, err := Marshal(cfg, ds)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	got, err := DecodeDataspace(BodyReader(cfg, data))
	if err != nil {
		t.Fatalf("DecodeDataspace failed: %v", err)
	}
	if !slices.Equal(got.Dims, ds.Dims) {
		t.Errorf("Dims = %v, want %v", got.Dims, ds.Dims)
	}
	if !slices.Equal(got.MaxDims, ds.MaxDims) {
		t.Errorf("MaxDims = %v, want %v", got.MaxDims, ds.MaxDims)
	}
	if got.Elements() != 6 {
		t.Errorf("Elements = %d, want 6", got.Elements())
	}
}

func TestLayoutContiguous(t *testing.T) {
	data, err := Marshal(cfg, &Layout{Address: 800, Size: 64})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := DecodeLayout(BodyReader(cfg, data))
	if err != nil {
		t.Fatalf("DecodeLayout failed: %v", err)
	}
	if got.Class != LayoutContiguous || got.Address != 800 || got.Size != 64 {
		t.Errorf("layout = %+v", got)
	}
}

func TestFind(t *testing.T) {
	msgs := []RawMessage{{Type: MsgDatatype}, {Type: MsgLayout, Body: []byte{1}}}
	m, ok := Find(msgs, MsgLayout)
	if !ok || !bytes.Equal(m.Body, []byte{1}) {
		t.Errorf("Find(layout) = %v, %v", m, ok)
	}
	if _, ok := Find(msgs, MsgLink); ok {
		t.Error("Find(link) should miss")
	}
}
