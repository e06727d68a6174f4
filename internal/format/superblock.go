package format

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-spectra/internal/binary"
)

// Signature is the 8-byte HDF5 file signature.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

var (
	// ErrNotHDF5 is returned when the file signature is missing.
	ErrNotHDF5 = errors.New("not an HDF5 file")
	// ErrUnsupportedVersion is returned for structure versions outside the supported subset.
	ErrUnsupportedVersion = errors.New("unsupported version")
	// ErrChecksum is returned when a metadata checksum does not match.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrUnsupported is returned for valid HDF5 features this package does not implement.
	ErrUnsupported = errors.New("unsupported feature")
)

// Superblock is the version 2 file superblock.
type Superblock struct {
	Version     uint8
	Config      binary.Config
	BaseAddress uint64
	EOFAddress  uint64
	RootAddress uint64
}

// SuperblockSize is the encoded size of a version 2 superblock with 8-byte offsets.
const SuperblockSize = 12 + 4*8 + 4

// Encode serializes the superblock including its checksum.
func (sb *Superblock) Encode() ([]byte, error) {
	buf := binary.NewBuffer(nil)
	w := binary.NewWriter(buf, sb.Config)

	version := sb.Version
	if version < 2 {
		version = 2
	}
	if err := w.WriteBytes(Signature); err != nil {
		return nil, err
	}
	// Version, offset size, length size, consistency flags
	for _, b := range []uint8{version, uint8(sb.Config.OffsetSize), uint8(sb.Config.LengthSize), 0} {
		if err := w.WriteUint8(b); err != nil {
			return nil, err
		}
	}
	if err := w.WriteOffset(sb.BaseAddress); err != nil {
		return nil, err
	}
	// No superblock extension
	if err := w.WriteUndefinedOffset(); err != nil {
		return nil, err
	}
	if err := w.WriteOffset(sb.EOFAddress); err != nil {
		return nil, err
	}
	if err := w.WriteOffset(sb.RootAddress); err != nil {
		return nil, err
	}
	if err := w.WriteUint32(binary.Lookup3Checksum(buf.Bytes())); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadSuperblock parses the superblock at the start of r.
func ReadSuperblock(r io.ReaderAt) (*Superblock, error) {
	br := binary.NewReader(r, binary.DefaultConfig())
	sig, err := br.ReadBytes(len(Signature))
	if err != nil || !bytes.Equal(sig, Signature) {
		return nil, ErrNotHDF5
	}
	head, err := br.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	version := head[0]
	if version != 2 && version != 3 {
		return nil, fmt.Errorf("%w: superblock version %d", ErrUnsupportedVersion, version)
	}
	cfg := binary.DefaultConfig()
	cfg.OffsetSize = int(head[1])
	cfg.LengthSize = int(head[2])
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	br = binary.NewReader(r, cfg).At(br.Pos())
	sb := &Superblock{Version: version, Config: cfg}
	if sb.BaseAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if _, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.EOFAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.RootAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}

	end := br.Pos()
	stored, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	body, err := br.At(0).ReadBytes(int(end))
	if err != nil {
		return nil, err
	}
	if !binary.VerifyLookup3(body, stored) {
		return nil, fmt.Errorf("%w: superblock", ErrChecksum)
	}
	return sb, nil
}
