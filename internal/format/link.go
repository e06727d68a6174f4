package format

import (
	"fmt"

	"github.com/robert-malhotra/go-spectra/internal/binary"
)

// Link is a hard link from a group to a child object header.
type Link struct {
	Name    string
	Address uint64
	// Hard is false for soft and external links, which are not followed.
	Hard bool
}

// Type implements Message.
func (*Link) Type() MessageType { return MsgLink }

// Encode implements Message.
func (l *Link) Encode(w *binary.Writer) error {
	var flags uint8
	width := 1
	if len(l.Name) > 0xff {
		flags, width = 0x01, 2
	}
	if err := w.WriteBytes([]byte{1, flags}); err != nil {
		return err
	}
	if err := w.WriteUintN(uint64(len(l.Name)), width); err != nil {
		return err
	}
	if err := w.WriteBytes([]byte(l.Name)); err != nil {
		return err
	}
	return w.WriteOffset(l.Address)
}

// DecodeLink parses a link message.
func DecodeLink(r *binary.Reader) (*Link, error) {
	head, err := r.ReadBytes(2)
	if err != nil {
		return nil, err
	}
	if head[0] != 1 {
		return nil, fmt.Errorf("%w: link version %d", ErrUnsupportedVersion, head[0])
	}
	flags := head[1]
	linkType := uint8(0)
	if flags&0x08 != 0 {
		if linkType, err = r.ReadUint8(); err != nil {
			return nil, err
		}
	}
	// Creation order
	if flags&0x04 != 0 {
		r.Skip(8)
	}
	// Character set
	if flags&0x10 != 0 {
		r.Skip(1)
	}
	n, err := r.ReadUintN(1 << (flags & 0x03))
	if err != nil {
		return nil, err
	}
	name, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	l := &Link{Name: string(name), Hard: linkType == 0}
	if l.Hard {
		if l.Address, err = r.ReadOffset(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LinkInfo marks a new-style group with compact link storage.
type LinkInfo struct{}

// Type implements Message.
func (LinkInfo) Type() MessageType { return MsgLinkInfo }

// Encode implements Message.
func (LinkInfo) Encode(w *binary.Writer) error {
	// Version 0, no flags
	if err := w.WriteBytes([]byte{0, 0}); err != nil {
		return err
	}
	// Fractal heap and name index are unused for compact storage
	if err := w.WriteUndefinedOffset(); err != nil {
		return err
	}
	return w.WriteUndefinedOffset()
}

// GroupInfo carries default group storage parameters.
type GroupInfo struct{}

// Type implements Message.
func (GroupInfo) Type() MessageType { return MsgGroupInfo }

// Encode implements Message.
func (GroupInfo) Encode(w *binary.Writer) error {
	return w.WriteBytes([]byte{0, 0})
}
