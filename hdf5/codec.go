package hdf5

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-spectra/internal/binary"
	"github.com/robert-malhotra/go-spectra/internal/format"
)

// encodeFile lays out the hierarchy after the superblock: dataset data
// and child headers precede their parents, the root header comes last.
func encodeFile(root *node) ([]byte, error) {
	cfg := binary.DefaultConfig()
	e := &encoder{cfg: cfg, buf: binary.NewBuffer(make([]byte, format.SuperblockSize))}
	rootAddr, err := e.writeNode(root, "/")
	if err != nil {
		return nil, err
	}
	sb := &format.Superblock{
		Version:     2,
		Config:      cfg,
		EOFAddress:  uint64(e.buf.Len()),
		RootAddress: rootAddr,
	}
	head, err := sb.Encode()
	if err != nil {
		return nil, err
	}
	if _, err := e.buf.WriteAt(head, 0); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	cfg binary.Config
	buf *binary.Buffer
}

func (e *encoder) alloc(data []byte) (uint64, error) {
	addr := uint64(e.buf.Len())
	_, err := e.buf.WriteAt(data, int64(addr))
	return addr, err
}

func (e *encoder) writeNode(n *node, path string) (uint64, error) {
	var msgs []format.Message
	if n.isGroup() {
		msgs = append(msgs, format.LinkInfo{}, format.GroupInfo{})
		for _, c := range n.children {
			addr, err := e.writeNode(c, joinPath(path, c.name))
			if err != nil {
				return 0, err
			}
			msgs = append(msgs, &format.Link{Name: c.name, Address: addr, Hard: true})
		}
	} else {
		layout := &format.Layout{Address: format.Unlimited, Size: uint64(len(n.data.raw))}
		if len(n.data.raw) > 0 {
			addr, err := e.alloc(n.data.raw)
			if err != nil {
				return 0, err
			}
			layout.Address = addr
		}
		msgs = append(msgs, n.data.shape.dataspace(), n.data.dtype, format.FillValue{}, layout)
	}
	for _, a := range n.attrs {
		msgs = append(msgs, a)
	}
	hdr, err := format.EncodeHeader(e.cfg, msgs)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return e.alloc(hdr)
}

func (f *File) load() error {
	sb, err := format.ReadSuperblock(f.osFile)
	if err != nil {
		return err
	}
	f.version = sb.Version
	r := binary.NewReader(f.osFile, sb.Config)
	f.root, err = decodeNode(r, sb.RootAddress, "", "/", 0)
	if err != nil {
		return err
	}
	f.log.Debug("loaded hdf5 file", zap.String("path", f.path), zap.Int("members", len(f.root.children)))
	return nil
}

func decodeNode(r *binary.Reader, addr uint64, name, path string, depth int) (*node, error) {
	if depth > MaxLinkDepth {
		return nil, fmt.Errorf("%s: %w", path, ErrLinkDepth)
	}
	msgs, err := format.ReadHeader(r.At(int64(addr)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg := r.Config()
	n := &node{name: name}

	for _, m := range msgs {
		switch m.Type {
		case format.MsgAttribute:
			a, err := format.DecodeAttribute(format.BodyReader(cfg, m.Body))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			n.attrs = append(n.attrs, a)
		case format.MsgLink:
			l, err := format.DecodeLink(format.BodyReader(cfg, m.Body))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			if !l.Hard {
				continue
			}
			c, err := decodeNode(r, l.Address, l.Name, joinPath(path, l.Name), depth+1)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, c)
		case format.MsgSymbolTable:
			return nil, fmt.Errorf("%s: %w: symbol table group", path, format.ErrUnsupported)
		}
	}

	if _, ok := format.Find(msgs, format.MsgLayout); ok {
		if n.data, err = decodeData(r, msgs); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return n, nil
}

func decodeData(r *binary.Reader, msgs []format.RawMessage) (*datasetData, error) {
	cfg := r.Config()
	find := func(t format.MessageType) (*binary.Reader, error) {
		m, ok := format.Find(msgs, t)
		if !ok {
			return nil, fmt.Errorf("%w: dataset without message 0x%02x", format.ErrUnsupported, t)
		}
		return format.BodyReader(cfg, m.Body), nil
	}

	br, err := find(format.MsgDataspace)
	if err != nil {
		return nil, err
	}
	space, err := format.DecodeDataspace(br)
	if err != nil {
		return nil, err
	}
	if br, err = find(format.MsgDatatype); err != nil {
		return nil, err
	}
	dt, err := format.DecodeDatatype(br)
	if err != nil {
		return nil, err
	}
	if br, err = find(format.MsgLayout); err != nil {
		return nil, err
	}
	layout, err := format.DecodeLayout(br)
	if err != nil {
		return nil, err
	}

	shape := NewShape(space.Dims...)
	if space.MaxDims != nil {
		if shape, err = NewExtendableShape(space.Dims, space.MaxDims); err != nil {
			return nil, err
		}
	}
	want := int(shape.Elements()) * int(dt.Size)

	var raw []byte
	switch {
	case layout.Class == format.LayoutCompact:
		raw = layout.Compact
	case r.IsUndefinedOffset(layout.Address):
		raw = make([]byte, want)
	default:
		if raw, err = r.At(int64(layout.Address)).ReadBytes(want); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	if len(raw) < want {
		return nil, fmt.Errorf("%w: dataset holds %d bytes, want %d", ErrOutOfRange, len(raw), want)
	}
	return &datasetData{dtype: dt, shape: shape, raw: raw[:want]}, nil
}
