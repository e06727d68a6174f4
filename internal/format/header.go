package format

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-spectra/internal/binary"
)

// MessageType identifies an object header message.
type MessageType uint8

// Header message types.
const (
	MsgNil          MessageType = 0x00
	MsgDataspace    MessageType = 0x01
	MsgLinkInfo     MessageType = 0x02
	MsgDatatype     MessageType = 0x03
	MsgFillValue    MessageType = 0x05
	MsgLink         MessageType = 0x06
	MsgLayout       MessageType = 0x08
	MsgGroupInfo    MessageType = 0x0A
	MsgAttribute    MessageType = 0x0C
	MsgContinuation MessageType = 0x10
	MsgSymbolTable  MessageType = 0x11
)

var (
	headerSignature       = []byte("OHDR")
	continuationSignature = []byte("OCHK")
)

// Message is an encodable header message.
type Message interface {
	Type() MessageType
	Encode(w *binary.Writer) error
}

// RawMessage is an undecoded header message.
type RawMessage struct {
	Type  MessageType
	Flags uint8
	Body  []byte
}

// Marshal encodes a single message body.
func Marshal(cfg binary.Config, m Message) ([]byte, error) {
	buf := binary.NewBuffer(nil)
	if err := m.Encode(binary.NewWriter(buf, cfg)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeHeader builds a version 2 object header holding msgs.
func EncodeHeader(cfg binary.Config, msgs []Message) ([]byte, error) {
	var body bytes.Buffer
	for _, m := range msgs {
		data, err := Marshal(cfg, m)
		if err != nil {
			return nil, fmt.Errorf("encoding message 0x%02x: %w", m.Type(), err)
		}
		if len(data) > 0xffff {
			return nil, fmt.Errorf("%w: message 0x%02x is %d bytes", ErrUnsupported, m.Type(), len(data))
		}
		body.WriteByte(byte(m.Type()))
		body.WriteByte(byte(len(data)))
		body.WriteByte(byte(len(data) >> 8))
		// Message flags
		body.WriteByte(0)
		body.Write(data)
	}

	buf := binary.NewBuffer(nil)
	w := binary.NewWriter(buf, cfg)
	if err := w.WriteBytes(headerSignature); err != nil {
		return nil, err
	}
	// Version 2, chunk size stored in 4 bytes
	if err := w.WriteBytes([]byte{2, 0x02}); err != nil {
		return nil, err
	}
	if err := w.WriteUint32(uint32(body.Len())); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(body.Bytes()); err != nil {
		return nil, err
	}
	if err := w.WriteUint32(binary.Lookup3Checksum(buf.Bytes())); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadHeader parses the version 2 object header at r's position,
// following continuation blocks.
func ReadHeader(r *binary.Reader) ([]RawMessage, error) {
	start := r.Pos()
	sig, err := r.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, headerSignature) {
		return nil, fmt.Errorf("%w: object header at %d is not version 2", ErrUnsupportedVersion, start)
	}
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, fmt.Errorf("%w: object header version %d", ErrUnsupportedVersion, version)
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	// Timestamps
	if flags&0x20 != 0 {
		r.Skip(16)
	}
	// Attribute phase change values
	if flags&0x10 != 0 {
		r.Skip(4)
	}
	chunkSize, err := r.ReadUintN(1 << (flags & 0x03))
	if err != nil {
		return nil, err
	}
	end := r.Pos() + int64(chunkSize)
	if err := verifyChunk(r, start, end); err != nil {
		return nil, err
	}

	msgs, err := readMessages(r, end, flags&0x04 != 0)
	if err != nil {
		return nil, err
	}

	var out []RawMessage
	for i := 0; i < len(msgs); i++ {
		m := msgs[i]
		if m.Type != MsgContinuation {
			out = append(out, m)
			continue
		}
		cr := binary.NewReader(binary.NewBuffer(m.Body), r.Config())
		addr, err := cr.ReadOffset()
		if err != nil {
			return nil, err
		}
		length, err := cr.ReadLength()
		if err != nil {
			return nil, err
		}
		more, err := readContinuation(r.At(int64(addr)), int64(length), flags&0x04 != 0)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, more...)
	}
	return out, nil
}

func readContinuation(r *binary.Reader, length int64, ordered bool) ([]RawMessage, error) {
	start := r.Pos()
	sig, err := r.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, continuationSignature) {
		return nil, fmt.Errorf("%w: bad continuation signature at %d", ErrUnsupported, start)
	}
	end := start + length - 4
	if err := verifyChunk(r, start, end); err != nil {
		return nil, err
	}
	return readMessages(r, end, ordered)
}

func verifyChunk(r *binary.Reader, start, end int64) error {
	data, err := r.At(start).ReadBytes(int(end - start))
	if err != nil {
		return err
	}
	stored, err := r.At(end).ReadUint32()
	if err != nil {
		return err
	}
	if !binary.VerifyLookup3(data, stored) {
		return fmt.Errorf("%w: object header at %d", ErrChecksum, start)
	}
	return nil
}

func readMessages(r *binary.Reader, end int64, ordered bool) ([]RawMessage, error) {
	prefix := int64(4)
	if ordered {
		prefix += 2
	}
	var out []RawMessage
	// Anything shorter than a message prefix is a gap
	for r.Pos()+prefix <= end {
		typ, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		size, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		flags, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		if ordered {
			r.Skip(2)
		}
		body, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, err
		}
		if MessageType(typ) == MsgNil {
			continue
		}
		out = append(out, RawMessage{Type: MessageType(typ), Flags: flags, Body: body})
	}
	return out, nil
}

// Find returns the first message of the given type.
func Find(msgs []RawMessage, t MessageType) (RawMessage, bool) {
	for _, m := range msgs {
		if m.Type == t {
			return m, true
		}
	}
	return RawMessage{}, false
}

// BodyReader returns a reader over a message body.
func BodyReader(cfg binary.Config, body []byte) *binary.Reader {
	return binary.NewReader(binary.NewBuffer(body), cfg)
}
