package spectrum

import (
	"encoding/xml"
	"fmt"
	"io"
)

// ConsumerXML is the serialized form of a Consumer:
//
//	<Consumer type="1D"><Metadata ...>...</Metadata><Data>...</Data></Consumer>
type ConsumerXML struct {
	XMLName  xml.Name `xml:"Consumer"`
	Type     string   `xml:"type,attr"`
	Metadata Metadata `xml:"Metadata"`
	Data     string   `xml:"Data"`
}

// EncodeXML writes node as indented XML.
func EncodeXML(w io.Writer, node ConsumerXML) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(node); err != nil {
		return err
	}
	return enc.Close()
}

// DecodeXML reads one Consumer element.
func DecodeXML(r io.Reader) (ConsumerXML, error) {
	var node ConsumerXML
	if err := xml.NewDecoder(r).Decode(&node); err != nil {
		return node, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return node, nil
}

// SaveXML returns the metadata and run-length encoded data.
func (c *Consumer) SaveXML() ConsumerXML {
	c.mu.RLock()
	defer c.mu.RUnlock()
	node := ConsumerXML{Type: c.md.Type, Metadata: c.md.Clone()}
	if c.ready {
		node.Data = c.kind.DataToXML()
	}
	return node
}

// LoadXML restores the spectrum from node. The node must name this
// consumer's type.
func (c *Consumer) LoadXML(node ConsumerXML) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if node.Type != c.md.Type || node.Metadata.Type != c.md.Type {
		return fmt.Errorf("%w: %s consumer given %q node", ErrTypeMismatch, c.md.Type, node.Type)
	}
	return c.restore(node.Metadata.Attributes, node.Metadata.Detectors, func(k Kind) error {
		return k.DataFromXML(node.Data)
	})
}

// restore initializes a fresh kind from saved attributes and detectors,
// then loads the data with load. A failure leaves the consumer as it was.
// Must be called with the exclusive lock held.
func (c *Consumer) restore(attrs Setting, dets []Detector, load func(Kind) error) error {
	md := c.md.Clone()
	md.Attributes = attrs.Clone()
	md.Detectors = cloneDetectors(dets)
	return c.replace(md, func(k Kind, md *Metadata) error {
		if err := k.Initialize(md); err != nil {
			return err
		}
		return load(k)
	})
}
