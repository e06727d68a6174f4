package hdf5

import "github.com/robert-malhotra/go-spectra/internal/format"

// node is one object in the in-memory hierarchy. Groups have children,
// datasets have data.
type node struct {
	name     string
	attrs    []*format.Attribute
	children []*node
	data     *datasetData
}

type datasetData struct {
	dtype *format.Datatype
	shape Shape
	raw   []byte
}

func (n *node) isGroup() bool { return n.data == nil }

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (n *node) removeChild(name string) bool {
	for i, c := range n.children {
		if c.name == name {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return true
		}
	}
	return false
}

func (n *node) attr(name string) *format.Attribute {
	for _, a := range n.attrs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// setAttr replaces an attribute of the same name or appends a new one.
func (n *node) setAttr(a *format.Attribute) {
	for i, old := range n.attrs {
		if old.Name == a.Name {
			n.attrs[i] = a
			return
		}
	}
	n.attrs = append(n.attrs, a)
}

func (n *node) removeAttr(name string) bool {
	for i, a := range n.attrs {
		if a.Name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return true
		}
	}
	return false
}
