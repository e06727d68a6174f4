package hdf5

import (
	"errors"
	"fmt"
)

// Group is a container of groups and datasets.
type Group struct {
	Location
}

// CreateGroup creates a direct child group. It fails if name is taken.
func (g *Group) CreateGroup(name string) (*Group, error) {
	where := joinPath(g.path, name)
	if err := validName(name); err != nil {
		return nil, wrap("create group", where, err)
	}
	if err := g.file.checkWritable("create group", where); err != nil {
		return nil, err
	}
	g.file.mu.Lock()
	defer g.file.mu.Unlock()
	if g.node.child(name) != nil {
		return nil, wrap("create group", where, ErrExists)
	}
	n := &node{name: name}
	g.node.children = append(g.node.children, n)
	return &Group{Location{file: g.file, node: n, path: where}}, nil
}

// RequireGroup opens the child group name, creating it if absent.
func (g *Group) RequireGroup(name string) (*Group, error) {
	sub, err := g.OpenGroup(name)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return g.CreateGroup(name)
}

// OpenGroup opens a group by path relative to g. Absolute paths are
// resolved from the root.
func (g *Group) OpenGroup(relPath string) (*Group, error) {
	n, p, err := g.resolve(relPath)
	if err != nil {
		return nil, wrap("open group", p, err)
	}
	if !n.isGroup() {
		return nil, wrap("open group", p, ErrNotGroup)
	}
	return &Group{Location{file: g.file, node: n, path: p}}, nil
}

// OpenDataset opens a dataset by path relative to g.
func (g *Group) OpenDataset(relPath string) (*Dataset, error) {
	n, p, err := g.resolve(relPath)
	if err != nil {
		return nil, wrap("open dataset", p, err)
	}
	if n.isGroup() {
		return nil, wrap("open dataset", p, ErrNotDataset)
	}
	return &Dataset{Location{file: g.file, node: n, path: p}}, nil
}

// Members returns child names in link order.
func (g *Group) Members() []string {
	g.file.mu.Lock()
	defer g.file.mu.Unlock()
	names := make([]string, len(g.node.children))
	for i, c := range g.node.children {
		names[i] = c.name
	}
	return names
}

// HasMember reports whether name is a direct child.
func (g *Group) HasMember(name string) bool {
	g.file.mu.Lock()
	defer g.file.mu.Unlock()
	return g.node.child(name) != nil
}

// IsGroup reports whether the direct child name is a group.
func (g *Group) IsGroup(name string) bool {
	g.file.mu.Lock()
	defer g.file.mu.Unlock()
	c := g.node.child(name)
	return c != nil && c.isGroup()
}

// Remove unlinks a direct child.
func (g *Group) Remove(name string) error {
	where := joinPath(g.path, name)
	if err := g.file.checkWritable("remove", where); err != nil {
		return err
	}
	g.file.mu.Lock()
	defer g.file.mu.Unlock()
	if !g.node.removeChild(name) {
		return wrap("remove", where, ErrNotFound)
	}
	return nil
}

func (g *Group) resolve(relPath string) (*node, string, error) {
	g.file.mu.Lock()
	defer g.file.mu.Unlock()
	if g.file.closed {
		return nil, relPath, ErrClosed
	}
	n, p := g.node, g.path
	if len(relPath) > 0 && relPath[0] == '/' {
		n, p = g.file.root, "/"
	}
	for _, part := range SplitPath(relPath) {
		if !n.isGroup() {
			return nil, p, fmt.Errorf("%w: %s is a dataset", ErrNotGroup, p)
		}
		p = joinPath(p, part)
		if n = n.child(part); n == nil {
			return nil, p, ErrNotFound
		}
	}
	return n, p, nil
}
