package hdf5

// WalkFunc is called for each object during traversal.
// obj is either *Group or *Dataset. Return a non-nil error to stop walking.
type WalkFunc func(path string, obj Attributed) error

// Walk visits g and everything below it, parents before children, in
// link order.
func Walk(g *Group, fn WalkFunc) error {
	if err := fn(g.Path(), g); err != nil {
		return err
	}
	for _, name := range g.Members() {
		if g.IsGroup(name) {
			sub, err := g.OpenGroup(name)
			if err != nil {
				return err
			}
			if err := Walk(sub, fn); err != nil {
				return err
			}
			continue
		}
		ds, err := g.OpenDataset(name)
		if err != nil {
			return err
		}
		if err := fn(ds.Path(), ds); err != nil {
			return err
		}
	}
	return nil
}
