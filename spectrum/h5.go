package spectrum

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/robert-malhotra/go-spectra/hdf5"
)

// kindEnum names the variants in HDF5 files.
var kindEnum = hdf5.NewEnum(kindNames...)

// snapshotter is implemented by kinds whose DataRange may consume state,
// giving the persistence code a side-effect free view of every bin.
type snapshotter interface {
	snapshot() []Entry
}

// entriesLocked returns every nonzero bin without draining change buffers.
func (c *Consumer) entriesLocked() []Entry {
	if s, ok := c.kind.(snapshotter); ok {
		return s.snapshot()
	}
	return c.kind.DataRange(slices.Repeat([]Range{FullRange}, c.md.Dimensions))
}

// SaveH5 writes the metadata and every nonzero bin into g:
//
//	g@type
//	g/metadata@type, @dimensions, @json
//	g/data@kind
//	g/data/indices  N x dimensions uint16
//	g/data/counts   N fixed-length strings, exact decimal counts
func (c *Consumer) SaveH5(g *hdf5.Group) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := g.WriteString("type", c.md.Type); err != nil {
		return err
	}
	mg, err := g.RequireGroup("metadata")
	if err != nil {
		return err
	}
	js, err := c.md.JSON()
	if err != nil {
		return err
	}
	if err := mg.WriteString("type", c.md.Type); err != nil {
		return err
	}
	if err := hdf5.WriteAttr(mg, "dimensions", int32(c.md.Dimensions)); err != nil {
		return err
	}
	if err := mg.WriteString("json", string(js)); err != nil {
		return err
	}

	dg, err := g.RequireGroup("data")
	if err != nil {
		return err
	}
	if err := dg.WriteEnum("kind", kindEnum, int64(c.kind.Kind())); err != nil {
		return err
	}
	for _, name := range []string{"indices", "counts"} {
		if dg.HasMember(name) {
			if err := dg.Remove(name); err != nil {
				return err
			}
		}
	}

	var entries []Entry
	if c.ready {
		entries = c.entriesLocked()
	}
	dims := c.md.Dimensions
	indices := make([]uint16, 0, len(entries)*dims)
	counts := make([]string, 0, len(entries))
	for _, e := range entries {
		indices = append(indices, e.Coords...)
		counts = append(counts, e.Count.String())
	}

	ids, err := hdf5.CreateDataset[uint16](dg, "indices", hdf5.NewShape(uint64(len(entries)), uint64(dims)))
	if err != nil {
		return err
	}
	if _, err := hdf5.CreateStringDataset(dg, "counts", counts); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	return hdf5.Write(ids, indices)
}

// TypeFromH5 returns the spectrum type stored in g.
func TypeFromH5(g *hdf5.Group) (string, error) {
	return g.ReadString("type")
}

// LoadH5 restores the spectrum from g, which must name this consumer's type.
func (c *Consumer) LoadH5(g *hdf5.Group) error {
	typ, err := TypeFromH5(g)
	if err != nil {
		return err
	}
	if typ != c.md.Type {
		return fmt.Errorf("%w: %s consumer given %q group", ErrTypeMismatch, c.md.Type, typ)
	}
	mg, err := g.OpenGroup("metadata")
	if err != nil {
		return err
	}
	js, err := mg.ReadString("json")
	if err != nil {
		return err
	}
	md, err := MetadataFromJSON([]byte(js))
	if err != nil {
		return fmt.Errorf("%w: metadata json: %w", ErrMalformed, err)
	}
	dims, err := hdf5.ReadAttr[int32](mg, "dimensions")
	if err != nil {
		return err
	}
	if int(dims) != c.md.Dimensions {
		return fmt.Errorf("%w: %s stored with %d dimensions", ErrTypeMismatch, typ, dims)
	}

	dg, err := g.OpenGroup("data")
	if err != nil {
		return err
	}
	kind, err := dg.ReadEnum("kind", kindEnum)
	if err != nil {
		return err
	}
	if want := c.Kind(); SpectrumKind(kind) != want {
		return fmt.Errorf("%w: %s consumer given %s data", ErrTypeMismatch, want, SpectrumKind(kind))
	}
	entries, err := readEntries(dg, c.md.Dimensions)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restore(md.Attributes, md.Detectors, func(k Kind) error {
		for _, e := range entries {
			k.Append(e)
		}
		return nil
	})
}

func readEntries(dg *hdf5.Group, dims int) ([]Entry, error) {
	ids, err := dg.OpenDataset("indices")
	if err != nil {
		return nil, err
	}
	cds, err := dg.OpenDataset("counts")
	if err != nil {
		return nil, err
	}
	n := cds.Shape().Elements()
	if got := ids.Shape().Dims(); len(got) != 2 || got[0] != n || got[1] != uint64(dims) {
		return nil, fmt.Errorf("%w: indices shape %s for %d counts", ErrMalformed, ids.Shape(), n)
	}
	if n == 0 {
		return nil, nil
	}
	indices, err := hdf5.Read[uint16](ids)
	if err != nil {
		return nil, err
	}
	counts, err := readCounts(cds)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{
			Coords: indices[i*dims : (i+1)*dims],
			Count:  counts[i],
		}
	}
	return entries, nil
}

// readCounts reads decimal string counts. Float datasets are accepted
// for archives written before counts were stored exactly.
func readCounts(cds *hdf5.Dataset) ([]PreciseFloat, error) {
	if cds.Class() != "string" {
		vals, err := hdf5.Read[float64](cds)
		if err != nil {
			return nil, err
		}
		out := make([]PreciseFloat, len(vals))
		for i, v := range vals {
			out[i] = PreciseFromFloat(v)
		}
		return out, nil
	}
	texts, err := hdf5.ReadStrings(cds)
	if err != nil {
		return nil, err
	}
	out := make([]PreciseFloat, len(texts))
	for i, t := range texts {
		if out[i], err = decimal.NewFromString(t); err != nil {
			return nil, fmt.Errorf("%w: count %d %q", ErrMalformed, i, t)
		}
	}
	return out, nil
}
