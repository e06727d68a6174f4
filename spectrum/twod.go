package spectrum

import (
	"fmt"
	"slices"
)

// Attribute ids of 2D spectra.
const (
	AttrSymmetrized = "symmetrized"
	AttrBuffered    = "buffered"
)

// TwoDMetadata returns the prototype of a 2D coincidence matrix.
func TwoDMetadata() Metadata {
	md := NewMetadata("2D", 2, "Coincidence matrix of two channels")
	md.InputTypes = []string{"m4b", "mat"}
	md.OutputTypes = []string{"m4b", "mat", "m"}
	md.Set(NewBool(AttrSymmetrized, false).WithFlags(FlagReadOnly))
	md.Set(NewBool(AttrBuffered, false).WithDescription("return only cells changed since the last read"))
	return md
}

type cell [2]uint16

func (c cell) mirror() cell { return cell{c[1], c[0]} }

// TwoD histograms coincident energies of exactly two add-pattern channels.
type TwoD struct {
	coinc     coincidence
	chans     [2]int
	bits      int
	spectrum  map[cell]PreciseFloat
	temp      map[cell]PreciseFloat
	buffered  bool
	totalHits PreciseFloat
	timing    timing
	// asym counts mirrored cell pairs whose values differ.
	asym int
}

// NewTwoD returns an uninitialized 2D kind.
func NewTwoD() Kind {
	return &TwoD{}
}

// Kind implements Kind.
func (t *TwoD) Kind() SpectrumKind { return KindTwoD }

// Initialize implements Kind.
func (t *TwoD) Initialize(md *Metadata) error {
	add := md.Pattern(AttrPatternAdd).Channels()
	if len(add) != 2 {
		return fmt.Errorf("%w: %s needs exactly two add channels, got %d", ErrPattern, md.Type, len(add))
	}
	t.chans = [2]int{add[0], add[1]}
	t.coinc = newCoincidence(md)
	t.bits = md.Resolution()
	t.spectrum = make(map[cell]PreciseFloat)
	t.temp = make(map[cell]PreciseFloat)
	t.asym = 0
	t.totalHits = md.Precise(AttrTotalHits)
	t.coinc.events = uint64(md.Precise(AttrTotalEvents).IntPart())
	t.timing = newTiming()
	t.timing.restore(md)
	t.Refresh(md)
	return nil
}

// Refresh implements Refresher.
func (t *TwoD) Refresh(md *Metadata) {
	t.buffered = md.Bool(AttrBuffered)
	if !t.buffered {
		clear(t.temp)
	}
}

// Buffered implements Buffered.
func (t *TwoD) Buffered() bool { return t.buffered }

// RecalcAxes implements Kind.
func (t *TwoD) RecalcAxes(md *Metadata) [][]float64 {
	chans := t.chans[:]
	return [][]float64{axisFor(md, chans, 0, t.bits), axisFor(md, chans, 1, t.bits)}
}

// PushHit implements Kind.
func (t *TwoD) PushHit(h Hit) {
	t.coinc.add(h, t.addEvent)
}

// FlushEvents implements Kind.
func (t *TwoD) FlushEvents() {
	t.coinc.flush(t.addEvent)
}

func (t *TwoD) addEvent(ev Event) {
	hx, okx := ev.Hits[t.chans[0]]
	hy, oky := ev.Hits[t.chans[1]]
	if !okx || !oky {
		return
	}
	c := cell{hx.Bin(t.bits), hy.Bin(t.bits)}
	t.add(c, one)
	t.totalHits = t.totalHits.Add(one)
}

// add increments a cell, keeping the symmetry count and change buffer current.
func (t *TwoD) add(c cell, n PreciseFloat) {
	m := c.mirror()
	before := c != m && !t.spectrum[c].Equal(t.spectrum[m])
	v := t.spectrum[c].Add(n)
	if v.IsZero() {
		delete(t.spectrum, c)
	} else {
		t.spectrum[c] = v
	}
	after := c != m && !t.spectrum[c].Equal(t.spectrum[m])
	switch {
	case before && !after:
		t.asym--
	case !before && after:
		t.asym++
	}
	if t.buffered {
		t.temp[c] = v
	}
}

// Symmetrized reports whether every cell equals its mirror.
func (t *TwoD) Symmetrized() bool {
	return t.asym == 0
}

// PushStats implements Kind.
func (t *TwoD) PushStats(s StatsUpdate) {
	if s.Channel == t.chans[0] || s.Channel == t.chans[1] {
		t.timing.push(s)
	}
}

// Publish implements Kind.
func (t *TwoD) Publish(md *Metadata) {
	md.setValue(AttrTotalHits, TypePrecise, func(s *Setting) { s.SetPrecise(t.totalHits) })
	md.setValue(AttrTotalEvents, TypePrecise, func(s *Setting) { s.SetPrecise(PreciseFromInt(int64(t.coinc.events))) })
	md.setValue(AttrSymmetrized, TypeBoolean, func(s *Setting) { s.SetBool(t.Symmetrized()) })
	t.timing.publish(md)
}

// DataAt implements Kind.
func (t *TwoD) DataAt(coords []uint16) PreciseFloat {
	return t.spectrum[cell{coords[0], coords[1]}]
}

// DataRange implements Kind. In buffered mode it returns, and forgets,
// the cells changed since the previous call.
func (t *TwoD) DataRange(ranges []Range) []Entry {
	if !t.buffered {
		return cellEntries(t.spectrum, ranges)
	}
	out := cellEntries(t.temp, ranges)
	clear(t.temp)
	return out
}

// Peek implements Buffered.
func (t *TwoD) Peek(ranges []Range) []Entry {
	return cellEntries(t.spectrum, ranges)
}

func (t *TwoD) snapshot() []Entry {
	return t.Peek([]Range{FullRange, FullRange})
}

func cellEntries(src map[cell]PreciseFloat, ranges []Range) []Entry {
	out := make([]Entry, 0, len(src))
	for c, v := range src {
		if ranges[0].contains(c[0]) && ranges[1].contains(c[1]) {
			out = append(out, Entry{Coords: []uint16{c[0], c[1]}, Count: v})
		}
	}
	slices.SortFunc(out, compareEntries)
	return out
}

func compareEntries(a, b Entry) int {
	return slices.Compare(a.Coords, b.Coords)
}

// Append implements Kind.
func (t *TwoD) Append(e Entry) {
	t.add(cell{e.Coords[0], e.Coords[1]}, e.Count)
}

// DataToXML implements Kind.
func (t *TwoD) DataToXML() string {
	return encodeRuns2D(t.spectrum)
}

// DataFromXML implements Kind.
func (t *TwoD) DataFromXML(text string) error {
	cells, err := decodeRuns2D(text)
	if err != nil {
		return err
	}
	t.spectrum = make(map[cell]PreciseFloat, len(cells))
	t.asym = 0
	for c, v := range cells {
		t.add(c, v)
	}
	clear(t.temp)
	return nil
}
