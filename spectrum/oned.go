package spectrum

import (
	"fmt"
	"math/bits"
)

// Attribute ids of 1D spectra.
const (
	AttrMaxChannel = "max_channel"
)

// OneDMetadata returns the prototype of a traditional MCA spectrum.
func OneDMetadata() Metadata {
	md := NewMetadata("1D", 1, "Traditional MCA spectrum")
	md.InputTypes = []string{"tka", "spe"}
	md.OutputTypes = []string{"tka", "spe"}
	md.Set(NewInt(AttrMaxChannel, 0, 0, 0).WithFlags(FlagReadOnly))
	return md
}

// OneD histograms the energy of every hit on the add-pattern channels.
type OneD struct {
	coinc     coincidence
	add       Pattern
	bits      int
	spectrum  []PreciseFloat
	maxChan   int
	totalHits PreciseFloat
	timing    timing
	// run counts hits added since the last resetRun.
	run uint64
}

// NewOneD returns an uninitialized 1D kind.
func NewOneD() Kind {
	return &OneD{}
}

// Kind implements Kind.
func (o *OneD) Kind() SpectrumKind { return KindOneD }

// Initialize implements Kind.
func (o *OneD) Initialize(md *Metadata) error {
	add := md.Pattern(AttrPatternAdd)
	if add.Count() < 1 {
		return fmt.Errorf("%w: %s needs at least one add channel", ErrPattern, md.Type)
	}
	o.add = add
	o.coinc = newCoincidence(md)
	o.bits = md.Resolution()
	o.spectrum = make([]PreciseFloat, 1<<o.bits)
	o.maxChan = 0
	o.run = 0
	o.totalHits = md.Precise(AttrTotalHits)
	o.coinc.events = uint64(md.Precise(AttrTotalEvents).IntPart())
	o.timing = newTiming()
	o.timing.restore(md)
	return nil
}

// RecalcAxes implements Kind.
func (o *OneD) RecalcAxes(md *Metadata) [][]float64 {
	return [][]float64{axisFor(md, o.add.Channels(), 0, o.bits)}
}

// axisFor returns the calibrated axis of dimension dim, using the detector
// of the dim-th selected channel when there is one.
func axisFor(md *Metadata, channels []int, dim, bits int) []float64 {
	if dim < len(channels) && channels[dim] < len(md.Detectors) {
		return md.Detectors[channels[dim]].Axis(bits)
	}
	if dim < len(md.Detectors) {
		return md.Detectors[dim].Axis(bits)
	}
	return Detector{}.Axis(bits)
}

// PushHit implements Kind.
func (o *OneD) PushHit(h Hit) {
	o.coinc.add(h, o.addEvent)
}

// FlushEvents implements Kind.
func (o *OneD) FlushEvents() {
	o.coinc.flush(o.addEvent)
}

func (o *OneD) addEvent(ev Event) {
	for ch, h := range ev.Hits {
		if !o.add.Relevant(ch) {
			continue
		}
		bin := int(h.Bin(o.bits))
		o.spectrum[bin] = o.spectrum[bin].Add(one)
		o.totalHits = o.totalHits.Add(one)
		o.run++
		if bin > o.maxChan {
			o.maxChan = bin
		}
	}
}

// PushStats implements Kind.
func (o *OneD) PushStats(s StatsUpdate) {
	if o.add.Relevant(s.Channel) {
		o.timing.push(s)
	}
}

// Publish implements Kind.
func (o *OneD) Publish(md *Metadata) {
	md.setValue(AttrTotalHits, TypePrecise, func(s *Setting) { s.SetPrecise(o.totalHits) })
	md.setValue(AttrTotalEvents, TypePrecise, func(s *Setting) { s.SetPrecise(PreciseFromInt(int64(o.coinc.events))) })
	md.setValue(AttrMaxChannel, TypeInteger, func(s *Setting) { s.SetInt(int64(o.maxChan)) })
	o.timing.publish(md)
}

// DataAt implements Kind.
func (o *OneD) DataAt(coords []uint16) PreciseFloat {
	if int(coords[0]) >= len(o.spectrum) {
		return zero
	}
	return o.spectrum[coords[0]]
}

// DataRange implements Kind.
func (o *OneD) DataRange(ranges []Range) []Entry {
	return rangeEntries(o.spectrum, ranges[0])
}

func rangeEntries(vals []PreciseFloat, r Range) []Entry {
	var out []Entry
	for i := int(r.Min); i <= int(r.Max) && i < len(vals); i++ {
		if !vals[i].IsZero() {
			out = append(out, Entry{Coords: []uint16{uint16(i)}, Count: vals[i]})
		}
	}
	return out
}

// Append implements Kind. Totals are left to the metadata being restored.
func (o *OneD) Append(e Entry) {
	bin := int(e.Coords[0])
	if bin >= len(o.spectrum) {
		return
	}
	o.spectrum[bin] = o.spectrum[bin].Add(e.Count)
	if bin > o.maxChan && !o.spectrum[bin].IsZero() {
		o.maxChan = bin
	}
}

// DataToXML implements Kind.
func (o *OneD) DataToXML() string {
	return encodeRuns1D(o.spectrum)
}

// DataFromXML implements Kind.
func (o *OneD) DataFromXML(text string) error {
	vals, err := decodeRuns1D(text, len(o.spectrum))
	if err != nil {
		return err
	}
	o.spectrum = vals
	o.maxChan = lastNonZero(vals)
	return nil
}

// ReadFile implements FileCodec.
func (o *OneD) ReadFile(name, format string, md *Metadata) error {
	sp, err := readText1D(name, format)
	if err != nil {
		return err
	}
	if err := o.loadText(sp, md); err != nil {
		return err
	}
	o.spectrum = padTo(sp.counts, len(o.spectrum))
	o.maxChan = lastNonZero(o.spectrum)
	o.totalHits = sum(o.spectrum)
	return nil
}

// loadText configures md for a spectrum read from a text file and
// initializes the kind.
func (o *OneD) loadText(sp text1D, md *Metadata) error {
	md.setValue(AttrResolution, TypeInteger, func(s *Setting) { s.SetInt(int64(bitsFor(len(sp.counts)))) })
	if sp.name != "" {
		md.setValue(AttrName, TypeText, func(s *Setting) { s.Value = sp.name })
	}
	if md.Pattern(AttrPatternAdd).Count() == 0 {
		md.setValue(AttrPatternAdd, TypePattern, func(s *Setting) { s.SetPattern(NewPattern(1, 0)) })
	}
	if err := o.Initialize(md); err != nil {
		return err
	}
	o.timing.set(sp.real, sp.live)
	return nil
}

// WriteFile implements FileCodec.
func (o *OneD) WriteFile(dir, format string, md *Metadata) error {
	return writeText1D(dir, format, md, o.spectrum)
}

func bitsFor(n int) int {
	if n <= 1 {
		return 4
	}
	b := bits.Len(uint(n - 1))
	return min(max(b, 4), 16)
}

func padTo(vals []PreciseFloat, n int) []PreciseFloat {
	out := make([]PreciseFloat, n)
	copy(out, vals)
	return out
}

func lastNonZero(vals []PreciseFloat) int {
	for i := len(vals) - 1; i >= 0; i-- {
		if !vals[i].IsZero() {
			return i
		}
	}
	return 0
}

func sum(vals []PreciseFloat) PreciseFloat {
	total := zero
	for _, v := range vals {
		total = total.Add(v)
	}
	return total
}
