package spectrum

import "fmt"

// SpectrumKind tags the concrete spectrum variants.
type SpectrumKind int8

// Spectrum variants.
const (
	KindOneD SpectrumKind = iota
	KindOneDLossFree
	KindTwoD
)

var kindNames = []string{"OneD", "OneDLossFree", "TwoD"}

func (k SpectrumKind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("SpectrumKind(%d)", int8(k))
}

// Entry is one bin of a sparse spectrum.
type Entry struct {
	Coords []uint16
	Count  PreciseFloat
}

// Range is an inclusive bin range along one axis.
type Range struct {
	Min, Max uint16
}

// FullRange covers every bin.
var FullRange = Range{Min: 0, Max: 0xffff}

func (r Range) contains(v uint16) bool {
	return v >= r.Min && v <= r.Max
}

// Kind is the variant-specific part of a spectrum. A Consumer serializes
// every call, so implementations need no locking of their own.
type Kind interface {
	// Kind returns the variant tag.
	Kind() SpectrumKind
	// Initialize validates channel patterns and allocates storage from md.
	Initialize(md *Metadata) error
	// RecalcAxes returns the calibrated axis values for every dimension.
	RecalcAxes(md *Metadata) [][]float64
	// PushHit feeds one hit in arrival order.
	PushHit(h Hit)
	// FlushEvents closes the pending coincidence event.
	FlushEvents()
	// PushStats feeds one channel's statistics snapshot.
	PushStats(s StatsUpdate)
	// Publish writes counters and derived attributes into md.
	Publish(md *Metadata)
	// DataAt returns the count of one bin.
	DataAt(coords []uint16) PreciseFloat
	// DataRange returns the nonzero bins inside ranges.
	DataRange(ranges []Range) []Entry
	// Append adds a count directly, bypassing dead-time handling.
	Append(e Entry)
	// DataToXML encodes the data as run-length text.
	DataToXML() string
	// DataFromXML replaces the data from run-length text.
	DataFromXML(text string) error
}

// FileCodec is implemented by kinds that read or write files.
type FileCodec interface {
	// ReadFile loads name, configuring and initializing md as needed.
	ReadFile(name, format string, md *Metadata) error
	// WriteFile writes the data into dir, naming the file after md.
	WriteFile(dir, format string, md *Metadata) error
}

// Refresher is implemented by kinds that pick up attribute changes
// without reinitializing.
type Refresher interface {
	Refresh(md *Metadata)
}

// Buffered is implemented by kinds whose DataRange consumes a buffer of
// recent changes, and so must run under the exclusive lock. Peek reads the
// whole spectrum inside ranges and leaves the buffer alone.
type Buffered interface {
	Buffered() bool
	Peek(ranges []Range) []Entry
}
