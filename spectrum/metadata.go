package spectrum

import (
	"encoding/json"
	"encoding/xml"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Attribute ids shared by every spectrum type.
const (
	AttrName        = "name"
	AttrVisible     = "visible"
	AttrResolution  = "resolution"
	AttrStartTime   = "start_time"
	AttrRealTime    = "real_time"
	AttrLiveTime    = "live_time"
	AttrTotalHits   = "total_hits"
	AttrTotalEvents = "total_events"
	AttrCoincWindow = "coinc_window"
	AttrPatternCoin = "pattern_coinc"
	AttrPatternAnti = "pattern_anti"
	AttrPatternAdd  = "pattern_add"
)

// Metadata describes one spectrum: its type, dimensionality, supported
// file formats, configurable attributes, and detector calibrations.
type Metadata struct {
	XMLName     xml.Name   `xml:"Metadata" json:"-"`
	Type        string     `xml:"type,attr" json:"type"`
	Dimensions  int        `xml:"dimensions,attr" json:"dimensions"`
	Description string     `xml:"description,omitempty" json:"description,omitempty"`
	InputTypes  []string   `xml:"input_types>type,omitempty" json:"input_types,omitempty"`
	OutputTypes []string   `xml:"output_types>type,omitempty" json:"output_types,omitempty"`
	Attributes  Setting    `xml:"Setting" json:"attributes"`
	Detectors   []Detector `xml:"Detectors>Detector,omitempty" json:"detectors,omitempty"`
}

// NewMetadata returns metadata with the attributes every spectrum carries.
func NewMetadata(typ string, dims int, description string) Metadata {
	return Metadata{
		Type:        typ,
		Dimensions:  dims,
		Description: description,
		Attributes: NewStem("attributes",
			NewText(AttrName, ""),
			NewBool(AttrVisible, false),
			NewInt(AttrResolution, 14, 4, 16).WithUnit("bits"),
			NewTime(AttrStartTime, zeroTime).WithFlags(FlagReadOnly),
			NewFloat(AttrRealTime, 0, 0, 0).WithUnit("s").WithFlags(FlagReadOnly),
			NewFloat(AttrLiveTime, 0, 0, 0).WithUnit("s").WithFlags(FlagReadOnly),
			NewPrecise(AttrTotalHits, zero).WithFlags(FlagReadOnly),
			NewPrecise(AttrTotalEvents, zero).WithFlags(FlagReadOnly),
			NewInt(AttrCoincWindow, 3, 0, 1<<30).WithUnit("ticks"),
			NewPatternSetting(AttrPatternCoin, Pattern{}),
			NewPatternSetting(AttrPatternAnti, Pattern{}),
			NewPatternSetting(AttrPatternAdd, Pattern{}),
		),
	}
}

// Get returns the attribute with id.
func (md Metadata) Get(id string) (Setting, bool) {
	if s := md.Attributes.Find(id); s != nil {
		return *s, true
	}
	return Setting{}, false
}

// Set stores an attribute, keeping the bounds of an existing one.
func (md *Metadata) Set(s Setting) {
	md.Attributes.Put(s)
}

// SetAttributes merges every branch of stem into the attributes.
func (md *Metadata) SetAttributes(stem Setting) {
	for _, b := range stem.Branches {
		md.Attributes.Put(b)
	}
}

// Int returns an integer attribute, or 0.
func (md Metadata) Int(id string) int64 {
	s, _ := md.Get(id)
	return s.Int()
}

// Float returns a floating attribute, or 0.
func (md Metadata) Float(id string) float64 {
	s, _ := md.Get(id)
	return s.Float()
}

// Bool returns a boolean attribute, or false.
func (md Metadata) Bool(id string) bool {
	s, _ := md.Get(id)
	return s.Bool()
}

// Text returns a text attribute, or "".
func (md Metadata) Text(id string) string {
	s, _ := md.Get(id)
	return s.Value
}

// Pattern returns a pattern attribute, or an empty pattern.
func (md Metadata) Pattern(id string) Pattern {
	s, _ := md.Get(id)
	return s.Pattern()
}

// Precise returns an arbitrary-precision attribute, or zero.
func (md Metadata) Precise(id string) PreciseFloat {
	s, _ := md.Get(id)
	return s.Precise()
}

// setValue updates the value of an existing attribute without touching
// its flags or bounds, adding it when absent.
func (md *Metadata) setValue(id string, typ SettingType, fn func(*Setting)) {
	s := md.Attributes.Find(id)
	if s == nil {
		md.Attributes.Branches = append(md.Attributes.Branches, Setting{ID: id, Type: typ})
		s = &md.Attributes.Branches[len(md.Attributes.Branches)-1]
	}
	fn(s)
}

// Resolution returns the bits per axis.
func (md Metadata) Resolution() int {
	return int(md.Int(AttrResolution))
}

// Name returns the user-facing spectrum name.
func (md Metadata) Name() string {
	return md.Text(AttrName)
}

// SupportsInput reports whether format is a readable extension.
func (md Metadata) SupportsInput(format string) bool {
	return containsFold(md.InputTypes, format)
}

// SupportsOutput reports whether format is a writable extension.
func (md Metadata) SupportsOutput(format string) bool {
	return containsFold(md.OutputTypes, format)
}

func containsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(v string) bool { return strings.EqualFold(v, s) })
}

// Clone returns a deep copy.
func (md Metadata) Clone() Metadata {
	md.InputTypes = slices.Clone(md.InputTypes)
	md.OutputTypes = slices.Clone(md.OutputTypes)
	md.Attributes = md.Attributes.Clone()
	if md.Detectors != nil {
		dets := make([]Detector, len(md.Detectors))
		for i, d := range md.Detectors {
			dets[i] = d.clone()
		}
		md.Detectors = dets
	}
	return md
}

// Fingerprint hashes the parts of the metadata that shape the axes:
// resolution, add pattern and detectors.
func (md Metadata) Fingerprint() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(md.Type)
	_, _ = h.WriteString(md.Text(AttrResolution))
	_, _ = h.WriteString(md.Text(AttrPatternAdd))
	if b, err := json.Marshal(md.Detectors); err == nil {
		_, _ = h.Write(b)
	}
	return h.Sum64()
}

// JSON returns the metadata as JSON.
func (md Metadata) JSON() ([]byte, error) {
	return json.Marshal(md)
}

// MetadataFromJSON parses JSON produced by Metadata.JSON.
func MetadataFromJSON(b []byte) (Metadata, error) {
	var md Metadata
	err := json.Unmarshal(b, &md)
	return md, err
}
