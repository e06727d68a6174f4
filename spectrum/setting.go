package spectrum

import (
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// SettingType names the value type held by a Setting.
type SettingType string

// Setting value types.
const (
	TypeStem     SettingType = "stem"
	TypeBoolean  SettingType = "boolean"
	TypeInteger  SettingType = "integer"
	TypeFloating SettingType = "floating"
	TypePrecise  SettingType = "precise"
	TypeText     SettingType = "text"
	TypePattern  SettingType = "pattern"
	TypeDuration SettingType = "duration"
	TypeTime     SettingType = "time"
)

// Setting flags.
const (
	FlagReadOnly = "readonly"
	FlagHidden   = "hidden"
	FlagPreset   = "preset"
)

// Setting is one node of a typed, constrained configuration tree. Values
// are held in a canonical text form; the typed accessors parse and format
// it. Stems group other settings in Branches.
type Setting struct {
	ID          string      `xml:"id,attr" json:"id"`
	Type        SettingType `xml:"type,attr" json:"type"`
	Value       string      `xml:"value,attr,omitempty" json:"value,omitempty"`
	Min         float64     `xml:"min,attr,omitempty" json:"min,omitempty"`
	Max         float64     `xml:"max,attr,omitempty" json:"max,omitempty"`
	Step        float64     `xml:"step,attr,omitempty" json:"step,omitempty"`
	Unit        string      `xml:"unit,attr,omitempty" json:"unit,omitempty"`
	Description string      `xml:"description,omitempty" json:"description,omitempty"`
	Flags       []string    `xml:"flag,omitempty" json:"flags,omitempty"`
	Branches    []Setting   `xml:"Setting,omitempty" json:"branches,omitempty"`
}

// NewStem returns an empty stem.
func NewStem(id string, branches ...Setting) Setting {
	return Setting{ID: id, Type: TypeStem, Branches: branches}
}

// NewBool returns a boolean setting.
func NewBool(id string, v bool) Setting {
	s := Setting{ID: id, Type: TypeBoolean}
	s.SetBool(v)
	return s
}

// NewInt returns an integer setting bounded by [min, max].
func NewInt(id string, v int64, min, max int64) Setting {
	s := Setting{ID: id, Type: TypeInteger, Min: float64(min), Max: float64(max), Step: 1}
	s.SetInt(v)
	return s
}

// NewFloat returns a floating setting bounded by [min, max].
func NewFloat(id string, v, min, max float64) Setting {
	s := Setting{ID: id, Type: TypeFloating, Min: min, Max: max}
	s.SetFloat(v)
	return s
}

// NewPrecise returns an arbitrary-precision setting.
func NewPrecise(id string, v PreciseFloat) Setting {
	s := Setting{ID: id, Type: TypePrecise}
	s.SetPrecise(v)
	return s
}

// NewText returns a text setting.
func NewText(id, v string) Setting {
	return Setting{ID: id, Type: TypeText, Value: v}
}

// NewPatternSetting returns a pattern setting.
func NewPatternSetting(id string, p Pattern) Setting {
	s := Setting{ID: id, Type: TypePattern}
	s.SetPattern(p)
	return s
}

// NewDuration returns a duration setting.
func NewDuration(id string, d time.Duration) Setting {
	s := Setting{ID: id, Type: TypeDuration}
	s.SetDuration(d)
	return s
}

// NewTime returns a timestamp setting.
func NewTime(id string, t time.Time) Setting {
	s := Setting{ID: id, Type: TypeTime}
	s.SetTime(t)
	return s
}

// HasFlag reports whether flag is set.
func (s Setting) HasFlag(flag string) bool {
	return slices.Contains(s.Flags, flag)
}

// WithFlags returns a copy of s with flags added.
func (s Setting) WithFlags(flags ...string) Setting {
	for _, f := range flags {
		if !s.HasFlag(f) {
			s.Flags = append(s.Flags, f)
		}
	}
	return s
}

// WithUnit returns a copy of s with the unit set.
func (s Setting) WithUnit(unit string) Setting {
	s.Unit = unit
	return s
}

// WithDescription returns a copy of s with the description set.
func (s Setting) WithDescription(d string) Setting {
	s.Description = d
	return s
}

func (s Setting) bounded() bool {
	return s.Max > s.Min
}

func (s Setting) clamp(v float64) float64 {
	if !s.bounded() {
		return v
	}
	return min(max(v, s.Min), s.Max)
}

// Bool returns the boolean value.
func (s Setting) Bool() bool {
	v, _ := strconv.ParseBool(s.Value)
	return v
}

// SetBool sets the boolean value.
func (s *Setting) SetBool(v bool) {
	s.Value = strconv.FormatBool(v)
}

// Int returns the integer value.
func (s Setting) Int() int64 {
	v, err := strconv.ParseInt(s.Value, 10, 64)
	if err != nil {
		f, _ := strconv.ParseFloat(s.Value, 64)
		return int64(f)
	}
	return v
}

// SetInt sets the integer value, clamped to the bounds.
func (s *Setting) SetInt(v int64) {
	if s.bounded() {
		v = int64(s.clamp(float64(v)))
	}
	s.Value = strconv.FormatInt(v, 10)
}

// Float returns the floating value.
func (s Setting) Float() float64 {
	v, _ := strconv.ParseFloat(s.Value, 64)
	return v
}

// SetFloat sets the floating value, clamped to the bounds.
func (s *Setting) SetFloat(v float64) {
	s.Value = strconv.FormatFloat(s.clamp(v), 'g', -1, 64)
}

// Precise returns the arbitrary-precision value.
func (s Setting) Precise() PreciseFloat {
	v, err := decimal.NewFromString(s.Value)
	if err != nil {
		return zero
	}
	return v
}

// SetPrecise sets the arbitrary-precision value.
func (s *Setting) SetPrecise(v PreciseFloat) {
	s.Value = v.String()
}

// Pattern returns the pattern value.
func (s Setting) Pattern() Pattern {
	var p Pattern
	if err := p.UnmarshalText([]byte(s.Value)); err != nil {
		return Pattern{}
	}
	return p
}

// SetPattern sets the pattern value.
func (s *Setting) SetPattern(p Pattern) {
	s.Value = p.String()
}

// Duration returns the duration value.
func (s Setting) Duration() time.Duration {
	d, _ := time.ParseDuration(s.Value)
	return d
}

// SetDuration sets the duration value.
func (s *Setting) SetDuration(d time.Duration) {
	s.Value = d.String()
}

// Time returns the timestamp value.
func (s Setting) Time() time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s.Value)
	return t
}

// SetTime sets the timestamp value.
func (s *Setting) SetTime(t time.Time) {
	s.Value = t.UTC().Format(time.RFC3339Nano)
}

// Find returns a pointer to the setting with id in the tree rooted at s.
func (s *Setting) Find(id string) *Setting {
	if s.ID == id {
		return s
	}
	for i := range s.Branches {
		if f := s.Branches[i].Find(id); f != nil {
			return f
		}
	}
	return nil
}

// Put replaces the value of the setting with the same id, keeping its
// bounds, or appends s as a new branch of the stem.
func (st *Setting) Put(s Setting) {
	if old := st.Find(s.ID); old != nil && old != st {
		if old.Type == TypeStem {
			for _, b := range s.Branches {
				old.Put(b)
			}
			return
		}
		old.assign(s)
		return
	}
	st.Branches = append(st.Branches, s.Clone())
}

// assign copies the value of s, clamping numerics to the existing bounds.
func (s *Setting) assign(from Setting) {
	switch s.Type {
	case TypeInteger:
		s.SetInt(from.Int())
	case TypeFloating:
		s.SetFloat(from.Float())
	default:
		s.Value = from.Value
	}
	if len(from.Flags) > 0 {
		s.Flags = append([]string(nil), from.Flags...)
	}
}

// Clone returns a deep copy.
func (s Setting) Clone() Setting {
	s.Flags = slices.Clone(s.Flags)
	if s.Branches != nil {
		branches := make([]Setting, len(s.Branches))
		for i, b := range s.Branches {
			branches[i] = b.Clone()
		}
		s.Branches = branches
	}
	return s
}
