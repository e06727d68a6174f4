package spectrum

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrReadOnlyAttribute is returned when a caller sets a read-only attribute.
var ErrReadOnlyAttribute = errors.New("attribute is read-only")

// Consumer owns one spectrum. Reads take a shared lock and may run
// concurrently; every mutation is serialized under the exclusive lock.
type Consumer struct {
	mu      sync.RWMutex
	id      uuid.UUID
	md      Metadata
	kind    Kind
	newKind Constructor
	ready   bool
	axes    [][]float64
	axesFP  uint64
	changed bool

	log       *zap.Logger
	telemetry *consumerTelemetry
}

func newConsumer(proto Metadata, ctor Constructor, log *zap.Logger, ct *consumerTelemetry) *Consumer {
	id := uuid.New()
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{
		id:        id,
		md:        proto.Clone(),
		kind:      ctor(),
		newKind:   ctor,
		log:       log.With(zap.String("type", proto.Type), zap.String("consumer_id", id.String())),
		telemetry: ct,
	}
}

// ID returns the consumer's unique id.
func (c *Consumer) ID() uuid.UUID { return c.id }

// Type returns the spectrum type name.
func (c *Consumer) Type() string { return c.md.Type }

// Dimensions returns the number of axes.
func (c *Consumer) Dimensions() int { return c.md.Dimensions }

// Kind returns the spectrum variant.
func (c *Consumer) Kind() SpectrumKind {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kind.Kind()
}

// Ready reports whether the spectrum initialized successfully and accepts data.
func (c *Consumer) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Changed reports whether the spectrum changed since the last ResetChanged.
func (c *Consumer) Changed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.changed
}

// ResetChanged clears the changed flag.
func (c *Consumer) ResetChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changed = false
}

// Metadata returns a copy of the metadata.
func (c *Consumer) Metadata() Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.md.Clone()
}

// FromPrototype replaces the attributes with those of md, clears the
// detectors and initializes the spectrum.
func (c *Consumer) FromPrototype(md Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if md.Type != c.md.Type {
		return fmt.Errorf("%w: %s consumer given %q metadata", ErrTypeMismatch, c.md.Type, md.Type)
	}
	c.md.Attributes = md.Attributes.Clone()
	c.md.Detectors = nil
	return c.initialize()
}

// initialize must be called with the exclusive lock held.
func (c *Consumer) initialize() error {
	c.ready = false
	if err := c.kind.Initialize(&c.md); err != nil {
		c.log.Debug("initialize failed", zap.Error(err))
		return err
	}
	c.ready = true
	c.changed = true
	c.kind.Publish(&c.md)
	c.recalcAxes(true)
	return nil
}

// recalcAxes rebuilds the axes when the parts of the metadata they depend
// on changed, or always when force is set.
func (c *Consumer) recalcAxes(force bool) {
	if !c.ready {
		c.axes = nil
		return
	}
	fp := c.md.Fingerprint()
	if !force && c.axes != nil && fp == c.axesFP {
		return
	}
	c.axes = c.kind.RecalcAxes(&c.md)
	c.axesFP = fp
}

// PushSpill feeds a spill: detectors first, then every hit in order, then
// every statistics snapshot.
func (c *Consumer) PushSpill(sp Spill) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return
	}
	if sp.Detectors != nil {
		c.md.Detectors = cloneDetectors(sp.Detectors)
	}
	for _, h := range sp.Hits {
		c.kind.PushHit(h)
	}
	if len(sp.Hits) > 0 {
		c.kind.FlushEvents()
	}
	for _, s := range sp.Stats {
		c.kind.PushStats(s)
	}
	c.kind.Publish(&c.md)
	c.recalcAxes(false)
	c.changed = true
	c.telemetry.record(c.md.Type, sp)
}

// Data returns the count at coords, or zero when the arity is wrong.
func (c *Consumer) Data(coords ...uint16) PreciseFloat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready || len(coords) != c.md.Dimensions {
		return zero
	}
	return c.kind.DataAt(coords)
}

// DataRange returns the nonzero bins inside ranges, one range per axis, or
// nil when the arity is wrong. A buffered 2D spectrum returns only the cells
// changed since the previous call, so it takes the exclusive lock.
func (c *Consumer) DataRange(ranges ...Range) []Entry {
	c.mu.RLock()
	if !c.bufferedLocked() {
		defer c.mu.RUnlock()
		return c.dataRangeLocked(ranges)
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dataRangeLocked(ranges)
}

// Peek returns the nonzero bins inside ranges like DataRange, but never
// consumes the change buffer of a buffered spectrum. Readers that share a
// consumer, such as HTTP clients, use it.
func (c *Consumer) Peek(ranges ...Range) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready || len(ranges) != c.md.Dimensions {
		return nil
	}
	if b, ok := c.kind.(Buffered); ok {
		return b.Peek(ranges)
	}
	return c.kind.DataRange(ranges)
}

func (c *Consumer) bufferedLocked() bool {
	b, ok := c.kind.(Buffered)
	return ok && b.Buffered()
}

func (c *Consumer) dataRangeLocked(ranges []Range) []Entry {
	if !c.ready || len(ranges) != c.md.Dimensions {
		return nil
	}
	return c.kind.DataRange(ranges)
}

// Append adds e directly to the data. Totals are left to the metadata
// being restored alongside.
func (c *Consumer) Append(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready || len(e.Coords) != c.md.Dimensions {
		return
	}
	c.kind.Append(e)
	c.changed = true
}

// AxisValues returns the calibrated values of axis dim.
func (c *Consumer) AxisValues(dim int) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if dim < 0 || dim >= len(c.axes) {
		return nil
	}
	return slices.Clone(c.axes[dim])
}

// SetAttribute stores one attribute. A spectrum that failed to initialize
// is initialized again, so callers can correct its settings and retry.
func (c *Consumer) SetAttribute(s Setting) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkWritable(s); err != nil {
		return err
	}
	c.md.Set(s)
	return c.afterAttributes()
}

// SetAttributes stores every branch of stem.
func (c *Consumer) SetAttributes(stem Setting) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range stem.Branches {
		if err := c.checkWritable(b); err != nil {
			return err
		}
	}
	c.md.SetAttributes(stem)
	return c.afterAttributes()
}

func (c *Consumer) checkWritable(s Setting) error {
	if cur, ok := c.md.Get(s.ID); ok && cur.HasFlag(FlagReadOnly) {
		return fmt.Errorf("%w: %s", ErrReadOnlyAttribute, s.ID)
	}
	return nil
}

func (c *Consumer) afterAttributes() error {
	c.changed = true
	if !c.ready {
		return c.initialize()
	}
	if r, ok := c.kind.(Refresher); ok {
		r.Refresh(&c.md)
	}
	c.recalcAxes(false)
	return nil
}

// SetDetectors replaces the detector list.
func (c *Consumer) SetDetectors(dets []Detector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.md.Detectors = cloneDetectors(dets)
	c.changed = true
	c.recalcAxes(false)
}

// WriteFile writes the spectrum into dir in format.
func (c *Consumer) WriteFile(dir, format string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	codec, ok := c.kind.(FileCodec)
	if !ok || !c.md.SupportsOutput(format) {
		return fmt.Errorf("%w: %s cannot write %q", ErrUnsupportedFormat, c.md.Type, format)
	}
	if !c.ready {
		return ErrNotInitialized
	}
	if err := codec.WriteFile(dir, format, &c.md); err != nil {
		c.log.Warn("write failed", zap.String("dir", dir), zap.String("format", format), zap.Error(err))
		return err
	}
	return nil
}

// ReadFile replaces the spectrum with the contents of name. On failure the
// consumer keeps its previous settings and data.
func (c *Consumer) ReadFile(name, format string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.kind.(FileCodec); !ok || !c.md.SupportsInput(format) {
		return fmt.Errorf("%w: %s cannot read %q", ErrUnsupportedFormat, c.md.Type, format)
	}
	err := c.replace(c.md.Clone(), func(k Kind, md *Metadata) error {
		return k.(FileCodec).ReadFile(name, format, md)
	})
	if err != nil {
		c.log.Warn("read failed", zap.String("file", name), zap.Error(err))
	}
	return err
}

// replace fills a fresh kind from md with fill and switches to it, and
// to md's settings, only when fill succeeds. Must be called with the
// exclusive lock held.
func (c *Consumer) replace(md Metadata, fill func(k Kind, md *Metadata) error) error {
	k := c.newKind()
	if err := fill(k, &md); err != nil {
		return err
	}
	c.kind = k
	c.md.Attributes = md.Attributes
	c.md.Detectors = md.Detectors
	c.ready = true
	c.changed = true
	c.kind.Publish(&c.md)
	c.recalcAxes(true)
	return nil
}

func cloneDetectors(dets []Detector) []Detector {
	if dets == nil {
		return nil
	}
	out := make([]Detector, len(dets))
	for i, d := range dets {
		out[i] = d.clone()
	}
	return out
}
