package spectrum

// Attribute ids of loss-free counting spectra.
const (
	AttrTimeSample = "time_sample"
)

// DefaultTimeSample is the compensation interval in seconds.
const DefaultTimeSample = 20.0

// LossFreeMetadata returns the prototype of a loss-free counting spectrum.
func LossFreeMetadata() Metadata {
	md := NewMetadata("LFC1D", 1, "Spectrum with loss-free counting dead time compensation")
	md.OutputTypes = []string{"tka", "spe"}
	md.Set(NewInt(AttrMaxChannel, 0, 0, 0).WithFlags(FlagReadOnly))
	md.Set(NewFloat(AttrTimeSample, DefaultTimeSample, 0, 3600).WithUnit("s").
		WithDescription("minimum lab time between compensation points"))
	return md
}

// LossFree is a 1D spectrum that extrapolates lost counts from trigger
// statistics. Hits accumulate in the run buffer; once more than
// time_sample seconds of lab time have passed since the previous
// compensation point, the run buffer is scaled to the compensated count and
// merged into the cumulative buffer. The visible spectrum is their sum.
//
// Reported live time equals real time: dead time is already accounted for
// in the counts.
type LossFree struct {
	OneD
	all          []PreciseFloat
	timeSample   float64
	prev         map[int]StatsUpdate
	countTotal   PreciseFloat
	compensation []PreciseFloat
}

// NewLossFree returns an uninitialized loss-free kind.
func NewLossFree() Kind {
	return &LossFree{}
}

// Kind implements Kind.
func (lf *LossFree) Kind() SpectrumKind { return KindOneDLossFree }

// Initialize implements Kind.
func (lf *LossFree) Initialize(md *Metadata) error {
	if err := lf.OneD.Initialize(md); err != nil {
		return err
	}
	lf.all = make([]PreciseFloat, len(lf.spectrum))
	lf.prev = make(map[int]StatsUpdate)
	lf.countTotal = md.Precise(AttrTotalHits)
	lf.compensation = nil
	lf.Refresh(md)
	return nil
}

// Refresh implements Refresher.
func (lf *LossFree) Refresh(md *Metadata) {
	lf.timeSample = DefaultTimeSample
	if s, ok := md.Get(AttrTimeSample); ok {
		lf.timeSample = s.Float()
	}
}

// PushStats implements Kind.
func (lf *LossFree) PushStats(s StatsUpdate) {
	if !lf.add.Relevant(s.Channel) {
		return
	}
	lf.OneD.PushStats(s)

	prev, ok := lf.prev[s.Channel]
	if !ok {
		lf.prev[s.Channel] = s
		return
	}
	dLab := s.LabTime.Sub(prev.LabTime).Seconds()
	if dLab <= lf.timeSample {
		return
	}
	lf.compensate(s.Sub(prev), dLab)
	lf.prev[s.Channel] = s
}

// compensate redistributes the compensated count of one interval over the
// shape of the run buffer. An interval without hits contributes nothing.
func (lf *LossFree) compensate(diff StatsUpdate, dLab float64) {
	scale := 1.0
	if native := diff.Items[StatNativeTime]; native > 0 {
		scale = dLab / native
	}
	live := dLab
	if v, ok := diff.Items[StatLiveTrigger]; ok {
		live = v
	} else if v, ok := diff.Items[StatLiveTime]; ok {
		live = v
	}
	fastScaled := live * scale

	current := PreciseFromInt(int64(lf.run))
	fpc := current
	if trig, ok := diff.Items[StatTriggerCount]; ok && fastScaled > 0 {
		fpc = quo(PreciseFromFloat(trig).Mul(PreciseFromFloat(dLab)), PreciseFromFloat(fastScaled))
	}
	if current.IsZero() {
		fpc = zero
	}

	if !fpc.IsZero() {
		for i, v := range lf.spectrum {
			if !v.IsZero() {
				lf.all[i] = lf.all[i].Add(quo(fpc.Mul(v), current))
			}
		}
	}
	clear(lf.spectrum)
	lf.run = 0
	lf.countTotal = lf.countTotal.Add(fpc)
	lf.compensation = append(lf.compensation, fpc)
}

// Publish implements Kind.
func (lf *LossFree) Publish(md *Metadata) {
	lf.OneD.Publish(md)
	md.setValue(AttrTotalHits, TypePrecise, func(s *Setting) {
		s.SetPrecise(lf.countTotal.Add(PreciseFromInt(int64(lf.run))))
	})
	real := md.Float(AttrRealTime)
	md.setValue(AttrLiveTime, TypeFloating, func(s *Setting) { s.SetFloat(real) })
}

// DataAt implements Kind.
func (lf *LossFree) DataAt(coords []uint16) PreciseFloat {
	if int(coords[0]) >= len(lf.all) {
		return zero
	}
	return lf.spectrum[coords[0]].Add(lf.all[coords[0]])
}

// DataRange implements Kind.
func (lf *LossFree) DataRange(ranges []Range) []Entry {
	return rangeEntries(lf.visible(), ranges[0])
}

func (lf *LossFree) visible() []PreciseFloat {
	out := make([]PreciseFloat, len(lf.all))
	for i := range out {
		out[i] = lf.spectrum[i].Add(lf.all[i])
	}
	return out
}

// Append implements Kind. Restored counts join the compensated buffer.
func (lf *LossFree) Append(e Entry) {
	bin := int(e.Coords[0])
	if bin >= len(lf.all) {
		return
	}
	lf.all[bin] = lf.all[bin].Add(e.Count)
	if bin > lf.maxChan && !lf.all[bin].IsZero() {
		lf.maxChan = bin
	}
}

// DataToXML implements Kind.
func (lf *LossFree) DataToXML() string {
	return encodeRuns1D(lf.visible())
}

// DataFromXML implements Kind.
func (lf *LossFree) DataFromXML(text string) error {
	vals, err := decodeRuns1D(text, len(lf.all))
	if err != nil {
		return err
	}
	lf.all = vals
	clear(lf.spectrum)
	lf.run = 0
	lf.maxChan = lastNonZero(vals)
	return nil
}

// ReadFile implements FileCodec.
func (lf *LossFree) ReadFile(name, format string, md *Metadata) error {
	sp, err := readText1D(name, format)
	if err != nil {
		return err
	}
	if err := lf.loadText(sp, md); err != nil {
		return err
	}
	// loadText initialized only the embedded 1D state
	lf.all = padTo(sp.counts, len(lf.spectrum))
	lf.prev = make(map[int]StatsUpdate)
	lf.Refresh(md)
	lf.maxChan = lastNonZero(lf.all)
	lf.countTotal = sum(lf.all)
	return nil
}

// WriteFile implements FileCodec.
func (lf *LossFree) WriteFile(dir, format string, md *Metadata) error {
	return writeText1D(dir, format, md, lf.visible())
}

// Compensations returns every compensated interval count so far.
func (lf *LossFree) Compensations() []PreciseFloat {
	return append([]PreciseFloat(nil), lf.compensation...)
}
