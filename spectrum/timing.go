package spectrum

import "time"

// timing derives real and live time from per-channel statistics.
type timing struct {
	start     map[int]StatsUpdate
	startTime time.Time
	real      map[int]float64
	live      map[int]float64
}

func newTiming() timing {
	return timing{
		start: make(map[int]StatsUpdate),
		real:  make(map[int]float64),
		live:  make(map[int]float64),
	}
}

func (t *timing) push(s StatsUpdate) {
	first, ok := t.start[s.Channel]
	if !ok || s.Type == StatsStart {
		t.start[s.Channel] = s
		first = s
	}
	if t.startTime.IsZero() || s.LabTime.Before(t.startTime) {
		t.startTime = s.LabTime
	}
	real := s.LabTime.Sub(first.LabTime).Seconds()
	live := real
	d := s.Sub(first)
	if dr, dl := d.Items[StatRealTime], d.Items[StatLiveTime]; dr > 0 && d.Has(StatLiveTime) {
		live = real * dl / dr
	}
	t.real[s.Channel] = real
	t.live[s.Channel] = live
}

// set overrides the times, used when loading files that carry them.
func (t *timing) set(real, live float64) {
	t.real[-1] = real
	t.live[-1] = live
}

// times returns the longest real time and the shortest live time.
func (t *timing) times() (real, live float64) {
	first := true
	for ch, r := range t.real {
		l := t.live[ch]
		if first || r > real {
			real = r
		}
		if first || l < live {
			live = l
		}
		first = false
	}
	return real, live
}

func (t *timing) publish(md *Metadata) {
	if len(t.real) == 0 {
		return
	}
	real, live := t.times()
	md.setValue(AttrRealTime, TypeFloating, func(s *Setting) { s.SetFloat(real) })
	md.setValue(AttrLiveTime, TypeFloating, func(s *Setting) { s.SetFloat(live) })
	if !t.startTime.IsZero() {
		md.setValue(AttrStartTime, TypeTime, func(s *Setting) { s.SetTime(t.startTime) })
	}
}

// restore seeds the times from previously published metadata.
func (t *timing) restore(md *Metadata) {
	if real := md.Float(AttrRealTime); real > 0 {
		t.set(real, md.Float(AttrLiveTime))
	}
	if s, ok := md.Get(AttrStartTime); ok {
		if ts := s.Time(); !ts.IsZero() {
			t.startTime = ts
		}
	}
}
