package spectrum

import (
	"time"
)

var zeroTime time.Time

// Hit is one detected pulse.
type Hit struct {
	Channel int
	// Time is the pulse timestamp in native clock ticks.
	Time uint64
	// Energy is the 16-bit pulse height.
	Energy uint16
}

// Bin returns the energy bin at the given resolution.
func (h Hit) Bin(bits int) uint16 {
	if bits >= 16 {
		return h.Energy
	}
	return h.Energy >> (16 - bits)
}

// StatsType marks where in a run a StatsUpdate was taken.
type StatsType int

// Stats update types.
const (
	StatsRunning StatsType = iota
	StatsStart
	StatsStop
)

// Stats item keys. Times are in seconds.
const (
	StatLiveTime     = "live_time"
	StatLiveTrigger  = "live_trigger"
	StatRealTime     = "real_time"
	StatTriggerCount = "trigger_count"
	StatNativeTime   = "native_time"
)

// StatsUpdate is a snapshot of one channel's acquisition counters.
type StatsUpdate struct {
	Channel int
	Type    StatsType
	LabTime time.Time
	Items   map[string]float64
}

// Has reports whether the snapshot carries item key.
func (s StatsUpdate) Has(key string) bool {
	_, ok := s.Items[key]
	return ok
}

// Sub returns the per-item difference s - prev for items present in both.
// The result keeps s's channel, type and lab time.
func (s StatsUpdate) Sub(prev StatsUpdate) StatsUpdate {
	out := StatsUpdate{Channel: s.Channel, Type: s.Type, LabTime: s.LabTime, Items: make(map[string]float64)}
	for k, v := range s.Items {
		if p, ok := prev.Items[k]; ok {
			out.Items[k] = v - p
		}
	}
	return out
}

// Spill is one acquisition interval's worth of hits and statistics.
type Spill struct {
	Hits  []Hit
	Stats []StatsUpdate
	// Detectors, when set, replaces the detector list, indexed by channel.
	Detectors []Detector
}
