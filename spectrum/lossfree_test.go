package spectrum

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lfcHits(n, bin, bits int, start uint64) []Hit {
	hits := make([]Hit, n)
	for i := range hits {
		hits[i] = Hit{Channel: 0, Time: start + uint64(i)*10, Energy: energy(bin, bits)}
	}
	return hits
}

func TestLossFreeCompensatesInterval(t *testing.T) {
	r := newTestRegistry(t)
	c := newTestConsumer(t, r, "LFC1D", 10, 0)

	c.PushSpill(Spill{Stats: []StatsUpdate{
		stats(0, 0, map[string]float64{StatNativeTime: 0, StatLiveTrigger: 0, StatTriggerCount: 0}),
	}})
	c.PushSpill(Spill{
		Hits: lfcHits(900, 42, 10, 0),
		Stats: []StatsUpdate{
			stats(0, 25*time.Second, map[string]float64{StatNativeTime: 25, StatLiveTrigger: 25, StatTriggerCount: 1000}),
		},
	})

	assertCount(t, 1000, c.Data(42))
	md := c.Metadata()
	assertCount(t, 1000, md.Precise(AttrTotalHits))
	assert.Equal(t, md.Float(AttrRealTime), md.Float(AttrLiveTime))

	lf := c.kind.(*LossFree)
	require.Len(t, lf.Compensations(), 1)
	assertCount(t, 1000, lf.Compensations()[0])
}

func TestLossFreeAccumulatesBelowTimeSample(t *testing.T) {
	r := newTestRegistry(t)
	c := newTestConsumer(t, r, "LFC1D", 10, 0)

	c.PushSpill(Spill{Stats: []StatsUpdate{
		stats(0, 0, map[string]float64{StatNativeTime: 0, StatLiveTrigger: 0, StatTriggerCount: 0}),
	}})
	c.PushSpill(Spill{
		Hits: lfcHits(30, 7, 10, 0),
		Stats: []StatsUpdate{
			stats(0, 20*time.Second, map[string]float64{StatNativeTime: 20, StatLiveTrigger: 10, StatTriggerCount: 90}),
		},
	})

	// exactly time_sample has passed: the run is visible uncompensated
	assertCount(t, 30, c.Data(7))
	assertCount(t, 30, c.Metadata().Precise(AttrTotalHits))
	assert.Empty(t, c.kind.(*LossFree).Compensations())
}

func TestLossFreeTotalIsSumOfCompensations(t *testing.T) {
	r := newTestRegistry(t)
	c := newTestConsumer(t, r, "LFC1D", 10, 0)

	push := func(at time.Duration, hits []Hit, native, live, trig float64) {
		c.PushSpill(Spill{Hits: hits, Stats: []StatsUpdate{
			stats(0, at, map[string]float64{StatNativeTime: native, StatLiveTrigger: live, StatTriggerCount: trig}),
		}})
	}
	push(0, nil, 0, 0, 0)
	push(10*time.Second, lfcHits(300, 10, 10, 0), 10, 8, 200)
	push(25*time.Second, lfcHits(100, 20, 10, 10000), 25, 20, 500)
	// native clock at half the lab rate doubles the live time
	push(50*time.Second, lfcHits(200, 10, 10, 20000), 37.5, 30, 900)
	// an interval without hits contributes nothing
	push(75*time.Second, nil, 62.5, 55, 1000)

	lf := c.kind.(*LossFree)
	comps := lf.Compensations()
	require.Len(t, comps, 3)
	assertCount(t, 625, comps[0])
	assertCount(t, 500, comps[1])
	assertCount(t, 0, comps[2])

	total := zero
	for _, v := range comps {
		total = total.Add(v)
	}
	md := c.Metadata()
	assert.True(t, total.Equal(md.Precise(AttrTotalHits)), "total %s", md.Precise(AttrTotalHits))

	assertCount(t, 968.75, c.Data(10))
	assertCount(t, 156.25, c.Data(20))
	assert.InDelta(t, 75, md.Float(AttrLiveTime), 1e-9)
	assert.InDelta(t, 75, md.Float(AttrRealTime), 1e-9)
}

func TestLossFreeFallsBackToObservedCount(t *testing.T) {
	r := newTestRegistry(t)
	c := newTestConsumer(t, r, "LFC1D", 10, 0)

	c.PushSpill(Spill{Stats: []StatsUpdate{stats(0, 0, map[string]float64{StatLiveTime: 0})}})
	c.PushSpill(Spill{
		Hits:  lfcHits(40, 5, 10, 0),
		Stats: []StatsUpdate{stats(0, 30*time.Second, map[string]float64{StatLiveTime: 15})},
	})

	comps := c.kind.(*LossFree).Compensations()
	require.Len(t, comps, 1)
	assertCount(t, 40, comps[0])
	assertCount(t, 40, c.Data(5))
}

func TestLossFreeTimeSampleRefresh(t *testing.T) {
	r := newTestRegistry(t)
	c := newTestConsumer(t, r, "LFC1D", 10, 0)
	require.NoError(t, c.SetAttribute(NewFloat(AttrTimeSample, 5, 0, 0)))

	c.PushSpill(Spill{Stats: []StatsUpdate{
		stats(0, 0, map[string]float64{StatNativeTime: 0, StatLiveTrigger: 0, StatTriggerCount: 0}),
	}})
	c.PushSpill(Spill{
		Hits: lfcHits(10, 1, 10, 0),
		Stats: []StatsUpdate{
			stats(0, 6*time.Second, map[string]float64{StatNativeTime: 6, StatLiveTrigger: 3, StatTriggerCount: 10}),
		},
	})
	assertCount(t, 20, c.Data(1))

	require.NoError(t, c.SetAttribute(NewFloat(AttrTimeSample, 5000, 0, 0)))
	assert.Equal(t, 3600.0, c.Metadata().Float(AttrTimeSample))
}

func TestLossFreeXMLRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	c := newTestConsumer(t, r, "LFC1D", 10, 0)
	c.PushSpill(Spill{Stats: []StatsUpdate{
		stats(0, 0, map[string]float64{StatNativeTime: 0, StatLiveTrigger: 0, StatTriggerCount: 0}),
	}})
	c.PushSpill(Spill{
		Hits: lfcHits(900, 42, 10, 0),
		Stats: []StatsUpdate{
			stats(0, 25*time.Second, map[string]float64{StatNativeTime: 25, StatLiveTrigger: 25, StatTriggerCount: 1000}),
		},
	})
	c.PushSpill(Spill{Hits: lfcHits(5, 3, 10, 100000)})

	restored, err := r.CreateFromXML(c.SaveXML())
	require.NoError(t, err)
	assertEntries(t, c.DataRange(FullRange), restored.DataRange(FullRange))
	assertCount(t, 1005, restored.Metadata().Precise(AttrTotalHits))
}
