package spectrum

// Event is a set of hits on distinct channels that fall within one
// coincidence window.
type Event struct {
	Start  uint64
	Window uint64
	Hits   map[int]Hit
}

func newEvent(h Hit, window uint64) Event {
	return Event{Start: h.Time, Window: window, Hits: map[int]Hit{h.Channel: h}}
}

// accepts reports whether h joins this event.
func (e Event) accepts(h Hit) bool {
	if _, dup := e.Hits[h.Channel]; dup {
		return false
	}
	return h.Time >= e.Start && h.Time-e.Start <= e.Window
}

// coincidence groups hits into events and filters them by the coinc and
// anti patterns.
type coincidence struct {
	window uint64
	coinc  Pattern
	anti   Pattern
	open   *Event
	events uint64
}

func newCoincidence(md *Metadata) coincidence {
	return coincidence{
		window: uint64(md.Int(AttrCoincWindow)),
		coinc:  md.Pattern(AttrPatternCoin),
		anti:   md.Pattern(AttrPatternAnti),
	}
}

// add places h into the open event, emitting the previous one when h does
// not belong to it.
func (c *coincidence) add(h Hit, emit func(Event)) {
	if c.open != nil && c.open.accepts(h) {
		c.open.Hits[h.Channel] = h
		return
	}
	c.flush(emit)
	ev := newEvent(h, c.window)
	c.open = &ev
}

// flush emits the open event, if any.
func (c *coincidence) flush(emit func(Event)) {
	if c.open == nil {
		return
	}
	ev := *c.open
	c.open = nil
	if !c.coinc.Matches(ev) || c.anti.Vetoes(ev) {
		return
	}
	c.events++
	emit(ev)
}
