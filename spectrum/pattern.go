package spectrum

import (
	"fmt"
	"strconv"
	"strings"
)

// Pattern selects a set of channels and a threshold: the minimum number of
// selected channels an event must contain for the pattern to match.
type Pattern struct {
	Threshold int
	Bits      []bool
}

// NewPattern selects the given channels.
func NewPattern(threshold int, channels ...int) Pattern {
	p := Pattern{Threshold: threshold}
	for _, ch := range channels {
		p.Set(ch, true)
	}
	return p
}

// Set selects or deselects a channel, growing the bitmap as needed.
func (p *Pattern) Set(channel int, on bool) {
	if channel < 0 {
		return
	}
	for len(p.Bits) <= channel {
		p.Bits = append(p.Bits, false)
	}
	p.Bits[channel] = on
}

// Relevant reports whether channel is selected.
func (p Pattern) Relevant(channel int) bool {
	return channel >= 0 && channel < len(p.Bits) && p.Bits[channel]
}

// Channels returns the selected channels in ascending order.
func (p Pattern) Channels() []int {
	var out []int
	for i, b := range p.Bits {
		if b {
			out = append(out, i)
		}
	}
	return out
}

// Count returns the number of selected channels.
func (p Pattern) Count() int {
	return len(p.Channels())
}

// Matches reports whether at least Threshold selected channels are in ev.
// A zero threshold always matches.
func (p Pattern) Matches(ev Event) bool {
	if p.Threshold <= 0 {
		return true
	}
	n := 0
	for ch := range ev.Hits {
		if p.Relevant(ch) {
			n++
		}
	}
	return n >= p.Threshold
}

// Vetoes reports whether ev is rejected as an anti-coincidence pattern.
// A zero threshold vetoes nothing.
func (p Pattern) Vetoes(ev Event) bool {
	return p.Threshold > 0 && p.Matches(ev)
}

// MarshalText encodes the pattern as "threshold:bits", e.g. "1:0110".
func (p Pattern) MarshalText() ([]byte, error) {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(p.Threshold))
	sb.WriteByte(':')
	for _, b := range p.Bits {
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return []byte(sb.String()), nil
}

// UnmarshalText decodes the MarshalText form.
func (p *Pattern) UnmarshalText(text []byte) error {
	th, bits, ok := strings.Cut(string(text), ":")
	if !ok {
		return fmt.Errorf("%w: %q", ErrPattern, text)
	}
	n, err := strconv.Atoi(th)
	if err != nil {
		return fmt.Errorf("%w: threshold %q", ErrPattern, th)
	}
	out := Pattern{Threshold: n, Bits: make([]bool, len(bits))}
	for i, c := range bits {
		switch c {
		case '1':
			out.Bits[i] = true
		case '0':
		default:
			return fmt.Errorf("%w: bit %q", ErrPattern, c)
		}
	}
	*p = out
	return nil
}

func (p Pattern) String() string {
	b, _ := p.MarshalText()
	return string(b)
}
