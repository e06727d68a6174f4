package spectrum

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// text1D is a 1D spectrum read from a text file.
type text1D struct {
	name   string
	live   float64
	real   float64
	counts []PreciseFloat
}

// readText1D parses .tka (live time, real time, then one count per line)
// or .spe (Maestro ASCII) files.
func readText1D(name, format string) (sp text1D, err error) {
	format = strings.ToLower(format)
	if format != "tka" && format != "spe" {
		return sp, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	f, err := os.Open(name)
	if err != nil {
		return sp, err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return sp, err
	}

	sp.name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if format == "tka" {
		err = sp.parseTKA(lines)
	} else {
		err = sp.parseSPE(lines)
	}
	if err != nil {
		return sp, fmt.Errorf("%s: %w", name, err)
	}
	return sp, nil
}

func (sp *text1D) parseTKA(lines []string) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: missing time header", ErrMalformed)
	}
	var err error
	if sp.live, err = strconv.ParseFloat(lines[0], 64); err != nil {
		return fmt.Errorf("%w: live time %q", ErrMalformed, lines[0])
	}
	if sp.real, err = strconv.ParseFloat(lines[1], 64); err != nil {
		return fmt.Errorf("%w: real time %q", ErrMalformed, lines[1])
	}
	return sp.parseCounts(lines[2:])
}

func (sp *text1D) parseSPE(lines []string) error {
	for i := 0; i < len(lines); i++ {
		switch lines[i] {
		case "$SPEC_ID:":
			if i+1 < len(lines) && !strings.HasPrefix(lines[i+1], "$") {
				sp.name = lines[i+1]
			}
		case "$MEAS_TIM:":
			if i+1 >= len(lines) {
				return fmt.Errorf("%w: empty $MEAS_TIM", ErrMalformed)
			}
			if _, err := fmt.Sscan(lines[i+1], &sp.live, &sp.real); err != nil {
				return fmt.Errorf("%w: $MEAS_TIM %q", ErrMalformed, lines[i+1])
			}
		case "$DATA:":
			if i+1 >= len(lines) {
				return fmt.Errorf("%w: empty $DATA", ErrMalformed)
			}
			var first, last int
			if _, err := fmt.Sscan(lines[i+1], &first, &last); err != nil || last < first {
				return fmt.Errorf("%w: $DATA range %q", ErrMalformed, lines[i+1])
			}
			n := last - first + 1
			if i+2+n > len(lines) {
				return fmt.Errorf("%w: $DATA holds fewer than %d counts", ErrMalformed, n)
			}
			return sp.parseCounts(lines[i+2 : i+2+n])
		}
	}
	return fmt.Errorf("%w: no $DATA section", ErrMalformed)
}

func (sp *text1D) parseCounts(lines []string) error {
	if len(lines) > 1<<16 {
		return fmt.Errorf("%w: %d channels", ErrMalformed, len(lines))
	}
	sp.counts = make([]PreciseFloat, len(lines))
	for i, l := range lines {
		v, err := decimal.NewFromString(l)
		if err != nil {
			return fmt.Errorf("%w: count %q on channel %d", ErrMalformed, l, i)
		}
		sp.counts[i] = v
	}
	return nil
}

// writeText1D writes vals as dir/<name>.<format>.
func writeText1D(dir, format string, md *Metadata, vals []PreciseFloat) (err error) {
	format = strings.ToLower(format)
	if format != "tka" && format != "spe" {
		return fmt.Errorf("%w: %s cannot write %q", ErrUnsupportedFormat, md.Type, format)
	}
	f, err := os.Create(outputPath(dir, md, format))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	live, real := md.Float(AttrLiveTime), md.Float(AttrRealTime)
	bw := bufio.NewWriter(f)
	if format == "tka" {
		fmt.Fprintf(bw, "%g\n%g\n", live, real)
	} else {
		name := md.Name()
		if name == "" {
			name = md.Type
		}
		fmt.Fprintf(bw, "$SPEC_ID:\n%s\n", name)
		fmt.Fprintf(bw, "$MEAS_TIM:\n%d %d\n", int64(live), int64(real))
		fmt.Fprintf(bw, "$DATA:\n0 %d\n", len(vals)-1)
	}
	for _, v := range vals {
		bw.WriteString(v.String())
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
