package spectrum

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/multierr"

	"github.com/robert-malhotra/go-spectra/internal/binary"
)

// Radware-compatible matrices are 4096 x 4096, row-major, little-endian.
const (
	gridBits = 12
	gridSize = 1 << gridBits
)

// ReadFile implements FileCodec for .m4b (uint32) and .mat (uint16) matrices.
func (t *TwoD) ReadFile(name, format string, md *Metadata) (err error) {
	format = strings.ToLower(format)
	if format != "m4b" && format != "mat" {
		return fmt.Errorf("%w: %s cannot read %q", ErrUnsupportedFormat, md.Type, format)
	}
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	r := binary.NewReader(f, binary.DefaultConfig())
	var counts []uint32
	if format == "m4b" {
		if counts, err = r.ReadUint32s(gridSize * gridSize); err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
	} else {
		words, err := r.ReadUint16s(gridSize * gridSize)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		counts = make([]uint32, len(words))
		for i, w := range words {
			counts[i] = uint32(w)
		}
	}

	md.setValue(AttrResolution, TypeInteger, func(s *Setting) { s.SetInt(gridBits) })
	md.setValue(AttrPatternAdd, TypePattern, func(s *Setting) { s.SetPattern(NewPattern(2, 0, 1)) })
	md.setValue(AttrPatternCoin, TypePattern, func(s *Setting) { s.SetPattern(NewPattern(2, 0, 1)) })
	md.setValue(AttrName, TypeText, func(s *Setting) {
		s.Value = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	})
	md.setValue(AttrTotalHits, TypePrecise, func(s *Setting) { s.SetPrecise(zero) })
	md.setValue(AttrTotalEvents, TypePrecise, func(s *Setting) { s.SetPrecise(zero) })
	if err := t.Initialize(md); err != nil {
		return err
	}

	total := uint64(0)
	for i, v := range counts {
		if v == 0 {
			continue
		}
		t.add(cell{uint16(i / gridSize), uint16(i % gridSize)}, PreciseFromInt(int64(v)))
		total += uint64(v)
	}
	t.totalHits = PreciseFromInt(int64(total))
	t.coinc.events = total

	if t.Symmetrized() {
		md.Detectors = []Detector{{Name: "unknown"}, {Name: "unknown"}}
	} else {
		md.Detectors = []Detector{{Name: "unknown1"}, {Name: "unknown2"}}
	}
	return nil
}

// WriteFile implements FileCodec for .m4b, .mat and .m output.
func (t *TwoD) WriteFile(dir, format string, md *Metadata) (err error) {
	format = strings.ToLower(format)
	path := outputPath(dir, md, format)
	switch format {
	case "m4b", "mat":
		return t.writeGrid(path, format)
	case "m":
		return t.writeMatlab(path)
	}
	return fmt.Errorf("%w: %s cannot write %q", ErrUnsupportedFormat, md.Type, format)
}

// gridCell maps a cell at the spectrum's resolution onto the 12-bit grid.
func (t *TwoD) gridCell(c cell) (int, int) {
	x, y := int(c[0]), int(c[1])
	if shift := t.bits - gridBits; shift > 0 {
		x, y = x>>shift, y>>shift
	} else if shift < 0 {
		x, y = x<<-shift, y<<-shift
	}
	return x, y
}

func (t *TwoD) writeGrid(path, format string) (err error) {
	limit := uint64(math.MaxUint32)
	if format == "mat" {
		limit = math.MaxUint16
	}
	sums := make(map[int]uint64, len(t.spectrum))
	for c, v := range t.spectrum {
		x, y := t.gridCell(c)
		if x >= gridSize || y >= gridSize || v.IsNegative() {
			continue
		}
		sums[x*gridSize+y] += uint64(v.Round(0).IntPart())
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	w := binary.NewWriter(f, binary.DefaultConfig())
	if format == "m4b" {
		words := make([]uint32, gridSize*gridSize)
		for i, v := range sums {
			words[i] = uint32(min(v, limit))
		}
		return w.WriteUint32s(words)
	}
	words := make([]uint16, gridSize*gridSize)
	for i, v := range sums {
		words[i] = uint16(min(v, limit))
	}
	return w.WriteUint16s(words)
}

func (t *TwoD) writeMatlab(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	keys := make([]cell, 0, len(t.spectrum))
	for c := range t.spectrum {
		keys = append(keys, c)
	}
	slices.SortFunc(keys, func(a, b cell) int { return slices.Compare(a[:], b[:]) })

	bw := bufio.NewWriter(f)
	n := 1 << t.bits
	fmt.Fprintf(bw, "coinc = zeros(%d,%d);\n", n, n)
	for _, c := range keys {
		fmt.Fprintf(bw, "coinc(%d,%d)=%s;\n", int(c[0])+1, int(c[1])+1, t.spectrum[c].String())
	}
	fmt.Fprintln(bw, "figure;")
	fmt.Fprintln(bw, "imagesc(log10(coinc + 1));")
	fmt.Fprintln(bw, "axis xy;")
	fmt.Fprintln(bw, "colorbar;")
	return bw.Flush()
}

// outputPath returns dir/<name>.<format>, naming unnamed spectra by type.
func outputPath(dir string, md *Metadata, format string) string {
	name := md.Name()
	if name == "" {
		name = md.Type
	}
	return filepath.Join(dir, name+"."+format)
}
