package spectrum

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// The run-length text encodings used inside <Data> elements.
//
// 1D: "0 <n> " skips n empty bins, any other token is the count of the
// current bin, after which the bin advances by one.
//
// 2D: cells are visited row by row. "+ <dx> " advances the row by dx and
// resets the column, "0 <dy> " skips dy columns, any other token is the
// count of the current cell, after which the column advances by one.

func encodeRuns1D(vals []PreciseFloat) string {
	var sb strings.Builder
	zeros := 0
	for _, v := range vals {
		if v.IsZero() {
			zeros++
			continue
		}
		if zeros > 0 {
			fmt.Fprintf(&sb, "0 %d ", zeros)
			zeros = 0
		}
		sb.WriteString(v.String())
		sb.WriteByte(' ')
	}
	return sb.String()
}

func decodeRuns1D(text string, size int) ([]PreciseFloat, error) {
	out := make([]PreciseFloat, size)
	toks := strings.Fields(text)
	bin := 0
	for i := 0; i < len(toks); i++ {
		if toks[i] == "0" {
			n, err := runLength(toks, i)
			if err != nil {
				return nil, err
			}
			bin += n
			i++
			continue
		}
		v, err := decimal.NewFromString(toks[i])
		if err != nil {
			return nil, fmt.Errorf("%w: count %q", ErrMalformed, toks[i])
		}
		if bin >= size {
			return nil, fmt.Errorf("%w: bin %d beyond %d bins", ErrMalformed, bin, size)
		}
		out[bin] = v
		bin++
	}
	return out, nil
}

func encodeRuns2D(cells map[cell]PreciseFloat) string {
	keys := make([]cell, 0, len(cells))
	for c, v := range cells {
		if !v.IsZero() {
			keys = append(keys, c)
		}
	}
	slices.SortFunc(keys, func(a, b cell) int { return slices.Compare(a[:], b[:]) })

	var sb strings.Builder
	var row, col int
	for _, c := range keys {
		x, y := int(c[0]), int(c[1])
		if x != row {
			fmt.Fprintf(&sb, "+ %d ", x-row)
			row, col = x, 0
		}
		if y != col {
			fmt.Fprintf(&sb, "0 %d ", y-col)
			col = y
		}
		sb.WriteString(cells[c].String())
		sb.WriteByte(' ')
		col++
	}
	return sb.String()
}

func decodeRuns2D(text string) (map[cell]PreciseFloat, error) {
	out := make(map[cell]PreciseFloat)
	toks := strings.Fields(text)
	var row, col int
	for i := 0; i < len(toks); i++ {
		switch toks[i] {
		case "+":
			n, err := runLength(toks, i)
			if err != nil {
				return nil, err
			}
			row += n
			col = 0
			i++
		case "0":
			n, err := runLength(toks, i)
			if err != nil {
				return nil, err
			}
			col += n
			i++
		default:
			v, err := decimal.NewFromString(toks[i])
			if err != nil {
				return nil, fmt.Errorf("%w: count %q", ErrMalformed, toks[i])
			}
			if row > 0xffff || col > 0xffff {
				return nil, fmt.Errorf("%w: cell (%d,%d) out of range", ErrMalformed, row, col)
			}
			if !v.IsZero() {
				out[cell{uint16(row), uint16(col)}] = v
			}
			col++
		}
	}
	return out, nil
}

// runLength parses the count following the marker at toks[i].
func runLength(toks []string, i int) (int, error) {
	if i+1 >= len(toks) {
		return 0, fmt.Errorf("%w: %q without a count", ErrMalformed, toks[i])
	}
	n, err := strconv.Atoi(toks[i+1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: run length %q", ErrMalformed, toks[i+1])
	}
	return n, nil
}
