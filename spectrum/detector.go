package spectrum

import "math"

// Calibration is a polynomial mapping bin numbers at a given resolution to
// physical units: value = sum(Coefficients[i] * bin^i).
type Calibration struct {
	Units        string    `xml:"units,attr,omitempty" json:"units,omitempty"`
	Bits         int       `xml:"bits,attr" json:"bits"`
	Coefficients []float64 `xml:"coefficient" json:"coefficients,omitempty"`
}

// Valid reports whether the calibration has any terms.
func (c Calibration) Valid() bool {
	return len(c.Coefficients) > 0
}

// Transform maps bin, measured at resolution bits, through the polynomial.
// The bin is first rescaled to the calibration's own resolution.
func (c Calibration) Transform(bin float64, bits int) float64 {
	if !c.Valid() {
		return bin
	}
	if c.Bits > 0 && bits > 0 && c.Bits != bits {
		bin *= math.Pow(2, float64(c.Bits-bits))
	}
	var v, p float64 = 0, 1
	for _, coef := range c.Coefficients {
		v += coef * p
		p *= bin
	}
	return v
}

// Detector is one acquisition channel's identity and calibrations.
type Detector struct {
	Name         string        `xml:"name,attr" json:"name"`
	Type         string        `xml:"type,attr,omitempty" json:"type,omitempty"`
	Calibrations []Calibration `xml:"Calibration" json:"calibrations,omitempty"`
}

// Calibration returns the calibration closest to bits: an exact match, or
// else the first one defined.
func (d Detector) Calibration(bits int) (Calibration, bool) {
	for _, c := range d.Calibrations {
		if c.Bits == bits {
			return c, true
		}
	}
	if len(d.Calibrations) > 0 {
		return d.Calibrations[0], true
	}
	return Calibration{}, false
}

// Axis returns the calibrated value of every bin at resolution bits.
func (d Detector) Axis(bits int) []float64 {
	cal, _ := d.Calibration(bits)
	axis := make([]float64, 1<<bits)
	for i := range axis {
		axis[i] = cal.Transform(float64(i), bits)
	}
	return axis
}

func (d Detector) clone() Detector {
	d.Calibrations = append([]Calibration(nil), d.Calibrations...)
	for i := range d.Calibrations {
		d.Calibrations[i].Coefficients = append([]float64(nil), d.Calibrations[i].Coefficients...)
	}
	return d
}
