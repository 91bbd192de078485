package units

// Conversion holds the linear coefficients for converting a raw source
// value to Data Dictionary units:
//
//	value_in_dd_units = raw_value * Scale + Offset
//
// This captures every conversion the registry can express, including
// origin-shifting temperature scales. Logarithmic units are out of scope.
type Conversion struct {
	Scale  float64
	Offset float64
}

// Calculate derives the conversion coefficients from a source quantity to a
// target unit. The source's numeric prefactor is folded into the scale, so
// a source of "1e2 mm" against metres yields Scale 0.1.
func Calculate(source Quantity, target Unit) (Conversion, error) {
	offset, err := Convert(Quantity{Magnitude: 0, Units: source.Units}, target)
	if err != nil {
		return Conversion{}, err
	}
	full, err := Convert(source, target)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{Scale: full - offset, Offset: offset}, nil
}

// Apply converts a raw source value to target units.
func (c Conversion) Apply(v float64) float64 { return v*c.Scale + c.Offset }

// Invert applies the inverse affine transform.
func (c Conversion) Invert(v float64) float64 { return (v - c.Offset) / c.Scale }

// IsIdentity reports whether the conversion leaves values unchanged.
func (c Conversion) IsIdentity() bool { return c.Scale == 1 && c.Offset == 0 }
