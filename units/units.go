// Package units implements the unit algebra used by the signal-mapping
// validator: parsing unit expressions from mapping files and the Data
// Dictionary, checking dimensional compatibility, and converting magnitudes
// between compatible units.
//
// Supported expressions are products and quotients of (optionally
// SI-prefixed) unit symbols with integer exponents, e.g. "mV", "A.m",
// "mV.s", "m^-3" or "W/m^2". A quantity expression may carry a numeric
// prefactor, e.g. "1e2 mm". Affine temperature scales (degC, degF) are
// supported standalone only; combining them with other units has no single
// well-defined meaning.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

// Dimension is an exponent vector over the seven SI base dimensions.
// Two units are compatible exactly when their dimensions are equal.
type Dimension struct {
	Length      int
	Mass        int
	Time        int
	Current     int
	Temperature int
	Amount      int
	Luminosity  int
}

func (d Dimension) add(o Dimension, exp int) Dimension {
	return Dimension{
		Length:      d.Length + exp*o.Length,
		Mass:        d.Mass + exp*o.Mass,
		Time:        d.Time + exp*o.Time,
		Current:     d.Current + exp*o.Current,
		Temperature: d.Temperature + exp*o.Temperature,
		Amount:      d.Amount + exp*o.Amount,
		Luminosity:  d.Luminosity + exp*o.Luminosity,
	}
}

// Unit is a parsed unit: a dimension vector plus the affine transform to
// coherent SI (value_in_si = value * scale + offset). The offset is nonzero
// only for temperature scales such as degC.
type Unit struct {
	name   string
	dim    Dimension
	scale  float64
	offset float64
}

// String returns the expression the unit was parsed from.
func (u Unit) String() string { return u.name }

// Dimension returns the unit's dimension vector.
func (u Unit) Dimension() Dimension { return u.dim }

// Compatible reports whether u and o measure the same physical quantity.
func (u Unit) Compatible(o Unit) bool { return u.dim == o.dim }

// Quantity is a magnitude with units, e.g. "1e2 mm" or plain "Wb"
// (magnitude 1).
type Quantity struct {
	Magnitude float64
	Units     Unit
}

// Convert returns the magnitude of q expressed in target units.
func Convert(q Quantity, target Unit) (float64, error) {
	if !q.Units.Compatible(target) {
		return 0, fmt.Errorf("cannot convert [%s] to [%s]: incompatible dimensions", q.Units, target)
	}
	si := q.Magnitude*q.Units.scale + q.Units.offset
	return (si - target.offset) / target.scale, nil
}

// Registry resolves unit symbols and parses unit expressions.
type Registry struct {
	units    map[string]Unit
	prefixes map[string]float64
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the shared registry with the standard SI and
// IMAS-relevant units. It is safe for concurrent use; registries are
// immutable after construction.
func DefaultRegistry() *Registry { return defaultRegistry }

// NewRegistry builds a registry with the SI base and derived units, common
// accepted units (min, h, bar, eV, L, t) and the affine temperature scales
// degC and degF.
func NewRegistry() *Registry {
	r := &Registry{
		units: make(map[string]Unit),
		prefixes: map[string]float64{
			"Y": 1e24, "Z": 1e21, "E": 1e18, "P": 1e15, "T": 1e12,
			"G": 1e9, "M": 1e6, "k": 1e3, "h": 1e2, "da": 1e1,
			"d": 1e-1, "c": 1e-2, "m": 1e-3, "u": 1e-6, "µ": 1e-6,
			"n": 1e-9, "p": 1e-12, "f": 1e-15, "a": 1e-18,
			"z": 1e-21, "y": 1e-24,
		},
	}

	base := func(name string, dim Dimension, scale float64) {
		r.units[name] = Unit{name: name, dim: dim, scale: scale}
	}

	length := Dimension{Length: 1}
	mass := Dimension{Mass: 1}
	tim := Dimension{Time: 1}
	current := Dimension{Current: 1}
	temp := Dimension{Temperature: 1}

	base("m", length, 1)
	base("g", mass, 1e-3)
	base("s", tim, 1)
	base("A", current, 1)
	base("K", temp, 1)
	base("mol", Dimension{Amount: 1}, 1)
	base("cd", Dimension{Luminosity: 1}, 1)

	base("1", Dimension{}, 1)
	base("rad", Dimension{}, 1)
	base("sr", Dimension{}, 1)

	base("Hz", Dimension{Time: -1}, 1)
	base("Bq", Dimension{Time: -1}, 1)
	base("N", Dimension{Mass: 1, Length: 1, Time: -2}, 1)
	base("Pa", Dimension{Mass: 1, Length: -1, Time: -2}, 1)
	base("J", Dimension{Mass: 1, Length: 2, Time: -2}, 1)
	base("W", Dimension{Mass: 1, Length: 2, Time: -3}, 1)
	base("C", Dimension{Time: 1, Current: 1}, 1)
	base("V", Dimension{Mass: 1, Length: 2, Time: -3, Current: -1}, 1)
	base("F", Dimension{Mass: -1, Length: -2, Time: 4, Current: 2}, 1)
	base("ohm", Dimension{Mass: 1, Length: 2, Time: -3, Current: -2}, 1)
	base("S", Dimension{Mass: -1, Length: -2, Time: 3, Current: 2}, 1)
	base("Wb", Dimension{Mass: 1, Length: 2, Time: -2, Current: -1}, 1)
	base("T", Dimension{Mass: 1, Time: -2, Current: -1}, 1)
	base("H", Dimension{Mass: 1, Length: 2, Time: -2, Current: -2}, 1)
	base("lm", Dimension{Luminosity: 1}, 1)
	base("lx", Dimension{Luminosity: 1, Length: -2}, 1)

	base("eV", Dimension{Mass: 1, Length: 2, Time: -2}, 1.602176634e-19)
	base("bar", Dimension{Mass: 1, Length: -1, Time: -2}, 1e5)
	base("atm", Dimension{Mass: 1, Length: -1, Time: -2}, 101325)
	base("L", Dimension{Length: 3}, 1e-3)
	base("t", mass, 1e3)
	base("min", tim, 60)
	base("h", tim, 3600)

	r.units["degC"] = Unit{name: "degC", dim: temp, scale: 1, offset: 273.15}
	r.units["degF"] = Unit{name: "degF", dim: temp, scale: 5.0 / 9.0, offset: 459.67 * 5.0 / 9.0}

	return r
}

// Unit parses a unit expression such as "mV", "A.m" or "W/m^2".
func (r *Registry) Unit(expr string) (Unit, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return Unit{}, fmt.Errorf("empty unit expression")
	}

	result := Unit{name: s, scale: 1}
	factors := 0
	divide := false
	for s != "" {
		var tok string
		nextDivide := divide
		if i := strings.IndexAny(s, "./*"); i >= 0 {
			tok = s[:i]
			nextDivide = s[i] == '/'
			s = s[i+1:]
		} else {
			tok, s = s, ""
		}
		u, exp, err := r.factor(tok)
		if err != nil {
			return Unit{}, err
		}
		if divide {
			exp = -exp
		}
		if u.offset != 0 && (factors > 0 || s != "" || exp != 1) {
			return Unit{}, fmt.Errorf("offset unit '%s' is only supported standalone", u.name)
		}
		result.dim = result.dim.add(u.dim, exp)
		result.scale *= pow(u.scale, exp)
		result.offset = u.offset
		factors++
		divide = nextDivide
	}
	return result, nil
}

// Quantity parses a quantity expression: an optional numeric prefactor
// followed by a unit expression, e.g. "1e2 mm". Without a prefactor the
// magnitude is 1.
func (r *Registry) Quantity(expr string) (Quantity, error) {
	fields := strings.Fields(strings.TrimSpace(expr))
	if len(fields) == 0 {
		return Quantity{}, fmt.Errorf("empty unit expression")
	}
	magnitude := 1.0
	if len(fields) > 1 {
		mag, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return Quantity{}, fmt.Errorf("invalid numeric prefactor '%s'", fields[0])
		}
		magnitude = mag
		fields = fields[1:]
	}
	u, err := r.Unit(strings.Join(fields, "."))
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: magnitude, Units: u}, nil
}

func (r *Registry) factor(tok string) (Unit, int, error) {
	tok = strings.TrimSpace(tok)
	sym, expStr, hasExp := strings.Cut(tok, "^")
	exp := 1
	if hasExp {
		n, err := strconv.Atoi(expStr)
		if err != nil {
			return Unit{}, 0, fmt.Errorf("invalid exponent '%s' in unit '%s'", expStr, tok)
		}
		exp = n
	}
	u, err := r.lookup(sym)
	if err != nil {
		return Unit{}, 0, err
	}
	return u, exp, nil
}

func (r *Registry) lookup(sym string) (Unit, error) {
	if sym == "" {
		return Unit{}, fmt.Errorf("empty unit symbol")
	}
	if u, ok := r.units[sym]; ok {
		return u, nil
	}
	// Prefixed symbol: exact matches above take precedence, so "T" is
	// tesla while "TW" is terawatt. Prefer the longest matching prefix.
	var (
		found  bool
		best   string
		factor float64
	)
	for prefix, f := range r.prefixes {
		rest, ok := strings.CutPrefix(sym, prefix)
		if !ok || rest == "" {
			continue
		}
		if _, ok := r.units[rest]; !ok {
			continue
		}
		if !found || len(prefix) > len(best) {
			found, best, factor = true, prefix, f
		}
	}
	if !found {
		return Unit{}, fmt.Errorf("'%s' is not defined in the unit registry", sym)
	}
	u := r.units[strings.TrimPrefix(sym, best)]
	return Unit{name: sym, dim: u.dim, scale: factor * u.scale, offset: u.offset}, nil
}

func pow(x float64, n int) float64 {
	if n < 0 {
		return 1 / pow(x, -n)
	}
	p := 1.0
	for i := 0; i < n; i++ {
		p *= x
	}
	return p
}
