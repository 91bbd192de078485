// Package mapping implements the validation engine for declarative signal
// mapping files: documents that link named data-acquisition signals to
// paths inside an IMAS IDS, with source units checked against the units the
// Data Dictionary mandates.
//
// A mapping document is parsed with a line-retaining strict YAML parser
// (package yamltree), built into a SignalMap and cross-referenced against
// the Data Dictionary catalog and the machine description (package dd).
// Any failure yields a single error carrying the structural path of the
// offending node, enriched with the source line number and text.
package mapping

import (
	"fmt"

	"github.com/iter-codac/imas-mapping/units"
)

// SignalMap is a validated mapping of data-acquisition signals to one IDS.
// Instances are produced by a Validator and are immutable afterwards;
// a failed validation never returns a partial SignalMap.
type SignalMap struct {
	// Description is the free-format description of the mapping file.
	Description string
	// DataDictionaryVersion is the Data Dictionary version the mapping
	// is validated against. Major version 3 is not supported.
	DataDictionaryVersion string
	// MachineDescriptionURI locates the machine description dataset.
	MachineDescriptionURI string
	// TargetIDS is the IDS name all signals map to.
	TargetIDS string
	// Signals holds the channel maps per IDS array-of-structures path,
	// in document order.
	Signals []PathChannels
}

// PathChannels groups the channel maps declared under one IDS
// array-of-structures path.
type PathChannels struct {
	IDSPath  string
	Channels []*ChannelMap
}

// ChannelMap configures the signal mapping of a single channel.
type ChannelMap struct {
	// Name identifies the channel element in the machine description.
	// Channel names are globally unique within a mapping document.
	Name string
	// Signals are the mapped signals of this channel, in declaration
	// order.
	Signals []*ChannelSignal
}

// ChannelSignal maps one source signal to a path inside a channel.
type ChannelSignal struct {
	// Path is the data path relative to the channel element, for
	// example "flux/data".
	Path string
	// Signal is the source signal identifier, globally unique within a
	// mapping document.
	Signal string
	// SourceUnits is the unit annotation parsed from the signal
	// expression ("SIG-A [mV]").
	SourceUnits units.Quantity

	// ddUnits stays unset until cross-reference validation resolves the
	// Data Dictionary units for Path.
	ddUnits *units.Unit
}

// DDUnits returns the Data Dictionary units for the signal's path. The
// second return value is false before validation has resolved them.
func (s *ChannelSignal) DDUnits() (units.Unit, bool) {
	if s.ddUnits == nil {
		return units.Unit{}, false
	}
	return *s.ddUnits, true
}

// UnitConversion returns the linear coefficients converting raw source
// values to Data Dictionary units. It fails on a signal that has not been
// validated yet.
func (s *ChannelSignal) UnitConversion() (units.Conversion, error) {
	if s.ddUnits == nil {
		return units.Conversion{}, fmt.Errorf("signal '%s' has no resolved Data Dictionary units", s.Signal)
	}
	return units.Calculate(s.SourceUnits, *s.ddUnits)
}

// Channels returns the channel maps declared under idsPath, or nil.
func (m *SignalMap) Channels(idsPath string) []*ChannelMap {
	for _, pc := range m.Signals {
		if pc.IDSPath == idsPath {
			return pc.Channels
		}
	}
	return nil
}

// NumSignals returns the total number of mapped signals.
func (m *SignalMap) NumSignals() int {
	n := 0
	for _, pc := range m.Signals {
		for _, ch := range pc.Channels {
			n += len(ch.Signals)
		}
	}
	return n
}
