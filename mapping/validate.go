package mapping

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/iter-codac/imas-mapping/dd"
	"github.com/iter-codac/imas-mapping/units"
	"github.com/iter-codac/imas-mapping/yamltree"
)

// InMemoryLabel is the label used in error context when validating text
// that did not come from a file.
const InMemoryLabel = "<unicode string>"

// Validator bundles the external collaborators needed to validate a
// mapping document: the Data Dictionary catalog, the machine description
// resolver and the unit registry. A Validator is stateless across runs and
// safe for concurrent use provided its collaborators are.
type Validator struct {
	Catalog  dd.Catalog
	Resolver dd.Resolver
	Units    *units.Registry
	Logger   *slog.Logger
}

// NewValidator creates a validator with the default unit registry.
func NewValidator(catalog dd.Catalog, resolver dd.Resolver) *Validator {
	return &Validator{
		Catalog:  catalog,
		Resolver: resolver,
		Units:    units.DefaultRegistry(),
		Logger:   slog.Default(),
	}
}

// ValidateFile parses and validates the mapping file at path.
func (v *Validator) ValidateFile(path string) (*SignalMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	return v.Validate(data, path)
}

// Validate parses and validates mapping text. label appears in the error
// context, typically the originating filename. On success the returned
// SignalMap is fully validated, with Data Dictionary units resolved on
// every signal. On failure no partial model is returned; the error is a
// *yamltree.SchemaError for document-format violations and a
// *ValidationError for data violations.
func (v *Validator) Validate(text []byte, label string) (*SignalMap, error) {
	if label == "" {
		label = InMemoryLabel
	}
	tree, err := yamltree.Parse(text)
	if err != nil {
		return nil, err
	}
	m, err := buildSignalMap(tree, v.Units)
	if err != nil {
		return nil, annotated(err, tree, label)
	}
	if err := v.crossValidate(m); err != nil {
		return nil, annotated(err, tree, label)
	}
	v.Logger.Debug("Validated mapping",
		slog.String("label", label),
		slog.String("target_ids", m.TargetIDS),
		slog.Int("signals", m.NumSignals()))
	return m, nil
}

func annotated(err error, tree *yamltree.Tree, label string) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		verr.annotate(tree, label)
	}
	return err
}

// crossValidate walks the document model against the Data Dictionary and
// the machine description. The steps run in a fixed order and the first
// violation wins; there is no multi-error accumulation.
func (v *Validator) crossValidate(m *SignalMap) error {
	// Step 1: Data Dictionary version.
	if strings.HasPrefix(m.DataDictionaryVersion, "3.") {
		return newError("Data Dictionary 3.x is not supported.", "data_dictionary_version")
	}
	meta, err := v.Catalog.Metadata(m.DataDictionaryVersion)
	if err != nil {
		return surfaceError(err, "data_dictionary_version")
	}

	// Step 2: target IDS.
	idsMeta, err := meta.IDS(m.TargetIDS)
	if err != nil {
		return surfaceError(err, "target_ids")
	}

	// Step 3: machine description.
	md, err := v.Resolver.Resolve(m.MachineDescriptionURI, m.DataDictionaryVersion, m.TargetIDS)
	if err != nil {
		return wrapError(err, "Could not load Machine Description", "machine_description_uri")
	}

	// Step 4: per array-path pass, in document order.
	for _, pc := range m.Signals {
		pm, ok := idsMeta.Path(pc.IDSPath)
		if !ok {
			return newError(fmt.Sprintf("Unknown or invalid IDS path '%s'", pc.IDSPath), "signals", pc.IDSPath)
		}
		if pm.Kind != dd.StructArray {
			return newError(fmt.Sprintf("IDS path '%s' is not an array of structures", pc.IDSPath), "signals", pc.IDSPath)
		}

		// An array path absent from the machine description yields an
		// empty element set, so every channel fails as not found below.
		elements, _ := md.Elements(pc.IDSPath)
		valid := make(map[string]struct{}, len(elements))
		for _, el := range elements {
			valid[el.Name] = struct{}{}
		}

		seen := make(map[string]struct{}, len(pc.Channels))
		for i, ch := range pc.Channels {
			if _, ok := valid[ch.Name]; !ok {
				return newError(
					fmt.Sprintf("Channel '%s' not found in Machine Description", ch.Name),
					"signals", pc.IDSPath, i, "name")
			}
			if _, dup := seen[ch.Name]; dup {
				return newError(
					fmt.Sprintf("Duplicate channel name '%s'", ch.Name),
					"signals", pc.IDSPath, i, "name")
			}
			seen[ch.Name] = struct{}{}

			for _, sig := range ch.Signals {
				if err := v.resolveSignal(idsMeta, pc.IDSPath, i, sig); err != nil {
					return err
				}
			}
		}
	}

	// Step 5: whole-document uniqueness of signal ids and channel names,
	// reported at the second occurrence. Duplicate channel names within a
	// single array path were already caught, more specifically, above.
	signalSeen := make(map[string]struct{})
	nameSeen := make(map[string]struct{})
	for _, pc := range m.Signals {
		for i, ch := range pc.Channels {
			if _, dup := nameSeen[ch.Name]; dup {
				return newError(
					fmt.Sprintf("Duplicate IMAS name in channel mapping: '%s'.", ch.Name),
					"signals", pc.IDSPath, i, "name")
			}
			nameSeen[ch.Name] = struct{}{}
			for _, sig := range ch.Signals {
				if _, dup := signalSeen[sig.Signal]; dup {
					return newError(
						fmt.Sprintf("Duplicate signal name in channel mapping: '%s'.", sig.Signal),
						"signals", pc.IDSPath, i, sig.Path)
				}
				signalSeen[sig.Signal] = struct{}{}
			}
		}
	}
	return nil
}

// resolveSignal checks the signal's relative path against the channel
// element metadata and records the Data Dictionary units after verifying
// dimensional compatibility with the source units.
func (v *Validator) resolveSignal(idsMeta *dd.IDSMeta, idsPath string, channel int, sig *ChannelSignal) error {
	errPath := []any{"signals", idsPath, channel, sig.Path}

	pm, ok := idsMeta.Path(idsPath + "/" + sig.Path)
	if !ok {
		return newError(fmt.Sprintf("Invalid path '%s'", sig.Path), errPath...)
	}
	ddUnit, err := v.Units.Unit(normalizeDDUnits(pm.Units))
	if err != nil {
		return wrapError(err, fmt.Sprintf("Error parsing Data Dictionary unit [%s]", pm.Units), errPath...)
	}
	if !sig.SourceUnits.Units.Compatible(ddUnit) {
		return newError(
			fmt.Sprintf("Unit [%s] is incompatible with the IMAS Data Dictionary units [%s]",
				sig.SourceUnits.Units, pm.Units),
			errPath...)
	}
	sig.ddUnits = &ddUnit
	return nil
}

// normalizeDDUnits maps the Data Dictionary's dimensionless notations to a
// parseable expression.
func normalizeDDUnits(u string) string {
	if u == "" || u == "-" {
		return "1"
	}
	return u
}
