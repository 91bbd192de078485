package mapping

import (
	"fmt"
	"strings"

	"github.com/iter-codac/imas-mapping/units"
	"github.com/iter-codac/imas-mapping/yamltree"
)

var topLevelKeys = []string{
	"description",
	"data_dictionary_version",
	"machine_description_uri",
	"target_ids",
	"signals",
}

// buildSignalMap constructs the document model from the parsed tree,
// enforcing the fixed document shape. Shape violations are
// *yamltree.SchemaError; signal-expression violations (missing or invalid
// units) are *ValidationError tagged with their structural path.
func buildSignalMap(tree *yamltree.Tree, reg *units.Registry) (*SignalMap, error) {
	root := tree.Root
	if root.Kind != yamltree.Mapping {
		return nil, yamltree.Errorf(root.Line, "expected a mapping at the document root")
	}

	known := make(map[string]struct{}, len(topLevelKeys))
	for _, k := range topLevelKeys {
		known[k] = struct{}{}
	}
	for _, e := range root.Entries {
		if _, ok := known[e.Key]; !ok {
			return nil, yamltree.Errorf(e.KeyLine, "unexpected key %q", e.Key)
		}
	}

	m := &SignalMap{}
	var err error
	if m.Description, err = requireString(root, "description"); err != nil {
		return nil, err
	}
	if m.DataDictionaryVersion, err = requireString(root, "data_dictionary_version"); err != nil {
		return nil, err
	}
	if m.MachineDescriptionURI, err = requireString(root, "machine_description_uri"); err != nil {
		return nil, err
	}
	if m.TargetIDS, err = requireString(root, "target_ids"); err != nil {
		return nil, err
	}

	signals, ok := root.Get("signals")
	if !ok {
		return nil, yamltree.Errorf(root.Line, "missing required key %q", "signals")
	}
	if signals.Kind != yamltree.Mapping {
		return nil, yamltree.Errorf(signals.KeyLine, "%q must be a mapping of IDS paths", "signals")
	}

	for _, pe := range signals.Entries {
		if pe.Value.Kind != yamltree.Sequence {
			return nil, yamltree.Errorf(pe.KeyLine, "signals entry %q must be a sequence of channel mappings", pe.Key)
		}
		pc := PathChannels{IDSPath: pe.Key}
		for i, item := range pe.Value.Items {
			ch, err := buildChannel(item, pe.Key, i, reg)
			if err != nil {
				return nil, err
			}
			pc.Channels = append(pc.Channels, ch)
		}
		m.Signals = append(m.Signals, pc)
	}
	return m, nil
}

func requireString(root *yamltree.Node, key string) (string, error) {
	node, ok := root.Get(key)
	if !ok {
		return "", yamltree.Errorf(root.Line, "missing required key %q", key)
	}
	if node.Kind != yamltree.Scalar {
		return "", yamltree.Errorf(node.KeyLine, "%q must be a string", key)
	}
	return node.Value, nil
}

func buildChannel(item *yamltree.Node, idsPath string, index int, reg *units.Registry) (*ChannelMap, error) {
	if item.Kind != yamltree.Mapping {
		return nil, yamltree.Errorf(item.Line, "channel entries must be mappings")
	}
	name, ok := item.Get("name")
	if !ok {
		return nil, yamltree.Errorf(item.Line, "missing required key %q in channel mapping", "name")
	}
	if name.Kind != yamltree.Scalar {
		return nil, yamltree.Errorf(name.KeyLine, "channel %q must be a string", "name")
	}

	ch := &ChannelMap{Name: name.Value}
	for _, e := range item.Entries {
		if e.Key == "name" {
			continue
		}
		if e.Value.Kind != yamltree.Scalar {
			return nil, yamltree.Errorf(e.KeyLine, "signal mapping %q must be a string", e.Key)
		}
		sig, err := parseSignalExpression(e.Key, e.Value.Value, reg, "signals", idsPath, index, e.Key)
		if err != nil {
			return nil, err
		}
		ch.Signals = append(ch.Signals, sig)
	}
	return ch, nil
}

// parseSignalExpression splits "SIG-A [mV]" into the bare signal id and its
// unit annotation, parsed through the unit registry.
func parseSignalExpression(path, raw string, reg *units.Registry, errPath ...any) (*ChannelSignal, error) {
	signal, rest, found := strings.Cut(raw, "[")
	if !found {
		return nil, newError(
			fmt.Sprintf("Missing unit in mapping for signal '%s'", strings.TrimSpace(signal)), errPath...)
	}
	if !strings.HasSuffix(rest, "]") {
		return nil, newError(fmt.Sprintf("Was expecting a closing ']' in '%s'", raw), errPath...)
	}
	unitStr := strings.TrimSuffix(rest, "]")
	q, err := reg.Quantity(unitStr)
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("Error parsing unit [%s]", unitStr), errPath...)
	}
	return &ChannelSignal{
		Path:        path,
		Signal:      strings.TrimSpace(signal),
		SourceUnits: q,
	}, nil
}
