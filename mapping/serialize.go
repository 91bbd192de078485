package mapping

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ToYAML serializes the signal map back into the mapping file format,
// preserving declaration order. Channel signals are rendered as
// "<path>: <signal> [<units>]" entries next to the channel name.
func (m *SignalMap) ToYAML() ([]byte, error) {
	signals := mappingNode()
	for _, pc := range m.Signals {
		channels := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, ch := range pc.Channels {
			entry := mappingNode()
			appendPair(entry, "name", ch.Name)
			for _, sig := range ch.Signals {
				appendPair(entry, sig.Path, sig.SourceExpression())
			}
			channels.Content = append(channels.Content, entry)
		}
		signals.Content = append(signals.Content, strNode(pc.IDSPath), channels)
	}

	root := mappingNode()
	appendPair(root, "description", m.Description)
	appendPair(root, "data_dictionary_version", m.DataDictionaryVersion)
	appendPair(root, "machine_description_uri", m.MachineDescriptionURI)
	appendPair(root, "target_ids", m.TargetIDS)
	root.Content = append(root.Content, strNode("signals"), signals)

	return yaml.Marshal(root)
}

// SourceExpression renders the signal with its unit annotation, as written
// in a mapping file.
func (s *ChannelSignal) SourceExpression() string {
	if s.SourceUnits.Magnitude == 1 {
		return fmt.Sprintf("%s [%s]", s.Signal, s.SourceUnits.Units)
	}
	return fmt.Sprintf("%s [%g %s]", s.Signal, s.SourceUnits.Magnitude, s.SourceUnits.Units)
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func appendPair(m *yaml.Node, key, value string) {
	m.Content = append(m.Content, strNode(key), strNode(value))
}
