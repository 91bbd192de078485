package dd

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Element is one named entry of an array of structures in a machine
// description, e.g. one physical sensor.
type Element struct {
	Name string `yaml:"name"`
}

// MachineDescription is a concrete IDS instance holding static facility
// metadata: the named elements of each top-level array of structures.
type MachineDescription struct {
	Version string
	IDS     string
	arrays  map[string][]Element
	order   []string
}

// Elements returns the elements of the given array-of-structures path.
func (md *MachineDescription) Elements(path string) ([]Element, bool) {
	els, ok := md.arrays[path]
	return els, ok
}

// ArrayPaths returns the array paths in declaration order.
func (md *MachineDescription) ArrayPaths() []string {
	return md.order
}

type machineFile struct {
	Version string    `yaml:"data_dictionary_version"`
	IDS     string    `yaml:"ids"`
	Arrays  yaml.Node `yaml:"arrays"`
}

// ParseMachineDescription parses a machine description document.
func ParseMachineDescription(data []byte) (*MachineDescription, error) {
	var f machineFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse machine description: %w", err)
	}
	if f.IDS == "" {
		return nil, fmt.Errorf("machine description is missing an ids name")
	}
	md := &MachineDescription{Version: f.Version, IDS: f.IDS, arrays: make(map[string][]Element)}
	// Decode arrays through yaml.Node to keep declaration order.
	if f.Arrays.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(f.Arrays.Content); i += 2 {
			k, v := f.Arrays.Content[i], f.Arrays.Content[i+1]
			var els []Element
			if err := v.Decode(&els); err != nil {
				return nil, fmt.Errorf("failed to parse elements of %q: %w", k.Value, err)
			}
			md.arrays[k.Value] = els
			md.order = append(md.order, k.Value)
		}
	}
	return md, nil
}

// FileResolver resolves machine description URIs that point at local YAML
// files, either as a plain path or with a "file://" scheme.
type FileResolver struct{}

// Resolve loads the machine description at uri and checks that it contains
// the requested IDS.
func (FileResolver) Resolve(uri, version, ids string) (*MachineDescription, error) {
	path := strings.TrimPrefix(uri, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine description '%s': %w", uri, err)
	}
	md, err := ParseMachineDescription(data)
	if err != nil {
		return nil, err
	}
	if md.IDS != ids {
		return nil, fmt.Errorf("IDS '%s' is not present in '%s'", ids, uri)
	}
	return md, nil
}
