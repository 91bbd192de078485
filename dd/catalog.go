// Package dd models the external collaborators of the mapping validator:
// the IMAS Data Dictionary catalog, which exposes per-path metadata (node
// kind and units) for a given dictionary version, and the machine
// description resolver, which loads the facility metadata an IDS channel
// mapping is checked against.
//
// The reference implementations read YAML files. A dictionary file holds a
// flat path table per IDS:
//
//	version: "4.0.0"
//	ids:
//	  magnetics:
//	    flux_loop: {kind: struct_array}
//	    flux_loop/flux/data: {kind: data, units: Wb}
//
// A machine description file lists the named elements of each array of
// structures:
//
//	data_dictionary_version: "4.0.0"
//	ids: magnetics
//	arrays:
//	  flux_loop:
//	    - name: 55.AD.00-MSA-1001
package dd

import "fmt"

// NodeKind classifies a Data Dictionary node.
type NodeKind string

const (
	// StructArray is an array of structures, e.g. magnetics/flux_loop.
	StructArray NodeKind = "struct_array"
	// Structure is a single nested structure.
	Structure NodeKind = "structure"
	// Data is a leaf data node carrying units.
	Data NodeKind = "data"
)

// PathMeta is the metadata of one node inside an IDS.
type PathMeta struct {
	Kind  NodeKind `yaml:"kind"`
	Units string   `yaml:"units"`
}

// IDSMeta is the metadata of one IDS within a dictionary version.
type IDSMeta struct {
	Name  string
	paths map[string]PathMeta
}

// Path resolves a slash-separated path inside the IDS.
func (m *IDSMeta) Path(path string) (PathMeta, bool) {
	pm, ok := m.paths[path]
	return pm, ok
}

// Metadata is the full metadata of one Data Dictionary version.
type Metadata struct {
	Version string
	ids     map[string]*IDSMeta
}

// IDS returns the metadata of the named IDS.
func (m *Metadata) IDS(name string) (*IDSMeta, error) {
	ids, ok := m.ids[name]
	if !ok {
		return nil, fmt.Errorf("IDS '%s' does not exist in Data Dictionary version %s", name, m.Version)
	}
	return ids, nil
}

// Catalog produces Data Dictionary metadata for a version string.
// Implementations are expected to cache: validating many mapping files
// against the same version is the common access pattern.
type Catalog interface {
	Metadata(version string) (*Metadata, error)
}

// Resolver loads a machine description for (uri, version, ids).
type Resolver interface {
	Resolve(uri, version, ids string) (*MachineDescription, error)
}
