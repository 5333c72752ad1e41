// Package schemafile provides loading and parsing of schema.yaml
// manifests. A manifest declares node types, edge types with their
// allowed paths, and the properties of each, and can be applied to a
// schema.Registry in one call, which makes a deployment's full schema a
// reviewable file instead of a sequence of registration calls.
package schemafile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/context-protocol/sdk/identity"
	"github.com/context-protocol/sdk/property"
	"github.com/context-protocol/sdk/schema"
)

// Manifest represents a schema.yaml file.
type Manifest struct {
	// Name labels the manifest; informational only.
	Name string `yaml:"name,omitempty"`

	// NodeTypes are registered first, so edge types can reference them.
	NodeTypes []NodeType `yaml:"node_types"`

	// EdgeTypes are registered after node types, in declaration order.
	EdgeTypes []EdgeType `yaml:"edge_types,omitempty"`
}

// NodeType declares one node type and its properties.
type NodeType struct {
	Name       string     `yaml:"name"`
	Properties []Property `yaml:"properties,omitempty"`
}

// EdgeType declares one edge type, its allowed paths, and its properties.
type EdgeType struct {
	Name       string     `yaml:"name"`
	Paths      []Path     `yaml:"paths"`
	Properties []Property `yaml:"properties,omitempty"`
}

// Path is one allowed source/target node type pair, by type name.
type Path struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// Property declares one property by name and type spelling ("string",
// "number", "date", "time", "boolean").
type Property struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Load reads and parses a schema.yaml file from the given path. If the
// path is a directory, it looks for schema.yaml or schema.yml in that
// directory.
func Load(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	manifestPath := path
	if info.IsDir() {
		yamlPath := filepath.Join(path, "schema.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			manifestPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "schema.yml")
			if _, err := os.Stat(ymlPath); err != nil {
				return nil, fmt.Errorf("no schema.yaml or schema.yml found in %s", path)
			}
			manifestPath = ymlPath
		}
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return Parse(data)
}

// Parse parses manifest bytes and validates them: every declared name
// must be non-empty, every property type spelling must parse, and every
// path endpoint must name a node type declared in the same manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if len(m.NodeTypes) == 0 {
		return fmt.Errorf("manifest declares no node types")
	}

	nodeNames := make(map[string]bool, len(m.NodeTypes))
	for _, nt := range m.NodeTypes {
		if nt.Name == "" {
			return fmt.Errorf("node type with empty name")
		}
		if nodeNames[nt.Name] {
			return fmt.Errorf("node type %q declared twice", nt.Name)
		}
		nodeNames[nt.Name] = true
		if err := validateProperties(nt.Name, nt.Properties); err != nil {
			return err
		}
	}

	for _, et := range m.EdgeTypes {
		if et.Name == "" {
			return fmt.Errorf("edge type with empty name")
		}
		if nodeNames[et.Name] {
			return fmt.Errorf("edge type %q collides with a node type", et.Name)
		}
		if len(et.Paths) == 0 {
			return fmt.Errorf("edge type %q declares no paths", et.Name)
		}
		for _, p := range et.Paths {
			if !nodeNames[p.Source] {
				return fmt.Errorf("edge type %q: unknown source node type %q", et.Name, p.Source)
			}
			if !nodeNames[p.Target] {
				return fmt.Errorf("edge type %q: unknown target node type %q", et.Name, p.Target)
			}
		}
		if err := validateProperties(et.Name, et.Properties); err != nil {
			return err
		}
	}
	return nil
}

func validateProperties(owner string, props []Property) error {
	seen := make(map[string]bool, len(props))
	for _, p := range props {
		if p.Name == "" {
			return fmt.Errorf("%s: property with empty name", owner)
		}
		if seen[p.Name] {
			return fmt.Errorf("%s: property %q declared twice", owner, p.Name)
		}
		seen[p.Name] = true
		if _, err := property.ParseType(p.Type); err != nil {
			return fmt.Errorf("%s: property %q: %w", owner, p.Name, err)
		}
	}
	return nil
}

// Apply registers everything the manifest declares in the registry, as
// the given actor: node types first, then edge types path by path, then
// properties in declaration order. Apply is not transactional; on error
// the registrations made so far remain.
func (m *Manifest) Apply(ctx context.Context, reg *schema.Registry, actor identity.Identity) error {
	typeIDs := make(map[string]identity.ID, len(m.NodeTypes))

	for _, nt := range m.NodeTypes {
		id, err := reg.RegisterNodeType(ctx, nt.Name, actor)
		if err != nil {
			return fmt.Errorf("node type %q: %w", nt.Name, err)
		}
		typeIDs[nt.Name] = id
		if err := applyProperties(ctx, reg, id, nt.Name, nt.Properties, actor); err != nil {
			return err
		}
	}

	for _, et := range m.EdgeTypes {
		var id identity.ID
		for _, p := range et.Paths {
			pathID, err := reg.RegisterEdgeType(ctx, et.Name, typeIDs[p.Source], typeIDs[p.Target], actor)
			if err != nil {
				return fmt.Errorf("edge type %q (%s -> %s): %w", et.Name, p.Source, p.Target, err)
			}
			id = pathID
		}
		if err := applyProperties(ctx, reg, id, et.Name, et.Properties, actor); err != nil {
			return err
		}
	}
	return nil
}

func applyProperties(ctx context.Context, reg *schema.Registry, typeID identity.ID, owner string, props []Property, actor identity.Identity) error {
	for _, p := range props {
		t, err := property.ParseType(p.Type)
		if err != nil {
			return fmt.Errorf("%s: property %q: %w", owner, p.Name, err)
		}
		if _, err := reg.RegisterProperty(ctx, typeID, p.Name, t, actor); err != nil {
			return fmt.Errorf("%s: property %q: %w", owner, p.Name, err)
		}
	}
	return nil
}
