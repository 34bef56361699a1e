// Package schema provides declarative graph schemas for Yggdrasil.
//
// A schema describes the shape of a graph: which node labels exist, which
// properties they carry, and which edge types connect which labels with what
// cardinality. The query engine never consults the schema at runtime;
// mutation callers (the embedded facade, importers) validate against it
// before writing to the store.
//
// Schemas are plain data and load from YAML:
//
//	nodes:
//	  user:
//	    properties:
//	      name:     {type: string, required: true}
//	      verified: {type: bool}
//	  post:
//	    properties:
//	      title:  {type: string, required: true}
//	      status: {type: string}
//	edges:
//	  authored:
//	    from: user
//	    to: post
//	    cardinality: many
//
// Example Usage:
//
//	s, err := schema.LoadFile("schema.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := s.ValidateNode("user", props); err != nil {
//		return err // wraps schema.ErrValidation
//	}
package schema

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrValidation is wrapped by every validation failure.
var ErrValidation = errors.New("schema validation failed")

// PropertyType names the supported property value types.
type PropertyType string

// Property types. TypeAny accepts every value in the supported domain.
const (
	TypeString    PropertyType = "string"
	TypeInt       PropertyType = "int"
	TypeFloat     PropertyType = "float"
	TypeBool      PropertyType = "bool"
	TypeTimestamp PropertyType = "timestamp"
	TypeList      PropertyType = "list"
	TypeAny       PropertyType = "any"
)

// Cardinality declares how many edges of a type may leave one node. It is
// recorded from the schema only; ValidateEdge does not check it.
type Cardinality string

// Cardinalities.
const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// PropertySpec describes one property of a node or edge.
type PropertySpec struct {
	Type     PropertyType `yaml:"type"`
	Required bool         `yaml:"required,omitempty"`
}

// NodeSpec describes the property shape of one node label.
type NodeSpec struct {
	Properties map[string]PropertySpec `yaml:"properties,omitempty"`
}

// EdgeSpec describes one edge type: endpoint labels, cardinality, and
// property shape.
type EdgeSpec struct {
	From        string                  `yaml:"from"`
	To          string                  `yaml:"to"`
	Cardinality Cardinality             `yaml:"cardinality,omitempty"`
	Properties  map[string]PropertySpec `yaml:"properties,omitempty"`
}

// Schema is the full declarative description of a graph's shape. The zero
// value (no labels, no edge types) accepts everything - validation is
// opt-in per label and edge type.
type Schema struct {
	Nodes map[string]NodeSpec `yaml:"nodes,omitempty"`
	Edges map[string]EdgeSpec `yaml:"edges,omitempty"`
}

// Parse decodes a schema from YAML.
func Parse(data []byte) (*Schema, error) {
	s := &Schema{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return s, nil
}

// LoadFile reads and parses a schema file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Parse(data)
}

// ValidateNode checks a property map against the declared shape of a label.
// Unknown labels pass when the schema declares no nodes at all; otherwise
// they fail. Declared labels reject missing required properties and
// mistyped values; undeclared properties are allowed.
func (s *Schema) ValidateNode(label string, props map[string]any) error {
	if s == nil || len(s.Nodes) == 0 {
		return nil
	}
	spec, known := s.Nodes[label]
	if !known {
		return fmt.Errorf("unknown label %q: %w", label, ErrValidation)
	}
	return validateProperties("node "+label, spec.Properties, props)
}

// ValidateEdge checks an edge's type, endpoint labels, and properties.
func (s *Schema) ValidateEdge(edgeType, fromLabel, toLabel string, props map[string]any) error {
	if s == nil || len(s.Edges) == 0 {
		return nil
	}
	spec, known := s.Edges[edgeType]
	if !known {
		return fmt.Errorf("unknown edge type %q: %w", edgeType, ErrValidation)
	}
	if spec.From != "" && spec.From != fromLabel {
		return fmt.Errorf("edge %s: from label %q, want %q: %w", edgeType, fromLabel, spec.From, ErrValidation)
	}
	if spec.To != "" && spec.To != toLabel {
		return fmt.Errorf("edge %s: to label %q, want %q: %w", edgeType, toLabel, spec.To, ErrValidation)
	}
	return validateProperties("edge "+edgeType, spec.Properties, props)
}

func validateProperties(context string, specs map[string]PropertySpec, props map[string]any) error {
	for name, spec := range specs {
		value, present := props[name]
		if !present || value == nil {
			if spec.Required {
				return fmt.Errorf("%s: missing required property %q: %w", context, name, ErrValidation)
			}
			continue
		}
		if !matchesType(spec.Type, value) {
			return fmt.Errorf("%s: property %q: %T does not match %s: %w",
				context, name, value, spec.Type, ErrValidation)
		}
	}
	return nil
}

func matchesType(t PropertyType, value any) bool {
	switch t {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeInt:
		switch value.(type) {
		case int, int32, int64:
			return true
		}
		return false
	case TypeFloat:
		switch value.(type) {
		case float32, float64:
			return true
		}
		return false
	case TypeBool:
		_, ok := value.(bool)
		return ok
	case TypeTimestamp:
		_, ok := value.(time.Time)
		return ok
	case TypeList:
		_, ok := value.([]any)
		return ok
	case TypeAny, "":
		return true
	default:
		return false
	}
}
