package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/docql/docql/internal/expr"
)

// Scenario defines one compiler conformance case.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Table overrides the target table name. Defaults to "kv_default".
	Table string `yaml:"table,omitempty"`

	// Column overrides the document column name. Defaults to "body".
	Column string `yaml:"column,omitempty"`

	// Where is the query predicate. Key order is preserved.
	// If absent, the query matches every document.
	Where yaml.Node `yaml:"where,omitempty"`

	// Sort is the sort specification: a single property string or a
	// list of them. If absent, results sort by document key.
	Sort yaml.Node `yaml:"sort,omitempty"`

	// WantError marks scenarios whose query must be rejected.
	// Rejected scenarios have no golden file.
	WantError bool `yaml:"want_error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so that typos fail loudly instead of silently dropping
// part of the scenario.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string)
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("scenario name %q used by both %s and %s", s.Name, prev, path)
		}
		seen[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	return nil
}

// exprFromNode converts a parsed YAML node into an expression tree,
// preserving mapping key order. A zero node (field absent from the
// scenario) converts to nil.
func exprFromNode(n *yaml.Node) (expr.Value, error) {
	if n == nil || n.Kind == 0 {
		return nil, nil
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) != 1 {
			return nil, fmt.Errorf("line %d: expected a single document", n.Line)
		}
		return exprFromNode(n.Content[0])

	case yaml.ScalarNode:
		return exprFromScalar(n)

	case yaml.SequenceNode:
		arr := make(expr.Array, len(n.Content))
		for i, elem := range n.Content {
			v, err := exprFromNode(elem)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil

	case yaml.MappingNode:
		obj := make(expr.Object, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be strings", key.Line)
			}
			v, err := exprFromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			if obj.Get(key.Value) != nil {
				return nil, fmt.Errorf("line %d: duplicate key %q", key.Line, key.Value)
			}
			obj = append(obj, expr.Field{Key: key.Value, Val: v})
		}
		return obj, nil

	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}

func exprFromScalar(n *yaml.Node) (expr.Value, error) {
	switch n.Tag {
	case "!!null":
		return expr.Null{}, nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad bool %q", n.Line, n.Value)
		}
		return expr.Bool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad integer %q", n.Line, n.Value)
		}
		return expr.Int(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad float %q", n.Line, n.Value)
		}
		return expr.Float(f), nil
	case "!!str":
		return expr.String(n.Value), nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML scalar tag %s", n.Line, n.Tag)
	}
}
