package diff

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/alexanderramin/expedit/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var tableFiles embed.FS

// Partition is the wire group a property is emitted under.
type Partition string

const (
	PartitionTop        Partition = "top"
	PartitionCommercial Partition = "commercial"
	PartitionFunctional Partition = "functional"
	// PartitionResource marks list-valued sub-resources that are saved
	// through their own endpoints and never appear in a PATCH body.
	PartitionResource Partition = "resource"
)

// Transform is applied to both sides of a property before comparison.
type Transform string

const (
	TransformNone Transform = ""
	// TransformCodes turns a list of objects into the list of their "code".
	TransformCodes Transform = "codes"
)

// Equality selects how list values are compared.
type Equality string

const (
	EqualityOrdered   Equality = "ordered"
	EqualityUnordered Equality = "unordered"
)

// Property declares one editable property of a document kind.
type Property struct {
	Name      string    `yaml:"name"`
	Partition Partition `yaml:"partition"`
	Path      string    `yaml:"path"`
	WireKey   string    `yaml:"wire_key"`
	Transform Transform `yaml:"transform"`
	Equality  Equality  `yaml:"equality"`
	Category  string    `yaml:"category"`
	Required  bool      `yaml:"required"`
	MaxLength int       `yaml:"max_length"`
	MinItems  int       `yaml:"min_items"`
}

// Table is the mapping table for one document kind.
type Table struct {
	Kind       domain.DocumentKind `yaml:"kind"`
	Key        string              `yaml:"key"`
	Properties []Property          `yaml:"properties"`

	byName map[string]*Property
}

// Property returns the declaration for name.
func (t *Table) Property(name string) (*Property, bool) {
	p, ok := t.byName[name]
	return p, ok
}

// Names returns property names in declaration order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.Properties))
	for _, p := range t.Properties {
		names = append(names, p.Name)
	}
	return names
}

// ParseTable decodes and normalizes a YAML mapping table.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding table: %w", err)
	}
	if err := t.normalize(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) normalize() error {
	if t.Key == "" {
		t.Key = "experience_id"
	}
	t.byName = make(map[string]*Property, len(t.Properties))
	for i := range t.Properties {
		p := &t.Properties[i]
		if p.Name == "" {
			return fmt.Errorf("table %s: property %d has no name", t.Kind, i)
		}
		if _, dup := t.byName[p.Name]; dup {
			return fmt.Errorf("table %s: duplicate property %q", t.Kind, p.Name)
		}
		switch p.Partition {
		case PartitionTop, PartitionCommercial, PartitionFunctional, PartitionResource:
		case "":
			p.Partition = PartitionTop
		default:
			return fmt.Errorf("table %s: property %q has unknown partition %q", t.Kind, p.Name, p.Partition)
		}
		switch p.Transform {
		case TransformNone, TransformCodes:
		default:
			return fmt.Errorf("table %s: property %q has unknown transform %q", t.Kind, p.Name, p.Transform)
		}
		if p.Equality == "" {
			p.Equality = EqualityOrdered
		}
		if p.WireKey == "" {
			p.WireKey = p.Name
		}
		if p.Path == "" {
			if p.Partition == PartitionCommercial || p.Partition == PartitionFunctional {
				p.Path = string(p.Partition) + "." + p.Name
			} else {
				p.Path = p.Name
			}
		}
		if p.Category == "" {
			p.Category = strings.ToLower(string(p.Partition))
		}
		t.byName[p.Name] = p
	}
	return nil
}

// Registry holds the mapping tables for every document kind.
type Registry struct {
	mu     sync.RWMutex
	tables map[domain.DocumentKind]*Table
}

// NewRegistry loads the embedded mapping tables.
func NewRegistry() (*Registry, error) {
	r := &Registry{tables: make(map[domain.DocumentKind]*Table)}
	for _, kind := range []domain.DocumentKind{domain.KindRaw, domain.KindTranslation, domain.KindMedia} {
		if err := r.loadTableFile(kind); err != nil {
			return nil, fmt.Errorf("loading %s table: %w", kind, err)
		}
	}
	return r, nil
}

func (r *Registry) loadTableFile(kind domain.DocumentKind) error {
	filename := fmt.Sprintf("tables/%s.yaml", kind)
	data, err := tableFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return err
	}
	if t.Kind != kind {
		return fmt.Errorf("%s declares kind %q", filename, t.Kind)
	}
	r.mu.Lock()
	r.tables[kind] = t
	r.mu.Unlock()
	return nil
}

// Table returns the mapping table for kind.
func (r *Registry) Table(kind domain.DocumentKind) (*Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[kind]
	if !ok {
		return nil, fmt.Errorf("no mapping table for document kind %q", kind)
	}
	return t, nil
}
