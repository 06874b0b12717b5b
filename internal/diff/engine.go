// Package diff computes minimal PATCH bodies between a document's last
// fetched server representation and its edited working copy.
package diff

import (
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/expedit/internal/domain"
)

// Input is everything the engine needs to compute a patch.
type Input struct {
	Table      *Table
	NaturalKey string
	Data       map[string]any
	Fields     map[string]domain.Field
	Status     domain.StatusCode
	Event      domain.Event
}

// Patch is the partitioned set of changes for one document.
// A zero Patch (IsEmpty) means nothing must be sent.
type Patch struct {
	KeyName    string
	Key        string
	TopLevel   map[string]any
	Commercial map[string]any
	Functional map[string]any
	// StatusCode is set only when the save moves the document to a new status.
	StatusCode domain.StatusCode
	// Changed lists the changed property names in table order.
	Changed []string
}

// IsEmpty reports whether the patch carries neither data nor a status change.
func (p Patch) IsEmpty() bool {
	return len(p.Changed) == 0 && p.StatusCode == ""
}

// Body renders the wire shape: the natural key, any non-empty partitions,
// the status transition and changed top-level scalars. An empty patch
// renders as nil.
func (p Patch) Body() map[string]any {
	if p.IsEmpty() {
		return nil
	}
	body := make(map[string]any, len(p.TopLevel)+4)
	for k, v := range p.TopLevel {
		body[k] = v
	}
	if len(p.Commercial) > 0 {
		body[string(PartitionCommercial)] = p.Commercial
	}
	if len(p.Functional) > 0 {
		body[string(PartitionFunctional)] = p.Functional
	}
	if p.StatusCode != "" {
		body["status_code"] = p.StatusCode
	}
	body[p.KeyName] = p.Key
	return body
}

// MarshalJSON encodes the wire body.
func (p Patch) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Body())
}

// Compute returns the smallest patch that turns Data into Fields under the
// mapping table, plus the status transition implied by Event. It has no
// side effects and does not fail on missing optional properties.
func Compute(in Input) Patch {
	patch := Patch{KeyName: "experience_id", Key: in.NaturalKey}
	if in.Table == nil {
		return patch
	}
	patch.KeyName = in.Table.Key

	for i := range in.Table.Properties {
		p := &in.Table.Properties[i]
		if p.Partition == PartitionResource {
			continue
		}
		field, editable := in.Fields[p.Name]
		if !editable {
			continue
		}
		original, _ := lookup(in.Data, p.Path)
		before := prepare(p, original)
		after := prepare(p, field.Value)
		if equal(p, before, after) {
			continue
		}

		patch.Changed = append(patch.Changed, p.Name)
		switch p.Partition {
		case PartitionCommercial:
			if patch.Commercial == nil {
				patch.Commercial = make(map[string]any)
			}
			patch.Commercial[p.WireKey] = after
		case PartitionFunctional:
			if patch.Functional == nil {
				patch.Functional = make(map[string]any)
			}
			patch.Functional[p.WireKey] = after
		default:
			if patch.TopLevel == nil {
				patch.TopLevel = make(map[string]any)
			}
			patch.TopLevel[p.WireKey] = after
		}
	}

	// An edit transition needs an actual edit; publish may stand alone.
	if in.Event == domain.EventEdit && len(patch.Changed) == 0 {
		return patch
	}
	if next, changed := domain.NextStatus(in.Status, in.Event); changed {
		patch.StatusCode = next
	}
	return patch
}

// Apply returns the representation the server holds after accepting patch:
// a copy of data with every changed property replaced by the field value.
func Apply(data map[string]any, fields map[string]domain.Field, table *Table, patch Patch) (map[string]any, error) {
	out, ok := normalize(data).(map[string]any)
	if !ok {
		out = make(map[string]any)
	}
	for _, name := range patch.Changed {
		p, ok := table.Property(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownField, name)
		}
		assign(out, p.Path, normalize(fields[name].Value))
	}
	if patch.StatusCode != "" {
		out["status_code"] = string(patch.StatusCode)
	}
	return out, nil
}

// BuildFields derives the editable working copy from a server representation.
func BuildFields(data map[string]any, table *Table) map[string]domain.Field {
	fields := make(map[string]domain.Field, len(table.Properties))
	for _, p := range table.Properties {
		v, _ := lookup(data, p.Path)
		fields[p.Name] = domain.Field{
			Value:    normalize(v),
			Required: p.Required,
			Category: p.Category,
		}
	}
	return fields
}
