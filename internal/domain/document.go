package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Field is one editable property of a document's working copy.
type Field struct {
	Value    any    `json:"value"`
	Required bool   `json:"required"`
	Category string `json:"category"`
}

// Document is the local working copy of one editorial record.
//
// Data mirrors the last server representation and only changes through
// ApplySaved or a fresh pull. Fields is what the editor sees and edits.
type Document struct {
	ID           string
	Kind         DocumentKind
	ExperienceID string
	LanguageCode string

	Data   map[string]any
	Fields map[string]Field

	Modified   bool
	StatusCode StatusCode
	FlowCode   FlowCode

	FetchedAt time.Time
	UpdatedAt time.Time
}

// SetField replaces the value of an existing field and marks the document modified.
func (d *Document) SetField(name string, value any, now time.Time) error {
	f, ok := d.Fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	f.Value = value
	d.Fields[name] = f
	d.Modified = true
	d.UpdatedAt = now
	return nil
}

// FieldValue returns the current value of a field, or nil when absent.
func (d *Document) FieldValue(name string) any {
	if f, ok := d.Fields[name]; ok {
		return f.Value
	}
	return nil
}

// ApplySaved records a server-acknowledged save: Data becomes the saved
// representation, the status moves to the acknowledged one and the
// modified flag clears.
func (d *Document) ApplySaved(data map[string]any, status StatusCode, now time.Time) {
	d.Data = data
	if status != "" {
		d.StatusCode = status
	}
	d.Modified = false
	d.UpdatedAt = now
}

// DisplayID returns an 8-character prefix of the document ID.
func (d *Document) DisplayID() string {
	if len(d.ID) >= 8 {
		return d.ID[:8]
	}
	return d.ID
}

// Clone returns a deep copy so callers can mutate it without touching the
// original. Values are copied through a JSON round trip, which is the
// representation they were decoded from.
func (d *Document) Clone() (*Document, error) {
	out := *d
	data, err := cloneJSON(d.Data)
	if err != nil {
		return nil, fmt.Errorf("cloning data: %w", err)
	}
	out.Data = data

	out.Fields = make(map[string]Field, len(d.Fields))
	for k, f := range d.Fields {
		v, err := cloneJSON(f.Value)
		if err != nil {
			return nil, fmt.Errorf("cloning field %s: %w", k, err)
		}
		f.Value = v
		out.Fields[k] = f
	}
	return &out, nil
}

func cloneJSON[T any](v T) (T, error) {
	var out T
	raw, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}
