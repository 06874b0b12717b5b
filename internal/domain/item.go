package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ManageableItem is one entry of a list-valued sub-resource (highlight,
// included point, non-included point, important information).
type ManageableItem struct {
	ID                 *string `json:"id,omitempty" yaml:"id,omitempty"`
	Name               string  `json:"name" yaml:"name"`
	Code               string  `json:"code" yaml:"code"`
	VisualizationOrder int     `json:"visualization_order" yaml:"visualization_order"`
	LanguageCode       string  `json:"language_code" yaml:"language_code"`
	Action             Action  `json:"action,omitempty" yaml:"action,omitempty"`
}

// HasID reports whether the item was persisted server-side.
func (m ManageableItem) HasID() bool {
	return m.ID != nil && strings.TrimSpace(*m.ID) != ""
}

// IDValue returns the id or "" when the item has none.
func (m ManageableItem) IDValue() string {
	if m.ID == nil {
		return ""
	}
	return *m.ID
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// ItemsFromValue decodes a field value (as stored in Document.Fields) into
// manageable items. A nil value yields an empty list.
func ItemsFromValue(v any) ([]ManageableItem, error) {
	if v == nil {
		return []ManageableItem{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding items: %w", err)
	}
	var items []ManageableItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	if items == nil {
		items = []ManageableItem{}
	}
	return items, nil
}

// ItemsToValue encodes items into the generic representation stored in
// Document.Fields.
func ItemsToValue(items []ManageableItem) (any, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding items: %w", err)
	}
	var out []any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}
