package testutil

import (
	"encoding/json"
	"time"

	"github.com/alexanderramin/expedit/internal/diff"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/google/uuid"
)

// RawDocumentData is a server representation of a raw experience document,
// shaped the way it decodes from JSON.
func RawDocumentData(experienceID string) map[string]any {
	return roundTrip(map[string]any{
		"experience_id": experienceID,
		"language_code": "en",
		"status_code":   string(domain.StatusUpToDate),
		"flow_code":     string(domain.FlowCuration),
		"supplier_id":   "sup-1",
		"product_brand": "Acme Tours",
		"commercial": map[string]any{
			"title":         "Sunset boat tour",
			"description":   "Two hours along the coast.",
			"meeting_point": "Pier 3",
		},
		"functional": map[string]any{
			"additional_services": []any{
				map[string]any{"code": "GUIDE", "name": "Local guide"},
				map[string]any{"code": "DRINKS", "name": "Drinks"},
			},
			"markets":          []any{map[string]any{"code": "IT"}, map[string]any{"code": "ES"}},
			"duration_minutes": 120,
			"is_bookable":      true,
		},
		"highlights": []any{
			map[string]any{"id": "h-1", "name": "Dolphins", "code": "DOL", "visualization_order": 1, "language_code": "en"},
			map[string]any{"id": "h-2", "name": "Cliffs", "code": "CLF", "visualization_order": 2, "language_code": "en"},
		},
		"included":              []any{},
		"non_included":          []any{},
		"important_information": []any{},
	})
}

func roundTrip(v map[string]any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

// Document options
type DocumentOption func(*domain.Document)

func WithKind(k domain.DocumentKind) DocumentOption {
	return func(d *domain.Document) {
		d.Kind = k
	}
}

func WithLanguage(lang string) DocumentOption {
	return func(d *domain.Document) {
		d.LanguageCode = lang
	}
}

func WithStatus(s domain.StatusCode) DocumentOption {
	return func(d *domain.Document) {
		d.StatusCode = s
		d.Data["status_code"] = string(s)
	}
}

func WithFieldValue(name string, v any) DocumentOption {
	return func(d *domain.Document) {
		f := d.Fields[name]
		f.Value = v
		d.Fields[name] = f
		d.Modified = true
	}
}

func WithModified(m bool) DocumentOption {
	return func(d *domain.Document) {
		d.Modified = m
	}
}

// NewTestDocument builds a raw document whose Fields mirror Data.
func NewTestDocument(experienceID string, opts ...DocumentOption) *domain.Document {
	now := time.Now().UTC()
	data := RawDocumentData(experienceID)
	d := &domain.Document{
		ID:           uuid.New().String(),
		Kind:         domain.KindRaw,
		ExperienceID: experienceID,
		LanguageCode: "en",
		Data:         data,
		Fields:       diff.BuildFields(data, mustRawTable()),
		StatusCode:   domain.StatusUpToDate,
		FlowCode:     domain.FlowCuration,
		FetchedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewTestItem builds a persisted manageable item.
func NewTestItem(id, name string, order int) domain.ManageableItem {
	return domain.ManageableItem{
		ID:                 domain.StrPtr(id),
		Name:               name,
		Code:               name[:min(3, len(name))],
		VisualizationOrder: order,
		LanguageCode:       "en",
	}
}

func mustRawTable() *diff.Table {
	reg, err := diff.NewRegistry()
	if err != nil {
		panic(err)
	}
	table, err := reg.Table(domain.KindRaw)
	if err != nil {
		panic(err)
	}
	return table
}
