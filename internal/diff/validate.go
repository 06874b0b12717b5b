package diff

import (
	"fmt"

	"github.com/alexanderramin/expedit/internal/domain"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Rules returns the validation rules for a property. required comes from
// the field, so a working copy can tighten or relax what the table says.
func (p *Property) Rules(required bool) []validation.Rule {
	var rules []validation.Rule
	if required {
		rules = append(rules, validation.Required)
	}
	if p.MaxLength > 0 {
		rules = append(rules, validation.RuneLength(0, p.MaxLength))
	}
	if p.MinItems > 0 {
		rules = append(rules, validation.Length(p.MinItems, 0))
	}
	return rules
}

// ValidateField checks a single value against its declaration.
func (t *Table) ValidateField(name string, f domain.Field) error {
	p, ok := t.Property(name)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, name)
	}
	return validation.Validate(f.Value, p.Rules(f.Required)...)
}

// Validate checks every field the table declares and reports all failures.
func (t *Table) Validate(fields map[string]domain.Field) error {
	failures := make(map[string]error)
	for _, p := range t.Properties {
		f, ok := fields[p.Name]
		if !ok {
			continue
		}
		if err := validation.Validate(f.Value, p.Rules(f.Required)...); err != nil {
			failures[p.Name] = err
		}
	}
	if len(failures) > 0 {
		return &domain.ValidationError{Fields: failures}
	}
	return nil
}
