package service

import (
	"time"

	"github.com/alexanderramin/expedit/internal/diff"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/google/uuid"
)

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func journalEntry(docID string, op domain.Operation, method, target string, err error, now time.Time) domain.JournalEntry {
	e := domain.JournalEntry{
		ID:         uuid.New().String(),
		DocumentID: docID,
		Operation:  op,
		Method:     method,
		Target:     target,
		Outcome:    domain.OutcomeOK,
		CreatedAt:  now,
	}
	if err != nil {
		e.Outcome = domain.OutcomeFailed
		e.Error = err.Error()
	}
	return e
}

func computePatch(doc *domain.Document, table *diff.Table, event domain.Event) diff.Patch {
	return diff.Compute(diff.Input{
		Table:      table,
		NaturalKey: doc.ExperienceID,
		Data:       doc.Data,
		Fields:     doc.Fields,
		Status:     doc.StatusCode,
		Event:      event,
	})
}

// hasPendingItems reports whether any list sub-resource still carries an
// uncommitted action.
func hasPendingItems(doc *domain.Document, table *diff.Table) bool {
	for _, p := range table.Properties {
		if p.Partition != diff.PartitionResource {
			continue
		}
		items, err := domain.ItemsFromValue(doc.FieldValue(p.Name))
		if err != nil {
			continue
		}
		for _, it := range items {
			switch it.Action {
			case domain.ActionEdit, domain.ActionCreate, domain.ActionDelete:
				return true
			}
		}
	}
	return false
}

// isDirty reports whether the working copy differs from Data or has
// uncommitted item actions.
func isDirty(doc *domain.Document, table *diff.Table) bool {
	return len(computePatch(doc, table, domain.EventEdit).Changed) > 0 || hasPendingItems(doc, table)
}
