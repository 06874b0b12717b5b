package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/expedit/internal/domain"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrAmbiguous = errors.New("ambiguous id prefix")
)

// DocumentFilter narrows List. Zero values match everything.
type DocumentFilter struct {
	Kind         domain.DocumentKind
	ExperienceID string
	ModifiedOnly bool
}

type DocumentRepo interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	// GetByIDPrefix resolves a full id or a unique prefix of one.
	GetByIDPrefix(ctx context.Context, prefix string) (*domain.Document, error)
	GetByKey(ctx context.Context, kind domain.DocumentKind, experienceID, languageCode string) (*domain.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]*domain.Document, error)
	Update(ctx context.Context, d *domain.Document) error
	Delete(ctx context.Context, id string) error
}

type JournalRepo interface {
	Append(ctx context.Context, entries ...domain.JournalEntry) error
	// ListByDocument returns the newest entries first. limit <= 0 means all.
	ListByDocument(ctx context.Context, documentID string, limit int) ([]domain.JournalEntry, error)
}
