package service

import (
	"context"
	"errors"

	"github.com/alexanderramin/expedit/internal/diff"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/repository"
	"github.com/alexanderramin/expedit/internal/resolver"
)

// ErrUnsavedChanges is returned when a pull would discard local edits.
var ErrUnsavedChanges = errors.New("local copy has unsaved changes")

// PullRequest identifies the server document to fetch. Force replaces a
// modified local copy.
type PullRequest struct {
	Kind         domain.DocumentKind
	ExperienceID string
	LanguageCode string
	Force        bool
}

// SaveResult describes what a save sent. Sent is false when the patch was
// empty and no request was made.
type SaveResult struct {
	Document *domain.Document
	Patch    diff.Patch
	Sent     bool
}

type DocumentService interface {
	Pull(ctx context.Context, req PullRequest) (*domain.Document, error)
	// Get accepts a full document id or a unique prefix.
	Get(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, filter repository.DocumentFilter) ([]*domain.Document, error)
	Delete(ctx context.Context, id string) error

	SetField(ctx context.Context, id, name string, value any) (*domain.Document, error)
	Validate(ctx context.Context, id string) error
	Diff(ctx context.Context, id string, event domain.Event) (diff.Patch, error)
	Save(ctx context.Context, id string) (*SaveResult, error)
	Publish(ctx context.Context, id string) (*SaveResult, error)

	Journal(ctx context.Context, id string, limit int) ([]domain.JournalEntry, error)
}

// CommitResult is the settled outcome of one resolved action. Item carries
// the server-assigned id for created items.
type CommitResult struct {
	Action resolver.Action
	Err    error
	Item   domain.ManageableItem
}

type ItemService interface {
	Items(ctx context.Context, docID string, key domain.ResourceKey) ([]domain.ManageableItem, error)
	SetItems(ctx context.Context, docID string, key domain.ResourceKey, items []domain.ManageableItem) error
	AddItem(ctx context.Context, docID string, key domain.ResourceKey, name, code string) error
	EditItem(ctx context.Context, docID string, key domain.ResourceKey, index int, name, code string) error
	// DeleteItem marks a persisted item DELETE and a never-persisted one REMOVE.
	DeleteItem(ctx context.Context, docID string, key domain.ResourceKey, index int) error

	// Plan resolves the pending actions without sending them.
	Plan(ctx context.Context, docID string, key domain.ResourceKey) ([]resolver.Action, error)
	Commit(ctx context.Context, docID string, key domain.ResourceKey) ([]CommitResult, error)
}

type HistoryService interface {
	List(ctx context.Context, req HistoryRequest) ([]domain.VersionInfo, error)
}

// HistoryRequest selects one version list. Refresh bypasses the cache.
type HistoryRequest struct {
	ExperienceID string
	Flow         domain.FlowCode
	LanguageCode string
	Refresh      bool
}
