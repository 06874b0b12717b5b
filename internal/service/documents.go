package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/expedit/internal/api"
	"github.com/alexanderramin/expedit/internal/db"
	"github.com/alexanderramin/expedit/internal/diff"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/history"
	"github.com/alexanderramin/expedit/internal/repository"
	"github.com/google/uuid"
)

type documentService struct {
	docs     repository.DocumentRepo
	journal  repository.JournalRepo
	uow      db.UnitOfWork
	client   api.Client
	tables   *diff.Registry
	versions history.Cache
	observer UseCaseObserver
	now      func() time.Time
}

// NewDocumentService wires the document use cases. versions may be nil;
// when set, a successful save invalidates the document's cached history.
func NewDocumentService(
	docs repository.DocumentRepo,
	journal repository.JournalRepo,
	uow db.UnitOfWork,
	client api.Client,
	tables *diff.Registry,
	versions history.Cache,
	observers ...UseCaseObserver,
) DocumentService {
	return &documentService{
		docs:     docs,
		journal:  journal,
		uow:      uow,
		client:   client,
		tables:   tables,
		versions: versions,
		observer: useCaseObserverOrNoop(observers),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *documentService) Pull(ctx context.Context, req PullRequest) (doc *domain.Document, err error) {
	fields := map[string]any{"kind": string(req.Kind), "experience_id": req.ExperienceID}
	defer observe(ctx, s.observer, "pull", fields, &err)()

	if !domain.ValidDocumentKinds[req.Kind] {
		return nil, fmt.Errorf("unknown document kind %q", req.Kind)
	}
	table, err := s.tables.Table(req.Kind)
	if err != nil {
		return nil, err
	}

	data, err := s.client.GetDocument(ctx, req.Kind, req.ExperienceID, req.LanguageCode)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc = &domain.Document{
		ID:           uuid.New().String(),
		Kind:         req.Kind,
		ExperienceID: req.ExperienceID,
		LanguageCode: domain.CoalesceStr(req.LanguageCode, stringValue(data["language_code"])),
		Data:         data,
		Fields:       diff.BuildFields(data, table),
		StatusCode:   domain.StatusCode(stringValue(data["status_code"])),
		FlowCode:     domain.FlowCode(stringValue(data["flow_code"])),
		FetchedAt:    now,
		UpdatedAt:    now,
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteDocumentRepo(tx)
		existing, err := repo.GetByKey(ctx, doc.Kind, doc.ExperienceID, doc.LanguageCode)
		if errors.Is(err, repository.ErrNotFound) {
			return repo.Create(ctx, doc)
		}
		if err != nil {
			return err
		}
		if existing.Modified && !req.Force {
			return fmt.Errorf("%s document %s (%s): %w", doc.Kind, doc.ExperienceID, existing.DisplayID(), ErrUnsavedChanges)
		}
		doc.ID = existing.ID
		fields["replaced"] = true
		return repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.docs.GetByIDPrefix(ctx, id)
}

func (s *documentService) List(ctx context.Context, filter repository.DocumentFilter) ([]*domain.Document, error) {
	return s.docs.List(ctx, filter)
}

func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := s.docs.GetByIDPrefix(ctx, id)
	if err != nil {
		return err
	}
	return s.docs.Delete(ctx, doc.ID)
}

func (s *documentService) SetField(ctx context.Context, id, name string, value any) (doc *domain.Document, err error) {
	defer observe(ctx, s.observer, "set-field", map[string]any{"document": id, "field": name}, &err)()

	doc, table, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	p, ok := table.Property(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownField, name)
	}
	if p.Partition == diff.PartitionResource {
		return nil, fmt.Errorf("%q is a list of items: edit it with the items commands", name)
	}

	candidate := doc.Fields[name]
	candidate.Value = value
	if verr := table.ValidateField(name, candidate); verr != nil {
		return nil, &domain.ValidationError{Fields: map[string]error{name: verr}}
	}

	if err = doc.SetField(name, value, s.now()); err != nil {
		return nil, err
	}
	if err = s.docs.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Validate(ctx context.Context, id string) error {
	doc, table, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return table.Validate(doc.Fields)
}

func (s *documentService) Diff(ctx context.Context, id string, event domain.Event) (diff.Patch, error) {
	doc, table, err := s.load(ctx, id)
	if err != nil {
		return diff.Patch{}, err
	}
	return computePatch(doc, table, event), nil
}

func (s *documentService) Save(ctx context.Context, id string) (*SaveResult, error) {
	return s.save(ctx, id, domain.EventEdit, domain.OpSave)
}

func (s *documentService) Publish(ctx context.Context, id string) (*SaveResult, error) {
	doc, err := s.docs.GetByIDPrefix(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.CanPublish(doc.StatusCode); err != nil {
		return nil, err
	}
	return s.save(ctx, doc.ID, domain.EventPublish, domain.OpPublish)
}

// save validates, sends the minimal patch and, only once the server has
// accepted it, records the new state locally. A failed request leaves the
// stored document untouched.
func (s *documentService) save(ctx context.Context, id string, event domain.Event, op domain.Operation) (result *SaveResult, err error) {
	fields := map[string]any{"document": id, "event": string(event)}
	defer observe(ctx, s.observer, string(op), fields, &err)()

	doc, table, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = table.Validate(doc.Fields); err != nil {
		return nil, err
	}

	patch := computePatch(doc, table, event)
	fields["changed"] = len(patch.Changed)
	if patch.IsEmpty() {
		return &SaveResult{Document: doc, Patch: patch}, nil
	}

	target := string(doc.Kind) + "/" + doc.ExperienceID
	if sendErr := s.client.PatchDocument(ctx, doc.Kind, doc.ExperienceID, patch); sendErr != nil {
		entry := journalEntry(doc.ID, op, "patch", target, sendErr, s.now())
		if jErr := s.journal.Append(ctx, entry); jErr != nil {
			fields["journal_error"] = jErr.Error()
		}
		return nil, sendErr
	}

	now := s.now()
	newData, err := diff.Apply(doc.Data, doc.Fields, table, patch)
	if err != nil {
		return nil, err
	}
	saved, err := doc.Clone()
	if err != nil {
		return nil, err
	}
	saved.ApplySaved(newData, patch.StatusCode, now)
	saved.Modified = hasPendingItems(saved, table)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteDocumentRepo(tx).Update(ctx, saved); err != nil {
			return err
		}
		return repository.NewSQLiteJournalRepo(tx).Append(ctx, journalEntry(doc.ID, op, "patch", target, nil, now))
	})
	if err != nil {
		return nil, fmt.Errorf("server accepted the %s but the local copy was not updated: %w", op, err)
	}

	if s.versions != nil {
		key := history.Key{ExperienceID: saved.ExperienceID, Flow: saved.FlowCode, Language: saved.LanguageCode}
		if cErr := s.versions.Invalidate(ctx, key); cErr != nil {
			fields["cache_error"] = cErr.Error()
		}
	}
	return &SaveResult{Document: saved, Patch: patch, Sent: true}, nil
}

func (s *documentService) Journal(ctx context.Context, id string, limit int) ([]domain.JournalEntry, error) {
	doc, err := s.docs.GetByIDPrefix(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.journal.ListByDocument(ctx, doc.ID, limit)
}

func (s *documentService) load(ctx context.Context, id string) (*domain.Document, *diff.Table, error) {
	doc, err := s.docs.GetByIDPrefix(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	table, err := s.tables.Table(doc.Kind)
	if err != nil {
		return nil, nil, err
	}
	return doc, table, nil
}
