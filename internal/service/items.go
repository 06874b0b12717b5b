package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/expedit/internal/api"
	"github.com/alexanderramin/expedit/internal/db"
	"github.com/alexanderramin/expedit/internal/diff"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/repository"
	"github.com/alexanderramin/expedit/internal/resolver"
	"golang.org/x/sync/errgroup"
)

type itemService struct {
	docs        repository.DocumentRepo
	journal     repository.JournalRepo
	uow         db.UnitOfWork
	client      api.Client
	tables      *diff.Registry
	opts        resolver.Options
	concurrency int
	observer    UseCaseObserver
	now         func() time.Time
}

// NewItemService wires the manageable item use cases. concurrency bounds
// the number of item requests in flight during a commit; zero means no
// limit.
func NewItemService(
	docs repository.DocumentRepo,
	journal repository.JournalRepo,
	uow db.UnitOfWork,
	client api.Client,
	tables *diff.Registry,
	opts resolver.Options,
	concurrency int,
	observers ...UseCaseObserver,
) ItemService {
	return &itemService{
		docs:        docs,
		journal:     journal,
		uow:         uow,
		client:      client,
		tables:      tables,
		opts:        opts,
		concurrency: concurrency,
		observer:    useCaseObserverOrNoop(observers),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *itemService) Items(ctx context.Context, docID string, key domain.ResourceKey) ([]domain.ManageableItem, error) {
	_, items, err := s.load(ctx, docID, key)
	return items, err
}

func (s *itemService) SetItems(ctx context.Context, docID string, key domain.ResourceKey, items []domain.ManageableItem) error {
	doc, _, err := s.load(ctx, docID, key)
	if err != nil {
		return err
	}
	return s.store(ctx, doc, key, items)
}

func (s *itemService) AddItem(ctx context.Context, docID string, key domain.ResourceKey, name, code string) error {
	doc, items, err := s.load(ctx, docID, key)
	if err != nil {
		return err
	}
	items = append(items, domain.ManageableItem{
		Name:               name,
		Code:               code,
		VisualizationOrder: len(items),
		LanguageCode:       doc.LanguageCode,
		Action:             domain.ActionCreate,
	})
	return s.store(ctx, doc, key, items)
}

func (s *itemService) EditItem(ctx context.Context, docID string, key domain.ResourceKey, index int, name, code string) error {
	doc, items, err := s.load(ctx, docID, key)
	if err != nil {
		return err
	}
	if err := checkIndex(items, index); err != nil {
		return err
	}
	it := &items[index]
	it.Name = name
	if code != "" {
		it.Code = code
	}
	switch {
	case it.Action == domain.ActionCreate:
	case it.HasID():
		it.Action = domain.ActionEdit
	default:
		it.Action = domain.ActionCreate
	}
	return s.store(ctx, doc, key, items)
}

func (s *itemService) DeleteItem(ctx context.Context, docID string, key domain.ResourceKey, index int) error {
	doc, items, err := s.load(ctx, docID, key)
	if err != nil {
		return err
	}
	if err := checkIndex(items, index); err != nil {
		return err
	}
	if items[index].HasID() {
		items[index].Action = domain.ActionDelete
	} else {
		items[index].Action = domain.ActionRemove
	}
	return s.store(ctx, doc, key, items)
}

func (s *itemService) Plan(ctx context.Context, docID string, key domain.ResourceKey) ([]resolver.Action, error) {
	doc, items, err := s.load(ctx, docID, key)
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(doc.ExperienceID, key, resolver.FilterRemoved(items), s.opts)
}

// Commit sends the resolved actions of one sub-resource. Every call is
// settled before the outcome is decided; a failure leaves the stored items
// as they were, including the calls that did succeed, and returns the first
// error in action order. Successful requests are not rolled back.
func (s *itemService) Commit(ctx context.Context, docID string, key domain.ResourceKey) (results []CommitResult, err error) {
	fields := map[string]any{"document": docID, "key": string(key)}
	defer observe(ctx, s.observer, "commit", fields, &err)()

	doc, items, err := s.load(ctx, docID, key)
	if err != nil {
		return nil, err
	}
	live := resolver.FilterRemoved(items)
	actions, err := resolver.Resolve(doc.ExperienceID, key, live, s.opts)
	if err != nil {
		return nil, err
	}
	fields["actions"] = len(actions)
	normalized := resolver.Normalize(live)

	results, commitErr := commitActions(ctx, s.client, actions, normalized, s.concurrency)

	now := s.now()
	entries := make([]domain.JournalEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, journalEntry(doc.ID, domain.OpCommit, string(r.Action.Method), r.Action.Target(), r.Err, now))
	}

	if commitErr != nil {
		if jErr := s.journal.Append(ctx, entries...); jErr != nil {
			fields["journal_error"] = jErr.Error()
		}
		return results, commitErr
	}

	for _, r := range results {
		if r.Action.Method == resolver.MethodPost {
			normalized[r.Action.Source].ID = r.Item.ID
		}
	}
	persisted, err := domain.ItemsFromValue(doc.Data[string(key)])
	if err != nil {
		return results, fmt.Errorf("%s: %w", key, err)
	}
	value, err := domain.ItemsToValue(resolver.Settle(normalized, actions, persisted))
	if err != nil {
		return results, err
	}

	table, err := s.tables.Table(doc.Kind)
	if err != nil {
		return results, err
	}
	f := doc.Fields[string(key)]
	f.Value = value
	doc.Fields[string(key)] = f
	if doc.Data == nil {
		doc.Data = map[string]any{}
	}
	doc.Data[string(key)] = value
	doc.Modified = isDirty(doc, table)
	doc.UpdatedAt = now

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteDocumentRepo(tx).Update(ctx, doc); err != nil {
			return err
		}
		return repository.NewSQLiteJournalRepo(tx).Append(ctx, entries...)
	})
	if err != nil {
		return results, fmt.Errorf("items committed but the local copy was not updated: %w", err)
	}
	return results, nil
}

func (s *itemService) load(ctx context.Context, docID string, key domain.ResourceKey) (*domain.Document, []domain.ManageableItem, error) {
	if _, err := resolver.Endpoint(key); err != nil {
		return nil, nil, err
	}
	doc, err := s.docs.GetByIDPrefix(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := doc.Fields[string(key)]; !ok {
		return nil, nil, fmt.Errorf("%s document has no %s: %w", doc.Kind, key, domain.ErrUnknownField)
	}
	items, err := domain.ItemsFromValue(doc.FieldValue(string(key)))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", key, err)
	}
	return doc, items, nil
}

func (s *itemService) store(ctx context.Context, doc *domain.Document, key domain.ResourceKey, items []domain.ManageableItem) error {
	value, err := domain.ItemsToValue(items)
	if err != nil {
		return err
	}
	if err := doc.SetField(string(key), value, s.now()); err != nil {
		return err
	}
	return s.docs.Update(ctx, doc)
}

func checkIndex(items []domain.ManageableItem, index int) error {
	if index < 0 || index >= len(items) {
		return fmt.Errorf("item %d out of range (have %d)", index, len(items))
	}
	return nil
}

// commitActions dispatches every action, at most limit at a time, and
// waits for all of them. Results keep action order.
func commitActions(ctx context.Context, client api.Client, actions []resolver.Action, items []domain.ManageableItem, limit int) ([]CommitResult, error) {
	results := make([]CommitResult, len(actions))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, a := range actions {
		results[i] = CommitResult{Action: a, Item: items[a.Source]}
		g.Go(func() error {
			results[i].Err = dispatch(ctx, client, a, &results[i].Item)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Err != nil {
			return results, r.Err
		}
	}
	return results, nil
}

func dispatch(ctx context.Context, client api.Client, a resolver.Action, item *domain.ManageableItem) error {
	switch a.Method {
	case resolver.MethodPost:
		id, err := client.CreateItem(ctx, a.Endpoint, *a.Item)
		if err != nil {
			return err
		}
		item.ID = domain.StrPtr(id)
		item.VisualizationOrder = a.Item.VisualizationOrder
	case resolver.MethodPut:
		if err := client.UpdateItem(ctx, a.Endpoint, a.ID, *a.Item); err != nil {
			return err
		}
		item.VisualizationOrder = a.Item.VisualizationOrder
	case resolver.MethodDel:
		return client.DeleteItem(ctx, a.Endpoint, a.ID)
	default:
		return fmt.Errorf("unknown method %q", a.Method)
	}
	return nil
}
