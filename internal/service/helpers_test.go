package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/expedit/internal/db"
	"github.com/alexanderramin/expedit/internal/diff"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/history"
	"github.com/alexanderramin/expedit/internal/repository"
	"github.com/alexanderramin/expedit/internal/resolver"
	"github.com/alexanderramin/expedit/internal/testutil"
	"github.com/stretchr/testify/require"
)

type harness struct {
	db      *sql.DB
	docs    *repository.SQLiteDocumentRepo
	journal *repository.SQLiteJournalRepo
	api     *testutil.FakeAPI
	tables  *diff.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	database := testutil.NewTestDB(t)
	tables, err := diff.NewRegistry()
	require.NoError(t, err)
	return &harness{
		db:      database,
		docs:    repository.NewSQLiteDocumentRepo(database),
		journal: repository.NewSQLiteJournalRepo(database),
		api:     testutil.NewFakeAPI(t),
		tables:  tables,
	}
}

func (h *harness) documents(uow db.UnitOfWork, cache history.Cache) DocumentService {
	if uow == nil {
		uow = testutil.NewTestUoW(h.db)
	}
	return NewDocumentService(h.docs, h.journal, uow, h.api.Client(), h.tables, cache)
}

func (h *harness) items(uow db.UnitOfWork, concurrency int) ItemService {
	if uow == nil {
		uow = testutil.NewTestUoW(h.db)
	}
	opts := resolver.Options{CurationFlowCode: domain.FlowCuration, ToBeEditedStatusCode: domain.StatusToBeEdit}
	return NewItemService(h.docs, h.journal, uow, h.api.Client(), h.tables, opts, concurrency)
}

// seed stores doc locally and mirrors its Data on the fake server.
func (h *harness) seed(t *testing.T, doc *domain.Document) {
	t.Helper()
	require.NoError(t, h.docs.Create(context.Background(), doc))
	h.api.PutDocument(string(doc.Kind), doc.ExperienceID, testutil.RawDocumentData(doc.ExperienceID))
}

func (h *harness) reload(t *testing.T, id string) *domain.Document {
	t.Helper()
	doc, err := h.docs.GetByID(context.Background(), id)
	require.NoError(t, err)
	return doc
}

func (h *harness) journalOf(t *testing.T, id string) []domain.JournalEntry {
	t.Helper()
	entries, err := h.journal.ListByDocument(context.Background(), id, 0)
	require.NoError(t, err)
	return entries
}
