package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRepo_AppendAndList(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	doc := testutil.NewTestDocument("exp-1")
	require.NoError(t, NewSQLiteDocumentRepo(database).Create(ctx, doc))

	repo := NewSQLiteJournalRepo(database)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Append(ctx,
		domain.JournalEntry{ID: "j1", DocumentID: doc.ID, Operation: domain.OpSave, Method: "patch",
			Target: "raw/exp-1", Outcome: domain.OutcomeOK, CreatedAt: base},
		domain.JournalEntry{ID: "j2", DocumentID: doc.ID, Operation: domain.OpCommit, Method: "del",
			Target: "custom-highlights/h-1", Outcome: domain.OutcomeFailed, Error: "boom", CreatedAt: base.Add(time.Minute)},
	))

	entries, err := repo.ListByDocument(ctx, doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "j2", entries[0].ID)
	assert.Equal(t, domain.OutcomeFailed, entries[0].Outcome)
	assert.Equal(t, "boom", entries[0].Error)
	assert.Equal(t, domain.OpSave, entries[1].Operation)
	assert.True(t, base.Equal(entries[1].CreatedAt))

	limited, err := repo.ListByDocument(ctx, doc.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestJournalRepo_RejectsUnknownDocument(t *testing.T) {
	repo := NewSQLiteJournalRepo(testutil.NewTestDB(t))

	err := repo.Append(context.Background(), domain.JournalEntry{
		ID: "j1", DocumentID: "missing", Operation: domain.OpSave, Method: "patch",
		Target: "raw/exp-1", Outcome: domain.OutcomeOK, CreatedAt: time.Now(),
	})
	assert.Error(t, err)
}
