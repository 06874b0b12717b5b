package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/expedit/internal/api"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/history"
	"github.com/alexanderramin/expedit/internal/repository"
	"github.com/alexanderramin/expedit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPull_CreatesLocalCopy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.api.PutDocument("raw", "exp-1", testutil.RawDocumentData("exp-1"))

	doc, err := h.documents(nil, nil).Pull(ctx, PullRequest{Kind: domain.KindRaw, ExperienceID: "exp-1"})
	require.NoError(t, err)

	assert.Equal(t, "en", doc.LanguageCode, "language falls back to the server representation")
	assert.Equal(t, domain.StatusUpToDate, doc.StatusCode)
	assert.Equal(t, domain.FlowCuration, doc.FlowCode)
	assert.False(t, doc.Modified)
	assert.Equal(t, "Sunset boat tour", doc.FieldValue("title"))

	stored := h.reload(t, doc.ID)
	assert.Equal(t, doc.Data, stored.Data)
}

func TestPull_ReplacesUnmodifiedCopyKeepingID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.documents(nil, nil)
	h.api.PutDocument("raw", "exp-1", testutil.RawDocumentData("exp-1"))

	first, err := svc.Pull(ctx, PullRequest{Kind: domain.KindRaw, ExperienceID: "exp-1", LanguageCode: "en"})
	require.NoError(t, err)

	updated := testutil.RawDocumentData("exp-1")
	updated["commercial"].(map[string]any)["title"] = "Night boat tour"
	h.api.PutDocument("raw", "exp-1", updated)

	second, err := svc.Pull(ctx, PullRequest{Kind: domain.KindRaw, ExperienceID: "exp-1", LanguageCode: "en"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Night boat tour", h.reload(t, first.ID).FieldValue("title"))

	all, err := svc.List(ctx, repository.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPull_RefusesToDiscardLocalEdits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.documents(nil, nil)
	local := testutil.NewTestDocument("exp-1", testutil.WithFieldValue("title", "Edited"))
	h.seed(t, local)

	_, err := svc.Pull(ctx, PullRequest{Kind: domain.KindRaw, ExperienceID: "exp-1", LanguageCode: "en"})
	require.ErrorIs(t, err, ErrUnsavedChanges)
	assert.Equal(t, "Edited", h.reload(t, local.ID).FieldValue("title"))

	doc, err := svc.Pull(ctx, PullRequest{Kind: domain.KindRaw, ExperienceID: "exp-1", LanguageCode: "en", Force: true})
	require.NoError(t, err)
	assert.Equal(t, local.ID, doc.ID)
	assert.Equal(t, "Sunset boat tour", h.reload(t, local.ID).FieldValue("title"))
	assert.False(t, h.reload(t, local.ID).Modified)
}

func TestPull_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.documents(nil, nil)

	_, err := svc.Pull(ctx, PullRequest{Kind: "video", ExperienceID: "exp-1"})
	assert.ErrorContains(t, err, "unknown document kind")

	_, err = svc.Pull(ctx, PullRequest{Kind: domain.KindRaw, ExperienceID: "missing"})
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)

	all, err := svc.List(ctx, repository.DocumentFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSetField(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.documents(nil, nil)
	doc := testutil.NewTestDocument("exp-1")
	h.seed(t, doc)

	updated, err := svc.SetField(ctx, doc.DisplayID(), "title", "Morning boat tour")
	require.NoError(t, err)
	assert.True(t, updated.Modified)

	stored := h.reload(t, doc.ID)
	assert.Equal(t, "Morning boat tour", stored.FieldValue("title"))
	assert.Equal(t, "Sunset boat tour", stored.Data["commercial"].(map[string]any)["title"], "data keeps the server state")
}

func TestSetField_Rejects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.documents(nil, nil)
	doc := testutil.NewTestDocument("exp-1")
	h.seed(t, doc)

	_, err := svc.SetField(ctx, doc.ID, "colour", "blue")
	assert.ErrorIs(t, err, domain.ErrUnknownField)

	_, err = svc.SetField(ctx, doc.ID, "title", strings.Repeat("x", 121))
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "title")

	_, err = svc.SetField(ctx, doc.ID, "highlights", []any{})
	assert.ErrorContains(t, err, "items commands")

	assert.False(t, h.reload(t, doc.ID).Modified)
}

func TestSave_NothingChangedSendsNothing(t *testing.T) {
	h := newHarness(t)
	doc := testutil.NewTestDocument("exp-1")
	h.seed(t, doc)

	res, err := h.documents(nil, nil).Save(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.False(t, res.Sent)
	assert.True(t, res.Patch.IsEmpty())
	assert.Empty(t, h.api.CallsWithMethod(http.MethodPatch))
	assert.Empty(t, h.journalOf(t, doc.ID))
}

func TestSave_SendsMinimalPatchAndRecordsState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := testutil.NewTestDocument("exp-1", testutil.WithFieldValue("title", "Morning boat tour"))
	h.seed(t, doc)

	res, err := h.documents(nil, nil).Save(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, []string{"title"}, res.Patch.Changed)

	patches := h.api.CallsWithMethod(http.MethodPatch)
	require.Len(t, patches, 1)
	assert.Equal(t, map[string]any{
		"experience_id": "exp-1",
		"commercial":    map[string]any{"title": "Morning boat tour"},
		"status_code":   "IN_REVIEW",
	}, patches[0].Body)

	stored := h.reload(t, doc.ID)
	assert.False(t, stored.Modified)
	assert.Equal(t, domain.StatusInReview, stored.StatusCode)
	assert.Equal(t, "Morning boat tour", stored.Data["commercial"].(map[string]any)["title"])
	assert.Equal(t, "IN_REVIEW", stored.Data["status_code"])

	again, err := h.documents(nil, nil).Diff(ctx, doc.ID, domain.EventEdit)
	require.NoError(t, err)
	assert.True(t, again.IsEmpty(), "a saved document has nothing left to send")

	entries := h.journalOf(t, doc.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OpSave, entries[0].Operation)
	assert.Equal(t, domain.OutcomeOK, entries[0].Outcome)
	assert.Equal(t, "raw/exp-1", entries[0].Target)
}

func TestSave_ServerRejectionLeavesCopyUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := testutil.NewTestDocument("exp-1", testutil.WithFieldValue("title", "Morning boat tour"))
	h.seed(t, doc)
	h.api.Fail(http.MethodPatch, "/v1/raw/exp-1", http.StatusUnprocessableEntity,
		api.CodeSupplierWithoutEvents, "supplier sup-1 has no events")

	_, err := h.documents(nil, nil).Save(ctx, doc.ID)
	var swe *api.SupplierWithoutEventsError
	require.ErrorAs(t, err, &swe)

	stored := h.reload(t, doc.ID)
	assert.True(t, stored.Modified)
	assert.Equal(t, domain.StatusUpToDate, stored.StatusCode)
	assert.Equal(t, "Sunset boat tour", stored.Data["commercial"].(map[string]any)["title"])

	entries := h.journalOf(t, doc.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OutcomeFailed, entries[0].Outcome)
	assert.Contains(t, entries[0].Error, "no events")
}

func TestSave_InvalidFieldsAreNotSent(t *testing.T) {
	h := newHarness(t)
	doc := testutil.NewTestDocument("exp-1", testutil.WithFieldValue("title", ""))
	h.seed(t, doc)

	_, err := h.documents(nil, nil).Save(context.Background(), doc.ID)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, h.api.CallsWithMethod(http.MethodPatch))
}

func TestSave_LocalWriteFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	doc := testutil.NewTestDocument("exp-1", testutil.WithFieldValue("title", "Morning boat tour"))
	h.seed(t, doc)

	// Exec #1 updates the document, #2 appends the journal entry.
	uow := &testutil.FailOnNthExecUoW{DB: h.db, FailOn: 2, Err: errors.New("injected journal failure")}
	_, err := h.documents(uow, nil).Save(context.Background(), doc.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected journal failure")
	assert.Contains(t, uow.FailedQuery, "journal_entries")

	stored := h.reload(t, doc.ID)
	assert.True(t, stored.Modified, "document update was rolled back")
	assert.Equal(t, domain.StatusUpToDate, stored.StatusCode)
	assert.Empty(t, h.journalOf(t, doc.ID))
}

func TestSave_InvalidatesCachedHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cache := history.NewMemoryCache(4, time.Minute)
	key := history.Key{ExperienceID: "exp-1", Flow: domain.FlowCuration, Language: "en"}
	require.NoError(t, cache.Set(ctx, key, []domain.VersionInfo{{SnapshotID: "s1"}}))

	doc := testutil.NewTestDocument("exp-1", testutil.WithFieldValue("title", "Morning boat tour"))
	h.seed(t, doc)

	_, err := h.documents(nil, cache).Save(ctx, doc.ID)
	require.NoError(t, err)

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPublish(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.documents(nil, nil)

	upToDate := testutil.NewTestDocument("exp-1")
	h.seed(t, upToDate)
	_, err := svc.Publish(ctx, upToDate.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	draft := testutil.NewTestDocument("exp-2", testutil.WithStatus(domain.StatusInCreation))
	h.seed(t, draft)
	res, err := svc.Publish(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, domain.StatusSentToReview, res.Patch.StatusCode)
	assert.Equal(t, domain.StatusSentToReview, h.reload(t, draft.ID).StatusCode)
	assert.Equal(t, "SENT_TO_REVIEW", h.api.Document("raw", "exp-2")["status_code"])

	entries := h.journalOf(t, draft.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OpPublish, entries[0].Operation)
}

func TestGetListDeleteJournal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.documents(nil, nil)
	clean := testutil.NewTestDocument("exp-1")
	edited := testutil.NewTestDocument("exp-2", testutil.WithModified(true))
	h.seed(t, clean)
	h.seed(t, edited)

	got, err := svc.Get(ctx, clean.DisplayID())
	require.NoError(t, err)
	assert.Equal(t, clean.ID, got.ID)

	modified, err := svc.List(ctx, repository.DocumentFilter{ModifiedOnly: true})
	require.NoError(t, err)
	require.Len(t, modified, 1)
	assert.Equal(t, edited.ID, modified[0].ID)

	entries, err := svc.Journal(ctx, clean.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, svc.Delete(ctx, clean.DisplayID()))
	_, err = svc.Get(ctx, clean.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDiff_UntouchedCopyCarriesNoTransition(t *testing.T) {
	h := newHarness(t)
	doc := testutil.NewTestDocument("exp-1")
	h.seed(t, doc)

	patch, err := h.documents(nil, nil).Diff(context.Background(), doc.ID, domain.EventEdit)
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty(), "an edit transition needs an actual edit")
}
