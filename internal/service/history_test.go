package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alexanderramin/expedit/internal/api"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/history"
	"github.com/alexanderramin/expedit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 10, 0, 0, 0, time.UTC)
}

func TestHistory_FiltersSortsAndFlags(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.PutSnapshots("raw", "exp-1", []api.Snapshot{
		{ID: "s1", AuthorName: "bo", CreatedAt: day(1), FlowCode: domain.FlowCuration, StatusCode: domain.StatusUpToDate},
		{ID: "s3", AuthorName: "ana", CreatedAt: day(3), FlowCode: domain.FlowCuration, StatusCode: domain.StatusInReview},
		{ID: "b1", AuthorName: "cy", CreatedAt: day(4), FlowCode: domain.FlowBase},
		{ID: "s2", AuthorName: "ana", CreatedAt: day(2), FlowCode: domain.FlowCuration, StatusCode: domain.StatusInReview},
	})

	versions, err := NewHistoryService(fake.Client(), nil).List(context.Background(),
		HistoryRequest{ExperienceID: "exp-1", Flow: domain.FlowCuration, LanguageCode: "en"})
	require.NoError(t, err)

	require.Len(t, versions, 3)
	assert.Equal(t, "s3", versions[0].SnapshotID)
	assert.Equal(t, "s2", versions[1].SnapshotID)
	assert.Equal(t, "s1", versions[2].SnapshotID)
	assert.Equal(t, []int{0, 2}, history.Flagged(versions))
}

func TestHistory_TranslationFlowReadsTranslationSnapshots(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.PutSnapshots("translation", "exp-1", []api.Snapshot{
		{ID: "t1", CreatedAt: day(1), FlowCode: domain.FlowManualTranslation},
	})

	versions, err := NewHistoryService(fake.Client(), nil).List(context.Background(),
		HistoryRequest{ExperienceID: "exp-1", Flow: domain.FlowManualTranslation})
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.True(t, versions[0].ShowsBadge())
	assert.Equal(t, "/v1/translation-snapshots", fake.Calls()[0].Path)
}

func TestHistory_UsesCacheUntilRefresh(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.PutSnapshots("raw", "exp-1", []api.Snapshot{
		{ID: "s1", CreatedAt: day(1), FlowCode: domain.FlowCuration},
	})
	cache := history.NewMemoryCache(4, time.Minute)
	svc := NewHistoryService(fake.Client(), cache)
	ctx := context.Background()
	req := HistoryRequest{ExperienceID: "exp-1", Flow: domain.FlowCuration, LanguageCode: "en"}

	first, err := svc.List(ctx, req)
	require.NoError(t, err)
	second, err := svc.List(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, fake.CallsWithMethod(http.MethodGet), 1)

	req.Refresh = true
	_, err = svc.List(ctx, req)
	require.NoError(t, err)
	assert.Len(t, fake.CallsWithMethod(http.MethodGet), 2)
}

func TestHistory_APIErrorIsNotCached(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.Fail(http.MethodGet, "/v1/raw-snapshots", http.StatusBadRequest, "BAD_FLOW", "unknown flow")
	cache := history.NewMemoryCache(4, time.Minute)
	ctx := context.Background()

	_, err := NewHistoryService(fake.Client(), cache).List(ctx, HistoryRequest{ExperienceID: "exp-1", Flow: domain.FlowCuration})
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestToVersions_FlowlessSnapshotsBelongToEveryFlow(t *testing.T) {
	versions := toVersions([]api.Snapshot{{ID: "x", CreatedAt: day(1)}}, domain.FlowCuration)
	require.Len(t, versions, 1)
	assert.Equal(t, domain.FlowCuration, versions[0].FlowCode)
}
