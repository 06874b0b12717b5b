package service

import (
	"context"
	"slices"

	"github.com/alexanderramin/expedit/internal/api"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/history"
)

type historyService struct {
	client   api.Client
	cache    history.Cache
	observer UseCaseObserver
}

// NewHistoryService lists version histories. cache may be nil.
func NewHistoryService(client api.Client, cache history.Cache, observers ...UseCaseObserver) HistoryService {
	return &historyService{
		client:   client,
		cache:    cache,
		observer: useCaseObserverOrNoop(observers),
	}
}

// List returns the versions of one flow, newest first, with badges derived.
// Cache failures fall back to the API.
func (s *historyService) List(ctx context.Context, req HistoryRequest) (versions []domain.VersionInfo, err error) {
	fields := map[string]any{"experience_id": req.ExperienceID, "flow": string(req.Flow)}
	defer observe(ctx, s.observer, "history", fields, &err)()

	key := history.Key{ExperienceID: req.ExperienceID, Flow: req.Flow, Language: req.LanguageCode}
	if s.cache != nil && !req.Refresh {
		cached, ok, cErr := s.cache.Get(ctx, key)
		switch {
		case cErr != nil:
			fields["cache_error"] = cErr.Error()
		case ok:
			fields["cache"] = "hit"
			return cached, nil
		}
	}

	snaps, err := s.client.ListSnapshots(ctx, domain.KindForFlow(req.Flow), req.ExperienceID, req.LanguageCode)
	if err != nil {
		return nil, err
	}
	versions = history.DeriveBadges(toVersions(snaps, req.Flow))
	fields["versions"] = len(versions)

	if s.cache != nil {
		if cErr := s.cache.Set(ctx, key, versions); cErr != nil {
			fields["cache_error"] = cErr.Error()
		}
	}
	return versions, nil
}

// toVersions keeps the snapshots of flow and orders them newest first.
// Snapshots without a flow code belong to every flow.
func toVersions(snaps []api.Snapshot, flow domain.FlowCode) []domain.VersionInfo {
	out := make([]domain.VersionInfo, 0, len(snaps))
	for _, s := range snaps {
		if s.FlowCode != "" && s.FlowCode != flow {
			continue
		}
		out = append(out, domain.VersionInfo{
			SnapshotID: s.ID,
			AuthorName: s.AuthorName,
			Date:       s.CreatedAt,
			FlowCode:   domain.FlowCode(domain.CoalesceStr(string(s.FlowCode), string(flow))),
			StatusCode: s.StatusCode,
		})
	}
	slices.SortStableFunc(out, func(a, b domain.VersionInfo) int {
		return b.Date.Compare(a.Date)
	})
	return out
}
