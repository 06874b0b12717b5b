package history

import (
	"context"
	"fmt"

	"github.com/alexanderramin/expedit/internal/domain"
)

// Key identifies one version list.
type Key struct {
	ExperienceID string
	Flow         domain.FlowCode
	Language     string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.ExperienceID, k.Flow, k.Language)
}

// Cache stores version lists by Key.
type Cache interface {
	Get(ctx context.Context, key Key) ([]domain.VersionInfo, bool, error)
	Set(ctx context.Context, key Key, versions []domain.VersionInfo) error
	Invalidate(ctx context.Context, key Key) error
	Close() error
}
