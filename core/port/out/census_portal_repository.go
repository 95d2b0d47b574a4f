// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"
	"time"

	"census_server/core/domain"
)

// =============================================================================
// PortalRepository (MongoDB - census results)
// =============================================================================

// PortalRepository defines the outbound port for portal result storage.
type PortalRepository interface {
	// Single operations
	Upsert(ctx context.Context, portal *domain.Portal) error
	GetByURL(ctx context.Context, url string) (*domain.Portal, error)
	Delete(ctx context.Context, url string) error

	// Partial updates
	UpdateMetadata(ctx context.Context, url string, meta domain.PortalMetadata) error
	UpdateClassification(ctx context.Context, url string, result domain.ClassificationResult) error
	UpdateLocation(ctx context.Context, url string, loc domain.PortalLocation) error
	MarkFailed(ctx context.Context, url string, reason string) error

	// Query operations
	List(ctx context.Context, opts *PortalListOptions) ([]*domain.Portal, int64, error)

	// Stats
	CountByCategory(ctx context.Context) (map[domain.SiteCategory]int64, error)
	CountByRegion(ctx context.Context) (map[domain.Region]int64, error)
}

// PortalListOptions defines options for listing portals.
type PortalListOptions struct {
	Category  *domain.SiteCategory
	Region    *domain.Region
	Stage     string
	Since     *time.Time
	Limit     int
	Offset    int
	SortByURL bool
}
