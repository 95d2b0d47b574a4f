package out

import (
	"context"

	"census_server/core/domain"
)

// =============================================================================
// PortalSurveyor (CKAN Action API)
// =============================================================================

// PortalSurveyor defines the outbound port for probing a live CKAN portal.
// Implementations degrade rather than fail: a dead endpoint yields empty
// metadata, not an error, so classification can still proceed on the URL.
type PortalSurveyor interface {
	// Survey probes the portal and fills in whatever metadata it can get.
	Survey(ctx context.Context, url string) (domain.PortalMetadata, error)

	// Alive reports whether the portal answers status_show.
	Alive(ctx context.Context, url string) bool
}

// =============================================================================
// MetadataCache
// =============================================================================

// MetadataCache stores survey results keyed by portal host so re-runs skip
// the network for recently seen portals.
type MetadataCache interface {
	GetMetadata(ctx context.Context, host string) (*domain.PortalMetadata, bool, error)
	SetMetadata(ctx context.Context, host string, meta domain.PortalMetadata) error
}
