package in

import (
	"context"

	"census_server/core/domain"
)

// CensusService defines the inbound port for portal census operations.
type CensusService interface {
	// === Single-portal operations ===
	Classify(url string) domain.ClassificationResult
	NormalizeRegion(text string) domain.Region
	ProcessPortal(ctx context.Context, portal domain.Portal) domain.Portal

	// === Per-stage operations (persisting) ===
	SurveyPortal(ctx context.Context, url string) (*domain.PortalMetadata, error)
	ClassifyPortal(ctx context.Context, url string) (domain.ClassificationResult, error)
	LocatePortal(ctx context.Context, url string) (*domain.PortalLocation, error)

	// === Queries ===
	GetPortal(ctx context.Context, url string) (*domain.Portal, error)
	DeletePortal(ctx context.Context, url string) error
	ListPortals(ctx context.Context, req *ListPortalsRequest) (*ListPortalsResponse, error)
	GetStats(ctx context.Context) (*CensusStats, error)
}

// ListPortalsRequest filters the portal listing.
type ListPortalsRequest struct {
	Category string
	Region   string
	Stage    string
	Limit    int
	Offset   int
}

// ListPortalsResponse is a page of census results.
type ListPortalsResponse struct {
	Portals []*domain.Portal `json:"portals"`
	Total   int64            `json:"total"`
	HasMore bool             `json:"has_more"`
}

// CensusStats summarizes the state of the census.
type CensusStats struct {
	ByCategory map[domain.SiteCategory]int64 `json:"by_category"`
	ByRegion   map[domain.Region]int64       `json:"by_region"`
	Counters   map[string]any                `json:"counters"`
}
