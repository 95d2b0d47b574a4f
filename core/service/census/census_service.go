// Package census implements the portal census application service.
package census

import (
	"context"
	"net/url"
	"strings"
	"time"

	"census_server/core/domain"
	"census_server/core/port/in"
	"census_server/core/port/out"
	"census_server/core/service/classification"
	"census_server/core/service/location"
	"census_server/core/service/taxonomy"
	"census_server/pkg/apperr"
	"census_server/pkg/logger"
	"census_server/pkg/metrics"
)

// Service runs the census stages for one portal: survey the live instance,
// classify its domain, resolve its location. Survey and locate degrade when
// their backends are absent; classification always produces an answer.
type Service struct {
	classifier *classification.Classifier
	analyzer   *location.Analyzer
	surveyor   out.PortalSurveyor
	metaCache  out.MetadataCache
	repo       out.PortalRepository
	counters   *metrics.CensusCounters
	log        *logger.Logger
}

var _ in.CensusService = (*Service)(nil)

// Config wires the service dependencies. Surveyor, MetaCache, Analyzer and
// Repo may each be nil; the corresponding stage is skipped or degrades.
type Config struct {
	Classifier *classification.Classifier
	Analyzer   *location.Analyzer
	Surveyor   out.PortalSurveyor
	MetaCache  out.MetadataCache
	Repo       out.PortalRepository
}

// NewService creates the census service.
func NewService(cfg Config) *Service {
	if cfg.Classifier == nil {
		cfg.Classifier = classification.NewDefaultClassifier()
	}
	return &Service{
		classifier: cfg.Classifier,
		analyzer:   cfg.Analyzer,
		surveyor:   cfg.Surveyor,
		metaCache:  cfg.MetaCache,
		repo:       cfg.Repo,
		counters:   metrics.GlobalCounters(),
		log:        logger.NewLogger("census-service"),
	}
}

// =============================================================================
// Single-portal operations
// =============================================================================

// Classify categorizes a portal URL. Total: any input yields a category.
func (s *Service) Classify(rawURL string) domain.ClassificationResult {
	result := s.classifier.Classify(rawURL)
	s.counters.RecordClassification(result.Stage)
	return result
}

// NormalizeRegion maps free location text onto the region taxonomy.
func (s *Service) NormalizeRegion(text string) domain.Region {
	return taxonomy.NormalizeRegion(text)
}

// ProcessPortal runs all census stages on one portal and persists the
// outcome. Stage failures are recorded on the portal, never returned.
func (s *Service) ProcessPortal(ctx context.Context, portal domain.Portal) domain.Portal {
	start := time.Now()

	portal.Metadata = s.survey(ctx, portal.URL)
	if portal.Metadata != nil {
		s.counters.Surveyed.Add(1)
		// A live portal's own title and description beat the input CSV.
		if portal.Name == "" {
			portal.Name = portal.Metadata.SiteTitle
		}
		if portal.Description == "" {
			portal.Description = portal.Metadata.SiteDescription
		}
	}

	result := s.Classify(portal.URL)
	portal.Classification = &result

	if s.analyzer != nil {
		loc := s.analyzer.Analyze(ctx, portal)
		portal.Location = &loc
		s.counters.RecordRegion(string(loc.Region))
	}

	portal.ProcessedAt = time.Now().UTC()

	if s.repo != nil {
		if err := s.repo.Upsert(ctx, &portal); err != nil {
			s.log.WithError(err).WithPortal(portal.URL).Error("failed to persist portal")
		}
	}

	s.log.WithPortal(portal.URL).
		WithDuration(time.Since(start)).
		WithField("category", string(result.Category)).
		WithField("stage", result.Stage).
		Info("portal processed")

	return portal
}

// =============================================================================
// Per-stage operations
// =============================================================================

// SurveyPortal fetches live metadata for one portal and stores it. Returns
// nil metadata when the portal never answered.
func (s *Service) SurveyPortal(ctx context.Context, rawURL string) (*domain.PortalMetadata, error) {
	if s.surveyor == nil {
		return nil, apperr.Internal("no surveyor configured")
	}

	meta := s.survey(ctx, rawURL)
	if meta == nil {
		return nil, nil
	}
	s.counters.Surveyed.Add(1)

	if s.repo != nil {
		if err := s.repo.UpdateMetadata(ctx, rawURL, *meta); err != nil {
			return meta, err
		}
	}
	return meta, nil
}

// ClassifyPortal categorizes one portal and stores the result.
func (s *Service) ClassifyPortal(ctx context.Context, rawURL string) (domain.ClassificationResult, error) {
	result := s.Classify(rawURL)
	if s.repo != nil {
		if err := s.repo.UpdateClassification(ctx, rawURL, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// LocatePortal resolves the location of one portal and stores the result.
// Stored name, description and metadata feed the analysis when present.
func (s *Service) LocatePortal(ctx context.Context, rawURL string) (*domain.PortalLocation, error) {
	if s.analyzer == nil {
		return nil, apperr.Internal("no location analyzer configured")
	}

	portal := domain.Portal{URL: rawURL}
	if s.repo != nil {
		if stored, err := s.repo.GetByURL(ctx, rawURL); err == nil && stored != nil {
			portal = *stored
		}
	}

	loc := s.analyzer.Analyze(ctx, portal)
	s.counters.RecordRegion(string(loc.Region))

	if s.repo != nil {
		if err := s.repo.UpdateLocation(ctx, rawURL, loc); err != nil {
			return &loc, err
		}
	}
	return &loc, nil
}

// survey fetches portal metadata, consulting the cache first. Returns nil
// when no surveyor is wired or the portal never answered.
func (s *Service) survey(ctx context.Context, rawURL string) *domain.PortalMetadata {
	if s.surveyor == nil {
		return nil
	}

	host := hostOf(rawURL)

	if s.metaCache != nil && host != "" {
		if meta, hit, err := s.metaCache.GetMetadata(ctx, host); err == nil && hit {
			return meta
		}
	}

	meta, err := s.surveyor.Survey(ctx, rawURL)
	if err != nil {
		s.log.WithError(err).WithPortal(rawURL).Warn("survey failed")
		return nil
	}

	if s.metaCache != nil && host != "" {
		if err := s.metaCache.SetMetadata(ctx, host, meta); err != nil {
			s.log.WithError(err).WithPortal(rawURL).Debug("metadata cache write failed")
		}
	}

	return &meta
}

// =============================================================================
// Queries
// =============================================================================

// GetPortal returns one stored census result, nil when absent.
func (s *Service) GetPortal(ctx context.Context, url string) (*domain.Portal, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.GetByURL(ctx, url)
}

// DeletePortal removes one stored census result.
func (s *Service) DeletePortal(ctx context.Context, url string) error {
	if s.repo == nil {
		return apperr.Internal("no repository configured")
	}
	return s.repo.Delete(ctx, url)
}

// ListPortals returns a page of stored census results.
func (s *Service) ListPortals(ctx context.Context, req *in.ListPortalsRequest) (*in.ListPortalsResponse, error) {
	if s.repo == nil {
		return &in.ListPortalsResponse{Portals: []*domain.Portal{}}, nil
	}
	if req == nil {
		req = &in.ListPortalsRequest{Limit: 50}
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}

	opts := &out.PortalListOptions{
		Stage:  req.Stage,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.Category != "" {
		c := domain.SiteCategory(req.Category)
		opts.Category = &c
	}
	if req.Region != "" {
		r := domain.Region(req.Region)
		opts.Region = &r
	}

	portals, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &in.ListPortalsResponse{
		Portals: portals,
		Total:   total,
		HasMore: int64(req.Offset+len(portals)) < total,
	}, nil
}

// GetStats aggregates census counts from storage and pipeline counters.
func (s *Service) GetStats(ctx context.Context) (*in.CensusStats, error) {
	stats := &in.CensusStats{
		ByCategory: map[domain.SiteCategory]int64{},
		ByRegion:   map[domain.Region]int64{},
		Counters:   s.counters.Snapshot(),
	}

	if s.repo != nil {
		if byCat, err := s.repo.CountByCategory(ctx); err == nil {
			stats.ByCategory = byCat
		}
		if byRegion, err := s.repo.CountByRegion(ctx); err == nil {
			stats.ByRegion = byRegion
		}
	}

	return stats, nil
}

func hostOf(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
