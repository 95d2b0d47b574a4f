package census

import (
	"context"
	"errors"
	"testing"

	"census_server/core/domain"
	"census_server/core/port/out"
)

type fakeSurveyor struct {
	meta domain.PortalMetadata
	err  error
}

func (f *fakeSurveyor) Survey(ctx context.Context, url string) (domain.PortalMetadata, error) {
	return f.meta, f.err
}

func (f *fakeSurveyor) Alive(ctx context.Context, url string) bool {
	return f.err == nil
}

type fakeMetaCache struct {
	stored map[string]domain.PortalMetadata
}

func (f *fakeMetaCache) GetMetadata(ctx context.Context, host string) (*domain.PortalMetadata, bool, error) {
	if meta, ok := f.stored[host]; ok {
		return &meta, true, nil
	}
	return nil, false, nil
}

func (f *fakeMetaCache) SetMetadata(ctx context.Context, host string, meta domain.PortalMetadata) error {
	f.stored[host] = meta
	return nil
}

type fakeRepo struct {
	out.PortalRepository
	upserted []*domain.Portal
}

func (f *fakeRepo) Upsert(ctx context.Context, portal *domain.Portal) error {
	f.upserted = append(f.upserted, portal)
	return nil
}

func TestProcessPortalFullPipeline(t *testing.T) {
	surveyor := &fakeSurveyor{meta: domain.PortalMetadata{
		SiteTitle:   "UK Open Data",
		CKANVersion: "2.10.1",
		NumDatasets: 40000,
	}}
	metaCache := &fakeMetaCache{stored: map[string]domain.PortalMetadata{}}
	repo := &fakeRepo{}

	svc := NewService(Config{
		Surveyor:  surveyor,
		MetaCache: metaCache,
		Repo:      repo,
	})

	portal := svc.ProcessPortal(context.Background(), domain.Portal{URL: "https://data.gov.uk"})

	if portal.Metadata == nil || portal.Metadata.CKANVersion != "2.10.1" {
		t.Fatalf("metadata not attached: %+v", portal.Metadata)
	}
	if portal.Name != "UK Open Data" {
		t.Errorf("Name = %q, want survey title", portal.Name)
	}
	if portal.Classification == nil {
		t.Fatal("classification missing")
	}
	if portal.Classification.Category != domain.CategoryGovernment {
		t.Errorf("Category = %q, want Government", portal.Classification.Category)
	}
	if portal.Classification.Confidence < 90 {
		t.Errorf("Confidence = %.1f, want >= 90 for .gov TLD", portal.Classification.Confidence)
	}
	if portal.ProcessedAt.IsZero() {
		t.Error("ProcessedAt not set")
	}

	if len(repo.upserted) != 1 {
		t.Errorf("portal not persisted")
	}
	if _, ok := metaCache.stored["data.gov.uk"]; !ok {
		t.Error("metadata not cached by host")
	}
}

func TestProcessPortalSurveyFailureDegrades(t *testing.T) {
	svc := NewService(Config{
		Surveyor: &fakeSurveyor{err: errors.New("connection refused")},
	})

	portal := svc.ProcessPortal(context.Background(), domain.Portal{URL: "https://dead.example.gov"})

	if portal.Metadata != nil {
		t.Errorf("expected nil metadata, got %+v", portal.Metadata)
	}
	if portal.Classification == nil {
		t.Fatal("classification must still run when survey fails")
	}
}

func TestProcessPortalUsesCachedMetadata(t *testing.T) {
	metaCache := &fakeMetaCache{stored: map[string]domain.PortalMetadata{
		"data.gov.uk": {SiteTitle: "Cached Title"},
	}}
	surveyor := &fakeSurveyor{err: errors.New("should not be called")}

	svc := NewService(Config{Surveyor: surveyor, MetaCache: metaCache})

	portal := svc.ProcessPortal(context.Background(), domain.Portal{URL: "https://data.gov.uk"})
	if portal.Metadata == nil || portal.Metadata.SiteTitle != "Cached Title" {
		t.Errorf("cached metadata not used: %+v", portal.Metadata)
	}
}

func TestClassifyIsTotal(t *testing.T) {
	svc := NewService(Config{})

	for _, input := range []string{"", "not a url", "https://data.gov.uk", "::::"} {
		result := svc.Classify(input)
		if !domain.IsValidCategory(result.Category) {
			t.Errorf("Classify(%q) category %q not in valid set", input, result.Category)
		}
		if result.Confidence < 0 || result.Confidence > 100 {
			t.Errorf("Classify(%q) confidence %.1f out of range", input, result.Confidence)
		}
	}
}

type stageRepo struct {
	out.PortalRepository
	classifications map[string]domain.ClassificationResult
	metadata        map[string]domain.PortalMetadata
	deleted         []string
}

func (f *stageRepo) Delete(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *stageRepo) UpdateClassification(ctx context.Context, url string, result domain.ClassificationResult) error {
	f.classifications[url] = result
	return nil
}

func (f *stageRepo) UpdateMetadata(ctx context.Context, url string, meta domain.PortalMetadata) error {
	f.metadata[url] = meta
	return nil
}

func TestClassifyPortalPersists(t *testing.T) {
	repo := &stageRepo{
		classifications: map[string]domain.ClassificationResult{},
		metadata:        map[string]domain.PortalMetadata{},
	}
	svc := NewService(Config{Repo: repo})

	result, err := svc.ClassifyPortal(context.Background(), "https://data.gov.uk")
	if err != nil {
		t.Fatalf("ClassifyPortal: %v", err)
	}
	if result.Category != domain.CategoryGovernment {
		t.Errorf("Category = %q, want Government", result.Category)
	}

	stored, ok := repo.classifications["https://data.gov.uk"]
	if !ok {
		t.Fatal("classification not persisted")
	}
	if stored.Category != result.Category {
		t.Errorf("persisted category %q differs from returned %q", stored.Category, result.Category)
	}
}

func TestSurveyPortalPersists(t *testing.T) {
	repo := &stageRepo{
		classifications: map[string]domain.ClassificationResult{},
		metadata:        map[string]domain.PortalMetadata{},
	}
	surveyor := &fakeSurveyor{meta: domain.PortalMetadata{CKANVersion: "2.9.5"}}
	svc := NewService(Config{Surveyor: surveyor, Repo: repo})

	meta, err := svc.SurveyPortal(context.Background(), "https://data.example.gov")
	if err != nil {
		t.Fatalf("SurveyPortal: %v", err)
	}
	if meta == nil || meta.CKANVersion != "2.9.5" {
		t.Fatalf("metadata = %+v, want CKAN 2.9.5", meta)
	}
	if _, ok := repo.metadata["https://data.example.gov"]; !ok {
		t.Error("metadata not persisted")
	}
}

func TestDeletePortal(t *testing.T) {
	repo := &stageRepo{
		classifications: map[string]domain.ClassificationResult{},
		metadata:        map[string]domain.PortalMetadata{},
	}
	svc := NewService(Config{Repo: repo})

	if err := svc.DeletePortal(context.Background(), "https://data.gov.uk"); err != nil {
		t.Fatalf("DeletePortal: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "https://data.gov.uk" {
		t.Errorf("deleted = %v, want the requested url", repo.deleted)
	}

	bare := NewService(Config{})
	if err := bare.DeletePortal(context.Background(), "https://data.gov.uk"); err == nil {
		t.Error("expected error when no repository is configured")
	}
}

func TestSurveyPortalWithoutSurveyor(t *testing.T) {
	svc := NewService(Config{})
	if _, err := svc.SurveyPortal(context.Background(), "https://data.example.gov"); err == nil {
		t.Error("expected error when no surveyor is configured")
	}
}

func TestNormalizeRegionIsTotal(t *testing.T) {
	svc := NewService(Config{})

	for _, input := range []string{"", "somewhere odd", "Western Europe", "Europe"} {
		r := svc.NormalizeRegion(input)
		if !domain.IsAllowedRegion(r) {
			t.Errorf("NormalizeRegion(%q) = %q outside allowed set", input, r)
		}
	}
}
