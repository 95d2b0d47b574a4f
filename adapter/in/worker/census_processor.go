package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"census_server/adapter/out/csvio"
	"census_server/core/domain"
	"census_server/core/port/in"
	"census_server/pkg/logger"
)

// =============================================================================
// Portal Processor
// =============================================================================

// PortalProcessor handles single-portal census jobs.
type PortalProcessor struct {
	census in.CensusService
}

// NewPortalProcessor creates a new portal processor.
func NewPortalProcessor(census in.CensusService) *PortalProcessor {
	return &PortalProcessor{census: census}
}

// ProcessFull runs every census stage on one portal.
func (p *PortalProcessor) ProcessFull(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[PortalProcessPayload](msg)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	portal := domain.Portal{
		URL:         payload.URL,
		Name:        payload.Name,
		Description: payload.Description,
	}

	processed := p.census.ProcessPortal(ctx, portal)

	log := logger.WithFields(map[string]any{
		"job":    "portal.process",
		"portal": processed.URL,
	})
	if processed.Classification != nil {
		log = log.WithField("category", string(processed.Classification.Category))
	}
	log.Info("portal census completed")

	return nil
}

// ProcessSurvey fetches live metadata for one portal.
func (p *PortalProcessor) ProcessSurvey(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[PortalSurveyPayload](msg)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	meta, err := p.census.SurveyPortal(ctx, payload.URL)
	if err != nil {
		return fmt.Errorf("survey failed for %s: %w", payload.URL, err)
	}

	if meta == nil {
		logger.WithField("portal", payload.URL).Warn("portal did not answer survey")
		return nil
	}

	logger.WithFields(map[string]any{
		"portal":       payload.URL,
		"ckan_version": meta.CKANVersion,
		"datasets":     meta.NumDatasets,
	}).Info("portal surveyed")

	return nil
}

// ProcessClassify categorizes one portal URL.
func (p *PortalProcessor) ProcessClassify(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[PortalClassifyPayload](msg)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	result, err := p.census.ClassifyPortal(ctx, payload.URL)
	if err != nil {
		return fmt.Errorf("classify failed for %s: %w", payload.URL, err)
	}

	logger.WithFields(map[string]any{
		"portal":     payload.URL,
		"category":   string(result.Category),
		"confidence": result.Confidence,
		"stage":      result.Stage,
	}).Info("portal classified")

	return nil
}

// ProcessLocate resolves the location of one portal.
func (p *PortalProcessor) ProcessLocate(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[PortalLocatePayload](msg)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	loc, err := p.census.LocatePortal(ctx, payload.URL)
	if err != nil {
		return fmt.Errorf("locate failed for %s: %w", payload.URL, err)
	}

	logger.WithFields(map[string]any{
		"portal": payload.URL,
		"region": string(loc.Region),
	}).Info("portal located")

	return nil
}

// =============================================================================
// Batch Processor
// =============================================================================

// BatchProcessor runs a full census over a CSV of portal URLs. Portals are
// processed with bounded concurrency and results are flushed to the output
// file as they accumulate, so a crash loses at most one flush interval.
type BatchProcessor struct {
	census      in.CensusService
	concurrency int
	flushEvery  int
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(census in.CensusService, concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &BatchProcessor{
		census:      census,
		concurrency: concurrency,
		flushEvery:  25,
	}
}

// ProcessRun handles a batch census job.
func (b *BatchProcessor) ProcessRun(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[BatchRunPayload](msg)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	log := logger.WithFields(map[string]any{
		"job":    "batch.run",
		"input":  payload.InputPath,
		"output": payload.OutputPath,
	})

	source := csvio.NewSource(payload.InputPath)
	portals, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load input: %w", err)
	}
	if len(portals) == 0 {
		log.Warn("input contains no portals")
		return nil
	}

	sink := csvio.NewSink(payload.OutputPath)
	start := time.Now()
	log.WithField("count", len(portals)).Info("batch census started")

	var (
		mu      sync.Mutex
		done    []domain.Portal
		wg      sync.WaitGroup
		sem     = make(chan struct{}, b.concurrency)
		written int
	)

	flush := func() {
		mu.Lock()
		snapshot := make([]domain.Portal, len(done))
		copy(snapshot, done)
		mu.Unlock()

		if err := sink.Write(ctx, snapshot); err != nil {
			log.WithError(err).Error("failed to write batch results")
		}
	}

	for _, portal := range portals {
		select {
		case <-ctx.Done():
			wg.Wait()
			flush()
			return ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(p domain.Portal) {
			defer wg.Done()
			defer func() { <-sem }()

			processed := b.census.ProcessPortal(ctx, p)

			mu.Lock()
			done = append(done, processed)
			shouldFlush := len(done)-written >= b.flushEvery
			if shouldFlush {
				written = len(done)
			}
			mu.Unlock()

			if shouldFlush {
				flush()
			}
		}(portal)
	}

	wg.Wait()
	flush()
	if err := sink.Flush(ctx); err != nil {
		log.WithError(err).Error("failed to flush batch output")
	}

	log.WithFields(map[string]any{
		"count":    len(portals),
		"duration": time.Since(start).String(),
	}).Info("batch census completed")

	return nil
}
