package worker

import (
	"census_server/pkg/logger"
	"context"

	"github.com/goccy/go-json"
)

type Handler struct {
	portalProcessor *PortalProcessor
	batchProcessor  *BatchProcessor
}

func NewHandler(
	portalProcessor *PortalProcessor,
	batchProcessor *BatchProcessor,
) *Handler {
	return &Handler{
		portalProcessor: portalProcessor,
		batchProcessor:  batchProcessor,
	}
}

func (h *Handler) Process(ctx context.Context, msg *Message) error {
	logger.Debug("Processing message: %s", msg.Type)

	switch msg.Type {
	// Portal jobs
	case JobPortalProcess:
		return h.portalProcessor.ProcessFull(ctx, msg)
	case JobPortalSurvey:
		return h.portalProcessor.ProcessSurvey(ctx, msg)
	case JobPortalClassify:
		return h.portalProcessor.ProcessClassify(ctx, msg)
	case JobPortalLocate:
		return h.portalProcessor.ProcessLocate(ctx, msg)

	// Batch jobs
	case JobBatchRun:
		return h.batchProcessor.ProcessRun(ctx, msg)

	default:
		logger.Warn("Unknown job type: %s", msg.Type)
		return nil
	}
}

func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
