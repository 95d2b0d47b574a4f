package http

import (
	"census_server/adapter/in/worker"
	"census_server/core/port/in"
	"census_server/pkg/httputil"
	"census_server/pkg/metrics"
	"census_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CensusHandler handles portal census API endpoints.
type CensusHandler struct {
	census in.CensusService
	pool   *worker.Pool
}

// NewCensusHandler creates a new CensusHandler. The pool may be nil when the
// process runs in API-only mode; enqueue endpoints then return 503.
func NewCensusHandler(census in.CensusService, pool *worker.Pool) *CensusHandler {
	return &CensusHandler{census: census, pool: pool}
}

// Register registers census routes.
func (h *CensusHandler) Register(app fiber.Router) {
	app.Post("/classify", h.Classify)
	app.Post("/region/normalize", h.NormalizeRegion)

	portals := app.Group("/portals")
	portals.Post("/", h.EnqueuePortal)
	portals.Get("/", h.ListPortals)
	portals.Get("/lookup", h.GetPortal)
	portals.Delete("/", h.DeletePortal)

	app.Post("/batches", h.EnqueueBatch)
	app.Get("/stats", h.Stats)
}

// =============================================================================
// Synchronous operations
// =============================================================================

type classifyRequest struct {
	URL string `json:"url"`
}

// Classify categorizes a portal URL without touching the network. Always
// answers; unusable input lands in the residual category.
func (h *CensusHandler) Classify(c *fiber.Ctx) error {
	var req classifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result := h.census.Classify(req.URL)
	return response.OK(c, result)
}

type normalizeRegionRequest struct {
	Text string `json:"text"`
}

// NormalizeRegion maps free location text onto the region taxonomy.
func (h *CensusHandler) NormalizeRegion(c *fiber.Ctx) error {
	var req normalizeRegionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	region := h.census.NormalizeRegion(req.Text)
	return response.OK(c, fiber.Map{"region": region})
}

// =============================================================================
// Asynchronous operations (worker pool)
// =============================================================================

type enqueuePortalRequest struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Priority    bool   `json:"priority"`
}

// EnqueuePortal submits a full census job for one portal.
func (h *CensusHandler) EnqueuePortal(c *fiber.Ctx) error {
	if h.pool == nil {
		return response.Error(c, fiber.StatusServiceUnavailable, "NO_WORKER", "worker pool not running")
	}

	var req enqueuePortalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.URL == "" {
		return response.BadRequest(c, "url is required")
	}

	payload := map[string]any{
		"url":         req.URL,
		"name":        req.Name,
		"description": req.Description,
	}

	var msg *worker.Message
	var accepted bool
	if req.Priority {
		msg = worker.NewPriorityMessage(worker.JobPortalProcess, payload, worker.PriorityHigh)
		accepted = h.pool.SubmitPriority(msg)
	} else {
		msg = worker.NewMessage(worker.JobPortalProcess, payload)
		accepted = h.pool.Submit(msg)
	}

	if !accepted {
		return response.Error(c, fiber.StatusTooManyRequests, "QUEUE_FULL", "job rejected by worker pool")
	}

	return response.Accepted(c, fiber.Map{
		"job_id": msg.ID,
		"url":    req.URL,
	})
}

type enqueueBatchRequest struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
}

// EnqueueBatch submits a census run over a CSV of portal URLs.
func (h *CensusHandler) EnqueueBatch(c *fiber.Ctx) error {
	if h.pool == nil {
		return response.Error(c, fiber.StatusServiceUnavailable, "NO_WORKER", "worker pool not running")
	}

	var req enqueueBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.InputPath == "" || req.OutputPath == "" {
		return response.BadRequest(c, "input_path and output_path are required")
	}

	msg := worker.NewMessage(worker.JobBatchRun, map[string]any{
		"input_path":  req.InputPath,
		"output_path": req.OutputPath,
	})
	if !h.pool.Submit(msg) {
		return response.Error(c, fiber.StatusTooManyRequests, "QUEUE_FULL", "job rejected by worker pool")
	}

	return response.Accepted(c, fiber.Map{
		"job_id": msg.ID,
		"input":  req.InputPath,
		"output": req.OutputPath,
	})
}

// =============================================================================
// Queries
// =============================================================================

// GetPortal returns one stored census result, looked up by url query param.
func (h *CensusHandler) GetPortal(c *fiber.Ctx) error {
	url := c.Query("url")
	if url == "" {
		return response.BadRequest(c, "url query parameter is required")
	}

	portal, err := h.census.GetPortal(c.Context(), url)
	if err != nil {
		return response.InternalError(c, "failed to load portal")
	}
	if portal == nil {
		return response.NotFound(c, "portal")
	}

	return response.OK(c, portal)
}

// DeletePortal removes one stored census result, looked up by url query param.
func (h *CensusHandler) DeletePortal(c *fiber.Ctx) error {
	url := c.Query("url")
	if url == "" {
		return response.BadRequest(c, "url query parameter is required")
	}

	if err := h.census.DeletePortal(c.Context(), url); err != nil {
		return response.InternalError(c, "failed to delete portal")
	}

	return response.OK(c, fiber.Map{"deleted": url})
}

// ListPortals returns a page of stored census results.
func (h *CensusHandler) ListPortals(c *fiber.Ctx) error {
	page := response.GetPagination(c, 50, 200)

	req := &in.ListPortalsRequest{
		Category: c.Query("category"),
		Region:   c.Query("region"),
		Stage:    c.Query("stage"),
		Limit:    page.PageSize,
		Offset:   page.Offset,
	}

	result, err := h.census.ListPortals(c.Context(), req)
	if err != nil {
		return response.InternalError(c, "failed to list portals")
	}

	return response.OKWithMeta(c, result.Portals, &response.Meta{
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    int(result.Total),
		HasMore:  result.HasMore,
	})
}

// Stats returns census aggregates plus pipeline and pool internals.
func (h *CensusHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.census.GetStats(c.Context())
	if err != nil {
		return response.InternalError(c, "failed to load stats")
	}

	out := fiber.Map{
		"by_category": stats.ByCategory,
		"by_region":   stats.ByRegion,
		"counters":    stats.Counters,
		"latency":     metrics.GetAllLatencyStats(),
		"http_pools":  httputil.GetAllPoolStats(),
	}
	if h.pool != nil {
		out["worker_pool"] = h.pool.GetMetrics()
	}

	return response.OK(c, out)
}
