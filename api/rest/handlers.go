package rest

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"yqhp/agent-batch/internal/chunker"
	"yqhp/agent-batch/internal/config"
	"yqhp/agent-batch/internal/contextualizer"
	"yqhp/agent-batch/internal/review"
)

// healthCheck handles GET /health
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// contextualize handles POST /api/v1/contextualize
func (s *Server) contextualize(c *fiber.Ctx) error {
	ctx := context.Background()

	var req ContextualizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
		})
	}

	if strings.TrimSpace(req.Document) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Field 'document' is required",
		})
	}
	if req.MaxConcurrent < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Field 'max_concurrent' cannot be negative",
		})
	}
	if req.OnError != "" && req.OnError != config.OnErrorFallback && req.OnError != config.OnErrorFail {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Field 'on_error' must be 'fallback' or 'fail'",
		})
	}

	// 请求级覆盖仅对本次调用生效
	chunkerOpts := chunker.Options{
		MaxChars:     s.cfg.Chunker.MaxChars,
		OverlapChars: s.cfg.Chunker.OverlapChars,
	}
	if req.MaxChunkChars > 0 {
		chunkerOpts.MaxChars = req.MaxChunkChars
	}
	if req.OverlapChars > 0 {
		chunkerOpts.OverlapChars = req.OverlapChars
	}

	ctxCfg := s.cfg.Contextualizer
	if req.MaxConcurrent > 0 {
		ctxCfg.MaxConcurrent = req.MaxConcurrent
	}
	if req.OnError != "" {
		ctxCfg.OnError = req.OnError
	}

	chunks := chunker.Split(req.Document, chunkerOpts)

	ctxr := contextualizer.New(s.model, ctxCfg, s.collector)
	out, report, err := ctxr.AddContext(ctx, req.Document, chunks)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "contextualize_failed",
			Message: "Failed to contextualize document: " + err.Error(),
		})
	}

	return c.JSON(ContextualizeResponse{
		Chunks: out,
		Report: report,
	})
}

// reviewDiff handles POST /api/v1/review
func (s *Server) reviewDiff(c *fiber.Ctx) error {
	ctx := context.Background()

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
		})
	}

	diff := req.Diff
	if strings.TrimSpace(diff) == "" {
		if strings.TrimSpace(req.DiffURL) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_request",
				Message: "Either 'diff' or 'diff_url' must be provided",
			})
		}

		fetched, err := s.fetcher.Fetch(req.DiffURL)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
				Error:   "diff_fetch_failed",
				Message: "Failed to fetch diff: " + err.Error(),
			})
		}
		diff = fetched
	}

	reviewCfg := s.cfg.Review
	if req.MaxConcurrent > 0 {
		reviewCfg.MaxConcurrent = req.MaxConcurrent
	}

	reviewer := review.NewReviewer(s.model, reviewCfg, s.collector)
	report, batch, err := reviewer.Review(ctx, diff)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "review_failed",
			Message: "Failed to review diff: " + err.Error(),
		})
	}

	return c.JSON(ReviewResponse{
		Report:  report,
		BatchID: batch.ID,
	})
}

// getMetrics handles GET /api/v1/metrics
func (s *Server) getMetrics(c *fiber.Ctx) error {
	if s.collector == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Metrics collection is disabled",
		})
	}
	return c.JSON(s.collector.Snapshot())
}

// resetMetrics handles DELETE /api/v1/metrics
func (s *Server) resetMetrics(c *fiber.Ctx) error {
	if s.collector == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Metrics collection is disabled",
		})
	}
	s.collector.Reset()
	return c.JSON(SuccessResponse{
		Success: true,
		Message: "Metrics reset successfully",
	})
}
