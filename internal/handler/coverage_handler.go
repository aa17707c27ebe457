package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/edulens/quizcover/internal/port"
	"github.com/edulens/quizcover/internal/service"
)

// CoverageHandler exposes the coverage analysis endpoints.
type CoverageHandler struct {
	coverage *service.CoverageService
}

// NewCoverageHandler creates a new coverage handler.
func NewCoverageHandler(coverage *service.CoverageService) *CoverageHandler {
	return &CoverageHandler{coverage: coverage}
}

// Register sets up coverage routes.
func (h *CoverageHandler) Register(router fiber.Router) {
	cov := router.Group("/coverage")
	cov.Get("/:quizID/modules", h.ListModules)
	cov.Get("/:quizID/modules/:moduleID", h.GetModuleCoverage)
}

// ListModules returns the modules available for coverage analysis.
func (h *CoverageHandler) ListModules(c fiber.Ctx) error {
	quizID, err := uuid.Parse(c.Params("quizID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid quiz id"})
	}

	resp, err := h.coverage.ListModules(c.Context(), quizID)
	if err != nil {
		return coverageError(c, err, "failed to list modules for coverage analysis")
	}
	return c.JSON(resp)
}

// GetModuleCoverage computes and returns the coverage report for one module.
func (h *CoverageHandler) GetModuleCoverage(c fiber.Ctx) error {
	quizID, err := uuid.Parse(c.Params("quizID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid quiz id"})
	}
	moduleID := c.Params("moduleID")

	resp, err := h.coverage.ComputeModuleCoverage(c.Context(), quizID, moduleID)
	if err != nil {
		return coverageError(c, err, "failed to compute coverage analysis")
	}
	return c.JSON(resp)
}

// coverageError maps validation failures to 400 with their message and hides
// everything else behind a generic 500.
func coverageError(c fiber.Ctx, err error, generic string) error {
	if port.IsValidation(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	slog.Error(generic, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": generic})
}
