package report

import (
	"context"
	"errors"
	"time"

	"github.com/pp9653/warera-ranking-sys/core/logger"
	"github.com/pp9653/warera-ranking-sys/feature/roster"
	"github.com/pp9653/warera-ranking-sys/feature/roster/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RosterReader loads cached rosters.
type RosterReader interface {
	Roster(ctx context.Context, countryName string) (*models.MergedView, error)
}

// Handler serves summaries and exports over HTTP.
type Handler struct {
	rosters RosterReader
	sink    Sink
	logger  *zap.Logger
}

// NewHandler creates a report handler. A nil sink disables the export route.
func NewHandler(rosters RosterReader, sink Sink, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{rosters: rosters, sink: sink, logger: logger}
}

// RegisterRoutes registers the report routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/api/countries")
	group.Get("/:country/summary", h.HandleSummary)
	group.Get("/:country/export", h.HandleDownload)
	if h.sink != nil {
		group.Post("/:country/export", h.HandleExport)
	}
}

// HandleSummary returns the battalion summary as JSON, or as text with ?format=text.
func (h *Handler) HandleSummary(c *fiber.Ctx) error {
	view, err := h.rosters.Roster(c.UserContext(), c.Params("country"))
	if err != nil {
		return h.fail(c, err)
	}
	summary := Summarize(view)
	if c.Query("format") == "text" {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return WriteText(c, summary)
	}
	return c.JSON(summary)
}

// HandleDownload returns the export document.
func (h *Handler) HandleDownload(c *fiber.Ctx) error {
	view, err := h.rosters.Roster(c.UserContext(), c.Params("country"))
	if err != nil {
		return h.fail(c, err)
	}
	c.Attachment(FileName(view.Country.Name, view.CurrentWeekID, KindExport))
	return c.JSON(NewDocument(view, time.Now()))
}

// HandleExport writes the artifacts to the configured sink.
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	view, err := h.rosters.Roster(c.UserContext(), c.Params("country"))
	if err != nil {
		return h.fail(c, err)
	}
	written, err := Export(c.UserContext(), view, h.sink, time.Now())
	if err != nil {
		return h.fail(c, err)
	}
	logger.WithRayID(h.logger, c).Info("Roster exported",
		zap.String("country", view.Country.Name),
		zap.Strings("files", written),
	)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"files": written})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, roster.ErrNotCached) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithRayID(h.logger, c).Error("Report request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
