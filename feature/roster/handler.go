package roster

import (
	"context"
	"errors"
	"strings"

	"github.com/pp9653/warera-ranking-sys/core/logger"
	"github.com/pp9653/warera-ranking-sys/core/reconcile"
	"github.com/pp9653/warera-ranking-sys/core/warera"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AssignRequest is the body of POST /battalions.
type AssignRequest struct {
	Battalion string   `json:"battalion" validate:"required"`
	Usernames []string `json:"usernames" validate:"required,min=1,dive,required"`
}

// MedalRequest is the body of POST /medals.
type MedalRequest struct {
	Username string `json:"username" validate:"required"`
	Medal    string `json:"medal" validate:"required,oneof=gold silver bronze GOLD SILVER BRONZE"`
	Week     string `json:"week" validate:"omitempty,startswith=week_"`
}

// Handler handles HTTP requests for country rosters.
type Handler struct {
	service   *Service
	logger    *zap.Logger
	validator *validator.Validate
	baseCtx   context.Context
}

// NewHandler creates a new HTTP handler. Background refreshes run under baseCtx.
func NewHandler(baseCtx context.Context, service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:   service,
		logger:    logger,
		validator: validator.New(),
		baseCtx:   baseCtx,
	}
}

// RegisterRoutes registers the roster routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/api/countries")
	group.Get("/", h.HandleCountries)
	group.Get("/:country/roster", h.HandleRoster)
	group.Post("/:country/refresh", h.HandleRefresh)
	group.Get("/:country/refresh", h.HandleRefreshStatus)
	group.Post("/:country/battalions", h.HandleAssign)
	group.Post("/:country/medals", h.HandleAward)
	group.Get("/:country/medals/:username", h.HandlePlayerMedals)
	group.Get("/:country/stats", h.HandleStats)
	group.Delete("/:country", h.HandleClear)
}

// HandleCountries lists the country catalogue.
func (h *Handler) HandleCountries(c *fiber.Ctx) error {
	countries, err := h.service.Countries(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(countries)
}

// HandleRoster returns the cached merged roster.
func (h *Handler) HandleRoster(c *fiber.Ctx) error {
	view, err := h.service.Roster(c.UserContext(), c.Params("country"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(view)
}

// HandleRefresh starts a background refresh. Poll GET .../refresh for the outcome.
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	country := c.Params("country")
	if err := h.service.RefreshAsync(h.baseCtx, country); err != nil {
		return h.fail(c, err)
	}
	logger.WithRayID(h.logger, c).Info("Refresh started", zap.String("country", country))
	return c.Status(fiber.StatusAccepted).JSON(h.service.Status(country))
}

// HandleRefreshStatus reports the last refresh of a country.
func (h *Handler) HandleRefreshStatus(c *fiber.Ctx) error {
	status := h.service.Status(c.Params("country"))
	if status == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no refresh has run for this country"})
	}
	return c.JSON(status)
}

// HandleAssign assigns players to a battalion.
func (h *Handler) HandleAssign(c *fiber.Ctx) error {
	var req AssignRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	n, err := h.service.Assign(c.UserContext(), c.Params("country"), req.Battalion, req.Usernames)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"assigned": n, "requested": len(req.Usernames)})
}

// HandleAward awards a weekly medal.
func (h *Handler) HandleAward(c *fiber.Ctx) error {
	var req MedalRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	week, err := h.service.Award(c.UserContext(), c.Params("country"), req.Username, req.Medal, req.Week)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"username": req.Username, "medal": strings.ToLower(req.Medal), "week": week})
}

// HandlePlayerMedals returns the medal history of one player.
func (h *Handler) HandlePlayerMedals(c *fiber.Ctx) error {
	medals, err := h.service.Medals(c.UserContext(), c.Params("country"), c.Params("username"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(medals)
}

// HandleStats returns battalion aggregates.
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext(), c.Params("country"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(stats)
}

// HandleClear deletes the cached roster. Requires ?confirm=true.
func (h *Handler) HandleClear(c *fiber.Ctx) error {
	country := c.Params("country")
	if err := h.service.Clear(c.UserContext(), country, c.QueryBool("confirm")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		details := make([]string, 0)
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details = append(details, fe.Field()+": "+fe.Tag())
			}
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "details": details})
	}
	return nil
}

// fail maps service errors to HTTP statuses.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotCached), errors.Is(err, reconcile.ErrNotFound), errors.Is(err, ErrPlayerNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrInvalidBattalion), errors.Is(err, ErrInvalidMedal), errors.Is(err, ErrConfirmationRequired):
		status = fiber.StatusBadRequest
	case errors.Is(err, reconcile.ErrInProgress):
		status = fiber.StatusConflict
	case errors.Is(err, warera.ErrMissingCredential):
		status = fiber.StatusPreconditionFailed
	case errors.Is(err, reconcile.ErrSourceUnavailable):
		status = fiber.StatusBadGateway
	}

	if status == fiber.StatusInternalServerError {
		logger.WithRayID(h.logger, c).Error("Roster request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
