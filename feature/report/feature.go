package report

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
}

// NewFeature creates the report feature.
func NewFeature(rosters RosterReader, sink Sink, logger *zap.Logger) *Feature {
	return &Feature{handler: NewHandler(rosters, sink, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "report"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
