package routing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dpup/routeline/internal/lib/routeline"
)

// RerouteController requests a new route from the current trip position
type RerouteController struct {
	updater OptionsUpdater
	router  Router
	logger  *zap.Logger
}

// NewRerouteController creates a controller. A nil logger disables logging.
func NewRerouteController(updater OptionsUpdater, router Router, logger *zap.Logger) *RerouteController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RerouteController{
		updater: updater,
		router:  router,
		logger:  logger,
	}
}

// Reroute rebuilds the request and fetches routes for it. Invalid input is
// returned without contacting the router.
func (c *RerouteController) Reroute(ctx context.Context, original *RouteOptions, progress *Progress, location *Location) ([]routeline.Route, error) {
	result := c.updater.Update(original, progress, location)
	if !result.OK() {
		if result.Err != nil {
			return nil, result.Err
		}
		return nil, &InvalidInputError{Reason: "updater returned no options"}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Info("Requesting reroute",
		zap.Int("coordinates", len(result.Options.Coordinates)),
		zap.String("profile", result.Options.Profile))

	routes, err := c.router.GetRoute(ctx, result.Options)
	if err != nil {
		c.logger.Error("Reroute request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch reroute: %w", err)
	}

	c.logger.Info("Reroute received", zap.Int("routes", len(routes)))
	return routes, nil
}

// Cancel aborts any reroute in flight
func (c *RerouteController) Cancel() {
	c.router.Cancel()
}
