package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/open-rover/navigator/domain/telemetry"
	customlog "github.com/open-rover/navigator/pkg/log"
	"github.com/open-rover/navigator/pkg/processing"
	"github.com/open-rover/navigator/services"
)

// StatusHandler holds dependencies for the composite status endpoint.
type StatusHandler struct {
	telemetry *telemetry.TelemetryService
	registry  *processing.FeedRegistry
	pump      *processing.FeedPump
	missions  services.MissionService
	logger    customlog.Logger
}

// RegisterStatusRoutes registers the status API endpoint with the Fiber app.
func RegisterStatusRoutes(
	app *fiber.App,
	telemetryService *telemetry.TelemetryService,
	registry *processing.FeedRegistry,
	pump *processing.FeedPump,
	missions services.MissionService,
	logger customlog.Logger,
) {
	h := &StatusHandler{
		telemetry: telemetryService,
		registry:  registry,
		pump:      pump,
		missions:  missions,
		logger:    logger,
	}

	app.Get("/api/v1/status", h.handleGetStatus)

	logger.Infof("Registered status API endpoint under /api/v1/status")
}

// handleGetStatus returns the latest driver status together with mission,
// feed and pump statistics in a single response.
func (h *StatusHandler) handleGetStatus(c *fiber.Ctx) error {
	driver, known := h.telemetry.Latest()

	metrics := h.pump.GetMetrics()
	pumpStats := FeedPumpStats{
		Received:      metrics.ReceivedCount,
		Processed:     metrics.ProcessedCount,
		Dropped:       metrics.DroppedCount,
		Errors:        metrics.ErrorCount,
		QueueDepth:    h.pump.GetQueueLength(),
		QueueCapacity: h.pump.GetQueueCapacity(),
	}

	summary := MissionSummary{
		RunID:        h.missions.RunID(),
		StagedUpdate: h.missions.StagedMission() != nil,
	}
	if mission := h.missions.ActiveMission(); mission != nil {
		summary.MissionID = mission.MissionID
		summary.RobotID = mission.RobotID
		summary.Waypoints = len(mission.Waypoints)
	}

	return c.JSON(fiber.Map{
		"status":       "success",
		"driver":       driver,
		"driver_known": known,
		"mission":      summary,
		"feeds":        h.registry.GetFeedStats(),
		"pump":         pumpStats,
	})
}
