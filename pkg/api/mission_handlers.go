package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-rover/navigator/pkg/log"
	"github.com/open-rover/navigator/services"
)

// MissionHandler holds dependencies for mission API endpoints.
type MissionHandler struct {
	missionService services.MissionService
	logger         customlog.Logger
}

// NewMissionHandler creates a new handler for mission endpoints.
func NewMissionHandler(missionService services.MissionService, logger customlog.Logger) *MissionHandler {
	if missionService == nil {
		panic("MissionService cannot be nil in NewMissionHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewMissionHandler")
	}
	return &MissionHandler{
		missionService: missionService,
		logger:         logger,
	}
}

// RegisterMissionRoutes registers the mission API endpoints with the Fiber app.
func RegisterMissionRoutes(app *fiber.App, missionService services.MissionService, logger customlog.Logger) {
	h := NewMissionHandler(missionService, logger)

	// GET endpoint returns the active mission as YAML
	app.Get("/api/v1/mission", h.handleGetMission)

	// PUT endpoint stages a replacement mission for the next run
	app.Put("/api/v1/mission", h.handleUpdateMission)

	logger.Infof("Registered mission API endpoints under /api/v1/mission")
}

// handleGetMission returns the YAML of the mission the active run was
// started from, regardless of any staged update written since.
func (h *MissionHandler) handleGetMission(c *fiber.Ctx) error {
	h.logger.Debugf("Handling GET request for /api/v1/mission")

	yamlData, err := h.missionService.ActiveMissionYAML()
	if err != nil {
		if errors.Is(err, services.ErrNoMission) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{
				"error": "No mission loaded.",
			})
		}
		h.logger.Errorf("Failed to read active mission: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to read active mission: %v", err),
		})
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}

// handleUpdateMission validates and stages a replacement mission. The
// active run keeps its mission; the staged one applies on the next start.
func (h *MissionHandler) handleUpdateMission(c *fiber.Ctx) error {
	h.logger.Debugf("Handling PUT request for /api/v1/mission")

	contentType := c.Get(fiber.HeaderContentType)
	if !isYAMLContentType(contentType) {
		h.logger.Warnf("Rejected mission update with Content-Type '%s'", contentType)
		return c.Status(http.StatusUnsupportedMediaType).JSON(fiber.Map{
			"error": "Invalid Content-Type. Expected application/x-yaml.",
		})
	}

	newMissionYAML := c.Body()
	if len(newMissionYAML) == 0 {
		h.logger.Errorf("Received empty body in PUT request for mission update.")
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body cannot be empty.",
		})
	}

	if err := h.missionService.UpdateMission(newMissionYAML); err != nil {
		h.logger.Errorf("Failed to stage mission update: %v", err)
		if errors.Is(err, services.ErrMissionStorage) {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("Internal server error during mission update: %v", err),
			})
		}
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Mission update failed: %v", err),
		})
	}

	h.logger.Infof("Successfully staged mission update.")
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Mission update staged. It applies on the next start.",
	})
}

// isYAMLContentType reports whether the declared content type is one of the
// accepted YAML media types. Parameters such as charset are ignored.
func isYAMLContentType(contentType string) bool {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	switch strings.TrimSpace(contentType) {
	case "application/x-yaml", "application/yaml", "text/yaml":
		return true
	}
	return false
}
