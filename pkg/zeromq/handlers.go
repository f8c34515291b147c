package zeromq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/open-rover/navigator/domain/telemetry"
	customlog "github.com/open-rover/navigator/pkg/log"
	"github.com/open-rover/navigator/pkg/processing"
	"github.com/open-rover/navigator/services"
)

// StatusHandler handles STATUS_REQUEST messages
type StatusHandler struct {
	telemetry *telemetry.TelemetryService
	registry  *processing.FeedRegistry
	logger    customlog.Logger
}

// NewStatusHandler creates a new handler for status requests
func NewStatusHandler(t *telemetry.TelemetryService, registry *processing.FeedRegistry, logger customlog.Logger) *StatusHandler {
	return &StatusHandler{
		telemetry: t,
		registry:  registry,
		logger:    logger,
	}
}

// HandleMessage processes a STATUS_REQUEST message and returns a STATUS_RESPONSE
func (h *StatusHandler) HandleMessage(data []byte) ([]byte, error) {
	// Parse the message to ensure it's valid
	var msg ZeroMQMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	// Verify it's a STATUS_REQUEST
	if msg.Type != MsgTypeStatusRequest {
		return nil, fmt.Errorf("unexpected message type: %s", msg.Type)
	}

	h.logger.Debugf("Processing status request")

	status, known := h.telemetry.Latest()

	response := ZeroMQMessage{
		Type:      MsgTypeStatusResponse,
		Timestamp: float64(time.Now().Unix()),
		Data: map[string]interface{}{
			"driver":       status,
			"driver_known": known,
			"feeds":        h.registry.GetFeedStats(),
		},
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		h.logger.Errorf("Error serializing status response: %v", err)
		return nil, fmt.Errorf("failed to serialize response: %w", err)
	}

	h.logger.Debugf("Sending status response (%d bytes)", len(responseData))
	return responseData, nil
}

// MissionHandler handles MISSION_REQUEST messages
type MissionHandler struct {
	missions services.MissionService
	logger   customlog.Logger
}

// NewMissionHandler creates a new handler for mission requests
func NewMissionHandler(missions services.MissionService, logger customlog.Logger) *MissionHandler {
	return &MissionHandler{
		missions: missions,
		logger:   logger,
	}
}

// HandleMessage processes a MISSION_REQUEST message and returns a MISSION_RESPONSE
func (h *MissionHandler) HandleMessage(data []byte) ([]byte, error) {
	var msg ZeroMQMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	if msg.Type != MsgTypeMissionRequest {
		return nil, fmt.Errorf("unexpected message type: %s", msg.Type)
	}

	h.logger.Debugf("Processing mission request")

	mission := h.missions.ActiveMission()
	if mission == nil {
		return nil, services.ErrNoMission
	}

	response := ZeroMQMessage{
		Type:      MsgTypeMissionResponse,
		Timestamp: float64(time.Now().Unix()),
		Data: map[string]interface{}{
			"run_id":        h.missions.RunID(),
			"mission":       mission,
			"staged_update": h.missions.StagedMission() != nil,
		},
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		h.logger.Errorf("Error serializing mission response: %v", err)
		return nil, fmt.Errorf("failed to serialize response: %w", err)
	}

	h.logger.Debugf("Sending mission response (%d bytes)", len(responseData))
	return responseData, nil
}

// RegisterRequestHandlers registers the status and mission request handlers
// with the service dispatcher.
func RegisterRequestHandlers(
	service *ZeroMQService,
	t *telemetry.TelemetryService,
	registry *processing.FeedRegistry,
	missions services.MissionService,
	logger customlog.Logger,
) {
	service.RegisterHandler(MsgTypeStatusRequest, NewStatusHandler(t, registry, logger))
	service.RegisterHandler(MsgTypeMissionRequest, NewMissionHandler(missions, logger))

	logger.Infof("Registered status and mission request handlers")
}
