package zeromq

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/open-rover/navigator/domain/telemetry"
	"github.com/open-rover/navigator/pkg/config"
	"github.com/open-rover/navigator/pkg/nav"
	"github.com/open-rover/navigator/pkg/processing"
	"github.com/open-rover/navigator/services"
)

type fakeMissionService struct {
	mission *config.MissionConfig
	staged  *config.MissionConfig
	runID   string
}

func (f *fakeMissionService) LoadMission() error { return nil }

func (f *fakeMissionService) ActiveMission() *config.MissionConfig { return f.mission }

func (f *fakeMissionService) ActiveMissionYAML() ([]byte, error) { return []byte("waypoints: []"), nil }

func (f *fakeMissionService) StagedMission() *config.MissionConfig { return f.staged }

func (f *fakeMissionService) RunID() string { return f.runID }

func (f *fakeMissionService) UpdateMission(yamlData []byte) error { return nil }

func (f *fakeMissionService) SetNotifier(n services.MissionNotifier) {}

func newRequest(t *testing.T, msgType string) []byte {
	t.Helper()

	data, err := json.Marshal(ZeroMQMessage{Type: msgType, Timestamp: 1})
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	return data
}

func TestDispatcherRoutesToRegisteredHandler(t *testing.T) {
	dispatcher := NewMessageDispatcher(testLogger{})
	dispatcher.RegisterHandler("PING", HandlerFunc(func(data []byte) ([]byte, error) {
		return []byte("pong"), nil
	}))

	response, err := dispatcher.Dispatch(newRequest(t, "PING"))
	if err != nil {
		t.Fatalf("Expected dispatch to succeed, got error: %v", err)
	}
	if string(response) != "pong" {
		t.Errorf("Expected pong, got %s", response)
	}
}

func TestDispatcherRejectsUnknownType(t *testing.T) {
	dispatcher := NewMessageDispatcher(testLogger{})

	_, err := dispatcher.Dispatch(newRequest(t, "NOPE"))
	if err == nil {
		t.Fatalf("Expected error for unknown message type")
	}
	if !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("Expected ErrUnknownMessageType, got %v", err)
	}
}

func TestDispatcherRejectsInvalidJSON(t *testing.T) {
	dispatcher := NewMessageDispatcher(testLogger{})

	_, err := dispatcher.Dispatch([]byte("not json"))
	if err == nil {
		t.Fatalf("Expected error for invalid message")
	}
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("Expected ErrInvalidMessage, got %v", err)
	}
}

func TestStatusHandlerRespondsWithDriverState(t *testing.T) {
	telemetryService := telemetry.NewTelemetryService()
	telemetryService.Record(nav.Status{State: "NAVIGATING", WaypointIndex: 1, WaypointCount: 3})

	registry := processing.NewFeedRegistry(testLogger{})
	handler := NewStatusHandler(telemetryService, registry, testLogger{})

	response, err := handler.HandleMessage(newRequest(t, MsgTypeStatusRequest))
	if err != nil {
		t.Fatalf("Expected status request to succeed, got error: %v", err)
	}

	var msg struct {
		Type string `json:"type"`
		Data struct {
			Driver      nav.Status `json:"driver"`
			DriverKnown bool       `json:"driver_known"`
		} `json:"data"`
	}
	if err := json.Unmarshal(response, &msg); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if msg.Type != MsgTypeStatusResponse {
		t.Errorf("Expected type %s, got %s", MsgTypeStatusResponse, msg.Type)
	}
	if !msg.Data.DriverKnown {
		t.Errorf("Expected driver_known to be true")
	}
	if msg.Data.Driver.State != "NAVIGATING" {
		t.Errorf("Expected state NAVIGATING, got %s", msg.Data.Driver.State)
	}
	if msg.Data.Driver.WaypointCount != 3 {
		t.Errorf("Expected waypoint count 3, got %d", msg.Data.Driver.WaypointCount)
	}
}

func TestStatusHandlerRejectsWrongType(t *testing.T) {
	handler := NewStatusHandler(telemetry.NewTelemetryService(), processing.NewFeedRegistry(testLogger{}), testLogger{})

	_, err := handler.HandleMessage(newRequest(t, MsgTypeMissionRequest))
	if err == nil {
		t.Fatalf("Expected error for wrong message type")
	}
}

func TestMissionHandlerRespondsWithActiveMission(t *testing.T) {
	missions := &fakeMissionService{
		mission: &config.MissionConfig{
			MissionID: "survey-7",
			Waypoints: []config.WaypointConfig{{X: 1, Y: 2}},
		},
		runID: "run-123",
	}
	handler := NewMissionHandler(missions, testLogger{})

	response, err := handler.HandleMessage(newRequest(t, MsgTypeMissionRequest))
	if err != nil {
		t.Fatalf("Expected mission request to succeed, got error: %v", err)
	}

	var msg struct {
		Type string `json:"type"`
		Data struct {
			RunID        string               `json:"run_id"`
			Mission      config.MissionConfig `json:"mission"`
			StagedUpdate bool                 `json:"staged_update"`
		} `json:"data"`
	}
	if err := json.Unmarshal(response, &msg); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if msg.Type != MsgTypeMissionResponse {
		t.Errorf("Expected type %s, got %s", MsgTypeMissionResponse, msg.Type)
	}
	if msg.Data.RunID != "run-123" {
		t.Errorf("Expected run id run-123, got %s", msg.Data.RunID)
	}
	if msg.Data.Mission.MissionID != "survey-7" {
		t.Errorf("Expected mission id survey-7, got %s", msg.Data.Mission.MissionID)
	}
	if msg.Data.StagedUpdate {
		t.Errorf("Expected no staged update")
	}
}

func TestMissionHandlerWithoutMission(t *testing.T) {
	handler := NewMissionHandler(&fakeMissionService{}, testLogger{})

	_, err := handler.HandleMessage(newRequest(t, MsgTypeMissionRequest))
	if !errors.Is(err, services.ErrNoMission) {
		t.Errorf("Expected ErrNoMission, got %v", err)
	}
}
