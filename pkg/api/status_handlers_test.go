package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/open-rover/navigator/domain/telemetry"
	"github.com/open-rover/navigator/pkg/config"
	"github.com/open-rover/navigator/pkg/nav"
	"github.com/open-rover/navigator/pkg/processing"
)

type statusResponse struct {
	Status      string         `json:"status"`
	Driver      nav.Status     `json:"driver"`
	DriverKnown bool           `json:"driver_known"`
	Mission     MissionSummary `json:"mission"`
	Pump        FeedPumpStats  `json:"pump"`
}

func newStatusTestApp(t *testing.T, telemetryService *telemetry.TelemetryService, missions *fakeMissionService) *fiber.App {
	t.Helper()

	registry := processing.NewFeedRegistry(testLogger{})
	pump := processing.NewFeedPump("feeds", 4, testLogger{})

	app := fiber.New()
	RegisterStatusRoutes(app, telemetryService, registry, pump, missions, testLogger{})
	return app
}

func getStatus(t *testing.T, app *fiber.App) statusResponse {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

func TestStatusEndpointComposesState(t *testing.T) {
	telemetryService := telemetry.NewTelemetryService()
	telemetryService.Record(nav.Status{
		State:         nav.StateNavigating.String(),
		WaypointIndex: 1,
		WaypointCount: 2,
		PoseKnown:     true,
	})

	missions := &fakeMissionService{
		mission: &config.MissionConfig{
			MissionID: "survey-7",
			RobotID:   "rover-01",
			Waypoints: []config.WaypointConfig{{X: 9.71504, Y: -2.145}, {X: 9.19347, Y: -3.061}},
		},
		runID: "run-9",
	}

	app := newStatusTestApp(t, telemetryService, missions)
	body := getStatus(t, app)

	if body.Status != "success" {
		t.Errorf("Expected status field success, got %s", body.Status)
	}
	if !body.DriverKnown {
		t.Error("Expected driver_known to be true after a recorded frame")
	}
	if body.Driver.State != "NAVIGATING" {
		t.Errorf("Expected driver state NAVIGATING, got %s", body.Driver.State)
	}
	if body.Mission.MissionID != "survey-7" {
		t.Errorf("Expected mission_id survey-7, got %s", body.Mission.MissionID)
	}
	if body.Mission.RunID != "run-9" {
		t.Errorf("Expected run_id run-9, got %s", body.Mission.RunID)
	}
	if body.Mission.Waypoints != 2 {
		t.Errorf("Expected waypoint_count 2, got %d", body.Mission.Waypoints)
	}
	if body.Mission.StagedUpdate {
		t.Error("Expected staged_update to be false")
	}
	if body.Pump.QueueCapacity != 4 {
		t.Errorf("Expected queue_capacity 4, got %d", body.Pump.QueueCapacity)
	}
}

func TestStatusEndpointBeforeFirstFrame(t *testing.T) {
	telemetryService := telemetry.NewTelemetryService()
	missions := &fakeMissionService{runID: "run-1"}

	app := newStatusTestApp(t, telemetryService, missions)
	body := getStatus(t, app)

	if body.DriverKnown {
		t.Error("Expected driver_known to be false before any frame")
	}
	if body.Mission.MissionID != "" {
		t.Errorf("Expected empty mission_id without a mission, got %s", body.Mission.MissionID)
	}
}

func TestStatusEndpointReportsStagedUpdate(t *testing.T) {
	telemetryService := telemetry.NewTelemetryService()
	missions := &fakeMissionService{
		mission: &config.MissionConfig{MissionID: "survey-7"},
		staged:  &config.MissionConfig{MissionID: "survey-8"},
		runID:   "run-2",
	}

	app := newStatusTestApp(t, telemetryService, missions)
	body := getStatus(t, app)

	if !body.Mission.StagedUpdate {
		t.Error("Expected staged_update to be true with a staged mission")
	}
}
