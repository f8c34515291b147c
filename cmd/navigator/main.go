package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/open-rover/navigator/domain/telemetry"
	"github.com/open-rover/navigator/pkg/api"
	"github.com/open-rover/navigator/pkg/config"
	customlog "github.com/open-rover/navigator/pkg/log"
	"github.com/open-rover/navigator/pkg/nav"
	"github.com/open-rover/navigator/pkg/processing"
	"github.com/open-rover/navigator/pkg/rosmsg"
	"github.com/open-rover/navigator/pkg/zeromq"
	"github.com/open-rover/navigator/services"
)

func main() {
	configDir := flag.String("config", "config", "directory holding navigator_config.yaml")
	flag.Parse()

	// Bootstrap config comes first; everything else depends on it.
	cfg, err := config.LoadBootstrapConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load bootstrap config: %v\n", err)
	}

	logger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}

	// The navigator will not start without a valid mission.
	missionPath := filepath.Join(cfg.Data.Directory, cfg.Data.MissionConfigFilename)
	missionService, err := services.NewMissionService(missionPath, logger)
	if err != nil {
		logger.Fatalf("Failed to load mission: %v", err)
	}
	mission := missionService.ActiveMission()

	// Navigation state cells and decision components, all sized from the
	// mission constants.
	poses := nav.NewPoseTracker()
	scans := nav.NewRangeScanBuffer()

	detector := nav.StuckDetector{
		TimeWindow:        mission.Navigation.StuckWindow(),
		DistanceThreshold: mission.Navigation.StuckDistanceThreshold,
	}
	analyzer := nav.NewObstacleAnalyzer(nav.SectorConfig{
		Forward:  sectorRange(mission.Sectors.Forward),
		Left:     sectorRange(mission.Sectors.Left),
		Right:    sectorRange(mission.Sectors.Right),
		Backward: sectorRange(mission.Sectors.Backward),
	})
	policy := nav.MotionPolicy{
		MaxLinear:         mission.Navigation.MaxLinearVelocity,
		MaxAngular:        mission.Navigation.MaxAngularVelocity,
		ObstacleThreshold: mission.Navigation.ObstacleThreshold,
	}

	// Feed plumbing: registry for topic metadata, pump for ordered delivery,
	// processor to decode samples into the state cells.
	registry := processing.NewFeedRegistry(logger)
	registry.LoadFromMission(mission)

	queueSize := cfg.Processing.FeedQueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	pump := processing.NewFeedPump("feeds", queueSize, logger)
	processor := processing.NewFeedProcessor(logger, registry, poses, scans)
	pump.SetProcessor(processor.CreateProcessorFunc())
	pump.Start()

	// ZeroMQ: REP socket for requests, PUB socket for commands and events,
	// SUB socket for the sensor feeds.
	zmqService, err := zeromq.NewZeroMQService(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create ZeroMQ service: %v", err)
	}

	listener, err := zeromq.NewFeedListener(zmqService.Context(), cfg, registry.InboundTopics(), pump, logger)
	if err != nil {
		logger.Fatalf("Failed to create feed listener: %v", err)
	}

	publisher := zeromq.NewCommandPublisher(zmqService, commandTopic(mission), logger)
	missionService.SetNotifier(publisher)

	telemetryService := telemetry.NewTelemetryService()
	zeromq.RegisterRequestHandlers(zmqService, telemetryService, registry, missionService, logger)

	if err := zmqService.Start(); err != nil {
		logger.Fatalf("Failed to start ZeroMQ service: %v", err)
	}
	listener.Start()

	// The waypoint driver owns the control loop.
	waypoints := make([]nav.Waypoint, len(mission.Waypoints))
	for i, wp := range mission.Waypoints {
		waypoints[i] = nav.Waypoint{X: wp.X, Y: wp.Y}
	}

	driver, err := nav.NewWaypointDriver(nav.DriverConfig{
		Waypoints:    waypoints,
		Tolerance:    mission.Navigation.WaypointTolerance,
		TickInterval: mission.Navigation.TickInterval(),
		Detector:     detector,
		Analyzer:     analyzer,
		Policy:       policy,
		Poses:        poses,
		Scans:        scans,
		Sink:         publisher,
		Logger:       logger,
		OnStatus:     telemetryService.Record,
	})
	if err != nil {
		logger.Fatalf("Failed to create waypoint driver: %v", err)
	}

	driverCtx, stopDriver := context.WithCancel(context.Background())
	driverDone := make(chan error, 1)
	go func() {
		driverDone <- driver.Run(driverCtx)
	}()

	// HTTP API.
	app := fiber.New(fiber.Config{
		AppName:      "Open-Rover Navigator",
		ErrorHandler: customErrorHandler,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "open-rover navigator",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	api.RegisterStatusRoutes(app, telemetryService, registry, pump, missionService, logger)
	api.RegisterMissionRoutes(app, missionService, logger)
	app.Get("/api/v1/telemetry", telemetryService.GetStatusHandler)

	// WebSocket telemetry stream.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/telemetry", websocket.New(func(conn *websocket.Conn) {
		api.TelemetryWebSocketHandler(conn, logger, telemetryService)
	}))

	port := cfg.Server.HTTPPort
	if port == 0 {
		port = 8080
	}

	go func() {
		logger.Infof("HTTP server starting on port %d", port)
		if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Shutdown signal received, stopping navigator")

	// Driver first so the final stop command still has a live publisher.
	stopDriver()
	if err := <-driverDone; err != nil && err != context.Canceled {
		logger.Errorf("Driver stopped with error: %v", err)
	}

	// Feed intake next. The listener shares the ZeroMQ context, so it must
	// close before the service terminates that context.
	listener.Stop()
	pump.Stop()
	zmqService.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorf("HTTP server forced to shutdown: %v", err)
	}

	logger.Infof("Navigator exited properly")
}

// sectorRange converts a validated [start, end) pair from the mission config.
func sectorRange(pair []int) nav.SectorRange {
	return nav.SectorRange{Start: pair[0], End: pair[1]}
}

// commandTopic returns the rover topic velocity commands are published on,
// taken from the mission's outbound Twist mapping.
func commandTopic(mission *config.MissionConfig) string {
	for _, mapping := range mission.GetTopicMappingsByDirection(config.DirectionOutbound) {
		if mapping.MessageType == rosmsg.TypeTwist {
			return mapping.RoverTopic
		}
	}
	return "rover.control.velocity"
}

// customErrorHandler renders every unhandled route error as JSON.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
