package api

import (
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"

	"github.com/open-rover/navigator/domain/telemetry"
	customlog "github.com/open-rover/navigator/pkg/log"
)

// TelemetryWebSocketHandler streams driver status frames to one client until
// either side goes away. Each connection gets its own subscription; a slow
// client drops frames rather than stalling the driver.
func TelemetryWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, telemetryService *telemetry.TelemetryService) {
	logger.Infof("Telemetry WebSocket client connected: %s", conn.RemoteAddr())
	defer logger.Infof("Telemetry WebSocket client disconnected: %s", conn.RemoteAddr())

	id, frames := telemetryService.Subscribe()
	defer telemetryService.Unsubscribe(id)

	// The client sends nothing meaningful, but reading is the only way to
	// notice a closed connection while the driver is quiet between frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Errorf("Telemetry WebSocket read error: %v", err)
				}
				return
			}
		}
	}()

	// Push the latest frame right away so a new client does not have to
	// wait for the next control cycle.
	if status, known := telemetryService.Latest(); known {
		if err := conn.WriteJSON(status); err != nil {
			logWriteError(logger, err)
			return
		}
	}

	for {
		select {
		case status, ok := <-frames:
			if !ok {
				return
			}
			if err := conn.WriteJSON(status); err != nil {
				logWriteError(logger, err)
				return
			}
		case <-done:
			return
		}
	}
}

// logWriteError logs a failed frame write, quietly for the close conditions
// that every disconnect produces.
func logWriteError(logger customlog.Logger, err error) {
	if err == websocket.ErrCloseSent ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) {
		logger.Debugf("Telemetry WebSocket closed during write: %v", err)
		return
	}
	logger.Warnf("Telemetry WebSocket write failed: %v", err)
}
