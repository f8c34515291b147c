package telemetry

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/open-rover/navigator/pkg/nav"
)

// subscriberBuffer is the per-client frame buffer. A subscriber that falls
// this far behind starts losing frames.
const subscriberBuffer = 16

// TelemetryService keeps the latest driver status frame and fans new frames
// out to subscribed consumers. The driver reports a frame after every
// control tick, so the service always reflects the most recent decision.
type TelemetryService struct {
	mu          sync.RWMutex
	latest      nav.Status
	known       bool
	subscribers map[string]chan nav.Status
}

// NewTelemetryService creates a new telemetry service instance
func NewTelemetryService() *TelemetryService {
	return &TelemetryService{
		subscribers: make(map[string]chan nav.Status),
	}
}

// Record stores a status frame and fans it out to subscribers. Delivery is
// non-blocking: a slow subscriber loses frames rather than stalling the
// control loop.
func (s *TelemetryService) Record(status nav.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = status
	s.known = true

	for _, ch := range s.subscribers {
		select {
		case ch <- status:
		default:
			// Subscriber buffer full, frame dropped
		}
	}
}

// Latest returns the most recent status frame and whether any frame has been
// recorded yet.
func (s *TelemetryService) Latest() (nav.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest, s.known
}

// Subscribe registers a new status stream and returns its id along with the
// frame channel. Pass the id to Unsubscribe when the consumer goes away.
func (s *TelemetryService) Subscribe() (string, <-chan nav.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan nav.Status, subscriberBuffer)
	s.subscribers[id] = ch

	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *TelemetryService) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, exists := s.subscribers[id]
	if !exists {
		return
	}

	delete(s.subscribers, id)
	close(ch)
}

// SubscriberCount returns the number of attached status streams.
func (s *TelemetryService) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.subscribers)
}

// GetStatusHandler handles API requests for the latest driver status frame
func (s *TelemetryService) GetStatusHandler(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.known {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "pending",
			"detail": "no status frame recorded yet",
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"driver": s.latest,
	})
}
