package processing

import (
	"sync"

	"github.com/open-rover/navigator/pkg/config"
	customlog "github.com/open-rover/navigator/pkg/log"
)

// FeedInfo holds metadata and counters for one rover bridge topic.
type FeedInfo struct {
	RoverTopic    string
	RosTopic      string
	MessageType   string
	Priority      string
	Direction     string
	ReceivedCount int64
	ErrorCount    int64
	LastReceived  int64
}

// FeedRegistry maintains information about the topics the navigator exchanges
// with the rover bridge.
type FeedRegistry struct {
	logger customlog.Logger
	feeds  map[string]*FeedInfo
	mu     sync.RWMutex
}

// NewFeedRegistry creates a new feed registry
func NewFeedRegistry(logger customlog.Logger) *FeedRegistry {
	return &FeedRegistry{
		logger: logger,
		feeds:  make(map[string]*FeedInfo),
		mu:     sync.RWMutex{},
	}
}

// LoadFromMission loads topic information from the mission config
func (r *FeedRegistry) LoadFromMission(mission *config.MissionConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Clear existing feeds
	r.feeds = make(map[string]*FeedInfo)

	for _, mapping := range mission.TopicMappings {
		priority := mapping.Priority
		if priority == "" {
			priority = mission.Defaults.Priority
		}
		direction := mapping.Direction
		if direction == "" {
			direction = mission.Defaults.Direction
		}

		r.feeds[mapping.RoverTopic] = &FeedInfo{
			RoverTopic:  mapping.RoverTopic,
			RosTopic:    mapping.RosTopic,
			MessageType: mapping.MessageType,
			Priority:    priority,
			Direction:   direction,
		}
	}

	r.logger.Infof("Loaded %d topics into feed registry", len(r.feeds))
}

// GetMessageType gets the ROS message type for a rover topic
func (r *FeedRegistry) GetMessageType(topic string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.feeds[topic]
	if !exists {
		return "", false
	}

	return info.MessageType, true
}

// GetFeedInfo gets information for a topic
func (r *FeedRegistry) GetFeedInfo(topic string) (*FeedInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.feeds[topic]
	if !exists {
		return nil, false
	}

	// Return a copy to avoid race conditions
	infoCopy := &FeedInfo{
		RoverTopic:    info.RoverTopic,
		RosTopic:      info.RosTopic,
		MessageType:   info.MessageType,
		Priority:      info.Priority,
		Direction:     info.Direction,
		ReceivedCount: info.ReceivedCount,
		ErrorCount:    info.ErrorCount,
		LastReceived:  info.LastReceived,
	}

	return infoCopy, true
}

// RecordReceived updates receive statistics for a topic
func (r *FeedRegistry) RecordReceived(topic string, timestamp int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.feeds[topic]
	if !exists {
		// Track topics that arrive without a mapping so they show up in stats
		info = &FeedInfo{
			RoverTopic: topic,
			Direction:  config.DirectionInbound,
		}
		r.feeds[topic] = info
	}

	info.ReceivedCount++
	info.LastReceived = timestamp
}

// RecordError increments the error counter for a topic
func (r *FeedRegistry) RecordError(topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.feeds[topic]
	if !exists {
		info = &FeedInfo{
			RoverTopic: topic,
			Direction:  config.DirectionInbound,
		}
		r.feeds[topic] = info
	}

	info.ErrorCount++
}

// InboundTopics returns the rover topics the navigator subscribes to
func (r *FeedRegistry) InboundTopics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.feeds))
	for topic, info := range r.feeds {
		if info.Direction == config.DirectionInbound {
			topics = append(topics, topic)
		}
	}

	return topics
}

// GetAllTopics returns a list of all registered topics
func (r *FeedRegistry) GetAllTopics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.feeds))
	for topic := range r.feeds {
		topics = append(topics, topic)
	}

	return topics
}

// GetFeedStats returns a map of per-topic statistics
func (r *FeedRegistry) GetFeedStats() map[string]map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]map[string]interface{})

	for topic, info := range r.feeds {
		stats[topic] = map[string]interface{}{
			"received":      info.ReceivedCount,
			"errors":        info.ErrorCount,
			"last_received": info.LastReceived,
			"type":          info.MessageType,
			"priority":      info.Priority,
			"direction":     info.Direction,
		}
	}

	return stats
}
