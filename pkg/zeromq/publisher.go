package zeromq

import (
	"fmt"
	"time"

	message "github.com/open-rover/navigator/pkg/flatbuffers/open_rover/message"
	customlog "github.com/open-rover/navigator/pkg/log"
	"github.com/open-rover/navigator/pkg/nav"
	"github.com/open-rover/navigator/pkg/rosmsg"
)

// MissionEventTopic carries mission lifecycle notifications to subscribed
// operator consoles.
const MissionEventTopic = "rover.mission.event"

// CommandPublisher publishes velocity commands and mission events through
// the service's PUB socket. It is the driver's command sink.
type CommandPublisher struct {
	service      *ZeroMQService
	commandTopic string
	logger       customlog.Logger
}

// NewCommandPublisher creates a publisher for the given command topic,
// normally the rover.control.velocity mapping from the mission config.
func NewCommandPublisher(service *ZeroMQService, commandTopic string, logger customlog.Logger) *CommandPublisher {
	return &CommandPublisher{
		service:      service,
		commandTopic: commandTopic,
		logger:       logger,
	}
}

// PublishVelocity wraps a velocity command in a Twist payload and a
// JSON_COMMAND envelope and publishes it on the command topic.
func (p *CommandPublisher) PublishVelocity(cmd nav.VelocityCommand) error {
	twist := rosmsg.Twist{
		Linear:  rosmsg.Vector3{X: cmd.Linear},
		Angular: rosmsg.Vector3{Z: cmd.Angular},
	}

	payload, err := rosmsg.EncodeTwist(twist)
	if err != nil {
		return fmt.Errorf("failed to encode velocity command: %w", err)
	}

	envelope := BuildEnvelope(p.commandTopic, message.ContentTypeJSON_COMMAND, time.Now().UnixNano(), payload)

	p.logger.Debugf("Publishing velocity command linear=%.2f angular=%.2f", cmd.Linear, cmd.Angular)
	return p.service.PublishMessage(p.commandTopic, envelope)
}

// PublishMissionEvent broadcasts a mission lifecycle notification, such as a
// staged mission update.
func (p *CommandPublisher) PublishMissionEvent(eventType string, data interface{}) error {
	p.logger.Infof("Publishing mission event %s", eventType)
	return p.service.PublishJSON(MissionEventTopic, eventType, data)
}
