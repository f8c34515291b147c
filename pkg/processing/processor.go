package processing

import (
	"fmt"

	customlog "github.com/open-rover/navigator/pkg/log"
	"github.com/open-rover/navigator/pkg/nav"
	"github.com/open-rover/navigator/pkg/rosmsg"
)

// FeedProcessor decodes inbound samples and applies them to the navigation
// state cells. Pose payloads land in the pose tracker, scan payloads replace
// the range scan buffer. Decode failures are counted against the topic and
// returned; the pump logs them and keeps running.
type FeedProcessor struct {
	logger   customlog.Logger
	registry *FeedRegistry
	poses    *nav.PoseTracker
	scans    *nav.RangeScanBuffer
}

// NewFeedProcessor creates a new feed processor
func NewFeedProcessor(
	logger customlog.Logger,
	registry *FeedRegistry,
	poses *nav.PoseTracker,
	scans *nav.RangeScanBuffer,
) *FeedProcessor {
	return &FeedProcessor{
		logger:   logger,
		registry: registry,
		poses:    poses,
		scans:    scans,
	}
}

// Process decodes one sample and applies it to the matching state cell.
func (p *FeedProcessor) Process(sample InboundSample) error {
	// Get the message type from the feed registry
	messageType, exists := p.registry.GetMessageType(sample.Topic)
	if !exists {
		p.registry.RecordError(sample.Topic)
		return fmt.Errorf("unknown message type for topic '%s'", sample.Topic)
	}

	if len(sample.Payload) == 0 {
		p.registry.RecordError(sample.Topic)
		return fmt.Errorf("empty payload for topic '%s'", sample.Topic)
	}

	p.logger.Debugf("Processing sample for topic '%s' (type: %s, %d bytes)",
		sample.Topic, messageType, len(sample.Payload))

	switch messageType {
	case rosmsg.TypeOdometry, rosmsg.TypePose:
		pose, err := rosmsg.DecodePose(messageType, sample.Payload)
		if err != nil {
			p.registry.RecordError(sample.Topic)
			return fmt.Errorf("failed to decode pose for topic '%s': %w", sample.Topic, err)
		}
		p.poses.Update(nav.Pose{
			X:       pose.Position.X,
			Y:       pose.Position.Y,
			Heading: rosmsg.Yaw(pose.Orientation),
		})

	case rosmsg.TypeLaserScan:
		scan, err := rosmsg.DecodeLaserScan(sample.Payload)
		if err != nil {
			p.registry.RecordError(sample.Topic)
			return fmt.Errorf("failed to decode laser scan for topic '%s': %w", sample.Topic, err)
		}
		// An empty ranges list is stored as-is; the driver treats a scan
		// buffer with no samples as a reason to defer, not an error.
		p.scans.Update(scan.Ranges)

	default:
		p.registry.RecordError(sample.Topic)
		return fmt.Errorf("unsupported message type '%s' for topic '%s'", messageType, sample.Topic)
	}

	p.registry.RecordReceived(sample.Topic, sample.TimestampNs)
	return nil
}

// CreateProcessorFunc creates a SampleProcessor that can be used with the FeedPump
func (p *FeedProcessor) CreateProcessorFunc() SampleProcessor {
	return func(sample InboundSample) error {
		return p.Process(sample)
	}
}
