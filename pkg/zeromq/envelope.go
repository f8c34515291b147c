package zeromq

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	message "github.com/open-rover/navigator/pkg/flatbuffers/open_rover/message"
)

// EnvelopeVersion is the wire format revision stamped on outgoing frames.
const EnvelopeVersion uint16 = 1

// Envelope is the decoded form of a RoverMessage frame.
type Envelope struct {
	Topic       string
	TimestampNs int64
	ContentType message.ContentType
	Payload     []byte
	Version     uint16
}

// BuildEnvelope serializes a RoverMessage frame around the given payload.
func BuildEnvelope(topic string, contentType message.ContentType, timestampNs int64, payload []byte) []byte {
	builder := flatbuffers.NewBuilder(1024)

	topicOffset := builder.CreateString(topic)
	payloadOffset := builder.CreateByteVector(payload)

	message.RoverMessageStart(builder)
	message.RoverMessageAddTopic(builder, topicOffset)
	message.RoverMessageAddTimestampNs(builder, timestampNs)
	message.RoverMessageAddContentType(builder, contentType)
	message.RoverMessageAddPayload(builder, payloadOffset)
	message.RoverMessageAddVersion(builder, EnvelopeVersion)
	offset := message.RoverMessageEnd(builder)

	builder.Finish(offset)
	return builder.FinishedBytes()
}

// DecodeEnvelope parses a RoverMessage frame. The payload is copied out so
// the caller owns it independently of the receive buffer. A malformed frame
// from a misbehaving bridge must not take the process down, so the
// flatbuffer accessors run under a recover.
func DecodeEnvelope(data []byte) (env Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			env = Envelope{}
			err = fmt.Errorf("%w: malformed envelope: %v", ErrInvalidMessage, r)
		}
	}()

	if len(data) == 0 {
		return Envelope{}, fmt.Errorf("%w: empty envelope", ErrInvalidMessage)
	}

	msg := message.GetRootAsRoverMessage(data, 0)

	payload := make([]byte, len(msg.PayloadBytes()))
	copy(payload, msg.PayloadBytes())

	return Envelope{
		Topic:       string(msg.Topic()),
		TimestampNs: msg.TimestampNs(),
		ContentType: msg.ContentType(),
		Payload:     payload,
		Version:     msg.Version(),
	}, nil
}
