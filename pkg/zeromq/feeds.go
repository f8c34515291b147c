package zeromq

import (
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/open-rover/navigator/pkg/config"
	customlog "github.com/open-rover/navigator/pkg/log"
	"github.com/open-rover/navigator/pkg/processing"
)

// FeedListener receives sensor frames from the rover bridge over a SUB
// socket and enqueues them into the feed pump. The navigator is the stable
// endpoint, so the listener binds and bridges connect.
type FeedListener struct {
	socket  *zmq4.Socket
	poller  *zmq4.Poller
	pump    *processing.FeedPump
	logger  customlog.Logger
	running bool
	wg      sync.WaitGroup
}

// NewFeedListener creates a feed listener subscribed to the given rover
// topics. The socket shares the service context so shutdown is coordinated;
// stop the listener before stopping the service.
func NewFeedListener(
	ctx *zmq4.Context,
	cfg *config.BootstrapConfig,
	topics []string,
	pump *processing.FeedPump,
	logger customlog.Logger,
) (*FeedListener, error) {
	socket, err := ctx.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	if err := socket.Bind(cfg.ZeroMQ.FeedBindAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", cfg.ZeroMQ.FeedBindAddress, err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	for _, topic := range topics {
		if err := socket.SetSubscribe(topic); err != nil {
			socket.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("Feed listener initialized on %s (%d topics)", cfg.ZeroMQ.FeedBindAddress, len(topics))

	return &FeedListener{
		socket: socket,
		poller: poller,
		pump:   pump,
		logger: logger,
	}, nil
}

// Start begins the feed receiving loop
func (l *FeedListener) Start() {
	if l.running {
		return
	}

	l.running = true
	l.wg.Add(1)
	go l.receiveLoop()
}

// Stop halts the feed receiving loop and closes the socket
func (l *FeedListener) Stop() {
	if !l.running {
		return
	}
	l.running = false
	if l.socket != nil {
		l.logger.Infof("Feed listener: closing socket to interrupt blocking calls")
		l.socket.Close()
	}
	l.wg.Wait()
}

// receiveLoop continuously receives feed frames and enqueues them
func (l *FeedListener) receiveLoop() {
	defer l.wg.Done()

	l.logger.Infof("Feed listener started")

	for l.running {
		// Poll with timeout so Stop is noticed promptly
		sockets, err := l.poller.Poll(500 * time.Millisecond)
		if err != nil {
			if l.running {
				l.logger.Errorf("Error polling feed socket: %v", err)
			}
			continue
		}

		if len(sockets) == 0 {
			continue
		}

		frames, err := l.socket.RecvMessageBytes(0)
		if err != nil {
			if l.running {
				l.logger.Errorf("Error receiving feed frame: %v", err)
			}
			continue
		}

		l.handleFrames(frames)
	}

	l.logger.Infof("Feed listener stopped")
}

// handleFrames decodes one received message and hands it to the pump.
// Bridges publish two frames per sample (topic, then envelope); a single
// frame is treated as a bare envelope.
func (l *FeedListener) handleFrames(frames [][]byte) {
	var data []byte
	switch len(frames) {
	case 1:
		data = frames[0]
	case 2:
		data = frames[1]
	default:
		l.logger.Warnf("Dropping feed message with %d frames", len(frames))
		return
	}

	env, err := DecodeEnvelope(data)
	if err != nil {
		l.logger.Errorf("Error decoding feed envelope: %v", err)
		return
	}

	l.pump.Enqueue(processing.InboundSample{
		Topic:       env.Topic,
		TimestampNs: env.TimestampNs,
		Payload:     env.Payload,
	})
}
