package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/open-rover/navigator/pkg/config"
	customlog "github.com/open-rover/navigator/pkg/log"
)

// Common errors
var (
	ErrServiceClosed      = errors.New("zeromq service is closed")
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Message types on the request socket
const (
	MsgTypeStatusRequest   = "STATUS_REQUEST"
	MsgTypeStatusResponse  = "STATUS_RESPONSE"
	MsgTypeMissionRequest  = "MISSION_REQUEST"
	MsgTypeMissionResponse = "MISSION_RESPONSE"
	MsgTypeError           = "ERROR"
)

// ZeroMQMessage represents a generic message structure for request/response
// and notification traffic. Sensor feeds use the binary envelope instead.
type ZeroMQMessage struct {
	Type      string      `json:"type"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// ErrorResponse represents an error response message
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MessageHandler defines the interface for handlers that process specific message types
type MessageHandler interface {
	HandleMessage(data []byte) ([]byte, error)
}

// HandlerFunc is a function type that implements MessageHandler
type HandlerFunc func(data []byte) ([]byte, error)

// HandleMessage calls the function
func (f HandlerFunc) HandleMessage(data []byte) ([]byte, error) {
	return f(data)
}

// MessageReceiver handles receiving requests from a ZeroMQ REP socket
type MessageReceiver struct {
	socket     *zmq4.Socket
	dispatcher *MessageDispatcher
	poller     *zmq4.Poller
	logger     customlog.Logger
	running    bool
	wg         *sync.WaitGroup
}

// newMessageReceiver creates a new MessageReceiver
func newMessageReceiver(ctx *zmq4.Context, cfg *config.BootstrapConfig, dispatcher *MessageDispatcher, logger customlog.Logger, wg *sync.WaitGroup) (*MessageReceiver, error) {
	// Create REP socket for receiving requests
	socket, err := ctx.NewSocket(zmq4.REP)
	if err != nil {
		return nil, fmt.Errorf("failed to create REP socket: %w", err)
	}

	// Bind to the address from config
	if err := socket.Bind(cfg.ZeroMQ.RequestBindAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", cfg.ZeroMQ.RequestBindAddress, err)
	}

	// Configure socket options
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	// Set receive and send timeouts to prevent indefinite blocking during shutdown
	const socketTimeout = 1 * time.Second
	if err := socket.SetRcvtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set receive timeout: %w", err)
	}
	if err := socket.SetSndtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set send timeout: %w", err)
	}

	// Create poller for non-blocking receives
	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("MessageReceiver initialized on %s", cfg.ZeroMQ.RequestBindAddress)

	return &MessageReceiver{
		socket:     socket,
		dispatcher: dispatcher,
		poller:     poller,
		logger:     logger,
		running:    false,
		wg:         wg,
	}, nil
}

// Start begins the message receiving loop
func (r *MessageReceiver) Start() {
	if r.running {
		return
	}

	r.running = true
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		r.logger.Infof("MessageReceiver started")

		for r.running {
			// Poll for messages with timeout to allow for clean shutdown
			sockets, err := r.poller.Poll(500 * time.Millisecond)
			if err != nil {
				if r.running {
					r.logger.Errorf("Error polling socket: %v", err)
				}
				continue
			}

			if len(sockets) == 0 {
				// No messages, continue polling
				continue
			}

			// Receive message
			msg, err := r.socket.RecvBytes(0)
			if err != nil {
				if r.running {
					r.logger.Errorf("Error receiving message: %v", err)
				}
				continue
			}

			r.logger.Debugf("Received request (%d bytes)", len(msg))

			// Process message through dispatcher
			response, err := r.dispatcher.Dispatch(msg)
			if err != nil {
				r.logger.Errorf("Error dispatching message: %v", err)

				// Create and send error response
				errorResp := ZeroMQMessage{
					Type:      MsgTypeError,
					Timestamp: float64(time.Now().Unix()),
					Data: ErrorResponse{
						Message: err.Error(),
						Code:    500,
					},
				}

				errData, _ := json.Marshal(errorResp)
				if _, err := r.socket.SendBytes(errData, 0); err != nil && r.running {
					r.logger.Errorf("Error sending error response: %v", err)
				}
				continue
			}

			// Send response
			if _, err := r.socket.SendBytes(response, 0); err != nil && r.running {
				r.logger.Errorf("Error sending response: %v", err)
			}
		}
	}()
}

// Stop halts the message receiving loop
func (r *MessageReceiver) Stop() {
	if !r.running {
		return
	}
	r.running = false
	if r.socket != nil {
		r.logger.Infof("MessageReceiver: closing socket to interrupt blocking calls")
		r.socket.Close()
	}
}

// Close cleans up resources (socket might already be closed by Stop)
func (r *MessageReceiver) Close() {
	r.Stop()
	r.socket = nil
}

// MessageSender handles publishing messages to subscribed peers
type MessageSender struct {
	socket  *zmq4.Socket
	logger  customlog.Logger
	running bool
	mu      sync.Mutex
}

// newMessageSender creates a new MessageSender
func newMessageSender(ctx *zmq4.Context, cfg *config.BootstrapConfig, logger customlog.Logger) (*MessageSender, error) {
	// Create PUB socket for publishing messages
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	// Bind to the address from config
	pubAddress := cfg.ZeroMQ.PublishBindAddress
	if err := socket.Bind(pubAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", pubAddress, err)
	}

	// Configure socket options
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	logger.Infof("MessageSender initialized on %s", pubAddress)

	return &MessageSender{
		socket:  socket,
		logger:  logger,
		running: true,
		mu:      sync.Mutex{},
	}, nil
}

// PublishMessage sends a message with the given topic
func (s *MessageSender) PublishMessage(topic string, message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServiceClosed
	}

	// Send two frames in sequence (topic first, then message)
	_, err := s.socket.Send(topic, zmq4.SNDMORE)
	if err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}

	_, err = s.socket.SendBytes(message, 0)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// Close cleans up resources
func (s *MessageSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.socket != nil {
		s.socket.Close()
		s.socket = nil
	}
}

// MessageDispatcher routes request messages to the appropriate handlers
type MessageDispatcher struct {
	handlers map[string]MessageHandler
	logger   customlog.Logger
	mu       sync.RWMutex
}

// NewMessageDispatcher creates a new message dispatcher
func NewMessageDispatcher(logger customlog.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		handlers: make(map[string]MessageHandler),
		logger:   logger,
		mu:       sync.RWMutex{},
	}
}

// RegisterHandler adds a handler for a specific message type
func (d *MessageDispatcher) RegisterHandler(messageType string, handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[messageType] = handler
	d.logger.Infof("Registered handler for message type: %s", messageType)
}

// Dispatch parses a request and routes it to the handler registered for its
// type. The full raw message is passed through so handlers can decode the
// data section themselves.
func (d *MessageDispatcher) Dispatch(data []byte) ([]byte, error) {
	var msg ZeroMQMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	d.logger.Debugf("Dispatching message of type: %s", msg.Type)
	d.mu.RLock()
	handler, exists := d.handlers[msg.Type]
	d.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}

	return handler.HandleMessage(data)
}

// ZeroMQService coordinates ZeroMQ communications for the navigator
type ZeroMQService struct {
	config     *config.BootstrapConfig
	ctx        *zmq4.Context
	receiver   *MessageReceiver
	sender     *MessageSender
	dispatcher *MessageDispatcher
	logger     customlog.Logger
	running    bool
	wg         *sync.WaitGroup
}

// NewZeroMQService creates a new ZeroMQ service
func NewZeroMQService(cfg *config.BootstrapConfig, logger customlog.Logger) (*ZeroMQService, error) {
	// Create ZeroMQ context
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	// Create components
	dispatcher := NewMessageDispatcher(logger)

	// Wait group shared with the receiver goroutine for clean shutdown
	wg := &sync.WaitGroup{}

	// Create receiver
	receiver, err := newMessageReceiver(ctx, cfg, dispatcher, logger, wg)
	if err != nil {
		ctx.Term()
		return nil, err
	}

	// Create sender
	sender, err := newMessageSender(ctx, cfg, logger)
	if err != nil {
		receiver.Close()
		ctx.Term()
		return nil, err
	}

	return &ZeroMQService{
		config:     cfg,
		ctx:        ctx,
		receiver:   receiver,
		sender:     sender,
		dispatcher: dispatcher,
		logger:     logger,
		running:    false,
		wg:         wg,
	}, nil
}

// Context exposes the service's ZeroMQ context so sibling sockets (the feed
// listener) share it and terminate together.
func (s *ZeroMQService) Context() *zmq4.Context {
	return s.ctx
}

// RegisterHandler adds a handler for a specific message type
func (s *ZeroMQService) RegisterHandler(messageType string, handler MessageHandler) {
	s.dispatcher.RegisterHandler(messageType, handler)
}

// RegisterHandlerFunc adds a handler function for a specific message type
func (s *ZeroMQService) RegisterHandlerFunc(messageType string, handler func([]byte) ([]byte, error)) {
	s.dispatcher.RegisterHandler(messageType, HandlerFunc(handler))
}

// Start begins the ZeroMQ service
func (s *ZeroMQService) Start() error {
	if s.running {
		return nil
	}

	s.running = true
	s.logger.Infof("Starting ZeroMQ service")

	// Start the receiver
	s.receiver.Start()

	return nil
}

// Stop halts the ZeroMQ service
func (s *ZeroMQService) Stop() {
	if !s.running {
		return
	}

	s.logger.Infof("Stopping ZeroMQ service")
	s.running = false

	// Stop the receiver, which also closes its socket
	s.receiver.Stop()

	// Close the sender
	s.sender.Close()

	// Wait for goroutines to finish
	s.wg.Wait()

	// Clean up ZeroMQ context
	if s.ctx != nil {
		s.ctx.Term()
		s.ctx = nil
	}

	s.logger.Infof("ZeroMQ service stopped")
}

// PublishMessage sends a message with the given topic
func (s *ZeroMQService) PublishMessage(topic string, message []byte) error {
	if !s.running {
		return ErrServiceClosed
	}
	return s.sender.PublishMessage(topic, message)
}

// PublishJSON publishes a JSON-serializable message with the given topic
func (s *ZeroMQService) PublishJSON(topic string, messageType string, data interface{}) error {
	msg := ZeroMQMessage{
		Type:      messageType,
		Timestamp: float64(time.Now().Unix()),
		Data:      data,
	}

	msgData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return s.PublishMessage(topic, msgData)
}
