package processing

import (
	"sync"
	"time"

	customlog "github.com/open-rover/navigator/pkg/log"
)

// InboundSample is one decoded envelope pulled off the feed socket, queued
// for processing. Payload is an owned copy; the receive buffer it came from
// may be reused as soon as the listener moves on.
type InboundSample struct {
	Topic       string
	TimestampNs int64
	Payload     []byte
}

// SampleProcessor consumes one sample dequeued by the pump worker.
type SampleProcessor func(sample InboundSample) error

// FeedPump is the buffered queue between the feed listener and the sensor
// state cells. It runs exactly one worker so samples land in arrival order;
// the state cells assume a single writer.
type FeedPump struct {
	name        string
	queueSize   int
	logger      customlog.Logger
	sampleQueue chan InboundSample
	running     bool
	wg          sync.WaitGroup
	mu          sync.Mutex
	processor   SampleProcessor
	metrics     *PumpMetrics
}

// PumpMetrics tracks counters for a feed pump
type PumpMetrics struct {
	ReceivedCount     int64
	ProcessedCount    int64
	DroppedCount      int64
	ErrorCount        int64
	LastProcessedTime int64
	ProcessingTimeAvg int64 // in microseconds
	ProcessingTimeMax int64 // in microseconds
	mu                sync.Mutex
}

// NewFeedPump creates a new feed pump
func NewFeedPump(name string, queueSize int, logger customlog.Logger) *FeedPump {
	return &FeedPump{
		name:        name,
		queueSize:   queueSize,
		logger:      logger,
		sampleQueue: make(chan InboundSample, queueSize),
		running:     false,
		wg:          sync.WaitGroup{},
		mu:          sync.Mutex{},
		metrics:     &PumpMetrics{mu: sync.Mutex{}},
	}
}

// SetProcessor sets the sample processor function
func (p *FeedPump) SetProcessor(processor SampleProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processor = processor
}

// Enqueue adds a sample to the queue for processing. The call never blocks:
// when the queue is full the sample is dropped and counted. Sensor feeds are
// fresher-is-better, so a stalled consumer must not back up the listener.
func (p *FeedPump) Enqueue(sample InboundSample) bool {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	if !running {
		p.logger.Warnf("%s pump not running, discarding sample", p.name)
		return false
	}

	// Update metrics
	p.metrics.mu.Lock()
	p.metrics.ReceivedCount++
	p.metrics.mu.Unlock()

	// Add sample to queue (non-blocking if queue is full)
	select {
	case p.sampleQueue <- sample:
		// Sample added to queue
		return true
	default:
		// Queue is full, count and discard
		p.metrics.mu.Lock()
		p.metrics.DroppedCount++
		p.metrics.mu.Unlock()

		p.logger.Warnf("%s pump queue is full, dropping sample for topic '%s'", p.name, sample.Topic)
		return false
	}
}

// Start starts the pump worker
func (p *FeedPump) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.running = true
	p.logger.Infof("Starting %s feed pump (queue capacity %d)", p.name, p.queueSize)

	// A single worker keeps sample application strictly in arrival order
	p.wg.Add(1)
	go p.worker()
}

// Stop stops the pump and drains the queue
func (p *FeedPump) Stop() {
	p.mu.Lock()

	if !p.running {
		p.mu.Unlock()
		return
	}

	p.running = false
	p.mu.Unlock() // Unlock before closing channel to avoid deadlock

	close(p.sampleQueue)

	p.logger.Infof("Stopping %s feed pump", p.name)

	// Wait for the worker to finish
	p.wg.Wait()
	p.logger.Infof("%s feed pump stopped", p.name)

	// Log final metrics
	p.logMetrics()
}

// worker processes samples from the queue
func (p *FeedPump) worker() {
	defer p.wg.Done()

	p.logger.Debugf("%s pump worker started", p.name)

	for sample := range p.sampleQueue {
		p.mu.Lock()
		processor := p.processor
		p.mu.Unlock()

		if processor == nil {
			p.logger.Errorf("No sample processor set for %s pump", p.name)
			continue
		}

		// Track processing time
		startTime := time.Now()

		err := processor(sample)

		processingTime := time.Since(startTime).Microseconds()

		// Update metrics
		p.metrics.mu.Lock()
		p.metrics.ProcessedCount++
		p.metrics.LastProcessedTime = time.Now().UnixNano()

		if p.metrics.ProcessingTimeAvg == 0 {
			p.metrics.ProcessingTimeAvg = processingTime
		} else {
			// Simple moving average
			p.metrics.ProcessingTimeAvg = (p.metrics.ProcessingTimeAvg + processingTime) / 2
		}

		if processingTime > p.metrics.ProcessingTimeMax {
			p.metrics.ProcessingTimeMax = processingTime
		}

		if err != nil {
			p.metrics.ErrorCount++
		}
		p.metrics.mu.Unlock()

		if err != nil {
			p.logger.Errorf("Error processing sample for topic '%s': %v", sample.Topic, err)
		}
	}

	p.logger.Debugf("%s pump worker stopped", p.name)
}

// GetMetrics returns a copy of the current metrics
func (p *FeedPump) GetMetrics() PumpMetrics {
	p.metrics.mu.Lock()
	defer p.metrics.mu.Unlock()

	return PumpMetrics{
		ReceivedCount:     p.metrics.ReceivedCount,
		ProcessedCount:    p.metrics.ProcessedCount,
		DroppedCount:      p.metrics.DroppedCount,
		ErrorCount:        p.metrics.ErrorCount,
		LastProcessedTime: p.metrics.LastProcessedTime,
		ProcessingTimeAvg: p.metrics.ProcessingTimeAvg,
		ProcessingTimeMax: p.metrics.ProcessingTimeMax,
	}
}

// logMetrics logs the current metrics
func (p *FeedPump) logMetrics() {
	metrics := p.GetMetrics()

	p.logger.Infof("%s pump metrics: received=%d, processed=%d, dropped=%d, errors=%d, avg_time=%dµs, max_time=%dµs",
		p.name, metrics.ReceivedCount, metrics.ProcessedCount, metrics.DroppedCount,
		metrics.ErrorCount, metrics.ProcessingTimeAvg, metrics.ProcessingTimeMax)
}

// GetName returns the pump name
func (p *FeedPump) GetName() string {
	return p.name
}

// GetQueueLength returns the current length of the sample queue
func (p *FeedPump) GetQueueLength() int {
	return len(p.sampleQueue)
}

// GetQueueCapacity returns the capacity of the sample queue
func (p *FeedPump) GetQueueCapacity() int {
	return p.queueSize
}
