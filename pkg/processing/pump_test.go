package processing

import (
	"fmt"
	"sync"
	"testing"

	customlog "github.com/open-rover/navigator/pkg/log"
)

// testLogger discards all output. Pump and processor tests assert on state,
// not log lines.
type testLogger struct{}

func (testLogger) Debugf(format string, args ...interface{}) {}
func (testLogger) Infof(format string, args ...interface{})  {}
func (testLogger) Warnf(format string, args ...interface{})  {}
func (testLogger) Errorf(format string, args ...interface{}) {}
func (testLogger) Fatalf(format string, args ...interface{}) {}
func (l testLogger) WithFields(fields map[string]interface{}) customlog.Logger {
	return l
}

func TestFeedPumpRejectsWhenStopped(t *testing.T) {
	pump := NewFeedPump("test", 4, testLogger{})

	if pump.Enqueue(InboundSample{Topic: "rover.state.pose"}) {
		t.Errorf("Expected enqueue to be rejected before Start")
	}

	metrics := pump.GetMetrics()
	if metrics.ReceivedCount != 0 {
		t.Errorf("Expected received count 0, got %d", metrics.ReceivedCount)
	}
}

func TestFeedPumpProcessesInArrivalOrder(t *testing.T) {
	pump := NewFeedPump("test", 8, testLogger{})

	var mu sync.Mutex
	var got []string
	pump.SetProcessor(func(sample InboundSample) error {
		mu.Lock()
		got = append(got, sample.Topic)
		mu.Unlock()
		return nil
	})

	pump.Start()
	for i := 0; i < 5; i++ {
		if !pump.Enqueue(InboundSample{Topic: fmt.Sprintf("topic-%d", i)}) {
			t.Fatalf("Expected enqueue %d to be accepted", i)
		}
	}
	// Stop closes the queue and waits for the worker to drain it.
	pump.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 5 {
		t.Fatalf("Expected 5 processed samples, got %d", len(got))
	}
	for i, topic := range got {
		expected := fmt.Sprintf("topic-%d", i)
		if topic != expected {
			t.Errorf("Expected sample %d to be %s, got %s", i, expected, topic)
		}
	}

	metrics := pump.GetMetrics()
	if metrics.ProcessedCount != 5 {
		t.Errorf("Expected processed count 5, got %d", metrics.ProcessedCount)
	}
	if metrics.DroppedCount != 0 {
		t.Errorf("Expected dropped count 0, got %d", metrics.DroppedCount)
	}
}

func TestFeedPumpDropsWhenQueueFull(t *testing.T) {
	pump := NewFeedPump("test", 1, testLogger{})

	entered := make(chan struct{})
	release := make(chan struct{})
	pump.SetProcessor(func(sample InboundSample) error {
		entered <- struct{}{}
		<-release
		return nil
	})

	pump.Start()

	// The first sample occupies the worker.
	if !pump.Enqueue(InboundSample{Topic: "a"}) {
		t.Fatalf("Expected first sample to be accepted")
	}
	<-entered

	// The second fills the queue, the third has nowhere to go.
	if !pump.Enqueue(InboundSample{Topic: "b"}) {
		t.Fatalf("Expected second sample to be queued")
	}
	if pump.Enqueue(InboundSample{Topic: "c"}) {
		t.Errorf("Expected third sample to be dropped")
	}

	close(release)
	<-entered // worker picks up the queued sample
	pump.Stop()

	metrics := pump.GetMetrics()
	if metrics.ReceivedCount != 3 {
		t.Errorf("Expected received count 3, got %d", metrics.ReceivedCount)
	}
	if metrics.DroppedCount != 1 {
		t.Errorf("Expected dropped count 1, got %d", metrics.DroppedCount)
	}
	if metrics.ProcessedCount != 2 {
		t.Errorf("Expected processed count 2, got %d", metrics.ProcessedCount)
	}
}

func TestFeedPumpCountsProcessorErrors(t *testing.T) {
	pump := NewFeedPump("test", 4, testLogger{})
	pump.SetProcessor(func(sample InboundSample) error {
		if sample.Topic == "bad" {
			return fmt.Errorf("decode failed")
		}
		return nil
	})

	pump.Start()
	pump.Enqueue(InboundSample{Topic: "good"})
	pump.Enqueue(InboundSample{Topic: "bad"})
	pump.Enqueue(InboundSample{Topic: "good"})
	pump.Stop()

	metrics := pump.GetMetrics()
	if metrics.ProcessedCount != 3 {
		t.Errorf("Expected processed count 3, got %d", metrics.ProcessedCount)
	}
	if metrics.ErrorCount != 1 {
		t.Errorf("Expected error count 1, got %d", metrics.ErrorCount)
	}
}
