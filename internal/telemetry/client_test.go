package telemetry

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/posthog/posthog-go"
)

// mockEnqueuer captures events for testing.
type mockEnqueuer struct {
	mu     sync.Mutex
	events []posthog.Capture
	closed bool
}

func (m *mockEnqueuer) Enqueue(msg posthog.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if capture, ok := msg.(posthog.Capture); ok {
		m.events = append(m.events, capture)
	}
	return nil
}

func (m *mockEnqueuer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockEnqueuer) getEvents() []posthog.Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]posthog.Capture, len(m.events))
	copy(result, m.events)
	return result
}

func (m *mockEnqueuer) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func newTestClient(cfg *Config, version string) (*PostHogClient, *mockEnqueuer) {
	mock := &mockEnqueuer{}
	client := newPostHogClientWithEnqueuer(mock, cfg, version)
	return client, mock
}

func TestPostHogClient_Track_WhenEnabled(t *testing.T) {
	cfg := &Config{
		Enabled:   true,
		InstallID: "install-id-123",
	}

	client, mock := newTestClient(cfg, "1.2.3")

	client.Track(EventAgentDispatched, Properties{
		"agent_abbr": "EIC",
		"kind":       "created",
	})

	events := mock.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.Event != EventAgentDispatched {
		t.Errorf("event name = %q, want %q", event.Event, EventAgentDispatched)
	}
	if event.DistinctId != "install-id-123" {
		t.Errorf("distinct_id = %q, want %q", event.DistinctId, "install-id-123")
	}
	if event.Properties["agent_abbr"] != "EIC" {
		t.Errorf("agent_abbr = %v, want %q", event.Properties["agent_abbr"], "EIC")
	}
	if event.Properties["kind"] != "created" {
		t.Errorf("kind = %v, want %q", event.Properties["kind"], "created")
	}

	// Standard properties ride along on every event.
	if event.Properties["os"] != runtime.GOOS {
		t.Errorf("os = %v, want %q", event.Properties["os"], runtime.GOOS)
	}
	if event.Properties["arch"] != runtime.GOARCH {
		t.Errorf("arch = %v, want %q", event.Properties["arch"], runtime.GOARCH)
	}
	if event.Properties["orchestrator_version"] != "1.2.3" {
		t.Errorf("orchestrator_version = %v, want %q", event.Properties["orchestrator_version"], "1.2.3")
	}
}

func TestPostHogClient_Track_WhenDisabled(t *testing.T) {
	cfg := &Config{
		Enabled:   false,
		InstallID: "install-id-123",
	}

	client, mock := newTestClient(cfg, "1.2.3")

	client.Track(EventExecutionCompleted, Properties{
		"agent_abbr": "GDR",
		"status":     "PROCESSED",
	})

	if events := mock.getEvents(); len(events) != 0 {
		t.Errorf("expected 0 events when disabled, got %d", len(events))
	}
}

func TestPostHogClient_Track_NotInitialized(t *testing.T) {
	client := &PostHogClient{
		config:      &Config{Enabled: true},
		initialized: false,
	}

	// Must not panic with no underlying enqueuer.
	client.Track(EventOrchestratorStarted, nil)
}

func TestPostHogClient_Track_NilConfig(t *testing.T) {
	mock := &mockEnqueuer{}
	client := &PostHogClient{
		client:      mock,
		config:      nil,
		initialized: true,
	}

	client.Track(EventOrchestratorStarted, nil)

	if events := mock.getEvents(); len(events) != 0 {
		t.Errorf("expected 0 events with nil config, got %d", len(events))
	}
}

func TestPostHogClient_Track_NilProperties(t *testing.T) {
	cfg := &Config{
		Enabled:   true,
		InstallID: "install-id",
	}

	client, mock := newTestClient(cfg, "1.0.0")

	client.Track(EventOrchestratorStopped, nil)

	events := mock.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Properties["os"] != runtime.GOOS {
		t.Errorf("os should be set even with nil properties")
	}
}

func TestPostHogClient_Close(t *testing.T) {
	cfg := &Config{
		Enabled:   true,
		InstallID: "install-id",
	}

	client, mock := newTestClient(cfg, "1.0.0")

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !mock.isClosed() {
		t.Error("underlying client should be closed")
	}
}

func TestPostHogClient_Close_NotInitialized(t *testing.T) {
	client := &PostHogClient{
		initialized: false,
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNoopClient(t *testing.T) {
	client := NewNoopClient()

	client.Track(EventAgentDispatched, Properties{"agent_abbr": "EIC"})

	if err := client.Close(); err != nil {
		t.Errorf("NoopClient.Close() error = %v", err)
	}
}

func TestNewPostHogClient_EmptyAPIKey(t *testing.T) {
	client, err := NewPostHogClient(ClientConfig{
		APIKey:  "",
		Version: "1.0.0",
		Config:  &Config{Enabled: true},
	})

	if err != nil {
		t.Errorf("should not error with empty API key, got %v", err)
	}
	if client.initialized {
		t.Error("should not be initialized with empty API key")
	}

	// Track is a no-op, not a panic.
	client.Track(EventOrchestratorStarted, nil)
}

func TestNewPostHogClient_NilConfig(t *testing.T) {
	client, err := NewPostHogClient(ClientConfig{
		APIKey:  "test-key",
		Version: "1.0.0",
		Config:  nil,
	})

	if err != nil {
		t.Errorf("should not error with nil config, got %v", err)
	}
	if client.initialized {
		t.Error("should not be initialized with nil config")
	}
}

func TestPostHogClient_Track_Concurrent(t *testing.T) {
	cfg := &Config{
		Enabled:   true,
		InstallID: "install-id",
	}

	client, mock := newTestClient(cfg, "1.0.0")

	// Workers report completion concurrently; Track must tolerate that.
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			client.Track(EventExecutionCompleted, Properties{"iteration": n})
		}(i)
	}
	wg.Wait()

	if events := mock.getEvents(); len(events) != 100 {
		t.Errorf("expected 100 events, got %d", len(events))
	}
}

func TestPostHogClient_Track_ReturnsImmediately(t *testing.T) {
	cfg := &Config{
		Enabled:   true,
		InstallID: "install-id",
	}

	client, _ := newTestClient(cfg, "1.0.0")

	// Track sits on the coordinator's dispatch path and must never block.
	done := make(chan bool, 1)
	go func() {
		client.Track(EventAgentDispatched, nil)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("Track() should return immediately (within 100ms)")
	}
}
