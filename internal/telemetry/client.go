package telemetry

import (
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/posthog/posthog-go"
)

// Client is the interface the orchestrator core tracks events through.
// Core never branches on whether telemetry is active — a disabled or
// unconfigured setup is represented by NoopClient, not by nil checks.
type Client interface {
	// Track sends an event asynchronously and returns immediately. A
	// no-op when telemetry is disabled.
	Track(event string, properties map[string]any)

	// Close flushes pending events and releases the client. Called once
	// during orchestrator shutdown.
	Close() error
}

// Properties is a type alias for event properties.
type Properties = map[string]any

// enqueuer is the slice of the PostHog client this package uses, split out
// so tests can capture enqueued events without a network.
type enqueuer interface {
	io.Closer
	Enqueue(msg posthog.Message) error
}

// PostHogClient ships lifecycle events to PostHog in the background.
type PostHogClient struct {
	client      enqueuer
	config      *Config
	version     string
	mu          sync.RWMutex
	initialized bool
}

// ClientConfig holds everything needed to initialize the telemetry client.
type ClientConfig struct {
	// APIKey is the PostHog project API key, loaded from secrets.yaml.
	APIKey string

	// Version is the orchestrator build version.
	Version string

	// Config is the local telemetry state (enabled flag, install ID).
	Config *Config

	// Endpoint optionally points at a self-hosted PostHog instance.
	Endpoint string
}

// NewPostHogClient creates the PostHog-backed client. With no API key or
// no Config it returns an inert client whose Track is a no-op, so callers
// can always construct one unconditionally.
func NewPostHogClient(cfg ClientConfig) (*PostHogClient, error) {
	if cfg.APIKey == "" || cfg.Config == nil {
		return &PostHogClient{
			config:      cfg.Config,
			version:     cfg.Version,
			initialized: false,
		}, nil
	}

	phConfig := posthog.Config{
		// The orchestrator is a long-running daemon, not a short-lived
		// CLI: a larger batch and a relaxed flush interval keep the
		// telemetry path quiet during dispatch bursts.
		BatchSize: 20,
		Interval:  10 * time.Second,
		// Transport warnings must never land in the orchestrator's own
		// structured log stream.
		Logger: quietPostHogLogger{},
	}
	if cfg.Endpoint != "" {
		phConfig.Endpoint = cfg.Endpoint
	}

	client, err := posthog.NewWithConfig(cfg.APIKey, phConfig)
	if err != nil {
		return nil, err
	}

	return &PostHogClient{
		client:      client,
		config:      cfg.Config,
		version:     cfg.Version,
		initialized: true,
	}, nil
}

// newPostHogClientWithEnqueuer creates a client with a custom enqueuer (for testing).
func newPostHogClientWithEnqueuer(enq enqueuer, cfg *Config, version string) *PostHogClient {
	return &PostHogClient{
		client:      enq,
		config:      cfg,
		version:     version,
		initialized: true,
	}
}

// Track implements Client. The distinct ID is always the anonymous install
// ID; person-profile processing is disabled so no user profile ever forms
// on the PostHog side.
func (c *PostHogClient) Track(event string, properties map[string]any) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.initialized || c.config == nil || !c.config.IsEnabled() {
		return
	}

	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}
	props.Set("os", runtime.GOOS)
	props.Set("arch", runtime.GOARCH)
	props.Set("orchestrator_version", c.version)
	props.Set("$process_person_profile", false)

	_ = c.client.Enqueue(posthog.Capture{
		DistinctId: c.config.InstallID,
		Event:      event,
		Properties: props,
	})
}

// Close implements Client, flushing the PostHog queue.
func (c *PostHogClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// NoopClient is the Client used whenever telemetry is disabled or
// unconfigured.
type NoopClient struct{}

// Track is a no-op.
func (c *NoopClient) Track(event string, properties map[string]any) {}

// Close is a no-op.
func (c *NoopClient) Close() error { return nil }

// NewNoopClient returns a client that does nothing.
func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

// quietPostHogLogger suppresses the PostHog SDK's own logging.
type quietPostHogLogger struct{}

func (quietPostHogLogger) Debugf(string, ...interface{}) {}
func (quietPostHogLogger) Logf(string, ...interface{})   {}
func (quietPostHogLogger) Warnf(string, ...interface{})  {}
func (quietPostHogLogger) Errorf(string, ...interface{}) {}
