package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ZapChannel writes alerts into the process log.
type ZapChannel struct {
	log  *zap.Logger
	name string
}

// NewZapChannel creates a log-backed channel.
func NewZapChannel(name string, log *zap.Logger) *ZapChannel {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapChannel{log: log, name: name}
}

// Send implements Channel.
func (c *ZapChannel) Send(alert Alert) error {
	fields := []zap.Field{
		zap.String("level", string(alert.Level)),
		zap.String("market", alert.Market),
		zap.Time("at", alert.Timestamp),
	}
	for k, v := range alert.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	switch alert.Level {
	case LevelError, LevelCritical:
		c.log.Error(alert.Message, fields...)
	default:
		c.log.Warn(alert.Message, fields...)
	}
	return nil
}

// Name implements Channel.
func (c *ZapChannel) Name() string { return c.name }

// WebhookChannel posts alerts as JSON to an HTTP endpoint.
type WebhookChannel struct {
	name   string
	url    string
	client *http.Client
}

// NewWebhookChannel creates a webhook-backed channel.
func NewWebhookChannel(name, url string) *WebhookChannel {
	return &WebhookChannel{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Send implements Channel.
func (c *WebhookChannel) Send(alert Alert) error {
	payload, err := json.Marshal(map[string]interface{}{
		"level":   alert.Level,
		"message": alert.Message,
		"market":  alert.Market,
		"ts":      alert.Timestamp.UTC().Format(time.RFC3339Nano),
		"fields":  alert.Fields,
	})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	resp, err := c.client.Post(c.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}

// Name implements Channel.
func (c *WebhookChannel) Name() string { return c.name }

// MockChannel records alerts for tests.
type MockChannel struct {
	name      string
	alerts    []Alert
	shouldErr bool
}

// NewMockChannel creates a recording channel.
func NewMockChannel(name string) *MockChannel {
	return &MockChannel{name: name}
}

// Send implements Channel.
func (c *MockChannel) Send(alert Alert) error {
	if c.shouldErr {
		return fmt.Errorf("mock error")
	}
	c.alerts = append(c.alerts, alert)
	return nil
}

// Name implements Channel.
func (c *MockChannel) Name() string { return c.name }

// Alerts returns everything received so far.
func (c *MockChannel) Alerts() []Alert { return c.alerts }

// SetShouldError makes Send fail.
func (c *MockChannel) SetShouldError(fail bool) { c.shouldErr = fail }
