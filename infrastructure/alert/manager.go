// Package alert delivers throttled operator alerts for feed and guard
// incidents.
package alert

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// Level classifies an alert.
type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// Alert is one operator notification.
type Alert struct {
	Level     Level
	Message   string
	Market    string
	Timestamp time.Time
	Fields    map[string]interface{}
}

// Channel delivers alerts to one destination.
type Channel interface {
	Send(alert Alert) error
	Name() string
}

// Throttler suppresses repeats of the same alert within the interval.
type Throttler struct {
	lastSent map[string]time.Time
	interval time.Duration
	mu       sync.Mutex
}

// NewThrottler creates a throttler with the given repeat interval.
func NewThrottler(interval time.Duration) *Throttler {
	return &Throttler{
		lastSent: make(map[string]time.Time),
		interval: interval,
	}
}

// Allow reports whether the keyed alert may be sent now, and records it.
func (t *Throttler) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	lastTime, exists := t.lastSent[key]
	if !exists || now.Sub(lastTime) >= t.interval {
		t.lastSent[key] = now
		return true
	}
	return false
}

// Reset clears the throttle record for one key.
func (t *Throttler) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastSent, key)
}

// Manager fans alerts out to all channels, throttled per level+message+market.
type Manager struct {
	channels []Channel
	throttle *Throttler
	mu       sync.RWMutex
}

// NewManager builds a manager over the given channels.
func NewManager(channels []Channel, throttleInterval time.Duration) *Manager {
	return &Manager{
		channels: channels,
		throttle: NewThrottler(throttleInterval),
	}
}

// Send delivers the alert to every channel. A throttled repeat is silently
// dropped. Channel failures are collected, not short-circuited.
func (m *Manager) Send(alert Alert) error {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}

	key := fmt.Sprintf("%s:%s:%s", alert.Level, alert.Market, alert.Message)
	if !m.throttle.Allow(key) {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var err error
	for _, ch := range m.channels {
		if serr := ch.Send(alert); serr != nil {
			err = multierr.Append(err, fmt.Errorf("channel %s: %w", ch.Name(), serr))
		}
	}
	return err
}

// AddChannel registers an additional destination.
func (m *Manager) AddChannel(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, ch)
}
