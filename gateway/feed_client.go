package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const readDeadline = 30 * time.Second

// StoreRegistry routes parsed updates to the per-market store.
type StoreRegistry interface {
	Publish(update FeedUpdate) bool
}

// FeedClient maintains the websocket connection to the oracle feed. Lost
// connections are redialed with exponential backoff between the configured
// bounds.
type FeedClient struct {
	URL          string
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	Dialer       *websocket.Dialer

	log      *zap.Logger
	registry StoreRegistry

	mu           sync.Mutex
	onConnect    func()
	onDisconnect func(error)
	onDrop       func()
}

// NewFeedClient builds a client publishing into registry.
func NewFeedClient(url string, registry StoreRegistry, log *zap.Logger) *FeedClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedClient{
		URL:          url,
		ReconnectMin: 500 * time.Millisecond,
		ReconnectMax: 30 * time.Second,
		Dialer:       websocket.DefaultDialer,
		log:          log,
		registry:     registry,
	}
}

// OnConnect registers a hook invoked after each successful dial.
func (c *FeedClient) OnConnect(fn func()) {
	c.mu.Lock()
	c.onConnect = fn
	c.mu.Unlock()
}

// OnDisconnect registers a hook invoked when a connection drops.
func (c *FeedClient) OnDisconnect(fn func(error)) {
	c.mu.Lock()
	c.onDisconnect = fn
	c.mu.Unlock()
}

// OnDrop registers a hook invoked when a frame fails to parse.
func (c *FeedClient) OnDrop(fn func()) {
	c.mu.Lock()
	c.onDrop = fn
	c.mu.Unlock()
}

// Run dials and reads until ctx is cancelled. It only returns the context
// error; transport errors trigger a redial.
func (c *FeedClient) Run(ctx context.Context) error {
	backoff := c.ReconnectMin
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, _, err := c.Dialer.DialContext(ctx, c.URL, nil)
		if err != nil {
			c.log.Warn("feed dial failed", zap.String("url", c.URL), zap.Error(err))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff, c.ReconnectMax)
			continue
		}

		c.log.Info("feed connected", zap.String("url", c.URL))
		c.fireConnect()
		backoff = c.ReconnectMin

		// Unblock the read loop when the context goes away.
		stop := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-stop:
			}
		}()

		err = c.readLoop(ctx, conn)
		close(stop)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("feed disconnected", zap.Error(err))
		c.fireDisconnect(err)

		if !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, c.ReconnectMax)
	}
}

func (c *FeedClient) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		update, err := ParseFrame(message)
		if err != nil {
			c.log.Warn("feed frame dropped", zap.Error(err))
			c.fireDrop()
			continue
		}
		if !c.registry.Publish(update) {
			c.log.Debug("feed update for unknown market", zap.String("market", update.Market))
		}
	}
}

func (c *FeedClient) fireConnect() {
	c.mu.Lock()
	f := c.onConnect
	c.mu.Unlock()
	if f != nil {
		f()
	}
}

func (c *FeedClient) fireDrop() {
	c.mu.Lock()
	f := c.onDrop
	c.mu.Unlock()
	if f != nil {
		f()
	}
}

func (c *FeedClient) fireDisconnect(err error) {
	c.mu.Lock()
	f := c.onDisconnect
	c.mu.Unlock()
	if f != nil {
		f(err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}
