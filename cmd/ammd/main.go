// Command ammd runs the vAMM pricing and routing daemon: it keeps the
// oracle feed connected, applies config reloads, and serves metrics while
// the evaluator answers fulfillment requests.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"

	"vamm-core/config"
	"vamm-core/fulfillment"
	"vamm-core/gateway"
	"vamm-core/infrastructure/alert"
	"vamm-core/infrastructure/logger"
	"vamm-core/internal/engine"
	"vamm-core/market"
	"vamm-core/monitor"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "config file path")
	quoteIntervalMs := flag.Int("quoteIntervalMs", 1000, "quote gauge refresh interval")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Close()

	metrics := monitor.NewCollector()
	metrics.Serve(cfg.MetricsAddr)

	eval := engine.New(engine.Config{
		GuardRails:         cfg.GuardRails.Rails(),
		MinAuctionDuration: cfg.Fulfillment.MinAuctionDuration,
	}, fulfillment.NoJIT{}, zlog.Named("engine"), metrics)

	for name, mc := range cfg.Markets {
		m := &market.Market{
			Status:       market.Active,
			ContractType: market.Perpetual,
		}
		if err := mc.Bootstrap(m); err != nil {
			zlog.Fatal("seed market curve", zap.String("market", name), zap.Error(err))
		}
		if err := mc.Apply(m); err != nil {
			zlog.Fatal("apply market config", zap.String("market", name), zap.Error(err))
		}
		eval.RegisterMarket(name, m)
		zlog.Info("market registered", zap.String("market", name))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := gateway.NewFeedClient(cfg.Feed.URL, eval, zlog.Named("feed").Logger)
	if cfg.Feed.ReconnectMinMs > 0 {
		feed.ReconnectMin = time.Duration(cfg.Feed.ReconnectMinMs) * time.Millisecond
	}
	if cfg.Feed.ReconnectMaxMs > 0 {
		feed.ReconnectMax = time.Duration(cfg.Feed.ReconnectMaxMs) * time.Millisecond
	}
	throttle := 60 * time.Second
	if cfg.Alerts.ThrottleSeconds > 0 {
		throttle = time.Duration(cfg.Alerts.ThrottleSeconds) * time.Second
	}
	channels := []alert.Channel{alert.NewZapChannel("log", zlog.Named("alert").Logger)}
	if cfg.Alerts.WebhookURL != "" {
		channels = append(channels, alert.NewWebhookChannel("webhook", cfg.Alerts.WebhookURL))
	}
	alerts := alert.NewManager(channels, throttle)

	feed.OnConnect(func() { metrics.FeedConnects.Inc() })
	feed.OnDrop(func() { metrics.FeedDrops.Inc() })
	feed.OnDisconnect(func(err error) {
		_ = alerts.Send(alert.Alert{
			Level:   alert.LevelWarning,
			Message: "oracle feed disconnected",
			Fields:  map[string]interface{}{"error": err.Error()},
		})
	})
	go func() {
		if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
			zlog.Error("feed client exited", zap.Error(err))
			cancel()
		}
	}()

	reloader, err := config.NewReloader(*cfgPath, config.DefaultReloadConfig(), zlog.Named("config").Logger)
	if err != nil {
		zlog.Fatal("init config reloader", zap.Error(err))
	}
	reloader.OnUpdate(func(newCfg config.AppConfig) {
		if err := eval.ApplyConfig(newCfg); err != nil {
			zlog.Warn("apply reloaded config", zap.Error(err))
		}
	})
	if err := reloader.Start(ctx); err != nil {
		zlog.Fatal("start config reloader", zap.Error(err))
	}
	defer reloader.Stop()

	go quoteLoop(ctx, eval, zlog, time.Duration(*quoteIntervalMs)*time.Millisecond)

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		zlog.Warn("sd_notify ready", zap.Error(err))
	}
	zlog.Info("ammd started",
		zap.String("env", cfg.Env),
		zap.String("feed", cfg.Feed.URL),
		zap.String("metrics", cfg.MetricsAddr),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	cancel()
	zlog.Info("ammd stopped")
}

// quoteLoop refreshes the per-market price gauges and logs the curve quote.
func quoteLoop(ctx context.Context, eval *engine.Evaluator, zlog *logger.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, name := range eval.MarketNames() {
				mark, bid, ask, err := eval.Quote(name)
				if err != nil {
					zlog.Warn("quote refresh", zap.String("market", name), zap.Error(err))
					continue
				}
				zlog.Debug("curve quote",
					zap.String("market", name),
					zap.Uint64("mark", mark),
					zap.Uint64("bid", bid),
					zap.Uint64("ask", ask),
				)
			}
		}
	}
}
