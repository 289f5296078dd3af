package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/config"
)

// Checker evaluates run health on an interval. Alerts are edge-triggered: an
// alert type is delivered when it starts firing and again only after it has
// cleared.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
	firing    map[AlertType]bool
	log       *zap.Logger
}

// NewChecker creates a background alert checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
		firing:    make(map[AlertType]bool),
		log:       zap.L().With(zap.String("component", "monitoring.checker")),
	}
}

// Run checks once immediately, then on every interval until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	c.log.Info("starting alert checker",
		zap.Duration("interval", interval),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() == nil {
			c.Check(ctx)
		}
		select {
		case <-ctx.Done():
			c.log.Info("alert checker stopped")
			return
		case <-ticker.C:
		}
	}
}

// Check collects a snapshot and notifies for alerts that were not already
// firing. It returns the newly fired alerts.
func (c *Checker) Check(ctx context.Context) []Alert {
	snap, err := c.collector.Collect(ctx, c.cfg.LookbackWindowHours)
	if err != nil {
		c.log.Error("monitoring: collect failed", zap.Error(err))
		return nil
	}

	current := c.alerter.Evaluate(snap)
	now := make(map[AlertType]bool, len(current))
	var fresh []Alert
	for _, a := range current {
		now[a.Type] = true
		if !c.firing[a.Type] {
			fresh = append(fresh, a)
		}
	}
	for t := range c.firing {
		if !now[t] {
			c.log.Info("monitoring: alert cleared", zap.String("type", string(t)))
		}
	}

	if len(fresh) == 0 {
		c.firing = now
		c.log.Debug("monitoring: no new alerts", zap.Int("runs", snap.Total), zap.Int("firing", len(now)))
		return nil
	}

	if err := c.alerter.Notify(ctx, fresh); err != nil {
		// left unmarked so the next tick retries delivery
		c.log.Error("monitoring: notify failed", zap.Error(err))
		for _, a := range fresh {
			delete(now, a.Type)
		}
	}
	c.firing = now
	return fresh
}
