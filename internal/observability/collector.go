package observability

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// PoolStats is a snapshot of connection pool usage
type PoolStats struct {
	Total int32
	Idle  int32
	Max   int32
}

// StatsCollector samples pool statistics and uptime into gauges on a cron schedule
type StatsCollector struct {
	cron      *cron.Cron
	metrics   *Metrics
	source    func() PoolStats
	startTime time.Time
}

// NewStatsCollector schedules sampling with a standard cron expression or a
// descriptor such as "@every 15s".
func NewStatsCollector(metrics *Metrics, schedule string, source func() PoolStats) (*StatsCollector, error) {
	sc := &StatsCollector{
		cron:      cron.New(),
		metrics:   metrics,
		source:    source,
		startTime: time.Now(),
	}

	if _, err := sc.cron.AddFunc(schedule, sc.Collect); err != nil {
		return nil, fmt.Errorf("invalid stats schedule %q: %w", schedule, err)
	}

	return sc, nil
}

// Start begins periodic sampling
func (sc *StatsCollector) Start() {
	sc.Collect()
	sc.cron.Start()
	log.Debug().Msg("Stats collector started")
}

// Stop halts sampling and waits for a running sample to finish
func (sc *StatsCollector) Stop() {
	<-sc.cron.Stop().Done()
	log.Debug().Msg("Stats collector stopped")
}

// Collect takes one sample
func (sc *StatsCollector) Collect() {
	sc.metrics.UpdateUptime(sc.startTime)
	if sc.source == nil {
		return
	}
	stats := sc.source()
	sc.metrics.UpdateDBStats(stats.Total, stats.Idle, stats.Max)
}
