package clientcollector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beego/beego/v2/core/logs"
	"github.com/nicesoft-labs/ticc-dash/lib"
	"github.com/nicesoft-labs/ticc-dash/models"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

const (
	defaultPollInterval    = 1 * time.Second
	defaultBackoffMax      = 30 * time.Second
	defaultHistoryInterval = 1 * time.Minute
)

type Config struct {
	PollInterval time.Duration
	BackoffMax   time.Duration
	// HistoryInterval is the longest gap between two history samples while
	// the roster is unchanged.
	HistoryInterval time.Duration
	// Record persists a history sample; nil disables history.
	Record func(*models.PollSample) error
}

// Snapshot is the result of one collection.
type Snapshot struct {
	Roster      lib.Roster
	Fingerprint string
	Summary     lib.SeveritySummary
	Families    lib.FamilySummary
	CollectedAt time.Time
	Duration    time.Duration
}

// Collected reports whether a collection has completed yet.
func (s *Snapshot) Collected() bool {
	return !s.CollectedAt.IsZero()
}

// Feed stamps the snapshot for a /data response.
func (s *Snapshot) Feed(now time.Time) lib.Feed {
	return lib.NewFeed(s.Roster, now)
}

type Collector struct {
	cfg   Config
	inv   lib.Invoker
	cache atomic.Value
	group singleflight.Group
	mu    sync.Mutex

	backoff time.Duration

	successes   atomic.Uint64
	failures    atomic.Uint64
	lastSuccess atomic.Int64
	duration    prometheus.Histogram

	lastRecorded time.Time
	lastSample   models.PollSample

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

func New(cfg Config, inv lib.Invoker) *Collector {
	cfg = withDefaults(cfg)
	c := &Collector{
		cfg:     cfg,
		inv:     inv,
		backoff: cfg.PollInterval,
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticc_poll_duration_seconds",
			Help:    "Duration of the client status command.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	c.cache.Store(emptySnapshot())
	return c
}

// Start launches the background poll loop. Further calls are no-ops.
func (c *Collector) Start() {
	c.startOnce.Do(func() {
		c.started.Store(true)
		go c.loop()
	})
}

// Stop ends the poll loop and waits for it to exit.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	if c.started.Load() {
		<-c.done
	}
}

// Snapshot returns the last collection; never nil.
func (c *Collector) Snapshot() *Snapshot {
	if snap, ok := c.cache.Load().(*Snapshot); ok && snap != nil {
		return snap
	}
	return emptySnapshot()
}

// Refresh collects now. A call made while a collection is running joins it
// instead of starting another one. The returned snapshot is always usable;
// err reports a failed status command or ctx expiring first.
func (c *Collector) Refresh(ctx context.Context) (*Snapshot, error) {
	ch := c.group.DoChan("poll", func() (any, error) {
		return c.collect(context.Background())
	})
	select {
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	case res := <-ch:
		snap, _ := res.Val.(*Snapshot)
		if snap == nil {
			snap = c.Snapshot()
		}
		return snap, res.Err
	}
}

func (c *Collector) loop() {
	defer close(c.done)
	for {
		c.pollOnce()
		timer := time.NewTimer(c.backoff)
		select {
		case <-c.stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (c *Collector) pollOnce() {
	if _, err := c.Refresh(context.Background()); err != nil {
		c.backoff = backoffInterval(c.backoff, c.cfg.BackoffMax)
		logs.Warn("client collector poll error (next in %s): %v", c.backoff, err)
		return
	}
	c.backoff = c.cfg.PollInterval
}

func (c *Collector) collect(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	roster := lib.CollectRoster(ctx, c.inv)
	elapsed := time.Since(start)

	snap := &Snapshot{
		Roster:      roster,
		Fingerprint: lib.Fingerprint(roster.Records),
		Summary:     lib.Summarize(roster.Records),
		Families:    lib.SummarizeFamilies(roster.Records),
		CollectedAt: start.UTC(),
		Duration:    elapsed,
	}

	prev := c.Snapshot()
	c.cache.Store(snap)
	c.duration.Observe(elapsed.Seconds())

	if prev.Fingerprint != snap.Fingerprint {
		logs.Debug("client roster changed: %d clients, fingerprint %.12s", roster.Count, snap.Fingerprint)
	}
	c.record(snap)

	if roster.Error != "" {
		c.failures.Add(1)
		return snap, fmt.Errorf("collect clients: %s", roster.Error)
	}
	c.successes.Add(1)
	c.lastSuccess.Store(start.Unix())
	return snap, nil
}

// record stores a sample when the roster or error changed, or when
// HistoryInterval passed since the previous one.
func (c *Collector) record(snap *Snapshot) {
	if c.cfg.Record == nil {
		return
	}
	sample := sampleOf(snap)
	due := c.lastRecorded.IsZero() ||
		sample.Fingerprint != c.lastSample.Fingerprint ||
		sample.Error != c.lastSample.Error ||
		snap.CollectedAt.Sub(c.lastRecorded) >= c.cfg.HistoryInterval
	if !due {
		return
	}
	if err := c.cfg.Record(&sample); err != nil {
		logs.Warn("client collector history save: %v", err)
		return
	}
	c.lastRecorded = snap.CollectedAt
	c.lastSample = sample
}

func sampleOf(snap *Snapshot) models.PollSample {
	return models.PollSample{
		Clients:     snap.Roster.Count,
		OK:          snap.Summary.OK,
		Warning:     snap.Summary.Warning,
		Critical:    snap.Summary.Critical,
		Hostnames:   snap.Families.Hostnames,
		IPv4:        snap.Families.IPv4,
		IPv6:        snap.Families.IPv6,
		Error:       snap.Roster.Error,
		Fingerprint: snap.Fingerprint,
		DurationMs:  snap.Duration.Milliseconds(),
		CollectedAt: snap.CollectedAt,
	}
}

func emptySnapshot() *Snapshot {
	records := []lib.ClientRecord{}
	return &Snapshot{
		Roster:      lib.Roster{Records: records},
		Fingerprint: lib.Fingerprint(records),
	}
}

func backoffInterval(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withDefaults(cfg Config) Config {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = defaultBackoffMax
	}
	if cfg.BackoffMax < cfg.PollInterval {
		cfg.BackoffMax = cfg.PollInterval
	}
	if cfg.HistoryInterval <= 0 {
		cfg.HistoryInterval = defaultHistoryInterval
	}
	return cfg
}
