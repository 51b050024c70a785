package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nicesoft-labs/ticc-dash/lib"
)

// ErrCycleInFlight is returned by Poll while a previous cycle is still running.
var ErrCycleInFlight = errors.New("reconcile: poll cycle already in flight")

// Phase is the poller state.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseFetching
)

func (p Phase) String() string {
	if p == PhaseFetching {
		return "fetching"
	}
	return "idle"
}

// Fetcher retrieves the current feed.
type Fetcher interface {
	Fetch(ctx context.Context) (lib.Feed, error)
}

// Poller runs fetch/apply cycles against one ViewState.
type Poller struct {
	fetcher Fetcher
	state   *ViewState
	phase   atomic.Int32
}

func NewPoller(f Fetcher, state *ViewState) *Poller {
	return &Poller{fetcher: f, state: state}
}

func (p *Poller) Phase() Phase {
	return Phase(p.phase.Load())
}

// Poll performs one cycle. Cycles never overlap.
func (p *Poller) Poll(ctx context.Context) (Outcome, error) {
	if !p.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseFetching)) {
		return Outcome{}, ErrCycleInFlight
	}
	defer p.phase.Store(int32(PhaseIdle))

	feed, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.state.Fail(err)
		return Outcome{Stale: true}, err
	}
	return p.state.Apply(feed), nil
}

// Run polls until ctx is done. The next cycle is scheduled interval after
// the previous one finished; fn, if set, sees every cycle's result.
func (p *Poller) Run(ctx context.Context, interval time.Duration, fn func(Outcome, error)) error {
	for {
		out, err := p.Poll(ctx)
		if fn != nil {
			fn(out, err)
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// HTTPFetcher reads the feed from a running dashboard.
type HTTPFetcher struct {
	url  string
	http *http.Client
}

// NewHTTPFetcher targets <baseURL>/data.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPFetcher{
		url:  strings.TrimRight(baseURL, "/") + "/data",
		http: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (lib.Feed, error) {
	var feed lib.Feed
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return feed, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return feed, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return feed, fmt.Errorf("GET %s: %s: %s", f.url, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return feed, fmt.Errorf("decode feed: %w", err)
	}
	return feed, nil
}
