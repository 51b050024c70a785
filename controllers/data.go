package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beego/beego/v2/core/logs"
	"github.com/nicesoft-labs/ticc-dash/lib"
	"github.com/nicesoft-labs/ticc-dash/models"
	"github.com/nicesoft-labs/ticc-dash/services/clientcollector"
	"golang.org/x/time/rate"
)

const (
	maxHistoryLimit   = 1000
	firstPollDeadline = 10 * time.Second
)

type DataController struct {
	APIBaseController

	Collector    *clientcollector.Collector
	Limiter      *rate.Limiter
	HistoryLimit int
}

// Feed serves the client roster feed polled by the dashboard.
func (c *DataController) Feed() {
	snap := c.Collector.Snapshot()
	if !snap.Collected() {
		ctx, cancel := context.WithTimeout(c.Ctx.Request.Context(), firstPollDeadline)
		snap, _ = c.Collector.Refresh(ctx)
		cancel()
	}
	feed := snap.Feed(time.Now())

	if etag := feedETag(feed); etag != "" {
		c.Ctx.Output.Header("ETag", etag)
		if etagMatches(c.Ctx.Input.Header("If-None-Match"), etag) {
			c.Ctx.ResponseWriter.WriteHeader(http.StatusNotModified)
			return
		}
	}
	c.Data["json"] = feed
	_ = c.ServeJSON()
}

// History returns recent poll samples, newest first.
func (c *DataController) History() {
	limit := historyLimit(c.GetString("limit"), c.HistoryLimit)
	samples, err := models.RecentPollSamples(limit)
	if err != nil {
		logs.Error("history query: %v", err)
		c.serveError(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data["json"] = samples
	_ = c.ServeJSON()
}

// Refresh runs the status command now and returns the new feed.
func (c *DataController) Refresh() {
	if c.Limiter != nil {
		r := c.Limiter.Reserve()
		if !r.OK() {
			c.serveError(http.StatusTooManyRequests, "refresh disabled")
			return
		}
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			c.Ctx.Output.Header("Retry-After", strconv.Itoa(retryAfterSeconds(delay)))
			c.serveError(http.StatusTooManyRequests, "refresh rate limited")
			return
		}
	}

	snap, err := c.Collector.Refresh(c.Ctx.Request.Context())
	if err != nil {
		logs.Info("manual refresh: %v", err)
	}
	c.Data["json"] = snap.Feed(time.Now())
	_ = c.ServeJSON()
}

// Host reports uptime, load and memory of the machine running the dashboard.
func (c *DataController) Host() {
	c.Data["json"] = lib.GetHostInfo()
	_ = c.ServeJSON()
}

// feedETag is the quoted roster fingerprint. A feed carrying an error gets
// none, so the error is never hidden behind a 304.
func feedETag(feed lib.Feed) string {
	if feed.Error != "" || feed.Fingerprint == "" {
		return ""
	}
	return `"` + feed.Fingerprint + `"`
}

// etagMatches implements the If-None-Match comparison, weak tags included.
func etagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}

func historyLimit(raw string, def int) int {
	if def <= 0 {
		def = 60
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxHistoryLimit {
		return maxHistoryLimit
	}
	return n
}

func retryAfterSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}
