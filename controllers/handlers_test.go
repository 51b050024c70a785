package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/beego/beego/v2/server/web"
	"github.com/nicesoft-labs/ticc-dash/lib"
	"github.com/nicesoft-labs/ticc-dash/models"
	"github.com/nicesoft-labs/ticc-dash/services/clientcollector"
	"golang.org/x/time/rate"
)

const clientsOutput = `Hostname                      NTP   Drop Int IntL Last     Cmd   Drop Int  Last
===============================================================================
10.0.0.5                        5      0  6   -     3       1      0   -     -
host.local                      2     12  6   -     -       0      0   -     -
`

func TestMain(m *testing.M) {
	if err := models.InitHistoryDB("file:ticc_controllers_test?mode=memory&cache=shared"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeInvoker struct {
	mu  sync.Mutex
	out string
	err error
}

func (f *fakeInvoker) Invoke(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out, f.err
}

func newDataHandler(inv lib.Invoker, limiter *rate.Limiter) *web.ControllerRegister {
	collector := clientcollector.New(clientcollector.Config{Record: models.SavePollSample}, inv)
	ctrl := &DataController{Collector: collector, Limiter: limiter, HistoryLimit: 10}

	handler := web.NewControllerRegister()
	handler.Add("/data", ctrl, web.WithRouterMethods(ctrl, "get:Feed"))
	handler.Add("/api/history", ctrl, web.WithRouterMethods(ctrl, "get:History"))
	handler.Add("/api/refresh", ctrl, web.WithRouterMethods(ctrl, "post:Refresh"))
	return handler
}

func serve(handler http.Handler, method, path, ifNoneMatch string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, nil)
	if ifNoneMatch != "" {
		r.Header.Set("If-None-Match", ifNoneMatch)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func decodeFeed(t *testing.T, w *httptest.ResponseRecorder) lib.Feed {
	t.Helper()
	var feed lib.Feed
	if err := json.Unmarshal(w.Body.Bytes(), &feed); err != nil {
		t.Fatalf("decode feed: %v\n%s", err, w.Body.String())
	}
	return feed
}

func TestFeedServesETagAndNotModified(t *testing.T) {
	handler := newDataHandler(&fakeInvoker{out: clientsOutput}, nil)

	w := serve(handler, http.MethodGet, "/data", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	feed := decodeFeed(t, w)
	if feed.Count != 2 || len(feed.Clients) != 2 || feed.Clients[0].Address != "host.local" {
		t.Fatalf("unexpected feed %+v", feed)
	}
	etag := w.Header().Get("ETag")
	if etag != `"`+feed.Fingerprint+`"` {
		t.Fatalf("etag = %q, fingerprint %q", etag, feed.Fingerprint)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store, must-revalidate" {
		t.Fatalf("cache-control = %q", cc)
	}

	w = serve(handler, http.MethodGet, "/data", etag)
	if w.Code != http.StatusNotModified {
		t.Fatalf("matching If-None-Match: status = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("304 must have no body, got %s", w.Body.String())
	}

	w = serve(handler, http.MethodGet, "/data", `"stale"`)
	if w.Code != http.StatusOK {
		t.Fatalf("other If-None-Match: status = %d", w.Code)
	}
}

func TestFeedErrorHasNoETag(t *testing.T) {
	handler := newDataHandler(&fakeInvoker{err: errors.New("exit status 1")}, nil)

	w := serve(handler, http.MethodGet, "/data", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if etag := w.Header().Get("ETag"); etag != "" {
		t.Fatalf("error feed must not carry an etag, got %q", etag)
	}
	feed := decodeFeed(t, w)
	if feed.Error == "" || feed.Count != 0 {
		t.Fatalf("unexpected feed %+v", feed)
	}

	// The empty-roster fingerprint must not turn the error into a 304.
	w = serve(handler, http.MethodGet, "/data", `"`+feed.Fingerprint+`"`)
	if w.Code != http.StatusOK {
		t.Fatalf("error feed answered %d to If-None-Match", w.Code)
	}
}

func TestRefreshRateLimited(t *testing.T) {
	inv := &fakeInvoker{out: clientsOutput + "2001:db8::1 1 0 6 - 1 0\n"}
	handler := newDataHandler(inv, rate.NewLimiter(rate.Every(time.Minute), 1))

	w := serve(handler, http.MethodPost, "/api/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("first refresh: status = %d, body %s", w.Code, w.Body.String())
	}
	if feed := decodeFeed(t, w); feed.Count != 3 {
		t.Fatalf("refresh must return the new roster, got %+v", feed)
	}

	w = serve(handler, http.MethodPost, "/api/refresh", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second refresh: status = %d", w.Code)
	}
	if ra := w.Header().Get("Retry-After"); ra == "" || ra == "0" {
		t.Fatalf("Retry-After = %q", ra)
	}

	if w := serve(handler, http.MethodGet, "/api/refresh", ""); w.Code == http.StatusOK {
		t.Fatalf("refresh must only accept POST")
	}
}

func TestHistoryListsSamples(t *testing.T) {
	handler := newDataHandler(&fakeInvoker{out: clientsOutput}, nil)
	if w := serve(handler, http.MethodPost, "/api/refresh", ""); w.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d", w.Code)
	}

	w := serve(handler, http.MethodGet, "/api/history?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var samples []models.PollSample
	if err := json.Unmarshal(w.Body.Bytes(), &samples); err != nil {
		t.Fatalf("decode history: %v\n%s", err, w.Body.String())
	}
	if len(samples) == 0 || len(samples) > 5 {
		t.Fatalf("got %d samples", len(samples))
	}
	if s := samples[0]; s.Clients != 2 || s.Critical != 1 || s.IPv4 != 1 || s.Hostnames != 1 {
		t.Fatalf("unexpected newest sample %+v", s)
	}
}
