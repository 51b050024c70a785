package routers

import (
	"github.com/beego/beego/v2/server/web"
	"github.com/nicesoft-labs/ticc-dash/controllers"
	"github.com/nicesoft-labs/ticc-dash/services/clientcollector"
	"github.com/nicesoft-labs/ticc-dash/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Init registers every route. Controllers get the collector through their
// exported fields; beego copies them into each request's controller.
func Init(collector *clientcollector.Collector, cfg state.Settings) {
	web.Router("/", &controllers.MainController{
		Collector:    collector,
		PollInterval: cfg.PollInterval,
	})

	data := &controllers.DataController{
		Collector:    collector,
		Limiter:      rate.NewLimiter(rate.Every(cfg.RefreshInterval), cfg.RefreshBurst),
		HistoryLimit: cfg.HistoryLimit,
	}
	web.Router("/data", data, "get:Feed")
	web.Router("/api/history", data, "get:History")
	web.Router("/api/refresh", data, "post:Refresh")
	web.Router("/api/host", data, "get:Host")

	registry := prometheus.NewRegistry()
	registry.MustRegister(clientcollector.NewExporter(collector))
	web.Handler("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

