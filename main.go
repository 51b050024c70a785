package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beego/beego/v2/core/logs"
	"github.com/beego/beego/v2/server/web"
	"github.com/nicesoft-labs/ticc-dash/lib"
	"github.com/nicesoft-labs/ticc-dash/models"
	"github.com/nicesoft-labs/ticc-dash/routers"
	"github.com/nicesoft-labs/ticc-dash/services/clientcollector"
	"github.com/nicesoft-labs/ticc-dash/state"
)

func main() {
	configDir := flag.String("config", "/etc/ticc-dash", "Path to config dir")
	flag.Parse()

	configFile := filepath.Join(*configDir, "app.conf")

	if err := ensureConfigFile(*configDir, configFile); err != nil {
		panic(err)
	}
	fmt.Println("Config file:", configFile)

	if err := web.LoadAppConfig("ini", configFile); err != nil {
		panic(err)
	}
	cfg := state.Load(web.AppConfig)

	if err := setupLogging(cfg); err != nil {
		panic(err)
	}

	if err := models.InitHistoryDB(cfg.HistoryDSN); err != nil {
		panic(err)
	}
	models.StartHistoryRetention(context.Background(), cfg.HistoryRetention, cfg.HistoryInterval)

	invoker := lib.NewCommandInvoker(cfg.ChronycPath, cfg.ChronycArgs, cfg.CommandTimeout)
	collector := clientcollector.New(clientcollector.Config{
		PollInterval:    cfg.PollInterval,
		BackoffMax:      cfg.BackoffMax,
		HistoryInterval: cfg.HistoryInterval,
		Record:          models.SavePollSample,
	}, invoker)
	collector.Start()
	defer collector.Stop()

	if err := lib.GenerateUIDataReport("ui-data-report.md", invoker.String(), cfg.PollInterval); err != nil {
		logs.Warn("report generation error: %v", err)
	}

	routers.Init(collector, cfg)

	logs.Info("polling `%s` every %s", invoker, cfg.PollInterval)
	web.Run()
}

const defaultAppConfig = `AppName = ticc-dash
HttpAddr = "0.0.0.0"
HttpPort = 5000
RunMode = prod
EnableGzip = true
CopyRequestBody = false
ChronycPath = "chronyc"
; "-n clients" skips reverse DNS lookups
ChronycArgs = "clients"
CommandTimeout = "5s"
PollInterval = "1s"
BackoffMax = "30s"
HistoryDSN = "file:ticc_history?mode=memory&cache=shared"
HistoryInterval = "1m"
HistoryRetention = "24h"
HistoryLimit = 60
RefreshInterval = "2s"
RefreshBurst = 3
LogLevel = "info"
; LogFile = "/var/log/ticc-dash.log"`

func ensureConfigFile(configDir, configFile string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(configFile, []byte(defaultAppConfig), 0o644)
}

func setupLogging(cfg state.Settings) error {
	if err := logs.SetLogger(logs.AdapterConsole); err != nil {
		return fmt.Errorf("console logger: %w", err)
	}
	if cfg.LogFile != "" {
		fileCfg, err := json.Marshal(map[string]any{"filename": cfg.LogFile, "daily": true, "maxdays": 7})
		if err != nil {
			return err
		}
		if err := logs.SetLogger(logs.AdapterFile, string(fileCfg)); err != nil {
			return fmt.Errorf("file logger %s: %w", cfg.LogFile, err)
		}
	}
	logs.SetLevel(cfg.BeegoLogLevel())
	logs.EnableFuncCallDepth(true)
	logs.SetLogFuncCallDepth(3)
	return nil
}
