// Command ticc-watch follows a running ticc-dash from the terminal. It polls
// the /data feed and keeps expanded rows, sort order and theme across
// refreshes and restarts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beego/beego/v2/core/logs"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nicesoft-labs/ticc-dash/reconcile"
)

func main() {
	url := flag.String("url", "http://127.0.0.1:5000", "ticc-dash base URL")
	interval := flag.Duration("interval", time.Second, "poll interval")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	prefsPath := flag.String("prefs", reconcile.DefaultPrefsPath(), "preferences file")
	plain := flag.Bool("plain", false, "print roster changes instead of the interactive view")
	logFile := flag.String("log", "", "log file (interactive mode logs nowhere by default)")
	flag.Parse()

	if err := setupLogging(*plain, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	prefs, err := reconcile.LoadPrefs(*prefsPath)
	if err != nil {
		logs.Warn("load prefs %s: %v", *prefsPath, err)
	}
	state := reconcile.NewViewState(prefs)
	poller := reconcile.NewPoller(reconcile.NewHTTPFetcher(*url, *timeout), state)

	if *plain {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := runPlain(ctx, os.Stdout, poller, state, *interval); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	p := tea.NewProgram(newModel(state, poller, *interval, *prefsPath), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(plain bool, logFile string) error {
	if logFile != "" {
		cfg, err := json.Marshal(map[string]any{"filename": logFile})
		if err != nil {
			return err
		}
		logs.Reset()
		return logs.SetLogger(logs.AdapterFile, string(cfg))
	}
	if plain {
		return logs.SetLogger(logs.AdapterConsole)
	}
	// The alt screen owns the terminal.
	logs.Reset()
	return nil
}
