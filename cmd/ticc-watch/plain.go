package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/nicesoft-labs/ticc-dash/reconcile"
)

// runPlain prints the roster whenever its fingerprint changes, and one line
// per failed cycle.
func runPlain(ctx context.Context, w io.Writer, poller *reconcile.Poller, state *reconcile.ViewState, interval time.Duration) error {
	return poller.Run(ctx, interval, func(out reconcile.Outcome, err error) {
		switch {
		case errors.Is(err, reconcile.ErrCycleInFlight):
		case err != nil:
			fmt.Fprintf(w, "poll failed: %v\n", err)
		case out.Stale:
			_, _, msg := state.Status()
			fmt.Fprintf(w, "poll failed: %s\n", msg)
		case out.Changed:
			printRoster(w, state)
		}
	})
}

func printRoster(w io.Writer, state *reconcile.ViewState) {
	count, localTime, _ := state.Status()
	sum := state.Summary()
	fmt.Fprintf(w, "%s  clients %d  ok %d  warning %d  critical %d\n",
		localTime, count, sum.OK, sum.Warning, sum.Critical)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tNTP\tDROP\tINT\tINTL\tLAST\tCMD\tSEVERITY")
	for _, r := range state.Rows() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Address, orDash(r.NTPPackets), orDash(r.DropPackets), orDash(r.PollInterval),
			orDash(r.IntervalLimit), orDash(r.LastSeen), orDash(r.CmdPackets), r.Severity)
	}
	_ = tw.Flush()
}
