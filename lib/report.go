package lib

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// GenerateUIDataReport writes a Markdown description of the data sources and
// HTTP contracts to path. It is called on startup so operators can inspect
// what the dashboard polls without digging into the code.
func GenerateUIDataReport(path, command string, pollInterval time.Duration) error {
	b := &strings.Builder{}
	fmt.Fprintf(b, "# TICC-DASH data report\nGenerated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	b.WriteString("## Data source\n")
	fmt.Fprintf(b, "- Status command: `%s`, polled every %s.\n", command, pollInterval)
	b.WriteString("- The first two output lines are the header and are discarded.\n")
	b.WriteString("- Clients are ordered hostnames, then IPv4 (numeric), then IPv6 (text).\n\n")

	b.WriteString("## Contract /data\n")
	b.WriteString("```json\n")
	b.WriteString("{\n")
	b.WriteString("  \"clients_parsed\": [{\"addr\": \"host.local\", \"NTP\": \"2\", \"Drop\": \"12\", \"Int\": \"64\", \"IntL\": \"64\", \"Last\": \"-\", \"Cmd\": \"0\", \"CmdDrop\": \"\", \"CmdInt\": \"\", \"CmdLast\": \"\"}],\n")
	b.WriteString("  \"count\": 1,\n")
	b.WriteString("  \"local_time\": \"01/31/2025, 13:45:00\",\n")
	b.WriteString("  \"error\": \"Error: ...\",\n")
	b.WriteString("  \"fingerprint\": \"<sha256 hex>\"\n")
	b.WriteString("}\n")
	b.WriteString("```\n\n")

	b.WriteString("### Fields\n")
	b.WriteString("- **clients_parsed**: raw column text, empty string when the row was short.\n")
	b.WriteString("- **error**: present only when the status command failed; the list is then empty.\n")
	b.WriteString("- **fingerprint**: digest of addr/NTP/Drop/Int/Last/Cmd; unchanged fingerprint means nothing to re-render. Also sent as ETag.\n\n")

	b.WriteString("## Other endpoints\n")
	b.WriteString("- `GET /api/history?limit=N`: recent poll samples (per-severity and per-family counts).\n")
	b.WriteString("- `POST /api/refresh`: run the status command now (rate limited).\n")
	b.WriteString("- `GET /api/host`: uptime, load and memory of this host.\n")
	b.WriteString("- `GET /metrics`: Prometheus exposition.\n\n")

	b.WriteString("## Severity\n")
	b.WriteString("- Drop 0 (or non-numeric): OK; 1-9: Warning; 10 and above: Critical.\n")

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
