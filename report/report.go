// Package report formats benchmark job results into tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/weiihann/benchpress/job"
)

// Generate writes a markdown summary and one metrics table per result.
func Generate(w io.Writer, results []job.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	// Header.
	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)

	// Summary table.
	fmt.Fprintln(w, "| Job | Run ID | Elapsed | Metrics |")
	fmt.Fprintln(w, "|-----|--------|---------|---------|")

	for _, r := range results {
		n := 0
		for range r.Metrics.Flatten() {
			n++
		}

		fmt.Fprintf(w, "| %s | %s | %s | %d |\n",
			r.Job, r.RunID, formatDuration(r.Elapsed), n,
		)
	}

	// Detail tables.
	for _, r := range results {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "### %s\n", r.Job)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Metric | Value |")
		fmt.Fprintln(w, "|--------|-------|")

		for name, value := range r.Metrics.Flatten() {
			fmt.Fprintf(w, "| %s | %s |\n", name, formatValue(name, value))
		}
	}

	return nil
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, results []job.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

func formatValue(name string, v float64) string {
	if strings.HasSuffix(name, "_bytes") && v >= 0 && v == float64(uint64(v)) {
		return formatBytes(uint64(v))
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}

	return fmt.Sprintf("%.2fs", float64(ms)/1000)
}

func formatBytes(b uint64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(b)
	unit := 0

	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	formatted := fmt.Sprintf("%.1f", size)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")

	return formatted + " " + units[unit]
}
