package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/kvlog/cmd/internal/logcfg"
	"github.com/danmuck/kvlog/src/kvstore"
	logs "github.com/danmuck/smplog"
)

func main() {
	logs.Configure(logcfg.Load())

	path, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Printf("Error: %v\n\n", err)
		fmt.Printf("usage: kvaudit [<log-path>]   (default: %s)\n", kvstore.DefaultLogPath)
		os.Exit(1)
	}

	report, err := auditLog(path)
	if err != nil {
		logs.Fatalf(err, "Failed to audit %s", path)
	}
	printReport(path, report)
}

func parseArgs(args []string) (string, error) {
	switch len(args) {
	case 0:
		return kvstore.DefaultLogPath, nil
	case 1:
		path := strings.TrimSpace(args[0])
		if path == "" || strings.HasPrefix(path, "-") {
			return "", fmt.Errorf("expected a log path, got %q", args[0])
		}
		return path, nil
	default:
		return "", fmt.Errorf("expected at most one log path, got %d arguments", len(args))
	}
}

type auditReport struct {
	Stats    kvstore.ReplayStats
	Keys     int
	Shadowed int
	LogBytes int64
}

// auditLog replays the log read-only and derives per-key totals. It never
// writes; a missing file reports as an empty log.
func auditLog(path string) (auditReport, error) {
	entries, stats, err := kvstore.ReplayLog(path)
	if err != nil {
		return auditReport{}, err
	}

	var idx kvstore.Index
	idx.RebuildFrom(entries)

	report := auditReport{
		Stats: stats,
		Keys:  idx.DistinctKeys(),
	}
	report.Shadowed = idx.Len() - report.Keys
	if info, statErr := os.Stat(path); statErr == nil {
		report.LogBytes = info.Size()
	}
	return report, nil
}

func printReport(path string, r auditReport) {
	logs.Titlef("\nLog audit: %s\n", path)
	logs.DataKV("Lines scanned", r.Stats.Lines)
	logs.DataKV("Records recovered", r.Stats.Records)
	logs.DataKV("Malformed lines skipped", r.Stats.Skipped)
	logs.DataKV("Distinct keys", r.Keys)
	logs.DataKV("Shadowed records", r.Shadowed)
	logs.DataKV("Log size", formatBytes(r.LogBytes))
	logs.Printf("\n")

	if r.Stats.Skipped > 0 {
		logs.StatusWarn("Log contains unreadable lines; replay will keep skipping them.")
	} else {
		logs.StatusInfo("All lines replay cleanly.")
	}
}

func formatBytes(value int64) string {
	if value == 0 {
		return "0 B"
	}

	units := []string{"B", "KiB", "MiB", "GiB", "TiB"}
	size := float64(value)
	unitIdx := 0
	for size >= 1024 && unitIdx < len(units)-1 {
		size /= 1024
		unitIdx++
	}
	if unitIdx == 0 {
		return fmt.Sprintf("%d B", value)
	}
	return fmt.Sprintf("%.1f %s", size, units[unitIdx])
}
