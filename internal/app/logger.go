package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger shared by the API server, the
// worker and the CLI tools. Deployments set LOG_FORMAT=json so ledger and
// collection events land in the aggregator as structured records; any other
// value keeps human-readable text for local work.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
