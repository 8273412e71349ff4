package logcfg

import (
	"os"

	logs "github.com/danmuck/smplog"
)

const envConfigPath = "SMPLOG_CONFIG"

// Local smplog config candidates, most specific first. These control log
// output only; the store itself is configured through kvlog.toml.
var candidates = []string{
	"./smplog.config.toml",
	"./local/smplog.config.toml",
}

// Load returns the first readable file-backed logging configuration,
// preferring the SMPLOG_CONFIG path, otherwise defaults.
func Load() logs.Config {
	paths := candidates
	if path := os.Getenv(envConfigPath); path != "" {
		paths = append([]string{path}, candidates...)
	}

	for _, path := range paths {
		if cfg, err := logs.ConfigFromFile(path); err == nil {
			return cfg
		}
	}

	return logs.DefaultConfig()
}
