package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/kvlog/src/kvstore"
	logs "github.com/danmuck/smplog"
)

const DB_PATH_FLAG = "--db-path"
const VERBOSE_FLAG = "--verbose"

const runtimeConfigPath = "./local/kvlog.toml"

type RuntimeConfig struct {
	LogPath string
	Verbose bool
}

func defaultConfig() RuntimeConfig {
	return RuntimeConfig{
		LogPath: kvstore.DefaultLogPath,
		Verbose: false,
	}
}

var defaultRuntimeConfig = defaultConfig()

// fileConfig mirrors the optional kvlog.toml runtime config file:
//
//	[store]
//	path = "./local/data.db"
//	verbose = false
type fileConfig struct {
	Store struct {
		Path    string `toml:"path"`
		Verbose bool   `toml:"verbose"`
	} `toml:"store"`
}

func loadRuntimeFile(path string) (fileConfig, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fileConfig{}, err
	}
	return fc, nil
}

// loadRuntimeConfig overlays the local config file onto cfg. A missing file
// is fine; a broken one is reported and ignored.
func loadRuntimeConfig(cfg RuntimeConfig) RuntimeConfig {
	fc, err := loadRuntimeFile(runtimeConfigPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logs.Warnf("could not load runtime config %s: %v", runtimeConfigPath, err)
		}
		return cfg
	}
	if fc.Store.Path != "" {
		cfg.LogPath = fc.Store.Path
	}
	if fc.Store.Verbose {
		cfg.Verbose = true
	}
	return cfg
}

// parseCLI applies command-line flags on top of cfg. Flags win over the
// config file, which wins over defaults.
func parseCLI(args []string, cfg RuntimeConfig) (RuntimeConfig, error) {
	runtimeCfg := cfg

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == VERBOSE_FLAG {
			runtimeCfg.Verbose = true
			continue
		}

		if arg == DB_PATH_FLAG {
			if i+1 >= len(args) {
				return runtimeCfg, fmt.Errorf("missing value after %q", DB_PATH_FLAG)
			}
			i++
			path := strings.TrimSpace(args[i])
			if path == "" {
				return runtimeCfg, fmt.Errorf("%s requires a non-empty path", DB_PATH_FLAG)
			}
			runtimeCfg.LogPath = path
			continue
		}

		if after, ok := strings.CutPrefix(arg, DB_PATH_FLAG+"="); ok {
			path := strings.TrimSpace(after)
			if path == "" {
				return runtimeCfg, fmt.Errorf("%s requires a non-empty path", DB_PATH_FLAG)
			}
			runtimeCfg.LogPath = path
			continue
		}

		return runtimeCfg, fmt.Errorf("unknown argument %q", arg)
	}

	return runtimeCfg, nil
}

func printUsage() {
	fmt.Printf("usage: kv [%s <path>] [%s]\n\n", DB_PATH_FLAG, VERBOSE_FLAG)
	fmt.Printf("  %s <path>   append-only log file (default: %s)\n", DB_PATH_FLAG, kvstore.DefaultLogPath)
	fmt.Printf("  %s          log replay and write activity\n", VERBOSE_FLAG)
	fmt.Printf("\nCommands are read from stdin, one per line:\n")
	fmt.Printf("  SET <key> <value>, GET <key>, STATS, HELP, EXIT\n")
}
