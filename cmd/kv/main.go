package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danmuck/kvlog/cmd/internal/logcfg"
	"github.com/danmuck/kvlog/src/kvstore"
	logs "github.com/danmuck/smplog"
)

func main() {
	logs.Configure(logcfg.Load())

	cfg, err := parseCLI(os.Args[1:], loadRuntimeConfig(defaultRuntimeConfig))
	if err != nil {
		fmt.Printf("Error: %v\n\n", err)
		printUsage()
		os.Exit(1)
	}

	if err := createDirPath(filepath.Dir(cfg.LogPath)); err != nil {
		logs.Fatalf(err, "Failed to ensure data directory for %s", cfg.LogPath)
	}

	store, err := kvstore.OpenWithConfig(kvstore.StoreConfig{
		LogPath: cfg.LogPath,
		Verbose: cfg.Verbose,
	})
	if err != nil {
		logs.Fatalf(err, "Failed to open store at %s", cfg.LogPath)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logs.Warnf("failed to close store: %v", err)
		}
	}()

	interactive := isInteractiveInput(os.Stdin)
	if interactive {
		st := store.Stats()
		logs.Infof("store ready: %d record(s), %d key(s) loaded from %s",
			st.Records, st.Keys, cfg.LogPath)
	}

	if err := runSession(store, os.Stdin, os.Stdout, interactive); err != nil {
		logs.Fatalf(err, "Session failed")
	}
}

func createDirPath(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
