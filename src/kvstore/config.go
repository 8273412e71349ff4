package kvstore

// DefaultLogPath is where binaries keep the log when no path is configured.
const DefaultLogPath = "./local/data.db"

// StoreConfig controls runtime behavior of a Store instance.
type StoreConfig struct {
	LogPath string // path of the append-only log file
	Verbose bool   // when true, emit replay and write activity via smplog
}

// DefaultConfig returns a quiet StoreConfig over the given log path.
func DefaultConfig(logPath string) StoreConfig {
	return StoreConfig{
		LogPath: logPath,
		Verbose: false,
	}
}
