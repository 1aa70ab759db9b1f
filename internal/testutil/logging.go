package testutil

import (
	"os"
	"path/filepath"

	"github.com/bitmark-inc/logger"
)

// LogCategory is the log file name used by test binaries.
const LogCategory = "testing"

// SetupTestLogger initialises the global logger into a fresh temporary
// directory. Call it from TestMain before anything calls logger.New.
func SetupTestLogger() string {
	dir, err := os.MkdirTemp("", "liganite-log-")
	if err != nil {
		panic(err)
	}
	logging := logger.Configuration{
		Directory: dir,
		File:      LogCategory + ".log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	if err := logger.Initialise(logging); err != nil {
		panic(err)
	}
	return dir
}

// TeardownTestLogger flushes the logger and removes dir.
func TeardownTestLogger(dir string) {
	logger.Finalise()
	_ = os.RemoveAll(filepath.Clean(dir))
}

// RunWithLogger wraps m.Run with logger setup and teardown and returns the
// exit code for os.Exit.
func RunWithLogger(run func() int) int {
	dir := SetupTestLogger()
	defer TeardownTestLogger(dir)
	return run()
}
