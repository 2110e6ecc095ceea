package app

import (
	"os"
	"sync"
	"sync/atomic"
)

const testModeEnv = "RECOLEO_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether the binaries should skip startup side effects.
// The test harness sets RECOLEO_TEST_MODE=1 so package tests can import the
// mains without them connecting to Postgres, Redis or Gotenberg.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads the flag after a test mutates the environment.
func RefreshTestMode() {
	detectTestMode()
}
