package testconfig

import (
	"os"
	"testing"
)

const (
	SEQUENTIAL_TESTS_ENV_VAR = "CONDER_SEQUENTIAL_TESTS"
)

var (
	PARALLELIZE_SAME_PKG_TESTS = os.Getenv(SEQUENTIAL_TESTS_ENV_VAR) == ""
)

// AllowParallelization marks t as parallel unless CONDER_SEQUENTIAL_TESTS is set.
func AllowParallelization(t *testing.T) {
	if PARALLELIZE_SAME_PKG_TESTS {
		t.Parallel()
	}
}
