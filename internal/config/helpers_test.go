package config_test

import (
	"os"
	"testing"
)

// unsetAll removes keys for the rest of the test. Pair it with t.Setenv so the
// previous values are restored on cleanup.
func unsetAll(t *testing.T, keys ...string) {
	t.Helper()

	for _, k := range keys {
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("unsetenv %s: %v", k, err)
		}
	}
}
