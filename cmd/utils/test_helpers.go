package utils

import (
	"os"
	"strings"
	"testing"
)

// ClearTestEnvironment blanks every env var for the duration of the test, so config options only see what the test
// sets.
func ClearTestEnvironment(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if key == "" {
			continue
		}
		t.Setenv(key, "")
	}
}
