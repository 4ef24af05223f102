package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UpdateGoldenEnv rewrites golden files instead of comparing when set.
const UpdateGoldenEnv = "TRAVELNOTES_UPDATE_GOLDEN"

// GoldenString compares rendered output with testdata/<name>.golden.
func GoldenString(t *testing.T, name string, got string) {
	t.Helper()

	goldenPath := filepath.Join("testdata", name+".golden")

	if os.Getenv(UpdateGoldenEnv) != "" {
		require.NoError(t, os.MkdirAll("testdata", 0755))
		require.NoError(t, os.WriteFile(goldenPath, []byte(got), 0644))
		return
	}

	want, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "reading golden file %s", goldenPath)
	assert.Equal(t, string(want), got, "output mismatch for %s", name)
}
