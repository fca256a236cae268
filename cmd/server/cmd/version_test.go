package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
	Version = "1.0.0"
	GitCommit = "abc123"
	BuildDate = "2026-10-01T12:00:00Z"

	out, err := execute(t, "version")
	require.NoError(t, err)
	for _, want := range []string{
		"Meetup Server",
		"Version:    1.0.0",
		"Git commit: abc123",
		"Build date: 2026-10-01T12:00:00Z",
		"Go version:",
		"Platform:",
	} {
		require.Contains(t, out, want)
	}
}

func TestVersionCommand_RejectsArgs(t *testing.T) {
	_, err := execute(t, "version", "extra")
	require.Error(t, err)
}
