package version

import (
	"runtime/debug"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	saved := readBuildInfo
	savedVersion, savedCommit, savedTime := Version, GitCommit, BuildTime
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() {
		readBuildInfo = saved
		Version, GitCommit, BuildTime = savedVersion, savedCommit, savedTime
	})
}

func devInfo(settings ...debug.BuildSetting) *debug.BuildInfo {
	return &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}, Settings: settings}
}

func TestGetVersion(t *testing.T) {
	t.Run("ldflags", func(t *testing.T) {
		withBuildInfo(t, devInfo())
		Version = "v1.2.0"
		assert.Equal(t, "v1.2.0", GetVersion())
		assert.True(t, IsRelease())
	})

	t.Run("module version", func(t *testing.T) {
		withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "v0.3.1"}})
		assert.Equal(t, "v0.3.1", GetVersion())
	})

	t.Run("vcs revision", func(t *testing.T) {
		withBuildInfo(t, devInfo(debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef"}))
		assert.Equal(t, "dev-0123456", GetVersion())
		assert.Equal(t, "0123456789abcdef", GetGitCommit())
		assert.False(t, IsRelease())
	})

	t.Run("no build info", func(t *testing.T) {
		withBuildInfo(t, nil)
		assert.Equal(t, "dev", GetVersion())
		assert.Equal(t, "unknown", GetGitCommit())
	})
}

func TestBuildInfoString(t *testing.T) {
	withBuildInfo(t, devInfo(debug.BuildSetting{Key: "vcs.modified", Value: "true"}))
	Version = "v1.0.0"
	GitCommit = "abcdef1234"
	BuildTime = "2024-05-01T10:00:00Z"

	info := GetBuildInfo()
	assert.True(t, info.Dirty)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), info.BuildTime)
	assert.Equal(t, "v1.0.0 (abcdef1)", info.Short())

	out := info.String()
	assert.Contains(t, out, "mtb v1.0.0")
	assert.Contains(t, out, "commit:   abcdef1234 (modified)")
	assert.Contains(t, out, "built:    2024-05-01T10:00:00Z")
	assert.Contains(t, out, "platform: ")
}

func TestParseBuildTime(t *testing.T) {
	tests := []struct {
		in   string
		zero bool
	}{
		{"2024-05-01T10:00:00Z", false},
		{"2024-05-01T10:00:00", false},
		{"2024-05-01 10:00:00", false},
		{"unknown", true},
		{"", true},
		{"yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.zero, parseBuildTime(tt.in).IsZero())
		})
	}
}
