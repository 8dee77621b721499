package cmd

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "deep-cover", configBaseName)
	assert.Equal(t, "deep-cover.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "output", outputFlagName)
	assert.Equal(t, "counters", countersFlagName)
	assert.Equal(t, "exclude", excludeFlagName)
	assert.Equal(t, "parallel", reportParallelFlagName)
	assert.Equal(t, "format", formatFlagName)
	assert.Equal(t, "report.parallel", reportParallelConfigKey)
	assert.Equal(t, "report.format", reportFormatConfigKey)
	assert.Equal(t, formatTable, defaultReportFormat)
	assert.Equal(t, "report.counters", countersConfigKey)
	assert.Equal(t, "paths.exclude", excludeConfigKey)
	assert.Equal(t, ".deep-cover/report.mpack", defaultReportsPath)
	assert.Equal(t, ".deep-cover/counters.mpack", defaultCountersPath)
	assert.Equal(t, 1, defaultReportParallel)
	assert.Equal(t, "DEEPCOVER", envPrefix)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  slog.Level
	}{
		{"empty uses default", "", slog.LevelWarn},
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"warning alias", "warning", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"numeric", "-4", slog.LevelDebug},
		{"mixed case", "Info", slog.LevelInfo},
		{"garbage uses default", "loud", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelWarn))
		})
	}
}
