package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "camp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		env         map[string]string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "data", cfg.Storage.DataDir)
				assert.Equal(t, "kapa_data.csv", cfg.Storage.StoreFile)
				assert.True(t, cfg.Storage.CreateBackup)
				assert.True(t, cfg.Import.OverwriteExisting)
				assert.False(t, cfg.Import.ForecastOnly)
				assert.Equal(t, 20, cfg.Import.SampleRows)
				assert.Equal(t, 1.4, cfg.Planning.StoryPointFactor)
				assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
				assert.False(t, cfg.Telemetry.TracingEnabled)
			},
		},
		{
			name: "file overrides defaults",
			file: "storage:\n  data_dir: /srv/camp\n  create_backup: false\nplanning:\n  story_point_factor: 1.2\nserver:\n  read_timeout: 5s\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/srv/camp", cfg.Storage.DataDir)
				assert.False(t, cfg.Storage.CreateBackup)
				assert.Equal(t, "kapa_data.csv", cfg.Storage.StoreFile)
				assert.Equal(t, 1.2, cfg.Planning.StoryPointFactor)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
			},
		},
		{
			name: "environment overrides file",
			file: "import:\n  forecast_only: false\n",
			env: map[string]string{
				"CAMP_IMPORT_FORECAST_ONLY": "true",
				"CAMP_SERVER_PORT":          "9090",
				"CAMP_LOGGING_LEVEL":        "DEBUG",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Import.ForecastOnly)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name:    "unknown key in file",
			file:    "storage:\n  datadir: x\n",
			wantErr: true,
		},
		{
			name:    "invalid factor",
			env:     map[string]string{"CAMP_PLANNING_STORY_POINT_FACTOR": "0"},
			wantErr: true,
		},
		{
			name:    "invalid log output",
			env:     map[string]string{"CAMP_LOGGING_OUTPUT": "syslog"},
			wantErr: true,
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"CAMP_SERVER_PORT": "eighty"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestNewPaths(t *testing.T) {
	dir := t.TempDir()
	storage := StorageConfig{
		DataDir:     dir,
		StoreFile:   "kapa_data.csv",
		ProjectFile: filepath.Join(dir, "elsewhere", "project.json"),
		ExportDir:   "exports",
	}

	paths, err := NewPaths(storage, LoggingConfig{FilePath: filepath.Join(dir, "logs", "camp.log")})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "kapa_data.csv"), paths.StoreFile)
	assert.Equal(t, filepath.Join(dir, "kapa_data.csv.bak"), paths.BackupFile)
	assert.Equal(t, filepath.Join(dir, "elsewhere", "project.json"), paths.ProjectFile)
	assert.Equal(t, filepath.Join(dir, "exports", "totals.csv"), paths.ExportPath("totals.csv"))
	assert.Equal(t, filepath.Join(dir, "logs"), paths.LogsDir)

	require.NoError(t, paths.EnsureDirectories())
	assert.DirExists(t, paths.ExportDir)
	assert.DirExists(t, paths.LogsDir)
}
