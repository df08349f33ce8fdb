package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hoursCSV = "ID;Datum;Stunden\nA1;01.04.2025;8\nB2;01.04.2025;4\n"

const projectDocument = `{
	// trailing commas and comments are fine
	"projects": [
		{"name": "Apollo", "members": ["A1", "B2", "C3"],
		 "sprints": [{"name": "Sprint 14", "start": "01.04.2025", "end": "02.04.2025", "confirmed_story_points": 21}]},
	],
}`

func TestIngestCommand(t *testing.T) {
	env := newCLIEnv(t)
	input := env.writeFile(t, "hours.csv", hoursCSV)

	stdout, stderr, err := env.run(t, "ingest", input)
	require.NoError(t, err)
	assert.Equal(t, "hours.csv: delimited, 2 extracted, 2 written (2 new, 0 updated, 0 unchanged), 0 warning(s)\n", stdout)
	assert.Empty(t, stderr)

	stdout, _, err = env.run(t, "records", "list")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ID", "DATUM", "STUNDEN", "KAPAZITÄT"},
		{"A1", "01.04.2025", "8.0", "1.0"},
		{"B2", "01.04.2025", "4.0", "0.5"},
	}, fields(stdout))

	// Re-ingesting the same file changes nothing.
	stdout, _, err = env.run(t, "ingest", input)
	require.NoError(t, err)
	assert.Contains(t, stdout, "(0 new, 0 updated, 2 unchanged)")
}

func TestIngestCommand_Options(t *testing.T) {
	env := newCLIEnv(t)
	first := env.writeFile(t, "first.csv", hoursCSV)
	second := env.writeFile(t, "second.csv", "ID;Datum;Stunden\nA1;01.04.2025;2\n")
	timesheet := env.writeFile(t, "timesheet.csv", "Datum;Stunden\n02.04.2025;6\n")

	_, _, err := env.run(t, "ingest", first)
	require.NoError(t, err)

	stdout, _, err := env.run(t, "ingest", "--overwrite=false", second)
	require.NoError(t, err)
	assert.Contains(t, stdout, "0 written")

	_, _, err = env.run(t, "ingest", "--employee", "C3", timesheet)
	require.NoError(t, err)

	stdout, _, err = env.run(t, "records", "list", "--query", "c3", "--column", "id")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ID", "DATUM", "STUNDEN", "KAPAZITÄT"},
		{"C3", "02.04.2025", "6.0", "0.75"},
	}, fields(stdout))

	stdout, _, err = env.run(t, "records", "list", "--query", "a1", "--column", "id")
	require.NoError(t, err)
	assert.Contains(t, stdout, "8.0")
}

func TestIngestCommand_Failures(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		env := newCLIEnv(t)
		_, _, err := env.run(t, "ingest", filepath.Join(env.dir, "nope.csv"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("no arguments", func(t *testing.T) {
		env := newCLIEnv(t)
		_, _, err := env.run(t, "ingest")
		require.Error(t, err)
	})

	t.Run("one bad file in a batch", func(t *testing.T) {
		env := newCLIEnv(t)
		good := env.writeFile(t, "good.csv", hoursCSV)
		bad := env.writeFile(t, "empty.csv", "")

		stdout, stderr, err := env.run(t, "ingest", bad, good)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, err.Error(), "1 of 2 file(s) failed")
		assert.Contains(t, stderr, "failed: empty.csv")
		assert.Contains(t, stdout, "good.csv: delimited")

		_, err = os.Stat(filepath.Join(env.dir, "kapa_data.csv"))
		assert.NoError(t, err)
	})

	t.Run("file without valid rows", func(t *testing.T) {
		env := newCLIEnv(t)
		bad := env.writeFile(t, "nodates.csv", "ID;Datum;Stunden\nA1;kein datum;8\nB2;99.99.2025;4\n")

		_, stderr, err := env.run(t, "--verbose", "ingest", bad)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, stderr, "failed: nodates.csv")
		assert.Contains(t, stderr, "nodates.csv: warning: nodates.csv row 2")
		assert.Contains(t, stderr, "nodates.csv: warning: nodates.csv row 3")

		_, err = os.Stat(filepath.Join(env.dir, "kapa_data.csv"))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestIngestCommand_WarningsAndJSON(t *testing.T) {
	env := newCLIEnv(t)
	input := env.writeFile(t, "hours.csv", "ID;Datum;Stunden\nA1;01.04.2025;8\nB2;kein datum;4\n")

	stdout, stderr, err := env.run(t, "--format", "json", "ingest", input)
	require.NoError(t, err)
	assert.Contains(t, stderr, "warning(s), use --verbose to list them")

	var out struct {
		Results []struct {
			Source         string   `json:"source"`
			RecordsWritten int      `json:"records_written"`
			Warnings       []string `json:"warnings"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, "hours.csv", out.Results[0].Source)
	assert.Equal(t, 1, out.Results[0].RecordsWritten)
	assert.NotEmpty(t, out.Results[0].Warnings)

	_, stderr, err = env.run(t, "--verbose", "ingest", input)
	require.NoError(t, err)
	assert.Contains(t, stderr, "hours.csv: warning:")
}

func TestIngestCommand_MetricsFile(t *testing.T) {
	env := newCLIEnv(t)
	input := env.writeFile(t, "hours.csv", hoursCSV)
	metrics := filepath.Join(t.TempDir(), "camp.prom")

	_, _, err := env.run(t, "--metrics-file", metrics, "ingest", input)
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `camp_ingest_rows_total{outcome="inserted"} 2`)
	assert.Contains(t, string(data), "camp_store_records 2")
}

func TestRecordsCommands(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run(t, "ingest", env.writeFile(t, "hours.csv", hoursCSV))
	require.NoError(t, err)

	t.Run("delete needs pairs", func(t *testing.T) {
		_, _, err := env.run(t, "records", "delete", "A1")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("delete rejects bad dates", func(t *testing.T) {
		_, _, err := env.run(t, "records", "delete", "A1", "someday")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("delete", func(t *testing.T) {
		stdout, _, err := env.run(t, "records", "delete", "A1", "2025-04-01", "Z9", "01.04.2025")
		require.NoError(t, err)
		assert.Equal(t, "removed 1 of 2 record(s)\n", stdout)
	})

	t.Run("clear needs force", func(t *testing.T) {
		_, _, err := env.run(t, "records", "clear")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("clear and restore", func(t *testing.T) {
		stdout, _, err := env.run(t, "records", "clear", "--force")
		require.NoError(t, err)
		assert.Contains(t, stdout, "store cleared, previous content saved to")

		stdout, _, err = env.run(t, "records", "list")
		require.NoError(t, err)
		assert.Equal(t, "no records\n", stdout)

		_, _, err = env.run(t, "records", "restore")
		require.NoError(t, err)

		stdout, _, err = env.run(t, "records", "list")
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"ID", "DATUM", "STUNDEN", "KAPAZITÄT"},
			{"B2", "01.04.2025", "4.0", "0.5"},
		}, fields(stdout))
	})

	t.Run("export", func(t *testing.T) {
		stdout, _, err := env.run(t, "records", "export")
		require.NoError(t, err)
		path := filepath.Join(env.dir, "exports", "capacity_export.csv")
		assert.Equal(t, "exported to "+path+"\n", stdout)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "ID;DATUM;STUNDEN;KAPAZITÄT\nB2;01.04.2025;4.0;0.5\n", string(data))
	})

	t.Run("unknown column", func(t *testing.T) {
		_, _, err := env.run(t, "records", "list", "--query", "x", "--column", "team")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestSprintCommands(t *testing.T) {
	env := newCLIEnv(t)
	env.writeFile(t, "project.json", projectDocument)
	_, _, err := env.run(t, "ingest", env.writeFile(t, "hours.csv", hoursCSV))
	require.NoError(t, err)

	t.Run("totals for a project sprint", func(t *testing.T) {
		stdout, _, err := env.run(t, "sprint", "totals", "--project", "Apollo", "--sprint", "Sprint 14")
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"ID", "STUNDEN", "KAPAZITÄT"},
			{"A1", "8.00", "1.00"},
			{"B2", "4.00", "0.50"},
			{"C3", "0.00", "0.00"},
			{"SUMME", "12.00", "1.50"},
		}, fields(stdout))
	})

	t.Run("grid for an ad-hoc window", func(t *testing.T) {
		stdout, _, err := env.run(t, "sprint", "grid",
			"--start", "01.04.2025", "--end", "2025-04-02", "-m", "B2", "-m", "A1")
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"ID", "01.04.2025", "02.04.2025"},
			{"B2", "4.00", "-"},
			{"A1", "8.00", "-"},
		}, fields(stdout))
	})

	t.Run("summary", func(t *testing.T) {
		stdout, _, err := env.run(t, "sprint", "summary", "-p", "Apollo", "-s", "Sprint 14")
		require.NoError(t, err)
		assert.Contains(t, stdout, "members:         3")
		assert.Contains(t, stdout, "capacity:        1.5")
		assert.Contains(t, stdout, "story points:    1.07 (factor 1.4)")
		assert.Contains(t, stdout, "confirmed:       21")
	})

	t.Run("export", func(t *testing.T) {
		stdout, _, err := env.run(t, "sprint", "totals", "-p", "Apollo", "-s", "Sprint 14", "--export", "-o", "apollo.csv")
		require.NoError(t, err)
		path := filepath.Join(env.dir, "exports", "apollo.csv")
		assert.Equal(t, "totals report written to "+path+"\n", stdout)
		assert.FileExists(t, path)
	})

	t.Run("unknown sprint", func(t *testing.T) {
		_, _, err := env.run(t, "sprint", "totals", "-p", "Apollo", "-s", "Sprint 99")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestSprintOptionsRef(t *testing.T) {
	tests := []struct {
		name    string
		opts    SprintOptions
		wantErr bool
	}{
		{"project sprint", SprintOptions{Project: "Apollo", Sprint: "S1"}, false},
		{"ad-hoc window", SprintOptions{Start: "01.04.2025", End: "02.04.2025", Members: []string{"A1"}}, false},
		{"nothing", SprintOptions{}, true},
		{"project without sprint", SprintOptions{Project: "Apollo"}, true},
		{"both selections", SprintOptions{Project: "Apollo", Sprint: "S1", Start: "01.04.2025"}, true},
		{"missing end", SprintOptions{Start: "01.04.2025"}, true},
		{"bad start", SprintOptions{Start: "soon", End: "02.04.2025"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := tt.opts.ref()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ExitCommandError, GetExitCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.opts.Project, ref.Project)
		})
	}
}
