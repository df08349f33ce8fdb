package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "campcli/internal/errors"
	"campcli/internal/project"
	"campcli/pkg/contracts/domain"
)

const testProjects = `{
	"projects": [
		{
			"name": "Apollo",
			"members": ["A1", "B2", "C3"],
			"sprints": [
				{"name": "Sprint 14", "start": "01.04.2025", "end": "03.04.2025", "confirmed_story_points": 21},
			],
		},
	],
}`

func newPlanningEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	env.writeFile(t, "projects.json", testProjects)
	seedStore(t, env)
	return env
}

var sprint14 = SprintRef{Project: "apollo", Sprint: "sprint 14"}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPlanningService_Totals(t *testing.T) {
	env := newPlanningEnv(t)

	report, err := env.planning.Totals(context.Background(), sprint14)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2", "C3"}, report.Window.Roster)
	require.Len(t, report.Totals, 3)
	assert.True(t, dec("12").Equal(report.Totals["A1"].Hours))
	assert.True(t, dec("1.5").Equal(report.Totals["A1"].Capacity))
	assert.True(t, dec("6").Equal(report.Totals["B2"].Hours))
	assert.True(t, report.Totals["C3"].Hours.IsZero())
}

func TestPlanningService_Grid(t *testing.T) {
	env := newPlanningEnv(t)

	report, err := env.planning.Grid(context.Background(), sprint14)
	require.NoError(t, err)
	require.Len(t, report.Days, 3)
	cells := report.Grid["A1"]
	require.Len(t, cells, 3)
	assert.True(t, cells[0].Available)
	assert.True(t, cells[1].Available)
	assert.False(t, cells[2].Available)
	assert.True(t, dec("4").Equal(cells[1].Hours))
}

func TestPlanningService_Summary(t *testing.T) {
	env := newPlanningEnv(t)

	summary, err := env.planning.Summary(context.Background(), sprint14)
	require.NoError(t, err)
	assert.Equal(t, "Sprint 14", summary.Sprint)
	assert.Equal(t, 3, summary.Members)
	assert.True(t, dec("18").Equal(summary.TotalHours))
	assert.True(t, dec("2.25").Equal(summary.TotalCapacity))
	assert.True(t, dec("1.61").Equal(summary.EstimatedStoryPoints), summary.EstimatedStoryPoints.String())
	require.NotNil(t, summary.ConfirmedStoryPoints)
	assert.Equal(t, 21.0, *summary.ConfirmedStoryPoints)
	assert.Nil(t, summary.DeliveredStoryPoints)
}

func TestPlanningService_AdHocWindow(t *testing.T) {
	env := newTestEnv(t)
	seedStore(t, env)

	ref := SprintRef{Window: domain.SprintWindow{
		Start:  time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		Roster: []string{"A1"},
	}}
	report, err := env.planning.Totals(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, dec("4").Equal(report.Totals["A1"].Hours))

	ref.Window.End = ref.Window.Start.AddDate(0, 0, -1)
	_, err = env.planning.Totals(context.Background(), ref)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeValidation))
}

func TestPlanningService_ResolveErrors(t *testing.T) {
	tests := []struct {
		name     string
		document string
		ref      SprintRef
		wantType apierrors.ErrorType
		wantIs   error
	}{
		{
			name:     "missing project file",
			ref:      sprint14,
			wantType: apierrors.ErrTypeNotFound,
			wantIs:   os.ErrNotExist,
		},
		{
			name:     "unknown project",
			document: testProjects,
			ref:      SprintRef{Project: "Zeus", Sprint: "Sprint 14"},
			wantType: apierrors.ErrTypeNotFound,
			wantIs:   project.ErrProjectNotFound,
		},
		{
			name:     "unknown sprint",
			document: testProjects,
			ref:      SprintRef{Project: "Apollo", Sprint: "Sprint 99"},
			wantType: apierrors.ErrTypeNotFound,
			wantIs:   project.ErrSprintNotFound,
		},
		{
			name:     "malformed document",
			document: `{"projects": [`,
			ref:      sprint14,
			wantType: apierrors.ErrTypeConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.document != "" {
				env.writeFile(t, "projects.json", tt.document)
			}
			_, err := env.planning.Summary(context.Background(), tt.ref)
			require.Error(t, err)
			assert.True(t, apierrors.IsType(err, tt.wantType), "got %v", err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestPlanningService_Export(t *testing.T) {
	env := newPlanningEnv(t)
	ctx := context.Background()

	path, err := env.planning.Export(ctx, sprint14, ReportTotals, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(env.paths.ExportDir, "apollo_sprint-14_totals.csv"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "SUMME;18.00;2.25\n"), string(data))

	path, err = env.planning.Export(ctx, sprint14, ReportGrid, "grid.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(env.paths.ExportDir, "grid.csv"), path)
	assert.FileExists(t, path)

	_, err = env.planning.Export(ctx, sprint14, "burndown", "")
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeValidation))
}
