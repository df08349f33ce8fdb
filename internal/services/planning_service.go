package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"campcli/internal/analytics"
	apierrors "campcli/internal/errors"
	"campcli/internal/exporter"
	"campcli/internal/project"
	"campcli/internal/store"
	"campcli/pkg/contracts/domain"
)

// Report kinds accepted by PlanningService.Export
const (
	ReportTotals = "totals"
	ReportGrid   = "grid"
)

// SprintRef names a sprint of the project document. With Project empty the
// Window field is used as an ad-hoc window instead.
type SprintRef struct {
	Project string
	Sprint  string
	Window  domain.SprintWindow
}

// TotalsReport is the per-member sum of a sprint
type TotalsReport struct {
	Window domain.SprintWindow           `json:"window"`
	Totals map[string]domain.SprintTotal `json:"totals"`
}

// GridReport is the per-day capacity grid of a sprint
type GridReport struct {
	Window domain.SprintWindow          `json:"window"`
	Days   []time.Time                  `json:"days"`
	Grid   map[string][]domain.DayCell `json:"grid"`
}

// PlanningService answers sprint planning queries from the store
type PlanningService struct {
	store       *store.Store
	projectFile string
	exporter    *exporter.SprintExporter
	factor      decimal.Decimal
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewPlanningService creates a planning service reading sprints from
// projectFile. A factor <= 0 falls back to analytics.DefaultFactor.
func NewPlanningService(st *store.Store, projectFile string, exp *exporter.SprintExporter, factor float64, logger *slog.Logger) *PlanningService {
	if logger == nil {
		logger = slog.Default()
	}
	f := analytics.DefaultFactor
	if factor > 0 {
		f = decimal.NewFromFloat(factor)
	}
	return &PlanningService{
		store:       st,
		projectFile: projectFile,
		exporter:    exp,
		factor:      f,
		validate:    validator.New(),
		logger:      logger.With(slog.String("component", "planning_service")),
	}
}

// Resolve turns ref into an aggregation window. The project document is
// read on every call so edits are picked up without a restart.
func (s *PlanningService) Resolve(ref SprintRef) (domain.SprintWindow, *project.Sprint, error) {
	if ref.Project == "" {
		if err := s.validate.Struct(ref.Window); err != nil {
			return domain.SprintWindow{}, nil, apierrors.NewAppError(apierrors.ErrTypeValidation, "invalid sprint window", err)
		}
		return ref.Window, nil, nil
	}

	doc, err := project.Load(s.projectFile)
	if err != nil {
		return domain.SprintWindow{}, nil, projectError(err)
	}
	window, sprint, err := doc.Window(ref.Project, ref.Sprint)
	if err != nil {
		return domain.SprintWindow{}, nil, projectError(err).
			WithContext("project", ref.Project).
			WithContext("sprint", ref.Sprint)
	}
	return window, sprint, nil
}

// Totals sums hours and capacity per roster member.
func (s *PlanningService) Totals(ctx context.Context, ref SprintRef) (*TotalsReport, error) {
	window, records, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &TotalsReport{Window: window, Totals: analytics.SprintTotals(records, window)}, nil
}

// Grid builds the per-day grid of every roster member.
func (s *PlanningService) Grid(ctx context.Context, ref SprintRef) (*GridReport, error) {
	window, records, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &GridReport{
		Window: window,
		Days:   window.Days(),
		Grid:   analytics.DailyGrid(records, window),
	}, nil
}

// Summary condenses a sprint into team totals and a story point estimate.
// Confirmed and delivered story points are copied from the project document.
func (s *PlanningService) Summary(ctx context.Context, ref SprintRef) (*domain.SprintSummary, error) {
	window, sprint, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, storageError("read", err)
	}
	summary, err := analytics.Summary(records, window, s.factor)
	if err != nil {
		return nil, apierrors.NewConfigError("invalid story point factor", err)
	}
	if sprint != nil {
		summary.ConfirmedStoryPoints = sprint.ConfirmedStoryPoints
		summary.DeliveredStoryPoints = sprint.DeliveredStoryPoints
	}
	s.logger.DebugContext(ctx, "sprint summary computed",
		slog.String("sprint", window.Name),
		slog.Int("members", summary.Members),
		slog.String("capacity", summary.TotalCapacity.String()),
		slog.String("story_points", summary.EstimatedStoryPoints.String()))
	return &summary, nil
}

// Export writes a totals or grid report as CSV and returns its path.
func (s *PlanningService) Export(ctx context.Context, ref SprintRef, kind, name string) (string, error) {
	window, records, err := s.load(ctx, ref)
	if err != nil {
		return "", err
	}
	if name == "" {
		label := ref.Project
		if label == "" {
			label = "adhoc"
		}
		sprint := window.Name
		if sprint == "" {
			sprint = window.Start.Format(domain.DateKeyLayout)
		}
		name = exporter.ReportName(label, sprint, kind)
	}

	var path string
	switch kind {
	case ReportTotals:
		path, err = s.exporter.ExportTotals(name, window, analytics.SprintTotals(records, window))
	case ReportGrid:
		path, err = s.exporter.ExportGrid(name, window, analytics.DailyGrid(records, window))
	default:
		return "", apierrors.NewAppValidationError("unknown report kind " + kind)
	}
	if err != nil {
		return "", apierrors.NewStorageError("failed to write report", err).WithContext("report", name)
	}
	s.logger.InfoContext(ctx, "sprint report exported",
		slog.String("kind", kind),
		slog.String("path", path))
	return path, nil
}

func (s *PlanningService) load(ctx context.Context, ref SprintRef) (domain.SprintWindow, []domain.CapacityRecord, error) {
	window, _, err := s.Resolve(ref)
	if err != nil {
		return domain.SprintWindow{}, nil, err
	}
	records, err := s.store.Load(ctx)
	if err != nil {
		return domain.SprintWindow{}, nil, storageError("read", err)
	}
	return window, records, nil
}
