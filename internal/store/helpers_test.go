package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"campcli/internal/config"
	"campcli/internal/files"
	"campcli/internal/normalize"
	"campcli/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(employee string, date time.Time, hours string) domain.CapacityRecord {
	h := decimal.RequireFromString(hours)
	return domain.CapacityRecord{
		EmployeeID: employee,
		Date:       date,
		Hours:      h,
		Capacity:   normalize.Capacity(h),
	}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	fm := files.NewManager(&config.Paths{DataDir: dir}, discardLogger())
	path := filepath.Join(dir, "kapa_data.csv")
	return New(path, path+config.BackupSuffix, fm, discardLogger()), dir
}

// render flattens records for readable comparisons.
func render(records []domain.CapacityRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.EmployeeID+";"+normalize.FormatDate(r.Date)+";"+
			normalize.FormatDecimal(r.Hours)+";"+normalize.FormatDecimal(r.Capacity))
	}
	return out
}
