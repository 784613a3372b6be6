package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/pkg/storage"
)

// Archive writes batch reports to blob storage as JSON.
type Archive struct {
	storage storage.System
	logger  *slog.Logger
}

// NewArchive creates an Archive over store.
func NewArchive(store storage.System, logger *slog.Logger) *Archive {
	return &Archive{
		storage: store,
		logger:  logger.With("system", "archive"),
	}
}

// ReportKey returns the blob key of a batch report.
func ReportKey(periodType scoring.PeriodType, periodStart time.Time, runID uuid.UUID) string {
	return fmt.Sprintf("reports/%s/%s/%s.json", periodType, periodStart.Format(time.DateOnly), runID)
}

// Save uploads report and returns its key. It returns an empty key and no
// error when storage is disabled.
func (a *Archive) Save(ctx context.Context, report *Report) (string, error) {
	key := ReportKey(report.Period.Type, report.Period.Start, report.RunID)

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	if err := a.storage.Upload(ctx, key, bytes.NewReader(body), "application/json"); err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			a.logger.Debug("report archive skipped: storage disabled", "run_id", report.RunID)
			return "", nil
		}
		return "", fmt.Errorf("upload report: %w", err)
	}

	a.logger.Info("report archived", "key", key)
	return key, nil
}

// Load reads an archived report.
func (a *Archive) Load(ctx context.Context, key string) (*Report, error) {
	rc, err := a.storage.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var report Report
	if err := json.NewDecoder(rc).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", key, err)
	}
	return &report, nil
}
