package history

import (
	"context"

	"github.com/harrison/sweeper/internal/models"
)

// Sink records sweep progress into a Store as runs are finalized.
type Sink struct {
	store *Store
}

// NewSink wraps store. The caller keeps ownership of the store.
func NewSink(store *Store) *Sink {
	return &Sink{store: store}
}

// Begin records the sweep before its first run.
func (s *Sink) Begin(report *models.SweepReport) error {
	return s.store.SaveSweep(context.Background(), report)
}

// Record stores the run and refreshes the sweep counts.
func (s *Sink) Record(report *models.SweepReport, record models.RunRecord) error {
	ctx := context.Background()
	if err := s.store.SaveRun(ctx, report.SweepID, record); err != nil {
		return err
	}
	return s.store.SaveSweep(ctx, report)
}

// Finish stores the final counts and finish time.
func (s *Sink) Finish(report *models.SweepReport) error {
	return s.store.SaveSweep(context.Background(), report)
}
