package approval

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/db/models"
)

// FindStaleAssignments returns pending assignments created before now minus olderThan, oldest first.
// It only reads; stuck instances are left for people to resolve.
func (e *Engine) FindStaleAssignments(ctx context.Context, olderThan time.Duration) ([]models.ApprovalAssignment, error) {
	var rows []models.ApprovalAssignment

	err := e.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.AssignmentPending, e.now().Add(-olderThan)).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to find stale assignments"))
	}

	return rows, nil
}

// StaleReporter logs stale assignments on a schedule.
type StaleReporter struct {
	engine    *Engine
	olderThan time.Duration
}

// NewStaleReporter creates a reporter for assignments pending longer than olderThan.
func NewStaleReporter(engine *Engine, olderThan time.Duration) *StaleReporter {
	return &StaleReporter{engine: engine, olderThan: olderThan}
}

// Report logs every stale assignment and updates the gauge. It returns how many were found.
func (r *StaleReporter) Report(ctx context.Context) (int, error) {
	rows, err := r.engine.FindStaleAssignments(ctx, r.olderThan)
	if err != nil {
		return 0, err
	}

	staleAssignments.Set(float64(len(rows)))

	for i := range rows {
		a := &rows[i]
		ev := log.Warn().Uint64("assignment_id", a.ID).Uint64("instance_id", a.InstanceID).
			Uint64("team_id", a.TeamID).Int("step_order", a.StepOrder).Time("created_at", a.CreatedAt)

		if a.AssignedUserID != nil {
			ev = ev.Uint64("assigned_user_id", *a.AssignedUserID)
		}

		if a.Role != nil {
			ev = ev.Str("role", string(*a.Role))
		}

		ev.Msg("stale approval assignment")
	}

	return len(rows), nil
}

// Run is the cron entry point.
func (r *StaleReporter) Run() {
	if _, err := r.Report(context.Background()); err != nil {
		log.Error().Err(err).Msg("stale assignment report failed")
	}
}
