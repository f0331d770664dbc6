package engine

import (
	"time"

	"github.com/nhle/planner/internal/model"
)

// ReconcileDeadline returns the status a task should hold after its
// deadline is set to deadline (nil clears it), and whether that differs
// from current.
//
// A deadline strictly before now expires the task regardless of its
// checklist. Otherwise an expired task falls back to todo; doing and
// done progress is not restored. Any other status is left alone.
func ReconcileDeadline(current model.Status, deadline *time.Time, now time.Time) (model.Status, bool) {
	if deadline != nil && deadline.Before(now) {
		return model.StatusExpired, current != model.StatusExpired
	}
	if current == model.StatusExpired {
		return model.StatusTodo, true
	}
	return current, false
}
