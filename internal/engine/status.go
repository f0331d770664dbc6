package engine

import "github.com/nhle/planner/internal/model"

// Derive computes a task status from its checklist. It never yields
// expired; that state belongs to the deadline engine.
func Derive(items []model.ChecklistItem) model.Status {
	p := model.ProgressOf(items)
	switch {
	case p.Total == 0, p.Completed == 0:
		return model.StatusTodo
	case p.Completed == p.Total:
		return model.StatusDone
	default:
		return model.StatusDoing
	}
}
