package model

import "math"

// ChecklistItem is a sub-entry of a task. Its lifecycle is bound to the
// parent task (CASCADE delete). Position is an ordering key and may have
// gaps after deletions.
type ChecklistItem struct {
	ID       int64  `json:"id" yaml:"id" db:"id"`
	TaskID   int64  `json:"task_id" yaml:"task_id" db:"task_id"`
	Text     string `json:"text" yaml:"text" db:"text"`
	Checked  bool   `json:"checked" yaml:"checked" db:"checked"`
	Position int    `json:"position" yaml:"position" db:"position"`
}

// Progress summarizes checklist completion.
type Progress struct {
	Total     int `json:"total" yaml:"total"`
	Completed int `json:"completed" yaml:"completed"`
}

// ProgressOf counts the checked items.
func ProgressOf(items []ChecklistItem) Progress {
	p := Progress{Total: len(items)}
	for _, it := range items {
		if it.Checked {
			p.Completed++
		}
	}
	return p
}

// Percent returns the completed share rounded to the nearest integer,
// or 0 for an empty checklist.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return int(math.Round(float64(p.Completed) * 100 / float64(p.Total)))
}
