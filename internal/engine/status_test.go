package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/nhle/planner/internal/model"
)

func items(checked ...bool) []model.ChecklistItem {
	out := make([]model.ChecklistItem, len(checked))
	for i, c := range checked {
		out[i] = model.ChecklistItem{ID: int64(i + 1), Text: "item", Checked: c, Position: i}
	}
	return out
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name  string
		items []model.ChecklistItem
		want  model.Status
	}{
		{"empty", nil, model.StatusTodo},
		{"none checked", items(false, false), model.StatusTodo},
		{"one of two", items(true, false), model.StatusDoing},
		{"all checked", items(true, true, true), model.StatusDone},
		{"single checked", items(true), model.StatusDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.items))
		})
	}
}

func TestDeriveProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		checked := rapid.SliceOf(rapid.Bool()).Draw(t, "checked")
		got := Derive(items(checked...))

		if got == model.StatusExpired {
			t.Fatalf("derived expired from %v", checked)
		}

		n := 0
		for _, c := range checked {
			if c {
				n++
			}
		}
		switch {
		case n == 0 && got != model.StatusTodo:
			t.Fatalf("want todo for %v, got %s", checked, got)
		case n > 0 && n == len(checked) && got != model.StatusDone:
			t.Fatalf("want done for %v, got %s", checked, got)
		case n > 0 && n < len(checked) && got != model.StatusDoing:
			t.Fatalf("want doing for %v, got %s", checked, got)
		}
	})
}

func TestReconcileDeadline(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name        string
		current     model.Status
		deadline    *time.Time
		want        model.Status
		wantChanged bool
	}{
		{"past expires todo", model.StatusTodo, &past, model.StatusExpired, true},
		{"past expires done", model.StatusDone, &past, model.StatusExpired, true},
		{"past keeps expired", model.StatusExpired, &past, model.StatusExpired, false},
		{"future restores expired", model.StatusExpired, &future, model.StatusTodo, true},
		{"clear restores expired", model.StatusExpired, nil, model.StatusTodo, true},
		{"future leaves doing", model.StatusDoing, &future, model.StatusDoing, false},
		{"clear leaves done", model.StatusDone, nil, model.StatusDone, false},
		{"exactly now is not past", model.StatusTodo, &now, model.StatusTodo, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := ReconcileDeadline(tt.current, tt.deadline, now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}
