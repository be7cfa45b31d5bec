package planner

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/termplan/internal/catalog"
	"github.com/hpungsan/termplan/internal/course"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		completed, required, want int
	}{
		{0, 120, 0},
		{10, 120, 8},
		{60, 120, 50},
		{1, 3, 33},
		{2, 3, 67},
		{130, 120, 100},
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Progress(tt.completed, tt.required), "%d/%d", tt.completed, tt.required)
	}
}

func TestView(t *testing.T) {
	s := newSession(t, staticGenerator(twoTermSchedule()), testCatalog())
	require.NoError(t, s.Regenerate(context.Background()))

	v := s.View()
	assert.Equal(t, s.ID(), v.SessionID)
	assert.Equal(t, "Computer Science", v.Major)
	assert.Equal(t, "Fall 2024", v.CurrentTerm)
	assert.Equal(t, "Spring 2025", v.NextTerm)
	assert.Equal(t, 20, v.CreditCap)
	assert.Equal(t, 10, v.CompletedCredits)
	assert.Equal(t, 120, v.TotalCreditsRequired)
	assert.Equal(t, 8, v.ProgressPercent)

	require.Len(t, v.History, 2)
	for _, h := range v.History {
		assert.Equal(t, KindHistory, h.Kind)
		assert.True(t, h.Collapsed)
		assert.Nil(t, h.Slot)
	}
	assert.Equal(t, 7, v.History[0].TotalCredits)

	assert.Equal(t, KindCurrent, v.Current.Kind)
	require.NotNil(t, v.Current.Slot)
	assert.True(t, v.Current.Slot.IsCurrent())
	assert.False(t, v.Current.Collapsed)
	assert.Equal(t, course.DifficultyUnknown, v.Current.Difficulty)

	require.Len(t, v.Future, 2)
	assert.Equal(t, "Fall 2025", v.Future[1].Term)
	assert.Equal(t, 1, v.Future[1].Slot.Index())
}

func TestView_Difficulty(t *testing.T) {
	hard := 4.2
	c := mk("CS 301", 3)
	c.AvgDifficulty = &hard
	s := newSession(t, staticGenerator(catalog.Schedule{{Term: "Spring 2025", Courses: []course.Course{c}}}), testCatalog())
	require.NoError(t, s.Regenerate(context.Background()))

	v := s.View()
	require.Len(t, v.Future, 1)
	assert.Equal(t, course.DifficultyHard, v.Future[0].Difficulty)
}

func TestView_JSON(t *testing.T) {
	s := newSession(t, staticGenerator(nil), testCatalog())
	data, err := json.Marshal(s.View())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "current", raw["current"].(map[string]any)["slot"])
	assert.NotContains(t, raw, "last_error")
	assert.Equal(t, []any{}, raw["future"])
}
