package insights

import "context"

// ProfileSummary is the activity snapshot an insight generator works from.
type ProfileSummary struct {
	FirstName         string
	Level             int
	ExperiencePoints  int
	TotalHours        float64
	WeeklyTotalHours  float64
	WeeklyGoalHours   float64
	CurrentStreakDays int
	SkillsCount       int64
	GlobalProgress    int
}

// Generator produces short motivational insight strings for the dashboard.
// Implementations must return at most three entries.
type Generator interface {
	Generate(ctx context.Context, summary ProfileSummary) ([]string, error)
}
