package insights

import (
	"context"
	"fmt"
)

// HeuristicGenerator derives insights from the profile counters alone. It is
// the default generator and the fallback when the model-backed one fails.
type HeuristicGenerator struct{}

// NewHeuristicGenerator builds the deterministic generator.
func NewHeuristicGenerator() *HeuristicGenerator {
	return &HeuristicGenerator{}
}

// Generate never fails; it returns up to three insight strings.
func (g *HeuristicGenerator) Generate(_ context.Context, summary ProfileSummary) ([]string, error) {
	insights := make([]string, 0, 3)

	if summary.CurrentStreakDays >= 7 {
		insights = append(insights, fmt.Sprintf("Excellent! You have kept your streak going for %d days.", summary.CurrentStreakDays))
	}

	if summary.WeeklyGoalHours > 0 {
		if summary.WeeklyTotalHours >= summary.WeeklyGoalHours {
			insights = append(insights, fmt.Sprintf("Weekly goal reached: %.1f of %.1f hours logged.", summary.WeeklyTotalHours, summary.WeeklyGoalHours))
		} else {
			insights = append(insights, fmt.Sprintf("You have logged %.1f of your %.1f weekly goal hours.", summary.WeeklyTotalHours, summary.WeeklyGoalHours))
		}
	}

	if summary.SkillsCount > 0 {
		insights = append(insights, fmt.Sprintf("You have acquired %d competence(s) so far.", summary.SkillsCount))
	}

	if len(insights) == 0 {
		insights = append(insights, "Log your first session this week to start building a streak.")
	}

	if len(insights) > 3 {
		insights = insights[:3]
	}

	return insights, nil
}
