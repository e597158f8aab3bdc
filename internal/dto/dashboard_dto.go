package dto

import "time"

// DashboardUser is the headline block of the student dashboard.
type DashboardUser struct {
	Name                string  `json:"name"`
	Level               int     `json:"level"`
	XP                  int     `json:"xp"`
	StreakDays          int     `json:"streak_days"`
	TotalLearningHours  float64 `json:"total_learning_hours"`
	SkillsAcquiredCount int64   `json:"skills_acquired_count"`
	GlobalProgress      int     `json:"global_progress"`
}

// DashboardActivity is one recent-activity feed entry. XP gained is
// recomputed from the session duration rather than stored.
type DashboardActivity struct {
	Type     string    `json:"type"`
	Details  string    `json:"details"`
	Date     time.Time `json:"date"`
	XPGained int       `json:"xp_gained"`
}

// WeeklyProgress summarises the current ISO week.
type WeeklyProgress struct {
	WeekStart        time.Time          `json:"week_start"`
	DailyHours       map[string]float64 `json:"daily_hours"`
	TotalHours       float64            `json:"total_hours"`
	CoursesCompleted int                `json:"courses_completed"`
}

// LeaderboardRow ranks one student on the top-hours board.
type LeaderboardRow struct {
	Name       string  `json:"name"`
	Level      int     `json:"level"`
	XP         int     `json:"xp"`
	TotalHours float64 `json:"total_hours"`
	Rank       int     `json:"rank"`
}

// DashboardResponse is the full composed dashboard payload.
type DashboardResponse struct {
	User           DashboardUser         `json:"user"`
	Goals          []GoalResponse        `json:"goals"`
	Achievements   []AchievementResponse `json:"achievements"`
	RecentActivity []DashboardActivity   `json:"recent_activity"`
	WeeklyProgress WeeklyProgress        `json:"weekly_progress"`
	Leaderboard    []LeaderboardRow      `json:"leaderboard"`
	Insights       []string              `json:"insights"`
}
