package models

import (
	"errors"
	"math"
	"time"

	"gorm.io/datatypes"
)

// Activity types a session can be logged under.
const (
	ActivityTypeLearning      = "LEARNING"
	ActivityTypePractice      = "PRACTICE"
	ActivityTypeProject       = "PROJECT"
	ActivityTypeAssessment    = "ASSESSMENT"
	ActivityTypeCollaboration = "COLLABORATION"
)

// Session validation failures, surfaced to callers as 400s.
var (
	ErrInvalidDuration  = errors.New("session duration must be positive")
	ErrInvalidTimeRange = errors.New("session end time must not precede start time")
)

// ActivitySession is a single timed unit of study logged against a profile.
// Sessions are immutable once recorded.
type ActivitySession struct {
	ID              uint                      `gorm:"primaryKey" json:"id"`
	ProfileID       uint                      `gorm:"not null;index" json:"profile_id"`
	ActivityType    string                    `gorm:"size:32;not null" json:"activity_type"`
	DurationMinutes float64                   `gorm:"not null" json:"duration_minutes"`
	StartTime       time.Time                 `gorm:"not null;index" json:"start_time"`
	EndTime         time.Time                 `gorm:"not null" json:"end_time"`
	CompetenceIDs   datatypes.JSONSlice[uint] `json:"competence_ids,omitempty"`
	FormationID     *uint                     `json:"formation_id,omitempty"`
	Notes           string                    `gorm:"size:1024" json:"notes,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
}

// ActivityProfile accumulates a student's activity counters. It is created
// once per student with zero-valued counters and mutated only through
// AddSession and ResetWeeklyStats; every derived field can be recomputed by
// replaying Sessions from zero.
type ActivityProfile struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	StudentID         uint              `gorm:"uniqueIndex;not null" json:"student_id"`
	TotalHours        float64           `gorm:"default:0;index" json:"total_hours"`
	WeeklyTotalHours  float64           `gorm:"default:0" json:"weekly_total_hours"`
	CurrentStreakDays int               `gorm:"default:0" json:"current_streak_days"`
	LongestStreakDays int               `gorm:"default:0" json:"longest_streak_days"`
	Level             int               `gorm:"default:1" json:"level"`
	ExperiencePoints  int               `gorm:"default:0" json:"experience_points"`
	LastActivityDate  time.Time         `json:"last_activity_date"`
	LastWeeklyReset   time.Time         `json:"last_weekly_reset"`
	DailyGoalMinutes  int               `gorm:"default:60" json:"daily_goal_minutes"`
	WeeklyGoalHours   float64           `gorm:"default:10" json:"weekly_goal_hours"`
	Sessions          []ActivitySession `gorm:"foreignKey:ProfileID" json:"sessions,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// NewActivityProfile returns a zero-valued profile for a freshly created
// student. LastActivityDate starts at creation time so the first streak
// computation has a reference day.
func NewActivityProfile(studentID uint, now time.Time) ActivityProfile {
	return ActivityProfile{
		StudentID:        studentID,
		Level:            1,
		LastActivityDate: now,
		LastWeeklyReset:  WeekStart(now),
		DailyGoalMinutes: 60,
		WeeklyGoalHours:  10,
	}
}

// SessionXP is the experience gained for a session of the given length.
func SessionXP(durationMinutes float64) int {
	return int(math.Floor(durationMinutes * 2))
}

// LevelForXP derives the level from accumulated experience: 100 XP per level.
func LevelForXP(experiencePoints int) int {
	return experiencePoints/100 + 1
}

// AddSession validates and appends a session, then updates every cumulative
// counter and the streak. It returns the XP gained. On a validation error the
// profile is left untouched.
func (p *ActivityProfile) AddSession(session ActivitySession, now time.Time) (int, error) {
	if session.DurationMinutes <= 0 {
		return 0, ErrInvalidDuration
	}
	if session.EndTime.Before(session.StartTime) {
		return 0, ErrInvalidTimeRange
	}

	previousActivity := p.LastActivityDate

	p.Sessions = append(p.Sessions, session)
	p.TotalHours += session.DurationMinutes / 60
	p.WeeklyTotalHours += session.DurationMinutes / 60
	p.LastActivityDate = session.EndTime

	xpGained := SessionXP(session.DurationMinutes)
	p.ExperiencePoints += xpGained
	p.Level = LevelForXP(p.ExperiencePoints)

	p.updateStreak(previousActivity, now)

	return xpGained, nil
}

// updateStreak applies the calendar-day streak policy against the activity
// date that preceded the session being recorded. A negative day difference
// (backfilled or clock-skewed session) leaves the streak unchanged, the same
// as same-day activity.
func (p *ActivityProfile) updateStreak(previousActivity, now time.Time) {
	if previousActivity.IsZero() {
		p.CurrentStreakDays = 1
	} else {
		switch diff := calendarDayDiff(previousActivity, now); {
		case diff <= 0:
			// Same-day or backdated activity never breaks or extends a
			// running streak, but the very first session still starts one.
			if p.CurrentStreakDays == 0 {
				p.CurrentStreakDays = 1
			}
		case diff == 1:
			p.CurrentStreakDays++
		default:
			p.CurrentStreakDays = 1
		}
	}

	if p.CurrentStreakDays > p.LongestStreakDays {
		p.LongestStreakDays = p.CurrentStreakDays
	}
}

// ResetWeeklyStats zeroes the weekly counter. Cadence is the caller's
// concern; the session service applies it opportunistically when a new ISO
// week has started.
func (p *ActivityProfile) ResetWeeklyStats(now time.Time) {
	p.WeeklyTotalHours = 0
	p.LastWeeklyReset = now
}

// NeedsWeeklyReset reports whether the last reset predates the current ISO
// week.
func (p *ActivityProfile) NeedsWeeklyReset(now time.Time) bool {
	return p.LastWeeklyReset.Before(WeekStart(now))
}

// DailyHours buckets this week's sessions into hours per weekday. The result
// always contains exactly the seven weekday keys, zero-filled.
func (p *ActivityProfile) DailyHours(now time.Time) map[string]float64 {
	buckets := map[string]float64{
		"Mon": 0, "Tue": 0, "Wed": 0, "Thu": 0, "Fri": 0, "Sat": 0, "Sun": 0,
	}

	weekStart := WeekStart(now)
	for _, session := range p.Sessions {
		if session.StartTime.Before(weekStart) {
			continue
		}
		buckets[session.StartTime.Weekday().String()[:3]] += session.DurationMinutes / 60
	}

	return buckets
}

// GlobalProgress scores overall advancement in [0,100]: two linear ramps
// capped at 50 points each, one over study hours and one over acquired
// skills. Presentation heuristic only.
func GlobalProgress(totalHours float64, skillsCount int) int {
	hoursProgress := math.Min(totalHours/200, 1) * 50
	skillsProgress := math.Min(float64(skillsCount)/20, 1) * 50

	return int(math.Floor(hoursProgress + skillsProgress))
}

// WeekStart truncates to the ISO week start: Monday at local midnight.
func WeekStart(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(midnight.Weekday()) + 6) % 7

	return midnight.AddDate(0, 0, -offset)
}

// calendarDayDiff counts whole calendar days from a to b, ignoring
// time-of-day.
func calendarDayDiff(a, b time.Time) int {
	dayA := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, a.Location())
	dayB := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, b.Location())

	return int(math.Floor(dayB.Sub(dayA).Hours() / 24))
}
