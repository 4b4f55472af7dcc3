package domain

import (
	"encoding/json"
	"time"
)

const xpPerLevel = 1000

// LevelInfo is the gamification summary shown next to the task list.
type LevelInfo struct {
	Level         int     `json:"level"`
	Progress      float64 `json:"progress"`
	XPToNextLevel int     `json:"xp_to_next_level"`
	CurrentStreak int     `json:"current_streak"`
	BestStreak    int     `json:"best_streak"`
}

// DefaultLevelInfo is reported before the first snapshot arrives and after logout.
func DefaultLevelInfo() LevelInfo {
	return LevelInfo{Level: 1, Progress: 0, XPToNextLevel: xpPerLevel}
}

// LevelFor derives level, progress percentage and remaining XP from a total.
func LevelFor(totalXP int) (level int, progress float64, toNext int) {
	if totalXP < 0 {
		totalXP = 0
	}
	rem := totalXP % xpPerLevel
	return totalXP/xpPerLevel + 1, float64(rem) / 10, xpPerLevel - rem
}

// XPForPriority is the optimistic XP award for completing a task.
func XPForPriority(p Priority) int {
	if p <= 0 {
		return 10
	}
	return int(p) * 10
}

type UserStats struct {
	TotalXP             int     `json:"total_xp"`
	Level               int     `json:"level"`
	LevelProgress       float64 `json:"level_progress"`
	XPToNextLevel       int     `json:"xp_to_next_level"`
	CurrentStreak       int     `json:"current_streak"`
	BestStreak          int     `json:"best_streak"`
	TotalTasksCompleted int     `json:"total_tasks_completed,omitempty"`
}

// AddXP applies an XP delta and recomputes the derived level fields.
func (u *UserStats) AddXP(xp int) {
	u.TotalXP += xp
	u.Level, u.LevelProgress, u.XPToNextLevel = LevelFor(u.TotalXP)
}

type WeeklyMetrics struct {
	TasksCompleted int `json:"tasks_completed"`
	Goal           int `json:"goal"`
}

type TaskDigest struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Priority     Priority   `json:"priority"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Completed    bool       `json:"is_completed,omitempty"`
	DaysUntilDue int        `json:"days_until_due,omitempty"`
}

type RatePoint struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// Snapshot is the dashboard view of a user's analytics. Only a refresh replaces the
// read-only aggregates; optimistic completions touch UserStats and WeeklyMetrics only.
type Snapshot struct {
	UserStats            UserStats      `json:"user_stats"`
	WeeklyMetrics        WeeklyMetrics  `json:"weekly_metrics"`
	WeeklyCompletion     float64        `json:"weekly_completion"`
	ProductivityScore    int            `json:"productivity_score"`
	TodayTasks           []TaskDigest   `json:"today_tasks,omitempty"`
	UpcomingDeadlines    []TaskDigest   `json:"upcoming_deadlines,omitempty"`
	CategoryDistribution map[string]int `json:"category_distribution,omitempty"`
	TimeOfDay            map[string]int `json:"time_of_day,omitempty"`
	CompletionRate       []RatePoint    `json:"completion_rate,omitempty"`
	Insights             []string       `json:"insights,omitempty"`
	FetchedAt            time.Time      `json:"fetched_at"`
}

// Normalize recomputes the level fields from TotalXP so every source agrees with LevelFor.
func (s *Snapshot) Normalize() {
	if s == nil {
		return
	}
	s.UserStats.AddXP(0)
}

// LevelInfo extracts the level summary, falling back to defaults on a nil snapshot.
func (s *Snapshot) LevelInfo() LevelInfo {
	if s == nil {
		return DefaultLevelInfo()
	}
	return LevelInfo{
		Level:         s.UserStats.Level,
		Progress:      s.UserStats.LevelProgress,
		XPToNextLevel: s.UserStats.XPToNextLevel,
		CurrentStreak: s.UserStats.CurrentStreak,
		BestStreak:    s.UserStats.BestStreak,
	}
}

// Clone deep-copies the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.TodayTasks = append([]TaskDigest(nil), s.TodayTasks...)
	cp.UpcomingDeadlines = append([]TaskDigest(nil), s.UpcomingDeadlines...)
	cp.CompletionRate = append([]RatePoint(nil), s.CompletionRate...)
	cp.Insights = append([]string(nil), s.Insights...)
	cp.CategoryDistribution = cloneCounts(s.CategoryDistribution)
	cp.TimeOfDay = cloneCounts(s.TimeOfDay)
	return &cp
}

func cloneCounts(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type HeatmapDay struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	Weekday    int    `json:"weekday"`
	WeekNumber int    `json:"week_number"`
}

// ProductivityMetrics is passed through to callers untouched.
type ProductivityMetrics struct {
	Trend      []RatePoint     `json:"trend,omitempty"`
	Categories map[string]int  `json:"categories,omitempty"`
	TimeOfDay  map[string]int  `json:"time_of_day,omitempty"`
	Extra      json.RawMessage `json:"extra,omitempty"`
}
