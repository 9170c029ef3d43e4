package model

import "time"

type StepRecord struct {
	UserID            int64     `json:"user_id"`
	Date              time.Time `json:"date"`
	Steps             int64     `json:"steps"`
	MidnightStepCount int64     `json:"midnight_step_count"`
}

type DailySteps struct {
	Date  string `json:"date"`
	Steps int64  `json:"steps"`
}

type StreakResult struct {
	UserID        int64  `json:"user_id"`
	LongestStreak int    `json:"longest_streak"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
}

type TotalSteps struct {
	UserID     int64 `json:"user_id"`
	TotalSteps int64 `json:"total_steps"`
}
