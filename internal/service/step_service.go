package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fitsync/internal/event"
	"fitsync/internal/model"
)

const dateLayout = "2006-01-02"

type stepStore interface {
	Upsert(ctx context.Context, rec model.StepRecord) error
	Total(ctx context.Context, userID int64) (int64, error)
	Range(ctx context.Context, userID int64, from time.Time, to time.Time) (map[string]int64, error)
	LongestStreak(ctx context.Context, userID int64) (model.StreakResult, error)
}

type StepService struct {
	repo stepStore
	bus  event.Bus
	now  func() time.Time
}

func NewStepService(repo stepStore, bus event.Bus) *StepService {
	return &StepService{repo: repo, bus: bus, now: time.Now}
}

func (s *StepService) UpdateSteps(ctx context.Context, req model.StepUpdateRequest) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: user_id must be a positive integer", model.ErrInvalidRequest)
	}
	if req.Steps < 0 || req.MidnightStepCount < 0 {
		return fmt.Errorf("%w: step counts cannot be negative", model.ErrInvalidRequest)
	}

	day, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return fmt.Errorf("%w: date must be formatted as YYYY-MM-DD", model.ErrInvalidRequest)
	}

	if err := s.repo.Upsert(ctx, model.StepRecord{
		UserID:            req.UserID,
		Date:              day,
		Steps:             req.Steps,
		MidnightStepCount: req.MidnightStepCount,
	}); err != nil {
		return err
	}

	if s.bus != nil {
		s.bus.Publish(event.New(event.TypeStepsUpdated, req.UserID, map[string]any{
			"date":  req.Date,
			"steps": req.Steps,
		}))
	}
	return nil
}

func (s *StepService) TotalSteps(ctx context.Context, userID int64) (model.TotalSteps, error) {
	total, err := s.repo.Total(ctx, userID)
	if err != nil {
		return model.TotalSteps{}, err
	}
	return model.TotalSteps{UserID: userID, TotalSteps: total}, nil
}

// WeeklySteps returns the seven days ending today, oldest first, with zero
// for days that have no record.
func (s *StepService) WeeklySteps(ctx context.Context, userID int64) ([]model.DailySteps, error) {
	today := truncateDay(s.now())
	from := today.AddDate(0, 0, -6)

	byDay, err := s.repo.Range(ctx, userID, from, today)
	if err != nil {
		return nil, err
	}

	out := make([]model.DailySteps, 0, 7)
	for d := from; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		out = append(out, model.DailySteps{Date: key, Steps: byDay[key]})
	}
	return out, nil
}

// MonthlySteps returns the current month keyed by day of month ("1".."31"),
// zero-filled.
func (s *StepService) MonthlySteps(ctx context.Context, userID int64) (map[string]int64, error) {
	today := truncateDay(s.now())
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	byDay, err := s.repo.Range(ctx, userID, first, last)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, last.Day())
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out[strconv.Itoa(d.Day())] = byDay[d.Format(dateLayout)]
	}
	return out, nil
}

func (s *StepService) LongestStreak(ctx context.Context, userID int64) (model.StreakResult, error) {
	return s.repo.LongestStreak(ctx, userID)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
