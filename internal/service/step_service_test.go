package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fitsync/internal/event"
	"fitsync/internal/model"
)

type fakeStepStore struct {
	records map[string]int64
	upserts []model.StepRecord
	err     error
}

func newFakeStepStore() *fakeStepStore {
	return &fakeStepStore{records: map[string]int64{}}
}

func (f *fakeStepStore) Upsert(_ context.Context, rec model.StepRecord) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, rec)
	f.records[rec.Date.Format(dateLayout)] = rec.Steps
	return nil
}

func (f *fakeStepStore) Total(context.Context, int64) (int64, error) {
	var total int64
	for _, v := range f.records {
		total += v
	}
	return total, f.err
}

func (f *fakeStepStore) Range(_ context.Context, _ int64, from time.Time, to time.Time) (map[string]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]int64{}
	for day, steps := range f.records {
		d, _ := time.Parse(dateLayout, day)
		if !d.Before(from) && !d.After(to) {
			out[day] = steps
		}
	}
	return out, nil
}

func (f *fakeStepStore) LongestStreak(_ context.Context, userID int64) (model.StreakResult, error) {
	return model.StreakResult{UserID: userID, LongestStreak: 3}, f.err
}

func newStepFixture() (*StepService, *fakeStepStore, *event.InMemoryBus) {
	store := newFakeStepStore()
	bus := event.NewBus()
	svc := NewStepService(store, bus)
	svc.now = fixedNow
	return svc, store, bus
}

func TestUpdateSteps(t *testing.T) {
	ctx := context.Background()

	t.Run("stores record and publishes event", func(t *testing.T) {
		svc, store, bus := newStepFixture()
		events, unsubscribe := bus.Subscribe()
		defer unsubscribe()

		err := svc.UpdateSteps(ctx, model.StepUpdateRequest{UserID: 42, Date: "2025-03-09", Steps: 8000, MidnightStepCount: 120})
		require.NoError(t, err)
		require.Len(t, store.upserts, 1)
		require.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), store.upserts[0].Date)
		require.Equal(t, int64(120), store.upserts[0].MidnightStepCount)

		e := <-events
		require.Equal(t, event.TypeStepsUpdated, e.Type)
		require.Equal(t, int64(42), e.UserID)
	})

	tests := []struct {
		name string
		req  model.StepUpdateRequest
	}{
		{"missing user", model.StepUpdateRequest{Date: "2025-03-09", Steps: 1}},
		{"bad date", model.StepUpdateRequest{UserID: 42, Date: "09/03/2025", Steps: 1}},
		{"negative steps", model.StepUpdateRequest{UserID: 42, Date: "2025-03-09", Steps: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newStepFixture()
			err := svc.UpdateSteps(ctx, tt.req)
			require.ErrorIs(t, err, model.ErrInvalidRequest)
			require.Empty(t, store.upserts)
		})
	}

	t.Run("persistence failure", func(t *testing.T) {
		svc, store, _ := newStepFixture()
		store.err = model.NewPersistenceError("upsert steps", errors.New("db down"))

		err := svc.UpdateSteps(ctx, model.StepUpdateRequest{UserID: 42, Date: "2025-03-09", Steps: 1})
		require.ErrorIs(t, err, model.ErrPersistence)
	})
}

func TestWeeklySteps(t *testing.T) {
	svc, store, _ := newStepFixture()
	store.records["2025-03-10"] = 500
	store.records["2025-03-04"] = 300
	store.records["2025-03-03"] = 9999

	days, err := svc.WeeklySteps(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, days, 7)
	require.Equal(t, model.DailySteps{Date: "2025-03-04", Steps: 300}, days[0])
	require.Equal(t, model.DailySteps{Date: "2025-03-10", Steps: 500}, days[6])
	require.Zero(t, days[3].Steps)
}

func TestMonthlySteps(t *testing.T) {
	svc, store, _ := newStepFixture()
	store.records["2025-03-01"] = 100
	store.records["2025-03-31"] = 200
	store.records["2025-02-28"] = 999

	month, err := svc.MonthlySteps(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, month, 31)
	require.Equal(t, int64(100), month["1"])
	require.Equal(t, int64(200), month["31"])
	require.Zero(t, month["15"])
}

func TestTotalAndStreak(t *testing.T) {
	svc, store, _ := newStepFixture()
	store.records["2025-03-01"] = 100
	store.records["2025-03-02"] = 250

	total, err := svc.TotalSteps(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, model.TotalSteps{UserID: 42, TotalSteps: 350}, total)

	streak, err := svc.LongestStreak(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, 3, streak.LongestStreak)
}
