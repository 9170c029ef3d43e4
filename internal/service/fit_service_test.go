package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fitsync/internal/googlefit"
	"fitsync/internal/model"
)

type fetchCall struct {
	token     string
	dataTypes []string
	startMs   int64
	endMs     int64
}

type fakeFetcher struct {
	calls   []fetchCall
	results []error
}

func (f *fakeFetcher) FetchDailyAggregate(_ context.Context, accessToken string, dataTypes []string, startMs int64, endMs int64) (json.RawMessage, error) {
	f.calls = append(f.calls, fetchCall{token: accessToken, dataTypes: dataTypes, startMs: startMs, endMs: endMs})

	idx := len(f.calls) - 1
	if idx < len(f.results) && f.results[idx] != nil {
		return nil, f.results[idx]
	}
	return json.RawMessage(`{"bucket":[]}`), nil
}

type fakeRefresher struct {
	calls int
	token string
	err   error
}

func (f *fakeRefresher) Refresh(context.Context, int64) (string, error) {
	f.calls++
	return f.token, f.err
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func TestFitServiceNormalize(t *testing.T) {
	svc := NewFitService(&fakeFetcher{}, newMemoryTokenStore(), nil)
	svc.now = fixedNow

	q := svc.Normalize(FitQuery{})
	require.Equal(t, []string{googlefit.DataTypeSteps}, q.DataTypes)
	require.Equal(t, fixedNow().UnixMilli(), q.EndMs)
	require.Equal(t, 7*googlefit.DayMillis, q.EndMs-q.StartMs)

	explicit := svc.Normalize(FitQuery{DataTypes: []string{googlefit.DataTypeHeartRate}, StartMs: 10, EndMs: 20})
	require.Equal(t, FitQuery{DataTypes: []string{googlefit.DataTypeHeartRate}, StartMs: 10, EndMs: 20}, explicit)
}

func TestFetchWithTokenPassesThrough(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := NewFitService(fetcher, newMemoryTokenStore(), nil)

	data, err := svc.FetchWithToken(context.Background(), "AT1", FitQuery{StartMs: 1, EndMs: 2})
	require.NoError(t, err)
	require.JSONEq(t, `{"bucket":[]}`, string(data))
	require.Len(t, fetcher.calls, 1)
	require.Equal(t, "AT1", fetcher.calls[0].token)
}

func TestFetchForUser(t *testing.T) {
	ctx := context.Background()
	unauthorized := &model.ProviderError{Kind: model.ErrUpstream, Status: http.StatusUnauthorized, Body: "expired"}

	t.Run("uses stored token", func(t *testing.T) {
		tokens := newMemoryTokenStore()
		require.NoError(t, tokens.Put(ctx, 42, "AT1", "RT1"))
		fetcher := &fakeFetcher{}
		refresher := &fakeRefresher{}

		_, err := NewFitService(fetcher, tokens, refresher).FetchForUser(ctx, 42, FitQuery{})
		require.NoError(t, err)
		require.Len(t, fetcher.calls, 1)
		require.Equal(t, "AT1", fetcher.calls[0].token)
		require.Zero(t, refresher.calls)
	})

	t.Run("refreshes once on 401", func(t *testing.T) {
		tokens := newMemoryTokenStore()
		require.NoError(t, tokens.Put(ctx, 42, "AT1", "RT1"))
		fetcher := &fakeFetcher{results: []error{unauthorized}}
		refresher := &fakeRefresher{token: "AT2"}

		data, err := NewFitService(fetcher, tokens, refresher).FetchForUser(ctx, 42, FitQuery{})
		require.NoError(t, err)
		require.NotEmpty(t, data)
		require.Equal(t, 1, refresher.calls)
		require.Len(t, fetcher.calls, 2)
		require.Equal(t, "AT2", fetcher.calls[1].token)
	})

	t.Run("does not retry twice", func(t *testing.T) {
		tokens := newMemoryTokenStore()
		require.NoError(t, tokens.Put(ctx, 42, "AT1", "RT1"))
		fetcher := &fakeFetcher{results: []error{unauthorized, unauthorized}}
		refresher := &fakeRefresher{token: "AT2"}

		_, err := NewFitService(fetcher, tokens, refresher).FetchForUser(ctx, 42, FitQuery{})
		require.ErrorIs(t, err, model.ErrUpstream)
		require.Equal(t, 1, refresher.calls)
		require.Len(t, fetcher.calls, 2)
	})

	t.Run("other upstream errors are returned as is", func(t *testing.T) {
		tokens := newMemoryTokenStore()
		require.NoError(t, tokens.Put(ctx, 42, "AT1", "RT1"))
		fetcher := &fakeFetcher{results: []error{&model.ProviderError{Kind: model.ErrUpstream, Status: http.StatusForbidden}}}
		refresher := &fakeRefresher{}

		_, err := NewFitService(fetcher, tokens, refresher).FetchForUser(ctx, 42, FitQuery{})
		require.ErrorIs(t, err, model.ErrUpstream)
		require.Zero(t, refresher.calls)
	})

	t.Run("unlinked user", func(t *testing.T) {
		_, err := NewFitService(&fakeFetcher{}, newMemoryTokenStore(), nil).FetchForUser(ctx, 42, FitQuery{})
		require.ErrorIs(t, err, model.ErrTokenNotFound)
	})

	t.Run("invalid user id", func(t *testing.T) {
		_, err := NewFitService(&fakeFetcher{}, newMemoryTokenStore(), nil).FetchForUser(ctx, 0, FitQuery{})
		require.ErrorIs(t, err, model.ErrInvalidRequest)
	})
}
