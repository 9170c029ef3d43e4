package googlefit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/internal/model"
)

func TestFetchDailyAggregate(t *testing.T) {
	var captured aggregateRequest
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/fitness/v1/users/me/dataset:aggregate", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bucket":[{"startTimeMillis":"0","endTimeMillis":"86400000","dataset":[]}]}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL+"/fitness/v1/users/me/", server.Client())

	raw, err := client.FetchDailyAggregate(context.Background(), "AT1",
		[]string{DataTypeSteps, DataTypeHeartRate}, 1_000, 1_000+7*DayMillis)
	require.NoError(t, err)

	require.Equal(t, "Bearer AT1", authHeader)
	require.Equal(t, int64(86_400_000), captured.BucketByTime.DurationMillis)
	require.Equal(t, int64(1_000), captured.StartTimeMillis)
	require.Equal(t, int64(1_000+7*DayMillis), captured.EndTimeMillis)
	require.Len(t, captured.AggregateBy, 2)
	require.Equal(t, DataTypeSteps, captured.AggregateBy[0].DataTypeName)
	require.JSONEq(t, `{"bucket":[{"startTimeMillis":"0","endTimeMillis":"86400000","dataset":[]}]}`, string(raw))
}

func TestFetchDailyAggregateUpstreamError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"status":"UNAUTHENTICATED"}}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, server.Client())

	_, err := client.FetchDailyAggregate(context.Background(), "expired", []string{DataTypeSteps}, 0, DayMillis)
	require.ErrorIs(t, err, model.ErrUpstream)

	var provErr *model.ProviderError
	require.True(t, errors.As(err, &provErr))
	require.Equal(t, http.StatusUnauthorized, provErr.Status)
	require.Contains(t, provErr.Body, "UNAUTHENTICATED")
	require.Equal(t, 1, calls, "no retries")
}

func TestFetchDailyAggregateValidation(t *testing.T) {
	client := NewClient("http://unused.invalid", nil)

	tests := []struct {
		name      string
		token     string
		dataTypes []string
		start     int64
		end       int64
	}{
		{name: "missing token", token: "", dataTypes: []string{DataTypeSteps}, start: 0, end: DayMillis},
		{name: "no data types", token: "AT", dataTypes: nil, start: 0, end: DayMillis},
		{name: "empty window", token: "AT", dataTypes: []string{DataTypeSteps}, start: DayMillis, end: DayMillis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.FetchDailyAggregate(context.Background(), tt.token, tt.dataTypes, tt.start, tt.end)
			require.ErrorIs(t, err, model.ErrInvalidRequest)
		})
	}
}
