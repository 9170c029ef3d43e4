package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"fitsync/internal/model"
	"fitsync/internal/service"
)

type fakeFitService struct {
	token  string
	userID int64
	query  service.FitQuery
	err    error
}

func (f *fakeFitService) FetchWithToken(_ context.Context, accessToken string, q service.FitQuery) (json.RawMessage, error) {
	f.token = accessToken
	f.query = q
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"bucket":[{"startTimeMillis":"1"}]}`), nil
}

func (f *fakeFitService) FetchForUser(_ context.Context, userID int64, q service.FitQuery) (json.RawMessage, error) {
	f.userID = userID
	f.query = q
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"bucket":[]}`), nil
}

func TestFitData(t *testing.T) {
	svc := &fakeFitService{}
	h := NewFitHandler(svc)

	rec := httptest.NewRecorder()
	h.Data(rec, httptest.NewRequest(http.MethodGet,
		"/fit/data?access_token=AT1&start_ms=1000&end_ms=2000&data_type=com.google.step_count.delta&data_type=com.google.heart_rate.bpm", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"bucket":[{"startTimeMillis":"1"}]}`, rec.Body.String())
	require.Equal(t, "AT1", svc.token)
	require.Equal(t, service.FitQuery{
		DataTypes: []string{"com.google.step_count.delta", "com.google.heart_rate.bpm"},
		StartMs:   1000,
		EndMs:     2000,
	}, svc.query)
}

func TestFitDataValidation(t *testing.T) {
	h := NewFitHandler(&fakeFitService{})

	for _, target := range []string{"/fit/data", "/fit/data?access_token=AT1&start_ms=yesterday", "/fit/data?access_token=AT1&end_ms=-5"} {
		rec := httptest.NewRecorder()
		h.Data(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestFitDataUpstreamStatus(t *testing.T) {
	tests := []struct {
		providerStatus int
		want           int
	}{
		{http.StatusUnauthorized, http.StatusUnauthorized},
		{http.StatusForbidden, http.StatusForbidden},
		{http.StatusInternalServerError, http.StatusBadGateway},
	}

	for _, tt := range tests {
		svc := &fakeFitService{err: &model.ProviderError{Kind: model.ErrUpstream, Status: tt.providerStatus, Body: `{"error":{"code":401}}`}}
		rec := httptest.NewRecorder()
		NewFitHandler(svc).Data(rec, httptest.NewRequest(http.MethodGet, "/fit/data?access_token=AT1", nil))

		require.Equal(t, tt.want, rec.Code)
		apiErr := decodeError(t, rec)
		require.Equal(t, "UPSTREAM_ERROR", apiErr.Code)
		require.NotEmpty(t, apiErr.Details)
	}
}

func TestFitUserData(t *testing.T) {
	svc := &fakeFitService{}
	rec := httptest.NewRecorder()
	NewFitHandler(svc).UserData(rec, httptest.NewRequest(http.MethodGet, "/fit/user-data?id=42", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(42), svc.userID)
	require.Empty(t, svc.query.DataTypes)

	svc = &fakeFitService{err: model.ErrTokenNotFound}
	rec = httptest.NewRecorder()
	NewFitHandler(svc).UserData(rec, httptest.NewRequest(http.MethodGet, "/fit/user-data?id=42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
