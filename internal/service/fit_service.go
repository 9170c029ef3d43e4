package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fitsync/internal/googlefit"
	"fitsync/internal/model"
)

const defaultWindowDays = 7

type aggregateFetcher interface {
	FetchDailyAggregate(ctx context.Context, accessToken string, dataTypes []string, startMs int64, endMs int64) (json.RawMessage, error)
}

type accessTokenReader interface {
	GetAccessToken(ctx context.Context, userID int64) (string, error)
}

type tokenRefresher interface {
	Refresh(ctx context.Context, userID int64) (string, error)
}

type FitQuery struct {
	DataTypes []string
	StartMs   int64
	EndMs     int64
}

type FitService struct {
	client    aggregateFetcher
	tokens    accessTokenReader
	refresher tokenRefresher
	now       func() time.Time
}

func NewFitService(client aggregateFetcher, tokens accessTokenReader, refresher tokenRefresher) *FitService {
	return &FitService{
		client:    client,
		tokens:    tokens,
		refresher: refresher,
		now:       time.Now,
	}
}

// Normalize fills in the default data type and the trailing seven-day window
// for any part of the query left unset.
func (s *FitService) Normalize(q FitQuery) FitQuery {
	if len(q.DataTypes) == 0 {
		q.DataTypes = []string{googlefit.DataTypeSteps}
	}

	if q.EndMs == 0 {
		q.EndMs = s.now().UnixMilli()
	}
	if q.StartMs == 0 {
		q.StartMs = q.EndMs - defaultWindowDays*googlefit.DayMillis
	}
	return q
}

// FetchWithToken forwards the caller's access token to the provider and
// returns the aggregate response untouched.
func (s *FitService) FetchWithToken(ctx context.Context, accessToken string, q FitQuery) (json.RawMessage, error) {
	q = s.Normalize(q)
	return s.client.FetchDailyAggregate(ctx, accessToken, q.DataTypes, q.StartMs, q.EndMs)
}

// FetchForUser reads the user's stored access token. When the provider
// answers 401 the token is refreshed and the request is retried once.
func (s *FitService) FetchForUser(ctx context.Context, userID int64, q FitQuery) (json.RawMessage, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be a positive integer", model.ErrInvalidRequest)
	}

	accessToken, err := s.tokens.GetAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	q = s.Normalize(q)
	data, err := s.client.FetchDailyAggregate(ctx, accessToken, q.DataTypes, q.StartMs, q.EndMs)
	if err == nil || !isUnauthorized(err) || s.refresher == nil {
		return data, err
	}

	accessToken, err = s.refresher.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.client.FetchDailyAggregate(ctx, accessToken, q.DataTypes, q.StartMs, q.EndMs)
}

func isUnauthorized(err error) bool {
	var provErr *model.ProviderError
	return errors.As(err, &provErr) && provErr.Status == http.StatusUnauthorized
}
