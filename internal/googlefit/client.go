// Package googlefit talks to the Google Fit REST API on behalf of a linked
// user.
package googlefit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"fitsync/internal/model"
)

// DayMillis is the bucket width used for every aggregate request.
const DayMillis int64 = 86_400_000

const (
	DataTypeSteps     = "com.google.step_count.delta"
	DataTypeHeartRate = "com.google.heart_rate.bpm"
	DataTypeCalories  = "com.google.calories.expended"
)

const maxErrorBody = 4 << 10

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type aggregateBy struct {
	DataTypeName string `json:"dataTypeName"`
}

type bucketByTime struct {
	DurationMillis int64 `json:"durationMillis"`
}

type aggregateRequest struct {
	AggregateBy     []aggregateBy `json:"aggregateBy"`
	BucketByTime    bucketByTime  `json:"bucketByTime"`
	StartTimeMillis int64         `json:"startTimeMillis"`
	EndTimeMillis   int64         `json:"endTimeMillis"`
}

// FetchDailyAggregate returns the provider's aggregate response unchanged,
// bucketed by one day. A non-200 answer is returned as a *model.ProviderError
// wrapping model.ErrUpstream; it is never retried here.
func (c *Client) FetchDailyAggregate(ctx context.Context, accessToken string, dataTypes []string, startMs int64, endMs int64) (json.RawMessage, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("%w: access token is required", model.ErrInvalidRequest)
	}
	if len(dataTypes) == 0 {
		return nil, fmt.Errorf("%w: at least one data type is required", model.ErrInvalidRequest)
	}
	if endMs <= startMs {
		return nil, fmt.Errorf("%w: end time must be after start time", model.ErrInvalidRequest)
	}

	body := aggregateRequest{
		BucketByTime:    bucketByTime{DurationMillis: DayMillis},
		StartTimeMillis: startMs,
		EndTimeMillis:   endMs,
	}
	for _, dt := range dataTypes {
		body.AggregateBy = append(body.AggregateBy, aggregateBy{DataTypeName: dt})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode aggregate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/dataset:aggregate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build aggregate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))
	client.Timeout = c.httpClient.Timeout

	resp, err := client.Do(req)
	if err != nil {
		return nil, &model.ProviderError{Kind: model.ErrUpstream, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &model.ProviderError{Kind: model.ErrUpstream, Status: resp.StatusCode, Body: string(raw)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.ProviderError{Kind: model.ErrUpstream, Status: resp.StatusCode, Body: err.Error()}
	}
	if !json.Valid(raw) {
		return nil, &model.ProviderError{Kind: model.ErrUpstream, Status: resp.StatusCode, Body: "response is not valid JSON"}
	}

	return json.RawMessage(raw), nil
}
