package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"fitsync/internal/service"
	"fitsync/pkg/apierror"
)

type fitFetcher interface {
	FetchWithToken(ctx context.Context, accessToken string, q service.FitQuery) (json.RawMessage, error)
	FetchForUser(ctx context.Context, userID int64, q service.FitQuery) (json.RawMessage, error)
}

type FitHandler struct {
	service fitFetcher
}

func NewFitHandler(service fitFetcher) *FitHandler {
	return &FitHandler{service: service}
}

// Data proxies an aggregate query using the access token supplied by the
// caller. The provider body is returned unchanged.
func (h *FitHandler) Data(w http.ResponseWriter, r *http.Request) {
	accessToken := strings.TrimSpace(r.URL.Query().Get("access_token"))
	if accessToken == "" {
		writeError(w, apierror.BadRequest("access_token is required", "access_token"))
		return
	}

	q, err := parseFitQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := h.service.FetchWithToken(r.Context(), accessToken, q)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

func (h *FitHandler) UserData(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q, err := parseFitQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := h.service.FetchForUser(r.Context(), userID, q)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

func parseFitQuery(r *http.Request) (service.FitQuery, error) {
	query := r.URL.Query()
	q := service.FitQuery{}

	for _, dt := range query["data_type"] {
		if dt = strings.TrimSpace(dt); dt != "" {
			q.DataTypes = append(q.DataTypes, dt)
		}
	}

	var err error
	if q.StartMs, err = parseMillis(query.Get("start_ms"), "start_ms"); err != nil {
		return service.FitQuery{}, err
	}
	if q.EndMs, err = parseMillis(query.Get("end_ms"), "end_ms"); err != nil {
		return service.FitQuery{}, err
	}

	return q, nil
}

func parseMillis(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, apierror.BadRequest(field+" must be a non-negative integer of epoch milliseconds", field)
	}
	return v, nil
}
