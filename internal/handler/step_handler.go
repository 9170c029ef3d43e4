package handler

import (
	"context"
	"net/http"

	"fitsync/internal/model"
)

type stepService interface {
	UpdateSteps(ctx context.Context, req model.StepUpdateRequest) error
	TotalSteps(ctx context.Context, userID int64) (model.TotalSteps, error)
	WeeklySteps(ctx context.Context, userID int64) ([]model.DailySteps, error)
	MonthlySteps(ctx context.Context, userID int64) (map[string]int64, error)
	LongestStreak(ctx context.Context, userID int64) (model.StreakResult, error)
}

type StepHandler struct {
	service stepService
}

func NewStepHandler(service stepService) *StepHandler {
	return &StepHandler{service: service}
}

func (h *StepHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload model.StepUpdateRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.UpdateSteps(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Status: "success", Message: "Steps updated successfully"})
}

func (h *StepHandler) Total(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	total, err := h.service.TotalSteps(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, total)
}

func (h *StepHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	days, err := h.service.WeeklySteps(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, days)
}

func (h *StepHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	month, err := h.service.MonthlySteps(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, month)
}

func (h *StepHandler) Streak(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	streak, err := h.service.LongestStreak(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, streak)
}
