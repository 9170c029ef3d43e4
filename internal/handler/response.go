package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"fitsync/internal/model"
	"fitsync/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, model.APIResponse{
		Success: true,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	var provErr *model.ProviderError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.As(err, &provErr) {
		status = http.StatusBadGateway
		if provErr.Status >= 400 && provErr.Status < 500 {
			status = provErr.Status
		}
		body.Details = provErr.Body
		if errors.Is(provErr, model.ErrTokenExchangeFailed) {
			// Any 4xx from the token endpoint means the grant itself was bad.
			if status != http.StatusBadGateway {
				status = http.StatusBadRequest
			}
			body.Code = "TOKEN_EXCHANGE_FAILED"
			body.Message = "Token exchange with the provider failed"
		} else {
			body.Code = "UPSTREAM_ERROR"
			body.Message = "Fitness data provider returned an error"
		}
		slog.Warn("provider error", "kind", provErr.Kind.Error(), "status", provErr.Status)
	} else if errors.Is(err, model.ErrInvalidRequest) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid request"
		body.Details = detailsOf(err, model.ErrInvalidRequest)
	} else if errors.Is(err, model.ErrInvalidState) {
		status = http.StatusBadRequest
		body.Code = "INVALID_STATE"
		body.Message = "State parameter is invalid or expired"
	} else if errors.Is(err, model.ErrVerifierNotFound) {
		status = http.StatusBadRequest
		body.Code = "VERIFIER_NOT_FOUND"
		body.Message = "No pending authorization for this state"
	} else if errors.Is(err, model.ErrTokenNotFound) {
		status = http.StatusNotFound
		body.Code = "TOKEN_NOT_FOUND"
		body.Message = "No provider tokens stored for this user"
	} else if errors.Is(err, model.ErrUserNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "User not found"
	} else if errors.Is(err, model.ErrUserAlreadyExists) {
		status = http.StatusConflict
		body.Code = "ALREADY_EXISTS"
		body.Message = "User already exists"
	} else if errors.Is(err, model.ErrInvalidCredentials) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid credentials"
	} else if errors.Is(err, model.ErrPersistence) {
		body.Code = "PERSISTENCE_ERROR"
		body.Message = "Storage operation failed"
		slog.Error("persistence error", "error", err.Error())
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeJSON(w, status, model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// detailsOf strips the sentinel prefix from a wrapped error message.
func detailsOf(err error, sentinel error) string {
	msg := err.Error()
	msg = strings.TrimPrefix(msg, sentinel.Error())
	return strings.TrimLeft(msg, ": ")
}

func parseUserID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		return 0, apierror.BadRequest("id is required", "id")
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest("id must be a positive integer", "id")
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierror.BadRequest("invalid JSON body", "")
	}
	return nil
}
