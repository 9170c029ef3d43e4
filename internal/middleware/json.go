package middleware

import (
	"encoding/json"
	"net/http"

	"fitsync/internal/model"
)

// errorBody renders the error envelope handlers use, so failures raised
// before a handler runs look the same to clients.
func errorBody(code, message string) []byte {
	body, _ := json.Marshal(model.APIResponse{
		Success: false,
		Error:   &model.APIError{Code: code, Message: message},
	})
	return body
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(errorBody(code, message))
}
