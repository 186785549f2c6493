// Package respond writes JSON bodies and the error envelope shared by
// handlers and middleware.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gatekeep/gatekeep-go/internal/apperror"
	"github.com/gatekeep/gatekeep-go/internal/model"
)

const internalMessage = "An internal error occurred"

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Error maps err through the kind table. Internal causes are logged
// and replaced with an opaque message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.From(err)

	body := model.ErrorBody{
		Code:    appErr.Kind.Code(),
		Message: appErr.Message,
		Field:   appErr.Field,
	}
	if appErr.Kind == apperror.Internal {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		body.Message = internalMessage
		body.Field = ""
	}

	JSON(w, appErr.Kind.Status(), model.ErrorResponse{Error: body})
}
