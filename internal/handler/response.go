package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatekeep/gatekeep-go/internal/apperror"
)

const maxBodyBytes = 1 << 20 // 1MB

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.New(apperror.RequestTooLarge, "Request body too large")
		}
		return apperror.Wrap(apperror.InvalidRequest, "Invalid request body", err)
	}
	return nil
}
