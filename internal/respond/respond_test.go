package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gatekeep/gatekeep-go/internal/apperror"
	"github.com/gatekeep/gatekeep-go/internal/model"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorBody {
	t.Helper()
	var resp model.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp.Error
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	JSON(rec, http.StatusCreated, map[string]string{"status": "ok"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"ok"}` {
		t.Errorf("body = %s", got)
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantBody  string
		wantMsg   string
		wantField string
	}{
		{
			name:      "field preserved",
			err:       apperror.NewField(apperror.InvalidEmail, "email", "Invalid email format"),
			wantCode:  http.StatusBadRequest,
			wantBody:  "VALIDATION_ERROR",
			wantMsg:   "Invalid email format",
			wantField: "email",
		},
		{
			name:     "unauthorized",
			err:      apperror.New(apperror.Unauthorized, "Missing authorization header"),
			wantCode: http.StatusUnauthorized,
			wantBody: "UNAUTHORIZED",
			wantMsg:  "Missing authorization header",
		},
		{
			name:     "too large",
			err:      apperror.New(apperror.RequestTooLarge, "Request body too large"),
			wantCode: http.StatusRequestEntityTooLarge,
			wantBody: "PAYLOAD_TOO_LARGE",
			wantMsg:  "Request body too large",
		},
		{
			name:     "plain error is internal",
			err:      errors.New("dial tcp: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: "INTERNAL_SERVER_ERROR",
			wantMsg:  internalMessage,
		},
		{
			name:     "internal field and cause hidden",
			err:      &apperror.Error{Kind: apperror.Internal, Message: "hash: bad salt", Field: "password", Err: errors.New("secret detail")},
			wantCode: http.StatusInternalServerError,
			wantBody: "INTERNAL_SERVER_ERROR",
			wantMsg:  internalMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)

			Error(rec, req, tt.err)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			raw := rec.Body.String()
			if strings.Contains(raw, "secret detail") || strings.Contains(raw, "connection refused") {
				t.Errorf("body leaks cause: %s", raw)
			}
			body := decodeError(t, rec)
			if body.Code != tt.wantBody {
				t.Errorf("code = %q, want %q", body.Code, tt.wantBody)
			}
			if body.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMsg)
			}
			if body.Field != tt.wantField {
				t.Errorf("field = %q, want %q", body.Field, tt.wantField)
			}
		})
	}
}
