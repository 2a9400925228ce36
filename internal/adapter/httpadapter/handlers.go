package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/weather-outlook/internal/domain"
)

// maxBodyBytes caps the /predict request body.
const maxBodyBytes = 64 << 10

type handler struct {
	forecaster Forecaster
	catalog    *domain.Catalog
	validate   *validator.Validate
	logger     *slog.Logger
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *handler) predict(w http.ResponseWriter, r *http.Request) {
	var req domain.ForecastRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, r, domain.ErrInvalidRequest(err, "decode request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, r, domain.ErrInvalidRequest(nil, "%s", validationMessage(err)))
		return
	}

	outlook, err := h.forecaster.Forecast(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outlook)
}

func (h *handler) cities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cities": h.catalog.Cities()})
}

// writeError maps client kinds to 400 and everything else to 500. Server
// failures are logged in full and reported without internal detail.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	resp := errorResponse{
		Error:     err.Error(),
		Code:      string(kind),
		RequestID: RequestIDFromContext(r.Context()),
	}
	status := http.StatusBadRequest
	if !kind.ClientError() {
		status = http.StatusInternalServerError
		resp.Error = "internal server error"
		h.logger.Error("forecast failed", "error", err, "request_id", resp.RequestID)
	} else {
		h.logger.Info("forecast rejected", "error", err, "code", kind, "request_id", resp.RequestID)
	}
	writeJSON(w, status, resp)
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s: failed %q validation", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
