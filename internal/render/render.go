package render

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ayush/todo-api/internal/common"
	"github.com/ayush/todo-api/internal/logging"
	"github.com/ayush/todo-api/internal/models"
)

const internalMsg = "Something went wrong, please try again later."

// JSON writes an envelope with the given status code.
func JSON(w http.ResponseWriter, status int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.Envelope{Err: nil, Msg: msg, Data: data})
}

// Error maps err onto a status code and envelope. Anything unrecognised is
// logged and answered with a generic 500.
func Error(w http.ResponseWriter, log *slog.Logger, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", logging.Err(err))
	}
	JSON(w, status, msg, nil)
}

// MaxBodyBytes caps request bodies read by Decode.
const MaxBodyBytes = 1 << 20

// Decode reads a JSON body of at most MaxBodyBytes into dst. Unknown fields
// are ignored.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return common.WithMessage(common.ErrTooLarge, "Request body is too large.")
		}
		return common.NewValidationError("Request body must be a valid JSON object.")
	}
	return nil
}

func classify(err error) (int, string) {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, ve.Msg
	}

	status := statusOf(err)
	if status == http.StatusInternalServerError {
		return status, internalMsg
	}

	var m *common.Message
	if errors.As(err, &m) {
		return status, m.Msg
	}
	return status, http.StatusText(status)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrTokenMalformed),
		errors.Is(err, common.ErrTokenSignatureInvalid),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
