package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/myyrakle/batchman/internal/apierr"
)

// errorResponse is the {error_code, message} payload of spec §6/§7.
type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// statusForCode maps taxonomy codes to HTTP status per spec §7: validation
// errors are 400, missing entities 404, expired logs 410, everything else
// (including unmapped kinds) 500.
var statusForCode = map[apierr.Code]int{
	apierr.CodeTaskDefinitionNotFound: http.StatusNotFound,
	apierr.CodeJobNotFound:            http.StatusNotFound,
	apierr.CodeScheduleNotFound:       http.StatusNotFound,
	apierr.CodeContainerNotFound:      http.StatusNotFound,
	apierr.CodeContainerIDNotFound:    http.StatusNotFound,

	apierr.CodeInvalidCronExpression: http.StatusBadRequest,
	apierr.CodeJobAlreadyFinished:    http.StatusBadRequest,
	apierr.CodeJobAlreadyFailed:      http.StatusBadRequest,
	apierr.CodeJobHasNoContainerID:   http.StatusBadRequest,

	apierr.CodeJobLogExpired: http.StatusGone,
}

// writeError maps err to a status code and writes the error payload,
// logging the underlying cause at Error level (spec §7 "All other surfaces
// return 500 with a JSON error object").
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, code, message := classifyError(err, statusForCode)
	writeErrorPayload(w, logger, err, status, code, message)
}

// writeSubmitJobError maps err to the error payload for POST /jobs/submit,
// where every failure — including TASK_DEFINITION_NOT_FOUND — is reported
// as 500 per spec §6's table and original_source/src/routes/jobs.rs, unlike
// every other endpoint's code→status mapping.
func writeSubmitJobError(w http.ResponseWriter, logger *slog.Logger, err error) {
	_, code, message := classifyError(err, statusForCode)
	writeErrorPayload(w, logger, err, http.StatusInternalServerError, code, message)
}

func classifyError(err error, table map[apierr.Code]int) (status int, code apierr.Code, message string) {
	code = apierr.CodeInternal
	message = err.Error()

	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		code = apiErr.Code
		message = apiErr.Message
	}

	status, ok := table[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return status, code, message
}

func writeErrorPayload(w http.ResponseWriter, logger *slog.Logger, err error, status int, code apierr.Code, message string) {
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.Any("error", err), slog.String("error_code", string(code)))
	}
	writeJSON(w, status, errorResponse{ErrorCode: string(code), Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
