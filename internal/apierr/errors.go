// Package apierr defines the stable error taxonomy of spec §7: one sentinel
// per domain-not-found / validation / runtime-adapter / infrastructural
// error kind, plus a structured wrapper that carries the detail the HTTP
// layer and the background loops need to react correctly.
//
// Modeled on petabytecl-gaz/config's ErrConfigValidation + ValidationError
// pair: package-level sentinels, and a concrete type for errors.As and
// detail extraction. That type unwraps to its cause, not to the sentinel;
// Is matches a sentinel by code.
package apierr

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per taxonomy entry in spec §7.
var (
	ErrTaskDefinitionNotFound = errors.New("task definition not found")
	ErrJobNotFound            = errors.New("job not found")
	ErrScheduleNotFound       = errors.New("schedule not found")
	ErrContainerNotFound      = errors.New("container not found")
	ErrContainerIDNotFound    = errors.New("job has no container id")

	ErrInvalidCronExpression = errors.New("invalid cron expression")
	ErrJobAlreadyFinished    = errors.New("job already finished")
	ErrJobAlreadyFailed      = errors.New("job already failed")
	ErrJobHasNoContainerID   = errors.New("job has no container id")
	ErrJobLogExpired         = errors.New("job log expired")

	ErrContainerFailedToStart   = errors.New("container failed to start")
	ErrContainerFailedToInspect = errors.New("container failed to inspect")
	ErrContainerFailedToKill    = errors.New("container failed to kill")
	ErrContainerFailedToRemove  = errors.New("container failed to remove")

	ErrIO            = errors.New("io error")
	ErrDatabase      = errors.New("database error")
	ErrSerialization = errors.New("serialization error")
)

// Code is the stable string identifier returned in HTTP error payloads
// ({error_code, message}, spec §6/§7).
type Code string

const (
	CodeTaskDefinitionNotFound Code = "TASK_DEFINITION_NOT_FOUND"
	CodeJobNotFound            Code = "JOB_NOT_FOUND"
	CodeScheduleNotFound       Code = "SCHEDULE_NOT_FOUND"
	CodeContainerNotFound      Code = "CONTAINER_NOT_FOUND"
	CodeContainerIDNotFound    Code = "CONTAINER_ID_NOT_FOUND"

	CodeInvalidCronExpression Code = "INVALID_CRON_EXPRESSION"
	CodeJobAlreadyFinished    Code = "JOB_ALREADY_FINISHED"
	CodeJobAlreadyFailed      Code = "JOB_ALREADY_FAILED"
	CodeJobHasNoContainerID   Code = "JOB_HAS_NO_CONTAINER_ID"
	CodeJobLogExpired         Code = "JOB_LOG_EXPIRED"

	CodeContainerFailedToStart   Code = "CONTAINER_FAILED_TO_START"
	CodeContainerFailedToInspect Code = "CONTAINER_FAILED_TO_INSPECT"
	CodeContainerFailedToKill    Code = "CONTAINER_FAILED_TO_KILL"
	CodeContainerFailedToRemove  Code = "CONTAINER_FAILED_TO_REMOVE"

	CodeIO            Code = "IO_ERROR"
	CodeDatabase      Code = "DATABASE_ERROR"
	CodeSerialization Code = "SERIALIZATION_ERROR"
	CodeInternal      Code = "INTERNAL_ERROR"
)

// sentinelCode maps each taxonomy sentinel to its stable code, used both to
// build an Error and, in the HTTP layer, to pick a status code.
var sentinelCode = map[error]Code{
	ErrTaskDefinitionNotFound: CodeTaskDefinitionNotFound,
	ErrJobNotFound:            CodeJobNotFound,
	ErrScheduleNotFound:       CodeScheduleNotFound,
	ErrContainerNotFound:      CodeContainerNotFound,
	ErrContainerIDNotFound:    CodeContainerIDNotFound,

	ErrInvalidCronExpression: CodeInvalidCronExpression,
	ErrJobAlreadyFinished:    CodeJobAlreadyFinished,
	ErrJobAlreadyFailed:      CodeJobAlreadyFailed,
	ErrJobHasNoContainerID:   CodeJobHasNoContainerID,
	ErrJobLogExpired:         CodeJobLogExpired,

	ErrContainerFailedToStart:   CodeContainerFailedToStart,
	ErrContainerFailedToInspect: CodeContainerFailedToInspect,
	ErrContainerFailedToKill:    CodeContainerFailedToKill,
	ErrContainerFailedToRemove:  CodeContainerFailedToRemove,

	ErrIO:            CodeIO,
	ErrDatabase:      CodeDatabase,
	ErrSerialization: CodeSerialization,
}

// Error is a taxonomy error carrying a stable Code, a human message, and an
// optional wrapped cause (e.g. stderr from a container runtime call, or the
// underlying *sql error).
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause so errors.Is/errors.As see through to it.
func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error for sentinel, with detail as the message and cause as
// the (optional) wrapped error.
func New(sentinel error, detail string, cause error) *Error {
	code, ok := sentinelCode[sentinel]
	if !ok {
		code = CodeInternal
	}
	if detail == "" {
		detail = sentinel.Error()
	}
	return &Error{Code: code, Message: detail, Cause: cause}
}

// Is reports whether err (or anything it wraps) carries the given taxonomy
// sentinel. apierr.Error.Unwrap only exposes Cause, so Is additionally
// compares against the sentinel the Error was built from by code.
func Is(err error, sentinel error) bool {
	if errors.Is(err, sentinel) {
		return true
	}
	var e *Error
	if errors.As(err, &e) {
		return sentinelCode[sentinel] != "" && e.Code == sentinelCode[sentinel]
	}
	return false
}

// InvalidCronExpression builds the validation error for a malformed cron
// expression, carrying the parser's reason (spec §4.1).
func InvalidCronExpression(reason string) *Error {
	return New(ErrInvalidCronExpression, reason, nil)
}
