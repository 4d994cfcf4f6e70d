package calendarsync

import (
	"errors"
	"fmt"

	googlecalendar "github.com/saulo-duarte/chronos-calendar-sync/internal/google_calendar"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/token"
)

var ErrMissingUserID = errors.New("userId is required")

type Stage string

const (
	StageValidate   Stage = "validate"
	StageAuthorize  Stage = "authorize"
	StageLoadLocal  Stage = "load_local"
	StageListRemote Stage = "list_remote"
	StageMatchLocal Stage = "match_local"
)

var stageMessages = map[Stage]string{
	StageValidate:   "invalid sync request",
	StageAuthorize:  "google authorization failed",
	StageLoadLocal:  "failed to load system calendar events",
	StageListRemote: "failed to list google calendar events",
	StageMatchLocal: "failed to match google events to system events",
}

// SyncError aborts a whole pass. Per-event failures never surface as one.
type SyncError struct {
	Stage Stage
	Err   error
}

func (e *SyncError) Error() string {
	msg, ok := stageMessages[e.Stage]
	if !ok {
		msg = string(e.Stage)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func fail(stage Stage, err error) *SyncError {
	return &SyncError{Stage: stage, Err: err}
}

// ErrorDetail returns the provider's own error text carried by err, if any.
func ErrorDetail(err error) string {
	var refreshErr *token.RefreshFailedError
	if errors.As(err, &refreshErr) {
		return refreshErr.Detail
	}
	return googlecalendar.ErrorDetail(err)
}

// ErrForeignUser is reported when a non-service caller names another user.
var ErrForeignUser = errors.New("not allowed to sync another user's calendar")
