package token

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

var (
	ErrNotConnected             = errors.New("google calendar not connected for user")
	ErrReauthorizationRequired  = errors.New("google authorization expired, reconnect the calendar")
	ErrMissingOAuthClientConfig = errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
)

// RefreshFailedError is returned when the provider rejects the
// refresh-token grant. Detail is the provider's own error text.
type RefreshFailedError struct {
	Detail string
	Err    error
}

func (e *RefreshFailedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("token refresh failed: %v", e.Err)
	}
	return fmt.Sprintf("token refresh failed: %s", e.Detail)
}

func (e *RefreshFailedError) Unwrap() error {
	return e.Err
}

func newRefreshFailed(err error) *RefreshFailedError {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		detail := re.ErrorCode
		if re.ErrorDescription != "" {
			if detail != "" {
				detail += ": "
			}
			detail += re.ErrorDescription
		}
		if detail == "" {
			detail = string(re.Body)
		}
		return &RefreshFailedError{Detail: detail, Err: err}
	}
	return &RefreshFailedError{Err: err}
}
