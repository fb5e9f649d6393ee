package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRemoteAPI           = errors.New("remote api call failed")
	ErrOpeningTimeout      = errors.New("opening timeout expired")
	ErrPollingExhausted    = errors.New("worker did not reach running state")
	ErrCapacityUnavailable = errors.New("no free machines")
	ErrBrowserStartFailed  = errors.New("browser start failed")
	ErrSessionNotFound     = errors.New("session not found")
	ErrHubClosed           = errors.New("correlation hub closed")
)

// RemoteAPIError is returned for any failed call to the device-farm API.
type RemoteAPIError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteAPIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RemoteAPIError) Unwrap() error {
	return e.Err
}

func (e *RemoteAPIError) Is(target error) bool {
	return target == ErrRemoteAPI
}

// BrowserStartFailedError aggregates the failure of every start attempt for one browser.
type BrowserStartFailedError struct {
	Browser  string
	Attempts int
	Err      error
}

func (e *BrowserStartFailedError) Error() string {
	return fmt.Sprintf("unable to start browser %s after %d attempt(s): %v", e.Browser, e.Attempts, e.Err)
}

func (e *BrowserStartFailedError) Unwrap() error {
	return e.Err
}

func (e *BrowserStartFailedError) Is(target error) bool {
	return target == ErrBrowserStartFailed
}
