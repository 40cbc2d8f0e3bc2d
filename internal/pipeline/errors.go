package pipeline

import (
	"errors"
	"strings"
)

// ErrConcurrentRun is returned when Run is called while another run is in
// progress. Callers can retry later.
var ErrConcurrentRun = errors.New("email processing is already in progress")

// ConfigurationError aborts a run before anything is sent.
type ConfigurationError struct {
	Issues []string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + strings.Join(e.Issues, "; ")
}

func configErr(issues ...string) error {
	return &ConfigurationError{Issues: issues}
}
