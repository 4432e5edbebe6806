package domain

import (
	"errors"
	"strings"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("configuration error")

	// ErrAborted is the cancellation cause used when the interrupt key is
	// pressed or the experimenter aborts a session.
	ErrAborted = errors.New("task aborted by user")

	// ErrSinkWrite wraps failures to persist a trial record.
	ErrSinkWrite = errors.New("record sink write failed")

	// ErrPolicyDenied is matched by every *PolicyError.
	ErrPolicyDenied = errors.New("session blocked by policy")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionState    = errors.New("session is not in a valid state for this operation")
)

// ConfigurationError lists every problem found in a task configuration.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + strings.Join(e.Problems, "; ")
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// PolicyError carries the reasons a session was refused by the admission
// policy.
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return "session blocked by policy: " + strings.Join(e.Reasons, "; ")
}

func (e *PolicyError) Unwrap() error {
	return ErrPolicyDenied
}
