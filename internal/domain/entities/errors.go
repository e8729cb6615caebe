package entities

import "errors"

// Domain errors
var (
	// Call lifecycle errors
	ErrCallNotFound  = errors.New("call not found")
	ErrNoActiveCall  = errors.New("no active call")
	ErrCallNotActive = errors.New("call not active")

	// Cue card errors
	ErrTriggerNotFound = errors.New("cue card trigger not found")
	ErrInvalidStatus   = errors.New("invalid trigger status")
	ErrInvalidFeedback = errors.New("invalid trigger feedback")

	// Playbook errors
	ErrPlaybookNotFound = errors.New("playbook not found")

	// Report errors
	ErrReportNotFound = errors.New("call report not found")

	// Generic errors
	ErrInvalidRequest = errors.New("invalid request")
)
