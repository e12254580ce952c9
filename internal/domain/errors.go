package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrFeedNotReady      = errors.New("feed is not ready or empty")
	ErrInconsistentState = errors.New("feed entry references a missing paper")
	ErrAlreadyExists     = errors.New("already exists")
	ErrDuplicate         = errors.New("duplicate row")
	ErrInvalidInput      = errors.New("invalid input")

	ErrSummaryFailed   = errors.New("summary generation failed")
	ErrSynthesisFailed = errors.New("voice synthesis failed")
)
