package domain

import "errors"

var (
	// ErrUserNotFound is returned when the submitting user is not in the directory.
	ErrUserNotFound = errors.New("user not found")
	// ErrQuestionnaireNotFound is returned when a user has not submitted a questionnaire yet.
	ErrQuestionnaireNotFound = errors.New("questionnaire not found")
	// ErrInvalidSubmission indicates a submission that is missing required fields.
	ErrInvalidSubmission = errors.New("invalid questionnaire submission")
	// ErrSubmissionInProgress is returned when another submission for the same user holds the lock.
	ErrSubmissionInProgress = errors.New("questionnaire submission already in progress")
	// ErrUserExists is returned when creating a user whose email is already registered.
	ErrUserExists = errors.New("user already exists")
)
