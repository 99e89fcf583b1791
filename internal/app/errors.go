package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid username or password")

	ErrRequirementsIncomplete = errors.New("question requirements are not collected yet")
	ErrProfileParse           = errors.New("profile analysis could not be parsed")
	ErrProfileRequired        = errors.New("student profile is required")
	ErrEvaluationParse        = errors.New("evaluation could not be parsed")
	ErrNoCurrentQuestion      = errors.New("no question has been asked")
	ErrEmptyAnswer            = errors.New("answer is empty")
	ErrNoRecords              = errors.New("no answered questions in session")
	ErrArchiveDisabled        = errors.New("session archive queue is not configured")
	ErrGeneration             = errors.New("llm generation failed")
)
