package domain

import "errors"

var (
	ErrProjectRequired   = errors.New("please choose a project before saving")
	ErrUnknownProject    = errors.New("project is not assigned to you")
	ErrInvalidHealth     = errors.New("health must be Green, Yellow or Red")
	ErrInvalidPercent    = errors.New("percent values must be between 0 and 100")
	ErrNoProjectSelected = errors.New("no project selected")
	ErrNoPreviousEntry   = errors.New("no previous updates found for this project")
	ErrProjectNotFound   = errors.New("project not found")
	ErrUserUnknown       = errors.New("user identity not available")
)

var ErrDraftNotFound = errors.New("draft session not found")
