package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no session matches an id or pin.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrGenerationInProgress rejects a generation request while one is loading.
	ErrGenerationInProgress = errors.New("content generation already in progress")
	// ErrInvalidTransition is returned by service calls that need a result the current phase cannot give.
	ErrInvalidTransition = errors.New("operation not allowed in current phase")
	// ErrPlayerNotFound indicates no player of the session matches an id.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrCategoryNotFound indicates no round uses the requested category.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrProviderShortResult indicates a provider returned fewer questions than requested.
	ErrProviderShortResult = errors.New("question provider returned too few questions")
	// ErrImportMissingColumn indicates a required CSV column is absent.
	ErrImportMissingColumn = errors.New("missing required column")
	// ErrImportEmpty indicates the import produced no usable questions.
	ErrImportEmpty = errors.New("no valid questions in import")
)
