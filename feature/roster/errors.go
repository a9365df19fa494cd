package roster

import "errors"

var (
	// ErrNotCached is returned when a country has no cached roster.
	ErrNotCached = errors.New("country not cached")
	// ErrInvalidBattalion is returned for an unknown battalion label.
	ErrInvalidBattalion = errors.New("invalid battalion")
	// ErrInvalidMedal is returned for an unknown medal type.
	ErrInvalidMedal = errors.New("invalid medal type")
	// ErrPlayerNotFound is returned when a username matches no cached player.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrConfirmationRequired guards the destructive cache clear.
	ErrConfirmationRequired = errors.New("confirmation required")
)
