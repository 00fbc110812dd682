package services

import "errors"

var (
	// ErrLocationUnavailable means an SOS was attempted without a usable
	// origin location. Dispatch is impossible without one.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrLostRace is the normal outcome for every accept attempt but the
	// winner's. It is not a failure; callers refresh and move on.
	ErrLostRace = errors.New("emergency already taken")

	// ErrNotAssigned means a partner tried to advance a case assigned to
	// someone else.
	ErrNotAssigned = errors.New("emergency not assigned to this partner")

	// ErrInvalidTransition means the requested status change skips, regresses
	// or leaves a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrEmergencyNotFound = errors.New("emergency not found")
	ErrPartnerNotFound   = errors.New("partner profile not found")
)
