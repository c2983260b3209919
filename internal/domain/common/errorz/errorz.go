package errorz

import "errors"

var (
	// ErrRecordTerminal is returned when a write targets a reminder record that is already sent or expired.
	ErrRecordTerminal = errors.New("reminder record is terminal")
	// ErrPassInProgress is returned when a scheduler pass is requested while another is running.
	ErrPassInProgress = errors.New("reminder pass already in progress")

	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrInvalidPreferences = errors.New("invalid reminder preferences")
	ErrNoAddress          = errors.New("recipient has no address for channel")
	ErrNoChannelSender    = errors.New("no sender configured for channel")
	ErrMeetUpCanceled     = errors.New("meet-up is canceled")
)
