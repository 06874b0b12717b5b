package domain

import "fmt"

// NextStatus returns the status a document moves to when event happens in
// state current, and whether that is an actual change.
//
//	IN_CREATION    --publish--> SENT_TO_REVIEW
//	UP_TO_DATE     --edit-----> IN_REVIEW
//	SENT_TO_REVIEW --edit-----> IN_REVIEW
//	IN_REVIEW      --edit-----> IN_REVIEW (no change)
//
// Every other pair leaves the status where it is.
func NextStatus(current StatusCode, event Event) (StatusCode, bool) {
	switch event {
	case EventPublish:
		if current == StatusInCreation {
			return StatusSentToReview, true
		}
	case EventEdit:
		switch current {
		case StatusUpToDate, StatusSentToReview:
			return StatusInReview, true
		}
	}
	return current, false
}

// CanPublish reports whether an explicit publish is allowed from status.
func CanPublish(status StatusCode) error {
	if status != StatusInCreation {
		return fmt.Errorf("%w: cannot publish a document in status %s", ErrInvalidTransition, status)
	}
	return nil
}
