package service

import (
	"time"
)

// LessonPassed is the event the lesson UI emits when a learner completes a lesson.
type LessonPassed struct {
	LessonID    string
	LessonTitle string
	// Recipient defaults to "anonymous" when empty.
	Recipient string
}

// State tracks one lesson's credential request.
type State int

const (
	StateIdle State = iota
	StatePending
	StateVerified
	StateDenied
	StateOffline
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateVerified:
		return "verified"
	case StateDenied:
		return "denied"
	case StateOffline:
		return "offline"
	default:
		return "idle"
	}
}

// Notice is a user-facing message about a lesson's credential.
type Notice struct {
	LessonID string
	Message  string
	At       time.Time
}
