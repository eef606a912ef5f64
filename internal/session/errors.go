package session

import "errors"

// Rejected actions are not reported to clients; callers log these and move on.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionFinished    = errors.New("session already finished")
	ErrUnknownParticipant = errors.New("participant not in session")
	ErrRoomFull           = errors.New("room is full")
	ErrNotAllReady        = errors.New("not every participant is ready")
	ErrAlreadyPlaying     = errors.New("match already in progress")
	ErrNotPlaying         = errors.New("match is not in progress")
	ErrStaleConnection    = errors.New("connection no longer owns participant")
)

// IsNoop reports whether err is one of the silently ignored rejections
// rather than an infrastructure failure.
func IsNoop(err error) bool {
	switch {
	case errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrSessionFinished),
		errors.Is(err, ErrUnknownParticipant),
		errors.Is(err, ErrRoomFull),
		errors.Is(err, ErrNotAllReady),
		errors.Is(err, ErrAlreadyPlaying),
		errors.Is(err, ErrNotPlaying),
		errors.Is(err, ErrStaleConnection):
		return true
	}
	return false
}
