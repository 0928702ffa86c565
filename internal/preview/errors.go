package preview

import "errors"

// Error taxonomy for a preview request. Every failure is terminal for the
// current request except ErrSyncPreview, which is recovered locally by
// escalating to the asynchronous path.
var (
	// ErrInvalidInput marks a malformed target URL, checked before any I/O.
	ErrInvalidInput = errors.New("target url is not a valid absolute url")

	// ErrUnauthenticated marks a missing credential, checked before any I/O.
	ErrUnauthenticated = errors.New("no credential available")

	// ErrSyncPreview marks a synchronous-path failure. It is internal only
	// and must never surface to the user as an error.
	ErrSyncPreview = errors.New("synchronous preview failed")

	// ErrAsyncEnqueue marks a failure to even enqueue the async task. There
	// is no further fallback.
	ErrAsyncEnqueue = errors.New("async preview enqueue failed")

	// ErrAsyncTask marks a terminal error reported by the backend over the
	// push channel for a tracked task.
	ErrAsyncTask = errors.New("async preview task failed")

	// ErrUnexpectedMessage marks a message that is not valid for the current
	// phase, such as a terminal message while idle. It indicates a wiring
	// bug rather than a recoverable condition.
	ErrUnexpectedMessage = errors.New("message not valid for current phase")

	// ErrSuperseded marks a request that was canceled by a reset or by a
	// newer request before a terminal outcome arrived.
	ErrSuperseded = errors.New("preview request superseded")
)
