package bot

import "errors"

var (
	// ErrRunning is returned when an operation that is only valid
	// before the session starts is attempted afterwards.
	ErrRunning = errors.New("bot: session already running")
	// ErrUnmatchedQuote is returned by SplitArgs for argument text with
	// an unterminated quote or a trailing escape.
	ErrUnmatchedQuote = errors.New("bot: unmatched quote in arguments")
)
