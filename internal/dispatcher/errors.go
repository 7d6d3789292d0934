package dispatcher

import "errors"

// Dispatcher errors.
var (
	// ErrNoHandler indicates no handler is installed for a command kind.
	ErrNoHandler = errors.New("dispatcher: no handler for command")

	// ErrUnknownCommand indicates a command kind outside the known set.
	ErrUnknownCommand = errors.New("dispatcher: unknown command")
)
