package messagelog

import "errors"

// ErrConcurrencyLost is returned by TransitionStatus when the CAS
// precondition no longer holds — another actor already moved the row. Not
// an error condition for the caller: check with errors.Is and exit cleanly.
var ErrConcurrencyLost = errors.New("messagelog: concurrency lost")

// ErrNotFound is returned when a row lookup by id matches nothing.
var ErrNotFound = errors.New("messagelog: not found")
