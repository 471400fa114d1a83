package linphone

import "github.com/ghettovoice/doorphone/internal/errorutil"

// Error is a sentinel error of this package.
// See [errorutil.Error].
type Error = errorutil.Error

const (
	// ErrNoSession is returned when a command is issued while no client process is running.
	ErrNoSession Error = "no client session"
	// ErrClosed is returned by operations on a closed phone.
	ErrClosed Error = "phone closed"
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted Error = "phone already started"
)
