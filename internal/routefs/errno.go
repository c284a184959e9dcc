package routefs

import "errors"

// Errno is the failure signal used throughout the route engine. Every
// error that crosses the dispatcher boundary is reduced to one of these
// codes; anything that is not an Errno degrades to EIO so that a defect
// in a handler never leaks internals to the wire.
type Errno int

const (
	EPERM     Errno = iota + 1 // permission denied
	ENOENT                     // no such file or directory
	ESRCH                      // no such process
	EINTR                      // interrupted
	EIO                        // input/output error
	ENXIO                      // no such device or address
	ETIMEDOUT                  // operation timed out
	ENOTSUP                    // operation not supported
)

var errnoNames = map[Errno]string{
	EPERM:     "EPERM",
	ENOENT:    "ENOENT",
	ESRCH:     "ESRCH",
	EINTR:     "EINTR",
	EIO:       "EIO",
	ENXIO:     "ENXIO",
	ETIMEDOUT: "ETIMEDOUT",
	ENOTSUP:   "ENOTSUP",
}

var errnoTexts = map[Errno]string{
	EPERM:     "permission denied",
	ENOENT:    "no such file or directory",
	ESRCH:     "no such process",
	EINTR:     "interrupted system call",
	EIO:       "input/output error",
	ENXIO:     "no such device or address",
	ETIMEDOUT: "operation timed out",
	ENOTSUP:   "operation not supported",
}

func (e Errno) Error() string {
	if text, ok := errnoTexts[e]; ok {
		return text
	}
	return "unknown error"
}

// Symbol returns the wire form of the code, e.g. "ENOENT". The host
// speaking the kernel filesystem protocol maps it to the numeric errno
// of its platform.
func (e Errno) Symbol() string {
	if name, ok := errnoNames[e]; ok {
		return name
	}
	return errnoNames[EIO]
}

// AsErrno reduces an arbitrary handler failure to a wire code. A typed
// failure keeps its code; everything else is a generic EIO.
func AsErrno(err error) Errno {
	var e Errno
	if errors.As(err, &e) {
		return e
	}
	return EIO
}

// ErrStaleHandle is returned by the handle cache when an operation
// references a handle that was never issued or has been released.
var ErrStaleHandle = errors.New("stale file handle")
