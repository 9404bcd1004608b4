package renderer

import (
	"errors"
	"fmt"
	"strings"
)

// Surface acquisition failures. Lost and outdated surfaces are reconfigured and the frame is
// skipped, a timeout only skips the frame, running out of memory is fatal.
var (
	ErrSurfaceLost     = errors.New("surface lost")
	ErrSurfaceOutdated = errors.New("surface outdated")
	ErrSurfaceTimeout  = errors.New("surface timeout")
	ErrOutOfMemory     = errors.New("out of memory")
)

// ClassifySurfaceError wraps an error returned while acquiring or presenting the surface
// texture in the matching sentinel so callers can use errors.Is. The GPU binding only reports
// the status as text, so the message is matched case-insensitively. Unknown errors are
// returned unchanged.
//
// Parameters:
//   - err: the error from the surface, may be nil
//
// Returns:
//   - error: nil, the classified error, or err itself
func ClassifySurfaceError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrOutOfMemory, ErrSurfaceOutdated, ErrSurfaceLost, ErrSurfaceTimeout} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "out of memory"), strings.Contains(msg, "outofmemory"):
		return fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	case strings.Contains(msg, "outdated"):
		return fmt.Errorf("%w: %v", ErrSurfaceOutdated, err)
	case strings.Contains(msg, "lost"):
		return fmt.Errorf("%w: %v", ErrSurfaceLost, err)
	case strings.Contains(msg, "timeout"):
		return fmt.Errorf("%w: %v", ErrSurfaceTimeout, err)
	default:
		return err
	}
}

// IsRecoverable reports whether a classified surface error only costs the current frame.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSurfaceLost) || errors.Is(err, ErrSurfaceOutdated) || errors.Is(err, ErrSurfaceTimeout)
}
