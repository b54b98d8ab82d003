package drive

import "errors"

var (
	// ErrOverflowAmbiguous indicates an encoder delta is implausible even
	// after wraparound correction. The delta has been clamped.
	ErrOverflowAmbiguous = errors.New("encoder delta ambiguous after wraparound correction")
	// ErrInvalidGeometry indicates the drive geometry can't be used.
	ErrInvalidGeometry = errors.New("invalid drive geometry")
)
