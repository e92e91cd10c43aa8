package checksum

import (
	"errors"
	"fmt"
)

// ErrAlreadyFinalized appears if a checksum is written to or finalized after
// Finalize already consumed it. It reports a programming error, callers must
// not retry it.
var ErrAlreadyFinalized = errors.New("checksum: already finalized")

// UnknownAlgorithmError appears if a requested algorithm or checksum header
// name is not one of the supported set.
type UnknownAlgorithmError struct {
	Name string
}

func (e UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("checksum: unknown algorithm %q", e.Name)
}

// MismatchError appears if the received checksum value disagrees with the
// digest of the received body. It is a hard data-integrity failure, whether
// the transfer is retried is up to the caller.
type MismatchError struct {
	Algorithm Algorithm
	Expected  string // value taken from the header or trailer
	Actual    string // locally computed value
}

func (e MismatchError) Error() string {
	return fmt.Sprintf("checksum: %s mismatch, expected %s, got %s",
		e.Algorithm, e.Expected, e.Actual)
}
