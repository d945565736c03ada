// Package errs defines the typed fatal error kinds of the reconstruction
// engine (see spec §7, "Error handling design"). Recoverable events
// (InteriorMissing, GapOverflow, PartialDumpWarning) are not modelled as
// errors here — they reach the caller through callbacks (walker.MissingFunc,
// tape.GapFunc) or a dump.Source.DumpType check and are logged there, never
// propagated as a Go error.
package errs

import "github.com/pkg/errors"

// Sentinel fatal error kinds. Wrap these with errors.Wrap/errors.Wrapf to
// attach the offending path or address; use errors.Is against these values
// to classify a failure.
var (
	// ErrDumpOpenFailure means the dump could not be parsed.
	ErrDumpOpenFailure = errors.New("dump could not be opened")

	// ErrRootMissing means the requested directory base has no mapped PML4
	// page; the walk cannot start.
	ErrRootMissing = errors.New("root PML4 page is not present in the dump")

	// ErrIOWriteFailure means the output record could not be written.
	ErrIOWriteFailure = errors.New("failed to write output record")
)

// DumpOpenFailure wraps ErrDumpOpenFailure, naming the offending path. The
// sentinel stays first in the chain so callers can match it with
// errors.Is.
func DumpOpenFailure(path string, cause error) error {
	return errors.Wrapf(ErrDumpOpenFailure, "%s: %v", path, cause)
}

// RootMissing wraps ErrRootMissing, naming the directory base that had no
// mapped PML4 page.
func RootMissing(directoryBase uint64) error {
	return errors.Wrapf(ErrRootMissing, "directory base 0x%x", directoryBase)
}

// IOWriteFailure wraps ErrIOWriteFailure, naming the output path.
func IOWriteFailure(path string, cause error) error {
	return errors.Wrapf(ErrIOWriteFailure, "%s: %v", path, cause)
}
