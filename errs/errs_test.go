package errs

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDumpOpenFailureWrapsSentinel(t *testing.T) {
	err := DumpOpenFailure("/tmp/foo.dmp", errors.New("bad header"))
	require.True(t, errors.Is(err, ErrDumpOpenFailure))
	require.Contains(t, err.Error(), "/tmp/foo.dmp")
	require.Contains(t, err.Error(), "bad header")
}

func TestRootMissingNamesDirectoryBase(t *testing.T) {
	err := RootMissing(0x1aa000)
	require.True(t, errors.Is(err, ErrRootMissing))
	require.Contains(t, err.Error(), "0x1aa000")
}

func TestIOWriteFailureWrapsSentinel(t *testing.T) {
	err := IOWriteFailure("/tmp/out.clairvoyance", errors.New("disk full"))
	require.True(t, errors.Is(err, ErrIOWriteFailure))
	require.Contains(t, err.Error(), "disk full")
}
