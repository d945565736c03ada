package protection

import (
	"testing"

	"github.com/0vercl0k/clairvoyance/ptable"
	"github.com/stretchr/testify/require"
)

func mkPTE(present, write, user, noExec bool) ptable.PTE {
	var raw uint64
	if present {
		raw |= 1 << 0
	}
	if write {
		raw |= 1 << 1
	}
	if user {
		raw |= 1 << 2
	}
	if noExec {
		raw |= 1 << 63
	}
	return ptable.PTE{Raw: raw}
}

func TestFoldUniformPathNormal(t *testing.T) {
	rwx := mkPTE(true, true, true, false)
	class := Fold(rwx, rwx, rwx, rwx, ptable.Normal)
	require.Equal(t, UserReadWriteExec, class)

	kr := mkPTE(true, false, false, true)
	class = Fold(kr, kr, kr, kr, ptable.Normal)
	require.Equal(t, KernelRead, class)
}

func TestFoldMonotonicityUser(t *testing.T) {
	rwx := mkPTE(true, true, true, false)
	notUser := mkPTE(true, true, false, false)
	class := Fold(rwx, rwx, notUser, rwx, ptable.Normal)
	require.Equal(t, KernelReadWriteExec, class)
}

func TestFoldMonotonicityNoExecute(t *testing.T) {
	rwx := mkPTE(true, true, true, false)
	nx := mkPTE(true, true, true, true)
	class := Fold(rwx, rwx, rwx, nx, ptable.Normal)
	require.Equal(t, UserReadWrite, class)
}

func TestFoldMonotonicityWrite(t *testing.T) {
	rwx := mkPTE(true, true, true, false)
	readOnly := mkPTE(true, false, true, false)
	class := Fold(rwx, rwx, readOnly, rwx, ptable.Normal)
	require.Equal(t, UserReadExec, class)
}

func TestFoldHugeIgnoresPdeAndPte(t *testing.T) {
	rwx := mkPTE(true, true, true, false)
	zero := ptable.PTE{}
	class := Fold(rwx, rwx, zero, zero, ptable.Huge)
	require.Equal(t, UserReadWriteExec, class)
}

func TestFoldLargeIgnoresPte(t *testing.T) {
	rwx := mkPTE(true, true, true, false)
	zero := ptable.PTE{}
	class := Fold(rwx, rwx, rwx, zero, ptable.Large)
	require.Equal(t, UserReadWriteExec, class)
}

func TestClassString(t *testing.T) {
	require.Equal(t, "None", None.String())
	require.Equal(t, "KernelReadWriteExec", KernelReadWriteExec.String())
}
