// Package protection collapses the four levels of x86-64 page-table
// permission bits into a single effective access class.
package protection

import "github.com/0vercl0k/clairvoyance/ptable"

// Class is the effective access permission of a virtual page, folded from
// up to four levels of hardware protection bits. None is reserved for gap
// pixels synthesized by the tape builder; Fold never returns it.
type Class uint8

const (
	None Class = iota
	UserRead
	UserReadExec
	UserReadWrite
	UserReadWriteExec
	KernelRead
	KernelReadExec
	KernelReadWrite
	KernelReadWriteExec
)

// String renders a Class for logging. The record format itself carries the
// numeric value, not this name.
func (c Class) String() string {
	switch c {
	case None:
		return "None"
	case UserRead:
		return "UserRead"
	case UserReadExec:
		return "UserReadExec"
	case UserReadWrite:
		return "UserReadWrite"
	case UserReadWriteExec:
		return "UserReadWriteExec"
	case KernelRead:
		return "KernelRead"
	case KernelReadExec:
		return "KernelReadExec"
	case KernelReadWrite:
		return "KernelReadWrite"
	case KernelReadWriteExec:
		return "KernelReadWriteExec"
	default:
		return "Unknown"
	}
}

// Fold computes the effective Class for a leaf mapping given its PML4E and
// PDPTE (always used) plus PDE and PTE (used only when the walk did not
// terminate at a higher level — pass the zero PTE when a level was not
// traversed).
//
// Hardware access checks take the logical AND of UserAccessible and Write
// across the walk, and the logical OR of NoExecute.
func Fold(pml4e, pdpte, pde, pte ptable.PTE, kind ptable.Kind) Class {
	user := pml4e.UserAccessible() && pdpte.UserAccessible()
	write := pml4e.Write() && pdpte.Write()
	noExec := pml4e.NoExecute() || pdpte.NoExecute()

	if kind != ptable.Huge {
		user = user && pde.UserAccessible()
		write = write && pde.Write()
		noExec = noExec || pde.NoExecute()
	}

	if kind == ptable.Normal {
		user = user && pte.UserAccessible()
		write = write && pte.Write()
		noExec = noExec || pte.NoExecute()
	}

	switch {
	case user && write && !noExec:
		return UserReadWriteExec
	case user && write:
		return UserReadWrite
	case user && !noExec:
		return UserReadExec
	case user:
		return UserRead
	case write && !noExec:
		return KernelReadWriteExec
	case write:
		return KernelReadWrite
	case !noExec:
		return KernelReadExec
	default:
		return KernelRead
	}
}
