// Package dump defines the external collaborator interface the
// reconstruction engine needs from a crash-dump parser. Parsing the actual
// Windows crash-dump format is out of scope for this engine (see spec §1);
// this package only names the contract. Concrete sources live in
// sub-packages such as dump/rawdump.
package dump

// Kind is the reported type of a dump. A dump that is not Full may be
// missing pages that a Full dump would have, which is why the engine warns
// at startup when it sees anything else.
type Kind int

const (
	// Full is a complete physical-memory dump.
	Full Kind = iota
	// Kernel is a kernel-memory-only dump.
	Kernel
	// BMP is a bitmap-style dump (only the pages marked present in a
	// bitmap are captured).
	BMP
)

// String renders a Kind for logging.
func (k Kind) String() string {
	switch k {
	case Full:
		return "Full"
	case Kernel:
		return "Kernel"
	case BMP:
		return "BMP"
	default:
		return "Unknown"
	}
}

// Source is a read-only view of a crash dump's physical memory, as required
// by the page-table walker. Implementations must return stable references
// valid for the lifetime of the Source: the walker never copies page data,
// only holds onto the returned slice.
type Source interface {
	// GetPhysicalPage returns the 4 KiB page at the given physical address,
	// or ok=false if that page is not present in the dump (sparse dumps,
	// kernel-only dumps).
	GetPhysicalPage(physicalAddress uint64) (page []byte, ok bool)

	// GetDirectoryTableBase returns the dump's declared root PML4 physical
	// address, used when the caller does not override it.
	GetDirectoryTableBase() uint64

	// DumpType reports the kind of dump this Source was built from.
	DumpType() Kind
}
