// Package walker implements C3, the page-table hierarchy walker: a lazy,
// in-address-order iterator over the present leaf mappings reachable from a
// directory base, reading physical pages through a dump.Source.
package walker

import (
	"encoding/binary"

	"github.com/0vercl0k/clairvoyance/dump"
	"github.com/0vercl0k/clairvoyance/ptable"
)

// Level names the directory whose child page was missing from the dump.
type Level int

const (
	LevelPDPT Level = iota
	LevelPD
	LevelPT
)

// String renders a Level for diagnostics.
func (l Level) String() string {
	switch l {
	case LevelPDPT:
		return "PDPT"
	case LevelPD:
		return "PD"
	case LevelPT:
		return "PT"
	default:
		return "Unknown"
	}
}

// MissingFunc is called once for every present entry whose child directory
// page could not be found in the dump. It is a warning, never fatal: the
// walker always continues with the next sibling entry at the level above.
type MissingFunc func(level Level, physicalAddress uint64)

// LeafMapping is one decoded, present leaf mapping yielded by the walker.
// When Kind is Huge, Pde/Pte and their addresses are zero; when Kind is
// Large, Pte and its address are zero.
type LeafMapping struct {
	Pml4e        ptable.PTE
	Pml4eAddress uint64

	Pdpte        ptable.PTE
	PdpteAddress uint64

	Pde        ptable.PTE
	PdeAddress uint64

	Pte        ptable.PTE
	PteAddress uint64

	PhysicalBase uint64
	VirtualBase  uint64
	Kind         ptable.Kind
}

// Walker holds the four directory cursors of an in-progress walk. It never
// copies page data: Pml4/Pdpt/Pd/Pt are slices borrowed from the
// dump.Source for as long as the walker is scanning that directory.
type Walker struct {
	src           dump.Source
	directoryBase uint64
	onMissing     MissingFunc

	pml4  []byte
	pml4e int

	pdpt     []byte
	pdptAddr uint64
	pdpte    int

	pd     []byte
	pdAddr uint64
	pde    int

	pt     []byte
	ptAddr uint64
	pte    int
}

// New constructs a Walker rooted at directoryBase. It returns ok=false if
// the root PML4 page itself is not present in the dump (spec's
// RootMissing, a fatal condition the caller must surface). onMissing may be
// nil.
func New(src dump.Source, directoryBase uint64, onMissing MissingFunc) (*Walker, bool) {
	pml4, ok := src.GetPhysicalPage(directoryBase)
	if !ok {
		return nil, false
	}
	if onMissing == nil {
		onMissing = func(Level, uint64) {}
	}
	return &Walker{
		src:           src,
		directoryBase: directoryBase,
		onMissing:     onMissing,
		pml4:          pml4,
	}, true
}

func readPTE(table []byte, index int) ptable.PTE {
	offset := index * 8
	return ptable.PTE{Raw: binary.LittleEndian.Uint64(table[offset : offset+8])}
}

// Next returns the next present leaf mapping in ascending virtual-address
// order, or ok=false once the hierarchy is exhausted.
func (w *Walker) Next() (LeafMapping, bool) {
	for w.pml4e < ptable.EntriesPerTable {
		pml4e := readPTE(w.pml4, w.pml4e)
		if !pml4e.Present() {
			w.pml4e++
			continue
		}

		if w.pdpt == nil {
			addr := pml4e.PhysicalBase()
			pdpt, ok := w.src.GetPhysicalPage(addr)
			if !ok {
				w.onMissing(LevelPDPT, addr)
				w.pml4e++
				continue
			}
			w.pdpt = pdpt
			w.pdptAddr = addr
			w.pdpte = 0
		}

		for w.pdpte < ptable.EntriesPerTable {
			pdpte := readPTE(w.pdpt, w.pdpte)
			if !pdpte.Present() {
				w.pdpte++
				continue
			}

			if pdpte.LargePage() {
				entry := w.makeHugeEntry(pml4e, pdpte)
				w.pdpte++
				return entry, true
			}

			if w.pd == nil {
				addr := pdpte.PhysicalBase()
				pd, ok := w.src.GetPhysicalPage(addr)
				if !ok {
					w.onMissing(LevelPD, addr)
					w.pdpte++
					continue
				}
				w.pd = pd
				w.pdAddr = addr
				w.pde = 0
			}

			for w.pde < ptable.EntriesPerTable {
				pde := readPTE(w.pd, w.pde)
				if !pde.Present() {
					w.pde++
					continue
				}

				if pde.LargePage() {
					entry := w.makeLargeEntry(pml4e, pdpte, pde)
					w.pde++
					return entry, true
				}

				if w.pt == nil {
					addr := pde.PhysicalBase()
					pt, ok := w.src.GetPhysicalPage(addr)
					if !ok {
						w.onMissing(LevelPT, addr)
						w.pde++
						continue
					}
					w.pt = pt
					w.ptAddr = addr
					w.pte = 0
				}

				for w.pte < ptable.EntriesPerTable {
					pte := readPTE(w.pt, w.pte)
					if !pte.Present() {
						w.pte++
						continue
					}

					entry := w.makeNormalEntry(pml4e, pdpte, pde, pte)
					w.pte++
					return entry, true
				}

				w.pt = nil
				w.pde++
			}

			w.pd = nil
			w.pdpte++
		}

		w.pdpt = nil
		w.pml4e++
	}

	return LeafMapping{}, false
}

func (w *Walker) makeHugeEntry(pml4e, pdpte ptable.PTE) LeafMapping {
	va := ptable.FromIndices(uint64(w.pml4e), uint64(w.pdpte), 0, 0)
	return LeafMapping{
		Pml4e:        pml4e,
		Pml4eAddress: w.directoryBase + uint64(w.pml4e)*8,
		Pdpte:        pdpte,
		PdpteAddress: w.pdptAddr + uint64(w.pdpte)*8,
		PhysicalBase: pdpte.PhysicalBase(),
		VirtualBase:  va.Raw,
		Kind:         ptable.Huge,
	}
}

func (w *Walker) makeLargeEntry(pml4e, pdpte, pde ptable.PTE) LeafMapping {
	va := ptable.FromIndices(uint64(w.pml4e), uint64(w.pdpte), uint64(w.pde), 0)
	return LeafMapping{
		Pml4e:        pml4e,
		Pml4eAddress: w.directoryBase + uint64(w.pml4e)*8,
		Pdpte:        pdpte,
		PdpteAddress: w.pdptAddr + uint64(w.pdpte)*8,
		Pde:          pde,
		PdeAddress:   w.pdAddr + uint64(w.pde)*8,
		PhysicalBase: pde.PhysicalBase(),
		VirtualBase:  va.Raw,
		Kind:         ptable.Large,
	}
}

func (w *Walker) makeNormalEntry(pml4e, pdpte, pde, pte ptable.PTE) LeafMapping {
	va := ptable.FromIndices(uint64(w.pml4e), uint64(w.pdpte), uint64(w.pde), uint64(w.pte))
	return LeafMapping{
		Pml4e:        pml4e,
		Pml4eAddress: w.directoryBase + uint64(w.pml4e)*8,
		Pdpte:        pdpte,
		PdpteAddress: w.pdptAddr + uint64(w.pdpte)*8,
		Pde:          pde,
		PdeAddress:   w.pdAddr + uint64(w.pde)*8,
		Pte:          pte,
		PteAddress:   w.ptAddr + uint64(w.pte)*8,
		PhysicalBase: pte.PhysicalBase(),
		VirtualBase:  va.Raw,
		Kind:         ptable.Normal,
	}
}
